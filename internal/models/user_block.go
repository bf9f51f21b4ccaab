package models

import "time"

// UserBlock is a directed block edge. Creating a block removes any friendship
// rows between the two users in either direction.
type UserBlock struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BlockerID uint      `gorm:"not null;uniqueIndex:idx_user_block_edge" json:"blocker_id"`
	BlockedID uint      `gorm:"not null;uniqueIndex:idx_user_block_edge" json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (UserBlock) TableName() string {
	return "user_blocks"
}
