package models

import "time"

// FriendshipStatus represents the status of a directed friendship edge.
type FriendshipStatus string

const (
	// FriendshipStatusPending indicates a friend request awaiting a response.
	FriendshipStatusPending FriendshipStatus = "pending"
	// FriendshipStatusAccepted indicates one half of a mutual friendship.
	FriendshipStatusAccepted FriendshipStatus = "accepted"
)

// Friendship is one directed edge of the friendship graph.
//
// A pending request is exactly one row (sender -> recipient, pending). A
// mutual friendship is exactly two rows: (A -> B, accepted) and
// (B -> A, accepted). The unique index on (user_id, friend_id) converts
// raced duplicate inserts into conflict responses. All mutations go through
// service.FriendService so no caller can construct an inconsistent pair.
type Friendship struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;uniqueIndex:idx_friendship_edge" json:"user_id"`
	FriendID  uint             `gorm:"not null;uniqueIndex:idx_friendship_edge" json:"friend_id"`
	Status    FriendshipStatus `gorm:"type:varchar(20);default:'pending';index:idx_friendships_status" json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`

	// Relationships
	User   User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Friend User `gorm:"foreignKey:FriendID" json:"friend,omitempty"`
}

// TableName specifies the table name for GORM
func (Friendship) TableName() string {
	return "friendships"
}
