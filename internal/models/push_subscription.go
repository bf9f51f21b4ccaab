package models

import (
	"time"

	"gorm.io/datatypes"
)

// PushSubscription stores a browser push subscription blob. When the push
// sender reports the endpoint gone (404/410) the row is deleted.
type PushSubscription struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Endpoint  string         `gorm:"size:500;not null;uniqueIndex" json:"endpoint"`
	Keys      datatypes.JSON `json:"keys"`
	CreatedAt time.Time      `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (PushSubscription) TableName() string {
	return "push_subscriptions"
}
