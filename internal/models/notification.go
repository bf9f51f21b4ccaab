package models

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationType enumerates the kinds of inbox notifications.
type NotificationType string

const (
	// NotificationTypeFriendRequest is sent when a friend request arrives.
	NotificationTypeFriendRequest NotificationType = "friend_request"
	// NotificationTypeFriendAccepted is sent when a request is accepted.
	NotificationTypeFriendAccepted NotificationType = "friend_accepted"
	// NotificationTypePartyInvite is sent when a party invite is claimed or received.
	NotificationTypePartyInvite NotificationType = "party_invite"
)

// ValidNotificationType reports whether t is an enumerated kind.
func ValidNotificationType(t NotificationType) bool {
	switch t {
	case NotificationTypeFriendRequest, NotificationTypeFriendAccepted, NotificationTypePartyInvite:
		return true
	}
	return false
}

// Notification is a per-user inbox row. Side-channel delivery (push, email,
// websocket) never rolls this row back.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index" json:"user_id"`
	Type      NotificationType `gorm:"type:varchar(30);not null" json:"type"`
	Title     string           `gorm:"size:200;not null" json:"title"`
	Body      string           `gorm:"type:text" json:"body,omitempty"`
	Data      datatypes.JSON   `json:"data,omitempty"`
	Read      bool             `gorm:"default:false;index" json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Notification) TableName() string {
	return "notifications"
}
