package models

import (
	"time"

	"gorm.io/datatypes"
)

// EmailEventType enumerates the webhook event kinds the email provider sends.
type EmailEventType string

const (
	EmailEventSent            EmailEventType = "email.sent"
	EmailEventDelivered       EmailEventType = "email.delivered"
	EmailEventDeliveryDelayed EmailEventType = "email.delivery_delayed"
	EmailEventBounced         EmailEventType = "email.bounced"
	EmailEventOpened          EmailEventType = "email.opened"
	EmailEventClicked         EmailEventType = "email.clicked"
	EmailEventComplained      EmailEventType = "email.complained"
)

// ValidEmailEventType reports whether t is an enumerated webhook kind.
func ValidEmailEventType(t EmailEventType) bool {
	switch t {
	case EmailEventSent, EmailEventDelivered, EmailEventDeliveryDelayed,
		EmailEventBounced, EmailEventOpened, EmailEventClicked, EmailEventComplained:
		return true
	}
	return false
}

// EmailEvent is an analytics row for a verified inbound webhook event.
type EmailEvent struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Type      EmailEventType `gorm:"type:varchar(40);not null;index" json:"type"`
	EmailID   string         `gorm:"size:64;index" json:"email_id"`
	Recipient string         `gorm:"size:254" json:"recipient"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (EmailEvent) TableName() string {
	return "email_events"
}
