package models

import "time"

// InviteToken is an email-addressed pending invitation to a party. It is
// claimed at most once, by the first authenticated session whose email
// matches; the guarded claim update makes concurrent claims no-op.
type InviteToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Token     string    `gorm:"size:64;not null;uniqueIndex" json:"token"`
	InviterID uint      `gorm:"not null;index" json:"inviter_id"`
	PartyCode string    `gorm:"size:6;not null;index" json:"party_code"`
	Email     string    `gorm:"size:254;not null;index" json:"email"`
	Claimed   bool      `gorm:"default:false" json:"claimed"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Inviter User `gorm:"foreignKey:InviterID" json:"inviter,omitempty"`
}

// TableName specifies the table name for GORM.
func (InviteToken) TableName() string {
	return "invite_tokens"
}
