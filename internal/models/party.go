package models

import "time"

// PartyCodeLength is the length of generated party codes.
const PartyCodeLength = 6

// PartyCodeAlphabet is the restricted alphabet for party codes. Visually
// ambiguous characters (0/O, 1/I) are excluded, leaving a 32-character set;
// 32^6 codes make collisions acceptably rare for short-lived parties.
const PartyCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	// MaxPartiesPerHost caps non-expired parties owned by one host session.
	MaxPartiesPerHost = 5
	// MaxPartyMembers caps members per party. Rejoins by an existing session
	// do not count against the cap.
	MaxPartyMembers = 20
)

// Party is a time-boxed room identified by a short code.
type Party struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Code          string     `gorm:"size:6;not null;uniqueIndex" json:"code"`
	Name          string     `gorm:"size:100" json:"name"`
	PasswordHash  string     `gorm:"size:100" json:"-"`
	HostSessionID string     `gorm:"size:64;not null;index" json:"host_session_id"`
	ExpiresAt     time.Time  `gorm:"not null;index" json:"expires_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Members    []PartyMember    `gorm:"foreignKey:PartyID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
	QueueItems []PartyQueueItem `gorm:"foreignKey:PartyID;constraint:OnDelete:CASCADE" json:"queue_items,omitempty"`
}

// TableName specifies the table name for GORM.
func (Party) TableName() string {
	return "parties"
}

// HasPassword reports whether joining requires a password.
func (p *Party) HasPassword() bool {
	return p.PasswordHash != ""
}

// Expired reports whether the party is past its expiry at the given instant.
func (p *Party) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// PartyMember is one session inside a party. The unique index on
// (party_id, session_id) gives rejoin its upsert semantics.
type PartyMember struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PartyID     uint      `gorm:"not null;uniqueIndex:idx_party_member" json:"party_id"`
	SessionID   string    `gorm:"size:64;not null;uniqueIndex:idx_party_member" json:"session_id"`
	DisplayName string    `gorm:"size:50;not null" json:"display_name"`
	Avatar      string    `json:"avatar"`
	IsHost      bool      `gorm:"default:false" json:"is_host"`
	UserID      *uint     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (PartyMember) TableName() string {
	return "party_members"
}

// PartyQueueItem is a queued link/media entry in a party. ImagePath is the
// object-storage key of the uploaded thumbnail, collected by the cleanup
// sweep before party rows are deleted.
type PartyQueueItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PartyID   uint      `gorm:"not null;index" json:"party_id"`
	URL       string    `gorm:"type:text;not null" json:"url"`
	Title     string    `gorm:"size:200" json:"title"`
	ImagePath string    `gorm:"size:255" json:"image_path"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	AddedBy   string    `gorm:"size:64" json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (PartyQueueItem) TableName() string {
	return "party_queue_items"
}
