package domain

import "time"

// Profile is the per-user account row. It doubles as the sync profile:
// the orchestrator reads the Gmail credentials and the sync gates from
// here and writes LastSyncAt / InitialExtractionCompleted back.
type Profile struct {
	ID        string `json:"id" gorm:"primaryKey"`
	Email     string `json:"email" gorm:"uniqueIndex;not null"`
	Password  string `json:"-"` // bcrypt hash; empty for Google-only accounts
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Provider  string `json:"provider"` // "email" or "google"

	GmailAccessToken    string     `json:"-"`
	GmailRefreshToken   string     `json:"-"`
	GmailTokenExpiresAt *time.Time `json:"-"`

	InitialExtractionCompleted bool       `json:"initial_extraction_completed" gorm:"default:false"`
	SyncEnabled                bool       `json:"sync_enabled" gorm:"default:true"`
	LastSyncAt                 *time.Time `json:"last_sync_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Profile) TableName() string {
	return "profiles"
}

// HasGmailCredentials reports whether the mail collaborator can act for
// this user
func (p *Profile) HasGmailCredentials() bool {
	return p.GmailAccessToken != "" || p.GmailRefreshToken != ""
}

type RefreshToken struct {
	Token     string    `json:"token" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index;not null"`
	ExpiresAt time.Time `json:"expires_at"`
}
