package repository

import (
	"time"

	authdomain "github.com/amo-ladoja/neriah/internal/auth/domain"
)

// ProfileRepository defines persistence for profiles and refresh tokens
type ProfileRepository interface {
	Create(profile *authdomain.Profile) error
	FindByEmail(email string) (*authdomain.Profile, error)
	FindByID(id string) (*authdomain.Profile, error)
	Update(profile *authdomain.Profile) error

	// UpdateGmailTokens persists refreshed OAuth tokens without
	// touching the rest of the profile row
	UpdateGmailTokens(userID, accessToken, refreshToken string, expiresAt time.Time) error

	// ListSyncEligible returns profiles the scheduled sweep should
	// process: sync enabled, initial extraction completed, Gmail
	// credentials present
	ListSyncEligible() ([]authdomain.Profile, error)

	SaveRefreshToken(token *authdomain.RefreshToken) error
	FindRefreshToken(token string) (*authdomain.RefreshToken, error)
	DeleteRefreshToken(token string) error
	DeleteRefreshTokensByUser(userID string) error
}
