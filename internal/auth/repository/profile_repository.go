package repository

import (
	"errors"
	"time"

	authdomain "github.com/amo-ladoja/neriah/internal/auth/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// profileRepository implements ProfileRepository interface
type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new instance of profileRepository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{
		db: db,
	}
}

func (r *profileRepository) Create(profile *authdomain.Profile) error {
	profile.ID = uuid.New().String()
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = time.Now()
	return r.db.Create(profile).Error
}

func (r *profileRepository) FindByEmail(email string) (*authdomain.Profile, error) {
	var profile authdomain.Profile
	err := r.db.Where("email = ?", email).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) FindByID(id string) (*authdomain.Profile, error) {
	var profile authdomain.Profile
	err := r.db.Where("id = ?", id).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Update(profile *authdomain.Profile) error {
	profile.UpdatedAt = time.Now()
	return r.db.Save(profile).Error
}

func (r *profileRepository) UpdateGmailTokens(userID, accessToken, refreshToken string, expiresAt time.Time) error {
	updates := map[string]interface{}{
		"gmail_access_token":     accessToken,
		"gmail_token_expires_at": expiresAt,
		"updated_at":             time.Now(),
	}
	// A refresh response may omit the refresh token; keep the stored one
	if refreshToken != "" {
		updates["gmail_refresh_token"] = refreshToken
	}
	return r.db.Model(&authdomain.Profile{}).Where("id = ?", userID).Updates(updates).Error
}

func (r *profileRepository) ListSyncEligible() ([]authdomain.Profile, error) {
	var profiles []authdomain.Profile
	err := r.db.
		Where("sync_enabled = ? AND initial_extraction_completed = ?", true, true).
		Where("gmail_access_token <> '' OR gmail_refresh_token <> ''").
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *profileRepository) SaveRefreshToken(token *authdomain.RefreshToken) error {
	// Clean up expired refresh tokens for this user first. Existing
	// valid tokens remain so each device keeps its own session.
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND expires_at < ?", token.UserID, time.Now()).Delete(&authdomain.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
}

func (r *profileRepository) FindRefreshToken(token string) (*authdomain.RefreshToken, error) {
	var refreshToken authdomain.RefreshToken
	err := r.db.Where("token = ?", token).First(&refreshToken).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &refreshToken, nil
}

func (r *profileRepository) DeleteRefreshToken(token string) error {
	return r.db.Where("token = ?", token).Delete(&authdomain.RefreshToken{}).Error
}

func (r *profileRepository) DeleteRefreshTokensByUser(userID string) error {
	return r.db.Where("user_id = ?", userID).Delete(&authdomain.RefreshToken{}).Error
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
