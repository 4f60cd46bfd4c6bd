package usecase

import (
	authdomain "github.com/amo-ladoja/neriah/internal/auth/domain"
	authdto "github.com/amo-ladoja/neriah/internal/auth/dto"
)

// AuthUsecase is the application boundary for account operations
type AuthUsecase interface {
	Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	GoogleSignIn(req *authdto.GoogleSignInRequest) (*authdto.TokenResponse, error)
	RefreshToken(refreshToken string) (*authdto.TokenResponse, error)
	Logout(refreshToken string) error
	ValidateToken(tokenString string) (*authdomain.Profile, error)

	RegisterPushToken(userID, token, deviceInfo string) error
	UnregisterPushToken(token string) error
	UpdateSyncSettings(userID string, syncEnabled bool) (*authdomain.Profile, error)
}
