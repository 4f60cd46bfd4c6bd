package usecase

import (
	"context"

	authdomain "github.com/amo-ladoja/neriah/internal/auth/domain"
	authrepo "github.com/amo-ladoja/neriah/internal/auth/repository"
	syncdomain "github.com/amo-ladoja/neriah/internal/sync/domain"
	"github.com/amo-ladoja/neriah/pkg/gmail"

	"golang.org/x/oauth2"
)

// MailSource fetches and parses recent messages for a profile
type MailSource interface {
	FetchRecent(ctx context.Context, profile *authdomain.Profile, lookbackDays, maxResults int) ([]*syncdomain.ParsedEmail, error)
}

// gmailMailSource adapts the Gmail client to the orchestrator,
// persisting refreshed OAuth tokens back to the profile row as a side
// channel.
type gmailMailSource struct {
	svc         *gmail.Service
	profileRepo authrepo.ProfileRepository
}

// NewGmailMailSource creates a MailSource backed by the Gmail API
func NewGmailMailSource(svc *gmail.Service, profileRepo authrepo.ProfileRepository) MailSource {
	return &gmailMailSource{
		svc:         svc,
		profileRepo: profileRepo,
	}
}

func (s *gmailMailSource) FetchRecent(ctx context.Context, profile *authdomain.Profile, lookbackDays, maxResults int) ([]*syncdomain.ParsedEmail, error) {
	userID := profile.ID
	onRefresh := func(token *oauth2.Token) error {
		return s.profileRepo.UpdateGmailTokens(userID, token.AccessToken, token.RefreshToken, token.Expiry)
	}

	messages, err := s.svc.FetchRecentMessages(ctx, profile.GmailAccessToken, profile.GmailRefreshToken, lookbackDays, maxResults, onRefresh)
	if err != nil {
		return nil, err
	}

	parsed := make([]*syncdomain.ParsedEmail, 0, len(messages))
	for _, msg := range messages {
		parsed = append(parsed, gmail.ParseMessage(msg))
	}
	return parsed, nil
}
