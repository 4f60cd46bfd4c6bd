package notification

import (
	"context"
	"fmt"
	"log"

	authrepo "github.com/amo-ladoja/neriah/internal/auth/repository"
	"github.com/amo-ladoja/neriah/pkg/fcm"
)

// Service delivers the push side effect after a sync run creates
// items. Callers treat every method as best-effort: a delivery failure
// is logged, never propagated into the run result.
type Service struct {
	fcmClient     *fcm.Client
	pushTokenRepo authrepo.PushTokenRepository
}

// NewService creates a new notification service. fcmClient may be nil
// when Firebase credentials are not configured; notifications become
// no-ops.
func NewService(fcmClient *fcm.Client, pushTokenRepo authrepo.PushTokenRepository) *Service {
	return &Service{
		fcmClient:     fcmClient,
		pushTokenRepo: pushTokenRepo,
	}
}

// NotifyItemsCreated pushes "new items" to all of the user's devices
func (s *Service) NotifyItemsCreated(ctx context.Context, userID string, itemsCreated int) {
	if s.fcmClient == nil || itemsCreated == 0 {
		return
	}

	tokens, err := s.pushTokenRepo.GetTokensByUserID(userID)
	if err != nil {
		log.Printf("[Notification] Failed to load push tokens for user %s: %v", userID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	tokenStrings := make([]string, 0, len(tokens))
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}

	body := fmt.Sprintf("Found %d new actionable items in your inbox", itemsCreated)
	if itemsCreated == 1 {
		body = "Found 1 new actionable item in your inbox"
	}

	notification := fcm.NotificationData{
		Title: "New items extracted",
		Body:  body,
		Data: map[string]string{
			"type":  "items_created",
			"count": fmt.Sprintf("%d", itemsCreated),
			"link":  "/items",
		},
	}

	failedTokens, err := s.fcmClient.SendToDevices(ctx, tokenStrings, notification)
	if err != nil {
		log.Printf("[Notification] Push delivery failed for user %s: %v", userID, err)
		return
	}

	// Prune tokens FCM reports as dead so we stop retrying them
	for _, token := range failedTokens {
		if err := s.pushTokenRepo.DeleteToken(token); err != nil {
			log.Printf("[Notification] Failed to prune stale token: %v", err)
		}
	}
}
