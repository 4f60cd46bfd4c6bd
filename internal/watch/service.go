package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	authrepo "github.com/amo-ladoja/neriah/internal/auth/repository"
	syncusecase "github.com/amo-ladoja/neriah/internal/sync/usecase"
	"github.com/amo-ladoja/neriah/pkg/gmail"

	"cloud.google.com/go/pubsub"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

// GmailNotification is the payload Gmail publishes when watched
// mailboxes change
type GmailNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// Service listens for Gmail push notifications and triggers a sync for
// the affected user, so new mail produces items without waiting for
// the next sweep.
type Service struct {
	pubsubClient *pubsub.Client
	profileRepo  authrepo.ProfileRepository
	orchestrator *syncusecase.SyncOrchestrator
	gmailService *gmail.Service
	topicName    string
	subName      string

	// Gmail notifies repeatedly per history window; track the last
	// historyId per user to not trigger redundant syncs
	mu            sync.Mutex
	lastHistoryID map[string]uint64
}

func NewService(projectID, topicName, credentialsFile string, profileRepo authrepo.ProfileRepository, orchestrator *syncusecase.SyncOrchestrator, gmailService *gmail.Service) (*Service, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %v", err)
	}

	return &Service{
		pubsubClient:  client,
		profileRepo:   profileRepo,
		orchestrator:  orchestrator,
		gmailService:  gmailService,
		topicName:     topicName,
		subName:       topicName + "-sub", // Convention: topic-sub
		lastHistoryID: make(map[string]uint64),
	}, nil
}

// EnableWatch starts Gmail push notifications for one user's mailbox
func (s *Service) EnableWatch(ctx context.Context, userID string) error {
	profile, err := s.profileRepo.FindByID(userID)
	if err != nil {
		return err
	}
	if profile == nil || !profile.HasGmailCredentials() {
		return fmt.Errorf("no Gmail credentials on file")
	}

	onRefresh := func(token *oauth2.Token) error {
		return s.profileRepo.UpdateGmailTokens(userID, token.AccessToken, token.RefreshToken, token.Expiry)
	}
	topicName := fmt.Sprintf("projects/%s/topics/%s", s.pubsubClient.Project(), s.topicName)
	return s.gmailService.Watch(ctx, profile.GmailAccessToken, profile.GmailRefreshToken, topicName, onRefresh)
}

// DisableWatch stops Gmail push notifications for one user's mailbox
func (s *Service) DisableWatch(ctx context.Context, userID string) error {
	profile, err := s.profileRepo.FindByID(userID)
	if err != nil {
		return err
	}
	if profile == nil || !profile.HasGmailCredentials() {
		return fmt.Errorf("no Gmail credentials on file")
	}

	onRefresh := func(token *oauth2.Token) error {
		return s.profileRepo.UpdateGmailTokens(userID, token.AccessToken, token.RefreshToken, token.Expiry)
	}
	return s.gmailService.StopWatch(ctx, profile.GmailAccessToken, profile.GmailRefreshToken, onRefresh)
}

// Start subscribes and blocks receiving messages until ctx is done.
// Run it in a goroutine.
func (s *Service) Start(ctx context.Context) {
	log.Printf("[PubSub] Starting watch service with topic: %s, subscription: %s", s.topicName, s.subName)

	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Printf("[PubSub] Error checking subscription existence: %v", err)
		return
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			log.Printf("[PubSub] Error checking topic existence: %v", err)
			return
		}
		if !topicExists {
			log.Printf("[PubSub] Topic %s does not exist, cannot create subscription", s.topicName)
			return
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 10 * time.Second,
		})
		if err != nil {
			log.Printf("[PubSub] Failed to create subscription: %v", err)
			return
		}
		log.Printf("[PubSub] Created subscription: %s", s.subName)
	}

	log.Printf("[PubSub] Listening for messages on subscription: %s", s.subName)
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(ctx, msg)
		msg.Ack()
	})
	if err != nil {
		log.Printf("[PubSub] Error receiving messages: %v", err)
	}
}

func (s *Service) handleMessage(ctx context.Context, msg *pubsub.Message) {
	var notification GmailNotification
	if err := json.Unmarshal(msg.Data, &notification); err != nil {
		log.Printf("[PubSub] Failed to unmarshal notification: %v", err)
		return
	}

	log.Printf("[PubSub] Mailbox change for %s (historyId: %d)", notification.EmailAddress, notification.HistoryID)

	profile, err := s.profileRepo.FindByEmail(notification.EmailAddress)
	if err != nil {
		log.Printf("[PubSub] Error finding user by email %s: %v", notification.EmailAddress, err)
		return
	}
	if profile == nil {
		log.Printf("[PubSub] No profile for email: %s", notification.EmailAddress)
		return
	}

	if !s.shouldTrigger(profile.ID, notification.HistoryID) {
		return
	}

	run, err := s.orchestrator.TriggerForUser(ctx, profile.ID)
	if err != nil {
		// Overlapping or ineligible triggers are routine here
		if errors.Is(err, syncusecase.ErrSyncInProgress) ||
			errors.Is(err, syncusecase.ErrSyncDisabled) ||
			errors.Is(err, syncusecase.ErrInitialNotCompleted) {
			log.Printf("[PubSub] Skipping triggered sync for %s: %v", profile.ID, err)
			return
		}
		log.Printf("[PubSub] Triggered sync failed for %s: %v", profile.ID, err)
		return
	}

	log.Printf("[PubSub] Triggered sync for %s created %d items", profile.ID, run.ItemsCreated)
}

func (s *Service) shouldTrigger(userID string, historyID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.lastHistoryID[userID]; ok && historyID <= last {
		return false
	}
	s.lastHistoryID[userID] = historyID
	return true
}
