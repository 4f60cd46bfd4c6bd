package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	authdomain "github.com/amo-ladoja/neriah/internal/auth/domain"
	authrepo "github.com/amo-ladoja/neriah/internal/auth/repository"
	itemdomain "github.com/amo-ladoja/neriah/internal/item/domain"
	itemrepo "github.com/amo-ladoja/neriah/internal/item/repository"
	syncdomain "github.com/amo-ladoja/neriah/internal/sync/domain"
	syncrepo "github.com/amo-ladoja/neriah/internal/sync/repository"
	"github.com/amo-ladoja/neriah/pkg/ai"
	"github.com/amo-ladoja/neriah/pkg/config"
)

// Eligibility errors the delivery layer maps to client-facing 4xx
// responses. Everything else is a server-side failure.
var (
	ErrUserNotFound            = errors.New("user not found")
	ErrNoGmailCredentials      = errors.New("no Gmail credentials on file")
	ErrSyncInProgress          = errors.New("a sync is already running for this user")
	ErrInitialAlreadyCompleted = errors.New("initial extraction already completed")
	ErrInitialNotCompleted     = errors.New("initial extraction has not been completed")
	ErrSyncDisabled            = errors.New("sync is disabled for this user")
)

// Notifier delivers the best-effort push side effect after items land
type Notifier interface {
	NotifyItemsCreated(ctx context.Context, userID string, itemsCreated int)
}

// ItemIndexer maintains the semantic index over created items.
// Indexing failures never affect the run.
type ItemIndexer interface {
	UpsertItemEmbedding(ctx context.Context, itemID, userID, category, title, description string) error
}

// PacingConfig bounds extraction cost per run. The extraction call is
// the most expensive and rate-limited operation in the pipeline, so
// the orchestrator owns the pacing, not the provider.
type PacingConfig struct {
	MaxConcurrent     int
	InterRequestDelay time.Duration
	ExtractionTimeout time.Duration
}

// SyncOrchestrator drives the full pipeline for one run: fetch,
// cross-run dedup, extraction, filtering, normalization, batch insert,
// notification.
type SyncOrchestrator struct {
	profileRepo authrepo.ProfileRepository
	itemRepo    itemrepo.ItemRepository
	runRepo     syncrepo.SyncRunRepository
	mail        MailSource
	extractor   ai.Extractor
	notifier    Notifier
	indexer     ItemIndexer
	cfg         *config.Config
	locks       *userLocks
}

// NewSyncOrchestrator creates a new SyncOrchestrator. indexer may be
// nil when no semantic index is configured.
func NewSyncOrchestrator(
	profileRepo authrepo.ProfileRepository,
	itemRepo itemrepo.ItemRepository,
	runRepo syncrepo.SyncRunRepository,
	mail MailSource,
	extractor ai.Extractor,
	notifier Notifier,
	indexer ItemIndexer,
	cfg *config.Config,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		profileRepo: profileRepo,
		itemRepo:    itemRepo,
		runRepo:     runRepo,
		mail:        mail,
		extractor:   extractor,
		notifier:    notifier,
		indexer:     indexer,
		cfg:         cfg,
		locks:       newUserLocks(),
	}
}

// RunInitial performs the one-time onboarding extraction: a short
// lookback with a hard message cap and a lenient confidence threshold.
func (o *SyncOrchestrator) RunInitial(ctx context.Context, userID string) (*syncdomain.SyncRun, error) {
	profile, err := o.loadProfile(userID)
	if err != nil {
		return nil, err
	}
	if profile.InitialExtractionCompleted {
		return nil, ErrInitialAlreadyCompleted
	}

	pacing := PacingConfig{
		MaxConcurrent:     o.cfg.SyncInitialMaxConcurrent,
		InterRequestDelay: o.cfg.SyncInitialRequestDelay,
		ExtractionTimeout: o.cfg.SyncExtractionTimeout,
	}
	return o.run(ctx, profile, syncdomain.SyncTypeInitial,
		o.cfg.SyncInitialLookbackDays, o.cfg.SyncInitialMessageCap,
		o.cfg.SyncInitialConfidence, pacing)
}

// RunManual performs a user-triggered sync covering the window since
// the last sync, capped to bound cost on a long-dormant account.
func (o *SyncOrchestrator) RunManual(ctx context.Context, userID string) (*syncdomain.SyncRun, error) {
	profile, err := o.loadProfile(userID)
	if err != nil {
		return nil, err
	}
	if !profile.InitialExtractionCompleted {
		return nil, ErrInitialNotCompleted
	}

	lookback := lookbackSince(time.Now(), profile.LastSyncAt, o.cfg.SyncManualLookbackCapDays)
	return o.run(ctx, profile, syncdomain.SyncTypeManual,
		lookback, 0, o.cfg.SyncConfidence, o.standardPacing())
}

// TriggerForUser runs a scheduled-type sync for one user, gated the
// same way the sweep gates. Used by the mailbox watch trigger.
func (o *SyncOrchestrator) TriggerForUser(ctx context.Context, userID string) (*syncdomain.SyncRun, error) {
	profile, err := o.loadProfile(userID)
	if err != nil {
		return nil, err
	}
	if !profile.SyncEnabled {
		return nil, ErrSyncDisabled
	}
	if !profile.InitialExtractionCompleted {
		return nil, ErrInitialNotCompleted
	}

	return o.runScheduled(ctx, profile)
}

// RunScheduledSweep syncs every eligible user sequentially with a
// fixed inter-user delay to stay under provider rate limits. One
// user's failure is recorded on that user's run and does not halt the
// sweep.
func (o *SyncOrchestrator) RunScheduledSweep(ctx context.Context) (*syncdomain.SweepReport, error) {
	profiles, err := o.profileRepo.ListSyncEligible()
	if err != nil {
		return nil, fmt.Errorf("listing eligible profiles: %w", err)
	}

	log.Printf("[Sync] Scheduled sweep starting for %d users", len(profiles))
	report := &syncdomain.SweepReport{}

	for i := range profiles {
		if i > 0 && o.cfg.SyncInterUserDelay > 0 {
			time.Sleep(o.cfg.SyncInterUserDelay)
		}

		profile := profiles[i]
		report.UsersProcessed++

		run, err := o.runScheduled(ctx, &profile)
		if err != nil {
			report.Failed++
			log.Printf("[Sync] Scheduled sync failed for user %s: %v", profile.ID, err)
			continue
		}
		report.Successful++
		report.TotalItemsExtracted += run.ItemsCreated
	}

	log.Printf("[Sync] Scheduled sweep done: %d users, %d ok, %d failed, %d items",
		report.UsersProcessed, report.Successful, report.Failed, report.TotalItemsExtracted)
	return report, nil
}

// ListRuns returns the user's recent sync history, newest first
func (o *SyncOrchestrator) ListRuns(userID string, limit int) ([]syncdomain.SyncRun, error) {
	return o.runRepo.ListByUser(userID, limit)
}

func (o *SyncOrchestrator) runScheduled(ctx context.Context, profile *authdomain.Profile) (*syncdomain.SyncRun, error) {
	lookback := lookbackSince(time.Now(), profile.LastSyncAt, o.cfg.SyncScheduledLookbackDays)
	return o.run(ctx, profile, syncdomain.SyncTypeScheduled,
		lookback, 0, o.cfg.SyncConfidence, o.standardPacing())
}

func (o *SyncOrchestrator) standardPacing() PacingConfig {
	return PacingConfig{
		MaxConcurrent:     o.cfg.SyncMaxConcurrent,
		InterRequestDelay: o.cfg.SyncInterRequestDelay,
		ExtractionTimeout: o.cfg.SyncExtractionTimeout,
	}
}

func (o *SyncOrchestrator) loadProfile(userID string) (*authdomain.Profile, error) {
	profile, err := o.profileRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrUserNotFound
	}
	if !profile.HasGmailCredentials() {
		return nil, ErrNoGmailCredentials
	}
	return profile, nil
}

// lookbackSince converts the time since the last sync into whole days,
// rounding up, defaulting to 1 and capped at capDays
func lookbackSince(now time.Time, lastSyncAt *time.Time, capDays int) int {
	days := 1
	if lastSyncAt != nil {
		elapsed := now.Sub(*lastSyncAt)
		if elapsed > 0 {
			days = int(math.Ceil(elapsed.Hours() / 24))
		}
		if days < 1 {
			days = 1
		}
	}
	if capDays > 0 && days > capDays {
		days = capDays
	}
	return days
}

// run is the shared state machine: create the run record, execute the
// pipeline, and make sure the record reaches exactly one terminal
// state. Errors from inside the pipeline mark the run failed and are
// re-surfaced to the caller; that is the only path that propagates.
func (o *SyncOrchestrator) run(ctx context.Context, profile *authdomain.Profile, syncType syncdomain.SyncType, lookbackDays, maxMessages int, threshold float64, pacing PacingConfig) (*syncdomain.SyncRun, error) {
	if !o.locks.TryAcquire(profile.ID) {
		return nil, ErrSyncInProgress
	}
	defer o.locks.Release(profile.ID)

	run := &syncdomain.SyncRun{
		UserID:   profile.ID,
		SyncType: syncType,
	}
	if err := o.runRepo.Create(run); err != nil {
		return nil, fmt.Errorf("creating sync run: %w", err)
	}

	log.Printf("[Sync] Run %s started: user=%s type=%s lookback=%dd", run.ID, profile.ID, syncType, lookbackDays)

	emailsProcessed, itemsCreated, err := o.execute(ctx, profile, syncType, lookbackDays, maxMessages, threshold, pacing)
	if err != nil {
		if markErr := o.runRepo.MarkFailed(run.ID, err.Error()); markErr != nil {
			log.Printf("[Sync] Failed to mark run %s failed: %v", run.ID, markErr)
		}
		run.Status = syncdomain.SyncStatusFailed
		run.ErrorMessage = err.Error()
		return run, err
	}

	if err := o.runRepo.MarkSuccess(run.ID, emailsProcessed, itemsCreated, 0); err != nil {
		return nil, fmt.Errorf("finalizing sync run: %w", err)
	}

	now := time.Now()
	run.Status = syncdomain.SyncStatusSuccess
	run.EmailsProcessed = emailsProcessed
	run.ItemsCreated = itemsCreated
	run.CompletedAt = &now

	log.Printf("[Sync] Run %s done: %d emails, %d items", run.ID, emailsProcessed, itemsCreated)
	return run, nil
}

// execute performs the pipeline steps and returns the final counts.
// Any error aborts the run; the caller records it on the run row.
func (o *SyncOrchestrator) execute(ctx context.Context, profile *authdomain.Profile, syncType syncdomain.SyncType, lookbackDays, maxMessages int, threshold float64, pacing PacingConfig) (int, int, error) {
	emails, err := o.mail.FetchRecent(ctx, profile, lookbackDays, maxMessages)
	if err != nil {
		return 0, 0, fmt.Errorf("fetching emails: %w", err)
	}

	if len(emails) == 0 {
		log.Printf("[Sync] No emails in window for user %s", profile.ID)
		return 0, 0, o.updateProfileAfterRun(profile, syncType)
	}

	// Cross-run dedup before any extraction call is spent: emails that
	// already produced items in a prior run are skipped entirely
	messageIDs := make([]string, 0, len(emails))
	for _, e := range emails {
		messageIDs = append(messageIDs, e.MessageID)
	}
	existing, err := o.itemRepo.FindExistingEmailIDs(profile.ID, messageIDs)
	if err != nil {
		return 0, 0, fmt.Errorf("checking processed emails: %w", err)
	}

	newEmails := make([]*syncdomain.ParsedEmail, 0, len(emails))
	for _, e := range emails {
		if !existing[e.MessageID] {
			newEmails = append(newEmails, e)
		}
	}

	if len(newEmails) == 0 {
		log.Printf("[Sync] All %d emails already processed for user %s", len(emails), profile.ID)
		return 0, 0, o.updateProfileAfterRun(profile, syncType)
	}

	log.Printf("[Sync] Extracting from %d new emails (of %d fetched) for user %s", len(newEmails), len(emails), profile.ID)
	results := o.extractAll(ctx, newEmails, pacing)

	var items []itemdomain.Item
	for i, email := range newEmails {
		result := results[i]
		kept := ai.FilterByConfidence(result.Items, threshold)
		kept = DedupeCandidates(kept)
		for _, candidate := range kept {
			items = append(items, BuildItem(candidate, email, profile.ID, result.Summary))
		}
	}

	if len(items) > 0 {
		// All-or-nothing: a batch failure fails the run with zero
		// items reported even if some rows might have persisted
		if err := o.itemRepo.InsertBatch(items); err != nil {
			return 0, 0, fmt.Errorf("inserting items: %w", err)
		}

		o.notifier.NotifyItemsCreated(ctx, profile.ID, len(items))
		o.indexItems(ctx, items)
	}

	if err := o.updateProfileAfterRun(profile, syncType); err != nil {
		return 0, 0, err
	}
	return len(newEmails), len(items), nil
}

// extractAll fans the extraction calls out under the pacing policy.
// Results align by index with emails; a per-email failure yields an
// empty result and is not retried within the run.
func (o *SyncOrchestrator) extractAll(ctx context.Context, emails []*syncdomain.ParsedEmail, pacing PacingConfig) []*ai.ExtractionResult {
	results := make([]*ai.ExtractionResult, len(emails))

	concurrency := pacing.MaxConcurrent
	if concurrency < 1 {
		concurrency = 1
	}
	semaphore := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for i := range emails {
		if i > 0 && pacing.InterRequestDelay > 0 {
			time.Sleep(pacing.InterRequestDelay)
		}

		wg.Add(1)
		semaphore <- struct{}{}
		go func(i int, email *syncdomain.ParsedEmail) {
			defer wg.Done()
			defer func() { <-semaphore }()
			results[i] = o.extractOne(ctx, email, pacing.ExtractionTimeout)
		}(i, emails[i])
	}
	wg.Wait()

	return results
}

func (o *SyncOrchestrator) extractOne(ctx context.Context, email *syncdomain.ParsedEmail, timeout time.Duration) *ai.ExtractionResult {
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	attachments := make([]ai.AttachmentInfo, 0, len(email.Attachments))
	for _, a := range email.Attachments {
		attachments = append(attachments, ai.AttachmentInfo{
			Filename: a.Filename,
			MimeType: a.MimeType,
		})
	}

	date := email.Date
	if date == "" && !email.InternalDate.IsZero() {
		date = email.InternalDate.UTC().Format(time.RFC3339)
	}

	result, err := o.extractor.ExtractFromEmail(callCtx, ai.EmailContext{
		From:           email.From,
		Subject:        email.Subject,
		Body:           email.Body,
		Date:           date,
		HasAttachments: email.HasAttachments,
		Attachments:    attachments,
	})
	if err != nil {
		log.Printf("[Sync] Extraction failed for message %s: %v", email.MessageID, err)
		return &ai.ExtractionResult{
			Summary:         "Extraction failed",
			ProcessingNotes: err.Error(),
		}
	}
	return result
}

func (o *SyncOrchestrator) indexItems(ctx context.Context, items []itemdomain.Item) {
	if o.indexer == nil {
		return
	}
	for _, item := range items {
		if err := o.indexer.UpsertItemEmbedding(ctx, item.ID, item.UserID, string(item.Category), item.Title, item.Description); err != nil {
			log.Printf("[Sync] Failed to index item %s: %v", item.ID, err)
		}
	}
}

// updateProfileAfterRun advances the sync gates on every non-failing
// path: LastSyncAt always, InitialExtractionCompleted for initial runs
// whether or not anything was found, since the gate means "onboarding
// done", not "found something".
func (o *SyncOrchestrator) updateProfileAfterRun(profile *authdomain.Profile, syncType syncdomain.SyncType) error {
	now := time.Now()
	profile.LastSyncAt = &now
	if syncType == syncdomain.SyncTypeInitial {
		profile.InitialExtractionCompleted = true
	}
	if err := o.profileRepo.Update(profile); err != nil {
		return fmt.Errorf("updating profile after run: %w", err)
	}
	return nil
}
