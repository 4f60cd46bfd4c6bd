package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	authdomain "github.com/amo-ladoja/neriah/internal/auth/domain"
	itemdomain "github.com/amo-ladoja/neriah/internal/item/domain"
	itemrepo "github.com/amo-ladoja/neriah/internal/item/repository"
	syncdomain "github.com/amo-ladoja/neriah/internal/sync/domain"
	"github.com/amo-ladoja/neriah/pkg/ai"
	"github.com/amo-ladoja/neriah/pkg/config"
)

type fakeProfileRepo struct {
	profiles map[string]*authdomain.Profile
	eligible []authdomain.Profile
	updated  []*authdomain.Profile
}

func (f *fakeProfileRepo) Create(p *authdomain.Profile) error {
	f.profiles[p.ID] = p
	return nil
}
func (f *fakeProfileRepo) FindByEmail(email string) (*authdomain.Profile, error) {
	for _, p := range f.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, nil
}
func (f *fakeProfileRepo) FindByID(id string) (*authdomain.Profile, error) {
	return f.profiles[id], nil
}
func (f *fakeProfileRepo) Update(p *authdomain.Profile) error {
	f.updated = append(f.updated, p)
	return nil
}
func (f *fakeProfileRepo) UpdateGmailTokens(userID, accessToken, refreshToken string, expiresAt time.Time) error {
	return nil
}
func (f *fakeProfileRepo) ListSyncEligible() ([]authdomain.Profile, error) { return f.eligible, nil }
func (f *fakeProfileRepo) SaveRefreshToken(t *authdomain.RefreshToken) error { return nil }
func (f *fakeProfileRepo) FindRefreshToken(token string) (*authdomain.RefreshToken, error) {
	return nil, nil
}
func (f *fakeProfileRepo) DeleteRefreshToken(token string) error { return nil }
func (f *fakeProfileRepo) DeleteRefreshTokensByUser(userID string) error { return nil }

type fakeItemRepo struct {
	existing  map[string]bool
	inserted  []itemdomain.Item
	insertErr error
}

func (f *fakeItemRepo) InsertBatch(items []itemdomain.Item) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, items...)
	return nil
}
func (f *fakeItemRepo) FindExistingEmailIDs(userID string, emailIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, id := range emailIDs {
		if f.existing[id] {
			out[id] = true
		}
	}
	return out, nil
}
func (f *fakeItemRepo) List(userID string, filter itemrepo.ItemFilter) ([]itemdomain.Item, int64, error) {
	return nil, 0, nil
}
func (f *fakeItemRepo) FindByID(userID, itemID string) (*itemdomain.Item, error) { return nil, nil }
func (f *fakeItemRepo) FindByIDs(userID string, itemIDs []string) ([]itemdomain.Item, error) {
	return nil, nil
}
func (f *fakeItemRepo) Update(item *itemdomain.Item) error { return nil }
func (f *fakeItemRepo) DeleteAllByUser(userID string) (int64, error) { return 0, nil }

type fakeRunRepo struct {
	created    []*syncdomain.SyncRun
	successes  int
	failures   []string
	lastCounts [2]int
}

func (f *fakeRunRepo) Create(run *syncdomain.SyncRun) error {
	run.ID = "run-1"
	run.Status = syncdomain.SyncStatusRunning
	run.StartedAt = time.Now()
	f.created = append(f.created, run)
	return nil
}
func (f *fakeRunRepo) MarkSuccess(runID string, emailsProcessed, itemsCreated, itemsUpdated int) error {
	f.successes++
	f.lastCounts = [2]int{emailsProcessed, itemsCreated}
	return nil
}
func (f *fakeRunRepo) MarkFailed(runID string, errMsg string) error {
	f.failures = append(f.failures, errMsg)
	return nil
}
func (f *fakeRunRepo) FindByID(runID string) (*syncdomain.SyncRun, error) { return nil, nil }
func (f *fakeRunRepo) ListByUser(userID string, limit int) ([]syncdomain.SyncRun, error) {
	return nil, nil
}
func (f *fakeRunRepo) FindLatestByUser(userID string) (*syncdomain.SyncRun, error) { return nil, nil }
func (f *fakeRunRepo) DeleteAllByUser(userID string) error { return nil }

type fakeMail struct {
	emails []*syncdomain.ParsedEmail
	err    error
}

func (f *fakeMail) FetchRecent(ctx context.Context, profile *authdomain.Profile, lookbackDays, maxResults int) ([]*syncdomain.ParsedEmail, error) {
	return f.emails, f.err
}

type fakeExtractor struct {
	results map[string]*ai.ExtractionResult
	errs    map[string]error
	calls   []string
}

func (f *fakeExtractor) ExtractFromEmail(ctx context.Context, email ai.EmailContext) (*ai.ExtractionResult, error) {
	f.calls = append(f.calls, email.Subject)
	if err, ok := f.errs[email.Subject]; ok {
		return nil, err
	}
	if r, ok := f.results[email.Subject]; ok {
		return r, nil
	}
	return &ai.ExtractionResult{}, nil
}

type fakeNotifier struct {
	calls []int
}

func (f *fakeNotifier) NotifyItemsCreated(ctx context.Context, userID string, itemsCreated int) {
	f.calls = append(f.calls, itemsCreated)
}

func testConfig() *config.Config {
	return &config.Config{
		SyncInitialLookbackDays:   1,
		SyncInitialMessageCap:     5,
		SyncInitialConfidence:     0.5,
		SyncConfidence:            0.7,
		SyncManualLookbackCapDays: 7,
		SyncScheduledLookbackDays: 3,
		SyncMaxConcurrent:         2,
		SyncInitialMaxConcurrent:  1,
	}
}

func testProfile(initialDone bool) *authdomain.Profile {
	return &authdomain.Profile{
		ID:                         "user-1",
		Email:                      "user@example.com",
		GmailAccessToken:           "access",
		InitialExtractionCompleted: initialDone,
		SyncEnabled:                true,
	}
}

type testHarness struct {
	profiles  *fakeProfileRepo
	items     *fakeItemRepo
	runs      *fakeRunRepo
	mail      *fakeMail
	extractor *fakeExtractor
	notifier  *fakeNotifier
	orch      *SyncOrchestrator
}

func newHarness(profile *authdomain.Profile, emails []*syncdomain.ParsedEmail) *testHarness {
	h := &testHarness{
		profiles:  &fakeProfileRepo{profiles: map[string]*authdomain.Profile{}},
		items:     &fakeItemRepo{existing: map[string]bool{}},
		runs:      &fakeRunRepo{},
		mail:      &fakeMail{emails: emails},
		extractor: &fakeExtractor{results: map[string]*ai.ExtractionResult{}, errs: map[string]error{}},
		notifier:  &fakeNotifier{},
	}
	if profile != nil {
		h.profiles.profiles[profile.ID] = profile
	}
	h.orch = NewSyncOrchestrator(h.profiles, h.items, h.runs, h.mail, h.extractor, h.notifier, nil, testConfig())
	return h
}

func email(id, subject string) *syncdomain.ParsedEmail {
	return &syncdomain.ParsedEmail{
		MessageID: id,
		From:      "Sender <sender@example.com>",
		Subject:   subject,
	}
}

func TestRunInitial_EmptyWindowCompletesOnboarding(t *testing.T) {
	profile := testProfile(false)
	h := newHarness(profile, nil)

	run, err := h.orch.RunInitial(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Status != syncdomain.SyncStatusSuccess {
		t.Errorf("status = %q; want success", run.Status)
	}
	if run.EmailsProcessed != 0 || run.ItemsCreated != 0 {
		t.Errorf("counts = %d/%d; want 0/0", run.EmailsProcessed, run.ItemsCreated)
	}
	if !profile.InitialExtractionCompleted {
		t.Error("initial extraction flag not set on empty window")
	}
	if profile.LastSyncAt == nil {
		t.Error("last sync timestamp not set")
	}
	if len(h.items.inserted) != 0 {
		t.Errorf("inserted %d items; want none", len(h.items.inserted))
	}
}

func TestRunInitial_AlreadyCompleted(t *testing.T) {
	h := newHarness(testProfile(true), nil)

	_, err := h.orch.RunInitial(context.Background(), "user-1")
	if !errors.Is(err, ErrInitialAlreadyCompleted) {
		t.Fatalf("err = %v; want ErrInitialAlreadyCompleted", err)
	}
	if len(h.runs.created) != 0 {
		t.Error("no run record should exist for a rejected request")
	}
}

func TestRunManual_RequiresInitial(t *testing.T) {
	h := newHarness(testProfile(false), nil)

	_, err := h.orch.RunManual(context.Background(), "user-1")
	if !errors.Is(err, ErrInitialNotCompleted) {
		t.Fatalf("err = %v; want ErrInitialNotCompleted", err)
	}
}

func TestRunManual_UnknownUser(t *testing.T) {
	h := newHarness(nil, nil)

	_, err := h.orch.RunManual(context.Background(), "nobody")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v; want ErrUserNotFound", err)
	}
}

func TestRunManual_NoCredentials(t *testing.T) {
	profile := testProfile(true)
	profile.GmailAccessToken = ""
	profile.GmailRefreshToken = ""
	h := newHarness(profile, nil)

	_, err := h.orch.RunManual(context.Background(), "user-1")
	if !errors.Is(err, ErrNoGmailCredentials) {
		t.Fatalf("err = %v; want ErrNoGmailCredentials", err)
	}
}

func TestRunManual_SkipsAlreadyProcessedEmails(t *testing.T) {
	h := newHarness(testProfile(true), []*syncdomain.ParsedEmail{
		email("msg-old", "Old"),
		email("msg-new", "New"),
	})
	h.items.existing["msg-old"] = true
	h.extractor.results["New"] = &ai.ExtractionResult{
		Items: []ai.ExtractedItem{ai.ExtractedTask{Title: "Do it", Confidence: 0.9}},
	}

	run, err := h.orch.RunManual(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.extractor.calls) != 1 || h.extractor.calls[0] != "New" {
		t.Errorf("extractor calls = %v; want only the new email", h.extractor.calls)
	}
	if run.EmailsProcessed != 1 || run.ItemsCreated != 1 {
		t.Errorf("counts = %d/%d; want 1/1", run.EmailsProcessed, run.ItemsCreated)
	}
	if len(h.items.inserted) != 1 || h.items.inserted[0].EmailID != "msg-new" {
		t.Errorf("inserted = %+v", h.items.inserted)
	}
}

func TestRunManual_AllProcessedShortCircuits(t *testing.T) {
	profile := testProfile(true)
	h := newHarness(profile, []*syncdomain.ParsedEmail{email("msg-1", "Seen")})
	h.items.existing["msg-1"] = true

	run, err := h.orch.RunManual(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.extractor.calls) != 0 {
		t.Errorf("extractor called %d times; want 0", len(h.extractor.calls))
	}
	if run.Status != syncdomain.SyncStatusSuccess {
		t.Errorf("status = %q; want success", run.Status)
	}
	if profile.LastSyncAt == nil {
		t.Error("last sync timestamp not advanced")
	}
}

func TestRunManual_ConfidenceThresholdApplied(t *testing.T) {
	h := newHarness(testProfile(true), []*syncdomain.ParsedEmail{email("msg-1", "Mixed")})
	h.extractor.results["Mixed"] = &ai.ExtractionResult{
		Items: []ai.ExtractedItem{
			ai.ExtractedTask{Title: "Keep", Confidence: 0.8},
			ai.ExtractedTask{Title: "Drop", Confidence: 0.6},
		},
	}

	run, err := h.orch.RunManual(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.ItemsCreated != 1 {
		t.Fatalf("items created = %d; want 1", run.ItemsCreated)
	}
	if h.items.inserted[0].Title != "Keep" {
		t.Errorf("kept item = %q", h.items.inserted[0].Title)
	}
}

func TestRunManual_ExtractionFailureIsolatedToOneEmail(t *testing.T) {
	h := newHarness(testProfile(true), []*syncdomain.ParsedEmail{
		email("msg-1", "First"),
		email("msg-2", "Second"),
		email("msg-3", "Third"),
	})
	h.extractor.results["First"] = &ai.ExtractionResult{
		Items: []ai.ExtractedItem{ai.ExtractedTask{Title: "One", Confidence: 0.9}},
	}
	h.extractor.errs["Second"] = errors.New("provider unavailable")
	h.extractor.results["Third"] = &ai.ExtractionResult{
		Items: []ai.ExtractedItem{ai.ExtractedTask{Title: "Three", Confidence: 0.9}},
	}

	run, err := h.orch.RunManual(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Status != syncdomain.SyncStatusSuccess {
		t.Fatalf("status = %q; want success", run.Status)
	}
	if run.EmailsProcessed != 3 || run.ItemsCreated != 2 {
		t.Errorf("counts = %d/%d; want 3/2", run.EmailsProcessed, run.ItemsCreated)
	}
	for _, item := range h.items.inserted {
		if item.EmailID == "msg-2" {
			t.Errorf("item created from the failed email: %+v", item)
		}
	}
}

func TestRunManual_BatchFailureFailsRun(t *testing.T) {
	h := newHarness(testProfile(true), []*syncdomain.ParsedEmail{email("msg-1", "Subject")})
	h.extractor.results["Subject"] = &ai.ExtractionResult{
		Items: []ai.ExtractedItem{ai.ExtractedTask{Title: "Do it", Confidence: 0.9}},
	}
	h.items.insertErr = errors.New("constraint violation")

	run, err := h.orch.RunManual(context.Background(), "user-1")
	if err == nil {
		t.Fatal("expected error from batch insert")
	}
	if run == nil || run.Status != syncdomain.SyncStatusFailed {
		t.Fatalf("run = %+v; want failed status", run)
	}
	if len(h.runs.failures) != 1 {
		t.Errorf("MarkFailed called %d times; want 1", len(h.runs.failures))
	}
	if len(h.notifier.calls) != 0 {
		t.Error("notifier must not fire on a failed run")
	}
	if len(h.profiles.updated) != 0 {
		t.Error("profile must not advance on a failed run")
	}
}

func TestRunManual_NotifierReceivesCount(t *testing.T) {
	h := newHarness(testProfile(true), []*syncdomain.ParsedEmail{email("msg-1", "Subject")})
	h.extractor.results["Subject"] = &ai.ExtractionResult{
		Items: []ai.ExtractedItem{
			ai.ExtractedTask{Title: "One", Confidence: 0.9},
			ai.ExtractedMeeting{Title: "Two", Confidence: 0.9},
		},
	}

	_, err := h.orch.RunManual(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.notifier.calls) != 1 || h.notifier.calls[0] != 2 {
		t.Errorf("notifier calls = %v; want [2]", h.notifier.calls)
	}
}

func TestRun_RejectsOverlappingRun(t *testing.T) {
	h := newHarness(testProfile(true), nil)

	if !h.orch.locks.TryAcquire("user-1") {
		t.Fatal("could not seed the lock")
	}
	defer h.orch.locks.Release("user-1")

	_, err := h.orch.RunManual(context.Background(), "user-1")
	if !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("err = %v; want ErrSyncInProgress", err)
	}
	if len(h.runs.created) != 0 {
		t.Error("no run record should exist for a rejected overlap")
	}
}

func TestTriggerForUser_RespectsSyncDisabled(t *testing.T) {
	profile := testProfile(true)
	profile.SyncEnabled = false
	h := newHarness(profile, nil)

	_, err := h.orch.TriggerForUser(context.Background(), "user-1")
	if !errors.Is(err, ErrSyncDisabled) {
		t.Fatalf("err = %v; want ErrSyncDisabled", err)
	}
}

func TestRunScheduledSweep_FailureDoesNotHaltSweep(t *testing.T) {
	good := testProfile(true)
	bad := testProfile(true)
	bad.ID = "user-2"

	h := newHarness(good, []*syncdomain.ParsedEmail{email("msg-1", "Subject")})
	h.profiles.profiles[bad.ID] = bad
	h.profiles.eligible = []authdomain.Profile{*bad, *good}
	h.extractor.results["Subject"] = &ai.ExtractionResult{
		Items: []ai.ExtractedItem{ai.ExtractedTask{Title: "Do it", Confidence: 0.9}},
	}

	// First user's insert fails, second user's succeeds
	calls := 0
	h.items.insertErr = errors.New("boom")
	origMail := h.mail
	h.orch.mail = mailFunc(func(ctx context.Context, p *authdomain.Profile, lookbackDays, maxResults int) ([]*syncdomain.ParsedEmail, error) {
		calls++
		if calls == 2 {
			h.items.insertErr = nil
		}
		return origMail.FetchRecent(ctx, p, lookbackDays, maxResults)
	})

	report, err := h.orch.RunScheduledSweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.UsersProcessed != 2 {
		t.Errorf("users processed = %d; want 2", report.UsersProcessed)
	}
	if report.Failed != 1 || report.Successful != 1 {
		t.Errorf("report = %+v; want 1 ok / 1 failed", report)
	}
	if report.TotalItemsExtracted != 1 {
		t.Errorf("total items = %d; want 1", report.TotalItemsExtracted)
	}
}

type mailFunc func(ctx context.Context, profile *authdomain.Profile, lookbackDays, maxResults int) ([]*syncdomain.ParsedEmail, error)

func (f mailFunc) FetchRecent(ctx context.Context, profile *authdomain.Profile, lookbackDays, maxResults int) ([]*syncdomain.ParsedEmail, error) {
	return f(ctx, profile, lookbackDays, maxResults)
}

func TestLookbackSince(t *testing.T) {
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	twoDaysAgo := now.Add(-48 * time.Hour)
	justOverADay := now.Add(-25 * time.Hour)
	halfDayAgo := now.Add(-12 * time.Hour)
	tenDaysAgo := now.Add(-240 * time.Hour)

	tests := []struct {
		name    string
		last    *time.Time
		capDays int
		want    int
	}{
		{"never synced", nil, 7, 1},
		{"exactly two days", &twoDaysAgo, 7, 2},
		{"just over a day rounds up", &justOverADay, 7, 2},
		{"partial day rounds up", &halfDayAgo, 7, 1},
		{"capped manual", &tenDaysAgo, 7, 7},
		{"capped scheduled", &tenDaysAgo, 3, 3},
	}
	for _, tc := range tests {
		if got := lookbackSince(now, tc.last, tc.capDays); got != tc.want {
			t.Errorf("%s: lookbackSince = %d; want %d", tc.name, got, tc.want)
		}
	}
}
