package usecase

import (
	"errors"
	"testing"
	"time"

	authdomain "github.com/amo-ladoja/neriah/internal/auth/domain"
	itemdomain "github.com/amo-ladoja/neriah/internal/item/domain"
	"github.com/amo-ladoja/neriah/internal/item/repository"
	syncdomain "github.com/amo-ladoja/neriah/internal/sync/domain"
)

type fakeItemRepo struct {
	items        map[string]*itemdomain.Item
	updated      []*itemdomain.Item
	deletedCount int64
	deletedUser  string
}

func newFakeItemRepo(items ...*itemdomain.Item) *fakeItemRepo {
	f := &fakeItemRepo{items: map[string]*itemdomain.Item{}}
	for _, item := range items {
		f.items[item.ID] = item
	}
	return f
}

func (f *fakeItemRepo) InsertBatch(items []itemdomain.Item) error { return nil }
func (f *fakeItemRepo) FindExistingEmailIDs(userID string, emailIDs []string) (map[string]bool, error) {
	return nil, nil
}
func (f *fakeItemRepo) List(userID string, filter repository.ItemFilter) ([]itemdomain.Item, int64, error) {
	return nil, 0, nil
}
func (f *fakeItemRepo) FindByID(userID, itemID string) (*itemdomain.Item, error) {
	item, ok := f.items[itemID]
	if !ok || item.UserID != userID {
		return nil, nil
	}
	return item, nil
}
func (f *fakeItemRepo) FindByIDs(userID string, itemIDs []string) ([]itemdomain.Item, error) {
	return nil, nil
}
func (f *fakeItemRepo) Update(item *itemdomain.Item) error {
	f.updated = append(f.updated, item)
	return nil
}
func (f *fakeItemRepo) DeleteAllByUser(userID string) (int64, error) {
	f.deletedUser = userID
	return f.deletedCount, nil
}

type fakeProfileStore struct {
	profile *authdomain.Profile
	updated bool
}

func (f *fakeProfileStore) Create(p *authdomain.Profile) error { return nil }
func (f *fakeProfileStore) FindByEmail(email string) (*authdomain.Profile, error) { return nil, nil }
func (f *fakeProfileStore) FindByID(id string) (*authdomain.Profile, error) { return f.profile, nil }
func (f *fakeProfileStore) Update(p *authdomain.Profile) error {
	f.updated = true
	return nil
}
func (f *fakeProfileStore) UpdateGmailTokens(userID, accessToken, refreshToken string, expiresAt time.Time) error {
	return nil
}
func (f *fakeProfileStore) ListSyncEligible() ([]authdomain.Profile, error) { return nil, nil }
func (f *fakeProfileStore) SaveRefreshToken(t *authdomain.RefreshToken) error { return nil }
func (f *fakeProfileStore) FindRefreshToken(token string) (*authdomain.RefreshToken, error) {
	return nil, nil
}
func (f *fakeProfileStore) DeleteRefreshToken(token string) error { return nil }
func (f *fakeProfileStore) DeleteRefreshTokensByUser(userID string) error { return nil }

type fakePushTokens struct {
	deletedUser string
}

func (f *fakePushTokens) SaveToken(userID, token, deviceInfo string) error { return nil }
func (f *fakePushTokens) GetTokensByUserID(userID string) ([]authdomain.PushToken, error) {
	return nil, nil
}
func (f *fakePushTokens) DeleteToken(token string) error { return nil }
func (f *fakePushTokens) DeleteTokensByUserID(userID string) error {
	f.deletedUser = userID
	return nil
}

type fakeRunStore struct {
	deletedUser string
}

func (f *fakeRunStore) Create(run *syncdomain.SyncRun) error { return nil }
func (f *fakeRunStore) MarkSuccess(runID string, emailsProcessed, itemsCreated, itemsUpdated int) error {
	return nil
}
func (f *fakeRunStore) MarkFailed(runID string, errMsg string) error { return nil }
func (f *fakeRunStore) FindByID(runID string) (*syncdomain.SyncRun, error) { return nil, nil }
func (f *fakeRunStore) ListByUser(userID string, limit int) ([]syncdomain.SyncRun, error) {
	return nil, nil
}
func (f *fakeRunStore) FindLatestByUser(userID string) (*syncdomain.SyncRun, error) { return nil, nil }
func (f *fakeRunStore) DeleteAllByUser(userID string) error {
	f.deletedUser = userID
	return nil
}

func pendingItem() *itemdomain.Item {
	return &itemdomain.Item{
		ID:     "item-1",
		UserID: "user-1",
		Title:  "Do the thing",
		Status: itemdomain.StatusPending,
	}
}

func newTestUsecase(items *fakeItemRepo, profiles *fakeProfileStore, pushTokens *fakePushTokens, runs *fakeRunStore) ItemUsecase {
	if profiles == nil {
		profiles = &fakeProfileStore{}
	}
	if pushTokens == nil {
		pushTokens = &fakePushTokens{}
	}
	if runs == nil {
		runs = &fakeRunStore{}
	}
	return NewItemUsecase(items, profiles, pushTokens, runs, nil)
}

func TestComplete(t *testing.T) {
	item := pendingItem()
	until := time.Now().Add(time.Hour)
	item.SnoozedUntil = &until
	repo := newFakeItemRepo(item)
	uc := newTestUsecase(repo, nil, nil, nil)

	got, err := uc.Complete("user-1", "item-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != itemdomain.StatusCompleted {
		t.Errorf("status = %q", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("completed timestamp not set")
	}
	if got.SnoozedUntil != nil {
		t.Error("completing must clear the snooze")
	}
	if len(repo.updated) != 1 {
		t.Errorf("updates = %d; want 1", len(repo.updated))
	}
}

func TestComplete_NotFound(t *testing.T) {
	uc := newTestUsecase(newFakeItemRepo(), nil, nil, nil)

	_, err := uc.Complete("user-1", "missing")
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("err = %v; want ErrItemNotFound", err)
	}
}

func TestComplete_WrongUser(t *testing.T) {
	uc := newTestUsecase(newFakeItemRepo(pendingItem()), nil, nil, nil)

	_, err := uc.Complete("intruder", "item-1")
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("err = %v; want ErrItemNotFound", err)
	}
}

func TestSnooze(t *testing.T) {
	repo := newFakeItemRepo(pendingItem())
	uc := newTestUsecase(repo, nil, nil, nil)
	until := time.Now().Add(24 * time.Hour)

	got, err := uc.Snooze("user-1", "item-1", until)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != itemdomain.StatusSnoozed {
		t.Errorf("status = %q", got.Status)
	}
	if got.SnoozedUntil == nil || !got.SnoozedUntil.Equal(until) {
		t.Errorf("snoozed until = %v", got.SnoozedUntil)
	}
}

func TestSnooze_PastRejected(t *testing.T) {
	uc := newTestUsecase(newFakeItemRepo(pendingItem()), nil, nil, nil)

	_, err := uc.Snooze("user-1", "item-1", time.Now().Add(-time.Hour))
	if err == nil {
		t.Fatal("expected error for past snooze time")
	}
}

func TestDelete_IsStatusTransition(t *testing.T) {
	repo := newFakeItemRepo(pendingItem())
	uc := newTestUsecase(repo, nil, nil, nil)

	got, err := uc.Delete("user-1", "item-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != itemdomain.StatusDeleted {
		t.Errorf("status = %q", got.Status)
	}
	if len(repo.updated) != 1 {
		t.Error("soft delete must go through Update, not a row delete")
	}
}

func TestLeaveFeedback(t *testing.T) {
	repo := newFakeItemRepo(pendingItem())
	uc := newTestUsecase(repo, nil, nil, nil)

	got, err := uc.LeaveFeedback("user-1", "item-1", itemdomain.FeedbackNegative, "not actionable")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserFeedback != itemdomain.FeedbackNegative {
		t.Errorf("feedback = %q", got.UserFeedback)
	}
	if got.FeedbackComment != "not actionable" {
		t.Errorf("comment = %q", got.FeedbackComment)
	}
	if got.FeedbackAt == nil {
		t.Error("feedback timestamp not set")
	}
}

func TestLeaveFeedback_RejectsUnknownValue(t *testing.T) {
	uc := newTestUsecase(newFakeItemRepo(pendingItem()), nil, nil, nil)

	_, err := uc.LeaveFeedback("user-1", "item-1", "meh", "")
	if err == nil {
		t.Fatal("expected error for unknown feedback value")
	}
}

func TestDeleteAll_WipesEverything(t *testing.T) {
	repo := newFakeItemRepo()
	repo.deletedCount = 7
	now := time.Now()
	profiles := &fakeProfileStore{profile: &authdomain.Profile{
		ID:                         "user-1",
		InitialExtractionCompleted: true,
		LastSyncAt:                 &now,
	}}
	pushTokens := &fakePushTokens{}
	runs := &fakeRunStore{}
	uc := newTestUsecase(repo, profiles, pushTokens, runs)

	deleted, err := uc.DeleteAll("user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 7 {
		t.Errorf("deleted = %d; want 7", deleted)
	}
	if repo.deletedUser != "user-1" || pushTokens.deletedUser != "user-1" || runs.deletedUser != "user-1" {
		t.Error("not all stores were wiped")
	}
	if !profiles.updated {
		t.Fatal("profile not updated")
	}
	if profiles.profile.InitialExtractionCompleted {
		t.Error("initial extraction flag not reset")
	}
	if profiles.profile.LastSyncAt != nil {
		t.Error("last sync timestamp not reset")
	}
}
