package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authdomain "github.com/amo-ladoja/neriah/internal/auth/domain"
	itemdomain "github.com/amo-ladoja/neriah/internal/item/domain"
	itemrepo "github.com/amo-ladoja/neriah/internal/item/repository"
	syncdomain "github.com/amo-ladoja/neriah/internal/sync/domain"
	"github.com/amo-ladoja/neriah/internal/sync/usecase"
	"github.com/amo-ladoja/neriah/pkg/ai"
	"github.com/amo-ladoja/neriah/pkg/config"

	"github.com/gin-gonic/gin"
)

type stubProfileRepo struct {
	profile *authdomain.Profile
}

func (s *stubProfileRepo) Create(p *authdomain.Profile) error { return nil }
func (s *stubProfileRepo) FindByEmail(email string) (*authdomain.Profile, error) { return nil, nil }
func (s *stubProfileRepo) FindByID(id string) (*authdomain.Profile, error) { return s.profile, nil }
func (s *stubProfileRepo) Update(p *authdomain.Profile) error { return nil }
func (s *stubProfileRepo) UpdateGmailTokens(userID, accessToken, refreshToken string, expiresAt time.Time) error {
	return nil
}
func (s *stubProfileRepo) ListSyncEligible() ([]authdomain.Profile, error) { return nil, nil }
func (s *stubProfileRepo) SaveRefreshToken(t *authdomain.RefreshToken) error { return nil }
func (s *stubProfileRepo) FindRefreshToken(token string) (*authdomain.RefreshToken, error) {
	return nil, nil
}
func (s *stubProfileRepo) DeleteRefreshToken(token string) error { return nil }
func (s *stubProfileRepo) DeleteRefreshTokensByUser(userID string) error { return nil }

type stubItemRepo struct{}

func (s *stubItemRepo) InsertBatch(items []itemdomain.Item) error { return nil }
func (s *stubItemRepo) FindExistingEmailIDs(userID string, emailIDs []string) (map[string]bool, error) {
	return map[string]bool{}, nil
}
func (s *stubItemRepo) List(userID string, filter itemrepo.ItemFilter) ([]itemdomain.Item, int64, error) {
	return nil, 0, nil
}
func (s *stubItemRepo) FindByID(userID, itemID string) (*itemdomain.Item, error) { return nil, nil }
func (s *stubItemRepo) FindByIDs(userID string, itemIDs []string) ([]itemdomain.Item, error) {
	return nil, nil
}
func (s *stubItemRepo) Update(item *itemdomain.Item) error { return nil }
func (s *stubItemRepo) DeleteAllByUser(userID string) (int64, error) { return 0, nil }

type stubRunRepo struct{}

func (s *stubRunRepo) Create(run *syncdomain.SyncRun) error {
	run.ID = "run-1"
	run.Status = syncdomain.SyncStatusRunning
	run.StartedAt = time.Now()
	return nil
}
func (s *stubRunRepo) MarkSuccess(runID string, emailsProcessed, itemsCreated, itemsUpdated int) error {
	return nil
}
func (s *stubRunRepo) MarkFailed(runID string, errMsg string) error { return nil }
func (s *stubRunRepo) FindByID(runID string) (*syncdomain.SyncRun, error) { return nil, nil }
func (s *stubRunRepo) ListByUser(userID string, limit int) ([]syncdomain.SyncRun, error) {
	return nil, nil
}
func (s *stubRunRepo) FindLatestByUser(userID string) (*syncdomain.SyncRun, error) { return nil, nil }
func (s *stubRunRepo) DeleteAllByUser(userID string) error { return nil }

type stubMail struct {
	emails []*syncdomain.ParsedEmail
}

func (s *stubMail) FetchRecent(ctx context.Context, profile *authdomain.Profile, lookbackDays, maxResults int) ([]*syncdomain.ParsedEmail, error) {
	return s.emails, nil
}

type stubExtractor struct {
	result *ai.ExtractionResult
}

func (s *stubExtractor) ExtractFromEmail(ctx context.Context, email ai.EmailContext) (*ai.ExtractionResult, error) {
	return s.result, nil
}

type stubNotifier struct{}

func (s *stubNotifier) NotifyItemsCreated(ctx context.Context, userID string, itemsCreated int) {}

func testHandler(profile *authdomain.Profile, emails []*syncdomain.ParsedEmail, result *ai.ExtractionResult, cfg *config.Config) *SyncHandler {
	orch := usecase.NewSyncOrchestrator(
		&stubProfileRepo{profile: profile},
		&stubItemRepo{},
		&stubRunRepo{},
		&stubMail{emails: emails},
		&stubExtractor{result: result},
		&stubNotifier{},
		nil,
		cfg,
	)
	return NewSyncHandler(orch, cfg)
}

func TestRunManual_ResponseShape(t *testing.T) {
	gin.SetMode(gin.TestMode)

	profile := &authdomain.Profile{
		ID:                         "user-1",
		GmailAccessToken:           "access",
		InitialExtractionCompleted: true,
		SyncEnabled:                true,
	}
	emails := []*syncdomain.ParsedEmail{{MessageID: "msg-1", Subject: "Invoice"}}
	result := &ai.ExtractionResult{
		Items: []ai.ExtractedItem{ai.ExtractedTask{Title: "Pay invoice", Confidence: 0.9}},
	}
	cfg := &config.Config{SyncConfidence: 0.7, SyncManualLookbackCapDays: 7, SyncMaxConcurrent: 1}
	h := testHandler(profile, emails, result, cfg)

	r := gin.New()
	r.POST("/api/extract/sync", func(c *gin.Context) {
		c.Set("userID", "user-1")
		h.RunManual(c)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/extract/sync", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200; body = %s", w.Code, w.Body.String())
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["success"] != true {
		t.Errorf("success = %v; want true", body["success"])
	}
	if body["message"] != "Sync completed" {
		t.Errorf("message = %q", body["message"])
	}
	if body["emailsProcessed"] != float64(1) {
		t.Errorf("emailsProcessed = %v; want 1", body["emailsProcessed"])
	}
	if body["itemsExtracted"] != float64(1) {
		t.Errorf("itemsExtracted = %v; want 1", body["itemsExtracted"])
	}
}

func TestRunInitial_ResponseShape(t *testing.T) {
	gin.SetMode(gin.TestMode)

	profile := &authdomain.Profile{
		ID:               "user-1",
		GmailAccessToken: "access",
	}
	cfg := &config.Config{SyncInitialConfidence: 0.5, SyncInitialLookbackDays: 1, SyncInitialMessageCap: 5, SyncInitialMaxConcurrent: 1}
	h := testHandler(profile, nil, &ai.ExtractionResult{}, cfg)

	r := gin.New()
	r.POST("/api/extract/initial", func(c *gin.Context) {
		c.Set("userID", "user-1")
		h.RunInitial(c)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/extract/initial", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200; body = %s", w.Code, w.Body.String())
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["success"] != true || body["message"] != "Initial extraction completed" {
		t.Errorf("body = %v", body)
	}
	if body["emailsProcessed"] != float64(0) || body["itemsExtracted"] != float64(0) {
		t.Errorf("counts = %v/%v; want 0/0", body["emailsProcessed"], body["itemsExtracted"])
	}
}

func TestRunScheduledSweep_ResponseShape(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{CronSecret: "s3cret"}
	h := testHandler(nil, nil, &ai.ExtractionResult{}, cfg)

	r := gin.New()
	r.POST("/api/webhooks/cron", h.RunScheduledSweep)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/cron", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200; body = %s", w.Code, w.Body.String())
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["success"] != true {
		t.Errorf("success = %v; want true", body["success"])
	}
	stats, ok := body["stats"].(map[string]interface{})
	if !ok {
		t.Fatalf("stats missing from response: %v", body)
	}
	if stats["usersProcessed"] != float64(0) {
		t.Errorf("usersProcessed = %v; want 0", stats["usersProcessed"])
	}
}

func TestRunScheduledSweep_RejectsBadSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{CronSecret: "s3cret"}
	h := testHandler(nil, nil, &ai.ExtractionResult{}, cfg)

	r := gin.New()
	r.POST("/api/webhooks/cron", h.RunScheduledSweep)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/cron", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d; want 401", w.Code)
	}
}
