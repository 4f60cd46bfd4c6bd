package delivery

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/amo-ladoja/neriah/internal/sync/usecase"
	"github.com/amo-ladoja/neriah/pkg/config"

	"github.com/gin-gonic/gin"
)

// SyncHandler handles sync-related HTTP requests
type SyncHandler struct {
	orchestrator *usecase.SyncOrchestrator
	config       *config.Config
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(orchestrator *usecase.SyncOrchestrator, cfg *config.Config) *SyncHandler {
	return &SyncHandler{
		orchestrator: orchestrator,
		config:       cfg,
	}
}

// RunInitial triggers the one-time onboarding extraction
// POST /api/extract/initial
func (h *SyncHandler) RunInitial(c *gin.Context) {
	userID := c.GetString("userID")

	run, err := h.orchestrator.RunInitial(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         "Initial extraction completed",
		"emailsProcessed": run.EmailsProcessed,
		"itemsExtracted":  run.ItemsCreated,
	})
}

// RunManual triggers a user-requested sync
// POST /api/extract/sync
func (h *SyncHandler) RunManual(c *gin.Context) {
	userID := c.GetString("userID")

	run, err := h.orchestrator.RunManual(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         "Sync completed",
		"emailsProcessed": run.EmailsProcessed,
		"itemsExtracted":  run.ItemsCreated,
	})
}

// GetRuns returns recent sync history for the user
// GET /api/extract/runs?limit=20
func (h *SyncHandler) GetRuns(c *gin.Context) {
	userID := c.GetString("userID")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := h.orchestrator.ListRuns(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// RunScheduledSweep triggers the all-users sweep. Meant for an external
// cron caller; authenticated by a shared secret instead of a user JWT.
// POST /api/webhooks/cron
func (h *SyncHandler) RunScheduledSweep(c *gin.Context) {
	if !h.authorizeCron(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid cron secret"})
		return
	}

	report, err := h.orchestrator.RunScheduledSweep(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "stats": report})
}

func (h *SyncHandler) authorizeCron(c *gin.Context) bool {
	if h.config.CronSecret == "" {
		return false
	}
	authHeader := c.GetHeader("Authorization")
	return strings.TrimPrefix(authHeader, "Bearer ") == h.config.CronSecret
}

func (h *SyncHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrNoGmailCredentials),
		errors.Is(err, usecase.ErrInitialAlreadyCompleted),
		errors.Is(err, usecase.ErrInitialNotCompleted),
		errors.Is(err, usecase.ErrSyncDisabled):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrSyncInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
