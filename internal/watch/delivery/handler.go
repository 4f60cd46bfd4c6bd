package delivery

import (
	"net/http"

	"github.com/amo-ladoja/neriah/internal/watch"
	"github.com/gin-gonic/gin"
)

// WatchHandler exposes per-user Gmail watch registration. Routes are
// only mounted when the Pub/Sub watch service is configured.
type WatchHandler struct {
	watchService *watch.Service
}

func NewWatchHandler(watchService *watch.Service) *WatchHandler {
	return &WatchHandler{watchService: watchService}
}

// EnableWatch handles POST /api/watch
func (h *WatchHandler) EnableWatch(c *gin.Context) {
	userID := c.GetString("userID")

	if err := h.watchService.EnableWatch(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Gmail watch enabled"})
}

// DisableWatch handles DELETE /api/watch
func (h *WatchHandler) DisableWatch(c *gin.Context) {
	userID := c.GetString("userID")

	if err := h.watchService.DisableWatch(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Gmail watch disabled"})
}
