package api

import (
	authDelivery "github.com/amo-ladoja/neriah/internal/auth/delivery"
	authUsecase "github.com/amo-ladoja/neriah/internal/auth/usecase"
	chatDelivery "github.com/amo-ladoja/neriah/internal/chat/delivery"
	itemDelivery "github.com/amo-ladoja/neriah/internal/item/delivery"
	syncDelivery "github.com/amo-ladoja/neriah/internal/sync/delivery"
	watchDelivery "github.com/amo-ladoja/neriah/internal/watch/delivery"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase  authUsecase.AuthUsecase
	authHandler  *authDelivery.AuthHandler
	itemHandler  *itemDelivery.ItemHandler
	syncHandler  *syncDelivery.SyncHandler
	chatHandler  *chatDelivery.ChatHandler
	watchHandler *watchDelivery.WatchHandler
}

// NewHandler bundles the delivery handlers behind one HTTP entry
// point. watchHandler may be nil when Pub/Sub is not configured.
func NewHandler(
	authUc authUsecase.AuthUsecase,
	authHandler *authDelivery.AuthHandler,
	itemHandler *itemDelivery.ItemHandler,
	syncHandler *syncDelivery.SyncHandler,
	chatHandler *chatDelivery.ChatHandler,
	watchHandler *watchDelivery.WatchHandler,
) *Handler {
	return &Handler{
		authUsecase:  authUc,
		authHandler:  authHandler,
		itemHandler:  itemHandler,
		syncHandler:  syncHandler,
		chatHandler:  chatHandler,
		watchHandler: watchHandler,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authUsecase, h.authHandler, h.itemHandler, h.syncHandler, h.chatHandler, h.watchHandler)

	return r.Run(addr)
}
