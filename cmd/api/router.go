package api

import (
	"net/http"

	authDelivery "github.com/amo-ladoja/neriah/internal/auth/delivery"
	authUsecase "github.com/amo-ladoja/neriah/internal/auth/usecase"
	chatDelivery "github.com/amo-ladoja/neriah/internal/chat/delivery"
	itemDelivery "github.com/amo-ladoja/neriah/internal/item/delivery"
	syncDelivery "github.com/amo-ladoja/neriah/internal/sync/delivery"
	watchDelivery "github.com/amo-ladoja/neriah/internal/watch/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	r *gin.Engine,
	authUc authUsecase.AuthUsecase,
	authHandler *authDelivery.AuthHandler,
	itemHandler *itemDelivery.ItemHandler,
	syncHandler *syncDelivery.SyncHandler,
	chatHandler *chatDelivery.ChatHandler,
	watchHandler *watchDelivery.WatchHandler,
) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/google", authHandler.GoogleSignIn)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", authDelivery.AuthMiddleware(authUc), authHandler.Me)
			auth.PUT("/sync-settings", authDelivery.AuthMiddleware(authUc), authHandler.UpdateSyncSettings)
		}

		// Push token routes (protected)
		push := api.Group("/push")
		push.Use(authDelivery.AuthMiddleware(authUc))
		{
			push.POST("/register", authHandler.RegisterPushToken)
			push.DELETE("/:token", authHandler.UnregisterPushToken)
		}

		// Extraction routes (protected)
		extract := api.Group("/extract")
		extract.Use(authDelivery.AuthMiddleware(authUc))
		{
			extract.POST("/initial", syncHandler.RunInitial)
			extract.POST("/sync", syncHandler.RunManual)
			extract.GET("/runs", syncHandler.GetRuns)
		}

		// Cron webhook (shared secret, no user auth)
		api.POST("/webhooks/cron", syncHandler.RunScheduledSweep)

		// Item routes (protected)
		items := api.Group("/items")
		items.Use(authDelivery.AuthMiddleware(authUc))
		{
			items.GET("", itemHandler.GetItems)
			items.DELETE("", itemHandler.DeleteAllItems)
			items.GET("/:id", itemHandler.GetItemByID)
			items.POST("/:id/complete", itemHandler.CompleteItem)
			items.POST("/:id/snooze", itemHandler.SnoozeItem)
			items.POST("/:id/feedback", itemHandler.LeaveFeedback)
			items.DELETE("/:id", itemHandler.DeleteItem)
			items.GET("/:id/attachments/:attachmentId", itemHandler.DownloadAttachment)
		}

		// Chat routes (protected)
		chat := api.Group("/chat")
		chat.Use(authDelivery.AuthMiddleware(authUc))
		{
			chat.POST("/query", chatHandler.Query)
			chat.POST("/calculate", chatHandler.Calculate)
		}

		// Gmail watch routes (protected) - only when Pub/Sub is configured
		if watchHandler != nil {
			watch := api.Group("/watch")
			watch.Use(authDelivery.AuthMiddleware(authUc))
			{
				watch.POST("", watchHandler.EnableWatch)
				watch.DELETE("", watchHandler.DisableWatch)
			}
		}
	}
}
