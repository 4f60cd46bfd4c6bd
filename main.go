package main

import (
	"context"
	"log"
	"strings"

	api "github.com/amo-ladoja/neriah/cmd/api"
	authDelivery "github.com/amo-ladoja/neriah/internal/auth/delivery"
	authdomain "github.com/amo-ladoja/neriah/internal/auth/domain"
	authRepo "github.com/amo-ladoja/neriah/internal/auth/repository"
	authUsecase "github.com/amo-ladoja/neriah/internal/auth/usecase"
	chatDelivery "github.com/amo-ladoja/neriah/internal/chat/delivery"
	chatRepo "github.com/amo-ladoja/neriah/internal/chat/repository"
	chatUsecase "github.com/amo-ladoja/neriah/internal/chat/usecase"
	itemDelivery "github.com/amo-ladoja/neriah/internal/item/delivery"
	itemdomain "github.com/amo-ladoja/neriah/internal/item/domain"
	itemRepo "github.com/amo-ladoja/neriah/internal/item/repository"
	itemUsecase "github.com/amo-ladoja/neriah/internal/item/usecase"
	"github.com/amo-ladoja/neriah/internal/notification"
	syncDelivery "github.com/amo-ladoja/neriah/internal/sync/delivery"
	syncdomain "github.com/amo-ladoja/neriah/internal/sync/domain"
	syncRepo "github.com/amo-ladoja/neriah/internal/sync/repository"
	"github.com/amo-ladoja/neriah/internal/sync/scheduler"
	syncUsecase "github.com/amo-ladoja/neriah/internal/sync/usecase"
	"github.com/amo-ladoja/neriah/internal/watch"
	watchDelivery "github.com/amo-ladoja/neriah/internal/watch/delivery"
	"github.com/amo-ladoja/neriah/pkg/ai"
	"github.com/amo-ladoja/neriah/pkg/chroma"
	"github.com/amo-ladoja/neriah/pkg/config"
	"github.com/amo-ladoja/neriah/pkg/database"
	"github.com/amo-ladoja/neriah/pkg/fcm"
	"github.com/amo-ladoja/neriah/pkg/gmail"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&authdomain.Profile{},
		&authdomain.RefreshToken{},
		&authdomain.PushToken{},
		&itemdomain.Item{},
		&syncdomain.SyncRun{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	profileRepository := authRepo.NewProfileRepository(db)
	pushTokenRepository := authRepo.NewPushTokenRepository(db)
	itemRepository := itemRepo.NewItemRepository(db)
	syncRunRepository := syncRepo.NewSyncRunRepository(db)
	chatRepository := chatRepo.NewChatRepository(db)

	// Initialize Gmail service
	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret)

	// Initialize AI extractor (Claude primary, OpenAI fallback)
	extractor, err := ai.NewExtractor(ai.Config{
		Provider:        ai.ProviderAuto,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		ClaudeModel:     cfg.AnthropicModel,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIModel:     cfg.OpenAIModel,
	})
	if err != nil {
		log.Fatal("Failed to initialize AI extractor:", err)
	}

	// Initialize FCM client (optional, notifications are skipped without it)
	var fcmClient *fcm.Client
	if cfg.FirebaseCredentials != "" {
		fcmClient, err = fcm.NewClient(cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (push notifications disabled): %v", err)
			fcmClient = nil
		}
	} else {
		log.Println("[WARN] No Firebase credentials configured, push notifications disabled")
	}

	// Initialize Chroma client for the semantic item index (optional)
	var indexer syncUsecase.ItemIndexer
	var searcher chatUsecase.SemanticSearcher
	if cfg.ChromaAPIKey != "" {
		chromaClient, err := chroma.NewChromaClient(cfg)
		if err != nil {
			log.Printf("[WARN] Failed to initialize Chroma client (semantic search disabled): %v", err)
		} else {
			indexer = chromaClient
			searcher = chromaClient
			log.Println("Chroma client initialized successfully")
		}
	} else {
		log.Println("[WARN] CHROMA_API_KEY not set, semantic search disabled")
	}

	// Initialize notification service and sync orchestrator
	notificationService := notification.NewService(fcmClient, pushTokenRepository)
	mailSource := syncUsecase.NewGmailMailSource(gmailService, profileRepository)
	orchestrator := syncUsecase.NewSyncOrchestrator(
		profileRepository,
		itemRepository,
		syncRunRepository,
		mailSource,
		extractor,
		notificationService,
		indexer,
		cfg,
	)

	// Start the scheduled sweep loop
	sweepScheduler := scheduler.NewScheduler(orchestrator, cfg.SyncScheduledSweepInterval)
	sweepScheduler.Start()
	defer sweepScheduler.Stop()

	// Initialize Gmail watch service (Pub/Sub), only when configured
	var watchHandler *watchDelivery.WatchHandler
	if cfg.GoogleProjectID != "" {
		// Accept either a short topic name or a full resource name
		topicName := cfg.GooglePubSubTopic
		if parts := strings.Split(topicName, "/"); len(parts) > 1 {
			topicName = parts[len(parts)-1]
		}
		if topicName == "" {
			topicName = "gmail-updates"
		}

		watchService, err := watch.NewService(cfg.GoogleProjectID, topicName, cfg.GoogleCredentials, profileRepository, orchestrator, gmailService)
		if err != nil {
			log.Printf("[ERROR] Failed to initialize watch service: %v", err)
		} else {
			go watchService.Start(context.Background())
			watchHandler = watchDelivery.NewWatchHandler(watchService)
		}
	} else {
		log.Println("[WARN] GoogleProjectID not configured, Gmail watch disabled")
	}

	// Initialize use cases (dependency injection)
	authUsecaseInstance := authUsecase.NewAuthUsecase(profileRepository, pushTokenRepository, cfg)
	itemUsecaseInstance := itemUsecase.NewItemUsecase(itemRepository, profileRepository, pushTokenRepository, syncRunRepository, gmailService)
	chatUsecaseInstance := chatUsecase.NewChatUsecase(chatRepository, itemRepository, searcher)

	// Initialize HTTP handlers
	authHandler := authDelivery.NewAuthHandler(authUsecaseInstance)
	itemHandler := itemDelivery.NewItemHandler(itemUsecaseInstance)
	syncHandler := syncDelivery.NewSyncHandler(orchestrator, cfg)
	chatHandler := chatDelivery.NewChatHandler(chatUsecaseInstance)

	handler := api.NewHandler(authUsecaseInstance, authHandler, itemHandler, syncHandler, chatHandler, watchHandler)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
