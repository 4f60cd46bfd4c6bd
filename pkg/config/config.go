package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	DatabaseURL      string
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	GoogleProjectID    string
	GooglePubSubTopic  string
	GoogleCredentials  string

	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIModel     string

	FirebaseCredentials string

	ChromaAPIKey   string
	ChromaTenant   string
	ChromaDatabase string

	CronSecret string

	// Sync pipeline tunables. Every pacing/threshold knob the
	// orchestrator uses comes from here so deployments choose a policy
	// deliberately instead of inheriting one from a code path.
	SyncInitialLookbackDays    int
	SyncInitialMessageCap      int
	SyncInitialConfidence      float64
	SyncConfidence             float64
	SyncManualLookbackCapDays  int
	SyncScheduledLookbackDays  int
	SyncMaxConcurrent          int
	SyncInitialMaxConcurrent   int
	SyncInterRequestDelay      time.Duration
	SyncInitialRequestDelay    time.Duration
	SyncInterUserDelay         time.Duration
	SyncExtractionTimeout      time.Duration
	SyncScheduledSweepInterval time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=neriah port=5432 sslmode=disable"),
		JWTSecret:        getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTAccessExpiry:  getDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		JWTRefreshExpiry: getDuration("JWT_REFRESH_EXPIRY", 168*time.Hour),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:8080/api/auth/google/callback"),
		GoogleProjectID:    getEnv("GOOGLE_PROJECT_ID", ""),
		GooglePubSubTopic:  getEnv("GOOGLE_PUBSUB_TOPIC", "gmail-updates"),
		GoogleCredentials:  getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),

		ChromaAPIKey:   getEnv("CHROMA_API_KEY", ""),
		ChromaTenant:   getEnv("CHROMA_TENANT", ""),
		ChromaDatabase: getEnv("CHROMA_DATABASE", ""),

		CronSecret: getEnv("CRON_SECRET", ""),

		SyncInitialLookbackDays:    getInt("SYNC_INITIAL_LOOKBACK_DAYS", 1),
		SyncInitialMessageCap:      getInt("SYNC_INITIAL_MESSAGE_CAP", 5),
		SyncInitialConfidence:      getFloat("SYNC_INITIAL_CONFIDENCE", 0.5),
		SyncConfidence:             getFloat("SYNC_CONFIDENCE", 0.7),
		SyncManualLookbackCapDays:  getInt("SYNC_MANUAL_LOOKBACK_CAP_DAYS", 7),
		SyncScheduledLookbackDays:  getInt("SYNC_SCHEDULED_LOOKBACK_CAP_DAYS", 3),
		SyncMaxConcurrent:          getInt("SYNC_MAX_CONCURRENT_EXTRACTIONS", 5),
		SyncInitialMaxConcurrent:   getInt("SYNC_INITIAL_MAX_CONCURRENT_EXTRACTIONS", 1),
		SyncInterRequestDelay:      getDuration("SYNC_INTER_REQUEST_DELAY", 100*time.Millisecond),
		SyncInitialRequestDelay:    getDuration("SYNC_INITIAL_REQUEST_DELAY", 12*time.Second),
		SyncInterUserDelay:         getDuration("SYNC_INTER_USER_DELAY", 1*time.Second),
		SyncExtractionTimeout:      getDuration("SYNC_EXTRACTION_TIMEOUT", 60*time.Second),
		SyncScheduledSweepInterval: getDuration("SYNC_SCHEDULED_SWEEP_INTERVAL", 3*time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
