package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	OrganizerID     string
	EngineAccountID string
	UnitPrice       int64
	CreditCap       int64
	ExecutorTimeout time.Duration
	RelayInterval   time.Duration
	RelayBatchSize  int
}

func Load() (Config, error) {
	// Missing .env is fine; real env always wins.
	_ = godotenv.Load()

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "agora"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	organizer := strings.TrimSpace(os.Getenv("ORGANIZER_ID"))
	if organizer == "" {
		organizer = "organizer"
	}
	engineAccount := strings.TrimSpace(os.Getenv("ENGINE_ACCOUNT_ID"))
	if engineAccount == "" {
		engineAccount = "engine"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		OrganizerID:     organizer,
		EngineAccountID: engineAccount,
		UnitPrice:       envInt64("UNIT_PRICE", 1),
		CreditCap:       envInt64("CREDIT_CAP", 1_000_000),
		ExecutorTimeout: envDuration("EXECUTOR_TIMEOUT_MS", 2*time.Second),
		RelayInterval:   envDuration("OUTBOX_RELAY_INTERVAL_MS", 500*time.Millisecond),
		RelayBatchSize:  int(envInt64("OUTBOX_RELAY_BATCH_SIZE", 100)),
	}, nil
}

func envInt64(name string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	millis := envInt64(name, 0)
	if millis <= 0 {
		return fallback
	}
	return time.Duration(millis) * time.Millisecond
}
