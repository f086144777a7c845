package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the binaries read from the environment. A .env
// file in the working directory is merged in first when present.
type Config struct {
	Port        string
	Env         string
	LogLevel    string
	DatabaseURL string
	JWTSecret   string

	GCSBucket   string
	GeminiModel string

	BQProject string
	BQDataset string
	BQTable   string

	CurrencySymbol string
	MaxUploadBytes int64
	Workers        int
	PollInterval   time.Duration
	InsightTimeout time.Duration
	ImportTTL      time.Duration
}

// Load reads configuration from the environment. DATABASE_URL and
// JWT_SECRET have no sensible defaults and are required.
func Load() (Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		GCSBucket:      getEnv("GCS_BUCKET", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		BQProject:      getEnv("BQ_PROJECT", ""),
		BQDataset:      getEnv("BQ_DATASET", "rupeelog"),
		BQTable:        getEnv("BQ_TABLE", "expenses"),
		CurrencySymbol: getEnv("CURRENCY_SYMBOL", "₹"),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 10<<20),
		Workers:        getEnvInt("WORKERS", 4),
		PollInterval:   getEnvDuration("POLL_INTERVAL", 2*time.Second),
		InsightTimeout: getEnvDuration("INSIGHT_TIMEOUT", 30*time.Second),
		ImportTTL:      getEnvDuration("IMPORT_TTL", 24*time.Hour),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("config.Load: DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("config.Load: JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
