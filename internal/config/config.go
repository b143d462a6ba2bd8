// Package config loads idxscope's configuration from environment variables
// (optionally backed by a .env file): .env first, then process
// environment, with sensible fallbacks.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-wide configuration for the analytics core.
type Config struct {
	DataDir  string // base directory for the sqlite database file
	Port     int    // HTTP server port
	LogLevel string // debug, info, warn, error
	DevMode  bool

	// Scoring defaults: component weights must sum to 1.0.
	WeightTechnical   float64
	WeightFundamental float64
	WeightSentiment   float64
	WeightML          float64

	// Freshness thresholds.
	FreshWithin time.Duration
	StaleWithin time.Duration

	// Job orchestrator tuning.
	WorkerPoolSize  int
	SoftJobTimeout  time.Duration
	HardJobTimeout  time.Duration
	JobRetention    time.Duration
	OutputCapBytes  int

	// Adapter credentials; absence drives NotConfigured classification.
	// Never logged.
	PricesAPIKey       string
	FundamentalsAPIKey string
	BrokerFlowAPIKey   string

	// Adapter endpoints.
	PricesBaseURL         string
	FundamentalsBaseURL   string
	BrokerFlowBaseURL     string
	MarketStatusStreamURL string

	// Archival export.
	ArchiveBucket string
	ArchiveRegion string
}

// Load reads configuration from the environment, applying a .env file first
// if present, then resolving DataDir to an absolute path.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:  getEnv("IDXSCOPE_DATA_DIR", "./data"),
		Port:     getEnvInt("IDXSCOPE_PORT", 8080),
		LogLevel: getEnv("IDXSCOPE_LOG_LEVEL", "info"),
		DevMode:  getEnvBool("IDXSCOPE_DEV_MODE", false),

		WeightTechnical:   getEnvFloat("IDXSCOPE_WEIGHT_TECHNICAL", 0.4),
		WeightFundamental: getEnvFloat("IDXSCOPE_WEIGHT_FUNDAMENTAL", 0.4),
		WeightSentiment:   getEnvFloat("IDXSCOPE_WEIGHT_SENTIMENT", 0.1),
		WeightML:          getEnvFloat("IDXSCOPE_WEIGHT_ML", 0.1),

		FreshWithin: getEnvDuration("IDXSCOPE_FRESH_WITHIN", 24*time.Hour),
		StaleWithin: getEnvDuration("IDXSCOPE_STALE_WITHIN", 7*24*time.Hour),

		WorkerPoolSize: getEnvInt("IDXSCOPE_WORKER_POOL_SIZE", 4),
		SoftJobTimeout: getEnvDuration("IDXSCOPE_SOFT_JOB_TIMEOUT", 10*time.Minute),
		HardJobTimeout: getEnvDuration("IDXSCOPE_HARD_JOB_TIMEOUT", 15*time.Minute),
		JobRetention:   getEnvDuration("IDXSCOPE_JOB_RETENTION", 1*time.Hour),
		OutputCapBytes: getEnvInt("IDXSCOPE_OUTPUT_CAP_BYTES", 64*1024),

		PricesAPIKey:       os.Getenv("IDXSCOPE_PRICES_API_KEY"),
		FundamentalsAPIKey: os.Getenv("IDXSCOPE_FUNDAMENTALS_API_KEY"),
		BrokerFlowAPIKey:   os.Getenv("IDXSCOPE_BROKER_FLOW_API_KEY"),

		PricesBaseURL:         getEnv("IDXSCOPE_PRICES_BASE_URL", "https://api.idxscope.example/prices"),
		FundamentalsBaseURL:   getEnv("IDXSCOPE_FUNDAMENTALS_BASE_URL", "https://api.idxscope.example/fundamentals"),
		BrokerFlowBaseURL:     getEnv("IDXSCOPE_BROKER_FLOW_BASE_URL", "https://api.idxscope.example/broker-flow"),
		MarketStatusStreamURL: os.Getenv("IDXSCOPE_MARKET_STATUS_STREAM_URL"),

		ArchiveBucket: os.Getenv("IDXSCOPE_ARCHIVE_BUCKET"),
		ArchiveRegion: getEnv("IDXSCOPE_ARCHIVE_REGION", "ap-southeast-1"),
	}

	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve data dir: %w", err)
	}
	cfg.DataDir = absDataDir

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("config: create data dir: %w", err)
	}

	return cfg, nil
}

// DBPath returns the path to the analytics sqlite database file.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "idxscope.db")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
