package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Database URLs
	PostgresURL   string
	ClickHouseURL string
	RedisURL      string

	// Strategy-log worker pool
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration

	// Profile cache
	ProfileCacheTTL time.Duration

	// Rule engine
	MinConfidence      float64
	MinEdge            float64
	MaxRecommendations int
	BatchLimit         int

	// Monte Carlo
	MonteCarlo MonteCarloConfig

	// Rate limiting
	RateLimitPerSecond int
	RateLimitBurst     int
}

// MonteCarloConfig holds the validator knobs; the /config/monte-carlo
// endpoint mutates a copy of this at runtime.
type MonteCarloConfig struct {
	Enabled            bool
	Simulations        int
	NoiseLevel         float64
	MinValidationScore float64
	MinSuccessRate     float64
	StressTestRequired bool
	UseKelly           bool
	WorkerCount        int
}

// Load loads configuration from environment variables.
// It returns an error if critical configuration is missing.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("ENV", "development"),

		WorkerCount:   getEnvInt("WORKER_COUNT", 4),
		QueueSize:     getEnvInt("QUEUE_SIZE", 10000),
		BatchSize:     getEnvInt("BATCH_SIZE", 200),
		FlushInterval: getEnvDuration("FLUSH_INTERVAL", 1*time.Second),

		ProfileCacheTTL: getEnvDuration("PROFILE_CACHE_TTL", 30*time.Minute),

		MinConfidence:      getEnvFloat("MIN_CONFIDENCE", 50),
		MinEdge:            getEnvFloat("MIN_EDGE", 0.05),
		MaxRecommendations: getEnvInt("MAX_RECOMMENDATIONS", 5),
		BatchLimit:         getEnvInt("BATCH_LIMIT", 20),

		MonteCarlo: MonteCarloConfig{
			Enabled:            getEnvBool("MC_ENABLED", true),
			Simulations:        getEnvInt("MC_SIMULATIONS", 5000),
			NoiseLevel:         getEnvFloat("MC_NOISE_LEVEL", 0.15),
			MinValidationScore: getEnvFloat("MC_MIN_VALIDATION_SCORE", 60),
			MinSuccessRate:     getEnvFloat("MC_MIN_SUCCESS_RATE", 0.50),
			StressTestRequired: getEnvBool("MC_STRESS_TEST_REQUIRED", true),
			UseKelly:           getEnvBool("MC_USE_KELLY", true),
			WorkerCount:        getEnvInt("MC_WORKER_COUNT", 8),
		},

		RateLimitPerSecond: getEnvInt("RATE_LIMIT_PER_SECOND", 100),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 200),
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	rawOrigins := strings.Split(origins, ",")
	for _, o := range rawOrigins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	// Critical configuration - fail if missing
	var err error
	if cfg.PostgresURL, err = getEnvRequired("POSTGRES_URL"); err != nil {
		return nil, err
	}
	if cfg.ClickHouseURL, err = getEnvRequired("CLICKHOUSE_URL"); err != nil {
		return nil, err
	}
	if cfg.RedisURL, err = getEnvRequired("REDIS_URL"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
