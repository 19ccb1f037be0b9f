package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	RedisAddr string
	JWTSecret string

	AdminChannelID string
	AdminRoles     []string

	FeedFetchLimit        int
	FeedDonationScanLimit int
	FeedTimeout           time.Duration
	FeedPollRate          float64
	FeedPollBurst         int
	RateLimitPerMinute    int64
	ExpirySweepCron       string
	WorkerConcurrency     int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("Failed to load .env file", "error", err)
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AdminChannelID:  getEnv("ADMIN_CHANNEL_ID", "admin"),
		AdminRoles:      splitList(getEnv("ADMIN_ROLES", "admin,superadmin,superAdmin,SuperAdmin")),
		ExpirySweepCron: getEnv("EXPIRY_SWEEP_CRON", "@every 1h"),
	}

	var err error
	if cfg.FeedFetchLimit, err = getEnvInt("FEED_FETCH_LIMIT", 100); err != nil {
		return nil, err
	}
	if cfg.FeedDonationScanLimit, err = getEnvInt("FEED_DONATION_SCAN_LIMIT", 50); err != nil {
		return nil, err
	}
	if cfg.FeedPollBurst, err = getEnvInt("FEED_POLL_BURST", 5); err != nil {
		return nil, err
	}
	if cfg.WorkerConcurrency, err = getEnvInt("WORKER_CONCURRENCY", 5); err != nil {
		return nil, err
	}

	perMinute, err := getEnvInt("RATE_LIMIT_PER_MINUTE", 120)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitPerMinute = int64(perMinute)

	cfg.FeedTimeout, err = time.ParseDuration(getEnv("FEED_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid FEED_TIMEOUT: %w", err)
	}

	cfg.FeedPollRate, err = strconv.ParseFloat(getEnv("FEED_POLL_RATE", "1"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid FEED_POLL_RATE: %w", err)
	}

	if cfg.AdminChannelID == "" {
		return nil, fmt.Errorf("ADMIN_CHANNEL_ID must not be empty")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return n, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
