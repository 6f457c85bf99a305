package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Database configuration
	DBType            string // mysql, postgres, sqlite, sqlserver, etc.
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int

	// Authorizer configuration
	AuthzURL      string
	AuthzClientID string

	// Collaboration configuration
	SessionTimeout time.Duration // inactivity before a session counts as offline
	ReaperInterval time.Duration // how often the expiry sweep runs

	// Notification fan-out
	NotifyQueueSize int

	// Real-time transport hand-off: nats, redis or none
	Transport string
	NatsURL   string
	NatsName  string
	RedisURL  string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "3000"),
		DBType:            getEnv("DB_TYPE", "mysql"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "3306"),
		DBDatabase:        getEnv("DB_DATABASE", ""),
		DBUser:            getEnv("DB_USER", ""),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBConnectionLimit: getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		AuthzURL:          getEnv("AUTHZ_URL", ""),
		AuthzClientID:     getEnv("AUTHZ_CLIENT_ID", ""),
		SessionTimeout:    time.Duration(getEnvAsInt("SESSION_TIMEOUT_SECONDS", 300)) * time.Second,
		ReaperInterval:    time.Duration(getEnvAsInt("REAPER_INTERVAL_SECONDS", 60)) * time.Second,
		NotifyQueueSize:   getEnvAsInt("NOTIFY_QUEUE_SIZE", 256),
		Transport:         getEnv("REALTIME_TRANSPORT", "none"),
		NatsURL:           getEnv("NATS_URL", "nats://127.0.0.1:4222"),
		NatsName:          getEnv("NATS_NAME", "collabsync"),
		RedisURL:          getEnv("REDIS_URL", "redis://127.0.0.1:6379"),
	}

	// Validate required fields
	if cfg.DBDatabase == "" {
		return nil, fmt.Errorf("DB_DATABASE is required")
	}
	if cfg.DBUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	if cfg.AuthzURL == "" {
		return nil, fmt.Errorf("AUTHZ_URL is required")
	}
	if cfg.AuthzClientID == "" {
		return nil, fmt.Errorf("AUTHZ_CLIENT_ID is required")
	}
	switch cfg.Transport {
	case "nats", "redis", "none":
	default:
		return nil, fmt.Errorf("unsupported REALTIME_TRANSPORT: %s", cfg.Transport)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
