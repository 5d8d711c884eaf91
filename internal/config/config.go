package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	DataDir            string
	LogLevel           string
	LogFormat          string
	StorageBackend     string
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool
	RedisKeyPrefix     string
	ReminderWindow     time.Duration
	SendStaggerDelay   time.Duration
	DefaultCountryCode string
	MetricsAddr        string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		DataDir:            getEnv("CLINICDESK_DATA_DIR", defaultDataDir()),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		StorageBackend:     strings.ToLower(strings.TrimSpace(getEnv("STORAGE_BACKEND", "file"))),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),
		RedisKeyPrefix:     getEnv("REDIS_KEY_PREFIX", "clinicdesk"),
		ReminderWindow:     getEnvAsDuration("REMINDER_WINDOW", 48*time.Hour),
		SendStaggerDelay:   getEnvAsDuration("SEND_STAGGER_DELAY", 800*time.Millisecond),
		DefaultCountryCode: getEnv("DEFAULT_COUNTRY_CODE", "91"),
		MetricsAddr:        getEnv("METRICS_ADDR", ""),
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "clinicdesk")
	}
	return ".clinicdesk"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
