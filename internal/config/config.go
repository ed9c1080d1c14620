package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Storage
	StorageBackend   string
	SQLiteDBPath     string
	StorageNamespace string

	// Read cache in front of the storage backend
	CacheSize int
	CacheTTL  time.Duration

	// Session
	SessionFile string

	// Identity monitor
	IdentityPollInterval time.Duration
	IdentityDebounce     time.Duration

	// AMQP session events (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		StorageBackend:   getEnv("STORAGE_BACKEND", "sqlite"),
		SQLiteDBPath:     getEnv("SQLITE_DB_PATH", "./data/fintracker.db"),
		StorageNamespace: getEnv("STORAGE_NAMESPACE", "fintracker"),

		CacheSize: getEnvInt("CACHE_SIZE", 64),
		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),

		SessionFile: getEnv("SESSION_FILE", "./data/session.json"),

		IdentityPollInterval: getEnvDuration("IDENTITY_POLL_INTERVAL", 2*time.Second),
		IdentityDebounce:     getEnvDuration("IDENTITY_DEBOUNCE", 100*time.Millisecond),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintracker"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "session_events"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate storage backend
	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.StorageBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid storage backend '%s': must be one of %v", c.StorageBackend, validBackends))
	}

	if c.StorageBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// The namespace is joined with '_' into durable keys
	if strings.TrimSpace(c.StorageNamespace) == "" {
		errors = append(errors, "storage namespace cannot be empty")
	} else if strings.ContainsAny(c.StorageNamespace, "_ ") {
		errors = append(errors, fmt.Sprintf("invalid storage namespace '%s': must not contain '_' or spaces", c.StorageNamespace))
	}

	if c.CacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must not be negative", c.CacheSize))
	}
	if c.CacheSize > 0 && c.CacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be positive when the cache is enabled", c.CacheTTL))
	}

	if c.SessionFile == "" {
		errors = append(errors, "session file path cannot be empty")
	}

	if c.IdentityPollInterval < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid identity poll interval %v: must be at least 100ms", c.IdentityPollInterval))
	} else if c.IdentityPollInterval > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid identity poll interval %v: must be at most 1 minute", c.IdentityPollInterval))
	}

	if c.IdentityDebounce < 0 || c.IdentityDebounce > 5*time.Second {
		errors = append(errors, fmt.Sprintf("invalid identity debounce %v: must be between 0 and 5 seconds", c.IdentityDebounce))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
