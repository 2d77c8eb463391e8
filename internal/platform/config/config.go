package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	Environment   string
	JWTSigningKey string
}

// Database holds postgres connection configuration.
type Database struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Redis holds redis connection configuration for the resolve cache.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ResolveTTL   time.Duration
}

// Kafka holds topics and connection settings for the event pipeline.
type Kafka struct {
	Brokers         string
	GroupID         string
	InputTopic      string
	RetryTopic      string
	DLQTopic        string
	AutoOffsetReset string
}

// Pipeline holds dispatch pipeline behavior flags.
type Pipeline struct {
	Channel            string
	DefaultLocale      string
	PreferenceEnabled  bool
	PreferenceCode     string
	DispatchLogEnabled bool
}

// Novu holds the external delivery provider endpoint and credentials.
type Novu struct {
	BaseURL string
	APIKey  string
}

// UserService holds the recipient directory endpoint.
type UserService struct {
	Host       string
	SearchPath string
}

// PreferenceService holds the consent lookup endpoint.
type PreferenceService struct {
	Host      string
	CheckPath string
}

// Config aggregates all service configuration.
type Config struct {
	Server     Server
	Database   Database
	Redis      Redis
	Kafka      Kafka
	Pipeline   Pipeline
	Novu       Novu
	User       UserService
	Preference PreferenceService
}

// FromEnv builds the full configuration from environment variables so main
// stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          envOr("RELAY_ADDR", ":8080"),
			Environment:   envOr("RELAY_ENV", "development"),
			JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		},
		Database: Database{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			ResolveTTL:   envDuration("RESOLVE_CACHE_TTL", 30*time.Second),
		},
		Kafka: Kafka{
			Brokers:         os.Getenv("KAFKA_BROKERS"),
			GroupID:         envOr("KAFKA_GROUP_ID", "relay-dispatch"),
			InputTopic:      envOr("KAFKA_INPUT_TOPIC", "domain-events"),
			RetryTopic:      envOr("KAFKA_RETRY_TOPIC", "domain-events-retry"),
			DLQTopic:        envOr("KAFKA_DLQ_TOPIC", "domain-events-dlq"),
			AutoOffsetReset: envOr("KAFKA_AUTO_OFFSET_RESET", "earliest"),
		},
		Pipeline: Pipeline{
			Channel:            envOr("DISPATCH_CHANNEL", "WHATSAPP"),
			DefaultLocale:      envOr("DISPATCH_DEFAULT_LOCALE", "en_IN"),
			PreferenceEnabled:  envBool("PREFERENCE_ENABLED", true),
			PreferenceCode:     envOr("PREFERENCE_CODE", "NOTIFICATION_CONSENT"),
			DispatchLogEnabled: envBool("DISPATCH_LOG_ENABLED", true),
		},
		Novu: Novu{
			BaseURL: envOr("NOVU_BASE_URL", "https://api.novu.co"),
			APIKey:  os.Getenv("NOVU_API_KEY"),
		},
		User: UserService{
			Host:       os.Getenv("USER_SERVICE_HOST"),
			SearchPath: envOr("USER_SEARCH_PATH", "/user/_search"),
		},
		Preference: PreferenceService{
			Host:      os.Getenv("PREFERENCE_SERVICE_HOST"),
			CheckPath: envOr("PREFERENCE_CHECK_PATH", "/preference/v1/_search"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := strings.ToLower(os.Getenv(key))
	switch v {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
