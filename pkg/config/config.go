package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/fleetgate/pkg/observability"
	"github.com/platinummonkey/fleetgate/pkg/store"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Store configuration
	Store store.Config

	// Auth configuration
	Auth AuthConfig

	// Ingest configuration
	Ingest IngestConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// AuthConfig selects how bearer tokens are verified.
type AuthConfig struct {
	// Mode is "none" (structural checks only), "rs256" (static public
	// key), or "oidc" (issuer discovery).
	Mode string

	// PublicKeyPath is the PEM file holding the RSA public key for rs256.
	PublicKeyPath string
	// Issuer and Audience are enforced on rs256 tokens when non-empty.
	Issuer   string
	Audience string

	// OIDCIssuerURL and OIDCClientID configure oidc mode.
	OIDCIssuerURL string
	OIDCClientID  string
}

// IngestConfig configures the status message subscriber.
type IngestConfig struct {
	RedisURL     string
	TopicPattern string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Store:         loadStoreConfig(),
		Auth:          loadAuthConfig(),
		Ingest:        loadIngestConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("FLEETGATE_HOST", "0.0.0.0"),
		Port:            getEnv("FLEETGATE_PORT", "8080"),
		ReadTimeout:     getEnvDuration("FLEETGATE_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("FLEETGATE_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("FLEETGATE_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("FLEETGATE_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("FLEETGATE_HEALTH_PORT", "9090"),
	}
}

// loadStoreConfig loads store configuration from environment
func loadStoreConfig() store.Config {
	cfg := store.DefaultConfig()

	if storeType := getEnv("FLEETGATE_STORE_TYPE", ""); storeType != "" {
		cfg.Type = storeType
	}

	// Redis config
	if redisURL := getEnv("FLEETGATE_REDIS_URL", ""); redisURL != "" {
		cfg.RedisURL = redisURL
	}
	if redisPassword := getEnv("FLEETGATE_REDIS_PASSWORD", ""); redisPassword != "" {
		cfg.RedisPassword = redisPassword
	}
	if redisDB := getEnvInt("FLEETGATE_REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}

	// DynamoDB config
	if table := getEnv("FLEETGATE_DYNAMO_TABLE", ""); table != "" {
		cfg.DynamoTable = table
	}
	if region := getEnv("FLEETGATE_DYNAMO_REGION", ""); region != "" {
		cfg.DynamoRegion = region
	}
	if endpoint := getEnv("FLEETGATE_DYNAMO_ENDPOINT", ""); endpoint != "" {
		cfg.DynamoEndpoint = endpoint
	}
	if accessKey := getEnv("FLEETGATE_DYNAMO_ACCESS_KEY", ""); accessKey != "" {
		cfg.DynamoAccessKey = accessKey
	}
	if secretKey := getEnv("FLEETGATE_DYNAMO_SECRET_KEY", ""); secretKey != "" {
		cfg.DynamoSecretKey = secretKey
	}

	return cfg
}

// loadAuthConfig loads auth configuration from environment
func loadAuthConfig() AuthConfig {
	return AuthConfig{
		Mode:          getEnv("FLEETGATE_AUTH_MODE", "none"),
		PublicKeyPath: getEnv("FLEETGATE_AUTH_PUBLIC_KEY", ""),
		Issuer:        getEnv("FLEETGATE_AUTH_ISSUER", ""),
		Audience:      getEnv("FLEETGATE_AUTH_AUDIENCE", ""),
		OIDCIssuerURL: getEnv("FLEETGATE_OIDC_ISSUER_URL", ""),
		OIDCClientID:  getEnv("FLEETGATE_OIDC_CLIENT_ID", ""),
	}
}

// loadIngestConfig loads ingest configuration from environment
func loadIngestConfig() IngestConfig {
	return IngestConfig{
		RedisURL:     getEnv("FLEETGATE_INGEST_REDIS_URL", "redis://localhost:6379"),
		TopicPattern: getEnv("FLEETGATE_INGEST_TOPIC_PATTERN", "tenant/*/robot/*/status"),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       parseLogLevel(getEnv("FLEETGATE_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("FLEETGATE_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	switch c.Store.Type {
	case "memory":
	case "redis":
		if c.Store.RedisURL == "" {
			return fmt.Errorf("redis URL is required for redis store")
		}
	case "dynamodb":
		if c.Store.DynamoTable == "" {
			return fmt.Errorf("dynamodb table is required for dynamodb store")
		}
		if c.Store.DynamoRegion == "" {
			return fmt.Errorf("dynamodb region is required for dynamodb store")
		}
	default:
		return fmt.Errorf("invalid store type: %s (must be memory, redis, or dynamodb)", c.Store.Type)
	}

	switch c.Auth.Mode {
	case "none":
	case "rs256":
		if c.Auth.PublicKeyPath == "" {
			return fmt.Errorf("public key path is required for rs256 auth")
		}
	case "oidc":
		if c.Auth.OIDCIssuerURL == "" || c.Auth.OIDCClientID == "" {
			return fmt.Errorf("OIDC issuer URL and client ID are required for oidc auth")
		}
	default:
		return fmt.Errorf("invalid auth mode: %s (must be none, rs256, or oidc)", c.Auth.Mode)
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
