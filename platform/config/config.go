// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq worker and periodic sweeps.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetProvisionalCleanupCron() string
	GetAgreementReconciliationCron() string
}

// CacheConfig provides settings for the Redis read cache.
type CacheConfig interface {
	GetRedisURL() string
	GetDashboardCacheTTL() time.Duration
}

// StorageConfig provides settings for MinIO S3-compatible storage.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketLabels() string
	IsMinIOEnabled() bool
}

// DomainConfig provides business settings shared by the lifecycle engine.
type DomainConfig interface {
	GetBusinessLocation() *time.Location
	GetProvisionalTTL() time.Duration
	GetDefaultPhoneRegion() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                         string        `env:"APP_ENV" env-default:"development"`
	HTTPAddr                    string        `env:"HTTP_ADDR" env-default:":8080"`
	DatabaseURL                 string        `env:"DATABASE_URL"`
	MigrationsEnabled           bool          `env:"MIGRATIONS_ENABLED" env-default:"true"`
	JWTAccessSecret             string        `env:"JWT_ACCESS_SECRET"`
	CORSAllowAll                bool          `env:"CORS_ALLOW_ALL" env-default:"false"`
	CORSOrigins                 []string      `env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:4200"`
	CORSAllowCreds              bool          `env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	RedisURL                    string        `env:"REDIS_URL"`
	RedisTLSInsecure            bool          `env:"REDIS_TLS_INSECURE" env-default:"false"`
	AsynqQueueName              string        `env:"ASYNQ_QUEUE" env-default:"compliance"`
	AsynqConcurrency            int           `env:"ASYNQ_CONCURRENCY" env-default:"4"`
	ProvisionalCleanupCron      string        `env:"PROVISIONAL_CLEANUP_CRON" env-default:"0 2 * * *"`
	AgreementReconciliationCron string        `env:"AGREEMENT_RECONCILIATION_CRON" env-default:"0 1 * * *"`
	DashboardCacheTTL           time.Duration `env:"DASHBOARD_CACHE_TTL" env-default:"60s"`
	MinIOEndpoint               string        `env:"MINIO_ENDPOINT"`
	MinIOAccessKey              string        `env:"MINIO_ACCESS_KEY"`
	MinIOSecretKey              string        `env:"MINIO_SECRET_KEY"`
	MinIOUseSSL                 bool          `env:"MINIO_USE_SSL" env-default:"false"`
	MinioBucketLabels           string        `env:"MINIO_BUCKET_LABELS" env-default:"equipment-labels"`
	BusinessTimezone            string        `env:"BUSINESS_TIMEZONE" env-default:"UTC"`
	ProvisionalTTL              time.Duration `env:"PROVISIONAL_TTL" env-default:"720h"`
	DefaultPhoneRegion          string        `env:"DEFAULT_PHONE_REGION" env-default:"NL"`

	location *time.Location
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string            { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool      { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string      { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int       { return c.AsynqConcurrency }
func (c *Config) GetProvisionalCleanupCron() string {
	return c.ProvisionalCleanupCron
}
func (c *Config) GetAgreementReconciliationCron() string {
	return c.AgreementReconciliationCron
}

// CacheConfig implementation
func (c *Config) GetDashboardCacheTTL() time.Duration { return c.DashboardCacheTTL }

// StorageConfig implementation
func (c *Config) GetMinIOEndpoint() string     { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string    { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string    { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool         { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketLabels() string { return c.MinioBucketLabels }
func (c *Config) IsMinIOEnabled() bool         { return c.MinIOEndpoint != "" }

// DomainConfig implementation
func (c *Config) GetBusinessLocation() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}
func (c *Config) GetProvisionalTTL() time.Duration { return c.ProvisionalTTL }
func (c *Config) GetDefaultPhoneRegion() string    { return c.DefaultPhoneRegion }

// Load reads configuration from a local .env file (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finalize() error {
	c.CORSOrigins = trimAll(c.CORSOrigins)
	if containsWildcard(c.CORSOrigins) {
		c.CORSAllowAll = true
	}

	loc, err := time.LoadLocation(strings.TrimSpace(c.BusinessTimezone))
	if err != nil {
		return fmt.Errorf("BUSINESS_TIMEZONE: %w", err)
	}
	c.location = loc

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTAccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if c.ProvisionalTTL <= 0 {
		return fmt.Errorf("PROVISIONAL_TTL must be positive")
	}

	return nil
}

// RequireRedis fails when a binary that needs Redis starts without REDIS_URL.
func (c *Config) RequireRedis() error {
	if strings.TrimSpace(c.RedisURL) == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	return nil
}

func trimAll(values []string) []string {
	results := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
