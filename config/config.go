// Package config handles loading and validation of application configuration
// from environment variables.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/feedlane/feedlane-backend/logger"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Environment represents the application's running environment (development or production).
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// Rate limiter backends.
const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Environment Environment `mapstructure:"ENVIRONMENT" yaml:"environment"`
	Port        string      `mapstructure:"PORT" yaml:"port"`
	Version     string      `mapstructure:"VERSION" yaml:"version"`
	// AllowedOrigins applies to the authenticated API only. The public
	// feedback endpoint enforces each project's own allow-list.
	AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS" yaml:"allowed_origins"`
	// MaxBodyBytes caps the public feedback request body.
	MaxBodyBytes int64 `mapstructure:"MAX_BODY_BYTES" yaml:"max_body_bytes"`
}

// DatabaseConfig holds PostgreSQL database connection details.
type DatabaseConfig struct {
	Host           string `mapstructure:"HOST" yaml:"host"`
	Port           int    `mapstructure:"PORT" yaml:"port"`
	User           string `mapstructure:"USER" yaml:"user"`
	Password       string `mapstructure:"PASSWORD" yaml:"-"`
	Name           string `mapstructure:"NAME" yaml:"name"`
	SSLMode        string `mapstructure:"SSL_MODE" yaml:"ssl_mode"`
	MaxConnections int    `mapstructure:"MAX_CONNECTIONS" yaml:"max_connections"`
	RunMigrations  bool   `mapstructure:"RUN_MIGRATIONS" yaml:"run_migrations"`
}

// URL returns a postgres:// connection URL suitable for pgxpool and golang-migrate.
func (c *DatabaseConfig) URL() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		sslmode,
	)
}

// RedisConfig holds Redis connection details.
type RedisConfig struct {
	Address      string `mapstructure:"ADDRESS" yaml:"address"`
	Password     string `mapstructure:"PASSWORD" yaml:"-"`
	DB           int    `mapstructure:"DB" yaml:"db"`
	UseTLS       bool   `mapstructure:"USE_TLS" yaml:"use_tls"`
	PoolSize     int    `mapstructure:"POOL_SIZE" yaml:"pool_size"`
	MinIdleConns int    `mapstructure:"MIN_IDLE_CONNS" yaml:"min_idle_conns"`
}

// RateLimitConfig holds configuration for the fixed-window limiters.
type RateLimitConfig struct {
	// Backend selects where window counters live: "memory" or "redis".
	Backend string `mapstructure:"BACKEND" yaml:"backend"`
	// FeedbackRequests is the per-IP budget of the public feedback endpoint.
	FeedbackRequests int `mapstructure:"FEEDBACK_REQUESTS" yaml:"feedback_requests"`
	// APIRequests is the per-API-key budget of the authenticated API.
	APIRequests   int `mapstructure:"API_REQUESTS" yaml:"api_requests"`
	WindowSeconds int `mapstructure:"WINDOW_SECONDS" yaml:"window_seconds"`
	// CleanupIntervalSeconds is how often the memory backend sweeps expired windows.
	CleanupIntervalSeconds int `mapstructure:"CLEANUP_INTERVAL_SECONDS" yaml:"cleanup_interval_seconds"`
}

// WebhookConfig controls outbound webhook delivery.
type WebhookConfig struct {
	TimeoutSeconds int    `mapstructure:"TIMEOUT_SECONDS" yaml:"timeout_seconds"`
	UserAgent      string `mapstructure:"USER_AGENT" yaml:"user_agent"`
	// PerHostRate and PerHostBurst pace deliveries to a single destination host.
	PerHostRate  float64 `mapstructure:"PER_HOST_RATE" yaml:"per_host_rate"`
	PerHostBurst int     `mapstructure:"PER_HOST_BURST" yaml:"per_host_burst"`
}

// WorkerPoolConfig holds configuration for the webhook worker pool.
type WorkerPoolConfig struct {
	// MaxWorkers is the number of concurrent workers (default: 10)
	MaxWorkers int `mapstructure:"MAX_WORKERS" yaml:"max_workers"`
	// QueueSize is the maximum number of pending jobs (default: 1000)
	QueueSize int `mapstructure:"QUEUE_SIZE" yaml:"queue_size"`
	// ShutdownTimeoutSeconds is the max time to wait for workers during shutdown (default: 30)
	ShutdownTimeoutSeconds int `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS" yaml:"shutdown_timeout_seconds"`
	// JobTimeoutSeconds bounds a single job (default: 30)
	JobTimeoutSeconds int `mapstructure:"JOB_TIMEOUT_SECONDS" yaml:"job_timeout_seconds"`
}

// APIKeyConfig controls API key lookups.
type APIKeyConfig struct {
	CacheTTLSeconds int `mapstructure:"CACHE_TTL_SECONDS" yaml:"cache_ttl_seconds"`
}

// SentryConfig enables error reporting when DSN is set.
type SentryConfig struct {
	DSN              string  `mapstructure:"DSN" yaml:"-"`
	TracesSampleRate float64 `mapstructure:"TRACES_SAMPLE_RATE" yaml:"traces_sample_rate"`
}

// Config aggregates all application configuration sections.
type Config struct {
	Server     ServerConfig     `mapstructure:"SERVER" yaml:"server"`
	Database   DatabaseConfig   `mapstructure:"DATABASE" yaml:"database"`
	Redis      RedisConfig      `mapstructure:"REDIS" yaml:"redis"`
	RateLimit  RateLimitConfig  `mapstructure:"RATE_LIMIT" yaml:"rate_limit"`
	Webhook    WebhookConfig    `mapstructure:"WEBHOOK" yaml:"webhook"`
	WorkerPool WorkerPoolConfig `mapstructure:"WORKER_POOL" yaml:"worker_pool"`
	APIKey     APIKeyConfig     `mapstructure:"API_KEY" yaml:"api_key"`
	Sentry     SentryConfig     `mapstructure:"SENTRY" yaml:"sentry"`
}

// IsDevelopment returns true if the application is running in development environment.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == EnvDevelopment
}

// IsProduction returns true if the application is running in production environment.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// UsesRedis reports whether any component needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.RateLimit.Backend == RateLimitBackendRedis
}

// bindEnvVars binds multiple environment variables to config keys.
// Format: []{configKey, envVar}
func bindEnvVars(v *viper.Viper, bindings [][2]string) error {
	for _, b := range bindings {
		if err := v.BindEnv(b[0], b[1]); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b[0], err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER.ENVIRONMENT", EnvDevelopment)
	v.SetDefault("SERVER.PORT", "8080")
	v.SetDefault("SERVER.VERSION", "dev")
	v.SetDefault("SERVER.ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("SERVER.MAX_BODY_BYTES", 64<<10)
	v.SetDefault("DATABASE.HOST", "localhost")
	v.SetDefault("DATABASE.PORT", 5432)
	v.SetDefault("DATABASE.USER", "postgres")
	v.SetDefault("DATABASE.PASSWORD", "")
	v.SetDefault("DATABASE.NAME", "feedlane_dev")
	v.SetDefault("DATABASE.SSL_MODE", "disable")
	v.SetDefault("DATABASE.MAX_CONNECTIONS", 10)
	v.SetDefault("DATABASE.RUN_MIGRATIONS", true)
	v.SetDefault("REDIS.ADDRESS", "localhost:6379")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)
	v.SetDefault("REDIS.USE_TLS", false)
	v.SetDefault("REDIS.POOL_SIZE", 5)
	v.SetDefault("REDIS.MIN_IDLE_CONNS", 1)
	v.SetDefault("RATE_LIMIT.BACKEND", RateLimitBackendMemory)
	v.SetDefault("RATE_LIMIT.FEEDBACK_REQUESTS", 10)
	v.SetDefault("RATE_LIMIT.API_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT.WINDOW_SECONDS", 60)
	v.SetDefault("RATE_LIMIT.CLEANUP_INTERVAL_SECONDS", 300)
	v.SetDefault("WEBHOOK.TIMEOUT_SECONDS", 10)
	v.SetDefault("WEBHOOK.USER_AGENT", "Feedlane-Webhook/1.0")
	v.SetDefault("WEBHOOK.PER_HOST_RATE", 5.0)
	v.SetDefault("WEBHOOK.PER_HOST_BURST", 10)
	v.SetDefault("WORKER_POOL.MAX_WORKERS", 10)
	v.SetDefault("WORKER_POOL.QUEUE_SIZE", 1000)
	v.SetDefault("WORKER_POOL.SHUTDOWN_TIMEOUT_SECONDS", 30)
	v.SetDefault("WORKER_POOL.JOB_TIMEOUT_SECONDS", 30)
	v.SetDefault("API_KEY.CACHE_TTL_SECONDS", 300)
	v.SetDefault("SENTRY.DSN", "")
	v.SetDefault("SENTRY.TRACES_SAMPLE_RATE", 0.0)
}

// LoadConfig loads configuration from environment variables using Viper,
// sets default values, unmarshals and validates it.
func LoadConfig() (*Config, error) {
	v := viper.New()
	log := logger.GetLogger()

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envBindings := [][2]string{
		{"SERVER.ENVIRONMENT", "ENVIRONMENT"},
		{"SERVER.PORT", "PORT"},
		{"SERVER.VERSION", "VERSION"},
		{"SERVER.ALLOWED_ORIGINS", "ALLOWED_ORIGINS"},
		{"DATABASE.HOST", "DB_HOST"},
		{"DATABASE.PORT", "DB_PORT"},
		{"DATABASE.USER", "DB_USER"},
		{"DATABASE.PASSWORD", "DB_PASSWORD"},
		{"DATABASE.NAME", "DB_NAME"},
		{"DATABASE.SSL_MODE", "DB_SSL_MODE"},
		{"DATABASE.RUN_MIGRATIONS", "DB_RUN_MIGRATIONS"},
		{"REDIS.ADDRESS", "REDIS_ADDRESS"},
		{"REDIS.PASSWORD", "REDIS_PASSWORD"},
		{"REDIS.DB", "REDIS_DB"},
		{"REDIS.USE_TLS", "REDIS_USE_TLS"},
		{"SENTRY.DSN", "SENTRY_DSN"},
	}

	if err := bindEnvVars(v, envBindings); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}

	// ALLOWED_ORIGINS arrives as a comma separated string from the environment.
	cfg.Server.AllowedOrigins = splitList(v.GetStringSlice("SERVER.ALLOWED_ORIGINS"))

	log.Infow("Configuration loaded",
		"environment", cfg.Server.Environment,
		"server_port", cfg.Server.Port,
		"db_host", cfg.Database.Host,
		"rate_limit_backend", cfg.RateLimit.Backend,
		"feedback_requests_per_window", cfg.RateLimit.FeedbackRequests,
		"webhook_timeout_seconds", cfg.Webhook.TimeoutSeconds,
		"sentry_enabled", cfg.Sentry.DSN != "",
	)

	if err := validateConfig(&cfg, log); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	log.Info("Configuration validated successfully")
	return &cfg, nil
}

// validateConfig checks if the loaded configuration values are valid.
func validateConfig(cfg *Config, log *zap.SugaredLogger) error {
	if cfg.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server max body bytes must be positive")
	}
	if !containsWildcard(cfg.Server.AllowedOrigins) {
		for _, origin := range cfg.Server.AllowedOrigins {
			if _, err := url.ParseRequestURI(origin); err != nil {
				return fmt.Errorf("invalid allowed origin '%s': %w", origin, err)
			}
		}
	}

	if cfg.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if cfg.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if cfg.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if cfg.Database.Password == "" {
		log.Warn("Database password is not set. Ensure this is intended (e.g., using trusted auth).")
	}

	switch cfg.RateLimit.Backend {
	case RateLimitBackendMemory:
	case RateLimitBackendRedis:
		if cfg.Redis.Address == "" {
			return fmt.Errorf("redis address is required for the redis rate limit backend")
		}
	default:
		return fmt.Errorf("unknown rate limit backend %q", cfg.RateLimit.Backend)
	}
	if cfg.RateLimit.FeedbackRequests <= 0 || cfg.RateLimit.APIRequests <= 0 {
		return fmt.Errorf("rate limit request budgets must be positive")
	}
	if cfg.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("rate limit window seconds must be positive")
	}
	if cfg.RateLimit.CleanupIntervalSeconds <= 0 {
		return fmt.Errorf("rate limit cleanup interval must be positive")
	}

	if cfg.Webhook.TimeoutSeconds <= 0 {
		return fmt.Errorf("webhook timeout must be positive")
	}
	if cfg.Webhook.UserAgent == "" {
		return fmt.Errorf("webhook user agent is required")
	}
	if cfg.Webhook.PerHostRate <= 0 || cfg.Webhook.PerHostBurst <= 0 {
		return fmt.Errorf("webhook per-host rate and burst must be positive")
	}

	if cfg.WorkerPool.MaxWorkers <= 0 {
		return fmt.Errorf("worker pool max workers must be positive")
	}
	if cfg.WorkerPool.QueueSize <= 0 {
		return fmt.Errorf("worker pool queue size must be positive")
	}
	if cfg.WorkerPool.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("worker pool shutdown timeout must be positive")
	}
	if cfg.WorkerPool.JobTimeoutSeconds <= 0 {
		return fmt.Errorf("worker pool job timeout must be positive")
	}

	if cfg.APIKey.CacheTTLSeconds < 0 {
		return fmt.Errorf("api key cache ttl must not be negative")
	}

	if cfg.Sentry.TracesSampleRate < 0 || cfg.Sentry.TracesSampleRate > 1 {
		return fmt.Errorf("sentry traces sample rate must be between 0 and 1")
	}

	return nil
}

// splitList flattens comma separated entries and drops blanks.
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// containsWildcard checks if the list of allowed origins contains the wildcard "*".
func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
