package config

import (
	"context"
	"crypto/tls"
	"fmt"
	"math"
	"time"

	"github.com/feedlane/feedlane-backend/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// PostgresPoolConfig builds a pgxpool.Config from DatabaseConfig. TLS is
// enabled whenever the SSL mode asks for it, and the pool is sized from
// MaxConnections.
func PostgresPoolConfig(cfg *DatabaseConfig) (*pgxpool.Config, error) {
	log := logger.GetLogger()

	connStr := cfg.URL()

	log.Infow("Connecting to database",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Name,
		"sslmode", cfg.SSLMode,
		"connection_string", logger.MaskConnectionString(connStr))

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if cfg.SSLMode == "require" || cfg.SSLMode == "verify-full" {
		poolConfig.ConnConfig.TLSConfig = &tls.Config{
			ServerName: cfg.Host,
			MinVersion: tls.VersionTLS12,
		}
	}

	maxConns := cfg.MaxConnections
	if maxConns <= 0 {
		maxConns = 10
	}
	poolConfig.MaxConns = int32(math.Min(float64(maxConns), float64(math.MaxInt32)))
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 30 * time.Second
	poolConfig.ConnConfig.ConnectTimeout = 5 * time.Second

	log.Infow("Configured database connection pool",
		"max_conns", poolConfig.MaxConns,
		"health_check_period", poolConfig.HealthCheckPeriod.String())

	return poolConfig, nil
}

// RedisOptions creates redis.Options for the shared rate limit store.
func RedisOptions(cfg *RedisConfig) *redis.Options {
	log := logger.GetLogger()

	redisOptions := &redis.Options{
		Addr:            cfg.Address,
		Password:        cfg.Password,
		DB:              cfg.DB,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		ConnMaxLifetime: time.Hour,
		MaxRetries:      3,
		MinRetryBackoff: time.Millisecond * 100,
		MaxRetryBackoff: time.Second * 2,
		DialTimeout:     time.Second * 5,
		ReadTimeout:     time.Second * 3,
		WriteTimeout:    time.Second * 3,
	}

	log.Infow("Configuring Redis connection",
		"address", cfg.Address,
		"db", cfg.DB,
		"pool_size", cfg.PoolSize,
		"use_tls", cfg.UseTLS)

	if cfg.UseTLS {
		redisOptions.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	return redisOptions
}

// TestRedisConnection pings Redis up to attempts times, waiting delay between tries.
func TestRedisConnection(ctx context.Context, client redis.Cmdable, attempts int, delay time.Duration) error {
	log := logger.GetLogger()
	var err error

	for i := 0; i < attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, time.Second*3)
		err = client.Ping(pingCtx).Err()
		cancel()

		if err == nil {
			if i > 0 {
				log.Infow("Successfully connected to Redis after retries", "attempt", i+1)
			}
			return nil
		}

		if i < attempts-1 {
			log.Warnw("Failed to ping Redis, retrying...",
				"error", err,
				"attempt", i+1,
				"max_attempts", attempts)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("failed to ping Redis after %d attempts: %w", attempts, err)
}
