package services

import (
	"context"
	"time"

	"github.com/feedlane/feedlane-backend/logger"
	"github.com/feedlane/feedlane-backend/types"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DBPinger is satisfied by *pgxpool.Pool.
type DBPinger interface {
	Ping(ctx context.Context) error
}

type poolStatter interface {
	Stat() *pgxpool.Stat
}

// QueueDepther reports pending background work.
type QueueDepther interface {
	QueueDepth() int
}

type HealthService struct {
	db          DBPinger
	redisClient redis.Cmdable
	queue       QueueDepther
	version     string
	startTime   time.Time
	log         *zap.SugaredLogger
}

// NewHealthService creates the health checker. redisClient may be nil when
// the memory rate limit backend is used.
func NewHealthService(db DBPinger, redisClient redis.Cmdable, version string) *HealthService {
	return &HealthService{
		db:          db,
		redisClient: redisClient,
		version:     version,
		startTime:   time.Now(),
		log:         logger.GetLogger(),
	}
}

// SetWebhookQueue makes the webhook queue depth part of the report.
func (h *HealthService) SetWebhookQueue(q QueueDepther) {
	h.queue = q
}

func (h *HealthService) CheckHealth(ctx context.Context) types.HealthCheck {
	components := make(map[string]types.HealthComponent)
	overallStatus := types.HealthStatusUp

	merge := func(name string, c types.HealthComponent) {
		components[name] = c
		switch {
		case c.Status == types.HealthStatusDown:
			overallStatus = types.HealthStatusDown
		case c.Status == types.HealthStatusDegraded && overallStatus != types.HealthStatusDown:
			overallStatus = types.HealthStatusDegraded
		}
	}

	merge("database", h.checkDatabase(ctx))
	if h.redisClient != nil {
		merge("redis", h.checkRedis(ctx))
	}

	check := types.HealthCheck{
		Status:     overallStatus,
		Components: components,
		Version:    h.version,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
	}
	if h.queue != nil {
		check.WebhookQueueDepth = h.queue.QueueDepth()
	}
	return check
}

func (h *HealthService) checkDatabase(ctx context.Context) types.HealthComponent {
	if err := h.db.Ping(ctx); err != nil {
		h.log.Errorw("Database health check failed", "error", err)
		return types.HealthComponent{
			Status:  types.HealthStatusDown,
			Details: "Database connection failed",
		}
	}

	if ps, ok := h.db.(poolStatter); ok {
		if stat := ps.Stat(); stat != nil && stat.MaxConns() > 0 &&
			float64(stat.AcquiredConns())/float64(stat.MaxConns()) > 0.8 {
			return types.HealthComponent{
				Status:  types.HealthStatusDegraded,
				Details: "Connection pool near capacity",
			}
		}
	}

	return types.HealthComponent{Status: types.HealthStatusUp}
}

func (h *HealthService) checkRedis(ctx context.Context) types.HealthComponent {
	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		h.log.Errorw("Redis health check failed", "error", err)
		return types.HealthComponent{
			Status:  types.HealthStatusDown,
			Details: "Redis connection failed",
		}
	}
	return types.HealthComponent{Status: types.HealthStatusUp}
}
