package middleware

import (
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "github.com/feedlane/feedlane-backend/errors"
	"github.com/feedlane/feedlane-backend/internal/ratelimit"
	"github.com/feedlane/feedlane-backend/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const unknownClientIP = "unknown"

var (
	rateLimitDecisions       *prometheus.CounterVec
	rateLimitMetricsOnce     sync.Once
	rateLimitMetricsRegistry = prometheus.DefaultRegisterer
)

func rateLimitCounter() *prometheus.CounterVec {
	rateLimitMetricsOnce.Do(func() {
		rateLimitDecisions = promauto.With(rateLimitMetricsRegistry).NewCounterVec(prometheus.CounterOpts{
			Name: "feedlane_rate_limit_decisions_total",
			Help: "Rate limit decisions by limiter and outcome (allowed, denied, error)",
		}, []string{"limiter", "outcome"})
	})
	return rateLimitDecisions
}

// resetRateLimitMetricsForTesting swaps in a fresh registry. Tests only.
func resetRateLimitMetricsForTesting() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	rateLimitMetricsRegistry = reg
	rateLimitDecisions = nil
	rateLimitMetricsOnce = sync.Once{}
	return reg
}

// IPRateLimiter limits the public feedback endpoint per client IP. Denied
// requests get a 429 with Retry-After set to the full window.
func IPRateLimiter(limiter ratelimit.Limiter, window time.Duration) gin.HandlerFunc {
	retryAfter := int(window / time.Second)
	if retryAfter < 1 {
		retryAfter = 1
	}
	counter := rateLimitCounter()

	return func(c *gin.Context) {
		ip := getClientIP(c)

		res, err := limiter.Allow(c.Request.Context(), "feedback:"+ip)
		if err != nil {
			// Fail open: an unavailable counter store must not take the widget down.
			logger.GetLogger().Warnw("Rate limit check failed, allowing request", "error", err)
			counter.WithLabelValues("ip", "error").Inc()
			c.Next()
			return
		}

		if !res.Allowed {
			counter.WithLabelValues("ip", "denied").Inc()
			_ = c.Error(apperrors.RateLimitExceeded(apperrors.MsgTooManyRequests, retryAfter))
			c.Abort()
			return
		}

		counter.WithLabelValues("ip", "allowed").Inc()
		c.Next()
	}
}

// APIKeyRateLimiter limits the authenticated API per API key and reports the
// window state in X-RateLimit-* headers. Must run after APIKeyAuth.
func APIKeyRateLimiter(limiter ratelimit.Limiter) gin.HandlerFunc {
	counter := rateLimitCounter()

	return func(c *gin.Context) {
		keyID := c.GetString(APIKeyIDKey)
		if keyID == "" {
			keyID = getClientIP(c)
		}

		res, err := limiter.Allow(c.Request.Context(), "apikey:"+keyID)
		if err != nil {
			logger.GetLogger().Warnw("API rate limit check failed, allowing request", "error", err)
			counter.WithLabelValues("api_key", "error").Inc()
			c.Next()
			return
		}

		setRateLimitHeaders(c, res)

		if !res.Allowed {
			counter.WithLabelValues("api_key", "denied").Inc()
			retry := int(res.RetryAfter(time.Now()) / time.Second)
			_ = c.Error(apperrors.RateLimitExceeded(apperrors.MsgTooManyRequests, retry))
			c.Abort()
			return
		}

		counter.WithLabelValues("api_key", "allowed").Inc()
		c.Next()
	}
}

func setRateLimitHeaders(c *gin.Context, res ratelimit.Result) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
}

// getClientIP extracts the client IP the way the widget's edge proxies
// report it: first X-Forwarded-For entry, then X-Real-IP.
func getClientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first := forwarded
		if i := strings.IndexByte(forwarded, ','); i >= 0 {
			first = forwarded[:i]
		}
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if realIP := strings.TrimSpace(c.GetHeader("X-Real-IP")); realIP != "" {
		return realIP
	}

	return unknownClientIP
}
