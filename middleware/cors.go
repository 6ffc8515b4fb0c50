package middleware

import (
	"net/http"
	"time"

	"github.com/feedlane/feedlane-backend/config"
	"github.com/feedlane/feedlane-backend/internal/origin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	feedbackAllowMethods = "POST, OPTIONS"
	feedbackAllowHeaders = "Content-Type"
	feedbackMaxAge       = "86400"
)

// CORSMiddleware handles CORS for the authenticated API. The allow-list
// accepts the same patterns as project origins ("*", exact, "*.domain").
func CORSMiddleware(cfg *config.ServerConfig) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Length",
			"Content-Type",
			"Authorization",
			"Accept",
			"X-Request-ID",
		},
		ExposeHeaders: []string{
			"Content-Length",
			"X-Request-ID",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
			"Retry-After",
		},
		MaxAge: 12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 0 || containsOrigin(cfg.AllowedOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		patterns := cfg.AllowedOrigins
		corsConfig.AllowOriginFunc = func(o string) bool {
			return origin.IsAllowed(o, patterns)
		}
	}

	return cors.New(corsConfig)
}

// FeedbackCORS echoes the request Origin on the public feedback endpoint.
// Which origins may actually read the response is decided after the project
// is known; see ClearFeedbackCORS.
func FeedbackCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		if o := c.GetHeader("Origin"); o != "" {
			setFeedbackCORS(c, o)
		}
		c.Next()
	}
}

// FeedbackPreflight answers OPTIONS /api/v1/feedback. The project is unknown
// at preflight time so every origin is accepted here.
func FeedbackPreflight() gin.HandlerFunc {
	return func(c *gin.Context) {
		o := c.GetHeader("Origin")
		if o == "" {
			o = "*"
		}
		setFeedbackCORS(c, o)
		c.Header("Access-Control-Max-Age", feedbackMaxAge)
		c.AbortWithStatus(http.StatusNoContent)
	}
}

// ClearFeedbackCORS removes the echoed origin so the browser cannot read
// the response.
func ClearFeedbackCORS(c *gin.Context) {
	h := c.Writer.Header()
	h.Del("Access-Control-Allow-Origin")
	h.Del("Access-Control-Allow-Methods")
	h.Del("Access-Control-Allow-Headers")
}

func setFeedbackCORS(c *gin.Context, o string) {
	c.Header("Access-Control-Allow-Origin", o)
	c.Header("Access-Control-Allow-Methods", feedbackAllowMethods)
	c.Header("Access-Control-Allow-Headers", feedbackAllowHeaders)
	c.Header("Vary", "Origin")
}

// containsOrigin checks if a string is present in the allowed origins slice
func containsOrigin(s []string, str string) bool {
	for _, v := range s {
		if v == str {
			return true
		}
	}
	return false
}
