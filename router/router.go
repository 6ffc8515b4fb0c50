package router

import (
	"time"

	"github.com/feedlane/feedlane-backend/config"
	"github.com/feedlane/feedlane-backend/handlers"
	"github.com/feedlane/feedlane-backend/internal/ratelimit"
	"github.com/feedlane/feedlane-backend/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// FeedbackPath is the public widget endpoint. It runs its own CORS policy.
const FeedbackPath = "/api/v1/feedback"

// Dependencies struct holds all dependencies required for setting up routes.
type Dependencies struct {
	Config             *config.Config
	FeedbackHandler    *handlers.FeedbackHandler
	FeedbackAPIHandler *handlers.FeedbackAPIHandler
	ReplyHandler       *handlers.ReplyHandler
	WebhookHandler     *handlers.WebhookHandler
	HealthHandler      *handlers.HealthHandler
	APIKeyAuth         *middleware.APIKeyAuthenticator
	// FeedbackLimiter counts public submissions per client IP.
	FeedbackLimiter ratelimit.Limiter
	// APILimiter counts authenticated calls per API key.
	APILimiter ratelimit.Limiter
	Logger     *zap.SugaredLogger
}

// SetupRouter configures and returns the main Gin engine with all routes defined.
func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery())
	if !deps.Config.IsProduction() {
		r.Use(gin.Logger())
	}

	// Global Middleware
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.SecurityHeadersMiddleware(deps.Config))
	r.Use(middleware.ErrorHandler())
	r.Use(exceptPath(FeedbackPath, middleware.CORSMiddleware(&deps.Config.Server)))

	// Health and Metrics Routes (no auth)
	r.GET("/health", deps.HealthHandler.DetailedHealth)
	r.GET("/health/liveness", deps.HealthHandler.LivenessCheck)
	r.GET("/health/readiness", deps.HealthHandler.ReadinessCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	window := time.Duration(deps.Config.RateLimit.WindowSeconds) * time.Second

	// Public widget endpoint
	r.OPTIONS(FeedbackPath, middleware.FeedbackPreflight())
	r.POST(FeedbackPath,
		middleware.FeedbackCORS(),
		middleware.IPRateLimiter(deps.FeedbackLimiter, window),
		deps.FeedbackHandler.SubmitFeedback,
	)

	// --- Authenticated Routes ---
	api := r.Group("/api/v1")
	api.Use(deps.APIKeyAuth.Middleware(), middleware.APIKeyRateLimiter(deps.APILimiter))
	{
		feedbackRoutes := api.Group("/feedbacks")
		{
			feedbackRoutes.GET("", deps.FeedbackAPIHandler.ListFeedback)
			feedbackRoutes.GET("/:id", deps.FeedbackAPIHandler.GetFeedback)
			feedbackRoutes.PATCH("/:id", deps.FeedbackAPIHandler.UpdateFeedback)

			replyRoutes := feedbackRoutes.Group("/:id/replies")
			{
				replyRoutes.POST("", deps.ReplyHandler.CreateReply)
				replyRoutes.PUT("/:replyId", deps.ReplyHandler.UpdateReply)
				replyRoutes.DELETE("/:replyId", deps.ReplyHandler.DeleteReply)
			}
		}

		api.POST("/webhooks/test", deps.WebhookHandler.TestWebhook)
	}

	return r
}

// exceptPath runs h for every request except those to path.
func exceptPath(path string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == path {
			c.Next()
			return
		}
		h(c)
	}
}
