package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	apperrors "github.com/feedlane/feedlane-backend/errors"
	"github.com/feedlane/feedlane-backend/logger"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error attached with c.Error as
// {error, type, code[, details]}.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		last := c.Errors.Last()
		err := last.Err

		var appError *apperrors.AppError
		if errors.As(err, &appError) {
			statusCode := appError.GetHTTPStatus()
			logger.LogHTTPError(c, err, statusCode, string(appError.Type)+" error")

			if appError.Type == apperrors.RateLimitError && appError.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(appError.RetryAfter))
			}

			response := gin.H{
				"error": appError.Message,
				"type":  string(appError.Type),
				"code":  strconv.Itoa(statusCode),
			}

			// Detail on 500s can carry driver messages; only debug builds show it.
			if appError.Detail != "" && (gin.IsDebugging() ||
				appError.Type == apperrors.ValidationError ||
				appError.Type == apperrors.NotFoundError) {
				response["details"] = appError.Detail
			}

			if statusCode >= http.StatusInternalServerError {
				reportToSentry(c, err)
			}

			c.JSON(statusCode, response)
			return
		}

		if last.Type == gin.ErrorTypeBind {
			logger.LogHTTPError(c, err, http.StatusBadRequest, "Request binding error")

			response := gin.H{
				"error": "Failed to bind request",
				"type":  string(apperrors.ValidationError),
				"code":  "400",
			}
			if gin.IsDebugging() {
				response["details"] = err.Error()
			}
			c.JSON(http.StatusBadRequest, response)
			return
		}

		logger.LogHTTPError(c, err, http.StatusInternalServerError, "Unexpected server error")
		reportToSentry(c, err)

		response := gin.H{
			"error": apperrors.MsgInternal,
			"type":  string(apperrors.ServerError),
			"code":  "500",
		}
		if gin.IsDebugging() {
			response["details"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, response)
	}
}

// Recovery turns a handler panic into the same 500 body ErrorHandler writes.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		err, ok := recovered.(error)
		if !ok {
			err = fmt.Errorf("panic: %v", recovered)
		}
		logger.LogHTTPError(c, err, http.StatusInternalServerError, "Recovered from panic")
		reportToSentry(c, err)

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": apperrors.MsgInternal,
			"type":  string(apperrors.ServerError),
			"code":  "500",
		})
	})
}

// reportToSentry is a no-op unless sentry.Init was called with a DSN.
func reportToSentry(c *gin.Context, err error) {
	hub := sentry.CurrentHub()
	if hub.Client() == nil {
		return
	}
	hub = hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(c.Request)
		scope.SetTag("route", c.FullPath())
		if rid := c.GetString(RequestIDKey); rid != "" {
			scope.SetTag("request_id", rid)
		}
		if pid := c.GetString(ProjectIDKey); pid != "" {
			scope.SetTag("project_id", pid)
		}
		hub.CaptureException(err)
	})
}
