package logger

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const redacted = "[REDACTED]"

// Context keys copied onto error lines when a middleware has set them.
var requestContextKeys = []string{"request_id", "project_id", "api_key_id"}

// Header names containing any of these are never logged verbatim.
var sensitiveHeaderParts = []string{"authorization", "cookie", "token", "key", "secret"}

// LogHTTPError writes one structured error line for a failed request.
// Outside production the line carries the caller's stack.
func LogHTTPError(c *gin.Context, err error, statusCode int, message string) {
	fields := httpErrorFields(c, err, statusCode)
	if os.Getenv("ENVIRONMENT") != "production" {
		fields = append(fields, zap.StackSkip("stack", 1))
	}
	GetLogger().Desugar().Error(message, fields...)
}

func httpErrorFields(c *gin.Context, err error, statusCode int) []zap.Field {
	fields := []zap.Field{
		zap.Error(err),
		zap.String("error_type", errorTypeName(err)),
		zap.Int("status_code", statusCode),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("client_ip", c.ClientIP()),
		zap.Any("headers", redactHeaders(c.Request.Header)),
	}
	for _, key := range requestContextKeys {
		if v := c.GetString(key); v != "" {
			fields = append(fields, zap.String(key, v))
		}
	}
	return fields
}

// errorTypeName is the dynamic type of err without its package path.
func errorTypeName(err error) string {
	if err == nil {
		return ""
	}
	name := fmt.Sprintf("%T", err)
	return name[strings.LastIndex(name, ".")+1:]
}

func redactHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if isSensitiveHeader(name) {
			out[name] = redacted
			continue
		}
		if len(values) > 0 {
			out[name] = values[0]
		}
	}
	return out
}

func isSensitiveHeader(name string) bool {
	lower := strings.ToLower(name)
	for _, part := range sensitiveHeaderParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}
