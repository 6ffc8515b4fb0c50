package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDKey is the key used to store the request ID in the gin context
	RequestIDKey = "request_id"

	requestIDHeader = "X-Request-ID"
	maxRequestIDLen = 128
)

// RequestIDMiddleware tags each request with an id, reusing a proxy supplied
// X-Request-ID when it looks sane.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = uuid.NewString()
		}

		c.Set(RequestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()
	}
}
