package middleware

import "github.com/gin-gonic/gin"

// Keys set on the gin context by the API key middleware.
const (
	// ProjectIDKey holds the id of the project the API key belongs to.
	ProjectIDKey = "project_id"
	// APIKeyIDKey holds the id (never the secret) of the authenticated key.
	APIKeyIDKey = "api_key_id"
)

// ProjectIDFromContext returns the authenticated project id, or "".
func ProjectIDFromContext(c *gin.Context) string {
	return c.GetString(ProjectIDKey)
}
