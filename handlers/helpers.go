package handlers

import (
	apperrors "github.com/feedlane/feedlane-backend/errors"
	"github.com/feedlane/feedlane-backend/middleware"
	"github.com/gin-gonic/gin"
)

func bindJSONOrError(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		_ = c.Error(apperrors.ValidationFailed("Invalid request body", err.Error()))
		return false
	}
	return true
}

// projectIDFromContext returns the project of the authenticated API key.
// Routes using it sit behind the API key middleware, so an empty value is a
// wiring bug and is reported as unauthenticated.
func projectIDFromContext(c *gin.Context) (string, bool) {
	projectID := middleware.ProjectIDFromContext(c)
	if projectID == "" {
		_ = c.Error(apperrors.AuthenticationFailed("Missing API key"))
		return "", false
	}
	return projectID, true
}
