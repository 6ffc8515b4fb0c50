package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/feedlane/feedlane-backend/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSecurityHeadersMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		environment config.Environment
		wantHSTS    string
	}{
		{"development has no hsts", config.EnvDevelopment, ""},
		{"production sends hsts", config.EnvProduction, "max-age=31536000; includeSubDomains"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Server: config.ServerConfig{Environment: tt.environment}}

			r := gin.New()
			r.Use(SecurityHeadersMiddleware(cfg))
			r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
			assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
			assert.Equal(t, tt.wantHSTS, w.Header().Get("Strict-Transport-Security"))
		})
	}
}
