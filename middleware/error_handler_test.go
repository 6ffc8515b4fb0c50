package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/feedlane/feedlane-backend/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		name           string
		err            error
		errType        gin.ErrorType
		expectedStatus int
		expectedBody   map[string]interface{}
		retryAfter     string
	}{
		{
			name:           "validation error with details",
			err:            apperrors.ValidationFailed(apperrors.MsgMessageRequired, "message"),
			errType:        gin.ErrorTypePrivate,
			expectedStatus: http.StatusBadRequest,
			expectedBody: map[string]interface{}{
				"error":   apperrors.MsgMessageRequired,
				"type":    "VALIDATION_ERROR",
				"code":    "400",
				"details": "message",
			},
		},
		{
			name:           "forbidden",
			err:            apperrors.Forbidden(apperrors.MsgOriginNotAllowed, ""),
			errType:        gin.ErrorTypePrivate,
			expectedStatus: http.StatusForbidden,
			expectedBody: map[string]interface{}{
				"error": apperrors.MsgOriginNotAllowed,
				"type":  "FORBIDDEN",
				"code":  "403",
			},
		},
		{
			name:           "rate limited sets retry after",
			err:            apperrors.RateLimitExceeded(apperrors.MsgTooManyRequests, 60),
			errType:        gin.ErrorTypePrivate,
			expectedStatus: http.StatusTooManyRequests,
			expectedBody: map[string]interface{}{
				"error": apperrors.MsgTooManyRequests,
				"type":  "RATE_LIMITED",
				"code":  "429",
			},
			retryAfter: "60",
		},
		{
			name:           "database error hides details",
			err:            apperrors.NewDatabaseError(errors.New("pq: relation feedback does not exist")),
			errType:        gin.ErrorTypePrivate,
			expectedStatus: http.StatusInternalServerError,
			expectedBody: map[string]interface{}{
				"error": apperrors.MsgInternal,
				"type":  "DATABASE_ERROR",
				"code":  "500",
			},
		},
		{
			name:           "wrapped app error",
			err:            wrapErr(apperrors.NotFound("Feedback", "fb-1")),
			errType:        gin.ErrorTypePrivate,
			expectedStatus: http.StatusNotFound,
			expectedBody: map[string]interface{}{
				"error":   "Feedback not found",
				"type":    "NOT_FOUND",
				"code":    "404",
				"details": "ID: fb-1",
			},
		},
		{
			name:           "bind error",
			err:            errors.New("Key: 'ReplyCreate.Content' failed"),
			errType:        gin.ErrorTypeBind,
			expectedStatus: http.StatusBadRequest,
			expectedBody: map[string]interface{}{
				"error": "Failed to bind request",
				"type":  "VALIDATION_ERROR",
				"code":  "400",
			},
		},
		{
			name:           "unknown error",
			err:            errors.New("boom"),
			errType:        gin.ErrorTypePrivate,
			expectedStatus: http.StatusInternalServerError,
			expectedBody: map[string]interface{}{
				"error": apperrors.MsgInternal,
				"type":  "SERVER_ERROR",
				"code":  "500",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.Use(ErrorHandler())
			router.GET("/test", func(c *gin.Context) {
				_ = c.Error(tc.err).SetType(tc.errType)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

			assert.Equal(t, tc.expectedStatus, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.expectedBody, body)
			assert.Equal(t, tc.retryAfter, w.Header().Get("Retry-After"))
		})
	}
}

func TestErrorHandler_NoErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/ok", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

type wrappedError struct{ err error }

func (w wrappedError) Error() string { return "handler: " + w.err.Error() }
func (w wrappedError) Unwrap() error { return w.err }

func wrapErr(err error) error { return wrappedError{err: err} }

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		name      string
		recovered any
	}{
		{name: "string panic", recovered: "index out of range"},
		{name: "error panic", recovered: errors.New("pq: connection reset")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.Use(Recovery(), ErrorHandler())
			router.GET("/panic", func(*gin.Context) { panic(tc.recovered) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, map[string]interface{}{
				"error": apperrors.MsgInternal,
				"type":  "SERVER_ERROR",
				"code":  "500",
			}, body)
		})
	}
}
