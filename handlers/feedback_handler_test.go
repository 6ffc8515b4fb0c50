package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/feedlane/feedlane-backend/internal/ratelimit"
	"github.com/feedlane/feedlane-backend/internal/webhook"
	"github.com/feedlane/feedlane-backend/logger"
	"github.com/feedlane/feedlane-backend/middleware"
	"github.com/feedlane/feedlane-backend/services"
	"github.com/feedlane/feedlane-backend/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.IsTest = true
}

const validSubmission = `{"projectId":"p1","type":"BUG","message":"it crashes","email":"u@x.com"}`

func ingestionProject() *types.Project {
	return &types.Project{
		ID:             "p1",
		Name:           "Landing",
		OrganizationID: "org-1",
		AllowedOrigins: []string{"https://x.com"},
		Organization:   &types.Organization{ID: "org-1", Name: "Acme"},
	}
}

type panickingNotifier struct{ calls int32 }

func (n *panickingNotifier) Dispatch(*types.Feedback, *types.Project) {
	atomic.AddInt32(&n.calls, 1)
	panic("dispatcher exploded")
}

// syncQueue runs webhook jobs before Submit returns.
type syncQueue struct{ errs []error }

func (q *syncQueue) Submit(job services.Job) bool {
	q.errs = append(q.errs, job.Execute(context.Background()))
	return true
}

func newIngestionRouter(submitter FeedbackSubmitter, limit int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewFeedbackHandler(submitter, 1024)

	router := gin.New()
	router.Use(middleware.ErrorHandler())
	feedback := router.Group("/api/v1/feedback")
	feedback.OPTIONS("", middleware.FeedbackPreflight())
	feedback.POST("",
		middleware.FeedbackCORS(),
		middleware.IPRateLimiter(ratelimit.NewMemoryLimiter(limit, time.Minute, time.Minute), time.Minute),
		h.SubmitFeedback,
	)
	return router
}

func postFeedback(router *gin.Engine, body, origin, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if ip == "" {
		ip = "203.0.113.10"
	}
	req.Header.Set("X-Forwarded-For", ip)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	msg, _ := body["error"].(string)
	return msg
}

func TestSubmitFeedback_AllowedOrigin(t *testing.T) {
	st := newMemoryStore(ingestionProject())
	router := newIngestionRouter(services.NewFeedbackService(st, st, nil), 10)

	w := postFeedback(router, validSubmission, "https://x.com", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp types.SubmitFeedbackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "https://x.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))

	stored, err := st.GetFeedback(context.Background(), "p1", resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "it crashes", stored.Message)
	require.NotNil(t, stored.Email)
	assert.Equal(t, "u@x.com", *stored.Email)
}

func TestSubmitFeedback_DisallowedOrigin(t *testing.T) {
	st := newMemoryStore(ingestionProject())
	router := newIngestionRouter(services.NewFeedbackService(st, st, nil), 10)

	w := postFeedback(router, validSubmission, "https://evil.com", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Origin not allowed", errorMessage(t, w))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotContains(t, w.Body.String(), "https://x.com")
	assert.Equal(t, 0, st.count())
}

func TestSubmitFeedback_NoOrigin(t *testing.T) {
	st := newMemoryStore(ingestionProject())
	router := newIngestionRouter(services.NewFeedbackService(st, st, nil), 10)

	w := postFeedback(router, validSubmission, "", "")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 1, st.count())
}

func TestSubmitFeedback_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"missing message", `{"projectId":"p1","type":"BUG"}`, http.StatusBadRequest, "Missing required fields"},
		{"blank message", `{"projectId":"p1","type":"BUG","message":"   "}`, http.StatusBadRequest, "Message is required"},
		{"bad type", `{"projectId":"p1","type":"PRAISE","message":"hi"}`, http.StatusBadRequest, "Invalid feedback type"},
		{"bad email", `{"projectId":"p1","type":"BUG","message":"hi","email":"not-an-email"}`, http.StatusBadRequest, "Invalid email format"},
		{"body over cap", `{"projectId":"p1","type":"BUG","message":"` + strings.Repeat("a", 5001) + `"}`, http.StatusRequestEntityTooLarge, "Request body too large"},
		{"not json", `{"projectId":`, http.StatusBadRequest, "Invalid JSON body"},
		{"unknown project", `{"projectId":"nope","type":"BUG","message":"hi"}`, http.StatusNotFound, "Project not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newMemoryStore(ingestionProject())
			router := newIngestionRouter(services.NewFeedbackService(st, st, nil), 100)

			w := postFeedback(router, tt.body, "https://x.com", "")
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantError, errorMessage(t, w))
			// The widget must be able to read the error.
			assert.Equal(t, "https://x.com", w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, 0, st.count())
		})
	}
}

func TestSubmitFeedback_MessageTooLongWithinBodyCap(t *testing.T) {
	st := newMemoryStore(ingestionProject())
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.POST("/api/v1/feedback", NewFeedbackHandler(services.NewFeedbackService(st, st, nil), 0).SubmitFeedback)

	body := `{"projectId":"p1","type":"BUG","message":"` + strings.Repeat("a", 5001) + `"}`
	w := postFeedback(router, body, "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Message too long (max 5000 characters)", errorMessage(t, w))
}

func TestSubmitFeedback_RateLimit(t *testing.T) {
	st := newMemoryStore(ingestionProject())
	router := newIngestionRouter(services.NewFeedbackService(st, st, nil), 10)

	// Invalid requests count against the budget too.
	for i := 0; i < 10; i++ {
		w := postFeedback(router, `{}`, "https://x.com", "198.51.100.4")
		require.Equal(t, http.StatusBadRequest, w.Code)
	}

	w := postFeedback(router, validSubmission, "https://x.com", "198.51.100.4")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many requests. Please try again later.", errorMessage(t, w))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, 0, st.count())

	assert.Equal(t, http.StatusCreated, postFeedback(router, validSubmission, "https://x.com", "198.51.100.5").Code)
}

func TestSubmitFeedback_DispatchIsolation(t *testing.T) {
	t.Run("panicking dispatcher", func(t *testing.T) {
		st := newMemoryStore(ingestionProject())
		notifier := &panickingNotifier{}
		router := newIngestionRouter(services.NewFeedbackService(st, st, notifier), 10)

		w := postFeedback(router, validSubmission, "https://x.com", "")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, int32(1), atomic.LoadInt32(&notifier.calls))
		assert.Equal(t, 1, st.count())
	})

	t.Run("destination returns 500", func(t *testing.T) {
		var hits int32
		dest := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer dest.Close()

		project := ingestionProject()
		url := dest.URL + "/hook"
		project.Organization.WebhookURL = &url

		st := newMemoryStore(project)
		queue := &syncQueue{}
		dispatcher := webhook.NewDispatcher(queue, webhook.NewClient(webhook.WithTimeout(2*time.Second)), 0, 1)
		router := newIngestionRouter(services.NewFeedbackService(st, st, dispatcher), 10)

		w := postFeedback(router, validSubmission, "https://x.com", "")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
		require.Len(t, queue.errs, 1)
		assert.Error(t, queue.errs[0])
	})
}

func TestFeedbackPreflightRoute(t *testing.T) {
	router := newIngestionRouter(nil, 10)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/feedback", bytes.NewReader(nil))
	req.Header.Set("Origin", "https://anything.example")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://anything.example", w.Header().Get("Access-Control-Allow-Origin"))
}
