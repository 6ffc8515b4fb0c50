package handlers

import (
	"context"
	"sync"

	"github.com/feedlane/feedlane-backend/internal/store"
	"github.com/feedlane/feedlane-backend/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockFeedbackManager struct {
	mock.Mock
}

func (m *MockFeedbackManager) ListFeedback(ctx context.Context, projectID string, params types.ListFeedbackParams) (*types.PaginatedResponse, error) {
	args := m.Called(ctx, projectID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.PaginatedResponse), args.Error(1)
}

func (m *MockFeedbackManager) GetFeedback(ctx context.Context, projectID, feedbackID string) (*types.Feedback, error) {
	args := m.Called(ctx, projectID, feedbackID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Feedback), args.Error(1)
}

func (m *MockFeedbackManager) UpdateStatus(ctx context.Context, projectID, feedbackID string, status types.FeedbackStatus) (*types.Feedback, error) {
	args := m.Called(ctx, projectID, feedbackID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Feedback), args.Error(1)
}

type MockReplyManager struct {
	mock.Mock
}

func (m *MockReplyManager) GetFeedbackWithReplies(ctx context.Context, projectID, feedbackID string) (*types.FeedbackWithReplies, error) {
	args := m.Called(ctx, projectID, feedbackID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.FeedbackWithReplies), args.Error(1)
}

func (m *MockReplyManager) CreateReply(ctx context.Context, projectID, feedbackID string, req types.ReplyCreate) (*types.Reply, error) {
	args := m.Called(ctx, projectID, feedbackID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Reply), args.Error(1)
}

func (m *MockReplyManager) UpdateReply(ctx context.Context, projectID, feedbackID, replyID string, req types.ReplyUpdate) (*types.Reply, error) {
	args := m.Called(ctx, projectID, feedbackID, replyID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Reply), args.Error(1)
}

func (m *MockReplyManager) DeleteReply(ctx context.Context, projectID, feedbackID, replyID string) error {
	return m.Called(ctx, projectID, feedbackID, replyID).Error(0)
}

type MockWebhookTester struct {
	mock.Mock
}

func (m *MockWebhookTester) TestWebhook(ctx context.Context, projectID, destURL string) (types.WebhookTestResult, error) {
	args := m.Called(ctx, projectID, destURL)
	return args.Get(0).(types.WebhookTestResult), args.Error(1)
}

type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) CheckHealth(ctx context.Context) types.HealthCheck {
	return m.Called(ctx).Get(0).(types.HealthCheck)
}

// memoryStore backs the ingestion tests with real project and feedback rows.
type memoryStore struct {
	mu       sync.Mutex
	projects map[string]*types.Project
	feedback []*types.Feedback
}

func newMemoryStore(projects ...*types.Project) *memoryStore {
	s := &memoryStore{projects: make(map[string]*types.Project)}
	for _, p := range projects {
		s.projects[p.ID] = p
	}
	return s
}

func (s *memoryStore) GetProjectWithOrganization(_ context.Context, projectID string) (*types.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memoryStore) CreateFeedback(_ context.Context, sub *types.FeedbackSubmission) (*types.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fb := &types.Feedback{
		ID:        uuid.NewString(),
		ProjectID: sub.ProjectID,
		Type:      sub.Type,
		Message:   sub.Message,
		Email:     sub.Email,
		Metadata:  sub.Metadata,
		Status:    types.FeedbackStatusPending,
	}
	s.feedback = append(s.feedback, fb)
	return fb, nil
}

func (s *memoryStore) GetFeedback(_ context.Context, projectID, feedbackID string) (*types.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, fb := range s.feedback {
		if fb.ID == feedbackID && fb.ProjectID == projectID {
			return fb, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memoryStore) ListFeedback(context.Context, string, types.FeedbackFilter) ([]types.Feedback, int, error) {
	return []types.Feedback{}, 0, nil
}

func (s *memoryStore) UpdateFeedbackStatus(context.Context, string, string, types.FeedbackStatus) (*types.Feedback, error) {
	return nil, store.ErrNotFound
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.feedback)
}
