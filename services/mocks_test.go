package services

import (
	"context"
	"sync"

	"github.com/feedlane/feedlane-backend/types"
	"github.com/stretchr/testify/mock"
)

type mockProjectStore struct{ mock.Mock }

func (m *mockProjectStore) GetProjectWithOrganization(ctx context.Context, projectID string) (*types.Project, error) {
	args := m.Called(ctx, projectID)
	if p := args.Get(0); p != nil {
		return p.(*types.Project), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockFeedbackStore struct{ mock.Mock }

func (m *mockFeedbackStore) CreateFeedback(ctx context.Context, sub *types.FeedbackSubmission) (*types.Feedback, error) {
	args := m.Called(ctx, sub)
	if fb := args.Get(0); fb != nil {
		return fb.(*types.Feedback), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFeedbackStore) GetFeedback(ctx context.Context, projectID, feedbackID string) (*types.Feedback, error) {
	args := m.Called(ctx, projectID, feedbackID)
	if fb := args.Get(0); fb != nil {
		return fb.(*types.Feedback), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFeedbackStore) ListFeedback(ctx context.Context, projectID string, filter types.FeedbackFilter) ([]types.Feedback, int, error) {
	args := m.Called(ctx, projectID, filter)
	var items []types.Feedback
	if v := args.Get(0); v != nil {
		items = v.([]types.Feedback)
	}
	return items, args.Int(1), args.Error(2)
}

func (m *mockFeedbackStore) UpdateFeedbackStatus(ctx context.Context, projectID, feedbackID string, status types.FeedbackStatus) (*types.Feedback, error) {
	args := m.Called(ctx, projectID, feedbackID, status)
	if fb := args.Get(0); fb != nil {
		return fb.(*types.Feedback), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockReplyStore struct{ mock.Mock }

func (m *mockReplyStore) ListReplies(ctx context.Context, feedbackID string) ([]types.Reply, error) {
	args := m.Called(ctx, feedbackID)
	if v := args.Get(0); v != nil {
		return v.([]types.Reply), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReplyStore) CreateReply(ctx context.Context, feedbackID, content string, authorName *string) (*types.Reply, error) {
	args := m.Called(ctx, feedbackID, content, authorName)
	if v := args.Get(0); v != nil {
		return v.(*types.Reply), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReplyStore) UpdateReply(ctx context.Context, feedbackID, replyID, content string) (*types.Reply, error) {
	args := m.Called(ctx, feedbackID, replyID, content)
	if v := args.Get(0); v != nil {
		return v.(*types.Reply), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReplyStore) DeleteReply(ctx context.Context, feedbackID, replyID string) error {
	return m.Called(ctx, feedbackID, replyID).Error(0)
}

// recordingNotifier captures dispatches; panicWith makes Dispatch panic.
type recordingNotifier struct {
	mu        sync.Mutex
	calls     []*types.Feedback
	panicWith interface{}
}

func (n *recordingNotifier) Dispatch(fb *types.Feedback, _ *types.Project) {
	n.mu.Lock()
	n.calls = append(n.calls, fb)
	n.mu.Unlock()
	if n.panicWith != nil {
		panic(n.panicWith)
	}
}

type stubTester struct {
	gotURL     string
	gotProject *types.Project
	result     types.WebhookTestResult
}

func (s *stubTester) SendTest(_ context.Context, destURL string, project *types.Project, _ *types.Organization) types.WebhookTestResult {
	s.gotURL = destURL
	s.gotProject = project
	return s.result
}
