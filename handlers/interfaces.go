package handlers

import (
	"context"

	"github.com/feedlane/feedlane-backend/types"
)

// FeedbackSubmitter runs the public ingestion path.
type FeedbackSubmitter interface {
	Submit(ctx context.Context, sub *types.FeedbackSubmission, origin string) (*types.Feedback, error)
}

// FeedbackManager serves the project-scoped feedback API.
type FeedbackManager interface {
	ListFeedback(ctx context.Context, projectID string, params types.ListFeedbackParams) (*types.PaginatedResponse, error)
	GetFeedback(ctx context.Context, projectID, feedbackID string) (*types.Feedback, error)
	UpdateStatus(ctx context.Context, projectID, feedbackID string, status types.FeedbackStatus) (*types.Feedback, error)
}

// ReplyManager serves replies on a project's feedback.
type ReplyManager interface {
	GetFeedbackWithReplies(ctx context.Context, projectID, feedbackID string) (*types.FeedbackWithReplies, error)
	CreateReply(ctx context.Context, projectID, feedbackID string, req types.ReplyCreate) (*types.Reply, error)
	UpdateReply(ctx context.Context, projectID, feedbackID, replyID string, req types.ReplyUpdate) (*types.Reply, error)
	DeleteReply(ctx context.Context, projectID, feedbackID, replyID string) error
}

// WebhookTester performs the synchronous admin test delivery.
type WebhookTester interface {
	TestWebhook(ctx context.Context, projectID, destURL string) (types.WebhookTestResult, error)
}

type HealthChecker interface {
	CheckHealth(ctx context.Context) types.HealthCheck
}
