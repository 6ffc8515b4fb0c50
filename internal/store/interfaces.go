// Package store defines the persistence contracts used by the services.
package store

import (
	"context"

	"github.com/feedlane/feedlane-backend/types"
)

// ProjectStore reads projects together with what the ingestion path needs.
type ProjectStore interface {
	// GetProjectWithOrganization loads the project, its organization and the
	// organization's enabled webhooks. Unknown or malformed ids yield ErrNotFound.
	GetProjectWithOrganization(ctx context.Context, projectID string) (*types.Project, error)
}

// FeedbackStore persists widget submissions. Every read and write is scoped
// to a project so one project's key can never see another's rows.
type FeedbackStore interface {
	CreateFeedback(ctx context.Context, sub *types.FeedbackSubmission) (*types.Feedback, error)
	GetFeedback(ctx context.Context, projectID, feedbackID string) (*types.Feedback, error)
	ListFeedback(ctx context.Context, projectID string, filter types.FeedbackFilter) ([]types.Feedback, int, error)
	UpdateFeedbackStatus(ctx context.Context, projectID, feedbackID string, status types.FeedbackStatus) (*types.Feedback, error)
}

// ReplyStore manages operator replies. Callers check feedback ownership first.
type ReplyStore interface {
	ListReplies(ctx context.Context, feedbackID string) ([]types.Reply, error)
	CreateReply(ctx context.Context, feedbackID, content string, authorName *string) (*types.Reply, error)
	UpdateReply(ctx context.Context, feedbackID, replyID, content string) (*types.Reply, error)
	DeleteReply(ctx context.Context, feedbackID, replyID string) error
}

// APIKeyStore resolves bearer tokens by their SHA-256 hash.
type APIKeyStore interface {
	GetAPIKeyByHash(ctx context.Context, keyHash string) (*types.APIKey, error)
	TouchAPIKey(ctx context.Context, keyID string) error
}

// WebhookStore manages organization webhook rows.
type WebhookStore interface {
	CreateWebhook(ctx context.Context, wh *types.Webhook) (*types.Webhook, error)
	ListWebhooks(ctx context.Context, organizationID string) ([]types.Webhook, error)
}
