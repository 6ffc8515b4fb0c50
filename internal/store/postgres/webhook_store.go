package postgres

import (
	"context"

	"github.com/feedlane/feedlane-backend/internal/store"
	"github.com/feedlane/feedlane-backend/types"
)

var _ store.WebhookStore = (*WebhookStore)(nil)

// WebhookStore manages organization webhooks.
type WebhookStore struct {
	db DBTX
}

func NewWebhookStore(db DBTX) *WebhookStore {
	return &WebhookStore{db: db}
}

// CreateWebhook stores a destination. The provider is expected to be
// resolved by the caller so it never has to be sniffed again.
func (s *WebhookStore) CreateWebhook(ctx context.Context, wh *types.Webhook) (*types.Webhook, error) {
	if !validID(wh.OrganizationID) {
		return nil, store.ErrNotFound
	}

	query := `
		INSERT INTO webhooks (organization_id, url, enabled, provider)
		VALUES ($1, $2, $3, $4)
		RETURNING id, organization_id, url, enabled, provider, created_at`

	created := &types.Webhook{}
	err := s.db.QueryRow(ctx, query, wh.OrganizationID, wh.URL, wh.Enabled, wh.Provider).Scan(
		&created.ID,
		&created.OrganizationID,
		&created.URL,
		&created.Enabled,
		&created.Provider,
		&created.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return created, nil
}

// ListWebhooks returns every webhook of the organization, enabled or not.
func (s *WebhookStore) ListWebhooks(ctx context.Context, organizationID string) ([]types.Webhook, error) {
	if !validID(organizationID) {
		return nil, store.ErrNotFound
	}
	return listWebhooks(ctx, s.db, organizationID, false)
}

func listWebhooks(ctx context.Context, db DBTX, organizationID string, enabledOnly bool) ([]types.Webhook, error) {
	query := `
		SELECT id, organization_id, url, enabled, provider, created_at
		FROM webhooks
		WHERE organization_id = $1 AND ($2 = false OR enabled)
		ORDER BY created_at, id`

	rows, err := db.Query(ctx, query, organizationID, enabledOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var webhooks []types.Webhook
	for rows.Next() {
		var wh types.Webhook
		if err := rows.Scan(
			&wh.ID,
			&wh.OrganizationID,
			&wh.URL,
			&wh.Enabled,
			&wh.Provider,
			&wh.CreatedAt,
		); err != nil {
			return nil, err
		}
		webhooks = append(webhooks, wh)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return webhooks, nil
}
