package postgres

import (
	"context"
	"fmt"

	"github.com/feedlane/feedlane-backend/internal/store"
	"github.com/feedlane/feedlane-backend/types"
)

var _ store.ProjectStore = (*ProjectStore)(nil)

// ProjectStore reads projects and their organizations.
type ProjectStore struct {
	db DBTX
}

func NewProjectStore(db DBTX) *ProjectStore {
	return &ProjectStore{db: db}
}

// GetProjectWithOrganization loads a project, its organization and the
// organization's enabled webhooks in creation order.
func (s *ProjectStore) GetProjectWithOrganization(ctx context.Context, projectID string) (*types.Project, error) {
	if !validID(projectID) {
		return nil, store.ErrNotFound
	}

	query := `
		SELECT p.id, p.name, p.organization_id, p.allowed_origins,
			o.id, o.name, o.webhook_url
		FROM projects p
		JOIN organizations o ON o.id = p.organization_id
		WHERE p.id = $1`

	project := &types.Project{}
	org := &types.Organization{}
	err := s.db.QueryRow(ctx, query, projectID).Scan(
		&project.ID,
		&project.Name,
		&project.OrganizationID,
		&project.AllowedOrigins,
		&org.ID,
		&org.Name,
		&org.WebhookURL,
	)
	if err != nil {
		return nil, mapError(err)
	}

	webhooks, err := listWebhooks(ctx, s.db, org.ID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load webhooks: %w", err)
	}
	org.Webhooks = webhooks
	project.Organization = org
	return project, nil
}
