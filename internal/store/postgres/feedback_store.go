package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/feedlane/feedlane-backend/internal/store"
	"github.com/feedlane/feedlane-backend/types"
)

var _ store.FeedbackStore = (*FeedbackStore)(nil)

const feedbackColumns = `id, project_id, type, message, email, metadata, status, created_at, updated_at`

// FeedbackStore persists feedback rows.
type FeedbackStore struct {
	db DBTX
}

func NewFeedbackStore(db DBTX) *FeedbackStore {
	return &FeedbackStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeedback(row rowScanner) (*types.Feedback, error) {
	fb := &types.Feedback{}
	var metadata []byte
	err := row.Scan(
		&fb.ID,
		&fb.ProjectID,
		&fb.Type,
		&fb.Message,
		&fb.Email,
		&metadata,
		&fb.Status,
		&fb.CreatedAt,
		&fb.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		fb.Metadata = metadata
	}
	return fb, nil
}

// CreateFeedback inserts a validated submission. The id, status and
// timestamps come from the database defaults.
func (s *FeedbackStore) CreateFeedback(ctx context.Context, sub *types.FeedbackSubmission) (*types.Feedback, error) {
	if !validID(sub.ProjectID) {
		return nil, store.ErrNotFound
	}

	query := `
		INSERT INTO feedback (project_id, type, message, email, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + feedbackColumns

	fb, err := scanFeedback(s.db.QueryRow(ctx, query,
		sub.ProjectID,
		sub.Type,
		sub.Message,
		sub.Email,
		jsonArg(sub.Metadata),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create feedback: %w", mapError(err))
	}
	return fb, nil
}

// GetFeedback returns a feedback of the given project.
func (s *FeedbackStore) GetFeedback(ctx context.Context, projectID, feedbackID string) (*types.Feedback, error) {
	if !validID(projectID) || !validID(feedbackID) {
		return nil, store.ErrNotFound
	}

	query := `SELECT ` + feedbackColumns + `
		FROM feedback
		WHERE id = $1 AND project_id = $2`

	fb, err := scanFeedback(s.db.QueryRow(ctx, query, feedbackID, projectID))
	if err != nil {
		return nil, mapError(err)
	}
	return fb, nil
}

// ListFeedback returns one page of a project's feedback, newest first, and the
// total number of rows matching the filter.
func (s *FeedbackStore) ListFeedback(ctx context.Context, projectID string, filter types.FeedbackFilter) ([]types.Feedback, int, error) {
	if !validID(projectID) {
		return nil, 0, store.ErrNotFound
	}

	conds := []string{"project_id = $1"}
	args := []any{projectID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	where := strings.Join(conds, " AND ")

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM feedback WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count feedback: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	pageArgs := append(args, limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM feedback WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		feedbackColumns, where, len(args)+1, len(args)+2)

	rows, err := s.db.Query(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	items := make([]types.Feedback, 0, limit)
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *fb)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdateFeedbackStatus changes the triage status of a project's feedback.
func (s *FeedbackStore) UpdateFeedbackStatus(ctx context.Context, projectID, feedbackID string, status types.FeedbackStatus) (*types.Feedback, error) {
	if !validID(projectID) || !validID(feedbackID) {
		return nil, store.ErrNotFound
	}

	query := `
		UPDATE feedback
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND project_id = $3
		RETURNING ` + feedbackColumns

	fb, err := scanFeedback(s.db.QueryRow(ctx, query, status, feedbackID, projectID))
	if err != nil {
		return nil, mapError(err)
	}
	return fb, nil
}
