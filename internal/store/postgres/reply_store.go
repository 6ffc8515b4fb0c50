package postgres

import (
	"context"

	"github.com/feedlane/feedlane-backend/internal/store"
	"github.com/feedlane/feedlane-backend/types"
)

var _ store.ReplyStore = (*ReplyStore)(nil)

const replyColumns = `id, feedback_id, content, author_name, created_at, updated_at`

type ReplyStore struct {
	db DBTX
}

func NewReplyStore(db DBTX) *ReplyStore {
	return &ReplyStore{db: db}
}

func scanReply(row rowScanner) (*types.Reply, error) {
	r := &types.Reply{}
	if err := row.Scan(&r.ID, &r.FeedbackID, &r.Content, &r.AuthorName, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return r, nil
}

// ListReplies returns replies oldest first.
func (s *ReplyStore) ListReplies(ctx context.Context, feedbackID string) ([]types.Reply, error) {
	if !validID(feedbackID) {
		return nil, store.ErrNotFound
	}

	rows, err := s.db.Query(ctx, `SELECT `+replyColumns+`
		FROM replies
		WHERE feedback_id = $1
		ORDER BY created_at, id`, feedbackID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	replies := []types.Reply{}
	for rows.Next() {
		r, err := scanReply(rows)
		if err != nil {
			return nil, err
		}
		replies = append(replies, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return replies, nil
}

func (s *ReplyStore) CreateReply(ctx context.Context, feedbackID, content string, authorName *string) (*types.Reply, error) {
	if !validID(feedbackID) {
		return nil, store.ErrNotFound
	}

	r, err := scanReply(s.db.QueryRow(ctx, `
		INSERT INTO replies (feedback_id, content, author_name)
		VALUES ($1, $2, $3)
		RETURNING `+replyColumns, feedbackID, content, authorName))
	if err != nil {
		return nil, mapError(err)
	}
	return r, nil
}

func (s *ReplyStore) UpdateReply(ctx context.Context, feedbackID, replyID, content string) (*types.Reply, error) {
	if !validID(feedbackID) || !validID(replyID) {
		return nil, store.ErrNotFound
	}

	r, err := scanReply(s.db.QueryRow(ctx, `
		UPDATE replies
		SET content = $1, updated_at = NOW()
		WHERE id = $2 AND feedback_id = $3
		RETURNING `+replyColumns, content, replyID, feedbackID))
	if err != nil {
		return nil, mapError(err)
	}
	return r, nil
}

func (s *ReplyStore) DeleteReply(ctx context.Context, feedbackID, replyID string) error {
	if !validID(feedbackID) || !validID(replyID) {
		return store.ErrNotFound
	}

	result, err := s.db.Exec(ctx, `DELETE FROM replies WHERE id = $1 AND feedback_id = $2`, replyID, feedbackID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
