package postgres

import (
	"context"

	"github.com/feedlane/feedlane-backend/internal/store"
	"github.com/feedlane/feedlane-backend/types"
)

var _ store.APIKeyStore = (*APIKeyStore)(nil)

type APIKeyStore struct {
	db DBTX
}

func NewAPIKeyStore(db DBTX) *APIKeyStore {
	return &APIKeyStore{db: db}
}

// GetAPIKeyByHash returns the active key with the given hash.
func (s *APIKeyStore) GetAPIKeyByHash(ctx context.Context, keyHash string) (*types.APIKey, error) {
	query := `
		SELECT id, project_id, name, key_hash, revoked_at, last_used_at
		FROM api_keys
		WHERE key_hash = $1 AND revoked_at IS NULL`

	key := &types.APIKey{}
	err := s.db.QueryRow(ctx, query, keyHash).Scan(
		&key.ID,
		&key.ProjectID,
		&key.Name,
		&key.KeyHash,
		&key.RevokedAt,
		&key.LastUsedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return key, nil
}

// TouchAPIKey records that the key was just used.
func (s *APIKeyStore) TouchAPIKey(ctx context.Context, keyID string) error {
	_, err := s.db.Exec(ctx, `UPDATE api_keys SET last_used_at = NOW() WHERE id = $1`, keyID)
	return err
}
