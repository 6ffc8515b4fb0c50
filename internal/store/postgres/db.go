// Package postgres implements the store contracts on PostgreSQL via pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/feedlane/feedlane-backend/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of *pgxpool.Pool (and pgx.Tx) the stores use.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const uniqueViolation = "23505"

// validID reports whether id can address a uuid column. Malformed ids are
// treated as not found rather than as database errors.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// mapError translates driver errors into store sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return store.ErrConflict
	}
	return err
}

// jsonArg passes a raw JSON document to a jsonb column, NULL when empty.
func jsonArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
