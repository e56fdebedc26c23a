package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/openvolunteering/postulate/pkg/engine"
)

// querier is the part of pgxpool.Pool and pgx.Tx the store queries
// through, so the same methods serve both pooled and transactional use.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements engine.Store on PostgreSQL.
type Store struct {
	db *DB
	q  querier
}

// NewStore wraps a DB as an engine store.
func NewStore(db *DB) *Store {
	return &Store{db: db, q: db.pool}
}

// RunInTx runs fn against a store view bound to one transaction,
// committing when fn returns nil and rolling back otherwise.
func (s *Store) RunInTx(ctx context.Context, fn func(engine.Store) error) error {
	tx, err := s.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Store{db: s.db, q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
