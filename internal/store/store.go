// Package store implements the derivation engine's persistence on PostgreSQL
// using pgx. Every mutating method takes the transaction handle opened by
// WithTx so that a whole derivation commits or rolls back as one unit.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/fooddb/internal/core"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Store is the PostgreSQL implementation of core.Store.
type Store struct {
	pool *pgxpool.Pool
}

var _ core.Store = (*Store)(nil)

// New creates a store over pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool returns the non-transactional handle.
func (s *Store) Pool() core.DBTX {
	return s.pool
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise. Unique violations are reported as
// core.ErrCodeConflict.
func (s *Store) WithTx(ctx context.Context, fn func(tx core.DBTX) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	if err := fn(tx); err != nil {
		return translateError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return translateError(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// translateError marks unique violations as code conflicts, keeping the
// driver error in the chain.
func translateError(err error) error {
	if isUniqueViolation(err) && !errors.Is(err, core.ErrCodeConflict) {
		return fmt.Errorf("%w: %w", core.ErrCodeConflict, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// execBatch sends b and checks the result of every queued statement.
// Statements queued with result callbacks are handled by Close.
func execBatch(ctx context.Context, db core.DBTX, b *pgx.Batch) error {
	if b.Len() == 0 {
		return nil
	}
	return db.SendBatch(ctx, b).Close()
}

// collectSet reads a single text column into a set.
func collectSet(ctx context.Context, db core.DBTX, sql string, args ...any) (map[string]struct{}, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set, nil
}

// distinct returns the values in first-seen order without repeats.
func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
