// Package repository provides the typed, transactional persistence layer
// over internal/database. Every write path is idempotent
// (INSERT OR REPLACE keyed on the entity's natural key) and every batch
// write is all-or-nothing: a single bad row rolls the whole batch back.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/idxscope/core/internal/domain"
	"github.com/rs/zerolog"
)

// MaxBatchSize bounds a single upsert batch (batches
// above this size are rejected outright rather than silently truncated).
const MaxBatchSize = 10_000

// checkBatchSize rejects oversized batches before any work is done.
func checkBatchSize(n int) error {
	if n > MaxBatchSize {
		return domain.NewError(
			domain.ErrKindConflict,
			fmt.Sprintf("batch of %d rows exceeds maximum of %d", n, MaxBatchSize),
			nil,
		)
	}
	return nil
}

// wrapNotFound converts sql.ErrNoRows into the domain NotFound error kind;
// any other error is wrapped as a backend error.
func wrapNotFound(err error, what string) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return domain.NewError(domain.ErrKindNotFound, what, err)
	}
	return domain.NewError(domain.ErrKindBackend, what, err)
}

func wrapBackend(err error, what string) error {
	if err == nil {
		return nil
	}
	return domain.NewError(domain.ErrKindBackend, what, err)
}

// conn is the narrow surface every repository needs from internal/database,
// satisfied by both *sql.DB (outside a transaction) and *sql.Tx.
type conn interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// withLogger tags a logger with the repository name, matching the
// teacher's per-repository log scoping convention.
func withLogger(log zerolog.Logger, repo string) zerolog.Logger {
	return log.With().Str("repo", repo).Logger()
}
