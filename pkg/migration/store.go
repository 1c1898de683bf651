package migration

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// Record is one row of the history table.
type Record struct {
	ID         int64          `db:"id"`
	Version    int            `db:"version"`
	Statements string         `db:"statements"` // JSON list of the statements that ran
	AppliedAt  time.Time      `db:"applied_at"`
	Comment    sql.NullString `db:"comment"`
}

// Store persists the applied history. Every call reads or writes the history table directly, nothing is cached.
// Query and exec arguments may be a transaction so that the caller decides the atomic unit.
type Store interface {
	// Init creates the history table and returns the DDL it ran.
	Init(ctx context.Context, exec sqlx.ExecerContext) (ddl string, err error)

	// CurrentVersion returns the highest applied version, or ErrStoreUninitialized.
	CurrentVersion(ctx context.Context, q sqlx.QueryerContext) (int, error)

	IsApplied(ctx context.Context, q sqlx.QueryerContext, version int) (bool, error)

	// Record appends one row. Call it inside the transaction that ran the statements.
	Record(ctx context.Context, exec sqlx.ExecerContext, rec Record) error

	// List returns every row ordered by version.
	List(ctx context.Context, q sqlx.QueryerContext) ([]Record, error)
}
