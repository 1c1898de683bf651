package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/segmentio/encoding/json"
	"github.com/yusufsyaifudin/versi/pkg/validator"
	"github.com/yusufsyaifudin/ylog"
	"go.uber.org/multierr"
)

const bootstrapComment = "bootstrap"

// DB is the database capability the engine needs. *sqlx.DB satisfies it.
type DB interface {
	sqlx.QueryerContext
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// Runner is the operational surface of the migration engine.
type Runner interface {
	Bootstrap(ctx context.Context, version int) error
	CurrentVersion(ctx context.Context) (int, error)
	ApplyMigration(ctx context.Context, m Migration) (applied bool, err error)
	ApplyAll(ctx context.Context) (applied []int, err error)
	Status(ctx context.Context) (Status, error)
	Verify(ctx context.Context) ([]Mismatch, error)
}

type EngineConfig struct {
	DB       DB        `validate:"required"`
	Registry *Registry `validate:"required"`
	Store    Store     `validate:"required"`

	// Verbose logs one status line per migration.
	Verbose bool `validate:"-"`

	// Now stamps history rows, time.Now when nil.
	Now func() time.Time `validate:"-"`
}

// Status is the registered-versus-applied view of the database.
type Status struct {
	Current int
	Applied []Record
	Pending []Migration
}

// Mismatch is an applied version whose stored statements differ from the declared ones.
type Mismatch struct {
	Version  int
	Stored   string
	Declared string
}

// Engine applies pending migrations one version at a time, each in its own transaction.
type Engine struct {
	config EngineConfig
}

var _ Runner = (*Engine)(nil)

func New(conf EngineConfig) (*Engine, error) {
	err := validator.Validate(conf)
	if err != nil {
		err = fmt.Errorf("migration engine config: %w", err)
		return nil, err
	}

	if conf.Now == nil {
		conf.Now = time.Now
	}

	return &Engine{
		config: conf,
	}, nil
}

// Bootstrap creates the history table and records version as the baseline, atomically.
// Running it twice fails with whatever error the database reports for the existing table.
func (e *Engine) Bootstrap(ctx context.Context, version int) (err error) {
	if version < 0 {
		return fmt.Errorf("bootstrap: baseline version %d is negative", version)
	}

	tx, err := e.config.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("bootstrap: begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			err = rollback(tx, err)
		}
	}()

	ddl, err := e.config.Store.Init(ctx, tx)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	statements, err := json.Marshal([]entry{{SQL: ddl}})
	if err != nil {
		return fmt.Errorf("bootstrap: serialize statements: %w", err)
	}

	err = e.config.Store.Record(ctx, tx, Record{
		Version:    version,
		Statements: string(statements),
		AppliedAt:  e.config.Now(),
		Comment:    sql.NullString{String: bootstrapComment, Valid: true},
	})
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("bootstrap: commit: %w", err)
	}

	committed = true
	if e.config.Verbose {
		ylog.Info(ctx, "migration: bootstrapped", ylog.KV("version", version))
	}

	return nil
}

func (e *Engine) CurrentVersion(ctx context.Context) (int, error) {
	return e.config.Store.CurrentVersion(ctx, e.config.DB)
}

// ApplyMigration applies m if it is exactly one version past the current version.
// An already recorded version is a no-op and returns false.
func (e *Engine) ApplyMigration(ctx context.Context, m Migration) (applied bool, err error) {
	if len(m.statements) == 0 {
		return false, &MalformedSpecError{Version: m.Version, Err: errors.New("migration has no compiled statements")}
	}

	tx, err := e.config.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("migration %d: begin transaction: %w", m.Version, err)
	}

	committed := false
	defer func() {
		if !committed {
			err = rollback(tx, err)
		}
	}()

	current, err := e.config.Store.CurrentVersion(ctx, tx)
	if err != nil {
		return false, err
	}

	done, err := e.config.Store.IsApplied(ctx, tx, m.Version)
	if err != nil {
		return false, err
	}

	if done {
		if e.config.Verbose {
			ylog.Info(ctx, "migration: already applied, skipping",
				ylog.KV("version", m.Version),
				ylog.KV("current", current),
			)
		}

		return false, nil
	}

	if m.Version-current != 1 {
		return false, &OutOfSyncError{Version: m.Version, Current: current}
	}

	for i, s := range m.statements {
		if err = s.exec(ctx, tx); err != nil {
			return false, &StatementError{
				Version:   m.Version,
				Index:     i,
				Statement: s.String(),
				Err:       err,
			}
		}
	}

	err = e.config.Store.Record(ctx, tx, Record{
		Version:    m.Version,
		Statements: m.serialized,
		AppliedAt:  e.config.Now(),
		Comment:    sql.NullString{String: m.Comment, Valid: m.Comment != ""},
	})
	if err != nil {
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("migration %d: commit: %w", m.Version, err)
	}

	committed = true
	if e.config.Verbose {
		ylog.Info(ctx, "migration: applied",
			ylog.KV("version", m.Version),
			ylog.KV("comment", m.Comment),
		)
	}

	return true, nil
}

// ApplyAll applies every registered migration newer than the current version in ascending order.
// It stops at the first failure; migrations applied before it stay committed.
func (e *Engine) ApplyAll(ctx context.Context) (applied []int, err error) {
	current, err := e.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}

	pending := e.config.Registry.NewerThan(current)
	if len(pending) == 0 {
		if e.config.Verbose {
			ylog.Info(ctx, "migration: no database migration required", ylog.KV("current", current))
		}

		return []int{}, nil
	}

	if e.config.Verbose {
		ylog.Info(ctx, "migration: database migration required",
			ylog.KV("current", current),
			ylog.KV("pending", len(pending)),
			ylog.KV("target", pending[len(pending)-1].Version),
		)
	}

	applied = make([]int, 0, len(pending))
	for _, m := range pending {
		ok, err := e.ApplyMigration(ctx, m)
		if err != nil {
			return applied, fmt.Errorf("apply migration %d: %w", m.Version, err)
		}

		if ok {
			applied = append(applied, m.Version)
		}
	}

	return applied, nil
}

// Status reports the current version, the history rows and the pending set.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	current, err := e.CurrentVersion(ctx)
	if err != nil {
		return Status{}, err
	}

	records, err := e.config.Store.List(ctx, e.config.DB)
	if err != nil {
		return Status{}, err
	}

	return Status{
		Current: current,
		Applied: records,
		Pending: e.config.Registry.NewerThan(current),
	}, nil
}

// Verify compares the statements stored for each applied version against the registered declaration.
// Versions that are not registered, such as the baseline, are ignored.
func (e *Engine) Verify(ctx context.Context) ([]Mismatch, error) {
	records, err := e.config.Store.List(ctx, e.config.DB)
	if err != nil {
		return nil, err
	}

	mismatches := make([]Mismatch, 0)
	for _, rec := range records {
		m, ok := e.config.Registry.Get(rec.Version)
		if !ok {
			continue
		}

		stored := checksum(rec.Statements)
		if stored != m.Checksum() {
			mismatches = append(mismatches, Mismatch{
				Version:  rec.Version,
				Stored:   stored,
				Declared: m.Checksum(),
			})
		}
	}

	return mismatches, nil
}

func rollback(tx *sqlx.Tx, err error) error {
	if _err := tx.Rollback(); _err != nil && !errors.Is(_err, sql.ErrTxDone) {
		err = multierr.Append(err, fmt.Errorf("rollback: %w", _err))
	}

	return err
}
