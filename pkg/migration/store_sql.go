package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/yusufsyaifudin/versi/pkg/validator"
)

// Dialect selects the DDL and placeholder style of the history table.
type Dialect string

func (d Dialect) String() string {
	return string(d)
}

const (
	Postgres Dialect = "postgres"
	Sqlite   Dialect = "sqlite"
)

// DefaultTable is the history table name when none is configured.
const DefaultTable = "schema_history"

// pgUndefinedTable is the SQLSTATE of "relation does not exist".
const pgUndefinedTable = "42P01"

const (
	ddlPostgres = `CREATE TABLE %s (
	id BIGSERIAL PRIMARY KEY,
	version BIGINT NOT NULL UNIQUE,
	statements TEXT NOT NULL,
	applied_at TIMESTAMP WITH TIME ZONE NOT NULL,
	comment TEXT
);`

	ddlSqlite = `CREATE TABLE %s (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	version INTEGER NOT NULL UNIQUE,
	statements TEXT NOT NULL,
	applied_at TIMESTAMP NOT NULL,
	comment TEXT
);`

	sqlCurrentVersion = `SELECT MAX(version) FROM %s;`
	sqlIsApplied      = `SELECT COUNT(1) FROM %s WHERE version = ?;`
	sqlRecord         = `INSERT INTO %s (version, statements, applied_at, comment) VALUES (?, ?, ?, ?);`
	sqlList           = `SELECT id, version, statements, applied_at, comment FROM %s ORDER BY version ASC;`
)

var tableNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type SQLStoreConfig struct {
	Dialect Dialect `validate:"required,oneof=postgres sqlite"`
	Table   string  `validate:"required"`
}

// SQLStore keeps the history in a single SQL table.
type SQLStore struct {
	config   SQLStoreConfig
	bindType int
}

var _ Store = (*SQLStore)(nil)

func NewSQLStore(conf SQLStoreConfig) (*SQLStore, error) {
	if conf.Table == "" {
		conf.Table = DefaultTable
	}

	err := validator.Validate(conf)
	if err != nil {
		err = fmt.Errorf("sql store config: %w", err)
		return nil, err
	}

	if !tableNameRegex.MatchString(conf.Table) {
		return nil, fmt.Errorf("sql store config: invalid table name '%s'", conf.Table)
	}

	bindType := sqlx.QUESTION
	if conf.Dialect == Postgres {
		bindType = sqlx.DOLLAR
	}

	return &SQLStore{
		config:   conf,
		bindType: bindType,
	}, nil
}

func (s *SQLStore) Table() string {
	return s.config.Table
}

func (s *SQLStore) query(format string) string {
	return sqlx.Rebind(s.bindType, fmt.Sprintf(format, s.config.Table))
}

func (s *SQLStore) Init(ctx context.Context, exec sqlx.ExecerContext) (ddl string, err error) {
	switch s.config.Dialect {
	case Postgres:
		ddl = fmt.Sprintf(ddlPostgres, s.config.Table)
	case Sqlite:
		ddl = fmt.Sprintf(ddlSqlite, s.config.Table)
	default:
		return "", fmt.Errorf("unknown dialect %s", s.config.Dialect)
	}

	_, err = exec.ExecContext(ctx, ddl)
	if err != nil {
		err = fmt.Errorf("create history table %s: %w", s.config.Table, err)
		return "", err
	}

	return ddl, nil
}

func (s *SQLStore) CurrentVersion(ctx context.Context, q sqlx.QueryerContext) (int, error) {
	var current sql.NullInt64
	err := sqlx.GetContext(ctx, q, &current, s.query(sqlCurrentVersion))
	if err != nil {
		if isUndefinedTable(err) {
			return 0, ErrStoreUninitialized
		}

		return 0, fmt.Errorf("read current version: %w", err)
	}

	if !current.Valid {
		return 0, ErrStoreUninitialized
	}

	return int(current.Int64), nil
}

func (s *SQLStore) IsApplied(ctx context.Context, q sqlx.QueryerContext, version int) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count, s.query(sqlIsApplied), version)
	if err != nil {
		if isUndefinedTable(err) {
			return false, ErrStoreUninitialized
		}

		return false, fmt.Errorf("check version %d: %w", version, err)
	}

	return count > 0, nil
}

func (s *SQLStore) Record(ctx context.Context, exec sqlx.ExecerContext, rec Record) error {
	_, err := exec.ExecContext(ctx, s.query(sqlRecord),
		rec.Version, rec.Statements, rec.AppliedAt.UTC(), rec.Comment,
	)
	if err != nil {
		return fmt.Errorf("record version %d: %w", rec.Version, err)
	}

	return nil
}

func (s *SQLStore) List(ctx context.Context, q sqlx.QueryerContext) ([]Record, error) {
	records := make([]Record, 0)
	err := sqlx.SelectContext(ctx, q, &records, s.query(sqlList))
	if err != nil {
		if isUndefinedTable(err) {
			return nil, ErrStoreUninitialized
		}

		return nil, fmt.Errorf("list history: %w", err)
	}

	return records, nil
}

// isUndefinedTable recognises a missing history table on postgres and sqlite.
func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUndefinedTable
	}

	return strings.Contains(strings.ToLower(err.Error()), "no such table")
}
