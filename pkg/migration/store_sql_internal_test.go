package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLStore_query(t *testing.T) {
	pg, err := NewSQLStore(SQLStoreConfig{Dialect: Postgres, Table: "history"})
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO history (version, statements, applied_at, comment) VALUES ($1, $2, $3, $4);`,
		pg.query(sqlRecord),
	)

	lite, err := NewSQLStore(SQLStoreConfig{Dialect: Sqlite, Table: "history"})
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(1) FROM history WHERE version = ?;`, lite.query(sqlIsApplied))
}

func TestIsUndefinedTable(t *testing.T) {
	testCases := []struct {
		Name string
		Err  error
		Want bool
	}{
		{Name: "postgres undefined table", Err: &pq.Error{Code: pgUndefinedTable}, Want: true},
		{Name: "postgres wrapped", Err: fmt.Errorf("query: %w", &pq.Error{Code: pgUndefinedTable}), Want: true},
		{Name: "postgres other", Err: &pq.Error{Code: "23505"}, Want: false},
		{Name: "sqlite", Err: errors.New("SQL logic error: no such table: schema_history (1)"), Want: true},
		{Name: "other", Err: errors.New("connection refused"), Want: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			assert.Equal(t, testCase.Want, isUndefinedTable(testCase.Err))
		})
	}
}

type recordingExecer struct {
	queries []string
}

func (r *recordingExecer) ExecContext(_ context.Context, query string, _ ...interface{}) (sql.Result, error) {
	r.queries = append(r.queries, query)
	return nil, nil
}

func TestSQLStore_Init_VersionColumn(t *testing.T) {
	testCases := []struct {
		Dialect Dialect
		Column  string
	}{
		{Dialect: Postgres, Column: "version BIGINT NOT NULL UNIQUE"},
		{Dialect: Sqlite, Column: "version INTEGER NOT NULL UNIQUE"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Dialect.String(), func(t *testing.T) {
			store, err := NewSQLStore(SQLStoreConfig{Dialect: testCase.Dialect, Table: "history"})
			require.NoError(t, err)

			exec := &recordingExecer{}
			ddl, err := store.Init(context.Background(), exec)
			require.NoError(t, err)
			require.Len(t, exec.queries, 1)
			assert.Equal(t, ddl, exec.queries[0])
			assert.Contains(t, ddl, testCase.Column)
		})
	}
}
