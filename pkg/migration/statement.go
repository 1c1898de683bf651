package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

var (
	errEmptyStatement = errors.New("statement text is empty")
	errNilBuilder     = errors.New("statement builder is nil")
	errInvalidFunc    = errors.New("func statement needs a name and a function")
)

// TxFunc is a Go migration step. It runs inside the same transaction as the rest of the migration.
type TxFunc func(ctx context.Context, tx *sqlx.Tx) error

// Sqlizer is anything that can render itself into a query and its arguments,
// such as the builders of github.com/Masterminds/squirrel.
type Sqlizer interface {
	ToSql() (string, []interface{}, error)
}

// Statement is one executable unit of a migration.
// The concrete representation is resolved when the migration is declared, never when it is applied.
type Statement interface {
	compile() (compiled, error)
}

// compiled is the resolved form of a Statement.
type compiled struct {
	text string
	args []interface{}
	name string // only for Func
	fn   TxFunc
}

// entry is how one compiled statement is written into the history table.
type entry struct {
	SQL  string        `json:"sql,omitempty"`
	Args []interface{} `json:"args,omitempty"`
	Func string        `json:"func,omitempty"`
}

func (c compiled) entry() entry {
	if c.fn != nil {
		return entry{Func: c.name}
	}

	return entry{SQL: c.text, Args: c.args}
}

func (c compiled) String() string {
	if c.fn != nil {
		return fmt.Sprintf("-- func: %s", c.name)
	}

	return c.text
}

func (c compiled) exec(ctx context.Context, tx *sqlx.Tx) error {
	if c.fn != nil {
		return c.fn(ctx, tx)
	}

	// text without arguments runs as written, '?' may be part of a literal or an operator
	if len(c.args) == 0 {
		_, err := tx.ExecContext(ctx, c.text)
		return err
	}

	_, err := tx.ExecContext(ctx, tx.Rebind(c.text), c.args...)
	return err
}

type rawStatement struct {
	text string
	args []interface{}
}

func (s rawStatement) compile() (compiled, error) {
	text := strings.TrimSpace(s.text)
	if text == "" {
		return compiled{}, errEmptyStatement
	}

	return compiled{text: text, args: s.args}, nil
}

// SQL declares a plain SQL statement without arguments. The text is executed verbatim.
func SQL(text string) Statement {
	return rawStatement{text: text}
}

// Query declares a parameterized SQL statement. Placeholders are written as '?'
// and rebound for the driver in use.
func Query(text string, args ...interface{}) Statement {
	return rawStatement{text: text, args: args}
}

type builderStatement struct {
	b Sqlizer
}

func (s builderStatement) compile() (compiled, error) {
	if s.b == nil {
		return compiled{}, errNilBuilder
	}

	text, args, err := s.b.ToSql()
	if err != nil {
		return compiled{}, fmt.Errorf("build statement: %w", err)
	}

	return rawStatement{text: text, args: args}.compile()
}

// Builder declares a statement rendered by a query builder.
func Builder(b Sqlizer) Statement {
	return builderStatement{b: b}
}

type funcStatement struct {
	name string
	fn   TxFunc
}

func (s funcStatement) compile() (compiled, error) {
	name := strings.TrimSpace(s.name)
	if name == "" || s.fn == nil {
		return compiled{}, errInvalidFunc
	}

	return compiled{name: name, fn: s.fn}, nil
}

// Func declares a Go migration step identified by name in the history table.
func Func(name string, fn TxFunc) Statement {
	return funcStatement{name: name, fn: fn}
}
