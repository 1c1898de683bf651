package multidb

import (
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
)

// MultiDB holds one connection pool per configured database label.
type MultiDB interface {
	GetSqlx(driver Driver, key string) (*sqlx.DB, error)
	io.Closer
}

// Closer is an io.Closer that knows which database label it belongs to.
type Closer interface {
	io.Closer

	String() string
}

type namedCloser struct {
	name   string
	closer io.Closer
}

var _ Closer = (*namedCloser)(nil)

func newNamedCloser(name string, closer io.Closer) *namedCloser {
	return &namedCloser{
		name:   name,
		closer: closer,
	}
}

func (d *namedCloser) Close() error {
	if err := d.closer.Close(); err != nil {
		return fmt.Errorf("close db '%s': %w", d.name, err)
	}

	return nil
}

func (d *namedCloser) String() string {
	return d.name
}
