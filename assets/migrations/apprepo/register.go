// Package apprepo declares the schema of the application repository: apps and their FCM credentials.
package apprepo

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/yusufsyaifudin/versi/pkg/migration"
)

// Register declares every app repository migration for dialect into reg.
func Register(reg *migration.Registry, dialect migration.Dialect) error {
	var declarations []migration.Declaration
	switch dialect {
	case migration.Postgres:
		declarations = postgres()
	case migration.Sqlite:
		declarations = sqlite()
	default:
		return fmt.Errorf("app repository has no migrations for dialect %s", dialect)
	}

	for _, d := range declarations {
		if err := reg.Declare(d); err != nil {
			return fmt.Errorf("app repository migration %d: %w", d.Version, err)
		}
	}

	return nil
}

// seedDefaultApp is shared by every dialect, the builder renders '?' placeholders that are rebound on apply.
func seedDefaultApp() migration.Statement {
	return migration.Builder(
		sq.Insert("apps").
			Columns("client_id", "name", "enabled").
			Values("default", "Default App", true),
	)
}
