package migration

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/segmentio/encoding/json"
	"github.com/yusufsyaifudin/versi/pkg/validator"
)

// Declaration is the shape of a registration call.
type Declaration struct {
	Version    int         `validate:"gt=0"`
	Comment    string      `validate:"-"`
	Statements []Statement `validate:"required,min=1,dive,required"`
}

// Migration is one immutable, versioned schema change. Build it with Registry.Declare or Compile.
type Migration struct {
	Version int
	Comment string

	statements []compiled
	serialized string
}

// Compile validates a declaration and resolves all of its statements.
func Compile(d Declaration) (Migration, error) {
	err := validator.Validate(d)
	if err != nil {
		return Migration{}, &MalformedSpecError{Version: d.Version, Err: err}
	}

	statements := make([]compiled, 0, len(d.Statements))
	entries := make([]entry, 0, len(d.Statements))
	for i, s := range d.Statements {
		c, err := s.compile()
		if err != nil {
			return Migration{}, &MalformedSpecError{
				Version: d.Version,
				Err:     fmt.Errorf("statement #%d: %w", i, err),
			}
		}

		statements = append(statements, c)
		entries = append(entries, c.entry())
	}

	serialized, err := json.Marshal(entries)
	if err != nil {
		return Migration{}, &MalformedSpecError{
			Version: d.Version,
			Err:     fmt.Errorf("serialize statements: %w", err),
		}
	}

	return Migration{
		Version:    d.Version,
		Comment:    d.Comment,
		statements: statements,
		serialized: string(serialized),
	}, nil
}

// Statements return the textual form of each statement, in execution order.
func (m Migration) Statements() []string {
	out := make([]string, 0, len(m.statements))
	for _, s := range m.statements {
		out = append(out, s.String())
	}

	return out
}

// Serialized is the statement list as it is written into the history table.
func (m Migration) Serialized() string {
	return m.serialized
}

// Checksum fingerprints the statements. Identity is the version; this is only an integrity aid.
func (m Migration) Checksum() string {
	return checksum(m.serialized)
}

func checksum(serialized string) string {
	sum := sha256.Sum256([]byte(serialized))
	return hex.EncodeToString(sum[:])
}
