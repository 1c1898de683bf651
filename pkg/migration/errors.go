package migration

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedSpec is returned when a migration declaration is invalid. It never reaches the database.
	ErrMalformedSpec = errors.New("malformed migration declaration")

	// ErrStoreUninitialized is returned when the history table does not exist or has no rows.
	// Bootstrap must run first.
	ErrStoreUninitialized = errors.New("migration history is not initialized")

	// ErrOutOfSyncVersion is returned when a migration is not exactly one version past the current one.
	ErrOutOfSyncVersion = errors.New("migration version is out of sync")

	// ErrStatementExecution is returned when a statement of a migration fails. The migration is rolled back.
	ErrStatementExecution = errors.New("migration statement failed")
)

// MalformedSpecError carries the version of the rejected declaration.
type MalformedSpecError struct {
	Version int
	Err     error
}

func (e *MalformedSpecError) Error() string {
	return fmt.Sprintf("%s (version %d): %v", ErrMalformedSpec, e.Version, e.Err)
}

func (e *MalformedSpecError) Unwrap() error {
	return e.Err
}

func (e *MalformedSpecError) Is(target error) bool {
	return target == ErrMalformedSpec
}

// OutOfSyncError reports the rejected migration version and the current version of the database.
type OutOfSyncError struct {
	Version int
	Current int
}

func (e *OutOfSyncError) Error() string {
	return fmt.Sprintf("%s: migration %d cannot follow current version %d", ErrOutOfSyncVersion, e.Version, e.Current)
}

func (e *OutOfSyncError) Is(target error) bool {
	return target == ErrOutOfSyncVersion
}

// StatementError reports which statement of which migration failed.
type StatementError struct {
	Version   int
	Index     int
	Statement string
	Err       error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("%s: migration %d statement #%d: %v", ErrStatementExecution, e.Version, e.Index, e.Err)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

func (e *StatementError) Is(target error) bool {
	return target == ErrStatementExecution
}
