package migration

import (
	"sort"
	"sync"
)

// Registry holds declared migrations keyed by version.
// Declaring the same version twice keeps the last declaration.
type Registry struct {
	mu         sync.RWMutex
	migrations map[int]Migration
}

func NewRegistry() *Registry {
	return &Registry{
		migrations: make(map[int]Migration),
	}
}

// Declare compiles d and stores it. It does not touch the database.
func (r *Registry) Declare(d Declaration) error {
	m, err := Compile(d)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.migrations[m.Version] = m
	r.mu.Unlock()
	return nil
}

// Register declares a migration from its version, its statements in execution order and a comment.
func (r *Registry) Register(version int, statements []Statement, comment string) error {
	return r.Declare(Declaration{
		Version:    version,
		Comment:    comment,
		Statements: statements,
	})
}

// MustRegister is like Register but panics on a malformed declaration. Meant for init functions.
func (r *Registry) MustRegister(version int, statements []Statement, comment string) {
	if err := r.Register(version, statements, comment); err != nil {
		panic(err)
	}
}

func (r *Registry) Get(version int) (Migration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.migrations[version]
	return m, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.migrations)
}

// All returns every declared migration sorted by version.
func (r *Registry) All() []Migration {
	return r.NewerThan(-1)
}

// NewerThan returns the migrations with a version greater than current, sorted ascending.
func (r *Registry) NewerThan(current int) []Migration {
	r.mu.RLock()
	result := make([]Migration, 0, len(r.migrations))
	for v, m := range r.migrations {
		if v > current {
			result = append(result, m)
		}
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Version < result[j].Version
	})

	return result
}
