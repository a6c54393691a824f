// Package storage holds the process-wide table registry and the tables it
// owns. Sessions borrow table handles from the registry; the registry owns
// them for the process lifetime.
package storage

import (
	"sync"

	"github.com/kvstack/tablestore/kv/kverrors"
	"github.com/kvstack/tablestore/protocol"
)

// Registry maps table names to tables under its own mutex. The registry
// mutex is never held while acquiring or waiting on a table lock: callers
// look a handle up, the registry releases its mutex, and only then is the
// table locked. That discipline keeps the registry out of any lock cycle.
type Registry struct {
	mu     sync.Mutex
	tables map[string]*Table
}

func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]*Table)}
}

// CreateTable inserts a fresh empty table under name.
func (r *Registry) CreateTable(name string) error {
	if !protocol.IsIdentifier(name) {
		return kverrors.NewOperationError("invalid table name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[name]; ok {
		return kverrors.NewOperationError("table exists")
	}
	r.tables[name] = NewTable(name)
	return nil
}

// FindTable returns the table's stable handle, or nil if no such table. The
// handle remains valid for the process lifetime.
func (r *Registry) FindTable(name string) *Table {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tables[name]
}
