package storage

import (
	"sync"

	"github.com/google/btree"

	"github.com/kvstack/tablestore/kv/kverrors"
)

const committedTreeDegree = 32

// kvItem is one committed key/value pair, ordered by key.
type kvItem struct {
	key   string
	value string
}

func (it kvItem) Less(than btree.Item) bool {
	return it.key < than.(kvItem).key
}

// Table holds one named keyspace: a committed tree of durable entries plus a
// tentative overlay of writes pending under the current lock holder's
// transaction. The exclusive mutex is the sole license to touch either; all
// data operations require the caller to hold it. Tables live for the process
// lifetime and are never renamed or dropped.
type Table struct {
	name string

	mu        sync.Mutex
	committed *btree.BTree
	tentative map[string]string
}

func NewTable(name string) *Table {
	return &Table{
		name:      name,
		committed: btree.New(committedTreeDegree),
		tentative: make(map[string]string),
	}
}

func (t *Table) Name() string {
	return t.name
}

// Lock acquires the table's exclusive lock, blocking until available.
func (t *Table) Lock() {
	t.mu.Lock()
}

// TryLock attempts the lock without blocking and reports whether it was
// acquired. Transactions use this so that no session ever waits on another
// session's lock.
func (t *Table) TryLock() bool {
	return t.mu.TryLock()
}

func (t *Table) Unlock() {
	t.mu.Unlock()
}

// Set records a tentative write. It becomes durable only on Commit.
func (t *Table) Set(key, value string) {
	t.tentative[key] = value
}

// Get returns the tentative value for key if one is pending, else the
// committed value.
func (t *Table) Get(key string) (string, error) {
	if v, ok := t.tentative[key]; ok {
		return v, nil
	}
	if it := t.committed.Get(kvItem{key: key}); it != nil {
		return it.(kvItem).value, nil
	}
	return "", kverrors.NewOperationError("no such key")
}

// HasKey reports whether key is present in either the overlay or the
// committed tree.
func (t *Table) HasKey(key string) bool {
	if _, ok := t.tentative[key]; ok {
		return true
	}
	return t.committed.Get(kvItem{key: key}) != nil
}

// Commit folds every tentative write into the committed tree and clears the
// overlay. An empty string is an ordinary value, not a delete marker.
func (t *Table) Commit() {
	for k, v := range t.tentative {
		t.committed.ReplaceOrInsert(kvItem{key: k, value: v})
	}
	t.tentative = make(map[string]string)
}

// Rollback discards every tentative write.
func (t *Table) Rollback() {
	t.tentative = make(map[string]string)
}
