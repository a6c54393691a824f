package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvstack/tablestore/kv/kverrors"
)

// withLock holds the table's lock for the duration of body, the way a
// session does for one autocommit command.
func withLock(t *Table, body func()) {
	t.Lock()
	defer t.Unlock()
	body()
}

func TestTableSetGet(t *testing.T) {
	tbl := NewTable("accounts")
	assert.Equal(t, "accounts", tbl.Name())

	withLock(tbl, func() {
		tbl.Set("balance", "100")

		v, err := tbl.Get("balance")
		require.NoError(t, err)
		assert.Equal(t, "100", v)
		assert.True(t, tbl.HasKey("balance"))

		_, err = tbl.Get("missing")
		require.Error(t, err)
		_, ok := err.(*kverrors.OperationError)
		assert.True(t, ok)
		assert.Equal(t, "no such key", err.Error())
	})
}

func TestTableRollbackDiscardsTentative(t *testing.T) {
	tbl := NewTable("t")
	withLock(tbl, func() {
		tbl.Set("k", "v1")
		tbl.Commit()

		tbl.Set("k", "v2")
		tbl.Set("other", "x")
		tbl.Rollback()

		v, err := tbl.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "v1", v)
		assert.False(t, tbl.HasKey("other"))
	})
}

func TestTableCommitSurvivesRollback(t *testing.T) {
	tbl := NewTable("t")
	withLock(tbl, func() {
		tbl.Set("k", "v")
		tbl.Commit()
		tbl.Rollback()

		v, err := tbl.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "v", v)
	})
}

func TestTableTentativeShadowsCommitted(t *testing.T) {
	tbl := NewTable("t")
	withLock(tbl, func() {
		tbl.Set("k", "old")
		tbl.Commit()

		tbl.Set("k", "new")
		v, err := tbl.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "new", v)

		tbl.Rollback()
		v, err = tbl.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "old", v)
	})
}

func TestTableEmptyValueIsNotADelete(t *testing.T) {
	tbl := NewTable("t")
	withLock(tbl, func() {
		tbl.Set("k", "v")
		tbl.Commit()

		tbl.Set("k", "")
		tbl.Commit()

		v, err := tbl.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "", v)
		assert.True(t, tbl.HasKey("k"))
	})
}

func TestTableTryLock(t *testing.T) {
	tbl := NewTable("t")

	assert.True(t, tbl.TryLock())
	assert.False(t, tbl.TryLock())
	tbl.Unlock()
	assert.True(t, tbl.TryLock())
	tbl.Unlock()
}
