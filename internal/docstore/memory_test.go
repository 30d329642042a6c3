package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mworrall/wordduel/internal/session"
)

func newDoc(id string) *session.Session {
	return &session.Session{
		ID:      id,
		Players: []string{"alice", "bob"},
		Status:  session.StatusInProgress,
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create then get", func(t *testing.T) {
		st := NewMemory()
		snap, err := st.Create(ctx, newDoc("g1"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), snap.Version)

		got, err := st.Get(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, "g1", got.Session.ID)
	})

	t.Run("duplicate create rejected", func(t *testing.T) {
		st := NewMemory()
		_, err := st.Create(ctx, newDoc("g1"))
		require.NoError(t, err)
		_, err = st.Create(ctx, newDoc("g1"))
		assert.ErrorIs(t, err, ErrExists)
	})

	t.Run("commit enforces compare-and-swap", func(t *testing.T) {
		st := NewMemory()
		_, err := st.Create(ctx, newDoc("g1"))
		require.NoError(t, err)

		a, err := st.Get(ctx, "g1")
		require.NoError(t, err)
		b, err := st.Get(ctx, "g1")
		require.NoError(t, err)

		// Writer A lands first.
		a.Session.EndedBy = "writer-a"
		committed, err := st.Commit(ctx, "g1", a.Version, a.Session)
		require.NoError(t, err)
		assert.Equal(t, int64(2), committed.Version)

		// Writer B holds a stale version and must conflict.
		b.Session.EndedBy = "writer-b"
		_, err = st.Commit(ctx, "g1", b.Version, b.Session)
		assert.ErrorIs(t, err, ErrConflict)

		got, err := st.Get(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, "writer-a", got.Session.EndedBy)
	})

	t.Run("reads do not alias store state", func(t *testing.T) {
		st := NewMemory()
		_, err := st.Create(ctx, newDoc("g1"))
		require.NoError(t, err)

		snap, err := st.Get(ctx, "g1")
		require.NoError(t, err)
		snap.Session.Players[0] = "mutated"

		fresh, err := st.Get(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, "alice", fresh.Session.Players[0])
	})

	t.Run("watch delivers the latest committed snapshot", func(t *testing.T) {
		st := NewMemory()
		_, err := st.Create(ctx, newDoc("g1"))
		require.NoError(t, err)

		updates, cancel := st.Watch("g1")
		defer cancel()

		snap, err := st.Get(ctx, "g1")
		require.NoError(t, err)
		snap.Session.EndedBy = "first"
		_, err = st.Commit(ctx, "g1", snap.Version, snap.Session)
		require.NoError(t, err)

		got := <-updates
		assert.Equal(t, "first", got.Session.EndedBy)
	})

	t.Run("missing session", func(t *testing.T) {
		st := NewMemory()
		_, err := st.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		err = st.Delete(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
