package docstore

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSQLite opens an in-memory database with the sessions schema from
// sql/002_sessions.sql. One connection only: each sqlite :memory: connection
// is its own database.
func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE sessions (
		id         TEXT PRIMARY KEY,
		version    INTEGER NOT NULL,
		doc        TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`)
	require.NoError(t, err)
	return NewSQLite(db)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create then get round-trips the document", func(t *testing.T) {
		st := newTestSQLite(t)
		snap, err := st.Create(ctx, newDoc("g1"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), snap.Version)

		got, err := st.Get(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Version)
		assert.Equal(t, "g1", got.Session.ID)
		assert.Equal(t, []string{"alice", "bob"}, got.Session.Players)
	})

	t.Run("duplicate create rejected", func(t *testing.T) {
		st := newTestSQLite(t)
		_, err := st.Create(ctx, newDoc("g1"))
		require.NoError(t, err)
		_, err = st.Create(ctx, newDoc("g1"))
		assert.ErrorIs(t, err, ErrExists)
	})

	t.Run("commit enforces compare-and-swap", func(t *testing.T) {
		st := newTestSQLite(t)
		_, err := st.Create(ctx, newDoc("g1"))
		require.NoError(t, err)

		a, err := st.Get(ctx, "g1")
		require.NoError(t, err)
		b, err := st.Get(ctx, "g1")
		require.NoError(t, err)

		a.Session.EndedBy = "writer-a"
		committed, err := st.Commit(ctx, "g1", a.Version, a.Session)
		require.NoError(t, err)
		assert.Equal(t, int64(2), committed.Version)

		b.Session.EndedBy = "writer-b"
		_, err = st.Commit(ctx, "g1", b.Version, b.Session)
		assert.ErrorIs(t, err, ErrConflict)

		got, err := st.Get(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, "writer-a", got.Session.EndedBy)
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("commit to a missing session is not-found, not conflict", func(t *testing.T) {
		st := newTestSQLite(t)
		_, err := st.Commit(ctx, "ghost", 1, newDoc("ghost"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("watch delivers the latest committed snapshot", func(t *testing.T) {
		st := newTestSQLite(t)
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

	t.Run("delete", func(t *testing.T) {
		st := newTestSQLite(t)
		_, err := st.Create(ctx, newDoc("g1"))
		require.NoError(t, err)
		require.NoError(t, st.Delete(ctx, "g1"))
		_, err = st.Get(ctx, "g1")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, st.Delete(ctx, "g1"), ErrNotFound)
	})
}
