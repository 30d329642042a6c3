// internal/docstore/sqlite.go
//
// SQLite-backed implementation of the Store interface.
// The session document is stored as a JSON blob next to an integer version
// column; compare-and-swap is an UPDATE guarded by `AND version=?`, so a
// racing writer sees zero affected rows and gets ErrConflict.
//
// Change notification is in-process only: commits through this store fan out
// to local watchers. Multi-process deployments would need an external feed.

package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mworrall/wordduel/internal/session"
)

// SQLite persists session documents in the `sessions` table.
type SQLite struct {
	db     *sql.DB
	notify *notifier
}

// NewSQLite wraps an opened database. The sessions table comes from the
// sql/ migrations applied at startup.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db, notify: newNotifier()}
}

func (s *SQLite) Create(ctx context.Context, doc *session.Session) (Snapshot, error) {
	blob, err := json.Marshal(doc)
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshal session: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, version, doc, updated_at) VALUES (?,1,?,?)`,
		doc.ID, string(blob), now)
	if err != nil {
		// UNIQUE violation on the primary key means the id is taken.
		var exists int
		if qerr := s.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id=?`, doc.ID).Scan(&exists); qerr == nil {
			return Snapshot{}, ErrExists
		}
		return Snapshot{}, err
	}
	snap := Snapshot{Session: doc.Clone(), Version: 1}
	s.notify.publish(doc.ID, snap)
	return snap, nil
}

func (s *SQLite) Get(ctx context.Context, id string) (Snapshot, error) {
	var blob string
	var version int64
	err := s.db.QueryRowContext(ctx,
		`SELECT doc, version FROM sessions WHERE id=?`, id).Scan(&blob, &version)
	if err == sql.ErrNoRows {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	var doc session.Session
	if err := json.Unmarshal([]byte(blob), &doc); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return Snapshot{Session: &doc, Version: version}, nil
}

func (s *SQLite) Commit(ctx context.Context, id string, expect int64, doc *session.Session) (Snapshot, error) {
	blob, err := json.Marshal(doc)
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshal session: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET doc=?, version=version+1, updated_at=? WHERE id=? AND version=?`,
		string(blob), now, id, expect)
	if err != nil {
		return Snapshot{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Snapshot{}, err
	}
	if n == 0 {
		// Either the row is gone or another writer bumped the version.
		var exists int
		if qerr := s.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id=?`, id).Scan(&exists); qerr == sql.ErrNoRows {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, ErrConflict
	}
	snap := Snapshot{Session: doc.Clone(), Version: expect + 1}
	s.notify.publish(id, snap)
	return snap, nil
}

func (s *SQLite) Watch(id string) (<-chan Snapshot, func()) {
	return s.notify.watch(id)
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
