// internal/docstore/docstore.go
//
// Transactional session-document store contract.
// Responsibilities:
//   - Versioned reads: every Get returns the document plus its version.
//   - Compare-and-swap writes: Commit only applies if the caller still holds
//     the latest version, otherwise ErrConflict.
//   - Change feed: Watch delivers at-least-once snapshots after each commit.
//
// There is no single serializing process above this store; every connected
// client runs the same transition logic and races through Commit. The retry
// loop on conflict belongs to the caller (the state machine), not here.

package docstore

import (
	"context"
	"errors"

	"github.com/mworrall/wordduel/internal/session"
)

var (
	ErrNotFound = errors.New("docstore: session not found")
	ErrConflict = errors.New("docstore: version conflict")
	ErrExists   = errors.New("docstore: session already exists")
)

// Snapshot is a point-in-time read of a session document.
type Snapshot struct {
	Session *session.Session
	Version int64
}

// Store is the persistence interface for session documents.
// Implementations may be backed by memory (development, tests) or SQLite.
type Store interface {
	// Create inserts a new document at version 1.
	Create(ctx context.Context, s *session.Session) (Snapshot, error)

	// Get returns the current document and version.
	Get(ctx context.Context, id string) (Snapshot, error)

	// Commit writes s if the stored version still equals expect.
	// Returns ErrConflict when another writer landed first.
	Commit(ctx context.Context, id string, expect int64, s *session.Session) (Snapshot, error)

	// Watch subscribes to commits for a session. Delivery is at-least-once;
	// slow consumers observe the latest snapshot, not every intermediate one.
	Watch(id string) (<-chan Snapshot, func())

	// Delete removes a document (cleanup of long-dead sessions).
	Delete(ctx context.Context, id string) error
}
