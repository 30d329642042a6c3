// internal/docstore/memory.go
//
// In-memory implementation of the Store interface.
// This is a lightweight persistence layer used for ephemeral sessions,
// primarily in development/testing, or when durability is not required.
//
// Characteristics:
//   - Documents keyed by ID in a map, deep-cloned on every read and write so
//     callers never share mutable state with the store.
//   - Concurrency-safe via RWMutex.
//   - Versions increase by one per commit; Commit enforces compare-and-swap.
//   - State is lost when the process restarts.

package docstore

import (
	"context"
	"sync"

	"github.com/mworrall/wordduel/internal/session"
)

type memoryRecord struct {
	doc     *session.Session
	version int64
}

// Memory is the in-memory map-based Store implementation.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*memoryRecord
	notify   *notifier
}

// NewMemory constructs an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]*memoryRecord),
		notify:   newNotifier(),
	}
}

func (m *Memory) Create(ctx context.Context, s *session.Session) (Snapshot, error) {
	m.mu.Lock()
	if _, ok := m.sessions[s.ID]; ok {
		m.mu.Unlock()
		return Snapshot{}, ErrExists
	}
	rec := &memoryRecord{doc: s.Clone(), version: 1}
	m.sessions[s.ID] = rec
	snap := Snapshot{Session: rec.doc.Clone(), Version: rec.version}
	m.mu.Unlock()

	m.notify.publish(s.ID, snap)
	return snap, nil
}

func (m *Memory) Get(ctx context.Context, id string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.sessions[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return Snapshot{Session: rec.doc.Clone(), Version: rec.version}, nil
}

func (m *Memory) Commit(ctx context.Context, id string, expect int64, s *session.Session) (Snapshot, error) {
	m.mu.Lock()
	rec, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return Snapshot{}, ErrNotFound
	}
	if rec.version != expect {
		m.mu.Unlock()
		return Snapshot{}, ErrConflict
	}
	rec.doc = s.Clone()
	rec.version++
	snap := Snapshot{Session: rec.doc.Clone(), Version: rec.version}
	m.mu.Unlock()

	m.notify.publish(id, snap)
	return snap, nil
}

func (m *Memory) Watch(id string) (<-chan Snapshot, func()) {
	return m.notify.watch(id)
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}
