// internal/presence/presence.go
//
// Heartbeat-TTL presence tracking, independent of the session document.
// Connectivity is best-effort and ephemeral: it never participates in the
// authoritative transition logic directly, it only feeds the presence
// monitor which proposes transitions through the docstore.

package presence

import (
	"sync"
	"time"
)

// DefaultTTL is how long a heartbeat keeps a player counted as online.
const DefaultTTL = 15 * time.Second

// Tracker records the last heartbeat per (session, player).
type Tracker struct {
	mu    sync.RWMutex
	ttl   time.Duration
	beats map[string]map[string]time.Time
	clock func() time.Time
}

// NewTracker constructs a Tracker with the given TTL (DefaultTTL if zero).
func NewTracker(ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tracker{
		ttl:   ttl,
		beats: make(map[string]map[string]time.Time),
		clock: time.Now,
	}
}

// SetClock overrides the time source (tests).
func (t *Tracker) SetClock(clock func() time.Time) { t.clock = clock }

// Heartbeat marks playerID online in sessionID until the TTL lapses.
func (t *Tracker) Heartbeat(sessionID, playerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.beats[sessionID] == nil {
		t.beats[sessionID] = make(map[string]time.Time)
	}
	t.beats[sessionID][playerID] = t.clock()
}

// Forget drops a player immediately (explicit disconnect), without waiting
// for the TTL to lapse.
func (t *Tracker) Forget(sessionID, playerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if set, ok := t.beats[sessionID]; ok {
		delete(set, playerID)
		if len(set) == 0 {
			delete(t.beats, sessionID)
		}
	}
}

// Online returns the players of sessionID with a live heartbeat.
func (t *Tracker) Online(sessionID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cutoff := t.clock().Add(-t.ttl)
	var out []string
	for id, at := range t.beats[sessionID] {
		if at.After(cutoff) {
			out = append(out, id)
		}
	}
	return out
}

// Sweep prunes expired heartbeats. Run periodically so the map does not grow
// with long-dead sessions.
func (t *Tracker) Sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.clock().Add(-t.ttl)
	for sid, set := range t.beats {
		for pid, at := range set {
			if !at.After(cutoff) {
				delete(set, pid)
			}
		}
		if len(set) == 0 {
			delete(t.beats, sid)
		}
	}
}
