package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	newTracker := func(ttl time.Duration) (*Tracker, *time.Time) {
		cur := now
		tr := NewTracker(ttl)
		tr.SetClock(func() time.Time { return cur })
		return tr, &cur
	}

	t.Run("heartbeat keeps a player online until the ttl lapses", func(t *testing.T) {
		tr, cur := newTracker(10 * time.Second)
		tr.Heartbeat("g1", "alice")
		assert.ElementsMatch(t, []string{"alice"}, tr.Online("g1"))

		*cur = cur.Add(9 * time.Second)
		assert.ElementsMatch(t, []string{"alice"}, tr.Online("g1"))

		*cur = cur.Add(2 * time.Second)
		assert.Empty(t, tr.Online("g1"))
	})

	t.Run("a fresh heartbeat extends the window", func(t *testing.T) {
		tr, cur := newTracker(10 * time.Second)
		tr.Heartbeat("g1", "alice")
		*cur = cur.Add(8 * time.Second)
		tr.Heartbeat("g1", "alice")
		*cur = cur.Add(8 * time.Second)
		assert.ElementsMatch(t, []string{"alice"}, tr.Online("g1"))
	})

	t.Run("forget drops a player immediately", func(t *testing.T) {
		tr, _ := newTracker(10 * time.Second)
		tr.Heartbeat("g1", "alice")
		tr.Heartbeat("g1", "bob")
		tr.Forget("g1", "alice")
		assert.ElementsMatch(t, []string{"bob"}, tr.Online("g1"))
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		tr, _ := newTracker(10 * time.Second)
		tr.Heartbeat("g1", "alice")
		assert.Empty(t, tr.Online("g2"))
	})

	t.Run("sweep prunes expired heartbeats", func(t *testing.T) {
		tr, cur := newTracker(10 * time.Second)
		tr.Heartbeat("g1", "alice")
		*cur = cur.Add(time.Minute)
		tr.Heartbeat("g1", "bob")
		tr.Sweep()
		assert.ElementsMatch(t, []string{"bob"}, tr.Online("g1"))
	})
}
