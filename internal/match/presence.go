// internal/match/presence.go
//
// Disconnect-draw monitoring. Connectivity comes from the heartbeat tracker,
// independent of the session document. While the set of online participants
// is a strict, non-empty subset of all participants, a grace countdown runs;
// if full connectivity is not restored before it elapses, the match
// completes as a system-initiated draw.
//
// The countdown itself is local to each observing client. Only its effect,
// the completion write, goes through compare-and-swap, so exactly one of
// the racing observers commits it.
package match

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/mworrall/wordduel/internal/session"
)

// monitorPresence reconciles the document's active-player set with live
// heartbeats and applies the disconnect-draw transition when the grace
// window has elapsed. Returns whether the document changed.
func (m *Machine) monitorPresence(s *session.Session, now time.Time) bool {
	if !s.IsMultiplayer() || s.Status != session.StatusInProgress {
		m.clearGrace(s.ID)
		return false
	}

	online := lo.Intersect(s.Players, m.presence.Online(s.ID))
	changed := false
	if !sameMembers(s.ActivePlayers, online) {
		s.ActivePlayers = online
		changed = true
	}

	partial := len(online) > 0 && len(online) < len(s.Players)
	if !partial {
		// Full connectivity restored (or everyone gone, which the
		// inactivity timer handles): cancel any pending countdown.
		m.clearGrace(s.ID)
		return changed
	}

	deadline := m.graceDeadline(s.ID, now)
	if now.Before(deadline) {
		return changed
	}
	s.ActivePlayers = online
	m.complete(s, "", session.EndSystemDisconnect, now)
	return true
}

// graceDeadline returns the running countdown deadline for a session,
// starting one now if none is pending.
func (m *Machine) graceDeadline(sessionID string, now time.Time) time.Time {
	m.graceMu.Lock()
	defer m.graceMu.Unlock()
	if d, ok := m.grace[sessionID]; ok {
		return d
	}
	d := now.Add(m.cfg.DisconnectGrace)
	m.grace[sessionID] = d
	return d
}

func (m *Machine) clearGrace(sessionID string) {
	m.graceMu.Lock()
	defer m.graceMu.Unlock()
	delete(m.grace, sessionID)
}

// sameMembers compares two player sets ignoring order.
func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
