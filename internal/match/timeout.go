// internal/match/timeout.go
//
// Supervisory tick: deadline expiry and leader duties. Every connected
// client runs Tick periodically against its own wall clock; all proposed
// transitions go through the same compare-and-swap discipline as commands,
// so the first client whose transaction lands wins and later duplicate
// proposals no-op on the stale precondition.
package match

import (
	"context"
	"time"

	"github.com/mworrall/wordduel/internal/docstore"
	"github.com/mworrall/wordduel/internal/session"
	"github.com/mworrall/wordduel/internal/turn"
)

// Tick runs one supervisory pass over sessionID on behalf of asPlayerID.
// Not user-invoked: the websocket loop drives it for each connected client.
func (m *Machine) Tick(ctx context.Context, sessionID, asPlayerID string, now time.Time) (docstore.Snapshot, error) {
	snap, err := m.transact(ctx, sessionID, func(s *session.Session) (bool, error) {
		return m.supervise(s, asPlayerID, now), nil
	})
	if err != nil {
		return snap, err
	}
	// Rematch creation is an external side effect, performed outside the
	// document transaction by the elected leader only.
	if err := m.maybeCreateRematch(ctx, snap.Session, asPlayerID); err != nil {
		m.log.Warn().Err(err).Str("session", sessionID).Msg("rematch side effect")
	}
	return snap, nil
}

// supervise applies every due timer/presence/vote transition to the draft
// document and reports whether anything changed.
func (m *Machine) supervise(s *session.Session, asPlayerID string, now time.Time) bool {
	switch s.Status {
	case session.StatusCompleted:
		return false

	case session.StatusWaiting:
		// A lobby that never started and lost all its players closes after
		// the grace window.
		if due(s.LobbyClosesAt, now) && len(m.presence.Online(s.ID)) == 0 {
			m.complete(s, "", session.EndLobbyExpired, now)
			return true
		}
		return false
	}

	// in_progress from here on.
	if err := s.CheckInvariants(); err != nil {
		m.complete(s, "", session.EndError, now)
		return true
	}

	// Hard stop: absolute ceiling from match start, overriding every other
	// timer and any in-progress sub-state.
	if due(s.MatchHardStopAt, now) {
		m.complete(s, "", session.EndHardStop, now)
		return true
	}
	if due(s.InactivityClosesAt, now) {
		m.complete(s, "", session.EndInactivity, now)
		return true
	}
	if due(s.MatchDeadline, now) {
		m.complete(s, "", session.EndMatchTimeout, now)
		return true
	}

	changed := false

	// Round deadline: the active PvP round ends with no winner.
	if due(s.RoundDeadline, now) && s.IsPvP() && s.Match != nil && !s.Match.RoundOver {
		m.concludeRound(s, "")
		changed = true
	}

	// Turn deadline: the current player forfeits the turn. In PvP that is a
	// round loss, not a match loss; in co-op rotation simply moves on.
	if due(s.TurnDeadline, now) && s.CurrentTurnPlayerID != "" {
		if s.IsPvP() && s.Match != nil {
			winner := ""
			if opps := s.Opponents(s.CurrentTurnPlayerID); len(opps) == 1 {
				winner = opps[0]
			}
			m.concludeRound(s, winner)
		} else {
			s.CurrentTurnPlayerID = turn.Next(s.TurnOrder, s.CurrentTurnPlayerID)
			t := now
			s.TurnStartedAt = &t
			td := now.Add(m.cfg.TurnTimeout)
			s.TurnDeadline = &td
		}
		changed = true
	}

	if m.monitorPresence(s, now) {
		changed = true
	}
	if s.Status == session.StatusCompleted {
		return true
	}

	// Re-check the end vote: the electorate may have shrunk since the last
	// vote arrived (a voter stayed, a non-voter dropped).
	if endVoteCarried(s) {
		m.complete(s, "", session.EndMutual, now)
		return true
	}

	// Leader duty: advance a resolved round once the vote carried, or
	// immediately when the advance would end the match anyway.
	if s.IsPvP() && s.Match != nil && s.Match.RoundOver && asPlayerID == s.LeaderID() {
		if nextRoundCarried(s) || advanceWouldComplete(s.Match) {
			advanced, err := m.advanceRound(s, s.Match.CurrentRound, now)
			if err != nil {
				m.log.Warn().Err(err).Str("session", s.ID).Msg("round advance")
			} else if advanced {
				changed = true
			}
		}
	}

	return changed
}

// due reports whether a deadline exists and has passed.
func due(t *time.Time, now time.Time) bool {
	return t != nil && !now.Before(*t)
}
