// internal/match/votes.go
//
// Vote coordination: end-match, rematch, and next-round votes. Each vote set
// lives in the shared document; the transition the set gates fires once the
// set covers the required players, and the set is cleared whenever the gated
// event actually occurs.
//
// Side effects with an external footprint (creating the rematch session)
// are performed only by the elected leader; everyone else follows the
// rematchGameId pointer the leader writes.
package match

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/mworrall/wordduel/internal/docstore"
	"github.com/mworrall/wordduel/internal/session"
)

// VoteEndMatch toggles the caller's end-match vote. Once every active player
// has voted, the match completes as a mutual draw, regardless of the order
// the individual votes arrived in.
func (m *Machine) VoteEndMatch(ctx context.Context, sessionID, playerID string) (docstore.Snapshot, error) {
	now := m.now()
	return m.transact(ctx, sessionID, func(s *session.Session) (bool, error) {
		if s.Status != session.StatusInProgress {
			if s.Status == session.StatusCompleted {
				return false, ErrCompleted
			}
			return false, ErrNotStarted
		}
		if !s.HasPlayer(playerID) {
			return false, ErrNotParticipant
		}
		s.EndVotes = session.ToggleVote(s.EndVotes, playerID)
		// Refresh the electorate from live heartbeats so the vote does not
		// wait on players who already dropped.
		if online := lo.Intersect(s.Players, m.presence.Online(s.ID)); len(online) > 0 && !sameMembers(s.ActivePlayers, online) {
			s.ActivePlayers = online
		}
		if endVoteCarried(s) {
			m.complete(s, "", session.EndMutual, now)
		}
		return true, nil
	})
}

// endVoteCarried reports whether every active player has voted to end.
// Single-player sessions carry immediately on the lone vote.
func endVoteCarried(s *session.Session) bool {
	if len(s.EndVotes) == 0 {
		return false
	}
	electorate := s.ActivePlayers
	if len(electorate) == 0 {
		electorate = s.Players
	}
	return lo.Every(s.EndVotes, electorate)
}

// VoteRematch records the caller's rematch vote on a completed session.
// When the set reaches the full player count (immediately for solo), the
// elected leader creates the new session and writes the rematchGameId
// pointer all other clients follow.
func (m *Machine) VoteRematch(ctx context.Context, sessionID, playerID string) (docstore.Snapshot, error) {
	snap, err := m.transact(ctx, sessionID, func(s *session.Session) (bool, error) {
		if !s.HasPlayer(playerID) {
			return false, ErrNotParticipant
		}
		if s.Status != session.StatusCompleted {
			return false, ErrNotStarted
		}
		if s.RematchGameID != "" {
			// Rematch already exists; the vote is moot.
			return false, nil
		}
		votes, changed := session.AddVote(s.RematchVotes, playerID)
		s.RematchVotes = votes
		return changed, nil
	})
	if err != nil {
		return snap, err
	}
	// The caller may now be the elected actor for the side effect.
	if err := m.maybeCreateRematch(ctx, snap.Session, playerID); err != nil {
		return snap, err
	}
	return m.store.Get(ctx, sessionID)
}

// rematchCarried reports whether every participant voted for a rematch.
func rematchCarried(s *session.Session) bool {
	return len(s.RematchVotes) > 0 && lo.Every(s.RematchVotes, s.Players)
}

// maybeCreateRematch performs the rematch side effect when the vote has
// carried, no pointer exists yet, and asPlayerID is the elected leader.
// Creation order is: insert the new session first, then compare-and-swap the
// pointer. A pointer conflict means another actor landed; the freshly
// created session is then deleted best-effort.
func (m *Machine) maybeCreateRematch(ctx context.Context, s *session.Session, asPlayerID string) error {
	if s.Status != session.StatusCompleted || s.RematchGameID != "" {
		return nil
	}
	if !rematchCarried(s) || asPlayerID != s.LeaderID() {
		return nil
	}

	next, err := m.buildRematch(s)
	if err != nil {
		return err
	}
	if _, err := m.store.Create(ctx, next); err != nil && !errors.Is(err, docstore.ErrExists) {
		return err
	}

	_, err = m.transact(ctx, s.ID, func(cur *session.Session) (bool, error) {
		if cur.RematchGameID != "" {
			return false, nil
		}
		cur.RematchGameID = next.ID
		cur.RematchVotes = nil
		return true, nil
	})
	if err != nil {
		return err
	}

	// Did our pointer land, or did a racing actor's?
	after, gerr := m.store.Get(ctx, s.ID)
	if gerr == nil && after.Session.RematchGameID != next.ID {
		if derr := m.store.Delete(ctx, next.ID); derr != nil && !errors.Is(derr, docstore.ErrNotFound) {
			m.log.Warn().Err(derr).Str("session", next.ID).Msg("drop orphaned rematch session")
		}
	}
	return nil
}

// buildRematch clones the finished session's settings into a fresh document.
func (m *Machine) buildRematch(prev *session.Session) (*session.Session, error) {
	sol, err := m.dict.NextSolution(prev.WordLength)
	if err != nil {
		return nil, err
	}
	now := m.now()
	next := &session.Session{
		ID:            uuid.NewString(),
		Players:       append([]string(nil), prev.Players...),
		GameType:      prev.GameType,
		Mode:          prev.Mode,
		WordLength:    prev.WordLength,
		MaxAttempts:   prev.MaxAttempts,
		Status:        session.StatusInProgress,
		Solution:      sol,
		Guesses:       []session.GuessRecord{},
		ActivePlayers: append([]string(nil), prev.Players...),
	}
	if prev.IsPvP() && prev.Match != nil {
		next.Match = &session.MatchState{
			CurrentRound:  1,
			RoundsSetting: prev.Match.RoundsSetting,
			MaxWins:       prev.Match.MaxWins,
			Scores:        make(map[string]int),
		}
	}
	hs := now.Add(m.cfg.HardStop)
	next.MatchHardStopAt = &hs
	ia := now.Add(m.cfg.InactivityTimeout)
	next.InactivityClosesAt = &ia
	return next, nil
}

// VoteNextRound records the caller's vote to advance into the next PvP
// round. When every participant has voted, the elected leader applies the
// round advance in the same transaction.
func (m *Machine) VoteNextRound(ctx context.Context, sessionID, playerID string) (docstore.Snapshot, error) {
	now := m.now()
	return m.transact(ctx, sessionID, func(s *session.Session) (bool, error) {
		if s.Status == session.StatusCompleted {
			return false, ErrCompleted
		}
		if s.Status != session.StatusInProgress || !s.IsPvP() || s.Match == nil {
			return false, ErrNotStarted
		}
		if !s.HasPlayer(playerID) {
			return false, ErrNotParticipant
		}
		if !s.Match.RoundOver {
			// Nothing to advance yet; the vote would gate nothing.
			return false, nil
		}
		votes, changed := session.AddVote(s.NextRoundVotes, playerID)
		s.NextRoundVotes = votes
		if nextRoundCarried(s) && playerID == s.LeaderID() {
			advanced, err := m.advanceRound(s, s.Match.CurrentRound, now)
			if err != nil {
				return false, err
			}
			changed = changed || advanced
		}
		return changed, nil
	})
}

// nextRoundCarried reports whether every participant voted to advance.
func nextRoundCarried(s *session.Session) bool {
	return len(s.NextRoundVotes) > 0 && lo.Every(s.NextRoundVotes, s.Players)
}
