// internal/match/rounds.go
//
// Best-of-N round progression for PvP sessions.
//
// A concluded round (win, exhaustion, timeout) is first marked resolved in
// the document; scoring and progression happen in advanceRound, invoked by
// exactly one actor: the statically elected leader (lexicographically
// smallest participant id). Other clients only observe the resulting state.
// The advance is idempotent per round number, so a duplicate invocation for
// an already-advanced round is a no-op.
package match

import (
	"time"

	"github.com/mworrall/wordduel/internal/session"
	"github.com/mworrall/wordduel/internal/turn"
)

// concludeRound marks the active PvP round as resolved and releases the turn
// lock. winnerID is empty for a drawn round.
func (m *Machine) concludeRound(s *session.Session, winnerID string) {
	ms := s.Match
	if ms == nil || ms.RoundOver || ms.IsMatchOver {
		return
	}
	ms.RoundOver = true
	ms.RoundWinnerID = winnerID
	s.TurnDeadline = nil
	s.RoundDeadline = nil
	s.TurnStartedAt = nil
	s.CurrentTurnPlayerID = ""
	// Fresh vote for advancing into the next round.
	s.NextRoundVotes = nil
}

// advanceRound applies scoring for the resolved round forRound and either
// starts the next round or completes the match. Returns whether the document
// changed.
func (m *Machine) advanceRound(s *session.Session, forRound int, now time.Time) (bool, error) {
	ms := s.Match
	if ms == nil || !ms.RoundOver || ms.IsMatchOver || ms.CurrentRound != forRound {
		return false, nil
	}

	winner := ms.RoundWinnerID
	if winner != "" {
		if ms.Scores == nil {
			ms.Scores = make(map[string]int)
		}
		ms.Scores[winner]++
	}

	over := (winner != "" && ms.Scores[winner] >= ms.MaxWins) || ms.CurrentRound >= ms.RoundsSetting
	if over {
		ms.IsMatchOver = true
		ms.MatchWinnerID = topScorer(ms.Scores)
		ms.RoundOver = false
		ms.RoundWinnerID = ""
		ms.RoundBonus = nil
		endedBy := session.EndWin
		if ms.MatchWinnerID == "" {
			endedBy = session.EndDraw
		}
		m.complete(s, ms.MatchWinnerID, endedBy, now)
		return true, nil
	}

	sol, err := m.dict.NextSolution(s.WordLength)
	if err != nil {
		return false, err
	}

	ms.CurrentRound++
	ms.RoundOver = false
	ms.RoundWinnerID = ""
	s.Solution = sol
	s.Guesses = nil
	s.NextRoundVotes = nil

	// Asymmetric compensation: the prior round's winner starts the next one
	// with a single revealed solution letter at a fixed index.
	if winner != "" {
		ms.RoundBonus = &session.RoundBonus{
			BeneficiaryID:       winner,
			RevealedLetterIndex: 0,
			RevealedLetter:      string(sol[0]),
		}
	} else {
		ms.RoundBonus = nil
	}

	// The loser's side opens the new round; on a drawn round rotation simply
	// restarts at the head of the fixed order.
	opener := turn.Next(s.TurnOrder, winner)
	s.CurrentTurnPlayerID = opener
	if opener != "" {
		t := now
		s.TurnStartedAt = &t
		td := now.Add(m.cfg.TurnTimeout)
		s.TurnDeadline = &td
	}
	rd := now.Add(m.cfg.RoundTimeout)
	s.RoundDeadline = &rd
	ia := now.Add(m.cfg.InactivityTimeout)
	s.InactivityClosesAt = &ia
	return true, nil
}

// advanceWouldComplete reports whether applying the pending round result
// ends the match. Used by the leader's tick to finish a match without
// waiting for next-round votes nobody needs to cast.
func advanceWouldComplete(ms *session.MatchState) bool {
	if ms == nil || !ms.RoundOver {
		return false
	}
	if ms.RoundWinnerID != "" && ms.Scores[ms.RoundWinnerID]+1 >= ms.MaxWins {
		return true
	}
	return ms.CurrentRound >= ms.RoundsSetting
}

// topScorer returns the single highest scorer, or "" on a tie or when no
// points were scored.
func topScorer(scores map[string]int) string {
	best, bestScore, tied := "", 0, false
	for id, n := range scores {
		switch {
		case n > bestScore:
			best, bestScore, tied = id, n, false
		case n == bestScore && n > 0:
			tied = true
		}
	}
	if tied || bestScore == 0 {
		return ""
	}
	return best
}
