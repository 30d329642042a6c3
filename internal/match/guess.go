// internal/match/guess.go
//
// Guess submission: validation, evaluation, win/loss/continue resolution,
// turn rotation, and timer bootstrap on the first guess of a match.
package match

import (
	"context"
	"strings"

	"github.com/mworrall/wordduel/internal/docstore"
	"github.com/mworrall/wordduel/internal/game"
	"github.com/mworrall/wordduel/internal/session"
	"github.com/mworrall/wordduel/internal/turn"
)

// SubmitGuess validates and applies one guess for playerID.
//
// Validation failures are rejected without any state mutation and reported
// only to the invoking client. On success the guess record is appended and
// the session resolves to win, exhaustion, or turn advancement.
func (m *Machine) SubmitGuess(ctx context.Context, sessionID, playerID, word string) (docstore.Snapshot, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	now := m.now()
	return m.transact(ctx, sessionID, func(s *session.Session) (bool, error) {
		if s.Status == session.StatusCompleted {
			return false, ErrCompleted
		}
		if s.Status != session.StatusInProgress {
			return false, ErrNotStarted
		}
		if err := s.CheckInvariants(); err != nil {
			// Unplayable document: terminate via error completion instead of
			// leaving the match stuck.
			m.complete(s, "", session.EndError, now)
			return true, nil
		}
		if !s.HasPlayer(playerID) {
			return false, ErrNotParticipant
		}
		if s.IsPvP() && s.Match != nil && s.Match.RoundOver {
			return false, ErrRoundResolved
		}
		if s.IsMultiplayer() && len(s.TurnOrder) > 0 && s.CurrentTurnPlayerID != playerID {
			return false, ErrNotYourTurn
		}
		if len(word) != s.WordLength || !game.IsAlpha(word) {
			return false, ErrBadWordLength
		}
		if !m.dict.IsValid(word, s.WordLength) {
			return false, ErrNotInDictionary
		}
		if s.MaxAttempts > 0 && len(s.Guesses) >= s.MaxAttempts {
			return false, ErrNoAttemptsLeft
		}

		// Turn order is snapshotted once, at the first guess of the match,
		// never re-derived from the live players collection afterwards.
		first := s.IsMultiplayer() && len(s.TurnOrder) == 0
		if first {
			s.TurnOrder = turn.Snapshot(s.Players)
		}

		evals := game.Evaluate(s.Solution, word)
		s.Guesses = append(s.Guesses, session.GuessRecord{
			Word:        word,
			Evaluations: evals,
			PlayerID:    playerID,
			SubmittedAt: now,
		})
		// A new guess spends any pending end-match vote.
		s.EndVotes = nil

		won := game.AllCorrect(evals)
		exhausted := !won && len(s.Guesses) >= s.MaxAttempts

		switch {
		case (won || exhausted) && s.IsPvP() && s.Match != nil:
			winner := ""
			if won {
				winner = playerID
			}
			m.concludeRound(s, winner)
		case won:
			m.complete(s, playerID, session.EndWin, now)
		case exhausted:
			m.complete(s, "", session.EndOutOfAttempts, now)
		default:
			if s.IsMultiplayer() {
				s.CurrentTurnPlayerID = turn.Next(s.TurnOrder, playerID)
				t := now
				s.TurnStartedAt = &t
				td := now.Add(m.cfg.TurnTimeout)
				s.TurnDeadline = &td
			}
		}

		if s.Status == session.StatusInProgress {
			if first {
				md := now.Add(m.cfg.MatchTimeout)
				s.MatchDeadline = &md
				if s.IsPvP() {
					rd := now.Add(m.cfg.RoundTimeout)
					s.RoundDeadline = &rd
				}
			}
			// Activity on the board pushes the idle-close window out.
			ia := now.Add(m.cfg.InactivityTimeout)
			s.InactivityClosesAt = &ia
		}
		return true, nil
	})
}

// KeyboardHints derives the best-known mark per letter from the current
// guess history. Purely derived state; never stored in the document.
func KeyboardHints(s *session.Session) map[string]game.Mark {
	words := make([]string, len(s.Guesses))
	evals := make([][]game.Mark, len(s.Guesses))
	for i, g := range s.Guesses {
		words[i] = g.Word
		evals[i] = g.Evaluations
	}
	return game.KeyboardHints(words, evals)
}
