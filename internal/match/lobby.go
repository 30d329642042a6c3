// internal/match/lobby.go
//
// Thin lobby layer: session creation and joining. Lobby management proper
// belongs to a separate service; this is just enough to mint well-formed
// documents for the state machine and keep the module runnable end to end.
package match

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mworrall/wordduel/internal/docstore"
	"github.com/mworrall/wordduel/internal/session"
)

var (
	ErrLobbyClosed   = errors.New("match: lobby is not accepting players")
	ErrAlreadyJoined = errors.New("match: player already joined")
)

// CreateOptions configures a new session.
type CreateOptions struct {
	CreatorID   string
	GameType    session.GameType
	Mode        session.Mode
	WordLength  int
	MaxAttempts int
	// Rounds is the PvP best-of-N setting; ignored for other modes.
	Rounds int
	// MaxPlayers caps the lobby; the match starts when it fills. PvP is
	// always head-to-head; co-op defaults to 2 but can seat more.
	MaxPlayers int
}

// CreateSession mints a new session document. Solo sessions start playing
// immediately; multiplayer sessions wait in the lobby until a second player
// joins.
func (m *Machine) CreateSession(ctx context.Context, opts CreateOptions) (docstore.Snapshot, error) {
	if opts.WordLength <= 0 {
		opts.WordLength = 5
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 6
	}
	sol, err := m.dict.NextSolution(opts.WordLength)
	if err != nil {
		return docstore.Snapshot{}, err
	}

	now := m.now()
	s := &session.Session{
		ID:            uuid.NewString(),
		Players:       []string{opts.CreatorID},
		GameType:      opts.GameType,
		Mode:          opts.Mode,
		WordLength:    opts.WordLength,
		MaxAttempts:   opts.MaxAttempts,
		Solution:      sol,
		Guesses:       []session.GuessRecord{},
		ActivePlayers: []string{opts.CreatorID},
	}

	if opts.GameType == session.TypeMultiplayer {
		s.Status = session.StatusWaiting
		lc := now.Add(m.cfg.LobbyGrace)
		s.LobbyClosesAt = &lc
		s.MaxPlayers = opts.MaxPlayers
		if s.MaxPlayers < 2 || opts.Mode == session.ModePvP {
			s.MaxPlayers = 2
		}
		if opts.Mode == session.ModePvP {
			rounds := opts.Rounds
			if rounds <= 0 {
				rounds = 3
			}
			s.Match = &session.MatchState{
				CurrentRound:  1,
				RoundsSetting: rounds,
				MaxWins:       rounds/2 + 1,
				Scores:        make(map[string]int),
			}
		}
	} else {
		s.GameType = session.TypeSolo
		s.Status = session.StatusInProgress
		m.startClocks(s)
	}

	return m.store.Create(ctx, s)
}

// Join adds a player to a waiting session. The second join starts the match.
func (m *Machine) Join(ctx context.Context, sessionID, playerID string) (docstore.Snapshot, error) {
	return m.transact(ctx, sessionID, func(s *session.Session) (bool, error) {
		if s.Status != session.StatusWaiting {
			return false, ErrLobbyClosed
		}
		if s.HasPlayer(playerID) {
			return false, ErrAlreadyJoined
		}
		s.Players = append(s.Players, playerID)
		s.ActivePlayers = append(s.ActivePlayers, playerID)
		full := len(s.Players) >= s.MaxPlayers
		if s.MaxPlayers <= 0 {
			full = len(s.Players) >= 2
		}
		if full {
			s.Status = session.StatusInProgress
			s.LobbyClosesAt = nil
			m.startClocks(s)
		}
		return true, nil
	})
}

// startClocks arms the session-lifetime timers at the in_progress
// transition. Turn/match/round deadlines start later, at the first guess.
func (m *Machine) startClocks(s *session.Session) {
	now := m.now()
	hs := now.Add(m.cfg.HardStop)
	s.MatchHardStopAt = &hs
	ia := now.Add(m.cfg.InactivityTimeout)
	s.InactivityClosesAt = &ia
}
