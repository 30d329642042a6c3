// internal/session/session.go
//
// The shared match-session document. One Session record is the single source
// of truth for a match; every connected client mutates it exclusively through
// compare-and-swap transactions in the docstore, so all fields must survive a
// JSON round trip.
//
// Lifecycle: waiting → in_progress → completed (never regresses).

package session

import (
	"errors"
	"time"

	"github.com/samber/lo"

	"github.com/mworrall/wordduel/internal/game"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// GameType distinguishes solo play from multiplayer.
type GameType string

const (
	TypeSolo        GameType = "solo"
	TypeMultiplayer GameType = "multiplayer"
)

// Mode is the multiplayer flavor.
type Mode string

const (
	ModePvP  Mode = "pvp"
	ModeCoop Mode = "coop"
)

// EndedBy reasons recorded on completion.
const (
	EndWin              = "win"
	EndOutOfAttempts    = "out_of_attempts"
	EndSurrender        = "surrender"
	EndMutual           = "mutual_end"
	EndDraw             = "draw"
	EndMatchTimeout     = "match_timeout"
	EndHardStop         = "hard_stop"
	EndSystemDisconnect = "system_disconnect"
	EndInactivity       = "inactivity"
	EndLobbyExpired     = "lobby_expired"
	EndError            = "error"
)

// ErrCorrupt marks an unrecoverable invariant violation in the document.
var ErrCorrupt = errors.New("session: corrupt document")

// GuessRecord is one submitted guess with its evaluation.
type GuessRecord struct {
	Word        string      `json:"word"`
	Evaluations []game.Mark `json:"evaluations"`
	PlayerID    string      `json:"playerId"`
	SubmittedAt time.Time   `json:"submittedAt"`
}

// RoundBonus grants the prior round's winner one revealed solution letter at
// the start of the next round.
type RoundBonus struct {
	BeneficiaryID       string `json:"beneficiaryId"`
	RevealedLetterIndex int    `json:"revealedLetterIndex"`
	RevealedLetter      string `json:"revealedLetter"`
}

// MatchState tracks best-of-N progression for PvP sessions.
type MatchState struct {
	CurrentRound  int            `json:"currentRound"`
	RoundsSetting int            `json:"roundsSetting"`
	MaxWins       int            `json:"maxWins"`
	Scores        map[string]int `json:"scores"`
	RoundBonus    *RoundBonus    `json:"roundBonus,omitempty"`
	IsMatchOver   bool           `json:"isMatchOver"`
	MatchWinnerID string         `json:"matchWinnerId,omitempty"`

	// Round resolution marker: a concluded round waits here until the
	// elected leader invokes the advance.
	RoundOver     bool   `json:"roundOver"`
	RoundWinnerID string `json:"roundWinnerId,omitempty"`
}

// Session is the shared match document.
type Session struct {
	ID          string   `json:"id"`
	Players     []string `json:"players"`
	GameType    GameType `json:"gameType"`
	Mode        Mode     `json:"multiplayerMode,omitempty"`
	WordLength  int      `json:"wordLength"`
	MaxAttempts int      `json:"maxAttempts"`
	MaxPlayers  int      `json:"maxPlayers,omitempty"`

	Status            Status     `json:"status"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
	CompletionMessage string     `json:"completionMessage,omitempty"`
	EndedBy           string     `json:"endedBy,omitempty"`

	Solution string        `json:"solution,omitempty"`
	Guesses  []GuessRecord `json:"guesses"`

	TurnOrder           []string   `json:"turnOrder,omitempty"`
	CurrentTurnPlayerID string     `json:"currentTurnPlayerId,omitempty"`
	TurnStartedAt       *time.Time `json:"turnStartedAt,omitempty"`

	TurnDeadline       *time.Time `json:"turnDeadline,omitempty"`
	MatchDeadline      *time.Time `json:"matchDeadline,omitempty"`
	RoundDeadline      *time.Time `json:"roundDeadline,omitempty"`
	MatchHardStopAt    *time.Time `json:"matchHardStopAt,omitempty"`
	LobbyClosesAt      *time.Time `json:"lobbyClosesAt,omitempty"`
	InactivityClosesAt *time.Time `json:"inactivityClosesAt,omitempty"`

	ActivePlayers []string `json:"activePlayers"`

	EndVotes       []string `json:"endVotes"`
	RematchVotes   []string `json:"rematchVotes"`
	NextRoundVotes []string `json:"nextRoundVotes"`

	Match *MatchState `json:"matchState,omitempty"`

	WinnerID      *string `json:"winnerId"`
	RematchGameID string  `json:"rematchGameId,omitempty"`
}

// HasPlayer reports whether id is a session participant.
func (s *Session) HasPlayer(id string) bool {
	return lo.Contains(s.Players, id)
}

// IsMultiplayer reports whether the session has multiplayer turn rotation.
func (s *Session) IsMultiplayer() bool { return s.GameType == TypeMultiplayer }

// IsPvP reports whether the session runs best-of-N competitive rounds.
func (s *Session) IsPvP() bool { return s.IsMultiplayer() && s.Mode == ModePvP }

// Opponents returns every participant except id.
func (s *Session) Opponents(id string) []string {
	return lo.Filter(s.Players, func(p string, _ int) bool { return p != id })
}

// LeaderID is the statically elected participant responsible for
// exactly-once side effects (round advance, rematch creation): the player
// whose identifier sorts lexicographically first.
func (s *Session) LeaderID() string {
	if len(s.Players) == 0 {
		return ""
	}
	leader := s.Players[0]
	for _, p := range s.Players[1:] {
		if p < leader {
			leader = p
		}
	}
	return leader
}

// AddVote inserts id into the given vote set if absent.
// Returns the updated set and whether it changed.
func AddVote(set []string, id string) ([]string, bool) {
	if lo.Contains(set, id) {
		return set, false
	}
	return append(set, id), true
}

// ToggleVote adds id if absent, removes it if present.
func ToggleVote(set []string, id string) []string {
	if lo.Contains(set, id) {
		return lo.Filter(set, func(v string, _ int) bool { return v != id })
	}
	return append(set, id)
}

// ClearTimers wipes every deadline and the turn lock. Called on completion so
// no supervisor keeps proposing expiries against a finished match.
func (s *Session) ClearTimers() {
	s.TurnDeadline = nil
	s.MatchDeadline = nil
	s.RoundDeadline = nil
	s.MatchHardStopAt = nil
	s.LobbyClosesAt = nil
	s.InactivityClosesAt = nil
	s.TurnStartedAt = nil
	s.CurrentTurnPlayerID = ""
}

// CheckInvariants validates structural invariants that, when broken, leave a
// match unplayable. Violations terminate the match via an error completion
// rather than leaving it stuck.
func (s *Session) CheckInvariants() error {
	if s.Status == StatusInProgress && s.Solution == "" {
		return ErrCorrupt
	}
	if s.MaxAttempts > 0 && len(s.Guesses) > s.MaxAttempts {
		return ErrCorrupt
	}
	if s.CurrentTurnPlayerID != "" && len(s.TurnOrder) > 0 && !lo.Contains(s.TurnOrder, s.CurrentTurnPlayerID) {
		return ErrCorrupt
	}
	return nil
}

// Clone deep-copies the document. The docstore hands out clones so a
// transaction function can mutate freely before the compare-and-swap commit.
func (s *Session) Clone() *Session {
	out := *s
	out.Players = append([]string(nil), s.Players...)
	out.TurnOrder = append([]string(nil), s.TurnOrder...)
	out.ActivePlayers = append([]string(nil), s.ActivePlayers...)
	out.EndVotes = append([]string(nil), s.EndVotes...)
	out.RematchVotes = append([]string(nil), s.RematchVotes...)
	out.NextRoundVotes = append([]string(nil), s.NextRoundVotes...)
	out.Guesses = make([]GuessRecord, len(s.Guesses))
	for i, g := range s.Guesses {
		out.Guesses[i] = g
		out.Guesses[i].Evaluations = append([]game.Mark(nil), g.Evaluations...)
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	if s.TurnStartedAt != nil {
		t := *s.TurnStartedAt
		out.TurnStartedAt = &t
	}
	out.TurnDeadline = cloneTime(s.TurnDeadline)
	out.MatchDeadline = cloneTime(s.MatchDeadline)
	out.RoundDeadline = cloneTime(s.RoundDeadline)
	out.MatchHardStopAt = cloneTime(s.MatchHardStopAt)
	out.LobbyClosesAt = cloneTime(s.LobbyClosesAt)
	out.InactivityClosesAt = cloneTime(s.InactivityClosesAt)
	if s.WinnerID != nil {
		w := *s.WinnerID
		out.WinnerID = &w
	}
	if s.Match != nil {
		m := *s.Match
		m.Scores = make(map[string]int, len(s.Match.Scores))
		for k, v := range s.Match.Scores {
			m.Scores[k] = v
		}
		if s.Match.RoundBonus != nil {
			b := *s.Match.RoundBonus
			m.RoundBonus = &b
		}
		out.Match = &m
	}
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
