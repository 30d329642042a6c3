package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mworrall/wordduel/internal/game"
)

func TestLeaderID(t *testing.T) {
	s := &Session{Players: []string{"zoe", "alice", "mike"}}
	assert.Equal(t, "alice", s.LeaderID())
	assert.Equal(t, "", (&Session{}).LeaderID())
}

func TestVoteSets(t *testing.T) {
	t.Run("add is idempotent", func(t *testing.T) {
		set, changed := AddVote(nil, "alice")
		assert.True(t, changed)
		set, changed = AddVote(set, "alice")
		assert.False(t, changed)
		assert.Equal(t, []string{"alice"}, set)
	})

	t.Run("toggle flips membership", func(t *testing.T) {
		set := ToggleVote(nil, "alice")
		set = ToggleVote(set, "bob")
		set = ToggleVote(set, "alice")
		assert.Equal(t, []string{"bob"}, set)
	})
}

func TestCheckInvariants(t *testing.T) {
	base := func() *Session {
		return &Session{
			Status:      StatusInProgress,
			Solution:    "crane",
			MaxAttempts: 6,
		}
	}

	t.Run("healthy document passes", func(t *testing.T) {
		assert.NoError(t, base().CheckInvariants())
	})

	t.Run("in progress without a solution is corrupt", func(t *testing.T) {
		s := base()
		s.Solution = ""
		assert.ErrorIs(t, s.CheckInvariants(), ErrCorrupt)
	})

	t.Run("guesses beyond the attempt cap are corrupt", func(t *testing.T) {
		s := base()
		s.MaxAttempts = 1
		s.Guesses = []GuessRecord{{Word: "slate"}, {Word: "crane"}}
		assert.ErrorIs(t, s.CheckInvariants(), ErrCorrupt)
	})

	t.Run("turn holder outside the order is corrupt", func(t *testing.T) {
		s := base()
		s.TurnOrder = []string{"alice", "bob"}
		s.CurrentTurnPlayerID = "ghost"
		assert.ErrorIs(t, s.CheckInvariants(), ErrCorrupt)
	})
}

func TestClone(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	orig := &Session{
		ID:      "g1",
		Players: []string{"alice", "bob"},
		Guesses: []GuessRecord{{
			Word:        "slate",
			Evaluations: []game.Mark{game.MarkAbsent, game.MarkAbsent, game.MarkCorrect, game.MarkAbsent, game.MarkCorrect},
		}},
		TurnDeadline: &now,
		Match: &MatchState{
			CurrentRound: 1,
			Scores:       map[string]int{"alice": 1},
			RoundBonus:   &RoundBonus{BeneficiaryID: "alice", RevealedLetter: "c"},
		},
	}

	c := orig.Clone()
	c.Players[0] = "mutated"
	c.Guesses[0].Evaluations[0] = game.MarkCorrect
	*c.TurnDeadline = now.Add(time.Hour)
	c.Match.Scores["alice"] = 99
	c.Match.RoundBonus.BeneficiaryID = "mutated"

	assert.Equal(t, "alice", orig.Players[0])
	assert.Equal(t, game.MarkAbsent, orig.Guesses[0].Evaluations[0])
	assert.Equal(t, now, *orig.TurnDeadline)
	assert.Equal(t, 1, orig.Match.Scores["alice"])
	assert.Equal(t, "alice", orig.Match.RoundBonus.BeneficiaryID)
}

func TestClearTimers(t *testing.T) {
	now := time.Now()
	s := &Session{
		TurnDeadline:        &now,
		MatchDeadline:       &now,
		RoundDeadline:       &now,
		MatchHardStopAt:     &now,
		LobbyClosesAt:       &now,
		InactivityClosesAt:  &now,
		TurnStartedAt:       &now,
		CurrentTurnPlayerID: "alice",
	}
	s.ClearTimers()
	assert.Nil(t, s.TurnDeadline)
	assert.Nil(t, s.MatchDeadline)
	assert.Nil(t, s.RoundDeadline)
	assert.Nil(t, s.MatchHardStopAt)
	assert.Nil(t, s.LobbyClosesAt)
	assert.Nil(t, s.InactivityClosesAt)
	assert.Nil(t, s.TurnStartedAt)
	assert.Empty(t, s.CurrentTurnPlayerID)
}
