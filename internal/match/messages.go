// internal/match/messages.go
//
// Mode-specific completion message tables. The message is chosen inside the
// committing transaction, so every client observes the same text.
package match

import (
	"fmt"

	"github.com/mworrall/wordduel/internal/session"
)

var soloMessages = map[string][]string{
	session.EndWin: {
		"You got it!",
		"Solved it!",
		"Nailed it!",
	},
	session.EndOutOfAttempts: {
		"Out of guesses — the word was %q.",
		"So close. The word was %q.",
	},
	session.EndSurrender: {
		"You gave up. The word was %q.",
	},
}

var coopMessages = map[string][]string{
	session.EndWin: {
		"Teamwork! You solved it together.",
		"Your team cracked it!",
	},
	session.EndOutOfAttempts: {
		"The team ran out of guesses — the word was %q.",
	},
	session.EndSurrender: {
		"The team conceded. The word was %q.",
	},
}

var pvpMessages = map[string][]string{
	session.EndWin: {
		"%s takes the match!",
		"Match over — %s wins.",
	},
	session.EndDraw: {
		"The match ends in a draw.",
	},
	session.EndSurrender: {
		"%s wins by surrender.",
	},
}

// Shared across modes: system-initiated endings.
var systemMessages = map[string]string{
	session.EndMutual:           "Match ended by mutual agreement.",
	session.EndMatchTimeout:     "Time ran out — the match is a draw.",
	session.EndHardStop:         "Match reached its time limit.",
	session.EndSystemDisconnect: "A player disconnected — the match is a draw.",
	session.EndInactivity:       "Match closed after inactivity.",
	session.EndLobbyExpired:     "Lobby closed: nobody joined.",
	session.EndError:            "Match ended due to an internal error.",
}

// completionMessage selects the text shown alongside a completed session.
func completionMessage(s *session.Session, endedBy, winnerID string) string {
	if msg, ok := systemMessages[endedBy]; ok {
		return msg
	}

	var table map[string][]string
	switch {
	case s.IsPvP():
		table = pvpMessages
	case s.GameType == session.TypeMultiplayer:
		table = coopMessages
	default:
		table = soloMessages
	}
	variants, ok := table[endedBy]
	if !ok || len(variants) == 0 {
		return systemMessages[session.EndError]
	}
	// Deterministic pick so retried transactions produce identical text.
	msg := variants[len(s.Guesses)%len(variants)]

	switch {
	case s.IsPvP() && (endedBy == session.EndWin || endedBy == session.EndSurrender):
		return fmt.Sprintf(msg, winnerID)
	case endedBy == session.EndOutOfAttempts || endedBy == session.EndSurrender:
		return fmt.Sprintf(msg, s.Solution)
	default:
		return msg
	}
}
