// internal/match/machine.go
//
// The match-session state machine. The same Machine logic runs on behalf of
// every connected client; there is no single serializing process. All
// transitions follow one discipline:
//
//   read snapshot → validate against current state → compute candidate
//   document → compare-and-swap commit → retry whole command on conflict.
//
// Every transition is idempotent with respect to duplicate invocation: a
// second writer whose precondition was already satisfied by a first writer
// observes the now-stale precondition and becomes a no-op.
package match

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mworrall/wordduel/internal/docstore"
	"github.com/mworrall/wordduel/internal/session"
)

var (
	ErrNotParticipant   = errors.New("match: not a session participant")
	ErrNotYourTurn      = errors.New("match: not your turn")
	ErrBadWordLength    = errors.New("match: wrong guess length")
	ErrNotInDictionary  = errors.New("match: word not in dictionary")
	ErrCompleted        = errors.New("match: session already completed")
	ErrNotStarted       = errors.New("match: session not started")
	ErrRoundResolved    = errors.New("match: round already resolved, waiting on advance")
	ErrNoAttemptsLeft   = errors.New("match: no attempts left")
	ErrRetriesExhausted = errors.New("match: transaction retries exhausted") // transient, safe to retry
)

// Dictionary validates guesses and supplies fresh solutions.
type Dictionary interface {
	IsValid(word string, length int) bool
	NextSolution(length int) (string, error)
}

// PresenceSource reports which players currently hold a live heartbeat.
type PresenceSource interface {
	Online(sessionID string) []string
}

// Archiver persists completed matches (best effort, never blocks a
// transition).
type Archiver interface {
	ArchiveCompleted(ctx context.Context, s *session.Session) error
}

// Machine executes commands and supervision ticks against the shared store.
type Machine struct {
	store    docstore.Store
	dict     Dictionary
	presence PresenceSource
	archive  Archiver
	cfg      Config
	clock    func() time.Time
	log      zerolog.Logger

	// Local disconnect-grace countdowns, keyed by session id. Local by
	// design: each observing client runs its own countdown and only the
	// completion write goes through compare-and-swap.
	graceMu sync.Mutex
	grace   map[string]time.Time
}

// New constructs a Machine. archive may be nil.
func New(store docstore.Store, dict Dictionary, pres PresenceSource, archive Archiver, cfg Config, log zerolog.Logger) *Machine {
	return &Machine{
		store:    store,
		dict:     dict,
		presence: pres,
		archive:  archive,
		cfg:      cfg.withDefaults(),
		clock:    time.Now,
		log:      log,
		grace:    make(map[string]time.Time),
	}
}

// SetClock overrides the time source (tests).
func (m *Machine) SetClock(clock func() time.Time) { m.clock = clock }

// Get returns the current session snapshot.
func (m *Machine) Get(ctx context.Context, id string) (docstore.Snapshot, error) {
	return m.store.Get(ctx, id)
}

// Watch exposes the store's change feed.
func (m *Machine) Watch(id string) (<-chan docstore.Snapshot, func()) {
	return m.store.Watch(id)
}

// txnFunc mutates a freshly read document. It returns whether the document
// changed; an error aborts the command without any state mutation.
type txnFunc func(s *session.Session) (changed bool, err error)

// transact runs the read-compute-commit loop with a bounded retry count.
// Exhausted retries surface ErrRetriesExhausted; the caller treats that as
// transient, never as corrupted game state.
func (m *Machine) transact(ctx context.Context, id string, fn txnFunc) (docstore.Snapshot, error) {
	var lastErr error
	for attempt := 0; attempt < m.cfg.MaxRetries; attempt++ {
		snap, err := m.store.Get(ctx, id)
		if err != nil {
			return docstore.Snapshot{}, err
		}
		doc := snap.Session
		prevStatus := doc.Status

		changed, err := fn(doc)
		if err != nil {
			return snap, err
		}
		if !changed {
			return snap, nil
		}

		committed, err := m.store.Commit(ctx, id, snap.Version, doc)
		if err == nil {
			if prevStatus != session.StatusCompleted && doc.Status == session.StatusCompleted {
				m.onCompleted(ctx, doc)
			}
			return committed, nil
		}
		if errors.Is(err, docstore.ErrConflict) {
			// Another writer landed first; re-read and re-validate.
			lastErr = err
			continue
		}
		return docstore.Snapshot{}, err
	}
	return docstore.Snapshot{}, fmt.Errorf("%w (%d attempts): %v", ErrRetriesExhausted, m.cfg.MaxRetries, lastErr)
}

// complete finalizes a session: outcome fields, message, cleared timers.
// Votes gating match end are spent by the completion itself.
func (m *Machine) complete(s *session.Session, winnerID, endedBy string, now time.Time) {
	s.Status = session.StatusCompleted
	t := now
	s.CompletedAt = &t
	s.EndedBy = endedBy
	if winnerID != "" {
		w := winnerID
		s.WinnerID = &w
	} else {
		s.WinnerID = nil
	}
	s.CompletionMessage = completionMessage(s, endedBy, winnerID)
	s.ClearTimers()
	s.EndVotes = nil
}

// onCompleted runs side effects of a completion this client committed.
func (m *Machine) onCompleted(ctx context.Context, s *session.Session) {
	// The local grace countdown is dropped only after the completion
	// committed. Clearing it inside the transaction function would restart
	// the elapsed window whenever the commit loses a CAS race.
	m.clearGrace(s.ID)
	m.log.Info().
		Str("session", s.ID).
		Str("endedBy", s.EndedBy).
		Msg("session completed")
	if m.archive == nil {
		return
	}
	if err := m.archive.ArchiveCompleted(ctx, s); err != nil {
		m.log.Warn().Err(err).Str("session", s.ID).Msg("archive completed match")
	}
}

// Surrender completes the match immediately: the other participant(s) win.
// Co-op surrender is a team loss with no winner.
func (m *Machine) Surrender(ctx context.Context, sessionID, playerID string) (docstore.Snapshot, error) {
	now := m.clock()
	return m.transact(ctx, sessionID, func(s *session.Session) (bool, error) {
		if s.Status == session.StatusCompleted {
			return false, ErrCompleted
		}
		if s.Status != session.StatusInProgress {
			return false, ErrNotStarted
		}
		if !s.HasPlayer(playerID) {
			return false, ErrNotParticipant
		}
		winner := ""
		if s.IsPvP() {
			if opps := s.Opponents(playerID); len(opps) == 1 {
				winner = opps[0]
			}
			if s.Match != nil {
				s.Match.IsMatchOver = true
				s.Match.MatchWinnerID = winner
			}
		}
		m.complete(s, winner, session.EndSurrender, now)
		return true, nil
	})
}

func (m *Machine) now() time.Time { return m.clock() }
