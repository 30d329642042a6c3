// internal/history/history.go
//
// Completed-match archive and aggregate player stats, persisted to SQLite.
// Writes are best effort from the state machine's point of view: a failed
// archive never blocks or rolls back a match transition. INSERT OR IGNORE
// keyed on the session id keeps racing archivers idempotent.
package history

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/mworrall/wordduel/internal/session"
)

// Store wraps the archive tables.
type Store struct{ db *sql.DB }

// NewStore wraps an opened database. Tables come from sql/ migrations.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// ArchiveCompleted records a completed session and bumps per-player stats.
func (s *Store) ArchiveCompleted(ctx context.Context, doc *session.Session) error {
	if doc.Status != session.StatusCompleted {
		return nil
	}
	winner := ""
	if doc.WinnerID != nil {
		winner = *doc.WinnerID
	}
	rounds := 1
	if doc.Match != nil {
		rounds = doc.Match.CurrentRound
	}
	completedAt := time.Now().UTC()
	if doc.CompletedAt != nil {
		completedAt = doc.CompletedAt.UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO matches (id, game_type, mode, players, winner_id, ended_by, rounds, guesses, completed_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		doc.ID, string(doc.GameType), string(doc.Mode), strings.Join(doc.Players, ","),
		winner, doc.EndedBy, rounds, len(doc.Guesses), completedAt.Format(time.RFC3339))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Another client archived this session first.
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, p := range doc.Players {
		if err := bumpStats(tx, p, p == winner && winner != ""); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// bumpStats increments games played; updates wins and streak (within tx).
// Guests without a users row are skipped.
func bumpStats(tx *sql.Tx, userID string, won bool) error {
	var gp, wins, streak int
	row := tx.QueryRow(`SELECT games_played, wins, streak FROM users WHERE id=?`, userID)
	if err := row.Scan(&gp, &wins, &streak); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return err
	}
	gp++
	if won {
		wins++
		streak++
	} else {
		streak = 0
	}
	_, err := tx.Exec(`UPDATE users SET games_played=?, wins=?, streak=? WHERE id=?`, gp, wins, streak, userID)
	return err
}

// MatchRow is one archived match in a player's history.
type MatchRow struct {
	ID          string `json:"id"`
	GameType    string `json:"gameType"`
	Mode        string `json:"mode,omitempty"`
	WinnerID    string `json:"winnerId,omitempty"`
	EndedBy     string `json:"endedBy"`
	Rounds      int    `json:"rounds"`
	Guesses     int    `json:"guesses"`
	CompletedAt string `json:"completedAt"`
}

// RecentMatches returns a player's archived matches, newest first.
func (s *Store) RecentMatches(ctx context.Context, playerID string, limit int) ([]MatchRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, game_type, mode, winner_id, ended_by, rounds, guesses, completed_at
		 FROM matches
		 WHERE ','||players||',' LIKE '%,'||?||',%'
		 ORDER BY completed_at DESC LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []MatchRow{}
	for rows.Next() {
		var r MatchRow
		if err := rows.Scan(&r.ID, &r.GameType, &r.Mode, &r.WinnerID, &r.EndedBy, &r.Rounds, &r.Guesses, &r.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LBRow is one leaderboard entry.
type LBRow struct {
	UserID string `json:"userId"`
	Wins   int    `json:"wins"`
	Games  int    `json:"games"`
}

// Leaderboard returns the top players by wins.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]LBRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, wins, games_played FROM users
		 WHERE games_played > 0
		 ORDER BY wins DESC, games_played ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LBRow{}
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.UserID, &r.Wins, &r.Games); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
