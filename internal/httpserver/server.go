// internal/httpserver/server.go
//
// HTTP server wiring for the word-duel backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Session endpoints (optional auth): create/join/read, the core commands
//     (guess, surrender, votes), and the websocket feed that drives the
//     per-client supervisory tick.
//   - Auth + profile/stat endpoints (require auth): /auth/*, /stats/me,
//     /matches/mine, /leaderboard.
//   - JWT + cookie handling, anonymous session cookie.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with user context when a valid token
//     is present; guests play under a stable anonymous cookie id.

package httpserver

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/mworrall/wordduel/internal/docstore"
	"github.com/mworrall/wordduel/internal/game"
	"github.com/mworrall/wordduel/internal/history"
	"github.com/mworrall/wordduel/internal/match"
	"github.com/mworrall/wordduel/internal/presence"
	"github.com/mworrall/wordduel/internal/session"
	"github.com/mworrall/wordduel/internal/words"
)

// Server bundles router, match machine, presence tracker, archive, and DB.
type Server struct {
	r        *chi.Mux
	machine  *match.Machine
	presence *presence.Tracker
	history  *history.Store
	db       *sql.DB
	tick     time.Duration
}

// New constructs a Server, installs middleware, and registers routes.
func New(m *match.Machine, pres *presence.Tracker, hist *history.Store, db *sql.DB) *Server {
	s := &Server{
		r:        chi.NewRouter(),
		machine:  m,
		presence: pres,
		history:  hist,
		db:       db,
		tick:     time.Second,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(corsFromEnv)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"wordduel","endpoints":["/health","POST /session","POST /session/{id}/guess","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
		a, g := words.Stats()
		_ = json.NewEncoder(w).Encode(map[string]int{"answers": a, "allowed": g})
	})

	// Session endpoints use optional auth so guests can play.
	s.r.Group(func(r chi.Router) {
		r.Use(s.withOptionalAuth())
		r.Post("/session", s.handleCreate)
		r.Post("/session/{id}/join", s.handleJoin)
		r.Get("/session/{id}", s.handleGet)
		r.Post("/session/{id}/guess", s.handleGuess)
		r.Post("/session/{id}/surrender", s.handleSurrender)
		r.Post("/session/{id}/vote/end", s.handleVote((*match.Machine).VoteEndMatch))
		r.Post("/session/{id}/vote/rematch", s.handleVote((*match.Machine).VoteRematch))
		r.Post("/session/{id}/vote/next-round", s.handleVote((*match.Machine).VoteNextRound))
		r.Get("/session/{id}/ws", s.handleWS)
	})

	// Auth + profile/stats
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ---------------------------- session views --------------------------------

// guessView mirrors a GuessRecord without leaking anything extra.
type guessView struct {
	Word        string      `json:"word"`
	Evaluations []game.Mark `json:"evaluations"`
	PlayerID    string      `json:"playerId"`
	SubmittedAt time.Time   `json:"submittedAt"`
}

// sessionView is the client-facing session projection. The solution is
// redacted while the match is live; only the round-bonus letter leaks, and
// only to its beneficiary via the roundBonus field.
type sessionView struct {
	ID                  string               `json:"id"`
	Players             []string             `json:"players"`
	GameType            session.GameType     `json:"gameType"`
	Mode                session.Mode         `json:"multiplayerMode,omitempty"`
	WordLength          int                  `json:"wordLength"`
	MaxAttempts         int                  `json:"maxAttempts"`
	Status              session.Status       `json:"status"`
	CompletedAt         *time.Time           `json:"completedAt,omitempty"`
	CompletionMessage   string               `json:"completionMessage,omitempty"`
	EndedBy             string               `json:"endedBy,omitempty"`
	Solution            string               `json:"solution,omitempty"`
	Guesses             []guessView          `json:"guesses"`
	TurnOrder           []string             `json:"turnOrder,omitempty"`
	CurrentTurnPlayerID string               `json:"currentTurnPlayerId,omitempty"`
	TurnDeadline        *time.Time           `json:"turnDeadline,omitempty"`
	MatchDeadline       *time.Time           `json:"matchDeadline,omitempty"`
	RoundDeadline       *time.Time           `json:"roundDeadline,omitempty"`
	MatchHardStopAt     *time.Time           `json:"matchHardStopAt,omitempty"`
	ActivePlayers       []string             `json:"activePlayers"`
	EndVotes            []string             `json:"endVotes"`
	RematchVotes        []string             `json:"rematchVotes"`
	NextRoundVotes      []string             `json:"nextRoundVotes"`
	Match               *session.MatchState  `json:"matchState,omitempty"`
	WinnerID            *string              `json:"winnerId"`
	RematchGameID       string               `json:"rematchGameId,omitempty"`
	KeyboardHints       map[string]game.Mark `json:"keyboardHints"`
	Version             int64                `json:"version"`
}

// viewOf projects a snapshot for the wire.
func viewOf(snap docstore.Snapshot) sessionView {
	doc := snap.Session
	v := sessionView{
		ID:                  doc.ID,
		Players:             doc.Players,
		GameType:            doc.GameType,
		Mode:                doc.Mode,
		WordLength:          doc.WordLength,
		MaxAttempts:         doc.MaxAttempts,
		Status:              doc.Status,
		CompletedAt:         doc.CompletedAt,
		CompletionMessage:   doc.CompletionMessage,
		EndedBy:             doc.EndedBy,
		TurnOrder:           doc.TurnOrder,
		CurrentTurnPlayerID: doc.CurrentTurnPlayerID,
		TurnDeadline:        doc.TurnDeadline,
		MatchDeadline:       doc.MatchDeadline,
		RoundDeadline:       doc.RoundDeadline,
		MatchHardStopAt:     doc.MatchHardStopAt,
		ActivePlayers:       doc.ActivePlayers,
		EndVotes:            doc.EndVotes,
		RematchVotes:        doc.RematchVotes,
		NextRoundVotes:      doc.NextRoundVotes,
		Match:               doc.Match,
		WinnerID:            doc.WinnerID,
		RematchGameID:       doc.RematchGameID,
		KeyboardHints:       match.KeyboardHints(doc),
		Version:             snap.Version,
	}
	if doc.Status == session.StatusCompleted {
		v.Solution = doc.Solution
	}
	v.Guesses = make([]guessView, len(doc.Guesses))
	for i, g := range doc.Guesses {
		v.Guesses[i] = guessView(g)
	}
	return v
}

// ---------------------------- session routes -------------------------------

type createReq struct {
	GameType    string `json:"gameType"`    // "solo" | "multiplayer"
	Mode        string `json:"mode"`        // "pvp" | "coop"
	WordLength  int    `json:"wordLength"`  // default 5
	MaxAttempts int    `json:"maxAttempts"` // default 6
	Rounds      int    `json:"rounds"`      // PvP best-of-N, default 3
	MaxPlayers  int    `json:"maxPlayers"`  // co-op lobby size, default 2
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createReq
	_ = json.NewDecoder(r.Body).Decode(&req)
	pid := s.playerID(w, r)

	opts := match.CreateOptions{
		CreatorID:   pid,
		GameType:    session.GameType(req.GameType),
		Mode:        session.Mode(req.Mode),
		WordLength:  req.WordLength,
		MaxAttempts: req.MaxAttempts,
		Rounds:      req.Rounds,
		MaxPlayers:  req.MaxPlayers,
	}
	if opts.GameType != session.TypeMultiplayer {
		opts.GameType = session.TypeSolo
	}
	if opts.GameType == session.TypeMultiplayer && opts.Mode != session.ModeCoop {
		opts.Mode = session.ModePvP
	}

	snap, err := s.machine.CreateSession(r.Context(), opts)
	if err != nil {
		log.Error().Err(err).Msg("create session")
		http.Error(w, `{"error":"create_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(viewOf(snap))
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	pid := s.playerID(w, r)
	snap, err := s.machine.Join(r.Context(), chi.URLParam(r, "id"), pid)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(viewOf(snap))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := s.machine.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(viewOf(snap))
}

type guessReq struct {
	Guess string `json:"guess"`
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	pid := s.playerID(w, r)
	snap, err := s.machine.SubmitGuess(r.Context(), chi.URLParam(r, "id"), pid, req.Guess)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(viewOf(snap))
}

func (s *Server) handleSurrender(w http.ResponseWriter, r *http.Request) {
	pid := s.playerID(w, r)
	snap, err := s.machine.Surrender(r.Context(), chi.URLParam(r, "id"), pid)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(viewOf(snap))
}

// handleVote adapts the three vote commands into one handler shape.
func (s *Server) handleVote(cmd func(*match.Machine, context.Context, string, string) (docstore.Snapshot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pid := s.playerID(w, r)
		snap, err := cmd(s.machine, r.Context(), chi.URLParam(r, "id"), pid)
		if err != nil {
			s.writeCommandError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(viewOf(snap))
	}
}

// writeCommandError maps machine/store errors onto HTTP statuses. Transient
// retry exhaustion is 503 so clients know to simply try again.
func (s *Server) writeCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
	case errors.Is(err, match.ErrNotParticipant):
		http.Error(w, `{"error":"not_participant"}`, http.StatusForbidden)
	case errors.Is(err, match.ErrNotYourTurn),
		errors.Is(err, match.ErrCompleted),
		errors.Is(err, match.ErrNotStarted),
		errors.Is(err, match.ErrRoundResolved),
		errors.Is(err, match.ErrNoAttemptsLeft),
		errors.Is(err, match.ErrLobbyClosed),
		errors.Is(err, match.ErrAlreadyJoined):
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusConflict)
	case errors.Is(err, match.ErrBadWordLength),
		errors.Is(err, match.ErrNotInDictionary):
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
	case errors.Is(err, match.ErrRetriesExhausted):
		http.Error(w, `{"error":"busy_try_again"}`, http.StatusServiceUnavailable)
	default:
		log.Error().Err(err).Msg("session command")
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
	}
}

// ------------------------------- identity ----------------------------------

// playerID resolves the acting player: authenticated user id if present,
// otherwise a stable anonymous cookie id.
func (s *Server) playerID(w http.ResponseWriter, r *http.Request) string {
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		return me.ID
	}
	return s.ensureAnonID(w, r)
}

const anonCookieName = "wordduel_anon"

// ensureAnonID returns an existing anon cookie or sets a new one.
// Used to associate guest matches with a stable identifier.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := genID()
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   os.Getenv("NODE_ENV") == "production",
		SameSite: func() http.SameSite {
			if os.Getenv("NODE_ENV") == "production" {
				return http.SameSiteNoneMode
			}
			return http.SameSiteLaxMode
		}(),
		Expires: time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}

// ------------------------------- AUTH --------------------------------------

type signupReq struct{ Username, Password string }
type loginReq struct{ Username, Password string }

// authUser is placed into request context by auth middleware.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ctxUserKey is the context key type for storing authUser.
type ctxUserKey struct{}

// mountAuthRoutes registers authentication + gated routes.
func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)

	s.r.With(s.requireAuth()).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
		if me == nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(me)
	})

	s.r.With(s.requireAuth()).Get("/stats/me", func(w http.ResponseWriter, r *http.Request) {
		me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
		if me == nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		u, err := s.findUserByID(me.ID)
		if err != nil {
			http.Error(w, `{"error":"not_found"}`, http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          u.ID,
			"gamesPlayed": u.GamesPlayed,
			"wins":        u.Wins,
			"streak":      u.Streak,
		})
	})

	s.r.With(s.requireAuth()).Get("/matches/mine", func(w http.ResponseWriter, r *http.Request) {
		me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
		if me == nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		out, err := s.history.RecentMatches(r.Context(), me.ID, 50)
		if err != nil {
			http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	s.r.Get("/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		rows, err := s.history.Leaderboard(r.Context(), 20)
		if err != nil {
			http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(rows)
	})
}

// handleSignup creates a new user, signs a JWT, and sets the auth cookie.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body signupReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.createUser(body.Username, body.Password)
	if err != nil {
		if err.Error() == "username taken" {
			http.Error(w, `{"error":"Username taken"}`, http.StatusConflict)
			return
		}
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	tok, exp, err := s.signJWT(u.ID, u.Username)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	s.setAuthCookie(w, tok, exp)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": u.ID, "username": u.Username, "createdAt": u.CreatedAt})
}

// handleLogin authenticates a user and sets the auth cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.findUserByUsername(strings.TrimSpace(body.Username))
	if err != nil || !checkPassword(u.PasswordHash, body.Password) {
		http.Error(w, `{"error":"Invalid username or password"}`, http.StatusUnauthorized)
		return
	}
	tok, exp, err := s.signJWT(u.ID, u.Username)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	s.setAuthCookie(w, tok, exp)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": u.ID, "username": u.Username})
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearAuthCookie(w)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// --------------------------- optional auth ---------------------------------

// withOptionalAuth decorates requests with user context if a valid JWT is
// present. It never 401s; used for routes where guests are allowed.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := bearerOrCookie(r); tok != "" {
				claims := jwt.MapClaims{}
				if t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
					return []byte(getEnv("JWT_SECRET", "dev_secret_change_me")), nil
				}); err == nil && t.Valid {
					if id, _ := claims["id"].(string); id != "" {
						if u, err := s.findUserByID(id); err == nil {
							ctx := context.WithValue(r.Context(), ctxUserKey{}, &authUser{ID: u.ID, Username: u.Username})
							r = r.WithContext(ctx)
						}
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireAuth enforces a valid JWT and injects authUser into request context.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerOrCookie(r)
			if tokenStr == "" {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(getEnv("JWT_SECRET", "dev_secret_change_me")), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			id, _ := claims["id"].(string)
			username, _ := claims["username"].(string)
			if id == "" || username == "" {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			// Ensure user still exists
			if _, err := s.findUserByID(id); err != nil {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserKey{}, &authUser{ID: id, Username: username})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ------------------------ auth helpers & users -----------------------------

// userRow matches the users table shape.
type userRow struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	GamesPlayed  int
	Wins         int
	Streak       int
}

// createUser validates input, checks uniqueness, hashes password, inserts.
func (s *Server) createUser(username, pw string) (*userRow, error) {
	username = normalizeUsername(username)
	if err := validateSignup(username, pw); err != nil {
		return nil, err
	}
	var exists int
	_ = s.db.QueryRow(`SELECT 1 FROM users WHERE lower(username)=lower(?)`, username).Scan(&exists)
	if exists == 1 {
		return nil, errors.New("username taken")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	id := genID()
	if _, err := s.db.Exec(`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		id, username, string(h), now); err != nil {
		return nil, err
	}
	return &userRow{ID: id, Username: username, PasswordHash: string(h), CreatedAt: mustParse(now)}, nil
}

func (s *Server) findUserByUsername(username string) (*userRow, error) {
	row := s.db.QueryRow(`SELECT id, username, password_hash, created_at, games_played, wins, streak
	                      FROM users WHERE lower(username)=lower(?)`, username)
	return scanUser(row)
}
func (s *Server) findUserByID(id string) (*userRow, error) {
	row := s.db.QueryRow(`SELECT id, username, password_hash, created_at, games_played, wins, streak
	                      FROM users WHERE id=?`, id)
	return scanUser(row)
}

// scanUser converts a *sql.Row into a userRow.
func scanUser(row *sql.Row) (*userRow, error) {
	var u userRow
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created, &u.GamesPlayed, &u.Wins, &u.Streak); err != nil {
		return nil, err
	}
	u.CreatedAt = mustParse(created)
	return &u, nil
}

// mustParse parses RFC3339 timestamps; on error returns zero time.
func mustParse(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// checkPassword is a bcrypt verifier.
func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// normalizeUsername trims whitespace; adjust here for stricter rules.
func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// validateSignup enforces basic username/password rules.
func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3–24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return errors.New("password must be 8–100 chars")
	}
	return nil
}

// genID creates a 22-char URL-safe, crypto-random identifier (no padding).
func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	out := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b[:])
	if len(out) > 22 {
		return out[:22]
	}
	return out
}

// ------------------------------ JWT & cookies ------------------------------

// signJWT creates an HS256 JWT with id/username and a configurable expiry
// (JWT_EXPIRES_DAYS; default 14).
func (s *Server) signJWT(id, username string) (string, time.Time, error) {
	secret := getEnv("JWT_SECRET", "dev_secret_change_me")
	days := 14
	if v := os.Getenv("JWT_EXPIRES_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			days = n
		}
	}
	exp := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      time.Now().Unix(),
	})
	ss, err := t.SignedString([]byte(secret))
	return ss, exp, err
}

// setAuthCookie writes the auth token cookie.
func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	name := getEnv("COOKIE_NAME", "wordduel_token")
	secure := os.Getenv("NODE_ENV") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// clearAuthCookie deletes the auth token cookie.
func (s *Server) clearAuthCookie(w http.ResponseWriter) {
	name := getEnv("COOKIE_NAME", "wordduel_token")
	secure := os.Getenv("NODE_ENV") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		MaxAge:   -1,
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or cookie.
func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(getEnv("COOKIE_NAME", "wordduel_token")); err == nil {
		return c.Value
	}
	return ""
}

// ------------------------------- small util --------------------------------

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
