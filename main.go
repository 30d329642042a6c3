package main

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mworrall/wordduel/internal/docstore"
	"github.com/mworrall/wordduel/internal/history"
	"github.com/mworrall/wordduel/internal/httpserver"
	"github.com/mworrall/wordduel/internal/match"
	"github.com/mworrall/wordduel/internal/presence"
	"github.com/mworrall/wordduel/internal/words"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := words.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load word lists")
	}

	db, err := openDB(getEnv("DB_PATH", "./data/app.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	var store docstore.Store
	if getEnv("SESSION_STORE", "sqlite") == "memory" {
		store = docstore.NewMemory()
	} else {
		store = docstore.NewSQLite(db)
	}

	tracker := presence.NewTracker(envDur("PRESENCE_TTL", presence.DefaultTTL))
	go func() {
		for range time.Tick(time.Minute) {
			tracker.Sweep()
		}
	}()

	cfg := match.Config{
		TurnTimeout:       envDur("TURN_TIMEOUT", 0),
		RoundTimeout:      envDur("ROUND_TIMEOUT", 0),
		MatchTimeout:      envDur("MATCH_TIMEOUT", 0),
		HardStop:          envDur("MATCH_HARD_STOP", 0),
		LobbyGrace:        envDur("LOBBY_GRACE", 0),
		InactivityTimeout: envDur("INACTIVITY_TIMEOUT", 0),
		DisconnectGrace:   envDur("DISCONNECT_GRACE", 0),
		MaxRetries:        envInt("TXN_MAX_RETRIES", 0),
	}

	hist := history.NewStore(db)
	machine := match.New(store, wordsDict{}, tracker, hist, cfg, log.With().Str("component", "match").Logger())

	srv := httpserver.New(machine, tracker, hist, db)
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Msg("starting wordduel server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// wordsDict adapts the words package to the machine's Dictionary interface.
type wordsDict struct{}

func (wordsDict) IsValid(word string, length int) bool { return words.IsValid(word, length) }
func (wordsDict) NextSolution(length int) (string, error) {
	return words.NextSolution(length)
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
