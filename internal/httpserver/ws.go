// internal/httpserver/ws.go
//
// Websocket session feed. One connection per (session, player) does three
// jobs:
//   - pushes a session view whenever the document changes (store watch),
//   - records presence heartbeats from pings and client messages,
//   - drives the client's supervisory tick, so timeout and presence
//     transitions are proposed redundantly by every connected client.
package httpserver

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		allowed := os.Getenv("CLIENT_ORIGIN")
		if allowed == "" {
			allowed = "http://localhost:5173"
		}
		return origin == allowed
	},
}

// clientMsg is what the browser sends over the socket.
type clientMsg struct {
	Type string `json:"type"` // "heartbeat" is the only recognized type
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	playerID := s.playerID(w, r)

	if _, err := s.machine.Get(r.Context(), sessionID); err != nil {
		s.writeCommandError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade")
		return
	}
	defer conn.Close()

	s.presence.Heartbeat(sessionID, playerID)
	defer s.presence.Forget(sessionID, playerID)

	updates, cancel := s.machine.Watch(sessionID)
	defer cancel()

	conn.SetPongHandler(func(string) error {
		s.presence.Heartbeat(sessionID, playerID)
		return nil
	})

	// Reader: heartbeats and connection liveness.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg clientMsg
			if err := json.Unmarshal(data, &msg); err == nil && msg.Type == "heartbeat" {
				s.presence.Heartbeat(sessionID, playerID)
			}
		}
	}()

	// Initial snapshot so the client renders without waiting for a change.
	if snap, err := s.machine.Get(r.Context(), sessionID); err == nil {
		_ = conn.WriteJSON(viewOf(snap))
	}

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	pinger := time.NewTicker(5 * time.Second)
	defer pinger.Stop()

	for {
		select {
		case <-done:
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(viewOf(snap)); err != nil {
				return
			}
		case <-pinger.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(2*time.Second)); err != nil {
				return
			}
		case <-ticker.C:
			// Supervisory tick on behalf of this client. Failures are
			// re-attempted on the next tick by any client; nothing is
			// assumed committed until the store confirms it.
			if _, err := s.machine.Tick(r.Context(), sessionID, playerID, time.Now()); err != nil {
				log.Debug().Err(err).Str("session", sessionID).Msg("tick")
			}
		}
	}
}
