package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins - configure properly in production
	},
}

// handleLive upgrades to a websocket and pushes a stats snapshot every
// PushInterval until the client disconnects.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	done := make(chan struct{})
	go func() {
		// Drain client frames; any read error means the peer is gone.
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.config.PushInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	// Push an immediate snapshot so clients render without waiting a tick.
	if err := conn.WriteJSON(s.source.Stats()); err != nil {
		return
	}
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteJSON(s.source.Stats()); err != nil {
				return
			}
		}
	}
}
