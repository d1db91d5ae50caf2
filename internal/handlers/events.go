package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/inboxpilot/gateway/internal/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, implement proper origin checking
	},
}

// HandleEvents upgrades a dashboard connection and keeps it registered for
// snapshot lifecycle events until the peer goes away
func (h *Handlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	handle := h.sessions.Lookup(r.Context(), r)
	if handle == nil || !handle.Snapshot().IsAuthenticated {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn(logger.EVENTS, "Failed to upgrade connection: %v", err)
		return
	}

	h.events.AddConnection(conn, handle.ID())
	defer func() {
		h.events.RemoveConnection(conn)
		conn.Close()
	}()

	timeouts := h.events.GetTimeouts()

	// Set up ping/pong handlers
	conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))
	})

	// Start ping ticker in separate goroutine
	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(timeouts.PingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				deadline := time.Now().Add(timeouts.WriteWait)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Read loop exists only to process pongs and detect disconnects; the
	// event stream is one-way.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			logger.Debug(logger.EVENTS, "Connection closed for session %s: %v", handle.ID(), err)
			return
		}
	}
}
