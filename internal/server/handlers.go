// Package server exposes the HTTP surface of the relay: the WebSocket upgrade
// endpoint, the banner, and the health check.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stchat/relay/internal/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// WebSocketHandler upgrades the request and registers the connection with the
// global hub.
func WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	ServeWS(hub, w, r)
}

// ServeWS upgrades the request and hands the connection to the given hub,
// which launches the read/write pumps. Exported so tests can run isolated
// hubs.
func ServeWS(h *Hub, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(conn, h, r.RemoteAddr)
	select {
	case h.register <- client:
	case <-h.ctx.Done():
		_ = conn.Close()
	}
}

// RootHandler responds with a plain-text banner confirming the relay is up.
func RootHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, "STChat relay is running")
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// HealthHandler reports liveness as a small JSON document.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	resp := healthResponse{
		Status:    "healthy",
		Timestamp: protocol.FormatTimestamp(time.Now()),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Error writing health response: %v", err)
	}
}
