// Package integration contains end-to-end tests for the relay.
//
// These tests run the full stack — hub event loop, client pumps, and HTTP
// upgrade endpoint — against real WebSocket connections, verifying the wire
// protocol exactly as chat clients observe it.
package integration

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stchat/relay/internal/server"
	"github.com/stchat/relay/test/testhelpers"
)

// startRelay boots an isolated hub behind an httptest server so each test
// observes a fresh room. It returns the ws:// endpoint URL and the allowed
// origin for dialing.
func startRelay(t *testing.T, customize func(cfg *server.Config)) (wsURL, origin string) {
	t.Helper()

	h := server.NewHub()
	go h.Run()
	t.Cleanup(func() { _ = h.Shutdown(2 * time.Second) })

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		server.ServeWS(h, w, r)
	})
	testServer := httptest.NewServer(mux)
	t.Cleanup(testServer.Close)

	cfg := server.NewConfig()
	cfg.AllowedOrigins = append([]string{testServer.URL}, cfg.AllowedOrigins...)
	if customize != nil {
		customize(cfg)
	}
	server.SetConfig(cfg)
	t.Cleanup(func() { server.SetConfig(nil) })

	return testhelpers.WebSocketURL(t, testServer.URL), testServer.URL
}
