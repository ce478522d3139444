package integration

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/stchat/relay/internal/server"
	"github.com/stchat/relay/test/testhelpers"
)

func TestHubShutdownClosesConnections(t *testing.T) {
	h := server.NewHub()
	go h.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		server.ServeWS(h, w, r)
	})
	testServer := httptest.NewServer(mux)
	t.Cleanup(testServer.Close)

	cfg := server.NewConfig()
	cfg.AllowedOrigins = append([]string{testServer.URL}, cfg.AllowedOrigins...)
	server.SetConfig(cfg)
	t.Cleanup(func() { server.SetConfig(nil) })

	wsURL := testhelpers.WebSocketURL(t, testServer.URL)
	alice := testhelpers.Dial(t, wsURL, testServer.URL)
	testhelpers.Join(t, alice, "alice")
	bobby := testhelpers.Dial(t, wsURL, testServer.URL)
	testhelpers.Join(t, bobby, "bobby")

	require.NoError(t, h.Shutdown(2*time.Second))

	// Both connections are gone. Frames queued before the shutdown may still
	// drain, but the reads must end in an error rather than a timeout.
	for _, conn := range []*websocket.Conn{alice, bobby} {
		_ = conn.SetReadDeadline(time.Now().Add(testhelpers.ReadTimeout))
		var err error
		for i := 0; i < 10; i++ {
			if _, _, err = conn.ReadMessage(); err != nil {
				break
			}
		}
		require.Error(t, err)
	}
}

func TestServerShutdownIsGraceful(t *testing.T) {
	srv := server.CreateServer(":0", server.NewRouter())

	errCh := make(chan error, 1)
	go func() { errCh <- server.StartServer(srv) }()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, server.ShutdownServer(srv, 2*time.Second))
	require.ErrorIs(t, <-errCh, http.ErrServerClosed)
}
