package integration

import (
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/stchat/relay/internal/server"
	"github.com/stchat/relay/test/testhelpers"
)

func TestHandshakeRejectsDisallowedOrigin(t *testing.T) {
	wsURL, _ := startRelay(t, nil)

	conn, err := testhelpers.DialErr(wsURL, "http://evil.example.com")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.Nil(t, conn)
}

func TestHandshakeAllowsAnyOriginWithWildcard(t *testing.T) {
	wsURL, _ := startRelay(t, func(cfg *server.Config) {
		cfg.AllowedOrigins = []string{"*"}
	})

	conn, err := testhelpers.DialErr(wsURL, "http://anywhere.example.com")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	history := testhelpers.Join(t, conn, "wildcard")
	require.Empty(t, history)
}

func TestMalformedFrameIsDroppedWithoutClosing(t *testing.T) {
	wsURL, origin := startRelay(t, nil)

	conn := testhelpers.Dial(t, wsURL, origin)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json at all")))

	// The connection survives and the room still works.
	history := testhelpers.Join(t, conn, "alice")
	require.Empty(t, history)
}

func TestOversizedFrameClosesOnlyThatConnection(t *testing.T) {
	wsURL, origin := startRelay(t, func(cfg *server.Config) {
		cfg.MaxMessageSize = 128
	})

	alice := testhelpers.Dial(t, wsURL, origin)
	testhelpers.Join(t, alice, "alice")

	flooder := testhelpers.Dial(t, wsURL, origin)
	big := strings.Repeat("x", 4096)
	require.NoError(t, flooder.WriteMessage(websocket.TextMessage, []byte(big)))

	// The relay tears down the offending connection.
	_ = flooder.SetReadDeadline(time.Now().Add(testhelpers.ReadTimeout))
	_, _, err := flooder.ReadMessage()
	require.Error(t, err)

	// alice is unaffected.
	testhelpers.SendJSON(t, alice, map[string]any{"user": "alice", "text": "ct", "iv": "iv"})
	frame := testhelpers.ReadFrame(t, alice)
	require.Equal(t, "message", frame["type"])
}

func TestRateLimitDiscardsExcessFrames(t *testing.T) {
	wsURL, origin := startRelay(t, func(cfg *server.Config) {
		cfg.RateLimit.Burst = 2
		cfg.RateLimit.RefillInterval = time.Hour
	})

	alice := testhelpers.Dial(t, wsURL, origin)
	testhelpers.Join(t, alice, "alice") // first token

	testhelpers.SendJSON(t, alice, map[string]any{"user": "alice", "text": "ct1", "iv": "iv1"}) // second token
	frame := testhelpers.ReadFrame(t, alice)
	require.Equal(t, "message", frame["type"])

	// The budget is spent; this frame is discarded, not relayed.
	testhelpers.SendJSON(t, alice, map[string]any{"user": "alice", "text": "ct2", "iv": "iv2"})
	testhelpers.ExpectNoFrame(t, alice, 300*time.Millisecond)
}
