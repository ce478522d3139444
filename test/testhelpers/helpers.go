// Package testhelpers provides shared utilities for exercising the relay over
// real HTTP servers and WebSocket connections.
package testhelpers

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// ReadTimeout bounds how long tests wait for a single broadcast frame.
const ReadTimeout = 2 * time.Second

// WebSocketURL converts an httptest server URL into the ws:// URL of the
// relay endpoint.
func WebSocketURL(t *testing.T, baseURL string) string {
	t.Helper()

	u, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("Failed to parse test server URL: %v", err)
	}
	u.Scheme = "ws"
	u.Path = "/ws"
	return u.String()
}

// Dial opens a WebSocket connection with the given Origin header and registers
// cleanup for it.
func Dial(t *testing.T, wsURL, origin string) *websocket.Conn {
	t.Helper()

	conn, err := DialErr(wsURL, origin)
	if err != nil {
		t.Fatalf("Failed to connect to %s: %v", wsURL, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// DialErr opens a WebSocket connection and returns the dial error, for tests
// asserting on refused handshakes.
func DialErr(wsURL, origin string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(wsURL, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// SendJSON writes v as a single JSON text frame.
func SendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("Failed to send frame: %v", err)
	}
}

// ReadFrame reads one JSON frame into a generic map, failing the test if no
// frame arrives within ReadTimeout.
func ReadFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(ReadTimeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}

	var frame map[string]any
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("Failed to read frame: %v", err)
	}
	return frame
}

// ReadFrameOfType reads frames until one of the wanted type arrives, failing
// on timeout. Useful when interleaved broadcasts (typing, userList) are not
// under test.
func ReadFrameOfType(t *testing.T, conn *websocket.Conn, wanted string) map[string]any {
	t.Helper()

	deadline := time.Now().Add(ReadTimeout)
	for time.Now().Before(deadline) {
		frame := ReadFrame(t, conn)
		if frame["type"] == wanted {
			return frame
		}
	}
	t.Fatalf("No %q frame arrived within %s", wanted, ReadTimeout)
	return nil
}

// ExpectNoFrame asserts that no frame arrives on conn within the timeout.
func ExpectNoFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("Expected no frame, but received one")
	}
	if netErr, ok := err.(interface{ Timeout() bool }); ok && netErr.Timeout() {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return
	}
	t.Fatalf("Unexpected error while waiting for absence of frames: %v", err)
}

// Join sends a join frame for name and consumes the history and userList
// frames every successful joiner receives. It returns the history payload.
func Join(t *testing.T, conn *websocket.Conn, name string) []any {
	t.Helper()

	SendJSON(t, conn, map[string]any{"type": "join", "user": name})

	history := ReadFrame(t, conn)
	if history["type"] != "history" {
		t.Fatalf("Expected history frame after join, got %v", history["type"])
	}
	userList := ReadFrame(t, conn)
	if userList["type"] != "userList" {
		t.Fatalf("Expected userList frame after join, got %v", userList["type"])
	}

	payload, _ := history["payload"].([]any)
	return payload
}

// Users extracts the users field of a userList frame as strings.
func Users(t *testing.T, frame map[string]any) []string {
	t.Helper()

	raw, ok := frame["users"].([]any)
	if !ok {
		t.Fatalf("Frame has no users array: %v", frame)
	}
	users := make([]string, 0, len(raw))
	for _, u := range raw {
		users = append(users, u.(string))
	}
	return users
}
