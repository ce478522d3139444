// Package server defines shared connection-level types and helpers reused
// across client and hub logic.
package server

import "strings"

// inbound envelopes a raw client frame with the connection that produced it so
// the hub loop can resolve identity and liveness while applying the event.
type inbound struct {
	client *Client
	raw    []byte
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
