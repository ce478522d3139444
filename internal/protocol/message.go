// Package protocol defines the JSON wire format exchanged between chat clients
// and the relay. The relay never decrypts message bodies, so the stored record
// and the broadcast payload share one shape.
package protocol

import (
	"encoding/json"
	"time"
)

// timestampLayout matches JavaScript's Date.prototype.toISOString output so
// existing web clients parse timestamps unchanged.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t as an ISO-8601 UTC timestamp with millisecond
// precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// Reactions maps an emoji to the display names currently reacting with it.
// Invariant: no emoji key ever maps to an empty set, and a given user appears
// under at most one emoji per message.
type Reactions map[string][]string

// Message is one unit of room history. Text and IV carry ciphertext produced
// by the client; ReplyTo is an equally opaque blob referencing the quoted
// message. The relay stores and forwards all three without inspection.
type Message struct {
	ID        int64           `json:"id"`
	User      string          `json:"user"`
	Text      string          `json:"text"`
	IV        string          `json:"iv"`
	ReplyTo   json.RawMessage `json:"replyTo,omitempty"`
	Timestamp string          `json:"timestamp"`
	Reactions Reactions       `json:"reactions,omitempty"`
}
