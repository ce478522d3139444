// Package protocol decodes client frames into an explicit event union so that
// dispatch never relies on field-absence inference spread across handlers.
package protocol

import (
	"encoding/json"
	"fmt"
)

// AnonymousUser is the author recorded when a chat frame carries no user field.
const AnonymousUser = "Anonymous"

// Inbound is a client event decoded from a single JSON text frame. Exactly one
// of the concrete variants below implements it.
type Inbound interface {
	inbound()
}

// Join requests binding a display name to the connection.
type Join struct {
	User string
}

// Typing signals that a participant started or stopped typing.
type Typing struct {
	User     string
	IsTyping bool
}

// DeleteMessage asks the relay to remove a message the sender authored.
type DeleteMessage struct {
	ID   int64
	User string
}

// React toggles the sender's emoji reaction on a message.
type React struct {
	MsgID int64
	Emoji string
	User  string
}

// NewMessage carries an encrypted chat message. The wire frame has no type
// field; any frame without a recognized type decodes to this variant.
type NewMessage struct {
	User    string
	Text    string
	IV      string
	ReplyTo json.RawMessage
}

func (Join) inbound()          {}
func (Typing) inbound()        {}
func (DeleteMessage) inbound() {}
func (React) inbound()         {}
func (NewMessage) inbound()    {}

// inboundFrame is the superset of fields any client frame may carry.
type inboundFrame struct {
	Type     string          `json:"type"`
	User     string          `json:"user"`
	IsTyping bool            `json:"isTyping"`
	ID       int64           `json:"id"`
	MsgID    int64           `json:"msgId"`
	Emoji    string          `json:"emoji"`
	Text     string          `json:"text"`
	IV       string          `json:"iv"`
	ReplyTo  json.RawMessage `json:"replyTo"`
}

// DecodeInbound parses a raw client frame into its event variant. Malformed
// JSON is an error; the caller is expected to log and drop the frame.
func DecodeInbound(raw []byte) (Inbound, error) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("decode inbound frame: %w", err)
	}

	switch frame.Type {
	case "join":
		return Join{User: frame.User}, nil
	case "typing":
		return Typing{User: frame.User, IsTyping: frame.IsTyping}, nil
	case "delete_message":
		return DeleteMessage{ID: frame.ID, User: frame.User}, nil
	case "react":
		return React{MsgID: frame.MsgID, Emoji: frame.Emoji, User: frame.User}, nil
	default:
		// Untyped frames are encrypted chat messages.
		user := frame.User
		if user == "" {
			user = AnonymousUser
		}
		return NewMessage{User: user, Text: frame.Text, IV: frame.IV, ReplyTo: frame.ReplyTo}, nil
	}
}
