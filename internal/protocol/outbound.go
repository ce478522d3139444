package protocol

import (
	"encoding/json"
	"time"
)

// Error codes surfaced to clients as typed error frames.
const CodeUsernameTaken = "USERNAME_TAKEN"

type errorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type historyFrame struct {
	Type    string    `json:"type"`
	Payload []Message `json:"payload"`
}

type messageFrame struct {
	Type    string  `json:"type"`
	Payload Message `json:"payload"`
}

type reactionUpdateFrame struct {
	Type      string    `json:"type"`
	MsgID     int64     `json:"msgId"`
	Reactions Reactions `json:"reactions"`
}

type systemFrame struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type userListFrame struct {
	Type  string   `json:"type"`
	Users []string `json:"users"`
}

type typingFrame struct {
	Type     string `json:"type"`
	User     string `json:"user"`
	IsTyping bool   `json:"isTyping"`
}

// ErrorFrame builds a typed error frame for the offending client.
func ErrorFrame(code, message string) ([]byte, error) {
	return json.Marshal(errorFrame{Type: "error", Code: code, Message: message})
}

// HistoryFrame builds the full room log sent to a participant at join time.
func HistoryFrame(messages []Message) ([]byte, error) {
	if messages == nil {
		messages = []Message{}
	}
	return json.Marshal(historyFrame{Type: "history", Payload: messages})
}

// HistoryUpdateFrame builds the full room log rebroadcast after deletions.
func HistoryUpdateFrame(messages []Message) ([]byte, error) {
	if messages == nil {
		messages = []Message{}
	}
	return json.Marshal(historyFrame{Type: "history_update", Payload: messages})
}

// MessageFrame builds the broadcast for a newly appended message.
func MessageFrame(msg Message) ([]byte, error) {
	return json.Marshal(messageFrame{Type: "message", Payload: msg})
}

// ReactionUpdateFrame builds the broadcast carrying a message's current
// reactions after a toggle.
func ReactionUpdateFrame(msgID int64, reactions Reactions) ([]byte, error) {
	if reactions == nil {
		reactions = Reactions{}
	}
	return json.Marshal(reactionUpdateFrame{Type: "reaction_update", MsgID: msgID, Reactions: reactions})
}

// SystemFrame builds a transient notice shown in client UIs.
func SystemFrame(text string, at time.Time) ([]byte, error) {
	return json.Marshal(systemFrame{Type: "system", Text: text, Timestamp: FormatTimestamp(at)})
}

// UserListFrame builds the connected-participant broadcast.
func UserListFrame(users []string) ([]byte, error) {
	if users == nil {
		users = []string{}
	}
	return json.Marshal(userListFrame{Type: "userList", Users: users})
}

// TypingFrame rebroadcasts a typing indicator to the other participants.
func TypingFrame(user string, isTyping bool) ([]byte, error) {
	return json.Marshal(typingFrame{Type: "typing", User: user, IsTyping: isTyping})
}
