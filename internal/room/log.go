// Package room implements the ordered in-memory message history for the single
// shared chat room.
package room

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"

	"github.com/stchat/relay/internal/protocol"
)

// Log is the room's message history. Append-only except for author deletions,
// disconnect purges, and the empty-room reset.
type Log struct {
	messages []protocol.Message
	lastID   int64
	now      func() time.Time
}

// NewLog returns an empty room log backed by the wall clock.
func NewLog() *Log {
	return &Log{now: time.Now}
}

// Append stores a new message and returns the stored record. Ids are epoch
// milliseconds bumped past the previous id, so arrival order is strictly
// increasing even when two messages land in the same millisecond.
func (l *Log) Append(user, text, iv string, replyTo json.RawMessage) protocol.Message {
	now := l.now()
	id := now.UnixMilli()
	if id <= l.lastID {
		id = l.lastID + 1
	}
	l.lastID = id

	msg := protocol.Message{
		ID:        id,
		User:      user,
		Text:      text,
		IV:        iv,
		ReplyTo:   replyTo,
		Timestamp: protocol.FormatTimestamp(now),
	}
	l.messages = append(l.messages, msg)
	return msg
}

// Delete removes the message with the given id iff the requesting user is its
// author. It reports whether anything was removed; misses are the caller's
// silent no-op.
func (l *Log) Delete(id int64, author string) bool {
	_, idx, ok := lo.FindIndexOf(l.messages, func(m protocol.Message) bool {
		return m.ID == id && m.User == author
	})
	if !ok {
		return false
	}
	l.messages = append(l.messages[:idx], l.messages[idx+1:]...)
	return true
}

// React applies toggle semantics for user's emoji on the message with the given
// id: any existing reaction by the user is removed first, and the requested
// emoji is added only if it differs from the one removed. Empty emoji sets are
// pruned. The updated reactions map is returned along with whether the message
// exists.
func (l *Log) React(id int64, user, emoji string) (protocol.Reactions, bool) {
	_, idx, ok := lo.FindIndexOf(l.messages, func(m protocol.Message) bool {
		return m.ID == id
	})
	if !ok {
		return nil, false
	}

	msg := &l.messages[idx]
	if msg.Reactions == nil {
		msg.Reactions = protocol.Reactions{}
	}

	sameEmoji := false
	for existing, users := range msg.Reactions {
		if !lo.Contains(users, user) {
			continue
		}
		if existing == emoji {
			sameEmoji = true
		}
		remaining := lo.Without(users, user)
		if len(remaining) == 0 {
			delete(msg.Reactions, existing)
		} else {
			msg.Reactions[existing] = remaining
		}
	}

	if !sameEmoji {
		msg.Reactions[emoji] = append(msg.Reactions[emoji], user)
	}
	return msg.Reactions, true
}

// PurgeAuthor drops every message authored by name and returns how many were
// removed. Called when a participant disconnects.
func (l *Log) PurgeAuthor(name string) int {
	before := len(l.messages)
	l.messages = lo.Filter(l.messages, func(m protocol.Message, _ int) bool {
		return m.User != name
	})
	return before - len(l.messages)
}

// Reset clears the log entirely. Called when the last connection closes.
func (l *Log) Reset() {
	l.messages = nil
}

// Snapshot returns a copy of the current history for broadcast frames. The
// copy shares reaction maps with the log; callers marshal it before the hub
// loop mutates state again.
func (l *Log) Snapshot() []protocol.Message {
	out := make([]protocol.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len reports the number of stored messages.
func (l *Log) Len() int {
	return len(l.messages)
}
