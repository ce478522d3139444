package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stchat/relay/internal/protocol"
)

func TestDecodeInboundJoin(t *testing.T) {
	event, err := protocol.DecodeInbound([]byte(`{"type":"join","user":"alice"}`))
	require.NoError(t, err)
	require.Equal(t, protocol.Join{User: "alice"}, event)
}

func TestDecodeInboundTyping(t *testing.T) {
	event, err := protocol.DecodeInbound([]byte(`{"type":"typing","user":"alice","isTyping":true}`))
	require.NoError(t, err)
	require.Equal(t, protocol.Typing{User: "alice", IsTyping: true}, event)
}

func TestDecodeInboundDelete(t *testing.T) {
	event, err := protocol.DecodeInbound([]byte(`{"type":"delete_message","id":1718000000000,"user":"alice"}`))
	require.NoError(t, err)
	require.Equal(t, protocol.DeleteMessage{ID: 1718000000000, User: "alice"}, event)
}

func TestDecodeInboundReact(t *testing.T) {
	event, err := protocol.DecodeInbound([]byte(`{"type":"react","msgId":42,"emoji":"👍","user":"bobby"}`))
	require.NoError(t, err)
	require.Equal(t, protocol.React{MsgID: 42, Emoji: "👍", User: "bobby"}, event)
}

func TestDecodeInboundUntypedFrameIsNewMessage(t *testing.T) {
	raw := []byte(`{"user":"alice","text":"ct","iv":"iv","replyTo":{"id":7,"user":"bobby","text":"ct0","iv":"iv0"}}`)

	event, err := protocol.DecodeInbound(raw)
	require.NoError(t, err)

	msg, ok := event.(protocol.NewMessage)
	require.True(t, ok)
	require.Equal(t, "alice", msg.User)
	require.Equal(t, "ct", msg.Text)
	require.Equal(t, "iv", msg.IV)
	require.JSONEq(t, `{"id":7,"user":"bobby","text":"ct0","iv":"iv0"}`, string(msg.ReplyTo))
}

func TestDecodeInboundUnknownTypeFallsBackToNewMessage(t *testing.T) {
	event, err := protocol.DecodeInbound([]byte(`{"type":"whatever","user":"alice","text":"ct","iv":"iv"}`))
	require.NoError(t, err)
	require.IsType(t, protocol.NewMessage{}, event)
}

func TestDecodeInboundAnonymousFallback(t *testing.T) {
	event, err := protocol.DecodeInbound([]byte(`{"text":"ct","iv":"iv"}`))
	require.NoError(t, err)

	msg, ok := event.(protocol.NewMessage)
	require.True(t, ok)
	require.Equal(t, protocol.AnonymousUser, msg.User)
	require.Nil(t, msg.ReplyTo)
}

func TestDecodeInboundMalformed(t *testing.T) {
	for _, raw := range []string{`{"type":"join",`, `not json`, `"just a string"`} {
		_, err := protocol.DecodeInbound([]byte(raw))
		require.Error(t, err, "raw=%s", raw)
	}
}
