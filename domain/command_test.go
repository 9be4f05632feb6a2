package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeCommand_RoundTrip(t *testing.T) {
	req := require.New(t)
	msg := NewMessage("session-1", []string{"r0", "r1"}, "message")

	payload, err := EncodeCommand(Command{Kind: KindSend, SessionID: "session-1", Message: &msg})
	req.NoError(err)

	got, err := DecodeCommand(payload)
	req.NoError(err)
	req.Equal(KindSend, got.Kind)
	req.Equal("session-1", got.SessionID)
	req.Equal([]string{"r0", "r1"}, got.Message.Recipients)
	req.Equal("message", got.Message.Body)
}

func TestDecodeCommand_Rejects(t *testing.T) {
	req := require.New(t)

	// Not JSON at all
	_, err := DecodeCommand([]byte("(send_message @all hello)"))
	req.Error(err)

	// Unknown kind
	_, err = DecodeCommand([]byte(`{"kind":"shout","session_id":"s"}`))
	req.Error(err)

	// Send without a message
	_, err = DecodeCommand([]byte(`{"kind":"send","session_id":"s"}`))
	req.Error(err)

	// Missing session id
	_, err = DecodeCommand([]byte(`{"kind":"terminate"}`))
	req.Error(err)
}

func TestDecodeResponse_RoundTrip(t *testing.T) {
	req := require.New(t)

	payload, err := EncodeResponse(Response{
		Kind:         KindConfirmation,
		Confirmation: &Confirmation{Recipients: []string{"general"}, Body: "hello"},
	})
	req.NoError(err)

	got, err := DecodeResponse(payload)
	req.NoError(err)
	req.Equal(KindConfirmation, got.Kind)
	req.Equal([]string{"general"}, got.Confirmation.Recipients)
	req.Equal("hello", got.Confirmation.Body)
}

func TestDecodeResponse_Rejects(t *testing.T) {
	req := require.New(t)

	// Kind without its payload
	_, err := DecodeResponse([]byte(`{"kind":"confirmation"}`))
	req.Error(err)

	_, err = DecodeResponse([]byte(`{"kind":"status"}`))
	req.Error(err)

	// Unknown kind
	_, err = DecodeResponse([]byte(`{"kind":"ack"}`))
	req.Error(err)
}
