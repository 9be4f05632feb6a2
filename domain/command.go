package domain

import (
	"encoding/json"
	"fmt"
)

type CommandKind string

const (
	KindSend      CommandKind = "send"
	KindStatus    CommandKind = "status"
	KindTerminate CommandKind = "terminate"
)

// Command is the tagged envelope a client session publishes on the backend's
// inbound topic. It is consumed exactly once by the actor's mailbox loop.
type Command struct {
	Kind      CommandKind `json:"kind"`
	SessionID string      `json:"session_id"`
	Message   *Message    `json:"message,omitempty"`
}

func (c Command) Validate() error {
	if c.SessionID == "" {
		return fmt.Errorf("command without session id")
	}
	switch c.Kind {
	case KindSend:
		if c.Message == nil {
			return fmt.Errorf("send command without message")
		}
	case KindStatus, KindTerminate:
	default:
		return fmt.Errorf("unknown command kind %q", c.Kind)
	}
	return nil
}

func EncodeCommand(c Command) ([]byte, error) {
	return json.Marshal(c)
}

func DecodeCommand(payload []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(payload, &c); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Command{}, err
	}
	return c, nil
}
