package domain

import (
	"encoding/json"
	"fmt"
)

type ResponseKind string

const (
	KindConfirmation ResponseKind = "confirmation"
	KindStatusReply  ResponseKind = "status"
)

// Confirmation echoes back what was actually delivered, so the originating
// session can display the resolved group list.
type Confirmation struct {
	Recipients []string `json:"recipients"`
	Body       string   `json:"body"`
}

type GroupStatus struct {
	Name      string `json:"name"`
	Members   int    `json:"members"`
	Delivered uint64 `json:"delivered"`
}

type StatusReply struct {
	InstanceID string        `json:"instance_id"`
	Groups     []GroupStatus `json:"groups"`
}

// Response is the envelope published on a session's response topic.
type Response struct {
	Kind         ResponseKind  `json:"kind"`
	Confirmation *Confirmation `json:"confirmation,omitempty"`
	Status       *StatusReply  `json:"status,omitempty"`
}

func (r Response) Validate() error {
	switch r.Kind {
	case KindConfirmation:
		if r.Confirmation == nil {
			return fmt.Errorf("confirmation response without payload")
		}
	case KindStatusReply:
		if r.Status == nil {
			return fmt.Errorf("status response without payload")
		}
	default:
		return fmt.Errorf("unknown response kind %q", r.Kind)
	}
	return nil
}

func EncodeResponse(r Response) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeResponse(payload []byte) (Response, error) {
	var r Response
	if err := json.Unmarshal(payload, &r); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	if err := r.Validate(); err != nil {
		return Response{}, err
	}
	return r, nil
}
