package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Message is an addressed chat payload. It is immutable once constructed and
// only exists in transit; nothing is persisted.
type Message struct {
	Sender     string    `json:"sender"`
	Recipients []string  `json:"recipients"`
	Body       string    `json:"body"`
	SentAt     time.Time `json:"sent_at"`
}

func NewMessage(sender string, recipients []string, body string) Message {
	return Message{
		Sender:     sender,
		Recipients: NormalizeRecipients(recipients),
		Body:       body,
		SentAt:     time.Now().UTC(),
	}
}

// NormalizeRecipients trims, drops empties and deduplicates while keeping the
// order the sender wrote. An empty result falls back to the default group.
func NormalizeRecipients(recipients []string) []string {
	cleaned := lo.FilterMap(recipients, func(r string, _ int) (string, bool) {
		r = strings.TrimSpace(r)
		return r, r != ""
	})
	cleaned = lo.Uniq(cleaned)
	if len(cleaned) == 0 {
		return []string{DefaultGroup}
	}
	return cleaned
}

// Delivery is what group members receive on a group topic. The group name is
// carried by the topic itself, never duplicated in the payload.
type Delivery struct {
	Sender string    `json:"sender"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

func EncodeDelivery(d Delivery) ([]byte, error) {
	return json.Marshal(d)
}

func DecodeDelivery(payload []byte) (Delivery, error) {
	var d Delivery
	if err := json.Unmarshal(payload, &d); err != nil {
		return Delivery{}, fmt.Errorf("decode delivery: %w", err)
	}
	return d, nil
}
