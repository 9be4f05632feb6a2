// Package transport adapts the external publish/subscribe broker to the
// narrow contract the rest of the system depends on. Payloads are opaque
// bytes; all routing information lives in the topic.
package transport

import (
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"groupchat/contract"
	apperrors "groupchat/errors"
)

type NATSBus struct {
	nc  *nats.Conn
	log *slog.Logger
}

// ConnectNATS dials the broker selected by url and returns the adapter.
// The connection name shows up in broker monitoring.
func ConnectNATS(url, name string, log *slog.Logger) (*NATSBus, error) {
	nc, err := nats.Connect(url, nats.Name(name))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return &NATSBus{nc: nc, log: log}, nil
}

func (b *NATSBus) Publish(topic string, payload []byte) error {
	if err := b.nc.Publish(topic, payload); err != nil {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrPublishFailure, topic, err)
	}
	return nil
}

func (b *NATSBus) Subscribe(pattern string, handler func(topic string, payload []byte)) (contract.Subscription, error) {
	sub, err := b.nc.Subscribe(pattern, func(m *nats.Msg) {
		handler(m.Subject, m.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", pattern, err)
	}
	return sub, nil
}

// Close flushes pending outbound messages before releasing the connection, so
// a fire-and-forget publish issued just before shutdown still leaves the
// process.
func (b *NATSBus) Close() error {
	if err := b.nc.Flush(); err != nil {
		b.log.Warn("Flush before close failed", "error", err)
	}
	b.nc.Close()
	return nil
}

// Conn exposes the underlying connection for JetStream-based collaborators
// (the registry stores its records in a JetStream key-value bucket).
func (b *NATSBus) Conn() *nats.Conn {
	return b.nc
}
