// Package client implements the session side: resolve the backend through
// the registry, submit commands on its inbound topic and wait for replies on
// the session's own response topic. Sessions are independent; the only thing
// two sessions share is group membership on the backend.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"groupchat/addressing"
	"groupchat/contract"
	"groupchat/domain"
	apperrors "groupchat/errors"
)

const responseBuffer = 16

type Session struct {
	ID string

	log             *slog.Logger
	transport       contract.Transport
	registry        contract.Registry
	serviceName     string
	responseTimeout time.Duration

	commandTopic string
	responses    chan domain.Response
	sub          contract.Subscription
}

func NewSession(log *slog.Logger, transport contract.Transport, registry contract.Registry,
	serviceName string, responseTimeout time.Duration) *Session {
	return &Session{
		ID:              uuid.NewString(),
		log:             log,
		transport:       transport,
		registry:        registry,
		serviceName:     serviceName,
		responseTimeout: responseTimeout,
		responses:       make(chan domain.Response, responseBuffer),
	}
}

// Open resolves the backend and subscribes the session's response topic. The
// subscription must exist before the first Send, otherwise a fast echo could
// be lost.
func (s *Session) Open(ctx context.Context) error {
	rec, err := s.registry.Resolve(ctx, s.serviceName)
	if err != nil {
		return err
	}

	sub, err := s.transport.Subscribe(addressing.ResponseTopic(s.ID), s.receive)
	if err != nil {
		return fmt.Errorf("subscribe response topic: %w", err)
	}

	s.sub = sub
	s.commandTopic = rec.CommandTopic
	s.log.Debug("Session open",
		"session", s.ID, "backend", rec.Identity.InstanceID, "topic", s.commandTopic)
	return nil
}

func (s *Session) receive(topic string, payload []byte) {
	resp, err := domain.DecodeResponse(payload)
	if err != nil {
		s.log.Warn("Dropping malformed response", "topic", topic, "error", err)
		return
	}
	select {
	case s.responses <- resp:
	default:
		s.log.Warn("Response buffer full, dropping", "kind", resp.Kind)
	}
}

// Send submits a message and waits for the backend's confirmation echo. On
// timeout it reports ErrNoResponse and does not retry: the broadcast may
// already have reached the groups, so resending is the operator's call.
func (s *Session) Send(ctx context.Context, recipients []string, body string) (domain.Confirmation, error) {
	msg := domain.NewMessage(s.ID, recipients, body)
	if err := s.publish(domain.Command{Kind: domain.KindSend, SessionID: s.ID, Message: &msg}); err != nil {
		return domain.Confirmation{}, err
	}

	resp, err := s.waitFor(ctx, domain.KindConfirmation)
	if err != nil {
		return domain.Confirmation{}, err
	}
	return *resp.Confirmation, nil
}

// Status asks the backend for its group table.
func (s *Session) Status(ctx context.Context) (domain.StatusReply, error) {
	if err := s.publish(domain.Command{Kind: domain.KindStatus, SessionID: s.ID}); err != nil {
		return domain.StatusReply{}, err
	}

	resp, err := s.waitFor(ctx, domain.KindStatusReply)
	if err != nil {
		return domain.StatusReply{}, err
	}
	return *resp.Status, nil
}

// Exit requests backend termination, fire and forget: by the time any reply
// could arrive the backend may already be gone.
func (s *Session) Exit() error {
	return s.publish(domain.Command{Kind: domain.KindTerminate, SessionID: s.ID})
}

// Watch subscribes to a group's broadcast topic and hands decoded deliveries
// to fn. The caller owns the returned subscription.
func (s *Session) Watch(group string, fn func(group string, d domain.Delivery)) (contract.Subscription, error) {
	topic := addressing.GroupTopic(group)
	return s.transport.Subscribe(topic, func(topic string, payload []byte) {
		kind, name, err := addressing.Parse(topic)
		if err != nil || kind != addressing.KindGroup {
			s.log.Warn("Dropping delivery on unexpected topic", "topic", topic, "error", err)
			return
		}
		d, err := domain.DecodeDelivery(payload)
		if err != nil {
			s.log.Warn("Dropping malformed delivery", "topic", topic, "error", err)
			return
		}
		fn(name, d)
	})
}

func (s *Session) Close() {
	if s.sub != nil {
		if err := s.sub.Unsubscribe(); err != nil {
			s.log.Warn("Unsubscribe failed", "error", err)
		}
		s.sub = nil
	}
}

func (s *Session) publish(cmd domain.Command) error {
	if s.commandTopic == "" {
		return fmt.Errorf("session not open")
	}
	payload, err := domain.EncodeCommand(cmd)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}
	return s.transport.Publish(s.commandTopic, payload)
}

// waitFor blocks until a response of the wanted kind arrives, the timeout
// elapses or the caller aborts. Responses of other kinds are discarded.
func (s *Session) waitFor(ctx context.Context, kind domain.ResponseKind) (domain.Response, error) {
	deadline := time.NewTimer(s.responseTimeout)
	defer deadline.Stop()
	for {
		select {
		case resp := <-s.responses:
			if resp.Kind == kind {
				return resp, nil
			}
			s.log.Debug("Discarding unexpected response", "kind", resp.Kind)
		case <-deadline.C:
			return domain.Response{}, apperrors.ErrNoResponse
		case <-ctx.Done():
			return domain.Response{}, ctx.Err()
		}
	}
}
