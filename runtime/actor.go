// Package runtime owns the backend actor: the single authority for message
// fan-out and its own lifecycle. All group state is confined to the mailbox
// goroutine; transport callbacks only enqueue.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"groupchat/addressing"
	"groupchat/contract"
	"groupchat/domain"
	apperrors "groupchat/errors"
)

type Actor struct {
	log         *slog.Logger
	transport   contract.Transport
	registry    contract.Registry
	serviceName string
	identity    domain.ServiceIdentity
	drainWindow time.Duration

	// Owned by the mailbox goroutine once Running.
	groups map[string]*domain.Group

	mailbox chan domain.Command

	mu    sync.Mutex
	state State
	sub   contract.Subscription
	done  chan struct{}
}

func NewActor(log *slog.Logger, transport contract.Transport, registry contract.Registry,
	serviceName string, bufferSize int, drainWindow time.Duration) *Actor {
	groups := map[string]*domain.Group{
		domain.DefaultGroup: domain.NewGroup(domain.DefaultGroup),
	}
	return &Actor{
		log:         log,
		transport:   transport,
		registry:    registry,
		serviceName: serviceName,
		identity:    domain.NewServiceIdentity(),
		drainWindow: drainWindow,
		groups:      groups,
		mailbox:     make(chan domain.Command, bufferSize),
		state:       StateStarting,
		done:        make(chan struct{}),
	}
}

func (a *Actor) Identity() domain.ServiceIdentity { return a.identity }

func (a *Actor) CommandTopic() string {
	return addressing.CommandTopic(a.identity.InstanceID)
}

// Done is closed once the actor reaches Stopped.
func (a *Actor) Done() <-chan struct{} { return a.done }

func (a *Actor) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Actor) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// Start performs the Starting phase: subscribe to the inbound command topic
// first, then claim the service name. Registration failure rolls the
// subscription back so no partial state is left behind; any Starting failure
// is fatal to the process.
func (a *Actor) Start(ctx context.Context) error {
	sub, err := a.transport.Subscribe(a.CommandTopic(), a.enqueue)
	if err != nil {
		a.setState(StateStopped)
		return fmt.Errorf("%w: %v", apperrors.ErrSubscriptionFailed, err)
	}

	rec := domain.Registration{
		Identity:     a.identity,
		CommandTopic: a.CommandTopic(),
		LastSeen:     time.Now().UTC(),
	}
	if err := a.registry.Register(ctx, a.serviceName, rec); err != nil {
		if unsubErr := sub.Unsubscribe(); unsubErr != nil {
			a.log.Warn("Rollback unsubscribe failed", "error", unsubErr)
		}
		a.setState(StateStopped)
		return err
	}

	a.mu.Lock()
	a.sub = sub
	a.state = StateRunning
	a.mu.Unlock()
	a.log.Info("Actor running",
		"service", a.serviceName,
		"instance", a.identity.InstanceID,
		"topic", a.CommandTopic())
	return nil
}

// Registration returns the record the heartbeat refreshes.
func (a *Actor) Registration() domain.Registration {
	return domain.Registration{
		Identity:     a.identity,
		CommandTopic: a.CommandTopic(),
		LastSeen:     time.Now().UTC(),
	}
}

// enqueue runs on the transport's I/O goroutine and only hands off into the
// mailbox; a full mailbox drops the command rather than blocking the broker.
func (a *Actor) enqueue(topic string, payload []byte) {
	kind, _, err := addressing.Parse(topic)
	if err != nil || kind != addressing.KindCommand {
		a.log.Warn("Dropping inbound item on unexpected topic", "topic", topic, "error", err)
		return
	}
	cmd, err := domain.DecodeCommand(payload)
	if err != nil {
		a.log.Warn("Dropping malformed command", "topic", topic, "error", err)
		return
	}
	select {
	case a.mailbox <- cmd:
	default:
		a.log.Warn("Mailbox full, dropping command", "kind", cmd.Kind, "session", cmd.SessionID)
	}
}

// Run is the single command-processing sequence: one command at a time, in
// arrival order. It returns nil on orderly termination so the supervisor
// treats it as finished rather than crashed.
func (a *Actor) Run(ctx context.Context) error {
	if a.State() != StateRunning {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			// Operator-driven stop behaves like a Terminate command.
			a.shutdown(context.WithoutCancel(ctx))
			return nil
		case cmd := <-a.mailbox:
			if a.dispatch(cmd) {
				a.shutdown(context.WithoutCancel(ctx))
				return nil
			}
		}
	}
}

// dispatch reports whether the command requested termination.
func (a *Actor) dispatch(cmd domain.Command) bool {
	switch cmd.Kind {
	case domain.KindSend:
		a.handleSend(cmd)
	case domain.KindStatus:
		a.handleStatus(cmd)
	case domain.KindTerminate:
		a.log.Info("Terminate received", "session", cmd.SessionID)
		return true
	}
	return false
}

// handleSend publishes the body once per resolved group, then echoes exactly
// one confirmation to the sender. A failed group publish is logged and that
// recipient dropped; the actor keeps running.
func (a *Actor) handleSend(cmd domain.Command) {
	msg := *cmd.Message
	recipients := domain.NormalizeRecipients(msg.Recipients)

	delivery, err := encodeDelivery(msg)
	if err != nil {
		a.log.Error("Cannot encode delivery, dropping send", "error", err)
		return
	}

	resolved := make([]string, 0, len(recipients))
	for _, name := range recipients {
		group := a.resolveGroup(name)
		if err := a.transport.Publish(addressing.GroupTopic(group.Name), delivery); err != nil {
			a.log.Warn("Group publish failed", "group", group.Name, "error", err)
			continue
		}
		// Membership follows delivery: a sender whose publish failed never
		// joined the group.
		group.Join(cmd.SessionID)
		group.Delivered++
		resolved = append(resolved, group.Name)
	}

	a.reply(cmd.SessionID, domain.Response{
		Kind:         domain.KindConfirmation,
		Confirmation: &domain.Confirmation{Recipients: resolved, Body: msg.Body},
	})
}

// handleStatus answers with the current group table.
func (a *Actor) handleStatus(cmd domain.Command) {
	groups := make([]domain.GroupStatus, 0, len(a.groups))
	for _, g := range a.groups {
		groups = append(groups, domain.GroupStatus{
			Name:      g.Name,
			Members:   g.MemberCount(),
			Delivered: g.Delivered,
		})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })

	a.reply(cmd.SessionID, domain.Response{
		Kind:   domain.KindStatusReply,
		Status: &domain.StatusReply{InstanceID: a.identity.InstanceID, Groups: groups},
	})
}

func (a *Actor) reply(sessionID string, resp domain.Response) {
	payload, err := domain.EncodeResponse(resp)
	if err != nil {
		a.log.Error("Cannot encode response", "error", err)
		return
	}
	if err := a.transport.Publish(addressing.ResponseTopic(sessionID), payload); err != nil {
		a.log.Warn("Response publish failed", "session", sessionID, "error", err)
	}
}

// resolveGroup creates groups ad hoc on first reference; names arrive
// normalized and are folded into the topic alphabet here.
func (a *Actor) resolveGroup(name string) *domain.Group {
	key := addressing.SanitizeName(name)
	if group, ok := a.groups[key]; ok {
		return group
	}
	group := domain.NewGroup(key)
	a.groups[key] = group
	a.log.Info("Group created", "group", key)
	return group
}

// shutdown runs the Stopping phase: stop accepting commands, let the drain
// window flush what was already queued, deregister once, then mark Stopped.
// Safe to call at most once per process; the Stopping guard makes a second
// Terminate a no-op.
func (a *Actor) shutdown(ctx context.Context) {
	a.mu.Lock()
	if a.state != StateRunning {
		a.mu.Unlock()
		return
	}
	a.state = StateStopping
	sub := a.sub
	a.mu.Unlock()

	a.log.Info("Actor stopping", "service", a.serviceName)
	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			a.log.Warn("Unsubscribe failed", "error", err)
		}
	}

	a.drain()

	if err := a.registry.Deregister(ctx, a.serviceName); err != nil {
		a.log.Warn("Deregister failed", "error", err)
	}

	a.setState(StateStopped)
	close(a.done)
	a.log.Info("Actor stopped", "service", a.serviceName)
}

// drain completes commands that were already queued when Stopping began.
// Further Terminates are ignored here.
func (a *Actor) drain() {
	deadline := time.NewTimer(a.drainWindow)
	defer deadline.Stop()
	for {
		select {
		case cmd := <-a.mailbox:
			switch cmd.Kind {
			case domain.KindSend:
				a.handleSend(cmd)
			case domain.KindStatus:
				a.handleStatus(cmd)
			}
		case <-deadline.C:
			return
		}
	}
}

func encodeDelivery(msg domain.Message) ([]byte, error) {
	return domain.EncodeDelivery(domain.Delivery{
		Sender: msg.Sender,
		Body:   msg.Body,
		SentAt: msg.SentAt,
	})
}
