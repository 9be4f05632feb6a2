package client

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"groupchat/domain"
	apperrors "groupchat/errors"
	"groupchat/registry"
	"groupchat/runtime"
	"groupchat/transport"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type backend struct {
	bus   *transport.MemoryBus
	store *registry.MemoryStore
	reg   *registry.Client
	actor *runtime.Actor
}

// startBackend wires a real actor to the in-memory bus and registry, the way
// chatd does against the broker.
func startBackend(t *testing.T) *backend {
	t.Helper()
	bus := transport.NewMemoryBus()
	store := registry.NewMemoryStore()
	reg := registry.NewClient(store, testLogger(), 10, time.Millisecond)
	actor := runtime.NewActor(testLogger(), bus, reg, "chat_server", 64, 20*time.Millisecond)

	require.NoError(t, actor.Start(context.Background()))
	go func() { _ = actor.Run(context.Background()) }()

	return &backend{bus: bus, store: store, reg: reg, actor: actor}
}

func (b *backend) newSession(t *testing.T, timeout time.Duration) *Session {
	t.Helper()
	session := NewSession(testLogger(), b.bus, b.reg, "chat_server", timeout)
	require.NoError(t, session.Open(context.Background()))
	t.Cleanup(session.Close)
	return session
}

func TestScenario_ResolveSendTerminate(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	b := startBackend(t)

	// Given a session that resolved the backend through the registry
	session := b.newSession(t, time.Second)

	// When it sends to two groups
	conf, err := session.Send(ctx, []string{"r0", "r1"}, "message")

	// Then the echo names exactly the resolved groups
	req.NoError(err)
	req.Equal([]string{"r0", "r1"}, conf.Recipients)
	req.Equal("message", conf.Body)

	// When the session asks for termination
	req.NoError(session.Exit())

	select {
	case <-b.actor.Done():
	case <-time.After(time.Second):
		req.Fail("actor did not stop")
	}
	req.Equal(runtime.StateStopped, b.actor.State())

	// And the registration is gone
	_, err = b.reg.Resolve(ctx, "chat_server")
	req.ErrorIs(err, apperrors.ErrServiceUnavailable)
}

func TestSend_GroupTrafficReachesWatchers(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	b := startBackend(t)

	sender := b.newSession(t, time.Second)
	watcher := b.newSession(t, time.Second)

	got := make(chan domain.Delivery, 1)
	sub, err := watcher.Watch(domain.DefaultGroup, func(group string, d domain.Delivery) {
		req.Equal(domain.DefaultGroup, group)
		got <- d
	})
	req.NoError(err)
	defer func() { _ = sub.Unsubscribe() }()

	_, err = sender.Send(ctx, nil, "hello")
	req.NoError(err)

	select {
	case d := <-got:
		req.Equal(sender.ID, d.Sender)
		req.Equal("hello", d.Body)
	case <-time.After(time.Second):
		req.Fail("watcher never received the broadcast")
	}
}

func TestSend_NoCrossSessionLeakage(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	b := startBackend(t)

	sessionA := b.newSession(t, time.Second)
	sessionB := b.newSession(t, time.Second)

	type result struct {
		conf domain.Confirmation
		err  error
	}
	resA := make(chan result, 1)
	resB := make(chan result, 1)

	// When two sessions send different messages concurrently
	go func() {
		conf, err := sessionA.Send(ctx, []string{"a-room"}, "from-a")
		resA <- result{conf, err}
	}()
	go func() {
		conf, err := sessionB.Send(ctx, []string{"b-room"}, "from-b")
		resB <- result{conf, err}
	}()

	// Then each receives only its own confirmation
	a := <-resA
	req.NoError(a.err)
	req.Equal("from-a", a.conf.Body)
	req.Equal([]string{"a-room"}, a.conf.Recipients)

	bRes := <-resB
	req.NoError(bRes.err)
	req.Equal("from-b", bRes.conf.Body)
	req.Equal([]string{"b-room"}, bRes.conf.Recipients)

	// And nothing else is waiting on either response topic
	req.Empty(sessionA.responses)
	req.Empty(sessionB.responses)
}

func TestStatus_ReflectsCreatedGroups(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	b := startBackend(t)
	session := b.newSession(t, time.Second)

	_, err := session.Send(ctx, []string{"r0"}, "hello")
	req.NoError(err)

	status, err := session.Status(ctx)
	req.NoError(err)
	req.Equal(b.actor.Identity().InstanceID, status.InstanceID)

	names := make([]string, 0, len(status.Groups))
	for _, g := range status.Groups {
		names = append(names, g.Name)
	}
	req.Equal([]string{domain.DefaultGroup, "r0"}, names)
}

func TestOpen_ServiceUnavailableWithoutBackend(t *testing.T) {
	req := require.New(t)
	bus := transport.NewMemoryBus()
	reg := registry.NewClient(registry.NewMemoryStore(), testLogger(), 2, time.Millisecond)
	session := NewSession(testLogger(), bus, reg, "chat_server", time.Second)

	err := session.Open(context.Background())

	req.ErrorIs(err, apperrors.ErrServiceUnavailable)
}

func TestSend_NoResponseWhenBackendIsGone(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	bus := transport.NewMemoryBus()
	store := registry.NewMemoryStore()
	reg := registry.NewClient(store, testLogger(), 2, time.Millisecond)

	// Given a stale registration with nothing listening behind it
	identity := domain.NewServiceIdentity()
	req.NoError(reg.Register(ctx, "chat_server", domain.Registration{
		Identity:     identity,
		CommandTopic: "chat.cmd." + identity.InstanceID,
	}))

	session := NewSession(testLogger(), bus, reg, "chat_server", 30*time.Millisecond)
	req.NoError(session.Open(ctx))
	defer session.Close()

	_, err := session.Send(ctx, nil, "anyone there?")

	req.ErrorIs(err, apperrors.ErrNoResponse)
}

func TestSend_WaitIsCancellable(t *testing.T) {
	req := require.New(t)
	bus := transport.NewMemoryBus()
	store := registry.NewMemoryStore()
	reg := registry.NewClient(store, testLogger(), 2, time.Millisecond)

	identity := domain.NewServiceIdentity()
	req.NoError(reg.Register(context.Background(), "chat_server", domain.Registration{
		Identity:     identity,
		CommandTopic: "chat.cmd." + identity.InstanceID,
	}))

	session := NewSession(testLogger(), bus, reg, "chat_server", time.Minute)
	req.NoError(session.Open(context.Background()))
	defer session.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := session.Send(ctx, nil, "hello")
	req.ErrorIs(err, context.Canceled)
}
