package workers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"groupchat/domain"
	apperrors "groupchat/errors"
	"groupchat/mocks"
	"groupchat/registry"
)

func TestRegistryHeartbeat_TouchesUntilCancelled(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	reg := mocks.NewMockRegistry(ctrl)

	record := func() domain.Registration {
		return domain.Registration{CommandTopic: "chat.cmd.x"}
	}

	touched := make(chan struct{})
	var once bool
	reg.EXPECT().Touch(gomock.Any(), "chat_server", gomock.Any()).
		DoAndReturn(func(context.Context, string, domain.Registration) error {
			if !once {
				once = true
				close(touched)
			}
			return nil
		}).MinTimes(1)

	worker := NewRegistryHeartbeat(testLogger(), reg, "chat_server", record, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		req.NoError(worker.Run(ctx))
		close(done)
	}()

	select {
	case <-touched:
	case <-time.After(time.Second):
		req.Fail("heartbeat never touched the registry")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("heartbeat did not stop")
	}
}

// A heartbeat that outlives the deregistration, as in the daemon where it is
// cancelled only once the actor is fully stopped, must not write the record
// back into the registry.
func TestRegistryHeartbeat_CannotResurrectDeregisteredRecord(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := registry.NewMemoryStore()
	reg := registry.NewClient(store, testLogger(), 1, time.Millisecond)

	rec := domain.Registration{
		Identity:     domain.NewServiceIdentity(),
		CommandTopic: "chat.cmd.x",
	}
	req.NoError(reg.Register(ctx, "chat_server", rec))

	worker := NewRegistryHeartbeat(testLogger(), reg, "chat_server",
		func() domain.Registration { return rec }, time.Millisecond)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		req.NoError(worker.Run(runCtx))
		close(done)
	}()

	// When the backend deregisters while the heartbeat is still ticking
	req.NoError(reg.Deregister(ctx, "chat_server"))
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("heartbeat did not stop")
	}

	// Then the record stays gone and a fresh instance can claim the name
	_, err := reg.Resolve(ctx, "chat_server")
	req.ErrorIs(err, apperrors.ErrServiceUnavailable)
	req.NoError(reg.Register(ctx, "chat_server", rec))
}
