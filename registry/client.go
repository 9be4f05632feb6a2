package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"groupchat/domain"
	apperrors "groupchat/errors"
)

// Client implements contract.Registry on top of a Store. Register and
// Deregister are short blocking calls made only during startup and shutdown;
// Resolve retries with backoff because a registry may lag backend startup.
type Client struct {
	store   Store
	log     *slog.Logger
	retries int
	backoff time.Duration
}

func NewClient(store Store, log *slog.Logger, retries int, backoff time.Duration) *Client {
	return &Client{store: store, log: log, retries: retries, backoff: backoff}
}

func (c *Client) Register(ctx context.Context, serviceName string, rec domain.Registration) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal registration: %w", err)
	}
	if err := c.store.Create(ctx, serviceName, value); err != nil {
		if errors.Is(err, ErrKeyExists) {
			return fmt.Errorf("%w: %s", apperrors.ErrRegistrationConflict, serviceName)
		}
		return fmt.Errorf("register %s: %w", serviceName, err)
	}
	c.log.Info("Registered service", "name", serviceName, "instance", rec.Identity.InstanceID)
	return nil
}

// Deregister is idempotent: removing an already-removed record succeeds.
func (c *Client) Deregister(ctx context.Context, serviceName string) error {
	if err := c.store.Delete(ctx, serviceName); err != nil {
		return fmt.Errorf("deregister %s: %w", serviceName, err)
	}
	c.log.Info("Deregistered service", "name", serviceName)
	return nil
}

func (c *Client) Resolve(ctx context.Context, serviceName string) (domain.Registration, error) {
	attempts := c.retries
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; ; attempt++ {
		value, err := c.store.Get(ctx, serviceName)
		if err == nil {
			var rec domain.Registration
			if err := json.Unmarshal(value, &rec); err != nil {
				return domain.Registration{}, fmt.Errorf("corrupt registration for %s: %w", serviceName, err)
			}
			return rec, nil
		}
		if !errors.Is(err, ErrKeyNotFound) {
			return domain.Registration{}, fmt.Errorf("resolve %s: %w", serviceName, err)
		}
		if attempt >= attempts {
			return domain.Registration{}, fmt.Errorf("%w: %s", apperrors.ErrServiceUnavailable, serviceName)
		}

		c.log.Debug("Service not registered yet, retrying", "name", serviceName, "attempt", attempt)
		select {
		case <-ctx.Done():
			return domain.Registration{}, ctx.Err()
		case <-time.After(c.backoff):
		}
	}
}

// Touch refreshes the record's LastSeen so operators can tell a live backend
// from a stale record left by a crash. It only updates an existing record; a
// Touch racing Deregister fails instead of writing the record back.
func (c *Client) Touch(ctx context.Context, serviceName string, rec domain.Registration) error {
	rec.LastSeen = time.Now().UTC()
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal registration: %w", err)
	}
	if err := c.store.Update(ctx, serviceName, value); err != nil {
		return fmt.Errorf("touch %s: %w", serviceName, err)
	}
	return nil
}
