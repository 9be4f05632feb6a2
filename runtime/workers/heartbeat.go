package workers

import (
	"context"
	"log/slog"
	"time"

	"groupchat/contract"
	"groupchat/domain"
)

// RegistryHeartbeat periodically refreshes the service's registration record
// so operators can distinguish a live backend from a stale record left behind
// by a crash. A missed beat is logged, never fatal.
type RegistryHeartbeat struct {
	log         *slog.Logger
	registry    contract.Registry
	serviceName string
	record      func() domain.Registration
	interval    time.Duration
}

func NewRegistryHeartbeat(log *slog.Logger, registry contract.Registry,
	serviceName string, record func() domain.Registration, interval time.Duration) *RegistryHeartbeat {
	return &RegistryHeartbeat{
		log:         log,
		registry:    registry,
		serviceName: serviceName,
		record:      record,
		interval:    interval,
	}
}

func (w *RegistryHeartbeat) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.registry.Touch(ctx, w.serviceName, w.record()); err != nil {
				w.log.Warn("Registry heartbeat failed", "service", w.serviceName, "error", err)
			}
		}
	}
}
