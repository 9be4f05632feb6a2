package domain

import (
	"os"
	"time"

	"github.com/google/uuid"
)

// ServiceIdentity identifies one running backend instance. It is built once
// during startup and stays immutable for the process lifetime; the registry
// record is derived from it and removed again on shutdown.
type ServiceIdentity struct {
	InstanceID string    `json:"instance_id"`
	Host       string    `json:"host"`
	PID        int       `json:"pid"`
	StartedAt  time.Time `json:"started_at"`
}

func NewServiceIdentity() ServiceIdentity {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return ServiceIdentity{
		InstanceID: uuid.NewString(),
		Host:       host,
		PID:        os.Getpid(),
		StartedAt:  time.Now().UTC(),
	}
}
