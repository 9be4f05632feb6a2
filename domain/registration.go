package domain

import "time"

// Registration is the record kept by the registry for one service name. It is
// written once during startup, refreshed by the heartbeat and deleted on
// shutdown; LastSeen is the only mutable field.
type Registration struct {
	Identity     ServiceIdentity `json:"identity"`
	CommandTopic string          `json:"command_topic"`
	LastSeen     time.Time       `json:"last_seen"`
}
