package errors

import "errors"

var (
	// Fatal during the Starting phase only.
	ErrRegistrationConflict = errors.New("another instance is already registered under this service name")
	ErrSubscriptionFailed   = errors.New("inbound command subscription failed")

	// Client side.
	ErrServiceUnavailable = errors.New("no registered chat backend found")
	ErrNoResponse         = errors.New("no confirmation received before the timeout")

	// Contained, the actor keeps running.
	ErrMalformedTopic = errors.New("topic does not match any known pattern")
	ErrPublishFailure = errors.New("transport publish failed")

	ErrActorNotRunning = errors.New("actor is not in the running state")
	ErrWorkerPanic     = errors.New("worker panic")
)
