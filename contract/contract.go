//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"groupchat/domain"
)

// Subscription is a live topic subscription handed out by a Transport.
type Subscription interface {
	Unsubscribe() error
}

// Transport wraps the publish/subscribe primitives of the external broker.
// Handlers may be invoked on broker I/O goroutines; implementations never
// mutate consumer state themselves.
type Transport interface {
	Publish(topic string, payload []byte) error
	Subscribe(pattern string, handler func(topic string, payload []byte)) (Subscription, error)
	Close() error
}

// Registry is the service-discovery boundary. Register fails when the name is
// already claimed; Resolve retries internally before giving up.
type Registry interface {
	Register(ctx context.Context, serviceName string, rec domain.Registration) error
	Deregister(ctx context.Context, serviceName string) error
	Resolve(ctx context.Context, serviceName string) (domain.Registration, error)
	Touch(ctx context.Context, serviceName string, rec domain.Registration) error
}

// Worker doesn't protect itself; the supervisor does.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
