package task

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Queue names. New queues are added by registering a new handler, never by
// changing the dispatcher.
const (
	// QueueSync carries wearable-data synchronization tasks.
	QueueSync = "whoop-sync"

	// QueueNotifications carries notification delivery tasks.
	QueueNotifications = "notifications"

	// QueueInsights carries AI insight generation tasks.
	QueueInsights = "insights"
)

// Handler processes one claimed task, identified by its ID. Handlers load
// the task row themselves to parse their queue-specific payload, and are
// responsible for marking their own task SUCCEEDED so handler-specific
// outcome detail is preserved. A returned error makes the dispatcher mark
// the task FAILED and apply its error backoff.
type Handler func(ctx context.Context, taskID uuid.UUID) error

// Registry is the fixed mapping from queue name to handler. It is assembled
// once at startup and read-only afterwards, so no locking is needed.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to a queue name.
// Registering the same queue twice or a nil handler is a wiring bug and
// returns an error.
func (r *Registry) Register(queue string, handler Handler) error {
	if queue == "" {
		return fmt.Errorf("queue name cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler for queue %q cannot be nil", queue)
	}
	if _, exists := r.handlers[queue]; exists {
		return fmt.Errorf("handler for queue %q already registered", queue)
	}

	r.handlers[queue] = handler
	return nil
}

// Handler returns the handler registered for the queue.
func (r *Registry) Handler(queue string) (Handler, bool) {
	handler, ok := r.handlers[queue]
	return handler, ok
}

// Queues returns the registered queue names in stable order.
func (r *Registry) Queues() []string {
	queues := make([]string, 0, len(r.handlers))
	for queue := range r.handlers {
		queues = append(queues, queue)
	}
	sort.Strings(queues)
	return queues
}
