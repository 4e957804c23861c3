package bus

import "time"

// EventBus is an in-process pub/sub bus for window and input events.
//
// Delivery is synchronous on the publisher's goroutine and follows
// subscription order. Handlers subscribed to Wildcard see every event after
// the type-specific handlers. Handler errors are joined and returned from
// Publish. Counters move only while at least one observer is registered.
type EventBus interface {
	// Publish delivers event to the subscribers of event.Type().
	Publish(event Event) error

	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels sub; nil is ignored.
	Unsubscribe(sub Subscription) error

	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
	Metrics() Metrics
}

// Wildcard subscribes a handler to every event type.
const Wildcard = "*"

// Event is routed by its Type.
type Event interface {
	Type() string
}

type EventHandler func(event Event) error

// Subscription is the handle returned by Subscribe.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel removes the handler; repeated calls are no-ops.
	Cancel() error
}

// Observer is told about every publish and its outcome.
type Observer interface {
	OnPublish(event Event)
	OnDelivered(event Event, handlers int, err error, took time.Duration)
}

type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
}
