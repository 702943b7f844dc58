// internal/event/bus.go
package event

import (
	"sync"

	"go.uber.org/zap"

	"receipt-emulator/internal/model"
)

// Bus manages event distribution
type Bus struct {
	subscribers map[model.EventType][]chan model.Event
	events      chan model.Event
	closed      bool
	done        chan struct{}
	mutex       sync.RWMutex
	logger      *zap.Logger
}

// NewBus creates a new event bus
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subscribers: make(map[model.EventType][]chan model.Event),
		events:      make(chan model.Event, 1000),
		done:        make(chan struct{}),
		logger:      logger.With(zap.String("component", "event_bus")),
	}
}

// Start distributes events until Stop is called. Subscriber channels are
// closed when it returns.
func (b *Bus) Start() {
	defer close(b.done)

	for event := range b.events {
		b.distributeEvent(event)
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	closed := make(map[chan model.Event]bool)
	for eventType, subscribers := range b.subscribers {
		for _, subscriber := range subscribers {
			if !closed[subscriber] {
				close(subscriber)
				closed[subscriber] = true
			}
		}
		delete(b.subscribers, eventType)
	}
}

// Stop stops accepting events and waits for queued events to be delivered
func (b *Bus) Stop() {
	b.mutex.Lock()
	if b.closed {
		b.mutex.Unlock()
		return
	}
	b.closed = true
	close(b.events)
	b.mutex.Unlock()

	<-b.done
}

// Publish publishes an event without blocking
func (b *Bus) Publish(event model.Event) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	if b.closed {
		return
	}

	select {
	case b.events <- event:
	default:
		b.logger.Warn("Event bus full, dropping event",
			zap.String("event_type", string(event.Type)),
		)
	}
}

// Subscribe returns one channel receiving events of every given type
func (b *Bus) Subscribe(eventTypes ...model.EventType) <-chan model.Event {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	subscriber := make(chan model.Event, 100)
	if b.closed {
		close(subscriber)
		return subscriber
	}
	for _, eventType := range eventTypes {
		b.subscribers[eventType] = append(b.subscribers[eventType], subscriber)
	}
	return subscriber
}

// Unsubscribe removes a subscription from every event type and closes it
func (b *Bus) Unsubscribe(ch <-chan model.Event) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	var found chan model.Event
	for eventType, subscribers := range b.subscribers {
		for i, subscriber := range subscribers {
			if subscriber == ch {
				b.subscribers[eventType] = append(subscribers[:i], subscribers[i+1:]...)
				found = subscriber
				break
			}
		}
	}
	if found != nil {
		close(found)
	}
}

// distributeEvent distributes an event to subscribers
func (b *Bus) distributeEvent(event model.Event) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	for _, subscriber := range b.subscribers[event.Type] {
		select {
		case subscriber <- event:
		default:
			b.logger.Warn("Subscriber is slow, skipping event",
				zap.String("event_type", string(event.Type)),
			)
		}
	}
}
