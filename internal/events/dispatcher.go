package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// AsyncDispatcher runs each subscriber in its own goroutine with a bounded
// deadline, so a slow or failing notification channel never stalls the
// transition that published the event. Handler errors and panics are logged
// and swallowed.
type AsyncDispatcher struct {
	mu             sync.RWMutex
	listeners      map[EventType][]EventHandler
	logger         *zap.Logger
	handlerTimeout time.Duration
	wg             sync.WaitGroup
}

// NewAsyncDispatcher creates a dispatcher instance.
func NewAsyncDispatcher(logger *zap.Logger, handlerTimeout time.Duration) *AsyncDispatcher {
	if handlerTimeout <= 0 {
		handlerTimeout = 30 * time.Second
	}
	return &AsyncDispatcher{
		listeners:      make(map[EventType][]EventHandler),
		logger:         logger,
		handlerTimeout: handlerTimeout,
	}
}

// Publish fans the event out and returns immediately. Handlers run on a
// context detached from the caller's: the request that triggered the event
// finishes independently of delivery.
func (d *AsyncDispatcher) Publish(_ context.Context, event Event) error {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		d.wg.Add(1)
		go d.run(handler, event)
	}
	return nil
}

func (d *AsyncDispatcher) run(handler EventHandler, event Event) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked",
				zap.String("event_type", string(event.Type)),
				zap.Int64("ticket_id", event.TicketID),
				zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.handlerTimeout)
	defer cancel()

	if err := handler(ctx, event); err != nil {
		d.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

// Subscribe registers a handler for the given event type.
func (d *AsyncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// Wait blocks until all in-flight handlers finish. Used during shutdown and
// in tests.
func (d *AsyncDispatcher) Wait() {
	d.wg.Wait()
}
