package eventbus

import (
	"log/slog"
	"runtime/debug"
	"sync"

	"xselect/internal/domain"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Event type constants
const (
	EventSelectionChanged = domain.EventSelectionChanged
	EventStateChanged     = domain.EventStateChanged
	EventDropdownToggled  = domain.EventDropdownToggled
	EventFetchFailed      = domain.EventFetchFailed
	EventDataReplaced     = domain.EventDataReplaced
)

// Re-export domain event types
type SelectionChangedEvent = domain.SelectionChangedEvent
type StateChangedEvent = domain.StateChangedEvent
type DropdownToggledEvent = domain.DropdownToggledEvent
type FetchFailedEvent = domain.FetchFailedEvent
type DataReplacedEvent = domain.DataReplacedEvent

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus
type EventBus interface {
	Publish(event DomainEvent)
	Subscribe(eventType EventType, handler EventHandler) func()
}

// NullBus drops every event
type NullBus struct{}

func (NullBus) Publish(DomainEvent) {}

func (NullBus) Subscribe(EventType, EventHandler) func() { return func() {} }

type subscription struct {
	id      uint64
	handler EventHandler
}

// Bus is the asynchronous implementation of EventBus.
// Events are delivered in publish order by a single dispatcher goroutine.
// Publish never blocks and never drops an event while the bus is open.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]subscription
	nextID   uint64

	queueMu sync.Mutex
	queue   []DomainEvent
	wake    chan struct{}

	wg        sync.WaitGroup
	quit      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

// New creates a new event bus
func New() *Bus {
	return NewWithLogger(slog.Default())
}

// NewWithLogger creates a new event bus logging through logger
func NewWithLogger(logger *slog.Logger) *Bus {
	b := &Bus{
		handlers: make(map[EventType][]subscription),
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		logger:   logger,
	}

	b.wg.Add(1)
	go b.dispatch()

	return b
}

// Publish queues an event for all subscribers of its type
func (b *Bus) Publish(event DomainEvent) {
	if event.Type() != EventStateChanged {
		b.logger.Debug("publishing event", slog.String("type", string(event.Type())))
	}

	select {
	case <-b.quit:
		return
	default:
	}

	b.queueMu.Lock()
	b.queue = append(b.queue, event)
	b.queueMu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Subscribe subscribes to events of a specific type
// Returns an unsubscribe function
func (b *Bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Close stops the dispatcher. Events still queued are discarded.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		close(b.quit)
	})
	b.wg.Wait()
}

// dispatch handles event distribution to subscribers
func (b *Bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case <-b.wake:
			for _, event := range b.take() {
				select {
				case <-b.quit:
					return
				default:
				}

				b.mu.RLock()
				subs := b.handlers[event.Type()]
				handlers := make([]EventHandler, len(subs))
				for i, s := range subs {
					handlers[i] = s.handler
				}
				b.mu.RUnlock()

				for _, h := range handlers {
					b.deliver(h, event)
				}
			}

		case <-b.quit:
			return
		}
	}
}

// take hands the queued events to the dispatcher
func (b *Bus) take() []DomainEvent {
	b.queueMu.Lock()
	defer b.queueMu.Unlock()
	events := b.queue
	b.queue = nil
	return events
}

func (b *Bus) deliver(h EventHandler, event DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panic",
				slog.String("type", string(event.Type())),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	h(event)
}
