// Package event handles triggering of operations without direct dependency
package event

import (
	"context"
	"sync"

	"aetherflow/local-app/src/pkg/log"
)

// EventType represents the type of event
type EventType int

const (
	MapChanged EventType = iota
	NodeAdded
	NodeUpdated
	NodeDeleted
	NodeExpanded
	NodeTaskified
	ChatMessageAdded
	StateReset
	StateLoaded
	StateSaved
	ViewChanged
)

// String returns the name of the event type.
func (t EventType) String() string {
	switch t {
	case MapChanged:
		return "map_changed"
	case NodeAdded:
		return "node_added"
	case NodeUpdated:
		return "node_updated"
	case NodeDeleted:
		return "node_deleted"
	case NodeExpanded:
		return "node_expanded"
	case NodeTaskified:
		return "node_taskified"
	case ChatMessageAdded:
		return "chat_message_added"
	case StateReset:
		return "state_reset"
	case StateLoaded:
		return "state_loaded"
	case StateSaved:
		return "state_saved"
	case ViewChanged:
		return "view_changed"
	default:
		return "unknown"
	}
}

// Event represents an event with its type and associated data
type Event struct {
	Type EventType
	Data interface{}
}

// EventHandler is a function type for event handlers
type EventHandler func(Event)

// EventManager manages event subscriptions and publications
type EventManager struct {
	subscribers map[EventType][]EventHandler
	mu          sync.RWMutex
	logger      *log.Logger

	pendingMu sync.Mutex
	idle      *sync.Cond
	pending   int
}

// NewEventManager creates a new EventManager instance
func NewEventManager(logger *log.Logger) *EventManager {
	em := &EventManager{
		subscribers: make(map[EventType][]EventHandler),
		logger:      logger,
	}
	em.idle = sync.NewCond(&em.pendingMu)
	return em
}

// Subscribe adds a new event handler for a specific event type
func (em *EventManager) Subscribe(eventType EventType, handler EventHandler) {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.subscribers[eventType] = append(em.subscribers[eventType], handler)
}

// Publish sends an event to all subscribed handlers, each on its own goroutine
func (em *EventManager) Publish(event Event) {
	em.mu.RLock()
	defer em.mu.RUnlock()
	handlers := em.subscribers[event.Type]
	if len(handlers) == 0 {
		return
	}
	em.pendingMu.Lock()
	em.pending += len(handlers)
	em.pendingMu.Unlock()

	for _, handler := range handlers {
		go func(h EventHandler) {
			defer em.done()
			defer func() {
				if r := recover(); r != nil {
					em.logger.Error(context.Background(), "Panic in event handler", log.Fields{
						"event": event.Type.String(),
						"panic": r,
					})
				}
			}()
			h(event)
		}(handler)
	}
}

func (em *EventManager) done() {
	em.pendingMu.Lock()
	em.pending--
	if em.pending == 0 {
		em.idle.Broadcast()
	}
	em.pendingMu.Unlock()
}

// Wait blocks until every handler started so far has returned. It may be
// called while other goroutines keep publishing.
func (em *EventManager) Wait() {
	em.pendingMu.Lock()
	for em.pending > 0 {
		em.idle.Wait()
	}
	em.pendingMu.Unlock()
}
