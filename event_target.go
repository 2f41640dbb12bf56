package wsbridge

import (
	"sync"

	"github.com/google/uuid"
)

type (
	Listener[V any] func(V)

	// Subscription identifies one registration on an EventTarget. The zero value identifies nothing.
	Subscription struct {
		ID        string
		EventType string
	}

	registration[V any] struct {
		id       string
		listener Listener[V]
	}

	// EventTarget maps event types to listeners. Every Subscribe call adds an independent
	// registration, even for a listener that is already registered.
	EventTarget[V any] struct {
		listeners map[string][]registration[V]
		lock      sync.RWMutex
	}
)

// DefaultTarget is the process-wide event target used by Listen and Unlisten.
var DefaultTarget = NewEventTarget[any]()

// Listen registers listener for eventType on DefaultTarget.
func Listen(eventType string, listener Listener[any]) Subscription {
	return DefaultTarget.Subscribe(eventType, listener)
}

// Unlisten removes a registration made with Listen.
func Unlisten(s Subscription) bool {
	return DefaultTarget.Unsubscribe(s)
}

func NewEventTarget[V any]() *EventTarget[V] {
	return &EventTarget[V]{
		listeners: make(map[string][]registration[V]),
	}
}

// Subscribe registers listener for eventType and returns the token to remove it later.
func (e *EventTarget[V]) Subscribe(eventType string, listener Listener[V]) Subscription {
	if listener == nil {
		return Subscription{}
	}

	id := uuid.NewString()

	e.lock.Lock()
	defer e.lock.Unlock()

	e.listeners[eventType] = append(e.listeners[eventType], registration[V]{id: id, listener: listener})

	return Subscription{ID: id, EventType: eventType}
}

// Unsubscribe removes the registration identified by s. It reports whether one was found.
func (e *EventTarget[V]) Unsubscribe(s Subscription) bool {
	if s.ID == "" {
		return false
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	regs := e.listeners[s.EventType]
	for i, r := range regs {
		if r.id != s.ID {
			continue
		}

		next := make([]registration[V], 0, len(regs)-1)
		next = append(next, regs[:i]...)
		next = append(next, regs[i+1:]...)

		if len(next) == 0 {
			delete(e.listeners, s.EventType)
		} else {
			e.listeners[s.EventType] = next
		}

		return true
	}

	return false
}

// Dispatch invokes, in registration order, every listener registered for eventType when the call
// starts, and returns how many were invoked. Listeners may subscribe or unsubscribe while running.
func (e *EventTarget[V]) Dispatch(eventType string, event V) int {
	e.lock.RLock()
	regs := e.listeners[eventType]
	e.lock.RUnlock()

	for _, r := range regs {
		r.listener(event)
	}

	return len(regs)
}

func (e *EventTarget[V]) Listeners(eventType string) int {
	e.lock.RLock()
	defer e.lock.RUnlock()

	return len(e.listeners[eventType])
}

// Close removes all listeners.
func (e *EventTarget[V]) Close() {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.listeners = make(map[string][]registration[V])
}
