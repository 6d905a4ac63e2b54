package submission

import (
	"context"
	"slices"
	"sync"
)

// Notification names.
const (
	EventResult = "result"
	EventError  = "error"
)

// ErrorDetail is the payload of an error notification.
type ErrorDetail struct {
	Error string `json:"error"`
}

// Event is a cancelable, bubbling notification of a submission outcome.
// Detail is the *Receipt for result events and an ErrorDetail for error events.
type Event struct {
	Type       string
	Detail     any
	Outcome    Outcome
	Bubbles    bool
	Cancelable bool

	mu        sync.Mutex
	prevented bool
	stopped   bool
}

// NewEvent builds the notification for an outcome.
func NewEvent(o Outcome) *Event {
	e := &Event{
		Type:       o.EventType(),
		Outcome:    o,
		Bubbles:    true,
		Cancelable: true,
	}
	if o.Success() {
		e.Detail = o.Receipt
	} else {
		e.Detail = ErrorDetail{Error: o.Reason()}
	}
	return e
}

// PreventDefault suppresses the default rendering of a cancelable event.
func (e *Event) PreventDefault() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Cancelable {
		e.prevented = true
	}
}

// DefaultPrevented reports whether a listener canceled the event.
func (e *Event) DefaultPrevented() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.prevented
}

// StopPropagation keeps the event from bubbling to parent dispatchers.
func (e *Event) StopPropagation() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopped = true
}

func (e *Event) propagationStopped() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopped
}

// Listener receives dispatched events.
type Listener func(ctx context.Context, e *Event)

type subscription struct {
	id       uint64
	listener Listener
}

// Dispatcher delivers events to listeners in registration order, then
// bubbles them to its parent.
type Dispatcher struct {
	mu        sync.RWMutex
	parent    *Dispatcher
	listeners map[string][]subscription
	nextID    uint64
}

// NewDispatcher creates a dispatcher; parent may be nil.
func NewDispatcher(parent *Dispatcher) *Dispatcher {
	return &Dispatcher{
		parent:    parent,
		listeners: make(map[string][]subscription),
	}
}

// On registers a listener for eventType and returns a function removing it.
func (d *Dispatcher) On(eventType string, l Listener) (remove func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	d.listeners[eventType] = append(d.listeners[eventType], subscription{id: id, listener: l})

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.listeners[eventType] = slices.DeleteFunc(d.listeners[eventType], func(s subscription) bool {
			return s.id == id
		})
	}
}

// Clear removes every listener.
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = make(map[string][]subscription)
}

// Dispatch delivers e and reports whether the default action should run.
func (d *Dispatcher) Dispatch(ctx context.Context, e *Event) bool {
	for cur := d; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		subs := slices.Clone(cur.listeners[e.Type])
		cur.mu.RUnlock()

		for _, s := range subs {
			s.listener(ctx, e)
		}

		if !e.Bubbles || e.propagationStopped() {
			break
		}
	}
	return !e.DefaultPrevented()
}
