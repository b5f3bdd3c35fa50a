package rx

// EventTarget is an event source that FromEvent can bridge.
// AddEventListener returns a function that removes the listener.
type EventTarget[E any] interface {
	AddEventListener(event string, listener func(E)) (remove func())
}

// Emitter is an in-process EventTarget. Like the rest of the package it is
// not safe for concurrent use.
type Emitter[E any] struct {
	listeners map[string][]*listener[E]
}

type listener[E any] struct {
	fn      func(E)
	removed bool
}

// NewEmitter creates an empty Emitter.
func NewEmitter[E any]() *Emitter[E] {
	return &Emitter[E]{listeners: make(map[string][]*listener[E])}
}

// AddEventListener registers fn for event.
func (e *Emitter[E]) AddEventListener(event string, fn func(E)) func() {
	if e.listeners == nil {
		e.listeners = make(map[string][]*listener[E])
	}
	l := &listener[E]{fn: fn}
	e.listeners[event] = append(e.listeners[event], l)
	return func() {
		e.remove(event, l)
	}
}

func (e *Emitter[E]) remove(event string, l *listener[E]) {
	if l.removed {
		return
	}
	l.removed = true
	list := e.listeners[event]
	for i, candidate := range list {
		if candidate == l {
			e.listeners[event] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(e.listeners[event]) == 0 {
		delete(e.listeners, event)
	}
}

// Emit delivers v to the listeners registered for event and returns how many
// were called. Listeners removed during delivery are skipped.
func (e *Emitter[E]) Emit(event string, v E) int {
	snapshot := append([]*listener[E](nil), e.listeners[event]...)
	called := 0
	for _, l := range snapshot {
		if l.removed {
			continue
		}
		l.fn(v)
		called++
	}
	return called
}

// ListenerCount reports the listeners registered for event.
func (e *Emitter[E]) ListenerCount(event string) int {
	return len(e.listeners[event])
}
