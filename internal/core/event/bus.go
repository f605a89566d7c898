package event

import "reflect"

// Bus is a double-buffered typed event bus. Events emitted during tick N
// are delivered at the start of tick N+1 by the dispatch system, which calls
// Swap then DispatchAll. Game loop only; no locking.
type Bus struct {
	front    map[reflect.Type][]any
	back     map[reflect.Type][]any
	handlers map[reflect.Type][]func(any)
}

func NewBus() *Bus {
	return &Bus{
		front:    make(map[reflect.Type][]any),
		back:     make(map[reflect.Type][]any),
		handlers: make(map[reflect.Type][]func(any)),
	}
}

// Emit queues an event for delivery next tick.
func Emit[T any](b *Bus, ev T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.back[t] = append(b.back[t], ev)
}

// Subscribe registers a handler for events of type T. Handlers are expected
// to be registered at startup, before the first tick.
func Subscribe[T any](b *Bus, fn func(T)) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], func(ev any) {
		fn(ev.(T))
	})
}

// Swap rotates back→front and clears the new back buffer. Called once at
// tick start.
func (b *Bus) Swap() {
	b.front, b.back = b.back, b.front
	for k := range b.back {
		b.back[k] = b.back[k][:0]
	}
}

// DispatchAll delivers every front-buffer event to its handlers.
func (b *Bus) DispatchAll() {
	for t, events := range b.front {
		handlers := b.handlers[t]
		for _, ev := range events {
			for _, h := range handlers {
				h(ev)
			}
		}
	}
}
