// Package events provides a synchronous publish/subscribe bus for session changes.
package events

import (
	"sync"
)

// SessionChanged is published every time the stored credential is set or cleared.
type SessionChanged struct {
	Authenticated bool
}

// Handler receives session change events.
type Handler func(ev SessionChanged)

// Bus dispatches events to its subscribers in subscription order.
type Bus struct {
	mu       sync.RWMutex
	next     int
	order    []int
	handlers map[int]Handler
}

// NewBus initializes an empty Bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe registers h and returns a function removing the registration.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.handlers[id] = h
	b.order = append(b.order, id)
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish calls every handler on the calling goroutine before returning.
// Handlers may subscribe or unsubscribe while being called; changes apply to the next Publish.
func (b *Bus) Publish(ev SessionChanged) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
}

// Len returns the number of active subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}
