// Package bus provides the in-process publish/subscribe register shell
// modules communicate through. The vocabulary is open: any
// [events.Kind] can be published, subscribers only see kinds they asked
// for.
package bus

import (
	"sync"

	"github.com/voxshell/voxshell-core/core/events"
)

// Bus is an open-vocabulary event register. The zero value is not
// usable; construct one with [New]. One bus per shell process is the
// norm, but tests are free to hold several independent instances.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[events.Kind][]*Subscription
	catchAll []*Subscription
}

// Subscription is the revocable handle returned by Subscribe. Every
// subscription has an explicit, individually revocable lifetime.
type Subscription struct {
	id      int
	kind    events.Kind
	all     bool
	handler func(events.Event)
	bus     *Bus
}

func New() *Bus {
	return &Bus{handlers: map[events.Kind][]*Subscription{}}
}

// Subscribe registers handler for the given kind and returns its handle.
func (b *Bus) Subscribe(kind events.Kind, handler func(events.Event)) *Subscription {
	if b == nil || handler == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	subscription := &Subscription{id: b.nextID, kind: kind, handler: handler, bus: b}
	b.handlers[kind] = append(b.handlers[kind], subscription)
	return subscription
}

// SubscribeAll registers handler for every published event.
func (b *Bus) SubscribeAll(handler func(events.Event)) *Subscription {
	if b == nil || handler == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	subscription := &Subscription{id: b.nextID, all: true, handler: handler, bus: b}
	b.catchAll = append(b.catchAll, subscription)
	return subscription
}

// Publish delivers event synchronously to every matching handler, in
// subscription order. A panicking handler is recovered and logged; it
// never aborts delivery to the remaining handlers.
func (b *Bus) Publish(event events.Event) {
	if b == nil || event == nil {
		return
	}

	b.mu.RLock()
	matched := make([]*Subscription, 0, len(b.handlers[event.Kind()])+len(b.catchAll))
	matched = append(matched, b.handlers[event.Kind()]...)
	matched = append(matched, b.catchAll...)
	b.mu.RUnlock()

	for _, subscription := range matched {
		b.invoke(subscription, event)
	}
}

func (b *Bus) invoke(subscription *Subscription, event events.Event) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("event handler panicked",
				"kind", string(event.Kind()),
				"panic", recovered,
			)
		}
	}()

	subscription.handler(event)
}

// Unsubscribe removes the subscription from its bus. Safe to call more
// than once and on a nil handle.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}

	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	if s.all {
		s.bus.catchAll = remove(s.bus.catchAll, s.id)
	} else {
		s.bus.handlers[s.kind] = remove(s.bus.handlers[s.kind], s.id)
	}
	s.bus = nil
}

func remove(subscriptions []*Subscription, id int) []*Subscription {
	for i, subscription := range subscriptions {
		if subscription.id == id {
			return append(subscriptions[:i:i], subscriptions[i+1:]...)
		}
	}
	return subscriptions
}
