// Package bridge is the adapter-facing event register. Its vocabulary
// is fixed and versioned (see [VocabularyVersion]); adapters and shell
// bridge modules may only communicate through it, never by direct
// reference.
package bridge

import "sync"

// Bridge routes [AgentEvent]s from the active adapter to shell handlers
// and [ShellAction]s from the shell to the active adapter. At most one
// adapter is attached at a time; the mode switcher enforces that by
// calling [Bridge.ClearAll] between adapters.
type Bridge struct {
	mu             sync.RWMutex
	nextID         int
	agentHandlers  map[AgentEventKind][]*Subscription
	actionHandlers map[ShellActionKind][]*Subscription
}

// Subscription is the revocable handle for a single bridge handler.
type Subscription struct {
	id            int
	bridge        *Bridge
	agentHandler  func(AgentEvent)
	actionHandler func(ShellAction)
	remove        func(b *Bridge, id int)
}

func New() *Bridge {
	return &Bridge{
		agentHandlers:  map[AgentEventKind][]*Subscription{},
		actionHandlers: map[ShellActionKind][]*Subscription{},
	}
}

// OnAgentEvent registers a shell-side handler for one agent event kind.
func (b *Bridge) OnAgentEvent(kind AgentEventKind, handler func(AgentEvent)) *Subscription {
	if b == nil || handler == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	subscription := &Subscription{
		id:           b.nextID,
		bridge:       b,
		agentHandler: handler,
		remove: func(b *Bridge, id int) {
			b.agentHandlers[kind] = removeSubscription(b.agentHandlers[kind], id)
		},
	}
	b.agentHandlers[kind] = append(b.agentHandlers[kind], subscription)
	return subscription
}

// OnShellAction registers an adapter-side handler for one shell action kind.
func (b *Bridge) OnShellAction(kind ShellActionKind, handler func(ShellAction)) *Subscription {
	if b == nil || handler == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	subscription := &Subscription{
		id:            b.nextID,
		bridge:        b,
		actionHandler: handler,
		remove: func(b *Bridge, id int) {
			b.actionHandlers[kind] = removeSubscription(b.actionHandlers[kind], id)
		},
	}
	b.actionHandlers[kind] = append(b.actionHandlers[kind], subscription)
	return subscription
}

// EmitAgentEvent delivers event synchronously to every shell handler
// registered for its kind. Panicking handlers are recovered and logged.
//
// Handlers detached by ClearAll between the snapshot and the call are
// still skipped: detachment clears the subscription's handler slot.
func (b *Bridge) EmitAgentEvent(event AgentEvent) {
	if b == nil || event == nil {
		return
	}

	b.mu.RLock()
	matched := append([]*Subscription(nil), b.agentHandlers[event.AgentKind()]...)
	b.mu.RUnlock()

	for _, subscription := range matched {
		b.mu.RLock()
		handler := subscription.agentHandler
		b.mu.RUnlock()
		if handler == nil {
			continue
		}
		invokeAgentHandler(handler, event)
	}
}

// DispatchShellAction delivers action synchronously to every adapter
// handler registered for its kind.
func (b *Bridge) DispatchShellAction(action ShellAction) {
	if b == nil || action == nil {
		return
	}

	b.mu.RLock()
	matched := append([]*Subscription(nil), b.actionHandlers[action.ShellKind()]...)
	b.mu.RUnlock()

	for _, subscription := range matched {
		b.mu.RLock()
		handler := subscription.actionHandler
		b.mu.RUnlock()
		if handler == nil {
			continue
		}
		invokeActionHandler(handler, action)
	}
}

// ClearAll unconditionally drops every handler on both directions. This
// is the mechanism that guarantees a destroyed adapter's stale handlers
// can never fire after a mode switch begins.
func (b *Bridge) ClearAll() {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, subscriptions := range b.agentHandlers {
		for _, subscription := range subscriptions {
			subscription.detachLocked()
		}
	}
	for _, subscriptions := range b.actionHandlers {
		for _, subscription := range subscriptions {
			subscription.detachLocked()
		}
	}
	b.agentHandlers = map[AgentEventKind][]*Subscription{}
	b.actionHandlers = map[ShellActionKind][]*Subscription{}
}

// Unsubscribe removes this handler from the bridge. Safe to call more
// than once, on a nil handle, and after ClearAll.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}

	bridge := s.bridge
	if bridge == nil {
		return
	}

	bridge.mu.Lock()
	defer bridge.mu.Unlock()

	if s.bridge == nil {
		return
	}
	s.remove(bridge, s.id)
	s.detachLocked()
}

func (s *Subscription) detachLocked() {
	s.agentHandler = nil
	s.actionHandler = nil
	s.bridge = nil
}

func removeSubscription(subscriptions []*Subscription, id int) []*Subscription {
	for i, subscription := range subscriptions {
		if subscription.id == id {
			return append(subscriptions[:i:i], subscriptions[i+1:]...)
		}
	}
	return subscriptions
}

func invokeAgentHandler(handler func(AgentEvent), event AgentEvent) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("agent event handler panicked",
				"kind", string(event.AgentKind()),
				"panic", recovered,
			)
		}
	}()

	handler(event)
}

func invokeActionHandler(handler func(ShellAction), action ShellAction) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("shell action handler panicked",
				"kind", string(action.ShellKind()),
				"panic", recovered,
			)
		}
	}()

	handler(action)
}
