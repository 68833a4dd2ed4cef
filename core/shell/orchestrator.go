// Package shell coordinates the host surface: which adapter is live,
// which bridge handlers are attached and which surfaces are visible.
package shell

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/voxshell/voxshell-core/core/adapters"
	"github.com/voxshell/voxshell-core/core/bridge"
)

// connection is any revocable handler attachment.
type connection interface {
	Unsubscribe()
}

// Orchestrator owns the mode lifecycle. Exactly one adapter is live at
// a time; switching destroys the old one, clears the bridge completely
// and only then brings the new one up, so handlers from different
// modes can never coexist.
type Orchestrator struct {
	registry    *adapters.Registry
	discovery   *adapters.Discovery
	eventBridge *bridge.Bridge
	store       ModeStore
	callbacks   Callbacks

	onVisibility func(Visibility)
	baseContext  context.Context

	mu            sync.Mutex
	active        adapters.Adapter
	activeProfile adapters.Profile
	connections   []connection
	visibility    Visibility
}

type Option func(*Orchestrator)

// WithModeStore replaces the in-memory default with a persistent
// store.
func WithModeStore(store ModeStore) Option {
	return func(o *Orchestrator) { o.store = store }
}

func WithCallbacks(callbacks Callbacks) Option {
	return func(o *Orchestrator) { o.callbacks = callbacks }
}

// WithVisibilityCallback is invoked after every successful mode switch
// with the surface visibility of the new mode.
func WithVisibilityCallback(callback func(Visibility)) Option {
	return func(o *Orchestrator) { o.onVisibility = callback }
}

func NewOrchestrator(registry *adapters.Registry, discovery *adapters.Discovery, eventBridge *bridge.Bridge, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:    registry,
		discovery:   discovery,
		eventBridge: eventBridge,
		store:       &MemoryModeStore{},
		baseContext: context.Background(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Activate brings up the initial mode: the persisted choice if it
// still exists, otherwise the server-reported mode, otherwise the
// default profile.
func (o *Orchestrator) Activate(ctx context.Context, serverReported string) error {
	persisted, err := o.store.Load()
	if err != nil {
		logger.Warn("failed to load persisted mode", "error", err)
	}

	profile, ok := o.discovery.ActiveProfile(persisted, serverReported)
	if !ok {
		return fmt.Errorf("no conversation mode is available")
	}
	return o.SwitchMode(ctx, profile.ID)
}

// ActiveProfile reports the currently live profile.
func (o *Orchestrator) ActiveProfile() adapters.Profile {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.activeProfile
}

// Visibility reports the surface visibility of the live mode.
func (o *Orchestrator) Visibility() Visibility {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.visibility
}

// Modes lists the selectable profiles.
func (o *Orchestrator) Modes() []adapters.Profile {
	return o.discovery.Modes()
}

// SwitchMode tears down the live mode and brings up the named one.
// The teardown order is fixed: destroy the adapter, drop the shell's
// own handlers, then clear the whole bridge before anything new
// attaches.
func (o *Orchestrator) SwitchMode(ctx context.Context, modeID string) error {
	ctx, span := tracer.Start(ctx, "switch conversation mode")
	defer span.End()

	o.mu.Lock()
	defer o.mu.Unlock()

	profile, ok := o.discovery.Profile(modeID)
	if !ok {
		logger.Warn("unknown mode requested, using default adapter", "mode", modeID)
		profile = adapters.Profile{ID: modeID, Adapter: o.registry.DefaultID()}
	}
	span.SetAttributes(
		attribute.String("mode.id", profile.ID),
		attribute.String("mode.adapter", profile.Adapter),
	)

	if o.active != nil {
		o.destroyActiveLocked()
	}
	for _, c := range o.connections {
		c.Unsubscribe()
	}
	o.connections = nil
	o.eventBridge.ClearAll()

	adapter, err := o.registry.Resolve(profile.Adapter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve adapter")
		return fmt.Errorf("failed to resolve adapter for mode %q: %w", modeID, err)
	}

	if err := adapter.Init(ctx, o.eventBridge, profile.Config); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to initialize adapter")
		return fmt.Errorf("failed to initialize adapter %q: %w", adapter.Descriptor().ID, err)
	}

	visibility := VisibilityFor(adapter.Descriptor())
	o.connections = append(o.connectAlwaysOn(), o.connectGated(visibility)...)

	if err := adapter.Start(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to start adapter")
		return fmt.Errorf("failed to start adapter %q: %w", adapter.Descriptor().ID, err)
	}

	o.active = adapter
	o.activeProfile = profile
	o.visibility = visibility

	if err := o.store.Save(profile.ID); err != nil {
		logger.Warn("failed to persist mode selection", "mode", profile.ID, "error", err)
	}
	if o.onVisibility != nil {
		o.onVisibility(visibility)
	}

	logger.Info("conversation mode switched", "mode", profile.ID, "adapter", adapter.Descriptor().ID)
	return nil
}

// SwitchModeAsync runs SwitchMode on a fresh goroutine, logging any
// failure. For callers on UI loops that must not block.
func (o *Orchestrator) SwitchModeAsync(modeID string) {
	go func() {
		if err := o.SwitchMode(o.baseContext, modeID); err != nil {
			logger.Error("mode switch failed", "mode", modeID, "error", err)
		}
	}()
}

// Shutdown destroys the live adapter and detaches everything.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != nil {
		o.destroyActiveLocked()
	}
	for _, c := range o.connections {
		c.Unsubscribe()
	}
	o.connections = nil
	o.eventBridge.ClearAll()
}

// destroyActiveLocked destroys the live adapter, tolerating panics: a
// misbehaving adapter must not be able to abort a mode switch halfway.
func (o *Orchestrator) destroyActiveLocked() {
	adapter := o.active
	o.active = nil

	func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				logger.Error("adapter destroy panicked",
					"adapter", adapter.Descriptor().ID, "panic", recovered)
			}
		}()
		if err := adapter.Destroy(); err != nil {
			logger.Warn("adapter destroy failed",
				"adapter", adapter.Descriptor().ID, "error", err)
		}
	}()
	o.registry.Evict(adapter.Descriptor().ID)
}

// SendMessage routes a user message to the active adapter.
func (o *Orchestrator) SendMessage(text string) {
	o.eventBridge.DispatchShellAction(bridge.SendMessage{Text: text})
}

// EndSession asks the active adapter to end its conversation.
func (o *Orchestrator) EndSession() {
	o.eventBridge.DispatchShellAction(bridge.EndSession{})
}

// InjectContext pushes silent background context to the active adapter.
func (o *Orchestrator) InjectContext(text string) {
	o.eventBridge.DispatchShellAction(bridge.ContextUpdate{Text: text})
}

// ForceMessage pushes a system-originated message to the active
// adapter.
func (o *Orchestrator) ForceMessage(text string) {
	o.eventBridge.DispatchShellAction(bridge.ForceMessage{Text: text})
}
