package shell

import (
	"context"
	"sync"
	"testing"

	"github.com/voxshell/voxshell-core/core/adapters"
	"github.com/voxshell/voxshell-core/core/bridge"
)

type recordingAdapter struct {
	id           string
	capabilities []adapters.Capability
	destroyPanic bool

	mu        sync.Mutex
	received  []string
	started   int
	destroyed int

	subscriptions []*bridge.Subscription
}

func (a *recordingAdapter) Descriptor() adapters.Descriptor {
	return adapters.Descriptor{ID: a.id, Name: a.id, Capabilities: a.capabilities}
}

func (a *recordingAdapter) Init(ctx context.Context, eventBridge *bridge.Bridge, config adapters.Config) error {
	a.subscriptions = append(a.subscriptions,
		eventBridge.OnShellAction(bridge.ActionSendMessage, func(action bridge.ShellAction) {
			if send, ok := action.(bridge.SendMessage); ok {
				a.mu.Lock()
				a.received = append(a.received, send.Text)
				a.mu.Unlock()
			}
		}))
	return nil
}

func (a *recordingAdapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.started++
	return nil
}

func (a *recordingAdapter) Stop() error { return nil }

func (a *recordingAdapter) Destroy() error {
	a.mu.Lock()
	a.destroyed++
	a.mu.Unlock()
	for _, subscription := range a.subscriptions {
		subscription.Unsubscribe()
	}
	if a.destroyPanic {
		panic("destroy gone wrong")
	}
	return nil
}

func (a *recordingAdapter) receivedMessages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.received...)
}

func testOrchestrator(t *testing.T, opts ...Option) (*Orchestrator, *recordingAdapter, *recordingAdapter) {
	t.Helper()

	adapterA := &recordingAdapter{id: "alpha", capabilities: []adapters.Capability{
		adapters.CapabilityCanvas, adapters.CapabilitySoundEffects,
	}}
	adapterB := &recordingAdapter{id: "beta", capabilities: []adapters.Capability{
		adapters.CapabilityEmotion,
	}}

	registry := adapters.NewRegistry("alpha")
	registry.Register("alpha", func() adapters.Adapter { return adapterA })
	registry.Register("beta", func() adapters.Adapter { return adapterB })

	discovery := adapters.NewDiscovery(registry, []adapters.Profile{
		{ID: "mode-a", Name: "Mode A", Adapter: "alpha"},
		{ID: "mode-b", Name: "Mode B", Adapter: "beta"},
	})

	return NewOrchestrator(registry, discovery, bridge.New(), opts...), adapterA, adapterB
}

func TestSwitchModeIsolatesHandlersBetweenModes(t *testing.T) {
	orchestrator, adapterA, adapterB := testOrchestrator(t)

	if err := orchestrator.SwitchMode(context.Background(), "mode-a"); err != nil {
		t.Fatalf("expected switch to succeed, got %v", err)
	}
	orchestrator.SendMessage("for alpha")

	if err := orchestrator.SwitchMode(context.Background(), "mode-b"); err != nil {
		t.Fatalf("expected switch to succeed, got %v", err)
	}
	orchestrator.SendMessage("for beta")

	if got := adapterA.receivedMessages(); len(got) != 1 || got[0] != "for alpha" {
		t.Fatalf("expected alpha to only see its own message, got %v", got)
	}
	if got := adapterB.receivedMessages(); len(got) != 1 || got[0] != "for beta" {
		t.Fatalf("expected beta to only see its own message, got %v", got)
	}
	if adapterA.destroyed != 1 {
		t.Fatalf("expected the old adapter to be destroyed, got %d", adapterA.destroyed)
	}
}

func TestSwitchModeUnknownModeUsesDefaultAdapter(t *testing.T) {
	orchestrator, adapterA, _ := testOrchestrator(t)

	if err := orchestrator.SwitchMode(context.Background(), "vanished-mode"); err != nil {
		t.Fatalf("expected fallback instead of an error, got %v", err)
	}
	if adapterA.started != 1 {
		t.Fatalf("expected the default adapter to start, got %d", adapterA.started)
	}
}

func TestSwitchModeSurvivesDestroyPanic(t *testing.T) {
	orchestrator, adapterA, adapterB := testOrchestrator(t)
	adapterA.destroyPanic = true

	if err := orchestrator.SwitchMode(context.Background(), "mode-a"); err != nil {
		t.Fatalf("expected switch to succeed, got %v", err)
	}
	if err := orchestrator.SwitchMode(context.Background(), "mode-b"); err != nil {
		t.Fatalf("expected the panicking destroy to be contained, got %v", err)
	}
	if adapterB.started != 1 {
		t.Fatalf("expected the new adapter to start, got %d", adapterB.started)
	}
}

func TestSwitchModeDerivesVisibilityFromCapabilities(t *testing.T) {
	var observed Visibility
	orchestrator, _, _ := testOrchestrator(t,
		WithVisibilityCallback(func(visibility Visibility) { observed = visibility }))

	if err := orchestrator.SwitchMode(context.Background(), "mode-a"); err != nil {
		t.Fatalf("expected switch to succeed, got %v", err)
	}
	if !observed.Canvas || !observed.SoundEffects {
		t.Fatalf("expected canvas and sound surfaces for mode A, got %#v", observed)
	}
	if observed.MoodIndicator {
		t.Fatalf("expected no mood indicator for mode A, got %#v", observed)
	}

	if err := orchestrator.SwitchMode(context.Background(), "mode-b"); err != nil {
		t.Fatalf("expected switch to succeed, got %v", err)
	}
	if observed.Canvas || !observed.MoodIndicator {
		t.Fatalf("expected only the mood indicator for mode B, got %#v", observed)
	}
}

func TestSwitchModePersistsSelection(t *testing.T) {
	store := &MemoryModeStore{}
	orchestrator, _, _ := testOrchestrator(t, WithModeStore(store))

	if err := orchestrator.SwitchMode(context.Background(), "mode-b"); err != nil {
		t.Fatalf("expected switch to succeed, got %v", err)
	}

	saved, err := store.Load()
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}
	if saved != "mode-b" {
		t.Fatalf("expected the selection to persist, got %q", saved)
	}
}

func TestActivatePrefersPersistedMode(t *testing.T) {
	store := &MemoryModeStore{}
	store.Save("mode-b")
	orchestrator, _, adapterB := testOrchestrator(t, WithModeStore(store))

	if err := orchestrator.Activate(context.Background(), "mode-a"); err != nil {
		t.Fatalf("expected activation to succeed, got %v", err)
	}
	if adapterB.started != 1 {
		t.Fatalf("expected the persisted mode's adapter to start, got %d", adapterB.started)
	}
	if orchestrator.ActiveProfile().ID != "mode-b" {
		t.Fatalf("unexpected active profile %q", orchestrator.ActiveProfile().ID)
	}
}

func TestGatedCallbacksOnlyFireWithCapability(t *testing.T) {
	canvasCalls := 0
	orchestrator, _, _ := testOrchestrator(t, WithCallbacks(Callbacks{
		OnCanvas: func(action, url string) { canvasCalls++ },
	}))

	if err := orchestrator.SwitchMode(context.Background(), "mode-b"); err != nil {
		t.Fatalf("expected switch to succeed, got %v", err)
	}
	orchestrator.eventBridge.EmitAgentEvent(bridge.CanvasCommand{Action: "open", URL: "https://example.com"})
	if canvasCalls != 0 {
		t.Fatalf("expected no canvas delivery without the capability, got %d", canvasCalls)
	}

	if err := orchestrator.SwitchMode(context.Background(), "mode-a"); err != nil {
		t.Fatalf("expected switch to succeed, got %v", err)
	}
	orchestrator.eventBridge.EmitAgentEvent(bridge.CanvasCommand{Action: "open", URL: "https://example.com"})
	if canvasCalls != 1 {
		t.Fatalf("expected one canvas delivery with the capability, got %d", canvasCalls)
	}
}
