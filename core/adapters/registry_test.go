package adapters

import (
	"context"
	"testing"

	"github.com/voxshell/voxshell-core/core/bridge"
)

type adapterStub struct {
	id        string
	initCalls int
	destroyed bool
}

func (a *adapterStub) Descriptor() Descriptor {
	return Descriptor{ID: a.id, Name: a.id, Capabilities: []Capability{CapabilityTools}}
}

func (a *adapterStub) Init(ctx context.Context, eventBridge *bridge.Bridge, config Config) error {
	a.initCalls++
	return nil
}

func (a *adapterStub) Start(ctx context.Context) error { return nil }
func (a *adapterStub) Stop() error                     { return nil }
func (a *adapterStub) Destroy() error {
	a.destroyed = true
	return nil
}

func TestResolveBuildsAndCachesInstances(t *testing.T) {
	registry := NewRegistry("default")
	built := 0
	registry.Register("default", func() Adapter {
		built++
		return &adapterStub{id: "default"}
	})

	first, err := registry.Resolve("default")
	if err != nil {
		t.Fatalf("expected resolve to succeed, got %v", err)
	}
	second, err := registry.Resolve("default")
	if err != nil {
		t.Fatalf("expected resolve to succeed, got %v", err)
	}

	if built != 1 {
		t.Fatalf("expected one build, got %d", built)
	}
	if first != second {
		t.Fatalf("expected the cached instance to be reused")
	}
}

func TestResolveUnknownIDFallsBackToDefault(t *testing.T) {
	registry := NewRegistry("default")
	registry.Register("default", func() Adapter { return &adapterStub{id: "default"} })

	adapter, err := registry.Resolve("hume-evi")
	if err != nil {
		t.Fatalf("expected fallback instead of an error, got %v", err)
	}
	if adapter.Descriptor().ID != "default" {
		t.Fatalf("expected the default adapter, got %q", adapter.Descriptor().ID)
	}
}

func TestResolveFailsOnlyWhenDefaultIsMissing(t *testing.T) {
	registry := NewRegistry("default")

	if _, err := registry.Resolve("anything"); err == nil {
		t.Fatalf("expected an error when the default adapter is unregistered")
	}
}

func TestEvictForcesRebuild(t *testing.T) {
	registry := NewRegistry("default")
	built := 0
	registry.Register("default", func() Adapter {
		built++
		return &adapterStub{id: "default"}
	})

	registry.Resolve("default")
	registry.Evict("default")
	registry.Resolve("default")

	if built != 2 {
		t.Fatalf("expected a rebuild after eviction, got %d builds", built)
	}
}
