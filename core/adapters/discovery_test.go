package adapters

import "testing"

func testDiscovery() *Discovery {
	registry := NewRegistry("clawdbot")
	registry.Register("clawdbot", func() Adapter { return &adapterStub{id: "clawdbot"} })
	registry.Register("hume-evi", func() Adapter { return &adapterStub{id: "hume-evi"} })

	return NewDiscovery(registry, []Profile{
		{ID: "radio", Name: "Radio Host", Adapter: "hume-evi"},
		{ID: "companion", Name: "Companion", Adapter: "clawdbot"},
	})
}

func TestActiveProfilePrefersPersistedChoice(t *testing.T) {
	discovery := testDiscovery()

	profile, ok := discovery.ActiveProfile("radio", "companion")
	if !ok || profile.ID != "radio" {
		t.Fatalf("expected the persisted profile, got %#v", profile)
	}
}

func TestActiveProfileFallsBackToServerReported(t *testing.T) {
	discovery := testDiscovery()

	profile, ok := discovery.ActiveProfile("deleted-mode", "radio")
	if !ok || profile.ID != "radio" {
		t.Fatalf("expected the server-reported profile, got %#v", profile)
	}
}

func TestActiveProfileFallsBackToDefaultAdapterProfile(t *testing.T) {
	discovery := testDiscovery()

	profile, ok := discovery.ActiveProfile("deleted-mode", "also-deleted")
	if !ok || profile.ID != "companion" {
		t.Fatalf("expected the default adapter's profile, got %#v", profile)
	}
}

func TestActiveProfileReportsNothingSelectable(t *testing.T) {
	registry := NewRegistry("clawdbot")
	discovery := NewDiscovery(registry, nil)

	if _, ok := discovery.ActiveProfile("", ""); ok {
		t.Fatalf("expected no profile with an empty catalog")
	}
}

func TestConfigSchemaReflectsPrototype(t *testing.T) {
	type stubConfig struct {
		BaseURL string `json:"base_url"`
	}

	registry := NewRegistry("typed")
	registry.Register("typed", func() Adapter {
		return &prototypedAdapterStub{adapterStub: adapterStub{id: "typed"}, prototype: stubConfig{}}
	})
	discovery := NewDiscovery(registry, []Profile{{ID: "typed", Adapter: "typed"}})

	schema, err := discovery.ConfigSchema("typed")
	if err != nil {
		t.Fatalf("expected schema generation to succeed, got %v", err)
	}
	if schema == nil || schema.Properties == nil {
		t.Fatalf("expected a schema with properties")
	}
	if _, ok := schema.Properties.Get("base_url"); !ok {
		t.Fatalf("expected the base_url property in the schema")
	}
}

type prototypedAdapterStub struct {
	adapterStub
	prototype any
}

func (a *prototypedAdapterStub) ConfigPrototype() any { return a.prototype }
