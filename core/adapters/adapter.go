// Package adapters defines the pluggable agent-backend surface: each
// adapter owns one way of running a conversation (which backend, which
// protocol, which capabilities) and talks to the rest of the system
// exclusively through the event bridge.
package adapters

import (
	"context"

	"github.com/voxshell/voxshell-core/core/bridge"
)

// Capability names one optional feature an adapter can support. The
// vocabulary is closed: shells switch features on and off based on
// these, so an unknown capability would silently do nothing.
type Capability string

const (
	CapabilityCanvas        Capability = "canvas"
	CapabilityMusicSync     Capability = "music_sync"
	CapabilitySoundEffects  Capability = "sound_effects"
	CapabilityMultiVoice    Capability = "multi_voice"
	CapabilityEmotion       Capability = "emotion"
	CapabilityCallerEffects Capability = "caller_effects"
	CapabilityCommercials   Capability = "commercials"
	CapabilityVision        Capability = "vision"
	CapabilityTools         Capability = "tools"
	CapabilityWakeWord      Capability = "wake_word"
)

// Descriptor identifies an adapter and declares what it can do.
type Descriptor struct {
	ID           string
	Name         string
	Capabilities []Capability
}

func (d Descriptor) Has(capability Capability) bool {
	for _, c := range d.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// Adapter is one conversation backend. The lifecycle is
// Init, Start, Stop, Destroy; Init receives the bridge the adapter
// must emit agent events on and take shell actions from.
//
// Destroy must release every external resource (connections, devices)
// and must not emit on the bridge afterwards.
type Adapter interface {
	Descriptor() Descriptor
	Init(ctx context.Context, eventBridge *bridge.Bridge, config Config) error
	Start(ctx context.Context) error
	Stop() error
	Destroy() error
}

// Factory builds a fresh, uninitialized adapter instance.
type Factory func() Adapter

// ConfigPrototyper is implemented by adapters that expose a typed
// configuration struct, used for schema generation and merging.
type ConfigPrototyper interface {
	ConfigPrototype() any
}
