package adapters

import (
	"fmt"

	"github.com/invopop/jsonschema"
)

// Profile is one selectable conversation mode: an adapter plus the
// configuration overrides it runs with.
type Profile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Adapter string `json:"adapter"`
	Config  Config `json:"config,omitzero"`
}

// Discovery answers "which modes exist and which one is active" for
// shells, on top of a registry.
type Discovery struct {
	registry *Registry
	profiles []Profile
}

func NewDiscovery(registry *Registry, profiles []Profile) *Discovery {
	return &Discovery{registry: registry, profiles: profiles}
}

// Modes lists every selectable profile.
func (d *Discovery) Modes() []Profile {
	modes := make([]Profile, len(d.profiles))
	copy(modes, d.profiles)
	return modes
}

// Profile looks a profile up by id.
func (d *Discovery) Profile(id string) (Profile, bool) {
	for _, profile := range d.profiles {
		if profile.ID == id {
			return profile, true
		}
	}
	return Profile{}, false
}

// ActiveProfile picks the profile to activate. Preference order is the
// locally persisted choice, then the server-reported active mode, then
// the first profile whose adapter is the registry default. The zero
// profile with ok=false means nothing is selectable.
func (d *Discovery) ActiveProfile(persisted, serverReported string) (Profile, bool) {
	if profile, ok := d.Profile(persisted); ok {
		return profile, true
	}
	if persisted != "" {
		logger.Warn("persisted mode not found, trying server-reported mode",
			"persisted", persisted, "server", serverReported)
	}
	if profile, ok := d.Profile(serverReported); ok {
		return profile, true
	}

	for _, profile := range d.profiles {
		if profile.Adapter == d.registry.DefaultID() {
			return profile, true
		}
	}
	if len(d.profiles) > 0 {
		return d.profiles[0], true
	}
	return Profile{}, false
}

// ConfigSchema generates the JSON schema for an adapter's typed
// configuration, for shells that render settings forms.
func (d *Discovery) ConfigSchema(adapterID string) (*jsonschema.Schema, error) {
	adapter, err := d.registry.Resolve(adapterID)
	if err != nil {
		return nil, err
	}

	prototyper, ok := adapter.(ConfigPrototyper)
	if !ok {
		return nil, fmt.Errorf("adapter %q has no configuration schema", adapter.Descriptor().ID)
	}

	reflector := jsonschema.Reflector{DoNotReference: true}
	return reflector.Reflect(prototyper.ConfigPrototype()), nil
}
