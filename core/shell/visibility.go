package shell

import "github.com/voxshell/voxshell-core/core/adapters"

// Visibility says which shell surfaces should be shown for the active
// adapter. Surfaces for capabilities the adapter lacks are hidden, not
// merely inert.
type Visibility struct {
	Canvas        bool
	MusicControls bool
	SoundEffects  bool
	MoodIndicator bool
	CallerEffects bool
	Commercials   bool
	Camera        bool
	VoicePicker   bool
}

// VisibilityFor derives surface visibility from an adapter's
// declared capabilities.
func VisibilityFor(descriptor adapters.Descriptor) Visibility {
	return Visibility{
		Canvas:        descriptor.Has(adapters.CapabilityCanvas),
		MusicControls: descriptor.Has(adapters.CapabilityMusicSync),
		SoundEffects:  descriptor.Has(adapters.CapabilitySoundEffects),
		MoodIndicator: descriptor.Has(adapters.CapabilityEmotion),
		CallerEffects: descriptor.Has(adapters.CapabilityCallerEffects),
		Commercials:   descriptor.Has(adapters.CapabilityCommercials),
		Camera:        descriptor.Has(adapters.CapabilityVision),
		VoicePicker:   descriptor.Has(adapters.CapabilityMultiVoice),
	}
}
