package events

const (
	// KindPlaybackStarted identifies the idle-to-playing transition.
	KindPlaybackStarted Kind = "playback.started"
	// KindPlaybackEnded identifies the playing-to-idle transition.
	KindPlaybackEnded Kind = "playback.ended"
	// KindAudioLevel identifies a per-chunk amplitude report.
	KindAudioLevel Kind = "playback.audio_level"
)

// PlaybackStarted fires exactly once when the playback queue goes from
// idle to playing.
type PlaybackStarted struct{ Base }

func NewPlaybackStarted() PlaybackStarted {
	return PlaybackStarted{Base: NewBase(KindPlaybackStarted)}
}

// PlaybackEnded fires exactly once when the playback queue drains.
type PlaybackEnded struct{ Base }

func NewPlaybackEnded() PlaybackEnded {
	return PlaybackEnded{Base: NewBase(KindPlaybackEnded)}
}

// AudioLevel carries the normalized amplitude of the chunk about to play.
type AudioLevel struct {
	Base
	Level float64
}

func NewAudioLevel(level float64) AudioLevel {
	return AudioLevel{Base: NewBase(KindAudioLevel), Level: level}
}
