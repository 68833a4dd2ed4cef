package session

import (
	"context"
	"time"

	"github.com/voxshell/voxshell-core/core/bus"
	"github.com/voxshell/voxshell-core/core/session/backend"
)

// ConversationClient is the backend the session talks to for turns and
// greeting synthesis.
type ConversationClient interface {
	OpenTurn(ctx context.Context, request backend.TurnRequest) (backend.Stream, error)
	Synthesize(ctx context.Context, text string, voice backend.VoiceSelection) ([]byte, error)
}

// SessionCallbacks is the callback bag for embedders (adapters) that
// consume session output without a bus.
type SessionCallbacks struct {
	OnStateChanged    func(state State)
	OnSessionReset    func(oldID, newID, reason string)
	OnError           func(message string)
	OnMood            func(mood string)
	OnMessage         func(role, text string, final bool)
	OnTranscript      func(text string, partial bool)
	OnSpeakingChanged func(speaking bool)
	OnAudioLevel      func(level float64)
	OnToolCalled      func(name string, params map[string]any, result string)
	OnMusic           func(action, track string)
	OnSound           func(sound, effectType string)
	OnCanvas          func(action, url string)
	OnPagePick        func()
	OnPassive         func()
	OnFaceEnroll      func(name string)
	OnGenerate        func(prompt string)
	OnStreamRequest   func(title, artist string)
}

type Option func(*VoiceSession)

func WithConversationClient(client ConversationClient) Option {
	return func(s *VoiceSession) { s.backend = client }
}

func WithCaptureProvider(provider CaptureProvider) Option {
	return func(s *VoiceSession) { s.capture.set(provider) }
}

func WithPlayback(playback Playback) Option {
	return func(s *VoiceSession) { s.playback = playback }
}

// WithBus publishes every session event on the given bus in addition to
// any registered callbacks.
func WithBus(eventBus *bus.Bus) Option {
	return func(s *VoiceSession) { s.bus = eventBus }
}

func WithCallbacks(callbacks SessionCallbacks) Option {
	return func(s *VoiceSession) { s.callbackEmitter = newCallbackEventEmitter(callbacks) }
}

func WithVoice(voice backend.VoiceSelection) Option {
	return func(s *VoiceSession) { s.voice = voice }
}

// WithGreetings replaces the built-in greeting pool. One is chosen at
// random on every Start.
func WithGreetings(greetings ...string) Option {
	return func(s *VoiceSession) {
		if len(greetings) > 0 {
			s.greetings = greetings
		}
	}
}

// WithAmbientContext registers the provider of the UI-context snapshot
// attached to every outgoing turn.
func WithAmbientContext(snapshot func() backend.AmbientContext) Option {
	return func(s *VoiceSession) { s.contextSnapshot = snapshot }
}

// WithSettlingDelay overrides the pause between playback ending and the
// microphone re-arming. Intended for tests.
func WithSettlingDelay(delay time.Duration) Option {
	return func(s *VoiceSession) { s.settlingDelay = delay }
}

// WithSafetyNetDelay overrides the delay before capture is
// force-restarted after a pure-text (no audio) turn. Intended for tests.
func WithSafetyNetDelay(delay time.Duration) Option {
	return func(s *VoiceSession) { s.safetyNetDelay = delay }
}
