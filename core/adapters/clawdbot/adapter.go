// Package clawdbot is the default conversation adapter: a full voice
// session against the clawdbot conversation backend, with the complete
// capability surface.
package clawdbot

import (
	"context"
	"fmt"
	"sync"

	"github.com/voxshell/voxshell-core/core/adapters"
	"github.com/voxshell/voxshell-core/core/audio/miniaudio"
	"github.com/voxshell/voxshell-core/core/bridge"
	"github.com/voxshell/voxshell-core/core/capture/deepgram"
	"github.com/voxshell/voxshell-core/core/session"
	"github.com/voxshell/voxshell-core/core/session/backend"
)

const AdapterID = "clawdbot"

// Config is the adapter's typed configuration.
type Config struct {
	BaseURL       string   `json:"base_url,omitzero" jsonschema:"title=Backend URL"`
	VoiceProvider string   `json:"voice_provider,omitzero" jsonschema:"title=Voice provider"`
	Voice         string   `json:"voice,omitzero" jsonschema:"title=Voice"`
	Greetings     []string `json:"greetings,omitzero" jsonschema:"title=Greeting pool"`
}

func defaultConfig() Config {
	return Config{
		BaseURL:       "http://localhost:8090",
		VoiceProvider: "elevenlabs",
		Voice:         "default",
	}
}

// conversationSession is the slice of [session.VoiceSession] the
// adapter drives. Narrowed for tests.
type conversationSession interface {
	Start(ctx context.Context) error
	Stop()
	Destroy()
	SendText(text string)
	InjectContext(text string)
	ForceMessage(text string)
}

type sessionBuilder func(config Config, callbacks session.SessionCallbacks) (conversationSession, error)

// Adapter implements [adapters.Adapter] over a voice session.
type Adapter struct {
	buildSession sessionBuilder

	mu            sync.Mutex
	session       conversationSession
	eventBridge   *bridge.Bridge
	subscriptions []*bridge.Subscription
}

type Option func(*Adapter)

// WithSessionBuilder replaces how the underlying session is
// constructed. Intended for tests.
func WithSessionBuilder(builder sessionBuilder) Option {
	return func(a *Adapter) { a.buildSession = builder }
}

func New(opts ...Option) *Adapter {
	a := &Adapter{buildSession: buildVoiceSession}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Factory registers under [AdapterID].
func Factory() adapters.Adapter { return New() }

var _ adapters.Adapter = (*Adapter)(nil)
var _ adapters.ConfigPrototyper = (*Adapter)(nil)

func (a *Adapter) Descriptor() adapters.Descriptor {
	return adapters.Descriptor{
		ID:   AdapterID,
		Name: "Clawdbot",
		Capabilities: []adapters.Capability{
			adapters.CapabilityCanvas,
			adapters.CapabilityMusicSync,
			adapters.CapabilitySoundEffects,
			adapters.CapabilityTools,
			adapters.CapabilityVision,
			adapters.CapabilityCallerEffects,
			adapters.CapabilityCommercials,
		},
	}
}

func (a *Adapter) ConfigPrototype() any { return Config{} }

// Init decodes the profile config, builds the session and wires both
// bridge directions.
func (a *Adapter) Init(ctx context.Context, eventBridge *bridge.Bridge, config adapters.Config) error {
	overrides, err := adapters.DecodeConfig[Config](config)
	if err != nil {
		return fmt.Errorf("failed to decode adapter config: %w", err)
	}
	merged, err := adapters.MergeConfig(defaultConfig(), overrides)
	if err != nil {
		return fmt.Errorf("failed to merge adapter config: %w", err)
	}

	conversation, err := a.buildSession(merged, bridgeCallbacks(eventBridge))
	if err != nil {
		return fmt.Errorf("failed to build session: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = conversation
	a.eventBridge = eventBridge
	a.subscriptions = []*bridge.Subscription{
		eventBridge.OnShellAction(bridge.ActionSendMessage, func(action bridge.ShellAction) {
			if send, ok := action.(bridge.SendMessage); ok {
				conversation.SendText(send.Text)
			}
		}),
		eventBridge.OnShellAction(bridge.ActionEndSession, func(action bridge.ShellAction) {
			conversation.Stop()
		}),
		eventBridge.OnShellAction(bridge.ActionContextUpdate, func(action bridge.ShellAction) {
			if update, ok := action.(bridge.ContextUpdate); ok {
				conversation.InjectContext(update.Text)
			}
		}),
		eventBridge.OnShellAction(bridge.ActionForceMessage, func(action bridge.ShellAction) {
			if force, ok := action.(bridge.ForceMessage); ok {
				conversation.ForceMessage(force.Text)
			}
		}),
	}
	return nil
}

func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	conversation := a.session
	eventBridge := a.eventBridge
	a.mu.Unlock()

	if conversation == nil {
		return fmt.Errorf("adapter is not initialized")
	}
	if err := conversation.Start(ctx); err != nil {
		eventBridge.EmitAgentEvent(bridge.Error{Message: err.Error()})
		return fmt.Errorf("failed to start session: %w", err)
	}

	eventBridge.EmitAgentEvent(bridge.Connected{})
	return nil
}

func (a *Adapter) Stop() error {
	a.mu.Lock()
	conversation := a.session
	eventBridge := a.eventBridge
	a.mu.Unlock()

	if conversation == nil {
		return nil
	}
	conversation.Stop()
	eventBridge.EmitAgentEvent(bridge.Disconnected{Reason: "stopped"})
	return nil
}

// Destroy tears the session down and detaches every bridge handler so
// nothing can fire after a mode switch.
func (a *Adapter) Destroy() error {
	a.mu.Lock()
	conversation := a.session
	subscriptions := a.subscriptions
	a.session = nil
	a.eventBridge = nil
	a.subscriptions = nil
	a.mu.Unlock()

	for _, subscription := range subscriptions {
		subscription.Unsubscribe()
	}
	if conversation != nil {
		conversation.Destroy()
	}
	return nil
}

func buildVoiceSession(config Config, callbacks session.SessionCallbacks) (conversationSession, error) {
	devices, err := miniaudio.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to open audio devices: %w", err)
	}

	opts := []session.Option{
		session.WithConversationClient(backend.NewClient(config.BaseURL)),
		session.WithCaptureProvider(deepgram.NewClient(devices)),
		session.WithPlayback(session.NewPlaybackQueue(devices)),
		session.WithCallbacks(callbacks),
		session.WithVoice(backend.VoiceSelection{
			Provider: config.VoiceProvider,
			Voice:    config.Voice,
		}),
	}
	if len(config.Greetings) > 0 {
		opts = append(opts, session.WithGreetings(config.Greetings...))
	}
	return session.New(opts...), nil
}

// bridgeCallbacks translates session callbacks into the bridge's fixed
// agent-event vocabulary.
func bridgeCallbacks(eventBridge *bridge.Bridge) session.SessionCallbacks {
	return session.SessionCallbacks{
		OnStateChanged: func(state session.State) {
			eventBridge.EmitAgentEvent(bridge.StateChanged{State: string(state)})
		},
		OnError: func(message string) {
			eventBridge.EmitAgentEvent(bridge.Error{Message: message})
		},
		OnMood: func(mood string) {
			eventBridge.EmitAgentEvent(bridge.Mood{Mood: mood})
		},
		OnMessage: func(role, text string, final bool) {
			eventBridge.EmitAgentEvent(bridge.Message{Role: role, Text: text, Final: final})
		},
		OnTranscript: func(text string, partial bool) {
			eventBridge.EmitAgentEvent(bridge.Transcript{Text: text, Partial: partial})
		},
		OnSpeakingChanged: func(speaking bool) {
			if speaking {
				eventBridge.EmitAgentEvent(bridge.TTSPlaying{})
			} else {
				eventBridge.EmitAgentEvent(bridge.TTSStopped{})
			}
		},
		OnAudioLevel: func(level float64) {
			eventBridge.EmitAgentEvent(bridge.AudioLevel{Level: level})
		},
		OnToolCalled: func(name string, params map[string]any, result string) {
			eventBridge.EmitAgentEvent(bridge.ToolCalled{Name: name, Params: params, Result: result})
		},
		OnMusic: func(action, track string) {
			eventBridge.EmitAgentEvent(bridge.MusicPlay{Action: action, Track: track})
			if action == "play" {
				eventBridge.EmitAgentEvent(bridge.MusicSync{})
			}
		},
		OnSound: func(sound, effectType string) {
			eventBridge.EmitAgentEvent(bridge.PlaySound{Sound: sound, Type: effectType})
		},
		OnCanvas: func(action, url string) {
			eventBridge.EmitAgentEvent(bridge.CanvasCommand{Action: action, URL: url})
		},
		OnPagePick: func() {
			eventBridge.EmitAgentEvent(bridge.CanvasCommand{Action: "pick_page"})
		},
	}
}
