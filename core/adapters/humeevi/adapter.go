// Package humeevi is an alternate conversation adapter backed by
// Hume's Empathic Voice Interface websocket. The backend does its own
// speech handling, so this adapter is a thin protocol translator.
package humeevi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/voxshell/voxshell-core/core/adapters"
	"github.com/voxshell/voxshell-core/core/bridge"
)

const AdapterID = "hume-evi"

// Config is the adapter's typed configuration. The API key falls back
// to the HUME_API_KEY environment variable.
type Config struct {
	APIKey   string `json:"api_key,omitzero" jsonschema:"title=API key"`
	ConfigID string `json:"config_id,omitzero" jsonschema:"title=EVI config id"`
}

// Adapter implements [adapters.Adapter] over the EVI chat websocket.
type Adapter struct {
	dial func(config Config) (*websocket.Conn, error)

	mu            sync.Mutex
	conn          *websocket.Conn
	eventBridge   *bridge.Bridge
	subscriptions []*bridge.Subscription
	config        Config

	readerDone sync.WaitGroup
}

type Option func(*Adapter)

// WithDialer replaces the websocket dial. Intended for tests.
func WithDialer(dial func(config Config) (*websocket.Conn, error)) Option {
	return func(a *Adapter) { a.dial = dial }
}

func New(opts ...Option) *Adapter {
	a := &Adapter{dial: dialEVI}
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
		Name: "Hume EVI",
		Capabilities: []adapters.Capability{
			adapters.CapabilityEmotion,
			adapters.CapabilityMultiVoice,
		},
	}
}

func (a *Adapter) ConfigPrototype() any { return Config{} }

func (a *Adapter) Init(ctx context.Context, eventBridge *bridge.Bridge, config adapters.Config) error {
	decoded, err := adapters.DecodeConfig[Config](config)
	if err != nil {
		return fmt.Errorf("failed to decode adapter config: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.config = decoded
	a.eventBridge = eventBridge
	a.subscriptions = []*bridge.Subscription{
		eventBridge.OnShellAction(bridge.ActionSendMessage, func(action bridge.ShellAction) {
			if send, ok := action.(bridge.SendMessage); ok {
				if err := a.sendText(send.Text); err != nil {
					logger.Warn("failed to send user input", "error", err)
				}
			}
		}),
		eventBridge.OnShellAction(bridge.ActionContextUpdate, func(action bridge.ShellAction) {
			if update, ok := action.(bridge.ContextUpdate); ok {
				if err := a.sendSessionSettings(update.Text); err != nil {
					logger.Warn("failed to send context update", "error", err)
				}
			}
		}),
		eventBridge.OnShellAction(bridge.ActionEndSession, func(action bridge.ShellAction) {
			if err := a.Stop(); err != nil {
				logger.Warn("failed to end session", "error", err)
			}
		}),
	}
	return nil
}

func (a *Adapter) Start(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "start evi adapter")
	defer span.End()

	a.mu.Lock()
	config := a.config
	eventBridge := a.eventBridge
	a.mu.Unlock()

	if eventBridge == nil {
		return fmt.Errorf("adapter is not initialized")
	}

	conn, err := a.dial(config)
	if err != nil {
		span.RecordError(err)
		eventBridge.EmitAgentEvent(bridge.Error{Message: err.Error()})
		return fmt.Errorf("failed to connect to evi: %w", err)
	}

	a.mu.Lock()
	a.conn = conn
	a.mu.Unlock()

	a.readerDone.Add(1)
	go a.readMessages(conn, eventBridge)

	eventBridge.EmitAgentEvent(bridge.Connected{})
	return nil
}

func (a *Adapter) Stop() error {
	a.mu.Lock()
	conn := a.conn
	a.conn = nil
	eventBridge := a.eventBridge
	a.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil {
		return fmt.Errorf("failed to close evi connection: %w", err)
	}
	if eventBridge != nil {
		eventBridge.EmitAgentEvent(bridge.Disconnected{Reason: "stopped"})
	}
	return nil
}

// Destroy closes the connection, waits for the reader goroutine to
// drain and detaches every bridge handler.
func (a *Adapter) Destroy() error {
	err := a.Stop()
	a.readerDone.Wait()

	a.mu.Lock()
	subscriptions := a.subscriptions
	a.subscriptions = nil
	a.eventBridge = nil
	a.mu.Unlock()

	for _, subscription := range subscriptions {
		subscription.Unsubscribe()
	}
	return err
}

func dialEVI(config Config) (*websocket.Conn, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("HUME_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("hume api key not found")
	}

	chatURL, _ := url.Parse("wss://api.hume.ai/v0/evi/chat")
	queryParams := chatURL.Query()
	if config.ConfigID != "" {
		queryParams.Set("config_id", config.ConfigID)
	}
	chatURL.RawQuery = queryParams.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(chatURL.String(),
		http.Header{"X-Hume-Api-Key": {apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to hume: %w", err)
	}
	return conn, nil
}

func (a *Adapter) sendText(text string) error {
	return a.writeJSON(map[string]any{
		"type": "user_input",
		"text": text,
	})
}

func (a *Adapter) sendSessionSettings(contextText string) error {
	return a.writeJSON(map[string]any{
		"type": "session_settings",
		"context": map[string]any{
			"text": contextText,
			"type": "temporary",
		},
	})
}

func (a *Adapter) writeJSON(message any) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.conn == nil {
		return fmt.Errorf("evi connection is not open")
	}
	if err := a.conn.WriteJSON(message); err != nil {
		return fmt.Errorf("failed to write to evi connection: %w", err)
	}
	return nil
}

// eviMessage covers the subset of EVI's server messages the shell
// cares about. The message field is a chat payload on user/assistant
// messages and a plain string on errors, so it stays raw here.
type eviMessage struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message"`
	Data    string          `json:"data"`
	Models  struct {
		Prosody struct {
			Scores map[string]float64 `json:"scores"`
		} `json:"prosody"`
	} `json:"models"`
}

type eviChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (a *Adapter) readMessages(conn *websocket.Conn, eventBridge *bridge.Bridge) {
	defer a.readerDone.Done()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			a.mu.Lock()
			open := a.conn != nil
			a.conn = nil
			a.mu.Unlock()
			if open {
				logger.Warn("evi connection dropped", "error", err)
				eventBridge.EmitAgentEvent(bridge.Disconnected{Reason: "connection lost"})
			}
			return
		}

		var message eviMessage
		if err := json.Unmarshal(raw, &message); err != nil {
			logger.Warn("failed to unmarshal evi message", "error", err)
			continue
		}

		switch message.Type {
		case "user_message":
			var chat eviChatMessage
			if err := json.Unmarshal(message.Message, &chat); err != nil {
				logger.Warn("failed to unmarshal evi chat message", "error", err)
				continue
			}
			eventBridge.EmitAgentEvent(bridge.Transcript{Text: chat.Content})
		case "assistant_message":
			var chat eviChatMessage
			if err := json.Unmarshal(message.Message, &chat); err != nil {
				logger.Warn("failed to unmarshal evi chat message", "error", err)
				continue
			}
			eventBridge.EmitAgentEvent(bridge.Message{
				Role:  "assistant",
				Text:  chat.Content,
				Final: true,
			})
			if mood := dominantEmotion(message.Models.Prosody.Scores); mood != "" {
				eventBridge.EmitAgentEvent(bridge.Mood{Mood: mood})
			}
		case "audio_output":
			if _, err := base64.StdEncoding.DecodeString(message.Data); err != nil {
				logger.Warn("failed to decode evi audio payload", "error", err)
				continue
			}
			eventBridge.EmitAgentEvent(bridge.TTSPlaying{})
		case "assistant_end":
			eventBridge.EmitAgentEvent(bridge.TTSStopped{})
		case "user_interruption":
			eventBridge.EmitAgentEvent(bridge.TTSStopped{})
		case "error":
			var errorText string
			if err := json.Unmarshal(message.Message, &errorText); err != nil {
				errorText = string(message.Message)
			}
			eventBridge.EmitAgentEvent(bridge.Error{Message: errorText})
		}
	}
}

// dominantEmotion picks the highest-scoring prosody label.
func dominantEmotion(scores map[string]float64) string {
	best := ""
	bestScore := 0.0
	for label, score := range scores {
		if score > bestScore {
			best, bestScore = label, score
		}
	}
	return best
}
