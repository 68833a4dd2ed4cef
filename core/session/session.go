package session

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/voxshell/voxshell-core/core/bus"
	"github.com/voxshell/voxshell-core/core/events"
	"github.com/voxshell/voxshell-core/core/session/backend"
)

const (
	defaultSettlingDelay  = 600 * time.Millisecond
	defaultSafetyNetDelay = 2 * time.Second
)

var defaultGreetings = []string{
	"Hey there, good to hear from you.",
	"Hello! What's on your mind?",
	"Hi, I'm listening.",
	"Hey! Ready when you are.",
}

// VoiceSession runs one live voice conversation: it captures
// utterances, streams turns through the conversation backend, plays
// the returned speech and keeps the capture/playback handover safe so
// the system never transcribes its own voice.
//
// A session moves through idle, greeting, listening, thinking and
// speaking. Utterances are only accepted while listening; anything
// heard while audio is playing is assumed to be echo and discarded.
type VoiceSession struct {
	backend  ConversationClient
	capture  *capture
	playback Playback
	bus      *bus.Bus

	callbackEmitter eventEmitter
	tags            *tagDispatcher

	voice           backend.VoiceSelection
	greetings       []string
	contextSnapshot func() backend.AmbientContext
	settlingDelay   time.Duration
	safetyNetDelay  time.Duration

	baseContext context.Context

	mu              sync.Mutex
	id              string
	state           State
	pendingGreeting string
	lastFingerprint string
	silentContext   []string
	cancelTurn      context.CancelFunc

	closeOnce sync.Once
}

func New(opts ...Option) *VoiceSession {
	s := &VoiceSession{
		capture:         newCapture(nil),
		callbackEmitter: noopEventEmitter,
		greetings:       defaultGreetings,
		settlingDelay:   defaultSettlingDelay,
		safetyNetDelay:  defaultSafetyNetDelay,
		baseContext:     context.Background(),
		state:           StateIdle,
	}
	s.tags = newTagDispatcher(s.emit)

	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *VoiceSession) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *VoiceSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *VoiceSession) IsSpeaking() bool {
	return s.playback != nil && s.playback.IsSpeaking()
}

// Start brings the session live: it assigns a fresh session id, greets
// the user with a synthesized line from the greeting pool and arms the
// microphone. A greeting synthesis failure is not fatal; the session
// proceeds straight to listening.
func (s *VoiceSession) Start(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "start voice session")
	defer span.End()

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("session already started")
	}
	s.id = uuid.NewString()
	s.state = StateGreeting
	s.baseContext = context.WithoutCancel(ctx)
	s.mu.Unlock()
	s.emit(events.NewSessionStateChanged(string(StateGreeting)))

	if s.playback != nil {
		s.playback.SetCallbacks(s.onSpeakingChange, s.onAudioLevel)
	}

	greeting := s.greetings[rand.IntN(len(s.greetings))]
	s.mu.Lock()
	s.pendingGreeting = greeting
	s.mu.Unlock()

	// The mic starts muted; greeting audio may hit the speaker at any
	// moment once synthesis returns.
	s.capture.mute()
	if err := s.capture.start(s.baseContext, CaptureCallbacks{
		OnUtterance: s.handleUtterance,
		OnInterim:   s.handleInterim,
	}); err != nil {
		span.RecordError(err)
		logger.Error("failed to start capture", "error", err)
		s.emit(events.NewSessionError(fmt.Sprintf("microphone unavailable: %v", err)))
	}

	s.emit(events.NewMessageFinal("assistant", greeting))

	played := false
	if s.backend != nil && s.playback != nil {
		audioData, err := s.backend.Synthesize(ctx, greeting, s.voice)
		if err != nil {
			span.RecordError(err)
			logger.Warn("greeting synthesis failed, skipping spoken greeting", "error", err)
		} else if len(audioData) > 0 {
			if err := s.playback.Enqueue(audioData); err != nil {
				logger.Warn("failed to queue greeting audio", "error", err)
			} else {
				played = true
			}
		}
	}

	if !played {
		s.capture.resume()
		s.setState(StateListening)
	}
	return nil
}

// Stop halts capture and playback and returns the session to idle. Any
// in-flight turn is cancelled. The session can be started again.
func (s *VoiceSession) Stop() {
	s.mu.Lock()
	cancel := s.cancelTurn
	s.cancelTurn = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	if err := s.capture.stop(); err != nil {
		logger.Warn("failed to stop capture", "error", err)
	}
	if s.playback != nil {
		s.playback.Clear()
	}
	s.setState(StateIdle)
}

// Destroy stops the session and releases the playback queue. The
// session cannot be reused afterwards.
func (s *VoiceSession) Destroy() {
	s.closeOnce.Do(func() {
		s.Stop()
		if queue, ok := s.playback.(*PlaybackQueue); ok {
			queue.Close()
		}
	})
}

// SendText submits a user message and runs a conversation turn for it.
// A turn already in flight wins; the new message is dropped with a log
// so two turns are never processed concurrently.
func (s *VoiceSession) SendText(text string) {
	s.sendMessage(text, false)
}

// ForceMessage submits a system-originated message, spoken by the
// assistant without a matching user line in the transcript.
func (s *VoiceSession) ForceMessage(text string) {
	s.sendMessage(text, true)
}

// InjectContext queues background context that rides along silently
// with the next turn instead of being spoken or displayed.
func (s *VoiceSession) InjectContext(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.silentContext = append(s.silentContext, text)
}

// CancelTurn aborts the in-flight turn, if any.
func (s *VoiceSession) CancelTurn() {
	s.mu.Lock()
	cancel := s.cancelTurn
	s.cancelTurn = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *VoiceSession) sendMessage(text string, system bool) {
	if s.backend == nil {
		logger.Warn("no conversation client configured, dropping message")
		return
	}
	if strings.TrimSpace(text) == "" {
		return
	}
	if s.State() == StateThinking {
		logger.Warn("turn already in flight, dropping message", "message", text)
		return
	}

	if !system {
		s.emit(events.NewMessageFinal("user", text))
	}
	s.setState(StateThinking)
	s.emit(events.NewMoodChanged("thinking"))
	go s.runTurn(s.baseContext, text, system)
}

func (s *VoiceSession) handleUtterance(text string) {
	// Echo guard: while our own audio is playing, anything the mic
	// hears is ours. Discard, never queue.
	if s.IsSpeaking() || s.State() == StateSpeaking {
		logger.Debug("discarding utterance captured while speaking", "utterance", text)
		return
	}
	if s.State() != StateListening {
		logger.Debug("discarding utterance outside listening state", "state", string(s.State()))
		return
	}

	s.emit(events.NewTranscriptFinal(text))
	s.SendText(text)
}

func (s *VoiceSession) handleInterim(text string) {
	if s.State() != StateListening {
		return
	}
	s.emit(events.NewTranscriptPartial(text))
}

func (s *VoiceSession) runTurn(ctx context.Context, text string, system bool) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctx, span := tracer.Start(ctx, "process conversation turn")
	defer span.End()
	span.SetAttributes(attribute.Bool("turn.system", system))

	s.mu.Lock()
	s.cancelTurn = cancel
	greeting := s.pendingGreeting
	s.pendingGreeting = ""
	silent := s.silentContext
	s.silentContext = nil
	sessionID := s.id
	s.mu.Unlock()

	span.SetAttributes(attribute.String("turn.session_id", sessionID))

	request := backend.TurnRequest{
		SessionID:       sessionID,
		Text:            text,
		Voice:           s.voice,
		PendingGreeting: greeting,
		System:          system,
	}
	if s.contextSnapshot != nil {
		request.Context = s.contextSnapshot()
	}
	if len(silent) > 0 {
		request.Context.SilentContext = joinContext(request.Context.SilentContext, silent)
	}

	stream, err := s.backend.OpenTurn(ctx, request)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open turn")
		logger.Error("failed to open conversation turn", "error", err)
		s.failTurn("I couldn't reach my backend just now.")
		return
	}
	defer stream.Close()

	tags := s.tags
	tags.resetTurn()
	var rawText strings.Builder
	audioPlayed := false

streamLoop:
	for event, err := range stream.Events(ctx) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "turn stream failed")
			logger.Error("conversation stream failed", "error", err)
			s.failTurn("Something glitched mid-thought.")
			return
		}

		switch typedEvent := event.(type) {
		case backend.Delta:
			rawText.WriteString(typedEvent.Text)
			// Scanning the whole accumulated text means a tag split
			// across deltas dispatches exactly once it completes.
			tags.Scan(rawText.String())
			s.emit(events.NewMessageUpdated("assistant", renderDisplay(rawText.String())))
		case backend.Action:
			s.emit(events.NewToolCalled(typedEvent.Name, typedEvent.Params, ""))
		case backend.TextDone:
			display := renderDisplay(typedEvent.Response)

			s.mu.Lock()
			duplicate := display != "" && display == s.lastFingerprint
			if !duplicate {
				s.lastFingerprint = display
			}
			s.mu.Unlock()

			if duplicate {
				logger.Warn("duplicate response detected, cancelling turn", "response", display)
				span.AddEvent("duplicate response cancelled", trace.WithAttributes(attribute.String("turn.response", display)))
				cancel()
				break streamLoop
			}

			tags.Scan(typedEvent.Response)
			s.emit(events.NewMessageFinal("assistant", display))
			if typedEvent.EmotionState != "" {
				s.emit(events.NewMoodChanged(typedEvent.EmotionState))
			}
			for _, action := range typedEvent.Actions {
				s.emit(events.NewToolCalled(action.Name, action.Params, action.Result))
			}
		case backend.Audio:
			if s.playback == nil || len(typedEvent.Audio) == 0 {
				continue
			}
			// Mute before queuing: the payload may reach the speaker
			// before Enqueue even returns.
			s.capture.mute()
			if err := s.playback.Enqueue(typedEvent.Audio); err != nil {
				logger.Warn("failed to queue response audio", "error", err)
				continue
			}
			audioPlayed = true
		case backend.SessionReset:
			s.rotateID(typedEvent.OldID, typedEvent.NewID, typedEvent.Reason)
		case backend.StreamError:
			logger.Error("backend reported turn error", "error", typedEvent.Message)
			s.failTurn(typedEvent.Message)
			return
		}
	}

	s.mu.Lock()
	s.cancelTurn = nil
	s.mu.Unlock()

	if !audioPlayed {
		// No audio means nothing will drive the speaking signal, so
		// the handover back to listening happens right here.
		s.capture.resume()
		s.setState(StateListening)
		s.scheduleSafetyNet()
	}
}

func (s *VoiceSession) failTurn(message string) {
	s.mu.Lock()
	s.cancelTurn = nil
	s.mu.Unlock()

	s.emit(events.NewSessionError(message))
	s.emit(events.NewMoodChanged("sad"))

	s.capture.resume()
	if err := s.capture.restart(s.baseContext); err != nil {
		logger.Warn("failed to restart capture after turn failure", "error", err)
	}
	s.setState(StateListening)
}

func (s *VoiceSession) rotateID(oldID, newID, reason string) {
	s.mu.Lock()
	previous := s.id
	if oldID != "" {
		previous = oldID
	}
	if newID == "" {
		newID = uuid.NewString()
	}
	s.id = newID
	s.mu.Unlock()

	logger.Info("session identifier rotated", "old", previous, "new", newID, "reason", reason)
	s.emit(events.NewSessionReset(previous, newID, reason))
}

func (s *VoiceSession) onSpeakingChange(speaking bool) {
	if speaking {
		s.emit(events.NewPlaybackStarted())
		if s.State() == StateThinking {
			s.setState(StateSpeaking)
		}
		return
	}

	s.emit(events.NewPlaybackEnded())
	// Let the tail of the audio decay before the mic hears again,
	// otherwise the recognizer picks up our final syllables.
	time.AfterFunc(s.settlingDelay, s.rearm)
}

func (s *VoiceSession) onAudioLevel(level float64) {
	s.emit(events.NewAudioLevel(level))
}

// rearm hands control back to the microphone after playback settles.
func (s *VoiceSession) rearm() {
	if s.State() == StateIdle {
		return
	}
	if s.playback != nil && s.playback.IsSpeaking() {
		// More audio arrived during settling; the next idle
		// transition schedules another rearm.
		return
	}

	if err := s.capture.restart(s.baseContext); err != nil {
		logger.Error("failed to restart capture after playback", "error", err)
		s.emit(events.NewSessionError("microphone failed to re-arm"))
	}
	s.setState(StateListening)
}

// scheduleSafetyNet force-restarts capture shortly after a turn that
// produced no audio, covering providers that silently dropped their
// connection while muted.
func (s *VoiceSession) scheduleSafetyNet() {
	time.AfterFunc(s.safetyNetDelay, func() {
		if s.State() != StateListening {
			return
		}
		if s.capture.isActive() {
			return
		}

		logger.Warn("capture inactive after turn, force restarting")
		if err := s.capture.restart(s.baseContext); err != nil {
			logger.Error("failed to force restart capture", "error", err)
			s.emit(events.NewSessionError("microphone failed to restart"))
		}
	})
}

func (s *VoiceSession) setState(state State) {
	s.mu.Lock()
	if s.state == state {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.mu.Unlock()

	s.emit(events.NewSessionStateChanged(string(state)))
}

// emit delivers one event to the bus (if configured) and to the
// registered callbacks.
func (s *VoiceSession) emit(event events.Event) {
	if s.bus != nil {
		s.bus.Publish(event)
	}
	s.callbackEmitter(event)
}

// renderDisplay derives user-facing text from raw response text:
// code fences collapse to a placeholder and recognized command tags
// are removed.
func renderDisplay(text string) string {
	return StripTags(StripCodeFences(text))
}

func joinContext(existing string, extra []string) string {
	parts := make([]string, 0, len(extra)+1)
	if existing != "" {
		parts = append(parts, existing)
	}
	parts = append(parts, extra...)
	return strings.Join(parts, "\n")
}
