package session

import (
	"context"
	"errors"
	"sync"

	"github.com/voxshell/voxshell-core/core/audio"
)

var (
	// ErrEmptyAudioPayload is returned for zero-length payloads; they
	// are rejected before queuing so they can never wedge the speaking
	// signal into a permanent "playing" state.
	ErrEmptyAudioPayload = errors.New("audio payload is empty")
	ErrPlaybackClosed    = errors.New("playback queue is closed")
)

// Playback accepts audio payloads in arrival order and plays them
// strictly sequentially, reporting a single is-speaking signal plus
// per-chunk amplitude.
type Playback interface {
	Enqueue(chunk []byte) error
	IsSpeaking() bool
	Clear()
	SetCallbacks(onSpeakingChange func(bool), onLevel func(float64))
}

// SpeechSink plays one decoded chunk to completion. Implemented by the
// miniaudio and portaudio device clients.
type SpeechSink interface {
	Play(ctx context.Context, chunk []byte) error
	EncodingInfo() audio.EncodingInfo
}

// PlaybackQueue is the standard [Playback] implementation over a
// [SpeechSink].
//
// The speaking-change callback fires exactly once per playing/idle
// transition, never redundantly. Callbacks run on the playback
// goroutine while internal state is held and must not call back into
// the queue.
type PlaybackQueue struct {
	sink SpeechSink

	baseContext context.Context

	mu               sync.Mutex
	buffered         [][]byte
	playing          bool
	closed           bool
	onSpeakingChange func(bool)
	onLevel          func(float64)
}

func NewPlaybackQueue(sink SpeechSink) *PlaybackQueue {
	return &PlaybackQueue{sink: sink, baseContext: context.Background()}
}

func (q *PlaybackQueue) SetCallbacks(onSpeakingChange func(bool), onLevel func(float64)) {
	if q == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.onSpeakingChange = onSpeakingChange
	q.onLevel = onLevel
}

// Enqueue appends a payload to the queue and begins playing immediately
// if idle. Empty payloads are rejected before they reach the queue.
func (q *PlaybackQueue) Enqueue(chunk []byte) error {
	if len(chunk) == 0 {
		return ErrEmptyAudioPayload
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrPlaybackClosed
	}

	q.buffered = append(q.buffered, chunk)
	start := !q.playing
	if start {
		q.playing = true
		if q.onSpeakingChange != nil {
			q.onSpeakingChange(true)
		}
	}
	q.mu.Unlock()

	if start {
		go q.drain()
	}
	return nil
}

func (q *PlaybackQueue) IsSpeaking() bool {
	if q == nil {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	return q.playing
}

// Clear drops every pending payload. The chunk currently playing is
// not interrupted; the idle transition still fires when it finishes.
func (q *PlaybackQueue) Clear() {
	if q == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.buffered = nil
}

func (q *PlaybackQueue) Close() {
	if q == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.buffered = nil
}

func (q *PlaybackQueue) drain() {
	for {
		q.mu.Lock()
		if q.closed || len(q.buffered) == 0 {
			q.playing = false
			if q.onSpeakingChange != nil {
				q.onSpeakingChange(false)
			}
			q.mu.Unlock()
			return
		}

		chunk := q.buffered[0]
		q.buffered = q.buffered[1:]
		onLevel := q.onLevel
		q.mu.Unlock()

		if onLevel != nil {
			onLevel(audio.Amplitude(q.sink.EncodingInfo(), chunk))
		}

		if err := q.sink.Play(q.baseContext, chunk); err != nil {
			// A failed decode/play of one chunk skips that chunk and
			// advances the queue rather than stalling it.
			logger.Warn("failed to play audio chunk, skipping", "error", err)
		}
	}
}
