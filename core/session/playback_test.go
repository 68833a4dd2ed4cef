package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/voxshell/voxshell-core/core/audio"
)

type speechSinkStub struct {
	mu      sync.Mutex
	played  [][]byte
	failOn  int
	started chan []byte
	release chan struct{}
}

func (s *speechSinkStub) Play(ctx context.Context, chunk []byte) error {
	if s.started != nil {
		s.started <- chunk
	}
	if s.release != nil {
		<-s.release
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn > 0 && len(s.played) == s.failOn-1 {
		s.played = append(s.played, nil)
		return errors.New("decode failed")
	}
	s.played = append(s.played, chunk)
	return nil
}

func (s *speechSinkStub) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (s *speechSinkStub) playedChunks() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.played...)
}

func TestPlaybackQueueRejectsEmptyPayload(t *testing.T) {
	queue := NewPlaybackQueue(&speechSinkStub{})

	if err := queue.Enqueue(nil); !errors.Is(err, ErrEmptyAudioPayload) {
		t.Fatalf("expected empty payload error, got %v", err)
	}
	if err := queue.Enqueue([]byte{}); !errors.Is(err, ErrEmptyAudioPayload) {
		t.Fatalf("expected empty payload error, got %v", err)
	}
	if queue.IsSpeaking() {
		t.Fatalf("expected queue to stay idle after rejected payloads")
	}
}

func TestPlaybackQueuePlaysInOrderWithSingleTransitionPair(t *testing.T) {
	sink := &speechSinkStub{}
	queue := NewPlaybackQueue(sink)

	transitions := []bool{}
	done := make(chan struct{}, 1)
	queue.SetCallbacks(func(speaking bool) {
		transitions = append(transitions, speaking)
		if !speaking {
			done <- struct{}{}
		}
	}, nil)

	if err := queue.Enqueue([]byte("first")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if err := queue.Enqueue([]byte("second")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected playback to finish")
	}

	played := sink.playedChunks()
	if len(played) != 2 || string(played[0]) != "first" || string(played[1]) != "second" {
		t.Fatalf("expected chunks in arrival order, got %q", played)
	}
	if len(transitions) != 2 || !transitions[0] || transitions[1] {
		t.Fatalf("expected exactly one playing/idle transition pair, got %v", transitions)
	}
}

func TestPlaybackQueueSkipsFailedChunk(t *testing.T) {
	sink := &speechSinkStub{failOn: 1}
	queue := NewPlaybackQueue(sink)

	done := make(chan struct{}, 1)
	queue.SetCallbacks(func(speaking bool) {
		if !speaking {
			done <- struct{}{}
		}
	}, nil)

	queue.Enqueue([]byte("bad"))
	queue.Enqueue([]byte("good"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected playback to finish despite the failed chunk")
	}

	played := sink.playedChunks()
	if len(played) != 2 || string(played[1]) != "good" {
		t.Fatalf("expected the queue to advance past the failure, got %q", played)
	}
}

func TestPlaybackQueueClearDropsPendingOnly(t *testing.T) {
	sink := &speechSinkStub{
		started: make(chan []byte, 3),
		release: make(chan struct{}),
	}
	queue := NewPlaybackQueue(sink)

	done := make(chan struct{}, 1)
	queue.SetCallbacks(func(speaking bool) {
		if !speaking {
			done <- struct{}{}
		}
	}, nil)

	queue.Enqueue([]byte("current"))
	queue.Enqueue([]byte("pending-1"))
	queue.Enqueue([]byte("pending-2"))

	select {
	case <-sink.started:
	case <-time.After(time.Second):
		t.Fatalf("expected the first chunk to start playing")
	}
	queue.Clear()
	close(sink.release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected playback to finish after clear")
	}

	played := sink.playedChunks()
	if len(played) != 1 || string(played[0]) != "current" {
		t.Fatalf("expected only the in-flight chunk to play, got %q", played)
	}
}

func TestPlaybackQueueReportsAmplitude(t *testing.T) {
	sink := &speechSinkStub{}
	queue := NewPlaybackQueue(sink)

	levels := make(chan float64, 1)
	done := make(chan struct{}, 1)
	queue.SetCallbacks(func(speaking bool) {
		if !speaking {
			done <- struct{}{}
		}
	}, func(level float64) {
		select {
		case levels <- level:
		default:
		}
	})

	// A full-scale square wave in little-endian int16.
	loud := []byte{0xFF, 0x7F, 0x01, 0x80, 0xFF, 0x7F, 0x01, 0x80}
	queue.Enqueue(loud)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected playback to finish")
	}

	select {
	case level := <-levels:
		if level < 0.9 || level > 1.0 {
			t.Fatalf("expected a near full-scale amplitude, got %f", level)
		}
	default:
		t.Fatalf("expected an amplitude callback")
	}
}

func TestPlaybackQueueClosedRejectsEnqueue(t *testing.T) {
	queue := NewPlaybackQueue(&speechSinkStub{})
	queue.Close()

	if err := queue.Enqueue([]byte("late")); !errors.Is(err, ErrPlaybackClosed) {
		t.Fatalf("expected closed error, got %v", err)
	}
}
