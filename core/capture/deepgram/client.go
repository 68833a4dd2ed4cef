// Package deepgram implements utterance capture over Deepgram's live
// transcription websocket, fed by a local audio source.
package deepgram

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxshell/voxshell-core/core/audio"
	"github.com/voxshell/voxshell-core/core/session"
)

// AudioSource provides raw microphone audio. Implemented by the
// miniaudio and portaudio device clients.
type AudioSource interface {
	StartCapture(ctx context.Context, onAudio func(chunk []byte)) error
	StopCapture() error
	EncodingInfo() audio.EncodingInfo
}

// Client streams microphone audio to Deepgram and reports finalized
// utterances through [session.CaptureCallbacks]. It satisfies
// [session.CaptureProvider].
//
// While muted the audio keeps flowing (so the websocket stays warm)
// but every recognition result is discarded, including the
// partially-accumulated utterance at the moment of muting.
type Client struct {
	source AudioSource

	connMu    sync.Mutex
	conn      *websocket.Conn
	lastMsgTs time.Time

	transcriptMu          sync.Mutex
	accumulatedTranscript string
	unendedSegment        bool

	muted  atomic.Bool
	active atomic.Bool

	callbacks session.CaptureCallbacks
	readerCtx context.CancelFunc
}

func NewClient(source AudioSource) *Client {
	return &Client{source: source}
}

var _ session.CaptureProvider = (*Client)(nil)

func (c *Client) IsActive() bool {
	return c.active.Load()
}

func (c *Client) Mute() {
	c.muted.Store(true)

	// Whatever was being said when muting kicked in is almost
	// certainly our own voice; drop it.
	c.transcriptMu.Lock()
	c.accumulatedTranscript = ""
	c.unendedSegment = false
	c.transcriptMu.Unlock()
}

func (c *Client) Resume() {
	c.muted.Store(false)
}
