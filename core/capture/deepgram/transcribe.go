package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"

	"github.com/voxshell/voxshell-core/core/audio"
	"github.com/voxshell/voxshell-core/core/session"
	"github.com/voxshell/voxshell-core/internal/utils"
)

// Start opens the transcription websocket and begins pumping source
// audio through it. Finalized utterances arrive on
// callbacks.OnUtterance, interim snapshots on callbacks.OnInterim.
func (c *Client) Start(ctx context.Context, callbacks session.CaptureCallbacks) error {
	ctx, span := tracer.Start(ctx, "start deepgram capture")
	defer span.End()

	if c.active.Load() {
		return nil
	}

	encoding := audio.GetDefaultEncodingInfo()
	if c.source != nil {
		encoding = c.source.EncodingInfo()
	}
	converted, err := convertEncoding(encoding)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("invalid encoding: %w", err)
	}

	conn, err := connectWebsocket(connectionOptions{
		sampleRate:     converted.SampleRate,
		encoding:       converted.Format.Name(),
		interimResults: callbacks.OnInterim != nil,
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to open websocket: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.lastMsgTs = time.Now()
	c.connMu.Unlock()
	c.callbacks = callbacks
	c.active.Store(true)

	readerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.readerCtx = cancel
	go c.readAndProcessMessages(readerCtx, conn)

	if c.source != nil {
		if err := c.source.StartCapture(readerCtx, func(chunk []byte) {
			if err := c.sendAudio(chunk); err != nil {
				logger.Warn("failed to forward captured audio", "error", err)
			}
		}); err != nil {
			c.Stop()
			return fmt.Errorf("failed to start audio source: %w", err)
		}
	}

	return nil
}

// Stop closes the stream and releases the audio source. Safe to call
// when already stopped.
func (c *Client) Stop() error {
	if !c.active.Swap(false) {
		return nil
	}

	if c.source != nil {
		if err := c.source.StopCapture(); err != nil {
			logger.Warn("failed to stop audio source", "error", err)
		}
	}
	if c.readerCtx != nil {
		c.readerCtx()
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn != nil {
		if err := c.conn.WriteJSON(struct {
			Type string `json:"type"`
		}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
			return fmt.Errorf("failed to close deepgram stream: %w", err)
		}
	}
	return nil
}

type connectionOptions struct {
	sampleRate     int
	encoding       string
	interimResults bool
}

func connectWebsocket(options connectionOptions) (*websocket.Conn, error) {
	apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
	if !ok {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	listenURL, _ := url.Parse("wss://api.deepgram.com/v1/listen")
	queryParams := listenURL.Query()
	queryParams.Set("encoding", options.encoding)
	queryParams.Set("sample_rate", strconv.Itoa(options.sampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", "nova-3")
	queryParams.Set("language", "en-US")
	queryParams.Set("smart_format", "true")
	queryParams.Set("utterance_end_ms", "1000")
	queryParams.Set("interim_results", strconv.FormatBool(options.interimResults))
	queryParams.Set("endpointing", "300")
	queryParams.Set("vad_events", "true")

	listenURL.RawQuery = queryParams.Encode()
	conn, _, err := websocket.DefaultDialer.Dial(listenURL.String(),
		http.Header{"Authorization": {"Token " + apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

func (c *Client) sendAudio(chunk []byte) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return nil
	}
	c.lastMsgTs = time.Now()
	if err := c.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
		return fmt.Errorf("failed to write to deepgram client: %w", err)
	}
	return nil
}

func (c *Client) sendSilence(chunk []byte) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return nil
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
		return fmt.Errorf("failed to write to deepgram client: %w", err)
	}
	return nil
}

func (c *Client) sendKeepAlive() {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return
	}
	if err := c.conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: "KeepAlive"}); err != nil {
		logger.Warn("failed to send deepgram keepalive", "error", err)
	}
}

func (c *Client) readAndProcessMessages(ctx context.Context, conn *websocket.Conn) {
	silenceCtx, silenceCancel := context.WithCancel(ctx)
	defer silenceCancel()

	encoding := audio.GetDefaultEncodingInfo()
	if c.source != nil {
		encoding = c.source.EncodingInfo()
	}
	go c.generateSilence(silenceCtx, encoding)

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if err.Error() != "websocket: close 1000 (normal)" {
				logger.Warn("failed to read deepgram websocket message", "error", err)
			}

			c.connMu.Lock()
			c.conn = nil
			c.connMu.Unlock()
			conn.Close()
			c.active.Store(false)
			return
		}
		if msgType != websocket.BinaryMessage {
			go c.processMessage(msg)
		}
	}
}

func (c *Client) processMessage(msg []byte) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Warn("failed to unmarshal deepgram message", "error", err)
		return
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Warn("failed to unmarshal deepgram message", "error", err)
			return
		}
		if len(msgResp.Channel.Alternatives) == 0 {
			return
		}
		transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
		if len(transcript) == 0 {
			if msgResp.IsFinal && msgResp.SpeechFinal {
				c.onSpeechEnded()
			}
			return
		}

		if msgResp.IsFinal {
			if !c.muted.Load() {
				c.transcriptMu.Lock()
				c.accumulatedTranscript += " " + transcript
				c.transcriptMu.Unlock()
			}
			if msgResp.SpeechFinal {
				c.onSpeechEnded()
			}
			return
		}

		if c.callbacks.OnInterim != nil && !c.muted.Load() {
			c.transcriptMu.Lock()
			accumulated := c.accumulatedTranscript
			c.transcriptMu.Unlock()
			c.callbacks.OnInterim(strings.TrimSpace(accumulated + " " + transcript))
		}

	case api.TypeUtteranceEndResponse:
		c.transcriptMu.Lock()
		unended := c.unendedSegment
		c.transcriptMu.Unlock()
		if unended {
			c.onSpeechEnded()
		}

	case api.TypeSpeechStartedResponse:
		c.transcriptMu.Lock()
		c.unendedSegment = true
		c.transcriptMu.Unlock()
	}
}

func (c *Client) onSpeechEnded() {
	c.transcriptMu.Lock()
	fullTranscript := strings.TrimSpace(c.accumulatedTranscript)
	c.accumulatedTranscript = ""
	c.unendedSegment = false
	c.transcriptMu.Unlock()

	if len(fullTranscript) == 0 || c.muted.Load() {
		return
	}
	if c.callbacks.OnUtterance != nil {
		c.callbacks.OnUtterance(fullTranscript)
	}
}

// generateSilence keeps the websocket alive while the mic is quiet:
// after 50ms without real audio it streams silence chunks, and after a
// second of that it downgrades to keepalive messages every 5 seconds.
func (c *Client) generateSilence(ctx context.Context, encoding audio.EncodingInfo) {
	type silenceGeneratorState string
	const (
		silenceGeneratorStateWaiting   silenceGeneratorState = "waiting"
		silenceGeneratorStateSilence   silenceGeneratorState = "silence"
		silenceGeneratorStateKeepAlive silenceGeneratorState = "keepAlive"
	)

	const durationMs = 50
	const millisecondsPerSecond = 1000
	ticker := time.NewTicker(durationMs * time.Millisecond)

	chunk := make([]byte, encoding.SampleRate*encoding.Format.ByteSize()*durationMs/millisecondsPerSecond)
	for i := range chunk {
		chunk[i] = encoding.SilenceValue()
	}

	state := silenceGeneratorStateWaiting
	var firstSilenceTime *time.Time
	var lastKeepAliveTime *time.Time
	for {
		select {
		case <-ctx.Done():
			ticker.Stop()
			return
		case <-ticker.C:
			c.connMu.Lock()
			lastMsg := c.lastMsgTs
			c.connMu.Unlock()

			switch state {
			case silenceGeneratorStateWaiting:
				if time.Since(lastMsg).Milliseconds() > 50 {
					state = silenceGeneratorStateSilence
					firstSilenceTime = utils.Ptr(time.Now())
					continue
				}

			case silenceGeneratorStateSilence:
				if time.Since(lastMsg).Milliseconds() < 50 {
					state = silenceGeneratorStateWaiting
					firstSilenceTime = nil
					continue
				}
				if time.Since(*firstSilenceTime).Milliseconds() >= 1000 {
					state = silenceGeneratorStateKeepAlive
					lastKeepAliveTime = utils.Ptr(time.Now())
					firstSilenceTime = nil
					continue
				}

				if err := c.sendSilence(chunk); err != nil {
					logger.Warn("failed to send silence audio", "error", err)
				}

			case silenceGeneratorStateKeepAlive:
				if time.Since(lastMsg).Milliseconds() < 50 {
					state = silenceGeneratorStateWaiting
					continue
				}

				if time.Since(*lastKeepAliveTime).Seconds() >= 5 {
					lastKeepAliveTime = utils.Ptr(time.Now())
					c.sendKeepAlive()
				}
			}
		}
	}
}
