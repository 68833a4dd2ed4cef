// Package backend implements the conversation request protocol: one
// duplex request per turn, answered by a stream of newline-delimited
// structured records.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"sync"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/codes"
)

// VoiceSelection is the client-chosen synthesis provider and voice.
type VoiceSelection struct {
	Provider string `json:"provider,omitempty"`
	Voice    string `json:"voice,omitempty"`
}

// AmbientContext is a snapshot of what the shell is currently showing
// and playing, sent along with every turn.
type AmbientContext struct {
	DisplayedPage string `json:"displayed_page,omitempty"`
	PlayingTrack  string `json:"playing_track,omitempty"`
	SilentContext string `json:"silent_context,omitempty"`
}

// TurnRequest carries one outgoing utterance.
type TurnRequest struct {
	SessionID       string         `json:"session_id"`
	Text            string         `json:"text"`
	Voice           VoiceSelection `json:"voice,omitzero"`
	Context         AmbientContext `json:"context,omitzero"`
	PendingGreeting string         `json:"greeting,omitempty"`
	System          bool           `json:"system,omitempty"`
}

// Stream is one turn's response stream. It must be read to completion
// or explicitly closed; abandoning it mid-read leaks the connection.
type Stream interface {
	// Events yields typed records in arrival order. Lines that fail to
	// parse are logged and skipped; they never abort the stream. A
	// non-nil error from the underlying transport ends iteration.
	Events(ctx context.Context) iter.Seq2[StreamEvent, error]

	// Close cancels the stream and releases the underlying connection.
	// Safe to call after Events finishes, and more than once.
	Close() error
}

// Client talks to one conversation backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	client := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// OpenTurn sends the utterance and returns the response stream.
func (c *Client) OpenTurn(ctx context.Context, request TurnRequest) (Stream, error) {
	ctx, span := tracer.Start(ctx, "open turn")
	defer span.End()

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to encode turn request: %w", err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/converse", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build turn request: %w", err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("Accept", "application/x-ndjson")

	response, err := c.httpClient.Do(httpRequest)
	if err != nil {
		err = fmt.Errorf("turn request failed: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if response.StatusCode != http.StatusOK {
		response.Body.Close()
		err = fmt.Errorf("turn request failed: unexpected status %s", response.Status)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return newHTTPStream(response.Body), nil
}

// Synthesize requests standalone speech synthesis, used for greetings
// before any turn exists. The response body is raw audio.
func (c *Client) Synthesize(ctx context.Context, text string, voice VoiceSelection) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "synthesize")
	defer span.End()

	body, err := json.Marshal(struct {
		Text  string         `json:"text"`
		Voice VoiceSelection `json:"voice,omitzero"`
	}{Text: text, Voice: voice})
	if err != nil {
		return nil, fmt.Errorf("failed to encode synthesis request: %w", err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/synthesize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build synthesis request: %w", err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(httpRequest)
	if err != nil {
		err = fmt.Errorf("synthesis request failed: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("synthesis request failed: unexpected status %s", response.Status)
	}

	audio, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesized audio: %w", err)
	}
	return audio, nil
}

type httpStream struct {
	body      io.ReadCloser
	closeOnce sync.Once
	closeErr  error
}

func newHTTPStream(body io.ReadCloser) *httpStream {
	return &httpStream{body: body}
}

func (s *httpStream) Events(ctx context.Context) iter.Seq2[StreamEvent, error] {
	return func(yield func(StreamEvent, error) bool) {
		defer s.Close()

		decoder := lineDecoder{}
		chunk := make([]byte, 4096)

		emit := func(line []byte) bool {
			event, err := DecodeRecord(line)
			if err != nil {
				logger.Warn("skipping malformed stream record", "error", err)
				return true
			}
			return yield(event, nil)
		}

		for {
			if ctx.Err() != nil {
				return
			}

			n, err := s.body.Read(chunk)
			if n > 0 {
				for _, line := range decoder.Feed(chunk[:n]) {
					if !emit(line) {
						return
					}
				}
			}
			if err == io.EOF {
				if line, ok := decoder.Flush(); ok {
					emit(line)
				}
				return
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				yield(nil, fmt.Errorf("stream interrupted: %w", err))
				return
			}
		}
	}
}

func (s *httpStream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}
