package session

import (
	"context"
	"fmt"
	"sync/atomic"
)

// CaptureCallbacks deliver recognition results from a capture provider.
type CaptureCallbacks struct {
	// OnUtterance receives one finalized utterance.
	OnUtterance func(text string)
	// OnInterim receives in-progress transcription snapshots.
	OnInterim func(text string)
}

// CaptureProvider produces finalized utterance text from microphone
// audio.
//
// Implementations must guarantee that once Mute is called no utterance
// callback fires until Resume, even if the underlying recognizer keeps
// delivering results in the interim, and that Mute discards any pending
// partially-accumulated utterance.
type CaptureProvider interface {
	Start(ctx context.Context, callbacks CaptureCallbacks) error
	Stop() error
	Mute()
	Resume()
	IsActive() bool
}

// capture is the facade that normalizes capture behavior for the
// session. It enforces the mute contract on top of whatever the
// provider does, so a misbehaving provider still cannot leak the
// system's own voice back in as an utterance.
type capture struct {
	client CaptureProvider

	muted     atomic.Bool
	callbacks CaptureCallbacks
}

func newCapture(client CaptureProvider) *capture {
	return &capture{client: client}
}

func (c *capture) set(client CaptureProvider) {
	if c != nil {
		c.client = client
	}
}

func (c *capture) isConfigured() bool {
	return c != nil && c.client != nil
}

func (c *capture) start(ctx context.Context, callbacks CaptureCallbacks) error {
	if !c.isConfigured() {
		return nil
	}

	c.callbacks = callbacks
	if err := c.client.Start(ctx, c.gatedCallbacks()); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}
	return nil
}

func (c *capture) stop() error {
	if !c.isConfigured() {
		return nil
	}

	if err := c.client.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture: %w", err)
	}
	return nil
}

// mute suppresses result delivery immediately, before the provider even
// hears about it.
func (c *capture) mute() {
	if c == nil {
		return
	}

	c.muted.Store(true)
	if c.isConfigured() {
		c.client.Mute()
	}
}

func (c *capture) resume() {
	if c == nil {
		return
	}

	c.muted.Store(false)
	if c.isConfigured() {
		c.client.Resume()
	}
}

// restart re-arms capture after playback: resuming is not enough if the
// provider had stopped, it must be actively started again.
func (c *capture) restart(ctx context.Context) error {
	if !c.isConfigured() {
		return nil
	}

	c.resume()
	if c.client.IsActive() {
		return nil
	}

	if err := c.client.Start(ctx, c.gatedCallbacks()); err != nil {
		return fmt.Errorf("failed to restart capture: %w", err)
	}
	return nil
}

func (c *capture) gatedCallbacks() CaptureCallbacks {
	return CaptureCallbacks{
		OnUtterance: func(text string) {
			if c.muted.Load() {
				return
			}
			if c.callbacks.OnUtterance != nil {
				c.callbacks.OnUtterance(text)
			}
		},
		OnInterim: func(text string) {
			if c.muted.Load() {
				return
			}
			if c.callbacks.OnInterim != nil {
				c.callbacks.OnInterim(text)
			}
		},
	}
}

func (c *capture) isActive() bool {
	return c.isConfigured() && c.client.IsActive()
}
