// Package events defines the typed event vocabulary published on the
// shell event bus.
//
// Event kinds are grouped by namespace:
//
//   - session.*: conversation lifecycle and state transitions
//   - message.*: displayed conversation content
//   - playback.*: synthesized speech playback signals
//   - media.*: music, sound-effect and canvas directives
//   - tool_call.*: backend tool invocation notices
//
// Unlike the adapter bridge, the bus vocabulary is open: shell modules
// are free to publish their own kinds alongside these.
package events
