package backend

// StreamEvent is the tagged union of records the backend delivers on a
// turn's response stream. Exactly one [TextDone] terminates a turn's
// text; zero or more [Audio] events may follow or interleave.
type StreamEvent interface {
	streamEvent()
}

// Delta carries an incremental response text fragment.
type Delta struct {
	Text string
}

// Action is a side-channel notification, e.g. a tool invocation start.
type Action struct {
	Name   string
	Params map[string]any
}

// TextDone carries the final response text for the turn, optionally with
// an emotion hint and structured actions.
type TextDone struct {
	Response     string
	EmotionState string
	Actions      []ResponseAction
}

// ResponseAction is a structured action attached to a finished turn.
type ResponseAction struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
	Result string         `json:"result,omitempty"`
}

// Audio carries one synthesized speech payload, already base64-decoded.
type Audio struct {
	Audio    []byte
	TimingMS int
}

// SessionReset reports that the server unilaterally rotated the session.
type SessionReset struct {
	OldID  string
	NewID  string
	Reason string
}

// StreamError is an in-band error record.
type StreamError struct {
	Message string
}

func (Delta) streamEvent()        {}
func (Action) streamEvent()       {}
func (TextDone) streamEvent()     {}
func (Audio) streamEvent()        {}
func (SessionReset) streamEvent() {}
func (StreamError) streamEvent()  {}
