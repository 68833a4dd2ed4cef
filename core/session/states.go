package session

// State is the conversation state machine position. No state is
// terminal except [StateIdle]; every failure path folds back into
// [StateListening].
type State string

const (
	StateIdle      State = "idle"
	StateGreeting  State = "greeting"
	StateListening State = "listening"
	StateThinking  State = "thinking"
	StateSpeaking  State = "speaking"
	StateError     State = "error"
)

func (s State) String() string { return string(s) }
