package events

const (
	// KindSessionStateChanged identifies a session state machine transition.
	KindSessionStateChanged Kind = "session.state_changed"
	// KindSessionReset identifies a server-initiated session identifier rotation.
	KindSessionReset Kind = "session.reset"
	// KindSessionError identifies a recoverable session-level failure.
	KindSessionError Kind = "session.error"
	// KindMoodChanged identifies a mood cue for the avatar/UI.
	KindMoodChanged Kind = "session.mood_changed"
)

// SessionStateChanged reports a transition of the conversation state machine.
type SessionStateChanged struct {
	Base
	State string
}

func NewSessionStateChanged(state string) SessionStateChanged {
	return SessionStateChanged{Base: NewBase(KindSessionStateChanged), State: state}
}

// SessionReset reports that the backend rotated the session identifier in
// place; the state machine is unaffected.
type SessionReset struct {
	Base
	OldID  string
	NewID  string
	Reason string
}

func NewSessionReset(oldID, newID, reason string) SessionReset {
	return SessionReset{Base: NewBase(KindSessionReset), OldID: oldID, NewID: newID, Reason: reason}
}

// SessionError carries a user-facing, recoverable error. The session
// returns to listening after publishing one.
type SessionError struct {
	Base
	Message string
}

func NewSessionError(message string) SessionError {
	return SessionError{Base: NewBase(KindSessionError), Message: message}
}

// MoodChanged carries a mood cue ("thinking", "happy", "sad", ...).
type MoodChanged struct {
	Base
	Mood string
}

func NewMoodChanged(mood string) MoodChanged {
	return MoodChanged{Base: NewBase(KindMoodChanged), Mood: mood}
}
