package events

const (
	// KindMessageUpdated identifies an in-progress display text snapshot.
	KindMessageUpdated Kind = "message.updated"
	// KindMessageFinal identifies the final display text for a turn.
	KindMessageFinal Kind = "message.final"
	// KindTranscriptFinal identifies a finalized user utterance.
	KindTranscriptFinal Kind = "message.transcript_final"
	// KindTranscriptPartial identifies an in-progress utterance snapshot.
	KindTranscriptPartial Kind = "message.transcript_partial"
)

// MessageUpdated carries the cumulative display text re-derived on every
// stream delta, with command tags and code fences already stripped.
type MessageUpdated struct {
	Base
	Role string
	Text string
}

func NewMessageUpdated(role, text string) MessageUpdated {
	return MessageUpdated{Base: NewBase(KindMessageUpdated), Role: role, Text: text}
}

// MessageFinal carries the terminal display text for a turn.
type MessageFinal struct {
	Base
	Role string
	Text string
}

func NewMessageFinal(role, text string) MessageFinal {
	return MessageFinal{Base: NewBase(KindMessageFinal), Role: role, Text: text}
}

// TranscriptFinal carries a finalized user utterance as captured.
type TranscriptFinal struct {
	Base
	Text string
}

func NewTranscriptFinal(text string) TranscriptFinal {
	return TranscriptFinal{Base: NewBase(KindTranscriptFinal), Text: text}
}

// TranscriptPartial carries an interim utterance snapshot while the
// user is still speaking.
type TranscriptPartial struct {
	Base
	Text string
}

func NewTranscriptPartial(text string) TranscriptPartial {
	return TranscriptPartial{Base: NewBase(KindTranscriptPartial), Text: text}
}
