package session

import "github.com/voxshell/voxshell-core/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

// newCallbackEventEmitter fans typed events out to whichever callbacks
// were registered. Events with no matching callback are dropped here;
// bus delivery happens separately.
func newCallbackEventEmitter(callbacks SessionCallbacks) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.SessionStateChanged:
			if callbacks.OnStateChanged != nil {
				callbacks.OnStateChanged(State(typedEvent.State))
			}
		case events.SessionReset:
			if callbacks.OnSessionReset != nil {
				callbacks.OnSessionReset(typedEvent.OldID, typedEvent.NewID, typedEvent.Reason)
			}
		case events.SessionError:
			if callbacks.OnError != nil {
				callbacks.OnError(typedEvent.Message)
			}
		case events.MoodChanged:
			if callbacks.OnMood != nil {
				callbacks.OnMood(typedEvent.Mood)
			}
		case events.MessageUpdated:
			if callbacks.OnMessage != nil {
				callbacks.OnMessage(typedEvent.Role, typedEvent.Text, false)
			}
		case events.MessageFinal:
			if callbacks.OnMessage != nil {
				callbacks.OnMessage(typedEvent.Role, typedEvent.Text, true)
			}
		case events.TranscriptFinal:
			if callbacks.OnTranscript != nil {
				callbacks.OnTranscript(typedEvent.Text, false)
			}
		case events.TranscriptPartial:
			if callbacks.OnTranscript != nil {
				callbacks.OnTranscript(typedEvent.Text, true)
			}
		case events.PlaybackStarted:
			if callbacks.OnSpeakingChanged != nil {
				callbacks.OnSpeakingChanged(true)
			}
		case events.PlaybackEnded:
			if callbacks.OnSpeakingChanged != nil {
				callbacks.OnSpeakingChanged(false)
			}
		case events.AudioLevel:
			if callbacks.OnAudioLevel != nil {
				callbacks.OnAudioLevel(typedEvent.Level)
			}
		case events.ToolCalled:
			if callbacks.OnToolCalled != nil {
				callbacks.OnToolCalled(typedEvent.Name, typedEvent.Params, typedEvent.Result)
			}
		case events.MusicCommand:
			if callbacks.OnMusic != nil {
				callbacks.OnMusic(typedEvent.Action, typedEvent.Track)
			}
		case events.SoundEffect:
			if callbacks.OnSound != nil {
				callbacks.OnSound(typedEvent.Sound, typedEvent.Type)
			}
		case events.CanvasCommand:
			if callbacks.OnCanvas != nil {
				callbacks.OnCanvas(typedEvent.Action, typedEvent.URL)
			}
		case events.CanvasPagePick:
			if callbacks.OnPagePick != nil {
				callbacks.OnPagePick()
			}
		case events.PassiveRequest:
			if callbacks.OnPassive != nil {
				callbacks.OnPassive()
			}
		case events.FaceEnroll:
			if callbacks.OnFaceEnroll != nil {
				callbacks.OnFaceEnroll(typedEvent.Name)
			}
		case events.MediaGenerate:
			if callbacks.OnGenerate != nil {
				callbacks.OnGenerate(typedEvent.Prompt)
			}
		case events.StreamRequest:
			if callbacks.OnStreamRequest != nil {
				callbacks.OnStreamRequest(typedEvent.Title, typedEvent.Artist)
			}
		}
	}
}
