package events

const (
	KindMusicCommand   Kind = "media.music_command"
	KindSoundEffect    Kind = "media.sound_effect"
	KindCanvasCommand  Kind = "media.canvas_command"
	KindMediaGenerate  Kind = "media.generate"
	KindStreamRequest  Kind = "media.stream_request"
	KindFaceEnroll     Kind = "media.face_enroll"
	KindPassiveRequest Kind = "media.passive_requested"
	KindCanvasPagePick Kind = "media.canvas_page_pick"
)

// MusicCommand requests playback control of named or unnamed media.
// Action is one of "play", "stop", "skip".
type MusicCommand struct {
	Base
	Action string
	Track  string
}

func NewMusicCommand(action, track string) MusicCommand {
	return MusicCommand{Base: NewBase(KindMusicCommand), Action: action, Track: track}
}

// SoundEffect requests playback of a named one-shot effect.
type SoundEffect struct {
	Base
	Sound string
	Type  string
}

func NewSoundEffect(sound, effectType string) SoundEffect {
	return SoundEffect{Base: NewBase(KindSoundEffect), Sound: sound, Type: effectType}
}

// CanvasCommand drives the visual canvas (open a page, clear it, ...).
type CanvasCommand struct {
	Base
	Action string
	URL    string
}

func NewCanvasCommand(action, url string) CanvasCommand {
	return CanvasCommand{Base: NewBase(KindCanvasCommand), Action: action, URL: url}
}

// CanvasPagePick asks the shell to present its page picker.
type CanvasPagePick struct{ Base }

func NewCanvasPagePick() CanvasPagePick {
	return CanvasPagePick{Base: NewBase(KindCanvasPagePick)}
}

// MediaGenerate requests generation of new media from a text prompt.
type MediaGenerate struct {
	Base
	Prompt string
}

func NewMediaGenerate(prompt string) MediaGenerate {
	return MediaGenerate{Base: NewBase(KindMediaGenerate), Prompt: prompt}
}

// StreamRequest requests playback from an external streaming source.
type StreamRequest struct {
	Base
	Title  string
	Artist string
}

func NewStreamRequest(title, artist string) StreamRequest {
	return StreamRequest{Base: NewBase(KindStreamRequest), Title: title, Artist: artist}
}

// FaceEnroll requests enrolling a face under the given name.
type FaceEnroll struct {
	Base
	Name string
}

func NewFaceEnroll(name string) FaceEnroll {
	return FaceEnroll{Base: NewBase(KindFaceEnroll), Name: name}
}

// PassiveRequest asks the shell to return to passive wake-word listening.
type PassiveRequest struct{ Base }

func NewPassiveRequest() PassiveRequest {
	return PassiveRequest{Base: NewBase(KindPassiveRequest)}
}
