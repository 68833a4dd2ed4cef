package bridge

// VocabularyVersion identifies the bridge contract revision. Adapters
// and shell modules compiled against different revisions must not be
// mixed.
const VocabularyVersion = "v1"

// AgentEventKind enumerates every event an adapter may emit toward the
// shell. The set is closed: there is deliberately no escape hatch for
// ad-hoc kinds.
type AgentEventKind string

const (
	AgentConnected     AgentEventKind = "agent.connected"
	AgentDisconnected  AgentEventKind = "agent.disconnected"
	AgentError         AgentEventKind = "agent.error"
	AgentStateChanged  AgentEventKind = "agent.state_changed"
	AgentMessage       AgentEventKind = "agent.message"
	AgentTranscript    AgentEventKind = "agent.transcript"
	AgentTTSPlaying    AgentEventKind = "agent.tts_playing"
	AgentTTSStopped    AgentEventKind = "agent.tts_stopped"
	AgentAudioLevel    AgentEventKind = "agent.audio_level"
	AgentMood          AgentEventKind = "agent.mood"
	AgentCanvasCommand AgentEventKind = "agent.canvas_command"
	AgentToolCalled    AgentEventKind = "agent.tool_called"
	AgentMusicPlay     AgentEventKind = "agent.music_play"
	AgentMusicSync     AgentEventKind = "agent.music_sync"
	AgentPlaySound     AgentEventKind = "agent.play_sound"
	AgentCallerEffect  AgentEventKind = "agent.caller_effect"
	AgentCommercial    AgentEventKind = "agent.commercial"
)

// AgentEvent is the tagged union of adapter-to-shell events.
type AgentEvent interface {
	AgentKind() AgentEventKind
}

type Connected struct{}

func (Connected) AgentKind() AgentEventKind { return AgentConnected }

type Disconnected struct{ Reason string }

func (Disconnected) AgentKind() AgentEventKind { return AgentDisconnected }

type Error struct{ Message string }

func (Error) AgentKind() AgentEventKind { return AgentError }

type StateChanged struct{ State string }

func (StateChanged) AgentKind() AgentEventKind { return AgentStateChanged }

type Message struct {
	Role  string
	Text  string
	Final bool
}

func (Message) AgentKind() AgentEventKind { return AgentMessage }

type Transcript struct {
	Text    string
	Partial bool
}

func (Transcript) AgentKind() AgentEventKind { return AgentTranscript }

type TTSPlaying struct{}

func (TTSPlaying) AgentKind() AgentEventKind { return AgentTTSPlaying }

type TTSStopped struct{}

func (TTSStopped) AgentKind() AgentEventKind { return AgentTTSStopped }

type AudioLevel struct{ Level float64 }

func (AudioLevel) AgentKind() AgentEventKind { return AgentAudioLevel }

type Mood struct{ Mood string }

func (Mood) AgentKind() AgentEventKind { return AgentMood }

type CanvasCommand struct {
	Action string
	URL    string
}

func (CanvasCommand) AgentKind() AgentEventKind { return AgentCanvasCommand }

type ToolCalled struct {
	Name   string
	Params map[string]any
	Result string
}

func (ToolCalled) AgentKind() AgentEventKind { return AgentToolCalled }

type MusicPlay struct {
	Action string
	Track  string
}

func (MusicPlay) AgentKind() AgentEventKind { return AgentMusicPlay }

type MusicSync struct{}

func (MusicSync) AgentKind() AgentEventKind { return AgentMusicSync }

type PlaySound struct {
	Sound string
	Type  string
}

func (PlaySound) AgentKind() AgentEventKind { return AgentPlaySound }

type CallerEffect struct{ Enabled bool }

func (CallerEffect) AgentKind() AgentEventKind { return AgentCallerEffect }

type Commercial struct{ Action string }

func (Commercial) AgentKind() AgentEventKind { return AgentCommercial }

// ShellActionKind enumerates every action the shell may dispatch toward
// the active adapter.
type ShellActionKind string

const (
	ActionSendMessage   ShellActionKind = "shell.send_message"
	ActionEndSession    ShellActionKind = "shell.end_session"
	ActionContextUpdate ShellActionKind = "shell.context_update"
	ActionForceMessage  ShellActionKind = "shell.force_message"
	ActionModeSwitch    ShellActionKind = "shell.mode_switch"
)

// ShellAction is the tagged union of shell-to-adapter actions.
type ShellAction interface {
	ShellKind() ShellActionKind
}

type SendMessage struct{ Text string }

func (SendMessage) ShellKind() ShellActionKind { return ActionSendMessage }

type EndSession struct{}

func (EndSession) ShellKind() ShellActionKind { return ActionEndSession }

// ContextUpdate injects silent context into the conversation without
// producing a visible user message.
type ContextUpdate struct{ Text string }

func (ContextUpdate) ShellKind() ShellActionKind { return ActionContextUpdate }

// ForceMessage forces a system-level message into the conversation.
type ForceMessage struct{ Text string }

func (ForceMessage) ShellKind() ShellActionKind { return ActionForceMessage }

type ModeSwitch struct{ Mode string }

func (ModeSwitch) ShellKind() ShellActionKind { return ActionModeSwitch }
