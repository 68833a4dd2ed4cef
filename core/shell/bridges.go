package shell

import "github.com/voxshell/voxshell-core/core/bridge"

// Callbacks is the shell-surface callback bag. The always-on group
// fires in every mode; the gated group only fires when the active
// adapter declares the matching capability.
type Callbacks struct {
	OnConnected    func()
	OnDisconnected func(reason string)
	OnError        func(message string)
	OnStateChanged func(state string)
	OnMessage      func(role, text string, final bool)
	OnTranscript   func(text string, partial bool)
	OnSpeaking     func(speaking bool)
	OnAudioLevel   func(level float64)
	OnMood         func(mood string)
	OnToolCalled   func(name string, params map[string]any, result string)
	OnSound        func(sound, effectType string)
	OnMusic        func(action, track string)

	OnCanvas       func(action, url string)
	OnMusicSync    func()
	OnCallerEffect func(enabled bool)
	OnCommercial   func(action string)
}

// connectAlwaysOn wires the handlers every mode gets.
func (o *Orchestrator) connectAlwaysOn() []connection {
	callbacks := o.callbacks
	return []connection{
		o.eventBridge.OnAgentEvent(bridge.AgentConnected, func(event bridge.AgentEvent) {
			if callbacks.OnConnected != nil {
				callbacks.OnConnected()
			}
		}),
		o.eventBridge.OnAgentEvent(bridge.AgentDisconnected, func(event bridge.AgentEvent) {
			if disconnected, ok := event.(bridge.Disconnected); ok && callbacks.OnDisconnected != nil {
				callbacks.OnDisconnected(disconnected.Reason)
			}
		}),
		o.eventBridge.OnAgentEvent(bridge.AgentError, func(event bridge.AgentEvent) {
			if errorEvent, ok := event.(bridge.Error); ok && callbacks.OnError != nil {
				callbacks.OnError(errorEvent.Message)
			}
		}),
		o.eventBridge.OnAgentEvent(bridge.AgentStateChanged, func(event bridge.AgentEvent) {
			if changed, ok := event.(bridge.StateChanged); ok && callbacks.OnStateChanged != nil {
				callbacks.OnStateChanged(changed.State)
			}
		}),
		o.eventBridge.OnAgentEvent(bridge.AgentMessage, func(event bridge.AgentEvent) {
			if message, ok := event.(bridge.Message); ok && callbacks.OnMessage != nil {
				callbacks.OnMessage(message.Role, message.Text, message.Final)
			}
		}),
		o.eventBridge.OnAgentEvent(bridge.AgentTranscript, func(event bridge.AgentEvent) {
			if transcript, ok := event.(bridge.Transcript); ok && callbacks.OnTranscript != nil {
				callbacks.OnTranscript(transcript.Text, transcript.Partial)
			}
		}),
		o.eventBridge.OnAgentEvent(bridge.AgentTTSPlaying, func(event bridge.AgentEvent) {
			if callbacks.OnSpeaking != nil {
				callbacks.OnSpeaking(true)
			}
		}),
		o.eventBridge.OnAgentEvent(bridge.AgentTTSStopped, func(event bridge.AgentEvent) {
			if callbacks.OnSpeaking != nil {
				callbacks.OnSpeaking(false)
			}
		}),
		o.eventBridge.OnAgentEvent(bridge.AgentAudioLevel, func(event bridge.AgentEvent) {
			if level, ok := event.(bridge.AudioLevel); ok && callbacks.OnAudioLevel != nil {
				callbacks.OnAudioLevel(level.Level)
			}
		}),
		o.eventBridge.OnAgentEvent(bridge.AgentMood, func(event bridge.AgentEvent) {
			if mood, ok := event.(bridge.Mood); ok && callbacks.OnMood != nil {
				callbacks.OnMood(mood.Mood)
			}
		}),
		o.eventBridge.OnAgentEvent(bridge.AgentToolCalled, func(event bridge.AgentEvent) {
			if called, ok := event.(bridge.ToolCalled); ok && callbacks.OnToolCalled != nil {
				callbacks.OnToolCalled(called.Name, called.Params, called.Result)
			}
		}),
		o.eventBridge.OnAgentEvent(bridge.AgentPlaySound, func(event bridge.AgentEvent) {
			if sound, ok := event.(bridge.PlaySound); ok && callbacks.OnSound != nil {
				callbacks.OnSound(sound.Sound, sound.Type)
			}
		}),
		o.eventBridge.OnAgentEvent(bridge.AgentMusicPlay, func(event bridge.AgentEvent) {
			if music, ok := event.(bridge.MusicPlay); ok && callbacks.OnMusic != nil {
				callbacks.OnMusic(music.Action, music.Track)
			}
		}),
		o.eventBridge.OnShellAction(bridge.ActionModeSwitch, func(action bridge.ShellAction) {
			if modeSwitch, ok := action.(bridge.ModeSwitch); ok {
				go func() {
					if err := o.SwitchMode(o.baseContext, modeSwitch.Mode); err != nil {
						logger.Error("mode switch failed", "mode", modeSwitch.Mode, "error", err)
					}
				}()
			}
		}),
	}
}

// connectGated wires the handlers whose surfaces only exist for some
// adapters.
func (o *Orchestrator) connectGated(visibility Visibility) []connection {
	callbacks := o.callbacks
	connections := []connection{}

	if visibility.Canvas {
		connections = append(connections,
			o.eventBridge.OnAgentEvent(bridge.AgentCanvasCommand, func(event bridge.AgentEvent) {
				if canvas, ok := event.(bridge.CanvasCommand); ok && callbacks.OnCanvas != nil {
					callbacks.OnCanvas(canvas.Action, canvas.URL)
				}
			}))
	}
	if visibility.MusicControls {
		connections = append(connections,
			o.eventBridge.OnAgentEvent(bridge.AgentMusicSync, func(event bridge.AgentEvent) {
				if callbacks.OnMusicSync != nil {
					callbacks.OnMusicSync()
				}
			}))
	}
	if visibility.CallerEffects {
		connections = append(connections,
			o.eventBridge.OnAgentEvent(bridge.AgentCallerEffect, func(event bridge.AgentEvent) {
				if effect, ok := event.(bridge.CallerEffect); ok && callbacks.OnCallerEffect != nil {
					callbacks.OnCallerEffect(effect.Enabled)
				}
			}))
	}
	if visibility.Commercials {
		connections = append(connections,
			o.eventBridge.OnAgentEvent(bridge.AgentCommercial, func(event bridge.AgentEvent) {
				if commercial, ok := event.(bridge.Commercial); ok && callbacks.OnCommercial != nil {
					callbacks.OnCommercial(commercial.Action)
				}
			}))
	}

	return connections
}
