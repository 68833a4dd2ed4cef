// Command voxshell is a terminal shell for the voice conversation
// core: it shows the transcript, lets you type to the agent and
// switches between conversation modes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/voxshell/voxshell-core/core/adapters"
	"github.com/voxshell/voxshell-core/core/adapters/clawdbot"
	"github.com/voxshell/voxshell-core/core/adapters/humeevi"
	"github.com/voxshell/voxshell-core/core/bridge"
	"github.com/voxshell/voxshell-core/core/shell"
)

func main() {
	backendURL := flag.String("backend", "http://localhost:8090", "conversation backend base URL")
	modeFile := flag.String("mode-file", defaultModeFile(), "path of the persisted mode selection")
	startMode := flag.String("mode", "", "mode to activate on startup (overrides persisted choice)")
	flag.Parse()

	registry := adapters.NewRegistry(clawdbot.AdapterID)
	registry.Register(clawdbot.AdapterID, clawdbot.Factory)
	registry.Register(humeevi.AdapterID, humeevi.Factory)

	profiles := []adapters.Profile{
		{
			ID:      "clawdbot",
			Name:    "Clawdbot",
			Adapter: clawdbot.AdapterID,
			Config:  adapters.Config{"base_url": *backendURL},
		},
		{
			ID:      "hume-evi",
			Name:    "Hume EVI",
			Adapter: humeevi.AdapterID,
		},
	}
	discovery := adapters.NewDiscovery(registry, profiles)

	eventBridge := bridge.New()

	model := newModel()
	program := tea.NewProgram(model, tea.WithAltScreen())

	orchestrator := shell.NewOrchestrator(registry, discovery, eventBridge,
		shell.WithModeStore(&shell.FileModeStore{Path: *modeFile}),
		shell.WithCallbacks(shellCallbacks(program)),
		shell.WithVisibilityCallback(func(visibility shell.Visibility) {
			program.Send(visibilityMsg{visibility: visibility})
		}),
	)
	model.orchestrator = orchestrator

	go func() {
		var err error
		if *startMode != "" {
			err = orchestrator.SwitchMode(context.Background(), *startMode)
		} else {
			err = orchestrator.Activate(context.Background(), "")
		}
		if err != nil {
			program.Send(errorMsg{message: err.Error()})
		}
	}()

	if _, err := program.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "voxshell:", err)
		os.Exit(1)
	}
	orchestrator.Shutdown()
}

func defaultModeFile() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".voxshell-mode.json"
	}
	return filepath.Join(configDir, "voxshell", "mode.json")
}

func shellCallbacks(program *tea.Program) shell.Callbacks {
	return shell.Callbacks{
		OnConnected: func() {
			program.Send(connectionMsg{connected: true})
		},
		OnDisconnected: func(reason string) {
			program.Send(connectionMsg{connected: false, reason: reason})
		},
		OnError: func(message string) {
			program.Send(errorMsg{message: message})
		},
		OnStateChanged: func(state string) {
			program.Send(stateMsg{state: state})
		},
		OnMessage: func(role, text string, final bool) {
			program.Send(messageMsg{role: role, text: text, final: final})
		},
		OnTranscript: func(text string, partial bool) {
			program.Send(transcriptMsg{text: text, partial: partial})
		},
		OnSpeaking: func(speaking bool) {
			program.Send(speakingMsg{speaking: speaking})
		},
		OnAudioLevel: func(level float64) {
			program.Send(levelMsg{level: level})
		},
		OnMood: func(mood string) {
			program.Send(moodMsg{mood: mood})
		},
		OnSound: func(sound, effectType string) {
			program.Send(soundMsg{sound: sound})
		},
		OnMusic: func(action, track string) {
			program.Send(musicMsg{action: action, track: track})
		},
		OnCanvas: func(action, url string) {
			program.Send(canvasMsg{action: action, url: url})
		},
	}
}
