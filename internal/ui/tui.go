// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the command channel to the player
package ui

import (
	"github.com/Lyricium/lyricium-go/internal/fx"
	tea "github.com/charmbracelet/bubbletea"
)

// Key step sizes
const (
	VolumeStep    = 0.05
	IntensityStep = 0.25
)

// Command is a user action forwarded to the player
type Command int

const (
	CmdTogglePlay Command = iota
	CmdToggleReverb
	CmdToggleBass
	CmdVolumeUp
	CmdVolumeDown
	CmdIntensityUp
	CmdIntensityDown
	CmdToggleVisualizer
	CmdNext
)

func (c Command) String() string {
	switch c {
	case CmdTogglePlay:
		return "toggle-play"
	case CmdToggleReverb:
		return "toggle-reverb"
	case CmdToggleBass:
		return "toggle-bass"
	case CmdVolumeUp:
		return "volume-up"
	case CmdVolumeDown:
		return "volume-down"
	case CmdIntensityUp:
		return "intensity-up"
	case CmdIntensityDown:
		return "intensity-down"
	case CmdToggleVisualizer:
		return "toggle-visualizer"
	case CmdNext:
		return "next"
	default:
		return "unknown"
	}
}

// Apply returns s changed by the command. ok is false for commands that do
// not change effect settings.
func (c Command) Apply(s fx.EffectSettings) (next fx.EffectSettings, ok bool) {
	switch c {
	case CmdToggleReverb:
		return s.WithReverb(!s.ReverbEnabled), true
	case CmdToggleBass:
		return s.WithBassBoost(!s.BassBoostEnabled), true
	case CmdVolumeUp:
		return s.WithVolume(s.Volume + VolumeStep), true
	case CmdVolumeDown:
		return s.WithVolume(s.Volume - VolumeStep), true
	case CmdIntensityUp:
		return s.WithIntensity(s.EffectsIntensity + IntensityStep), true
	case CmdIntensityDown:
		return s.WithIntensity(s.EffectsIntensity - IntensityStep), true
	case CmdToggleVisualizer:
		return s.WithVisualizer(!s.VisualizerEnabled), true
	default:
		return s, false
	}
}

// Controls carries commands from the TUI to the player
type Controls struct {
	Commands chan Command
	Quit     chan struct{}
}

// NewControls creates a control channel pair
func NewControls() *Controls {
	return &Controls{
		Commands: make(chan Command, 10),
		Quit:     make(chan struct{}, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(controls *Controls, settings fx.EffectSettings) Model {
	return Model{
		state:    "idle",
		accent:   "#ffffff",
		settings: settings,
		controls: controls,
	}
}

// Run creates the TUI program; the caller runs it
func Run(controls *Controls, settings fx.EffectSettings) *tea.Program {
	return tea.NewProgram(NewModel(controls, settings), tea.WithAltScreen())
}
