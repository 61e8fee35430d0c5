// ABOUTME: Bubbletea model for the player TUI
// ABOUTME: Shows the track, highlighted lyrics, effect settings, beat lamp and spectrum
package ui

import (
	"fmt"
	"strings"

	"github.com/Lyricium/lyricium-go/internal/fx"
	"github.com/Lyricium/lyricium-go/internal/palette"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var spectrumBlocks = []rune(" ▁▂▃▄▅▆▇█")

// Model represents the TUI state
type Model struct {
	// Track
	title     string
	uploader  string
	colorName string
	accent    string
	chemical  string
	lyrics    string
	hasNext   bool

	// Playback
	state    string
	warning  string
	settings fx.EffectSettings

	// Visualizer
	beat     bool
	spectrum []byte

	controls *Controls

	width  int
	height int
}

// TrackMsg announces a newly loaded track
type TrackMsg struct {
	Title     string
	Uploader  string
	ColorName string
	Accent    string
	Chemical  string
	Lyrics    string
	HasNext   bool
}

// StatusMsg updates playback state. Nil fields are left unchanged.
type StatusMsg struct {
	State    string
	Warning  *string
	Settings *fx.EffectSettings
	HasNext  *bool
}

// FrameMsg carries a copy of the latest frequency data
type FrameMsg struct {
	Freq []byte
	Beat bool
}

// BeatMsg toggles the beat lamp
type BeatMsg bool

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case TrackMsg:
		m.applyTrack(msg)
	case StatusMsg:
		m.applyStatus(msg)
	case FrameMsg:
		m.spectrum = msg.Freq
		m.beat = msg.Beat
	case BeatMsg:
		m.beat = bool(msg)
	}

	return m, nil
}

func (m *Model) applyTrack(msg TrackMsg) {
	m.title = msg.Title
	m.uploader = msg.Uploader
	m.colorName = msg.ColorName
	m.accent = msg.Accent
	m.chemical = msg.Chemical
	m.lyrics = msg.Lyrics
	m.hasNext = msg.HasNext
	m.beat = false
	m.spectrum = nil
}

func (m *Model) applyStatus(msg StatusMsg) {
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.Warning != nil {
		m.warning = *msg.Warning
	}
	if msg.Settings != nil {
		m.settings = *msg.Settings
	}
	if msg.HasNext != nil {
		m.hasNext = *msg.HasNext
	}
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd Command
	switch msg.String() {
	case "q", "ctrl+c":
		if m.controls != nil {
			select {
			case m.controls.Quit <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit
	case " ":
		cmd = CmdTogglePlay
	case "r":
		cmd = CmdToggleReverb
	case "b":
		cmd = CmdToggleBass
	case "up":
		cmd = CmdVolumeUp
	case "down":
		cmd = CmdVolumeDown
	case "right":
		cmd = CmdIntensityUp
	case "left":
		cmd = CmdIntensityDown
	case "v":
		cmd = CmdToggleVisualizer
	case "n":
		if !m.hasNext {
			return m, nil
		}
		cmd = CmdNext
	default:
		return m, nil
	}

	// Optimistic update; the player confirms with a StatusMsg
	if next, ok := cmd.Apply(m.settings); ok {
		m.settings = next
	}
	m.send(cmd)
	return m, nil
}

func (m Model) send(cmd Command) {
	if m.controls == nil {
		return
	}
	select {
	case m.controls.Commands <- cmd:
	default:
	}
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	accent := lipgloss.Color(m.accent)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Width(max(m.width-4, 20))

	sections := []string{
		m.renderHeader(accent),
		m.renderLyrics(accent),
		m.renderSettings(),
	}
	if m.settings.VisualizerEnabled {
		sections = append(sections, m.renderSpectrum(accent, max(m.width-8, 16)))
	}
	if m.warning != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(lipgloss.Color("#ffd43b")).Render("⚠ "+m.warning))
	}
	sections = append(sections, m.renderHelp())

	return box.Render(strings.Join(sections, "\n\n"))
}

// renderHeader renders the title line and beat lamp
func (m Model) renderHeader(accent lipgloss.Color) string {
	lamp := lipgloss.NewStyle().Foreground(lipgloss.Color("#333333")).Render("●")
	if m.beat {
		lamp = lipgloss.NewStyle().Foreground(accent).Render("●")
	}

	title := m.title
	if title == "" {
		title = "No track"
	}
	header := fmt.Sprintf("%s %s  [%s]", lamp, lipgloss.NewStyle().Bold(true).Render(title), m.state)

	var meta []string
	if m.uploader != "" {
		meta = append(meta, "by "+m.uploader)
	}
	if m.colorName != "" {
		meta = append(meta, lipgloss.NewStyle().Foreground(accent).Render(m.colorName))
	}
	if m.chemical != "" {
		meta = append(meta, m.chemical)
	}
	if len(meta) > 0 {
		header += "\n" + strings.Join(meta, " · ")
	}
	return header
}

// renderLyrics bolds every occurrence of the colour name in the accent colour
func (m Model) renderLyrics(accent lipgloss.Color) string {
	if m.lyrics == "" {
		return "(no lyrics)"
	}
	mark := lipgloss.NewStyle().Foreground(accent).Bold(true)
	return palette.Highlight(m.lyrics, m.colorName, func(s string) string { return mark.Render(s) }, nil)
}

func (m Model) renderSettings() string {
	s := m.settings
	return fmt.Sprintf("Volume    [%s] %3.0f%%\nIntensity %.2f   Reverb %s   Bass %s   Visualizer %s",
		renderBar(s.Volume, 10), s.Volume*100,
		s.EffectsIntensity, onOff(s.ReverbEnabled), onOff(s.BassBoostEnabled), onOff(s.VisualizerEnabled))
}

// renderSpectrum draws one row of block characters from the frequency bins
func (m Model) renderSpectrum(accent lipgloss.Color, width int) string {
	return lipgloss.NewStyle().Foreground(accent).Render(spectrumRow(m.spectrum, width))
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	next := "n:Next"
	if !m.hasNext {
		next = lipgloss.NewStyle().Faint(true).Render(next)
	}
	return "space:Play/Pause  r:Reverb  b:Bass  ↑/↓:Volume  ←/→:Intensity  v:Visualizer  " + next + "  q:Quit"
}

func spectrumRow(freq []byte, width int) string {
	if width <= 0 {
		return ""
	}
	if len(freq) == 0 {
		return strings.Repeat(" ", width)
	}

	var b strings.Builder
	for col := 0; col < width; col++ {
		lo := col * len(freq) / width
		hi := max((col+1)*len(freq)/width, lo+1)
		peak := byte(0)
		for _, v := range freq[lo:min(hi, len(freq))] {
			peak = max(peak, v)
		}
		b.WriteRune(spectrumBlocks[int(peak)*(len(spectrumBlocks)-1)/255])
	}
	return b.String()
}

func renderBar(value float64, width int) string {
	filled := int(value*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
