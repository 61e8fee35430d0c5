// ABOUTME: Tests for the TUI model
// ABOUTME: Covers key handling, command forwarding and status updates
package ui

import (
	"strings"
	"testing"

	"github.com/Lyricium/lyricium-go/internal/fx"
	tea "github.com/charmbracelet/bubbletea"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, k string) Model {
	t.Helper()
	next, _ := m.Update(key(k))
	return next.(Model)
}

func drain(c *Controls) []Command {
	var cmds []Command
	for {
		select {
		case cmd := <-c.Commands:
			cmds = append(cmds, cmd)
		default:
			return cmds
		}
	}
}

func TestNewModel(t *testing.T) {
	model := NewModel(nil, fx.DefaultSettings())
	if model.state != "idle" {
		t.Errorf("expected idle state, got %s", model.state)
	}
	if model.settings != fx.DefaultSettings() {
		t.Errorf("unexpected settings %+v", model.settings)
	}
	if model.hasNext {
		t.Error("expected next disabled initially")
	}
}

func TestKeysForwardCommands(t *testing.T) {
	tests := []struct {
		key  string
		want Command
	}{
		{" ", CmdTogglePlay},
		{"r", CmdToggleReverb},
		{"b", CmdToggleBass},
		{"up", CmdVolumeUp},
		{"down", CmdVolumeDown},
		{"right", CmdIntensityUp},
		{"left", CmdIntensityDown},
		{"v", CmdToggleVisualizer},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			controls := NewControls()
			press(t, NewModel(controls, fx.DefaultSettings()), tt.key)
			cmds := drain(controls)
			if len(cmds) != 1 || cmds[0] != tt.want {
				t.Errorf("expected [%s], got %v", tt.want, cmds)
			}
		})
	}
}

func TestNextDisabledWithoutNextTrack(t *testing.T) {
	controls := NewControls()
	m := NewModel(controls, fx.DefaultSettings())

	m = press(t, m, "n")
	if cmds := drain(controls); len(cmds) != 0 {
		t.Errorf("expected no command, got %v", cmds)
	}

	hasNext := true
	next, _ := m.Update(StatusMsg{HasNext: &hasNext})
	press(t, next.(Model), "n")
	if cmds := drain(controls); len(cmds) != 1 || cmds[0] != CmdNext {
		t.Errorf("expected [next], got %v", cmds)
	}
}

func TestQuitSignals(t *testing.T) {
	controls := NewControls()
	_, cmd := NewModel(controls, fx.DefaultSettings()).Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	select {
	case <-controls.Quit:
	default:
		t.Error("expected quit signal")
	}
}

func TestCommandApply(t *testing.T) {
	base := fx.DefaultSettings()

	tests := []struct {
		cmd   Command
		check func(fx.EffectSettings) bool
	}{
		{CmdToggleReverb, func(s fx.EffectSettings) bool { return !s.ReverbEnabled }},
		{CmdToggleBass, func(s fx.EffectSettings) bool { return !s.BassBoostEnabled }},
		{CmdVolumeUp, func(s fx.EffectSettings) bool { return s.Volume > 0.749 && s.Volume < 0.751 }},
		{CmdVolumeDown, func(s fx.EffectSettings) bool { return s.Volume > 0.649 && s.Volume < 0.651 }},
		{CmdIntensityUp, func(s fx.EffectSettings) bool { return s.EffectsIntensity == 1.25 }},
		{CmdIntensityDown, func(s fx.EffectSettings) bool { return s.EffectsIntensity == 0.75 }},
		{CmdToggleVisualizer, func(s fx.EffectSettings) bool { return !s.VisualizerEnabled }},
	}

	for _, tt := range tests {
		got, ok := tt.cmd.Apply(base)
		if !ok || !tt.check(got) {
			t.Errorf("%s: unexpected result %+v (ok=%v)", tt.cmd, got, ok)
		}
	}

	if _, ok := CmdTogglePlay.Apply(base); ok {
		t.Error("toggle-play should not change settings")
	}
}

func TestVolumeClampedAtBounds(t *testing.T) {
	m := NewModel(nil, fx.DefaultSettings().WithVolume(1))
	m = press(t, m, "up")
	if m.settings.Volume != 1 {
		t.Errorf("expected volume clamped at 1, got %f", m.settings.Volume)
	}

	m = NewModel(nil, fx.DefaultSettings().WithIntensity(0))
	m = press(t, m, "left")
	if m.settings.EffectsIntensity != 0 {
		t.Errorf("expected intensity clamped at 0, got %f", m.settings.EffectsIntensity)
	}
}

func TestStatusAndTrackMessages(t *testing.T) {
	m := NewModel(nil, fx.DefaultSettings())

	next, _ := m.Update(TrackMsg{Title: "Red Sky", ColorName: "赤", Accent: "#ff3b3b", Lyrics: "赤い空", HasNext: true})
	m = next.(Model)
	if m.title != "Red Sky" || m.accent != "#ff3b3b" || !m.hasNext {
		t.Errorf("track not applied: %+v", m)
	}

	warning := "Effects unavailable"
	settings := fx.DefaultSettings().WithReverb(false)
	next, _ = m.Update(StatusMsg{State: "playing", Warning: &warning, Settings: &settings})
	m = next.(Model)
	if m.state != "playing" || m.warning != warning || m.settings.ReverbEnabled {
		t.Errorf("status not applied: %+v", m)
	}

	next, _ = m.Update(StatusMsg{State: "paused"})
	m = next.(Model)
	if m.warning != warning {
		t.Error("warning should persist when not in the message")
	}

	next, _ = m.Update(BeatMsg(true))
	if !next.(Model).beat {
		t.Error("expected beat lamp on")
	}
}

func TestViewContainsLyricsAndWarning(t *testing.T) {
	m := NewModel(nil, fx.DefaultSettings())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	next, _ = next.Update(TrackMsg{Title: "Blue", ColorName: "青", Accent: "#3b6cff", Lyrics: "青い海"})
	warning := "Effects unavailable"
	next, _ = next.Update(StatusMsg{Warning: &warning})

	view := next.View()
	for _, want := range []string{"Blue", "青", "い海", "Effects unavailable", "q:Quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewBeforeResize(t *testing.T) {
	if got := NewModel(nil, fx.DefaultSettings()).View(); got != "Loading..." {
		t.Errorf("expected loading view, got %q", got)
	}
}

func TestSpectrumRow(t *testing.T) {
	if got := spectrumRow(nil, 4); got != "    " {
		t.Errorf("expected blank row, got %q", got)
	}

	freq := []byte{0, 0, 255, 255}
	row := []rune(spectrumRow(freq, 2))
	if len(row) != 2 || row[0] != ' ' || row[1] != '█' {
		t.Errorf("unexpected row %q", string(row))
	}

	wide := []rune(spectrumRow([]byte{128}, 3))
	if len(wide) != 3 {
		t.Errorf("expected 3 columns, got %d", len(wide))
	}
}
