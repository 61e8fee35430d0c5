// ABOUTME: Effect settings value and change detection
// ABOUTME: Immutable settings replaced whole on every user change
package fx

import "strings"

// Bass shelf tuning
const (
	BassShelfFrequency    = 200.0
	BassBoostPerIntensity = 10.0
)

// EffectSettings holds the user-facing effect controls. Values are replaced
// whole; use the With methods to derive a changed copy.
type EffectSettings struct {
	Volume            float64 `yaml:"volume" json:"volume"`
	ReverbEnabled     bool    `yaml:"reverb" json:"reverbEnabled"`
	BassBoostEnabled  bool    `yaml:"bass_boost" json:"bassBoostEnabled"`
	EffectsIntensity  float64 `yaml:"intensity" json:"effectsIntensity"`
	VisualizerEnabled bool    `yaml:"visualizer" json:"visualizerEnabled"`
}

// DefaultSettings returns the player's initial settings
func DefaultSettings() EffectSettings {
	return EffectSettings{
		Volume:            0.7,
		ReverbEnabled:     true,
		BassBoostEnabled:  true,
		EffectsIntensity:  1,
		VisualizerEnabled: true,
	}
}

// Normalize clamps volume to [0, 1] and intensity to >= 0
func (s EffectSettings) Normalize() EffectSettings {
	s.Volume = min(max(s.Volume, 0), 1)
	s.EffectsIntensity = max(s.EffectsIntensity, 0)
	return s
}

// BassGainDB returns the low-shelf gain implied by the settings
func (s EffectSettings) BassGainDB() float64 {
	if !s.BassBoostEnabled {
		return 0
	}
	return BassBoostPerIntensity * s.EffectsIntensity
}

// WithVolume returns a copy with volume set (clamped)
func (s EffectSettings) WithVolume(v float64) EffectSettings {
	s.Volume = v
	return s.Normalize()
}

// WithReverb returns a copy with reverb toggled on or off
func (s EffectSettings) WithReverb(on bool) EffectSettings {
	s.ReverbEnabled = on
	return s
}

// WithBassBoost returns a copy with bass boost toggled on or off
func (s EffectSettings) WithBassBoost(on bool) EffectSettings {
	s.BassBoostEnabled = on
	return s
}

// WithIntensity returns a copy with effects intensity set (clamped)
func (s EffectSettings) WithIntensity(v float64) EffectSettings {
	s.EffectsIntensity = v
	return s.Normalize()
}

// WithVisualizer returns a copy with the visualizer toggled on or off
func (s EffectSettings) WithVisualizer(on bool) EffectSettings {
	s.VisualizerEnabled = on
	return s
}

// Change is a set of graph parameters that differ between two settings
type Change uint8

const (
	ChangeVolume Change = 1 << iota
	ChangeReverb
	ChangeBass
	ChangeVisualizer

	ChangeNone Change = 0
)

// Has reports whether every bit of other is set
func (c Change) Has(other Change) bool {
	return c&other == other
}

func (c Change) String() string {
	if c == ChangeNone {
		return "none"
	}
	var parts []string
	for _, p := range []struct {
		bit  Change
		name string
	}{
		{ChangeVolume, "volume"},
		{ChangeReverb, "reverb"},
		{ChangeBass, "bass"},
		{ChangeVisualizer, "visualizer"},
	} {
		if c.Has(p.bit) {
			parts = append(parts, p.name)
		}
	}
	return strings.Join(parts, "|")
}

// Diff reports which graph parameters must change to go from old to next.
// Bass changes are detected on the resulting shelf gain, so changing
// intensity while bass boost is off is not a change.
func Diff(old, next EffectSettings) Change {
	var c Change
	if old.Volume != next.Volume {
		c |= ChangeVolume
	}
	if old.ReverbEnabled != next.ReverbEnabled {
		c |= ChangeReverb
	}
	if old.BassGainDB() != next.BassGainDB() {
		c |= ChangeBass
	}
	if old.VisualizerEnabled != next.VisualizerEnabled {
		c |= ChangeVisualizer
	}
	return c
}
