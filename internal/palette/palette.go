// ABOUTME: Track accent colours and lyric highlighting
// ABOUTME: Maps colour names to hex values and wraps colour words in styled spans
package palette

import (
	"fmt"
	"html"
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Default is the accent used for unknown colour names
const Default = "#ffffff"

var accents = map[string]string{
	"赤":   "#ff3b3b",
	"黄":   "#ffd43b",
	"赤紫":  "#d726e3",
	"橙赤":  "#ff703b",
	"紅":   "#ff3b6f",
	"黄緑":  "#b4ff3b",
	"青緑":  "#3be3ff",
	"青":   "#3b6cff",
	"赤褐色": "#b63b2f",
	"桃":   "#ff6cb3",
	"白":   "#ffffff",
	"黄色":  "#ffec3b",
}

// Lookup returns the hex accent for a colour name
func Lookup(name string) (string, bool) {
	hex, ok := accents[name]
	return hex, ok
}

// Accent returns the hex accent for a colour name, or Default
func Accent(name string) string {
	if hex, ok := accents[name]; ok {
		return hex
	}
	return Default
}

// Names returns every known colour name in sorted order
func Names() []string {
	names := make([]string, 0, len(accents))
	for name := range accents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithAlpha appends floor(alpha*255) as a two-digit hex suffix to a
// six-digit hex colour. alpha is clamped to [0, 1].
func WithAlpha(hex string, alpha float64) string {
	alpha = math.Min(math.Max(alpha, 0), 1)
	return fmt.Sprintf("%s%02x", hex, int(math.Floor(alpha*255)))
}

// ParseHex parses #rrggbb or #rrggbbaa
func ParseHex(s string) (color.RGBA, error) {
	digits := strings.TrimPrefix(s, "#")
	if len(digits) != 6 && len(digits) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid hex colour %q", s)
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	if len(digits) == 6 {
		v = v<<8 | 0xff
	}
	return color.RGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

// Highlight replaces every literal occurrence of word in text with
// wrap(word). Text between occurrences is passed through other. An empty
// word leaves text unchanged apart from other.
func Highlight(text, word string, wrap, other func(string) string) string {
	if other == nil {
		other = func(s string) string { return s }
	}
	if word == "" {
		return other(text)
	}

	parts := strings.Split(text, word)
	var b strings.Builder
	for i, part := range parts {
		if i > 0 {
			b.WriteString(wrap(word))
		}
		b.WriteString(other(part))
	}
	return b.String()
}

// HighlightLyrics wraps every occurrence of the colour name in the lyrics
// with a bold span in the name's accent colour. The surrounding text is
// HTML-escaped.
func HighlightLyrics(lyrics, name string) string {
	hex := Accent(name)
	span := func(word string) string {
		return fmt.Sprintf(`<span style="color:%s;font-weight:bold;">%s</span>`, hex, html.EscapeString(word))
	}
	return Highlight(lyrics, name, span, html.EscapeString)
}
