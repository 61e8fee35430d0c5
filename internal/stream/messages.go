// ABOUTME: JSON messages sent to browser viewers
// ABOUTME: Beat toggles and track announcements
package stream

// TrackInfo describes the playing track for viewers
type TrackInfo struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Uploader     string `json:"uploader,omitempty"`
	Color        string `json:"color"`
	Accent       string `json:"accent"`
	Type         string `json:"type,omitempty"`
	Symbol       string `json:"symbol,omitempty"`
	ChemicalName string `json:"chemical_name,omitempty"`
	Style        string `json:"style,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	LyricsHTML   string `json:"lyrics_html"`

	// JacketPath is a locally cached jacket image served at /jacket
	JacketPath string `json:"-"`
}

// Message is a text frame on the viewer websocket
type Message struct {
	Type  string     `json:"type"`
	On    *bool      `json:"on,omitempty"`
	Track *TrackInfo `json:"track,omitempty"`
}

// BeatMessage builds a beat toggle message
func BeatMessage(on bool) Message {
	return Message{Type: "beat", On: &on}
}

// TrackMessage builds a track announcement
func TrackMessage(info TrackInfo) Message {
	return Message{Type: "track", Track: &info}
}
