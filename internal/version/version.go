// ABOUTME: Product and version constants
// ABOUTME: Shown in the TUI header, the publisher and the mDNS TXT record
package version

const (
	Version      = "0.4.0"
	Product      = "Lyricium Player"
	Manufacturer = "Lyricium"
)
