// ABOUTME: Player configuration loading
// ABOUTME: Merges defaults, an optional YAML file, environment and flags
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Lyricium/lyricium-go/internal/fx"
	"gopkg.in/yaml.v3"
)

// Config holds player configuration
type Config struct {
	APIURL     string `yaml:"api_url"`
	Song       int    `yaml:"song"`
	File       string `yaml:"file"`
	Color      string `yaml:"color"`
	SampleRate int    `yaml:"sample_rate"`
	FPS        int    `yaml:"fps"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Listen     string `yaml:"listen"`
	StreamFPS  int    `yaml:"stream_fps"`
	MDNS       bool   `yaml:"mdns"`
	Name       string `yaml:"name"`
	LogFile    string `yaml:"log_file"`
	NoTUI      bool   `yaml:"no_tui"`
	NoAudio    bool   `yaml:"no_audio"`
	CacheDir   string `yaml:"cache_dir"`

	Effects fx.EffectSettings `yaml:"effects"`

	// Path is the YAML file that was loaded, if any
	Path string `yaml:"-"`
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		APIURL:     "http://localhost:8000",
		Color:      "白",
		SampleRate: 48000,
		FPS:        60,
		Width:      640,
		Height:     160,
		StreamFPS:  15,
		LogFile:    "lyricium.log",
		Effects:    fx.DefaultSettings(),
	}
}

// Load builds the configuration from args (without the program name).
// Precedence from lowest to highest: defaults, YAML file, environment,
// flags. The file comes from -config or LYRICIUM_CONFIG.
func Load(args []string) (Config, error) {
	cfg := Defaults()

	path := configPath(args)
	if path == "" {
		path = os.Getenv("LYRICIUM_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
		cfg.Path = path
	}

	if err := cfg.loadEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.parseFlags(args); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// configPath pre-scans args for -config so the file can load before flags
func configPath(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	if v, ok := os.LookupEnv("LYRICIUM_API_URL"); ok {
		c.APIURL = v
	}
	if v, ok := os.LookupEnv("LYRICIUM_LISTEN"); ok {
		c.Listen = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"LYRICIUM_SONG", &c.Song},
		{"LYRICIUM_SAMPLE_RATE", &c.SampleRate},
	}
	for _, e := range ints {
		v, ok := os.LookupEnv(e.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", e.key, v, err)
		}
		*e.dst = n
	}
	return nil
}

func (c *Config) parseFlags(args []string) error {
	fs := flag.NewFlagSet("lyricium", flag.ContinueOnError)

	// Flag defaults are the values merged so far, so only flags given on
	// the command line override them.
	fs.String("config", c.Path, "YAML config file")
	fs.StringVar(&c.APIURL, "api", c.APIURL, "Catalog REST base URL")
	fs.IntVar(&c.Song, "song", c.Song, "Track id to play")
	fs.StringVar(&c.File, "file", c.File, "Local audio file (bypasses the catalog)")
	fs.StringVar(&c.Color, "color", c.Color, "Colour name used with -file")
	fs.IntVar(&c.SampleRate, "sample-rate", c.SampleRate, "Output sample rate")
	fs.IntVar(&c.FPS, "fps", c.FPS, "Visualizer frames per second")
	fs.IntVar(&c.Width, "width", c.Width, "Visualizer width in pixels")
	fs.IntVar(&c.Height, "height", c.Height, "Visualizer height in pixels")
	fs.StringVar(&c.Listen, "listen", c.Listen, "Frame publisher address (empty disables)")
	fs.IntVar(&c.StreamFPS, "stream-fps", c.StreamFPS, "Frames per second sent to viewers")
	fs.BoolVar(&c.MDNS, "mdns", c.MDNS, "Advertise the frame publisher via mDNS")
	fs.StringVar(&c.Name, "name", c.Name, "Service name (default: hostname-lyricium)")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Log file path")
	fs.BoolVar(&c.NoTUI, "no-tui", c.NoTUI, "Disable TUI, use streaming logs instead")
	fs.BoolVar(&c.NoTUI, "stream-logs", c.NoTUI, "Alias for -no-tui")
	fs.BoolVar(&c.NoAudio, "no-audio", c.NoAudio, "Discard audio instead of opening a device")
	fs.StringVar(&c.CacheDir, "cache-dir", c.CacheDir, "Media cache directory")

	fs.Float64Var(&c.Effects.Volume, "volume", c.Effects.Volume, "Initial volume (0-1)")
	fs.BoolVar(&c.Effects.ReverbEnabled, "reverb", c.Effects.ReverbEnabled, "Enable reverb")
	fs.BoolVar(&c.Effects.BassBoostEnabled, "bass", c.Effects.BassBoostEnabled, "Enable bass boost")
	fs.Float64Var(&c.Effects.EffectsIntensity, "intensity", c.Effects.EffectsIntensity, "Effects intensity")
	fs.BoolVar(&c.Effects.VisualizerEnabled, "visualizer", c.Effects.VisualizerEnabled, "Enable the visualizer")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return nil
}

func (c *Config) validate() error {
	c.Effects = c.Effects.Normalize()

	if c.FPS < 1 || c.FPS > 240 {
		return fmt.Errorf("fps must be in [1, 240], got %d", c.FPS)
	}
	c.StreamFPS = min(max(c.StreamFPS, 1), c.FPS)
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("canvas size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.SampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}
	if c.File == "" && c.APIURL == "" {
		return errors.New("an API URL is required without -file")
	}
	return nil
}

// ServiceName returns the configured name or a hostname-derived default
func (c Config) ServiceName() string {
	if c.Name != "" {
		return c.Name
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-lyricium", hostname)
}
