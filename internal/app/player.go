// ABOUTME: Main player application orchestration
// ABOUTME: Coordinates catalog, media cache, playback controller, TUI and frame publisher
package app

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Lyricium/lyricium-go/internal/catalog"
	"github.com/Lyricium/lyricium-go/internal/config"
	"github.com/Lyricium/lyricium-go/internal/discovery"
	"github.com/Lyricium/lyricium-go/internal/media"
	"github.com/Lyricium/lyricium-go/internal/palette"
	"github.com/Lyricium/lyricium-go/internal/player"
	"github.com/Lyricium/lyricium-go/internal/stream"
	"github.com/Lyricium/lyricium-go/internal/ui"
	"github.com/Lyricium/lyricium-go/internal/version"
	"github.com/Lyricium/lyricium-go/internal/visual"
	"github.com/Lyricium/lyricium-go/pkg/audio/output"
	tea "github.com/charmbracelet/bubbletea"
)

// tuiFrameInterval limits spectrum updates sent to the terminal
const tuiFrameInterval = 50 * time.Millisecond

// ErrNoTrack is returned when there is nothing to play
var ErrNoTrack = errors.New("no track to play")

// Player represents the main player application
type Player struct {
	config     config.Config
	catalog    *catalog.Client
	media      *media.Downloader
	output     output.Output
	canvas     *visual.ImageCanvas
	controller *player.Controller
	publisher  *stream.Publisher
	discovery  *discovery.Manager

	controllerOpts []func(*player.Config)

	tuiProg  *tea.Program
	controls *ui.Controls
	uiMsgs   chan tea.Msg

	mu      sync.Mutex
	info    stream.TrackInfo
	nextID  int
	hasNext bool

	lastTUIFrame atomic.Int64

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// Option customizes a Player
type Option func(*Player)

// WithOutput replaces the audio output
func WithOutput(out output.Output) Option {
	return func(p *Player) { p.output = out }
}

// WithControllerConfig adjusts the controller configuration before the
// controller is created
func WithControllerConfig(fn func(*player.Config)) Option {
	return func(p *Player) { p.controllerOpts = append(p.controllerOpts, fn) }
}

// New creates a player
func New(cfg config.Config, opts ...Option) *Player {
	ctx, cancel := context.WithCancel(context.Background())

	p := &Player{
		config: cfg,
		canvas: visual.NewImageCanvas(cfg.Width, cfg.Height, color.Black),
		uiMsgs: make(chan tea.Msg, 64),
		ctx:    ctx,
		cancel: cancel,
	}
	if cfg.File == "" {
		p.catalog = catalog.New(cfg.APIURL, nil)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start initializes every component, loads the first track and starts
// playback. It returns once playback has started; use Done to wait.
func (p *Player) Start() error {
	if err := p.openOutput(); err != nil {
		return err
	}

	dl, err := media.NewDownloader(p.config.CacheDir, nil)
	if err != nil {
		return fmt.Errorf("failed to create media cache: %w", err)
	}
	p.media = dl

	p.controller = player.NewController(p.controllerConfig())

	if p.config.Listen != "" {
		if err := p.startPublisher(); err != nil {
			return err
		}
	}

	if !p.config.NoTUI {
		p.controls = ui.NewControls()
		p.tuiProg = ui.Run(p.controls, p.config.Effects)
		go func() {
			if _, err := p.tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
			p.Stop()
		}()
		go p.handleControls()
	}
	go p.pumpUI()

	if err := p.loadInitial(); err != nil {
		return err
	}
	if err := p.controller.Play(); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}
	return nil
}

// Done is closed when the player stops
func (p *Player) Done() <-chan struct{} {
	return p.ctx.Done()
}

// Controller returns the playback controller
func (p *Player) Controller() *player.Controller {
	return p.controller
}

// Publisher returns the frame publisher, or nil when disabled
func (p *Player) Publisher() *stream.Publisher {
	return p.publisher
}

// HasNext reports whether advancing to a next track is possible
func (p *Player) HasNext() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasNext
}

// Track returns the current track info
func (p *Player) Track() stream.TrackInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info
}

func (p *Player) openOutput() error {
	if p.output == nil {
		if p.config.NoAudio {
			p.output = output.NewNull(true)
		} else {
			p.output = output.NewOto()
		}
	}

	if err := p.output.Open(p.config.SampleRate, 2); err != nil {
		if p.config.NoAudio {
			return fmt.Errorf("failed to open audio output: %w", err)
		}
		// No device: keep playing silently so the visualizer still runs
		log.Printf("Audio device unavailable, discarding audio: %v", err)
		p.output = output.NewNull(true)
		if err := p.output.Open(p.config.SampleRate, 2); err != nil {
			return fmt.Errorf("failed to open audio output: %w", err)
		}
	}
	log.Printf("Audio output initialized: %dHz stereo", p.config.SampleRate)
	return nil
}

func (p *Player) controllerConfig() player.Config {
	cfg := player.Config{
		SampleRate: p.config.SampleRate,
		FPS:        p.config.FPS,
		Settings:   p.config.Effects,
		Canvas:     p.canvas,
		Output:     p.output,
		OnFrame:    p.onFrame,
		OnBeat:     p.onBeat,
		OnStateChange: func(s player.State) {
			p.sendUI(ui.StatusMsg{State: s.String()})
		},
	}
	for _, fn := range p.controllerOpts {
		fn(&cfg)
	}
	return cfg
}

func (p *Player) startPublisher() error {
	p.publisher = stream.New(stream.Config{
		Addr:   p.config.Listen,
		Name:   p.config.ServiceName(),
		FPS:    p.config.StreamFPS,
		Frames: p.canvas,
	})
	if err := p.publisher.Start(); err != nil {
		return fmt.Errorf("failed to start frame publisher: %w", err)
	}

	if !p.config.MDNS {
		return nil
	}
	port, err := discovery.PortFromAddr(p.publisher.Addr().String())
	if err != nil {
		log.Printf("Failed to start mDNS advertisement: %v", err)
		return nil
	}
	p.discovery = discovery.NewManager(discovery.Config{
		ServiceName:  p.config.ServiceName(),
		Port:         port,
		Path:         "/ws",
		Product:      version.Product,
		Manufacturer: version.Manufacturer,
		Version:      version.Version,
	})
	if err := p.discovery.Advertise(); err != nil {
		log.Printf("Failed to start mDNS advertisement: %v", err)
	} else {
		log.Printf("mDNS advertisement started")
	}
	return nil
}

// onFrame runs on the render loop goroutine and must not block
func (p *Player) onFrame(f player.Frame) {
	if p.publisher != nil {
		p.publisher.PublishFrame()
	}
	if p.tuiProg == nil {
		return
	}

	now := time.Now().UnixNano()
	last := p.lastTUIFrame.Load()
	if now-last < int64(tuiFrameInterval) || !p.lastTUIFrame.CompareAndSwap(last, now) {
		return
	}
	freq := make([]byte, len(f.Freq))
	copy(freq, f.Freq)
	p.sendUI(ui.FrameMsg{Freq: freq, Beat: f.Beat})
}

func (p *Player) onBeat(on bool) {
	if p.publisher != nil {
		p.publisher.PublishBeat(on)
	}
	p.sendUI(ui.BeatMsg(on))
}

// sendUI queues a TUI message without blocking; messages are dropped when
// the queue is full
func (p *Player) sendUI(msg tea.Msg) {
	if p.tuiProg == nil {
		return
	}
	select {
	case p.uiMsgs <- msg:
	default:
	}
}

// pumpUI forwards queued messages to the TUI program
func (p *Player) pumpUI() {
	for {
		select {
		case msg := <-p.uiMsgs:
			if p.tuiProg != nil {
				p.tuiProg.Send(msg)
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// handleControls processes commands from the TUI
func (p *Player) handleControls() {
	for {
		select {
		case cmd := <-p.controls.Commands:
			if err := p.Execute(cmd); err != nil {
				log.Printf("Command %s failed: %v", cmd, err)
			}
		case <-p.controls.Quit:
			log.Printf("Received quit signal from TUI")
			p.Stop()
			return
		case <-p.ctx.Done():
			return
		}
	}
}

// Execute performs a user command
func (p *Player) Execute(cmd ui.Command) error {
	switch cmd {
	case ui.CmdTogglePlay:
		return p.controller.Toggle()
	case ui.CmdNext:
		return p.Next()
	}

	next, ok := cmd.Apply(p.controller.Settings())
	if !ok {
		return fmt.Errorf("unknown command %d", int(cmd))
	}
	err := p.controller.Apply(next)

	settings := p.controller.Settings()
	warning := p.controller.Warning()
	p.sendUI(ui.StatusMsg{Settings: &settings, Warning: &warning})
	return err
}

// Next loads and plays the next track. It does nothing when no next track
// is known.
func (p *Player) Next() error {
	p.mu.Lock()
	id, ok := p.nextID, p.hasNext
	p.mu.Unlock()
	if !ok {
		return nil
	}

	if err := p.loadTrack(id); err != nil {
		return err
	}
	return p.controller.Play()
}

func (p *Player) loadInitial() error {
	if p.config.File != "" {
		return p.loadFile(p.config.File, p.config.Color)
	}

	id := p.config.Song
	if id == 0 {
		next, ok, err := p.catalog.NextTrackID(p.ctx)
		if err != nil {
			return err
		}
		if !ok || next == 0 {
			return ErrNoTrack
		}
		id = next
	}
	return p.loadTrack(id)
}

// loadTrack fetches a track record and its audio, then hands a new element
// to the controller
func (p *Player) loadTrack(id int) error {
	ctx, cancel := context.WithTimeout(p.ctx, 2*time.Minute)
	defer cancel()

	track, err := p.catalog.Track(ctx, id)
	if err != nil {
		return err
	}
	log.Printf("Loaded track %d: %s (colour %s)", track.ID, track.Title, track.Color)

	uploader := ""
	if user, err := p.catalog.User(ctx, track.UserID); err != nil {
		log.Printf("Failed to fetch uploader: %v", err)
	} else {
		uploader = user.DisplayName
	}

	audioPath, err := p.media.Download(ctx, p.catalog.AudioURL(track), media.Audio)
	if err != nil {
		return fmt.Errorf("failed to fetch audio: %w", err)
	}

	imageURL := p.catalog.ImageURL(track)
	jacket, err := p.media.Download(ctx, imageURL, media.Image)
	if err != nil {
		log.Printf("Failed to fetch jacket: %v", err)
	}

	info := stream.TrackInfo{
		ID:           track.ID,
		Title:        track.Title,
		Uploader:     uploader,
		Color:        track.Color,
		Accent:       palette.Accent(track.Color),
		Type:         track.Type,
		Symbol:       track.Symbol,
		ChemicalName: track.ChemicalName,
		Style:        track.Style,
		ImageURL:     imageURL,
		LyricsHTML:   palette.HighlightLyrics(track.Lyrics, track.Color),
		JacketPath:   jacket,
	}
	if err := p.loadElement(audioPath, info, track.Lyrics); err != nil {
		return err
	}

	p.refreshNext(ctx)
	return nil
}

// loadFile plays a local file with the given colour name
func (p *Player) loadFile(path, colorName string) error {
	info := stream.TrackInfo{
		Title:  strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Color:  colorName,
		Accent: palette.Accent(colorName),
	}
	return p.loadElement(path, info, "")
}

func (p *Player) loadElement(path string, info stream.TrackInfo, lyrics string) error {
	el, err := player.OpenElement(path, p.output, p.config.SampleRate)
	if err != nil {
		return err
	}
	p.controller.Load(el, info.Accent)

	p.mu.Lock()
	p.info = info
	hasNext := p.hasNext
	p.mu.Unlock()

	if p.publisher != nil {
		p.publisher.SetTrack(info)
	}
	p.sendUI(ui.TrackMsg{
		Title:     info.Title,
		Uploader:  info.Uploader,
		ColorName: info.Color,
		Accent:    info.Accent,
		Chemical:  strings.TrimSpace(info.Symbol + " " + info.ChemicalName),
		Lyrics:    lyrics,
		HasNext:   hasNext,
	})
	if warning := p.controller.Warning(); warning != "" {
		p.sendUI(ui.StatusMsg{Warning: &warning})
	}
	return nil
}

// refreshNext asks the catalog for the track to advance to. Id 0 means none.
func (p *Player) refreshNext(ctx context.Context) {
	id, ok, err := p.catalog.NextTrackID(ctx)
	if err != nil {
		log.Printf("Failed to fetch next track: %v", err)
	}
	hasNext := err == nil && ok && id != 0

	p.mu.Lock()
	p.nextID = id
	p.hasNext = hasNext
	p.mu.Unlock()

	p.sendUI(ui.StatusMsg{HasNext: &hasNext})
}

// Stop stops the player
func (p *Player) Stop() {
	p.stopOnce.Do(func() {
		p.cancel()

		if p.controller != nil {
			p.controller.Close()
		}
		if p.discovery != nil {
			p.discovery.Stop()
		}
		if p.publisher != nil {
			p.publisher.Stop()
		}
		if p.output != nil {
			p.output.Close()
		}
		if p.tuiProg != nil {
			p.tuiProg.Quit()
		}
		log.Printf("Player stopped")
	})
}
