// ABOUTME: HTTP and WebSocket publisher for visualizer frames
// ABOUTME: Serves a viewer page and fans PNG frames and beat events out to viewers
package stream

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

//go:embed viewer.html
var viewerPage []byte

const (
	writeDeadline = 10 * time.Second
	pingInterval  = 30 * time.Second
	sendBuffer    = 16
)

// FrameSource produces the current frame as PNG
type FrameSource interface {
	PNG() ([]byte, error)
}

// Config holds publisher configuration
type Config struct {
	Addr   string
	Name   string
	FPS    int
	Frames FrameSource
}

// Viewer is a connected websocket client
type Viewer struct {
	ID       string
	conn     *websocket.Conn
	sendChan chan any
}

// Publisher serves frames, beats and track info to browser viewers
type Publisher struct {
	config   Config
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	httpServer *http.Server
	listener   net.Listener

	viewers   map[string]*Viewer
	viewersMu sync.RWMutex

	frameMu  sync.RWMutex
	frame    []byte
	track    *TrackInfo
	interval time.Duration
	lastSent atomic.Int64
	pending  chan struct{}

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a publisher. Start must be called to listen; Handler can be
// used directly without it.
func New(config Config) *Publisher {
	if config.FPS <= 0 {
		config.FPS = 15
	}

	p := &Publisher{
		config: config,
		mux:    http.NewServeMux(),
		upgrader: websocket.Upgrader{
			// Viewers are expected on the local network
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		viewers:  make(map[string]*Viewer),
		interval: time.Second / time.Duration(config.FPS),
		pending:  make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}

	p.mux.HandleFunc("GET /{$}", p.handleIndex)
	p.mux.HandleFunc("GET /track", p.handleTrack)
	p.mux.HandleFunc("GET /frame.png", p.handleFrame)
	p.mux.HandleFunc("GET /jacket", p.handleJacket)
	p.mux.HandleFunc("GET /ws", p.handleWebSocket)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.encodeLoop()
	}()

	return p
}

// Handler returns the HTTP handler
func (p *Publisher) Handler() http.Handler {
	return p.mux
}

// Start listens on the configured address and serves until Stop
func (p *Publisher) Start() error {
	ln, err := net.Listen("tcp", p.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", p.config.Addr, err)
	}
	p.listener = ln
	p.httpServer = &http.Server{Handler: p.mux}

	log.Printf("Frame publisher listening on %s", ln.Addr())

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Frame publisher error: %v", err)
		}
	}()
	return nil
}

// Addr returns the listening address, or nil before Start
func (p *Publisher) Addr() net.Addr {
	if p.listener == nil {
		return nil
	}
	return p.listener.Addr()
}

// Stop closes all viewers and shuts the server down
func (p *Publisher) Stop() {
	p.stopOnce.Do(func() {
		// Viewers register under viewersMu after checking stopChan
		p.viewersMu.Lock()
		close(p.stopChan)
		p.viewersMu.Unlock()

		if p.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := p.httpServer.Shutdown(ctx); err != nil {
				log.Printf("Frame publisher shutdown error: %v", err)
			}
		}

		p.viewersMu.RLock()
		for _, v := range p.viewers {
			v.conn.Close()
		}
		p.viewersMu.RUnlock()

		p.wg.Wait()
		log.Printf("Frame publisher stopped")
	})
}

// PublishFrame requests that the current frame be encoded and sent. Calls
// faster than the configured rate are dropped; it never blocks.
func (p *Publisher) PublishFrame() {
	now := time.Now().UnixNano()
	last := p.lastSent.Load()
	if now-last < int64(p.interval) || !p.lastSent.CompareAndSwap(last, now) {
		return
	}
	select {
	case p.pending <- struct{}{}:
	default:
	}
}

// PublishBeat sends a beat toggle to all viewers
func (p *Publisher) PublishBeat(on bool) {
	p.broadcast(BeatMessage(on))
}

// SetTrack records the playing track and announces it
func (p *Publisher) SetTrack(info TrackInfo) {
	p.frameMu.Lock()
	p.track = &info
	p.frameMu.Unlock()
	p.broadcast(TrackMessage(info))
}

// ViewerCount returns the number of connected viewers
func (p *Publisher) ViewerCount() int {
	p.viewersMu.RLock()
	defer p.viewersMu.RUnlock()
	return len(p.viewers)
}

// LatestFrame returns the last encoded frame
func (p *Publisher) LatestFrame() []byte {
	p.frameMu.RLock()
	defer p.frameMu.RUnlock()
	return p.frame
}

func (p *Publisher) encodeLoop() {
	for {
		select {
		case <-p.stopChan:
			return
		case <-p.pending:
		}

		if p.config.Frames == nil {
			continue
		}
		data, err := p.config.Frames.PNG()
		if err != nil {
			log.Printf("Frame encode error: %v", err)
			continue
		}

		p.frameMu.Lock()
		p.frame = data
		p.frameMu.Unlock()

		p.broadcast(data)
	}
}

// broadcast queues msg for every viewer; slow viewers drop messages
func (p *Publisher) broadcast(msg any) {
	p.viewersMu.RLock()
	defer p.viewersMu.RUnlock()

	for _, v := range p.viewers {
		select {
		case v.sendChan <- msg:
		default:
		}
	}
}

func (p *Publisher) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(viewerPage)
}

func (p *Publisher) handleTrack(w http.ResponseWriter, r *http.Request) {
	p.frameMu.RLock()
	track := p.track
	p.frameMu.RUnlock()

	if track == nil {
		http.Error(w, "no track loaded", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(track)
}

func (p *Publisher) handleFrame(w http.ResponseWriter, r *http.Request) {
	frame := p.LatestFrame()
	if frame == nil {
		http.Error(w, "no frame rendered yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(frame)
}

func (p *Publisher) handleJacket(w http.ResponseWriter, r *http.Request) {
	p.frameMu.RLock()
	var path string
	if p.track != nil {
		path = p.track.JacketPath
	}
	p.frameMu.RUnlock()

	if path == "" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

func (p *Publisher) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	select {
	case <-p.stopChan:
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	viewer := &Viewer{
		ID:       uuid.New().String(),
		conn:     conn,
		sendChan: make(chan any, sendBuffer),
	}

	p.frameMu.RLock()
	if p.track != nil {
		viewer.sendChan <- TrackMessage(*p.track)
	}
	if p.frame != nil {
		viewer.sendChan <- p.frame
	}
	p.frameMu.RUnlock()

	p.viewersMu.Lock()
	select {
	case <-p.stopChan:
		p.viewersMu.Unlock()
		conn.Close()
		return
	default:
	}
	p.viewers[viewer.ID] = viewer
	p.wg.Add(1)
	p.viewersMu.Unlock()
	log.Printf("Viewer connected: %s from %s", viewer.ID, r.RemoteAddr)

	done := make(chan struct{})
	go func() {
		defer p.wg.Done()
		p.viewerWriter(viewer, done)
	}()

	// Viewers send nothing meaningful; reading detects disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Viewer %s error: %v", viewer.ID, err)
			}
			break
		}
	}

	p.viewersMu.Lock()
	delete(p.viewers, viewer.ID)
	p.viewersMu.Unlock()
	close(done)
	conn.Close()
	log.Printf("Viewer disconnected: %s", viewer.ID)
}

// viewerWriter sends queued messages to the viewer
func (p *Publisher) viewerWriter(v *Viewer, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case msg := <-v.sendChan:
			if err := p.write(v, msg); err != nil {
				log.Printf("Error writing to viewer %s: %v", v.ID, err)
				v.conn.Close()
				return
			}
		case <-ticker.C:
			if err := v.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

func (p *Publisher) write(v *Viewer, msg any) error {
	v.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	if data, ok := msg.([]byte); ok {
		return v.conn.WriteMessage(websocket.BinaryMessage, data)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return v.conn.WriteMessage(websocket.TextMessage, data)
}
