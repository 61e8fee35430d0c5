// ABOUTME: Tests for the frame publisher
// ABOUTME: Drives the HTTP routes and websocket fan-out through httptest
package stream

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type fakeFrames struct {
	calls atomic.Int32
}

func (f *fakeFrames) PNG() ([]byte, error) {
	f.calls.Add(1)
	return []byte("\x89PNG-frame"), nil
}

func newTestPublisher(t *testing.T, fps int) (*Publisher, *fakeFrames, *httptest.Server) {
	t.Helper()
	frames := &fakeFrames{}
	p := New(Config{FPS: fps, Frames: frames})
	server := httptest.NewServer(p.Handler())
	t.Cleanup(func() {
		server.Close()
		p.Stop()
	})
	return p, frames, server
}

func dial(t *testing.T, p *Publisher, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for p.ViewerCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("viewer never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) (int, []byte) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return kind, data
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestIndexServesViewer(t *testing.T) {
	_, _, server := newTestPublisher(t, 15)

	resp, err := http.Get(server.URL + "/")
	if err != nil {
		t.Fatalf("GET / failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "/ws") {
		t.Errorf("unexpected index response %d", resp.StatusCode)
	}
}

func TestTrackRoute(t *testing.T) {
	p, _, server := newTestPublisher(t, 15)

	resp, err := http.Get(server.URL + "/track")
	if err != nil {
		t.Fatalf("GET /track failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 before a track, got %d", resp.StatusCode)
	}

	p.SetTrack(TrackInfo{ID: 4, Title: "Blue", Accent: "#3b6cff", LyricsHTML: "<span>青</span>"})

	resp, err = http.Get(server.URL + "/track")
	if err != nil {
		t.Fatalf("GET /track failed: %v", err)
	}
	defer resp.Body.Close()

	var got TrackInfo
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.ID != 4 || got.Accent != "#3b6cff" || got.LyricsHTML != "<span>青</span>" {
		t.Errorf("unexpected track %+v", got)
	}
}

func TestJacketRoute(t *testing.T) {
	p, _, server := newTestPublisher(t, 15)

	resp, err := http.Get(server.URL + "/jacket")
	if err != nil {
		t.Fatalf("GET /jacket failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 without a jacket, got %d", resp.StatusCode)
	}

	path := filepath.Join(t.TempDir(), "jacket.png")
	if err := os.WriteFile(path, []byte("jacket"), 0644); err != nil {
		t.Fatalf("failed to write jacket: %v", err)
	}
	p.SetTrack(TrackInfo{ID: 1, JacketPath: path})

	resp, err = http.Get(server.URL + "/jacket")
	if err != nil {
		t.Fatalf("GET /jacket failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "jacket" {
		t.Errorf("unexpected jacket body %q", body)
	}
}

func TestFrameRoute(t *testing.T) {
	p, frames, server := newTestPublisher(t, 15)

	resp, err := http.Get(server.URL + "/frame.png")
	if err != nil {
		t.Fatalf("GET /frame.png failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before a frame, got %d", resp.StatusCode)
	}

	p.PublishFrame()
	waitFor(t, func() bool { return p.LatestFrame() != nil })

	resp, err = http.Get(server.URL + "/frame.png")
	if err != nil {
		t.Fatalf("GET /frame.png failed: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %s", ct)
	}
	if frames.calls.Load() != 1 {
		t.Errorf("expected 1 encode, got %d", frames.calls.Load())
	}
}

func TestViewerReceivesTrackBeatAndFrames(t *testing.T) {
	p, _, server := newTestPublisher(t, 15)
	p.SetTrack(TrackInfo{ID: 1, Title: "Red"})

	conn := dial(t, p, server)

	kind, data := readMessage(t, conn)
	if kind != websocket.TextMessage {
		t.Fatalf("expected text message, got %d", kind)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "track" || msg.Track.Title != "Red" {
		t.Errorf("unexpected first message %s", string(data))
	}

	p.PublishBeat(true)
	_, data = readMessage(t, conn)
	if string(data) != `{"type":"beat","on":true}` {
		t.Errorf("unexpected beat message %s", string(data))
	}

	p.PublishBeat(false)
	_, data = readMessage(t, conn)
	if string(data) != `{"type":"beat","on":false}` {
		t.Errorf("unexpected beat message %s", string(data))
	}

	p.PublishFrame()
	kind, data = readMessage(t, conn)
	if kind != websocket.BinaryMessage || string(data) != "\x89PNG-frame" {
		t.Errorf("expected binary frame, got kind %d %q", kind, data)
	}
}

func TestPublishFrameThrottled(t *testing.T) {
	p, frames, _ := newTestPublisher(t, 1)

	p.PublishFrame()
	p.PublishFrame()
	p.PublishFrame()
	waitFor(t, func() bool { return p.LatestFrame() != nil })
	time.Sleep(20 * time.Millisecond)

	if got := frames.calls.Load(); got != 1 {
		t.Errorf("expected 1 encode within the frame interval, got %d", got)
	}
}

func TestViewerDisconnectRemoves(t *testing.T) {
	p, _, server := newTestPublisher(t, 15)
	conn := dial(t, p, server)

	conn.Close()
	waitFor(t, func() bool { return p.ViewerCount() == 0 })
}

func TestViewerRejectedAfterStop(t *testing.T) {
	p, _, server := newTestPublisher(t, 15)
	p.Stop()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		conn.Close()
		t.Fatal("expected handshake to fail after Stop")
	}
	if resp == nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %v", resp)
	}
	if p.ViewerCount() != 0 {
		t.Errorf("expected no viewers, got %d", p.ViewerCount())
	}
}

func TestViewersDialingDuringStop(t *testing.T) {
	p, _, server := newTestPublisher(t, 15)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		conns []*websocket.Conn
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				conn, _, err := websocket.DefaultDialer.Dial(url, nil)
				if err != nil {
					continue
				}
				mu.Lock()
				conns = append(conns, conn)
				mu.Unlock()
			}
		}()
	}

	time.Sleep(5 * time.Millisecond)
	p.Stop()
	wg.Wait()
	t.Cleanup(func() {
		for _, c := range conns {
			c.Close()
		}
	})

	// Every viewer registered before Stop was closed by it; none may
	// register afterwards
	waitFor(t, func() bool { return p.ViewerCount() == 0 })
}

func TestStartAndStop(t *testing.T) {
	p := New(Config{Addr: "127.0.0.1:0"})
	if err := p.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if p.Addr() == nil {
		t.Fatal("expected a listening address")
	}

	resp, err := http.Get("http://" + p.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()

	p.Stop()
	p.Stop()

	if _, err := http.Get("http://" + p.Addr().String() + "/"); err == nil {
		t.Error("expected connection failure after Stop")
	}
}
