// ABOUTME: Tests for the renderer, sampler, canvas and frame loop
// ABOUTME: Records draw calls to check layout, colours and cancellation
package visual

import (
	"image/color"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/Lyricium/lyricium-go/internal/palette"
)

type rect struct {
	x, y, w, h float64
	c          color.Color
}

type recordingCanvas struct {
	mu      sync.Mutex
	w, h    int
	clears  int
	rects   []rect
	strokes [][]Point
	widths  []float64
	colors  []color.Color
}

func (r *recordingCanvas) Size() (int, int) { return r.w, r.h }

func (r *recordingCanvas) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
	r.rects = nil
	r.strokes = nil
}

func (r *recordingCanvas) FillRect(x, y, w, h float64, c color.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rects = append(r.rects, rect{x, y, w, h, c})
}

func (r *recordingCanvas) StrokePolyline(pts []Point, width float64, c color.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strokes = append(r.strokes, append([]Point(nil), pts...))
	r.widths = append(r.widths, width)
	r.colors = append(r.colors, c)
}

func (r *recordingCanvas) Clears() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clears
}

type fakeAnalyser struct {
	freq, time byte
	calls      int
}

func (f *fakeAnalyser) FrequencyBinCount() int { return 128 }

func (f *fakeAnalyser) GetByteFrequencyData(dst []byte) {
	f.calls++
	for i := range dst {
		dst[i] = f.freq
	}
}

func (f *fakeAnalyser) GetByteTimeDomainData(dst []byte) {
	for i := range dst {
		dst[i] = f.time
	}
}

func TestSamplerReusesBuffers(t *testing.T) {
	src := &fakeAnalyser{freq: 7, time: 128}
	s := NewSampler(src)

	f1, t1 := s.Sample()
	src.freq = 9
	f2, t2 := s.Sample()

	if &f1[0] != &f2[0] || &t1[0] != &t2[0] {
		t.Error("expected the same buffers on every call")
	}
	if len(f2) != 128 || len(t2) != 128 || s.Len() != 128 {
		t.Errorf("expected 128-byte snapshots, got %d and %d", len(f2), len(t2))
	}
	if f2[0] != 9 || t2[0] != 128 {
		t.Errorf("unexpected snapshot values %d %d", f2[0], t2[0])
	}

	allocs := testing.AllocsPerRun(100, func() { s.Sample() })
	if allocs != 0 {
		t.Errorf("expected no allocations per sample, got %f", allocs)
	}
}

func TestBarMirroring(t *testing.T) {
	for _, n := range []int{8, 128} {
		width := 640.0
		center := width / 2
		barWidth := width / float64(n) * BarWidthFactor

		left := BarX(n/2-1, n, width) + barWidth/2
		right := BarX(n/2, n, width) + barWidth/2
		if math.Abs((center-left)-(right-center)) > 1e-9 {
			t.Errorf("n=%d: bars %d and %d not mirrored: %f and %f", n, n/2-1, n/2, left, right)
		}
		if math.Abs(BarX(n/2, n, width)-center) > 1e-9 {
			t.Errorf("n=%d: right half should start at the centre", n)
		}

		for k := 0; k < n/2; k++ {
			l := BarX(n/2-1-k, n, width) + barWidth/2
			r := BarX(n/2+k, n, width) + barWidth/2
			if math.Abs((center-l)-(r-center)) > 1e-9 {
				t.Errorf("n=%d: pair %d not mirrored", n, k)
			}
		}
	}
}

func TestBarColor(t *testing.T) {
	accent := color.RGBA{0xff, 0x3b, 0x3b, 0xff}
	tests := []struct {
		height float64
		alpha  uint8
	}{
		{0, 127},
		{64, 191},
		{127.5, 254},
	}
	for _, tt := range tests {
		c := BarColor(accent, tt.height)
		if c.A != tt.alpha || c.R != 0xff || c.G != 0x3b || c.B != 0x3b {
			t.Errorf("height %.1f: got %v, want alpha %d", tt.height, c, tt.alpha)
		}
		want := palette.WithAlpha("#ff3b3b", BarAlpha(tt.height))
		parsed, _ := palette.ParseHex(want)
		if parsed.A != c.A {
			t.Errorf("height %.1f: alpha %d disagrees with %s", tt.height, c.A, want)
		}
	}
}

func TestWaveY(t *testing.T) {
	if got := WaveY(0, 160); got != 80 {
		t.Errorf("expected 80 for byte 0, got %f", got)
	}
	if got := WaveY(128, 160); got != 120 {
		t.Errorf("expected 120 for silence, got %f", got)
	}
}

func TestRenderDrawsBarsAndWaveform(t *testing.T) {
	c := &recordingCanvas{w: 640, h: 160}
	r := NewRenderer("#ff3b3b")

	freq := make([]byte, 128)
	freq[0] = 200
	timeData := make([]byte, 128)
	for i := range timeData {
		timeData[i] = 128
	}

	if !r.Render(c, freq, timeData) {
		t.Fatal("expected a frame to be drawn")
	}
	if c.clears != 1 {
		t.Errorf("expected one clear, got %d", c.clears)
	}
	if len(c.rects) != 128 {
		t.Fatalf("expected 128 bars, got %d", len(c.rects))
	}

	bar := c.rects[0]
	if bar.h != 100 || bar.y != 60 || bar.w != 12.5 {
		t.Errorf("unexpected first bar %+v", bar)
	}
	if bar.x != BarX(0, 128, 640) {
		t.Errorf("expected first bar at %f, got %f", BarX(0, 128, 640), bar.x)
	}

	if len(c.strokes) != 1 || len(c.strokes[0]) != 128 {
		t.Fatalf("expected one 128-point stroke, got %d", len(c.strokes))
	}
	if c.widths[0] != WaveformWidth {
		t.Errorf("expected line width %f, got %f", WaveformWidth, c.widths[0])
	}
	pts := c.strokes[0]
	if pts[0] != (Point{0, 120}) || pts[1].X != 5 {
		t.Errorf("unexpected waveform start %v %v", pts[0], pts[1])
	}
	if c.colors[0] != (color.RGBA{0xff, 0x3b, 0x3b, 0xff}) {
		t.Errorf("expected accent stroke, got %v", c.colors[0])
	}
}

func TestRenderSkipsMissingInput(t *testing.T) {
	r := NewRenderer("#ffffff")
	c := &recordingCanvas{w: 100, h: 100}

	if r.Render(nil, []byte{1}, []byte{1}) {
		t.Error("nil canvas must be a no-op")
	}
	if r.Render(c, nil, []byte{1}) || r.Render(c, []byte{1}, nil) {
		t.Error("empty snapshots must be a no-op")
	}
	if r.Render(&recordingCanvas{}, []byte{1}, []byte{1}) {
		t.Error("zero-sized canvas must be a no-op")
	}
	if c.clears != 0 {
		t.Errorf("expected no drawing, got %d clears", c.clears)
	}
}

func TestRendererInvalidAccentFallsBack(t *testing.T) {
	r := NewRenderer("not-a-colour")
	if r.Accent() != (color.RGBA{0xff, 0xff, 0xff, 0xff}) {
		t.Errorf("expected white fallback, got %v", r.Accent())
	}
}

func TestImageCanvasDraws(t *testing.T) {
	c := NewImageCanvas(40, 20, color.Black)

	c.FillRect(10, 5, 10, 10, color.NRGBA{255, 0, 0, 255})
	if got := color.RGBAModel.Convert(c.At(15, 10)).(color.RGBA); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("expected red inside the rect, got %v", got)
	}
	if got := color.RGBAModel.Convert(c.At(5, 10)).(color.RGBA); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("expected background outside the rect, got %v", got)
	}

	c.StrokePolyline([]Point{{0, 2}, {39, 2}}, 2, color.White)
	if got := color.RGBAModel.Convert(c.At(20, 2)).(color.RGBA); got.G == 0 {
		t.Errorf("expected stroke to cover (20,2), got %v", got)
	}

	c.Clear()
	if got := color.RGBAModel.Convert(c.At(15, 10)).(color.RGBA); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("expected Clear to restore background, got %v", got)
	}

	data, err := c.PNG()
	if err != nil || len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Errorf("expected PNG data, got %d bytes (%v)", len(data), err)
	}
}

type manualTicker struct {
	ch      chan time.Time
	stopped chan struct{}
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               { close(m.stopped) }

func TestLoopTicksUntilStopped(t *testing.T) {
	ticker := newManualTicker()
	ticks := make(chan struct{}, 10)
	l := StartLoop(ticker, func(time.Time) { ticks <- struct{}{} })

	for range 3 {
		ticker.ch <- time.Now()
		<-ticks
	}

	l.Stop()
	l.Stop()
	l.Wait()

	select {
	case <-ticker.stopped:
	default:
		t.Error("expected ticker stopped when the loop exits")
	}
	if !l.Stopped() {
		t.Error("expected Stopped to report true")
	}
	if l.Ticks() != 3 {
		t.Errorf("expected 3 ticks, got %d", l.Ticks())
	}

	select {
	case ticker.ch <- time.Now():
		t.Error("loop accepted a tick after Stop")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestLoopNoDrawAfterStop(t *testing.T) {
	c := &recordingCanvas{w: 64, h: 32}
	r := NewRenderer("#3b6cff")
	freq, timeData := make([]byte, 16), make([]byte, 16)

	ticker := newManualTicker()
	drawn := make(chan struct{}, 10)
	l := StartLoop(ticker, func(time.Time) {
		r.Render(c, freq, timeData)
		drawn <- struct{}{}
	})

	ticker.ch <- time.Now()
	<-drawn
	l.Stop()
	l.Wait()

	before := c.Clears()
	time.Sleep(20 * time.Millisecond)
	if c.Clears() != before {
		t.Error("draw calls observed after stop")
	}
}

func TestFrameInterval(t *testing.T) {
	if FrameInterval(50) != 20*time.Millisecond {
		t.Errorf("unexpected interval %v", FrameInterval(50))
	}
	if FrameInterval(0) != FrameInterval(60) {
		t.Error("expected non-positive fps to default to 60")
	}
}
