package indicator

import (
	"errors"
	"image/color"
	"testing"
	"time"

	"devicelink-go/types"
	"devicelink-go/x/timex"
)

type fakeLink struct{ connected, connecting bool }

func (f *fakeLink) Connected() bool  { return f.connected }
func (f *fakeLink) Connecting() bool { return f.connecting }

type fakeScan struct{ scanning bool }

func (f *fakeScan) Scanning() bool { return f.scanning }

type recSink struct {
	frames []types.RGB
	err    error
}

func (s *recSink) WriteRGB(r, g, b uint8) error {
	s.frames = append(s.frames, types.RGB{R: r, G: g, B: b})
	return s.err
}

func (s *recSink) last() types.RGB { return s.frames[len(s.frames)-1] }

type harness struct {
	ind  *Indicator
	clk  *timex.Manual
	link *fakeLink
	scan *fakeScan
	sink *recSink
}

func newHarness(brightness int) *harness {
	h := &harness{clk: timex.NewManual(0), link: &fakeLink{}, scan: &fakeScan{}, sink: &recSink{}}
	h.ind = New(h.sink, h.link, h.scan, h.clk, Config{Brightness: brightness})
	h.ind.Init()
	return h
}

// run ticks every 10ms for d ms.
func (h *harness) run(d uint32) {
	for t := uint32(0); t < d; t += 10 {
		h.clk.Advance(10)
		h.ind.Tick()
	}
}

func TestInit_BlanksAndSamplesOnFirstTick(t *testing.T) {
	h := newHarness(50)
	if len(h.sink.frames) != 1 || h.sink.last() != types.Black {
		t.Fatalf("Init should write one black frame, got %v", h.sink.frames)
	}
	h.link.connected = true
	h.ind.Tick()
	if h.ind.Status() != types.StatusConnected {
		t.Fatalf("status = %s, want connected on first tick", h.ind.Status())
	}
}

func TestSample_Priority(t *testing.T) {
	h := newHarness(50)
	cases := []struct {
		scan, conn, connecting bool
		want                   types.IndicatorStatus
	}{
		{true, true, true, types.StatusScan},
		{false, true, true, types.StatusConnected},
		{false, false, true, types.StatusConnecting},
		{false, false, false, types.StatusDisconnected},
	}
	for _, c := range cases {
		h.scan.scanning, h.link.connected, h.link.connecting = c.scan, c.conn, c.connecting
		h.run(100)
		if got := h.ind.Status(); got != c.want {
			t.Fatalf("scan=%v conn=%v connecting=%v: status = %s, want %s", c.scan, c.conn, c.connecting, got, c.want)
		}
	}
}

func TestSample_WaitsForInterval(t *testing.T) {
	h := newHarness(50)
	h.ind.Tick() // first sample: disconnected
	h.link.connecting = true
	h.run(90)
	if h.ind.Status() != types.StatusDisconnected {
		t.Fatal("status must not change before the sample interval")
	}
	h.run(10)
	if h.ind.Status() != types.StatusConnecting {
		t.Fatalf("status = %s, want connecting after 100ms", h.ind.Status())
	}
}

func TestChangeStatus_SameStatusKeepsStep(t *testing.T) {
	h := newHarness(50)
	h.link.connected = true
	h.run(160) // five frames at 30ms
	before := h.ind.Step()
	if before == 0 {
		t.Fatal("test setup: ramp should have advanced")
	}
	h.ind.ChangeStatus(types.StatusConnected)
	h.ind.ChangeStatus(types.StatusConnected)
	if h.ind.Step() != before {
		t.Fatalf("step = %d, want unchanged %d", h.ind.Step(), before)
	}
	h.ind.ChangeStatus(types.StatusScan)
	if h.ind.Step() != 0 || h.ind.Base() != (types.RGB{B: 255}) {
		t.Fatalf("new status should reset step and colour, step=%d base=%+v", h.ind.Step(), h.ind.Base())
	}
}

func TestRamp_WrapsModuloSteps(t *testing.T) {
	h := newHarness(100)
	h.link.connected = true
	steps := int(h.ind.Steps())
	maxStep := 0
	for i := 0; i < 3*steps*3; i++ {
		h.clk.Advance(10)
		h.ind.Tick()
		if s := int(h.ind.Step()); s > maxStep {
			maxStep = s
		}
		if int(h.ind.Step()) >= steps {
			t.Fatalf("step %d out of range [0,%d)", h.ind.Step(), steps)
		}
	}
	if maxStep != steps-1 {
		t.Fatalf("max step = %d, want %d", maxStep, steps-1)
	}
}

func TestBrightness_FullReproducesBaseAtPeak(t *testing.T) {
	h := newHarness(100)
	h.link.connecting = true
	var peak types.RGB
	for i := 0; i < 200; i++ {
		h.clk.Advance(10)
		h.ind.Tick()
		if h.ind.Step() == h.ind.Steps()-1 {
			peak = h.ind.Frame()
			break
		}
	}
	if want := types.StatusConnecting.Color(); peak != want {
		t.Fatalf("peak frame = %+v, want base %+v", peak, want)
	}
}

func TestBrightness_ZeroBlanksEveryFrame(t *testing.T) {
	h := newHarness(80)
	h.scan.scanning = true
	h.ind.SetBrightness(0)
	h.run(2000)
	for _, f := range h.sink.frames {
		if f != types.Black {
			t.Fatalf("frame %+v written at brightness 0", f)
		}
	}
}

func TestBrightness_Clamped(t *testing.T) {
	h := newHarness(50)
	h.ind.SetBrightness(250)
	if h.ind.Brightness() != 100 {
		t.Fatalf("brightness = %d, want 100", h.ind.Brightness())
	}
	h.ind.SetBrightness(-4)
	if h.ind.Brightness() != 0 {
		t.Fatalf("brightness = %d, want 0", h.ind.Brightness())
	}
}

func TestRender_HalfBrightnessMidRamp(t *testing.T) {
	h := newHarness(50)
	h.ind.ChangeStatus(types.StatusDisconnected)
	h.ind.step = 16
	// 255 * 50/100 * 16/32 = 63.75
	if got := h.ind.render(); got != (types.RGB{R: 64}) {
		t.Fatalf("render = %+v, want {64 0 0}", got)
	}
}

func TestSetEnabled_OffThenOn(t *testing.T) {
	h := newHarness(100)
	h.link.connected = true
	h.run(300)

	h.ind.SetEnabled(false)
	if h.ind.Status() != types.StatusOff || h.sink.last() != types.Black {
		t.Fatalf("disable should force off + black, status=%s frame=%+v", h.ind.Status(), h.sink.last())
	}
	n := len(h.sink.frames)
	h.run(500)
	if len(h.sink.frames) != n {
		t.Fatal("disabled indicator must not write frames")
	}

	h.ind.SetEnabled(true)
	h.clk.Advance(1)
	h.ind.Tick()
	if h.ind.Status() != types.StatusConnected {
		t.Fatalf("re-enable should sample on next tick, status = %s", h.ind.Status())
	}
}

func TestStartDisabled(t *testing.T) {
	clk := timex.NewManual(0)
	sink := &recSink{}
	ind := New(sink, &fakeLink{connected: true}, nil, clk, Config{StartDisabled: true, Steps: 10, SampleInterval: 50 * time.Millisecond})
	ind.Init()
	clk.Advance(1000)
	ind.Tick()
	if ind.Enabled() || ind.Status() != types.StatusOff || len(sink.frames) != 1 {
		t.Fatalf("enabled=%v status=%s frames=%d", ind.Enabled(), ind.Status(), len(sink.frames))
	}
}

func TestSinkError_KeepsAnimating(t *testing.T) {
	h := newHarness(100)
	h.sink.err = errors.New("bus nack")
	h.link.connected = true
	h.run(300)
	if h.ind.Step() == 0 && len(h.sink.frames) < 5 {
		t.Fatal("sink failures must not stall the ramp")
	}
}

// ---- DisplaySink ----

type fakeDisplay struct {
	x, y    int16
	c       color.RGBA
	flushes int
}

func (d *fakeDisplay) Size() (int16, int16)              { return 1, 1 }
func (d *fakeDisplay) SetPixel(x, y int16, c color.RGBA) { d.x, d.y, d.c = x, y, c }
func (d *fakeDisplay) Display() error                    { d.flushes++; return nil }

func TestDisplaySink_WritesPixelAndFlushes(t *testing.T) {
	d := &fakeDisplay{}
	s := NewDisplaySink(d, 0, 0)
	if err := s.WriteRGB(1, 2, 3); err != nil {
		t.Fatalf("WriteRGB: %v", err)
	}
	if d.c != (color.RGBA{R: 1, G: 2, B: 3, A: 255}) || d.flushes != 1 {
		t.Fatalf("pixel=%+v flushes=%d", d.c, d.flushes)
	}
}
