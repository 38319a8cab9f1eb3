// Package indicator renders connectivity status as a repeating light ramp.
//
// Tick drives two independent schedules from one call: a slow status sample
// (default every 100 ms) and a fast animation frame (steps frames per
// second). Both keep their last-run timestamps on the Indicator.
package indicator

import (
	"time"

	"devicelink-go/pkg/logging"
	"devicelink-go/types"
	"devicelink-go/x/mathx"
	"devicelink-go/x/timex"
)

const subsystem = "indicator"

const (
	DefaultSteps          = 33
	DefaultSampleInterval = 100 * time.Millisecond
	DefaultBrightness     = 50
	minSteps              = 2
)

// LinkSource is the read-only view of the connector.
type LinkSource interface {
	Connected() bool
	Connecting() bool
}

// ScanSource is the read-only view of the scanner.
type ScanSource interface {
	Scanning() bool
}

type Config struct {
	Steps          uint8         // frames per ramp and per second; 0 = DefaultSteps
	SampleInterval time.Duration // 0 = DefaultSampleInterval
	Brightness     int           // percent, clamped to [0,100]
	StartDisabled  bool
}

type Indicator struct {
	sink  Sink
	link  LinkSource
	scan  ScanSource
	clock timex.Clock

	steps    uint8
	frameMs  uint32
	sampleMs uint32

	status     types.IndicatorStatus
	base       types.RGB
	step       uint8
	brightness int
	enabled    bool
	frame      types.RGB

	lastFrame  uint32
	lastSample uint32
	sampleDue  bool
	sinkFailed bool
}

// New builds an indicator; scan may be nil when no scanner is wired.
func New(sink Sink, link LinkSource, scan ScanSource, clock timex.Clock, cfg Config) *Indicator {
	steps := cfg.Steps
	if steps == 0 {
		steps = DefaultSteps
	}
	steps = mathx.Max(steps, minSteps)
	sample := cfg.SampleInterval
	if sample <= 0 {
		sample = DefaultSampleInterval
	}
	return &Indicator{
		sink:       sink,
		link:       link,
		scan:       scan,
		clock:      clock,
		steps:      steps,
		frameMs:    timex.PeriodMs(uint32(steps)),
		sampleMs:   uint32(sample / time.Millisecond),
		brightness: mathx.Clamp(cfg.Brightness, 0, 100),
		enabled:    !cfg.StartDisabled,
	}
}

// Init resets the animation and schedules, blanks the light and asks for a
// status sample on the first Tick.
func (i *Indicator) Init() {
	now := i.clock.NowMs()
	i.lastFrame, i.lastSample = now, now
	i.status = types.StatusOff
	i.base = types.Black
	i.step = 0
	i.sampleDue = true
	i.write(types.Black)
}

// Tick runs whichever of the status sample and animation frame are due.
// It does nothing while disabled.
func (i *Indicator) Tick() {
	if !i.enabled {
		return
	}
	now := i.clock.NowMs()

	if i.sampleDue || timex.Due(now, i.lastSample, i.sampleMs) {
		i.sampleDue = false
		i.lastSample = now
		i.ChangeStatus(i.sample())
	}

	if timex.Due(now, i.lastFrame, i.frameMs) {
		i.lastFrame += i.frameMs
		if timex.Due(now, i.lastFrame, i.frameMs) {
			i.lastFrame = now // fell behind; skip frames instead of bursting
		}
		i.step = (i.step + 1) % i.steps
		i.write(i.render())
	}
}

// sample picks the status by priority: scan, connected, connecting, disconnected.
func (i *Indicator) sample() types.IndicatorStatus {
	switch {
	case i.scan != nil && i.scan.Scanning():
		return types.StatusScan
	case i.link.Connected():
		return types.StatusConnected
	case i.link.Connecting():
		return types.StatusConnecting
	default:
		return types.StatusDisconnected
	}
}

// ChangeStatus switches the base colour and restarts the ramp. The same
// status again is a no-op so the ramp keeps its phase.
func (i *Indicator) ChangeStatus(s types.IndicatorStatus) {
	if s == i.status {
		return
	}
	logging.Debug(subsystem, "status %s -> %s", i.status, s)
	i.status = s
	i.base = s.Color()
	i.step = 0
}

// SetEnabled(false) turns the light off immediately. Re-enabling samples the
// status again on the next Tick.
func (i *Indicator) SetEnabled(on bool) {
	if on == i.enabled {
		return
	}
	i.enabled = on
	if !on {
		i.ChangeStatus(types.StatusOff)
		i.write(types.Black)
		return
	}
	i.sampleDue = true
	i.lastFrame = i.clock.NowMs()
}

func (i *Indicator) SetBrightness(pct int) { i.brightness = mathx.Clamp(pct, 0, 100) }

// render scales the base colour by brightness and ramp position; the last
// step of a cycle reproduces base x brightness exactly.
func (i *Indicator) render() types.RGB {
	num := uint32(i.brightness) * uint32(i.step)
	den := 100 * uint32(i.steps-1)
	return types.RGB{
		R: mathx.ScaleU8(i.base.R, num, den),
		G: mathx.ScaleU8(i.base.G, num, den),
		B: mathx.ScaleU8(i.base.B, num, den),
	}
}

func (i *Indicator) write(c types.RGB) {
	i.frame = c
	if i.sink == nil {
		return
	}
	if err := i.sink.WriteRGB(c.R, c.G, c.B); err != nil {
		if !i.sinkFailed {
			logging.Warn(subsystem, "light write failed: %v", err)
		}
		i.sinkFailed = true
		return
	}
	i.sinkFailed = false
}

// ---- Queries ----

func (i *Indicator) Status() types.IndicatorStatus { return i.status }
func (i *Indicator) Step() uint8                   { return i.step }
func (i *Indicator) Steps() uint8                  { return i.steps }
func (i *Indicator) Brightness() int               { return i.brightness }
func (i *Indicator) Enabled() bool                 { return i.enabled }
func (i *Indicator) Base() types.RGB               { return i.base }

// Frame is the last colour written to the sink.
func (i *Indicator) Frame() types.RGB { return i.frame }
