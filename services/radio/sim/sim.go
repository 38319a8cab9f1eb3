// Package sim provides a deterministic, clock-driven radio for host runs and tests.
package sim

import (
	"errors"
	"sync"

	"devicelink-go/services/radio"
	"devicelink-go/types"
	"devicelink-go/x/timex"
)

var (
	ErrJoinRejected = errors.New("sim: join rejected")
	ErrScanRejected = errors.New("sim: scan rejected")
	ErrNoAPRole     = errors.New("sim: broadcast needs ap mode")
)

// Options script the simulated environment.
type Options struct {
	JoinAfterMs uint32 // link comes up this long after a join starts; 0 = never
	RejectJoin  bool   // BeginStationJoin returns an error
	ScanAfterMs uint32 // scan completes this long after it starts
	ScanCount   int    // networks reported by a completed scan
	ScanFail    bool   // completed scans report failure
	RejectScan  bool   // StartScan returns an error
}

// Radio implements radio.Adapter against a timex.Clock.
type Radio struct {
	mu    sync.Mutex
	clock timex.Clock
	opts  Options

	mode types.Mode

	joining   bool
	joinStart uint32
	target    string
	dropped   bool

	broadcasting bool
	bcName       string

	scanning  bool
	scanStart uint32
	scan      radio.ScanReport

	calls []string
}

var _ radio.Adapter = (*Radio)(nil)

func New(clock timex.Clock, opts Options) *Radio {
	return &Radio{clock: clock, opts: opts, scan: radio.Failed()}
}

// SetOptions replaces the script; in-flight joins and scans use the new values.
func (r *Radio) SetOptions(o Options) {
	r.mu.Lock()
	r.opts = o
	r.mu.Unlock()
}

func (r *Radio) Options() Options {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opts
}

func (r *Radio) record(c string) { r.calls = append(r.calls, c) }

func (r *Radio) BeginStationJoin(target, credential string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("join:" + target)
	if r.opts.RejectJoin {
		return ErrJoinRejected
	}
	r.joining = true
	r.dropped = false
	r.joinStart = r.clock.NowMs()
	r.target = target
	return nil
}

func (r *Radio) DisconnectStation() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("disconnect")
	r.joining = false
	r.target = ""
}

func (r *Radio) SetMode(m types.Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("mode:" + m.String())
	r.mode = m
	if m != types.ModeAP && m != types.ModeAPSTA {
		r.broadcasting = false
	}
	if m != types.ModeSTA && m != types.ModeAPSTA {
		r.joining = false
	}
}

func (r *Radio) StartBroadcast(name, credential string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("broadcast:" + name)
	if r.mode != types.ModeAP && r.mode != types.ModeAPSTA {
		return ErrNoAPRole
	}
	r.broadcasting = true
	r.bcName = name
	return nil
}

func (r *Radio) StopBroadcast(persist bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("stop_broadcast")
	r.broadcasting = false
	if persist {
		r.bcName = ""
	}
}

func (r *Radio) StationStatus() types.StationStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.joining {
		return types.StationIdle
	}
	if r.dropped {
		return types.StationDisconnected
	}
	if r.opts.JoinAfterMs > 0 && timex.Due(r.clock.NowMs(), r.joinStart, r.opts.JoinAfterMs) {
		return types.StationConnected
	}
	return types.StationConnecting
}

// StartScan discards any in-flight scan and starts a new one.
func (r *Radio) StartScan() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("scan")
	if r.opts.RejectScan {
		r.scanning = false
		r.scan = radio.Failed()
		return ErrScanRejected
	}
	r.scanning = true
	r.scanStart = r.clock.NowMs()
	r.scan = radio.Running()
	return nil
}

func (r *Radio) ScanStatus() radio.ScanReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scanning && timex.Due(r.clock.NowMs(), r.scanStart, r.opts.ScanAfterMs) {
		r.scanning = false
		if r.opts.ScanFail {
			r.scan = radio.Failed()
		} else {
			r.scan = radio.Done(r.opts.ScanCount)
		}
	}
	return r.scan
}

// DropLink simulates the access point going away; the station reports
// Disconnected until the next join.
func (r *Radio) DropLink() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("drop")
	r.dropped = true
}

// ---- Inspection helpers ----

func (r *Radio) Mode() types.Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

func (r *Radio) Broadcasting() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.broadcasting
}

func (r *Radio) BroadcastName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bcName
}

func (r *Radio) Target() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target
}

// Calls returns a copy of the adapter calls made so far, oldest first.
func (r *Radio) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// ResetCalls clears the call log.
func (r *Radio) ResetCalls() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}
