// Package scanner triggers and polls asynchronous network scans.
package scanner

import (
	"devicelink-go/errcode"
	"devicelink-go/pkg/logging"
	"devicelink-go/services/radio"
	"devicelink-go/types"
)

const subsystem = "scanner"

// Listener receives one call per phase entry. Calls are synchronous from
// ScanNetworks or Tick.
type Listener interface {
	OnScanStart()
	OnScanFailed(err error)
	OnScanComplete(networks int)
}

// Funcs adapts plain functions to a Listener; nil fields are skipped.
type Funcs struct {
	Start    func()
	Failed   func(err error)
	Complete func(networks int)
}

func (f Funcs) OnScanStart() {
	if f.Start != nil {
		f.Start()
	}
}

func (f Funcs) OnScanFailed(err error) {
	if f.Failed != nil {
		f.Failed(err)
	}
}

func (f Funcs) OnScanComplete(n int) {
	if f.Complete != nil {
		f.Complete(n)
	}
}

// edge identifies one phase of one scan request.
type edge struct {
	phase types.ScanPhase
	gen   uint32
}

type Scanner struct {
	radio radio.Adapter
	lis   Listener

	phase   types.ScanPhase
	count   int
	gen     uint32
	refused error

	notified edge // last phase entry reported to the listener
}

func New(r radio.Adapter) *Scanner {
	return &Scanner{radio: r, lis: Funcs{}}
}

// SetListener installs l; nil removes the current listener.
func (s *Scanner) SetListener(l Listener) {
	if l == nil {
		l = Funcs{}
	}
	s.lis = l
}

func (s *Scanner) Result() types.ScanPhase { return s.phase }
func (s *Scanner) Scanning() bool          { return s.phase == types.ScanRunning }

// NumNetworks is the count from the last completed scan, 0 otherwise.
func (s *Scanner) NumNetworks() int { return s.count }

// ScanNetworks starts a new scan. A scan already running is abandoned and its
// result discarded; OnScanStart fires for the new one.
func (s *Scanner) ScanNetworks() {
	if s.phase == types.ScanRunning {
		logging.Info(subsystem, "restarting scan, in-flight result discarded")
	}
	s.gen++
	s.count = 0
	s.phase = types.ScanRunning
	s.refused = s.radio.StartScan()
	s.emitEdge()
}

// Tick polls a running scan and reports whether its phase changed.
func (s *Scanner) Tick() bool {
	s.emitEdge()
	if s.phase != types.ScanRunning {
		return false
	}

	var fail error
	if s.refused != nil {
		fail = errcode.Wrap(errcode.ScanFailed, "scan", s.refused)
	} else {
		switch rep := s.radio.ScanStatus(); {
		case rep.Phase == types.ScanRunning:
			return false
		case rep.Phase == types.ScanDone && rep.Count >= 0:
			s.phase = types.ScanDone
			s.count = rep.Count
			logging.Info(subsystem, "scan done, %d networks", rep.Count)
		default:
			fail = errcode.New(errcode.ScanFailed, "scan", "adapter reported failure")
		}
	}
	if fail != nil {
		s.phase = types.ScanFailed
		logging.Warn(subsystem, "%v", fail)
	}
	s.emitEdgeErr(fail)
	return true
}

func (s *Scanner) emitEdge() { s.emitEdgeErr(nil) }

func (s *Scanner) emitEdgeErr(err error) {
	cur := edge{phase: s.phase, gen: s.gen}
	if cur == s.notified {
		return
	}
	s.notified = cur
	switch s.phase {
	case types.ScanRunning:
		s.lis.OnScanStart()
	case types.ScanDone:
		s.lis.OnScanComplete(s.count)
	case types.ScanFailed:
		if err == nil {
			err = errcode.ScanFailed
		}
		s.lis.OnScanFailed(err)
	}
}
