package scanner

import (
	"errors"
	"testing"

	"devicelink-go/errcode"
	"devicelink-go/services/radio"
	"devicelink-go/services/radio/sim"
	"devicelink-go/types"
	"devicelink-go/x/timex"
)

type counts struct {
	start, failed, complete int
	last                    int
	err                     error
}

func listen(s *Scanner) *counts {
	c := &counts{}
	s.SetListener(Funcs{
		Start:    func() { c.start++ },
		Failed:   func(err error) { c.failed++; c.err = err },
		Complete: func(n int) { c.complete++; c.last = n },
	})
	return c
}

func TestScan_RunningThenDone(t *testing.T) {
	clk := timex.NewManual(0)
	r := sim.New(clk, sim.Options{ScanAfterMs: 2500, ScanCount: 7})
	s := New(r)
	c := listen(s)

	if s.Result() != types.ScanIdle {
		t.Fatalf("initial phase = %s, want idle", s.Result())
	}
	s.ScanNetworks()
	if !s.Scanning() || c.start != 1 {
		t.Fatalf("after ScanNetworks: scanning=%v start=%d", s.Scanning(), c.start)
	}

	seen := []types.ScanPhase{s.Result()}
	for i := 0; i < 50; i++ {
		clk.Advance(100)
		s.Tick()
		if p := s.Result(); p != seen[len(seen)-1] {
			seen = append(seen, p)
		}
	}
	if len(seen) != 2 || seen[0] != types.ScanRunning || seen[1] != types.ScanDone {
		t.Fatalf("phase sequence = %v, want [running done]", seen)
	}
	if c.start != 1 || c.complete != 1 || c.failed != 0 || c.last != 7 {
		t.Fatalf("callbacks = %+v", c)
	}
	if s.NumNetworks() != 7 {
		t.Fatalf("NumNetworks = %d, want 7", s.NumNetworks())
	}
}

func TestScan_FailureFiresOnce(t *testing.T) {
	clk := timex.NewManual(0)
	s := New(sim.New(clk, sim.Options{ScanAfterMs: 100, ScanFail: true}))
	c := listen(s)

	s.ScanNetworks()
	for i := 0; i < 10; i++ {
		clk.Advance(50)
		s.Tick()
	}
	if s.Result() != types.ScanFailed {
		t.Fatalf("phase = %s, want failed", s.Result())
	}
	if c.start != 1 || c.failed != 1 || c.complete != 0 {
		t.Fatalf("callbacks = %+v", c)
	}
	if !errors.Is(c.err, errcode.ScanFailed) {
		t.Fatalf("err = %v, want scan_failed", c.err)
	}
}

func TestScan_RestartWhileRunning(t *testing.T) {
	clk := timex.NewManual(0)
	r := sim.New(clk, sim.Options{ScanAfterMs: 1000, ScanCount: 3})
	s := New(r)
	c := listen(s)

	s.ScanNetworks()
	clk.Advance(900)
	s.Tick()
	s.ScanNetworks()
	if c.start != 2 {
		t.Fatalf("restart should announce a new scan, start=%d", c.start)
	}
	clk.Advance(900)
	if s.Tick() {
		t.Fatal("restarted scan must not finish on the old schedule")
	}
	clk.Advance(100)
	if !s.Tick() || s.Result() != types.ScanDone {
		t.Fatalf("phase = %s, want done", s.Result())
	}
	if c.complete != 1 {
		t.Fatalf("complete = %d, want 1", c.complete)
	}
}

func TestScan_NewRequestDiscardsCount(t *testing.T) {
	clk := timex.NewManual(0)
	r := sim.New(clk, sim.Options{ScanAfterMs: 10, ScanCount: 5})
	s := New(r)

	s.ScanNetworks()
	clk.Advance(10)
	s.Tick()
	if s.NumNetworks() != 5 {
		t.Fatalf("NumNetworks = %d, want 5", s.NumNetworks())
	}
	s.ScanNetworks()
	if s.NumNetworks() != 0 || s.Result() != types.ScanRunning {
		t.Fatal("new scan must reset the count and phase")
	}
}

func TestScan_RefusedStartFailsOnNextPoll(t *testing.T) {
	clk := timex.NewManual(0)
	s := New(sim.New(clk, sim.Options{RejectScan: true}))
	c := listen(s)

	s.ScanNetworks()
	if s.Result() != types.ScanRunning || c.start != 1 {
		t.Fatal("refused scan still enters running first")
	}
	if !s.Tick() || s.Result() != types.ScanFailed || c.failed != 1 {
		t.Fatalf("phase = %s failed=%d, want failed/1", s.Result(), c.failed)
	}
	if s.Tick() || c.failed != 1 {
		t.Fatal("failure must not refire")
	}
}

// negative counts from an adapter are malformed and count as failure
type badCount struct{ sim.Radio }

func (*badCount) StartScan() error             { return nil }
func (*badCount) ScanStatus() radio.ScanReport { return radio.Done(-3) }

func TestScan_NegativeCountIsFailure(t *testing.T) {
	s := New(&badCount{})
	c := listen(s)
	s.ScanNetworks()
	s.Tick()
	if s.Result() != types.ScanFailed || c.failed != 1 || c.complete != 0 {
		t.Fatalf("phase = %s callbacks = %+v", s.Result(), c)
	}
}
