package sim

import (
	"testing"

	"devicelink-go/types"
	"devicelink-go/x/timex"
)

func TestJoin_ConnectsAfterDelay(t *testing.T) {
	clk := timex.NewManual(0)
	r := New(clk, Options{JoinAfterMs: 300})
	r.SetMode(types.ModeAPSTA)
	if err := r.BeginStationJoin("MyNet", "pw"); err != nil {
		t.Fatalf("BeginStationJoin: %v", err)
	}
	clk.Advance(299)
	if s := r.StationStatus(); s != types.StationConnecting {
		t.Fatalf("status = %s, want connecting", s)
	}
	clk.Advance(1)
	if s := r.StationStatus(); s != types.StationConnected {
		t.Fatalf("status = %s, want connected", s)
	}
}

func TestJoin_NeverWhenZeroDelay(t *testing.T) {
	clk := timex.NewManual(0)
	r := New(clk, Options{})
	r.SetMode(types.ModeSTA)
	_ = r.BeginStationJoin("x", "")
	clk.Advance(1 << 30)
	if s := r.StationStatus(); s != types.StationConnecting {
		t.Fatalf("status = %s, want connecting forever", s)
	}
}

func TestSetMode_APOnlyDropsJoin(t *testing.T) {
	clk := timex.NewManual(0)
	r := New(clk, Options{JoinAfterMs: 1})
	r.SetMode(types.ModeAPSTA)
	_ = r.BeginStationJoin("x", "")
	r.SetMode(types.ModeAP)
	clk.Advance(10)
	if s := r.StationStatus(); s != types.StationIdle {
		t.Fatalf("status = %s, want idle", s)
	}
}

func TestBroadcast_RequiresAPRole(t *testing.T) {
	r := New(timex.NewManual(0), Options{})
	r.SetMode(types.ModeSTA)
	if err := r.StartBroadcast("Home", "pw"); err == nil {
		t.Fatal("expected error starting broadcast in sta mode")
	}
	r.SetMode(types.ModeAP)
	if err := r.StartBroadcast("Home", "pw"); err != nil {
		t.Fatalf("StartBroadcast: %v", err)
	}
	if !r.Broadcasting() || r.BroadcastName() != "Home" {
		t.Fatal("expected broadcast Home to be up")
	}
	r.StopBroadcast(true)
	if r.Broadcasting() || r.BroadcastName() != "" {
		t.Fatal("expected broadcast down and forgotten")
	}
}

func TestScan_RestartDiscardsInFlight(t *testing.T) {
	clk := timex.NewManual(0)
	r := New(clk, Options{ScanAfterMs: 100, ScanCount: 4})
	if got := r.ScanStatus().Phase; got != types.ScanFailed {
		t.Fatalf("before any scan phase = %s, want failed", got)
	}
	_ = r.StartScan()
	clk.Advance(90)
	_ = r.StartScan()
	clk.Advance(20)
	if got := r.ScanStatus().Phase; got != types.ScanRunning {
		t.Fatalf("phase = %s, want running after restart", got)
	}
	clk.Advance(80)
	rep := r.ScanStatus()
	if rep.Phase != types.ScanDone || rep.Count != 4 {
		t.Fatalf("report = %+v, want done(4)", rep)
	}
}

func TestDropLink_DisconnectedUntilNextJoin(t *testing.T) {
	clk := timex.NewManual(0)
	r := New(clk, Options{JoinAfterMs: 10})
	r.SetMode(types.ModeSTA)
	_ = r.BeginStationJoin("x", "")
	clk.Advance(10)
	r.DropLink()
	if s := r.StationStatus(); s != types.StationDisconnected {
		t.Fatalf("status = %s, want disconnected", s)
	}
	_ = r.BeginStationJoin("x", "")
	if s := r.StationStatus(); s != types.StationConnecting {
		t.Fatalf("status = %s, want connecting after rejoin", s)
	}
}
