// Package netlinkadpt drives a TinyGo netlink device (cyw43439, espat, ...) as a radio.Adapter.
//
// netlink calls block and drivers are not re-entrant, so every NetConnect and
// NetDisconnect runs in order on one owned worker goroutine; the Adapter
// methods only queue work and return. Station and broadcast roles carry
// separate generation counters so a superseded join or a cancelled broadcast
// drops its late result. netlink devices hold one role at a time: in
// ModeAPSTA the station wins and the broadcast network is started when the
// mode drops back to ModeAP. Scanning is not part of netlink and always
// reports failure.
package netlinkadpt

import (
	"sync"
	"time"

	"tinygo.org/x/drivers/netlink"

	"devicelink-go/errcode"
	"devicelink-go/pkg/logging"
	"devicelink-go/services/radio"
	"devicelink-go/types"
)

const subsystem = "netlink"

type opKind uint8

const (
	opJoin opKind = iota
	opAP
	opDisconnect
)

type op struct {
	kind   opKind
	gen    uint32
	params netlink.ConnectParams
}

type Adaptor struct {
	link    netlink.Netlinker
	timeout time.Duration

	mu     sync.Mutex
	mode   types.Mode
	status types.StationStatus
	staGen uint32
	apGen  uint32

	bcName, bcPass string
	bcWanted       bool
	bcPending      bool // AP connect queued or running
	bcUp           bool

	queue []op
	wake  chan struct{}
}

var _ radio.Adapter = (*Adaptor)(nil)

// New wraps link and starts its worker. connectTimeout bounds each
// NetConnect; 0 uses the netlink default.
func New(link netlink.Netlinker, connectTimeout time.Duration) *Adaptor {
	a := &Adaptor{link: link, timeout: connectTimeout, wake: make(chan struct{}, 1)}
	link.NetNotify(a.onEvent)
	go a.worker()
	return a
}

func (a *Adaptor) onEvent(ev netlink.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch ev {
	case netlink.EventNetUp:
		if a.status == types.StationConnecting {
			a.status = types.StationConnected
		}
	case netlink.EventNetDown:
		if a.status == types.StationConnected {
			a.status = types.StationDisconnected
		}
		a.bcUp = false
	}
}

// ---- Worker ----

// enqueue appends o and wakes the worker. Callers hold a.mu.
func (a *Adaptor) enqueue(o op) {
	a.queue = append(a.queue, o)
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *Adaptor) next() (op, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.queue) == 0 {
		return op{}, false
	}
	o := a.queue[0]
	a.queue = a.queue[1:]
	return o, true
}

func (a *Adaptor) worker() {
	for range a.wake {
		for {
			o, ok := a.next()
			if !ok {
				break
			}
			a.run(o)
		}
	}
}

// stale reports whether o was superseded before it ran.
func (a *Adaptor) stale(o op) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch o.kind {
	case opJoin:
		return o.gen != a.staGen
	case opAP:
		return o.gen != a.apGen
	}
	return false
}

func (a *Adaptor) run(o op) {
	if o.kind == opDisconnect {
		a.link.NetDisconnect()
		return
	}
	if a.stale(o) {
		return
	}
	err := a.link.NetConnect(&o.params)

	a.mu.Lock()
	defer a.mu.Unlock()
	switch o.kind {
	case opAP:
		if o.gen != a.apGen {
			return
		}
		a.bcPending = false
		a.bcUp = err == nil
		if err != nil {
			logging.Error(subsystem, err, "broadcast %q failed", o.params.Ssid)
		}
	case opJoin:
		if o.gen != a.staGen {
			return
		}
		if err != nil {
			logging.Error(subsystem, err, "join %q failed", o.params.Ssid)
			a.status = types.StationFailed
			return
		}
		a.status = types.StationConnected
	}
}

// ---- radio.Adapter ----

func (a *Adaptor) hasSTA() bool { return a.mode == types.ModeSTA || a.mode == types.ModeAPSTA }

func (a *Adaptor) BeginStationJoin(target, credential string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.hasSTA() {
		return errcode.New(errcode.JoinRejected, "join", "station role not enabled")
	}
	a.staGen++
	a.status = types.StationConnecting
	a.enqueue(op{kind: opJoin, gen: a.staGen, params: netlink.ConnectParams{
		ConnectMode:    netlink.ConnectModeSTA,
		Ssid:           target,
		Passphrase:     credential,
		ConnectTimeout: a.timeout,
	}})
	return nil
}

func (a *Adaptor) DisconnectStation() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.staGen++
	if a.status != types.StationIdle {
		a.enqueue(op{kind: opDisconnect})
	}
	a.status = types.StationIdle
}

func (a *Adaptor) SetMode(m types.Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mode = m
	if m == types.ModeAP && a.bcWanted {
		a.startAP()
	}
}

// startAP queues one AP connect unless one is pending or up. Callers hold a.mu.
func (a *Adaptor) startAP() {
	if a.bcPending || a.bcUp {
		return
	}
	a.apGen++
	a.bcPending = true
	a.enqueue(op{kind: opAP, gen: a.apGen, params: netlink.ConnectParams{
		ConnectMode:    netlink.ConnectModeAP,
		Ssid:           a.bcName,
		Passphrase:     a.bcPass,
		ConnectTimeout: a.timeout,
	}})
}

func (a *Adaptor) StartBroadcast(name, credential string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != types.ModeAP && a.mode != types.ModeAPSTA {
		return errcode.New(errcode.BroadcastDown, "broadcast", "ap role not enabled")
	}
	a.bcName, a.bcPass, a.bcWanted = name, credential, true
	if a.mode == types.ModeAP {
		a.startAP()
	}
	return nil
}

func (a *Adaptor) StopBroadcast(persist bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bcWanted = false
	if persist {
		a.bcName, a.bcPass = "", ""
	}
	if a.bcPending || a.bcUp {
		a.apGen++
		a.bcPending = false
		a.bcUp = false
		a.enqueue(op{kind: opDisconnect})
	}
}

func (a *Adaptor) StationStatus() types.StationStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

func (a *Adaptor) StartScan() error { return errcode.New(errcode.Unsupported, "scan", "netlink has no scan") }

func (a *Adaptor) ScanStatus() radio.ScanReport { return radio.Failed() }

// Mode is the last role set by SetMode.
func (a *Adaptor) Mode() types.Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// Broadcasting reports whether the broadcast network is up.
func (a *Adaptor) Broadcasting() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bcUp
}
