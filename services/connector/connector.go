// Package connector drives station joins with a timed fallback to the local
// broadcast network.
//
// A Connector is polled: Connect starts an attempt, Tick advances it, and
// nothing blocks. The broadcast network is brought up with every attempt so
// the device stays reachable while a join is pending, and again whenever an
// attempt fails.
package connector

import (
	"math"
	"time"

	"devicelink-go/errcode"
	"devicelink-go/pkg/logging"
	"devicelink-go/services/radio"
	"devicelink-go/types"
	"devicelink-go/x/mathx"
	"devicelink-go/x/strx"
	"devicelink-go/x/timex"
)

const subsystem = "connector"

const (
	DefaultBroadcastName = "ESPHome"
	DefaultBroadcastPass = "123456789"
	DefaultTimeout       = 20 * time.Second
)

type Config struct {
	Broadcast types.BroadcastConfig
	Timeout   time.Duration
}

type Connector struct {
	radio radio.Adapter
	clock timex.Clock
	lis   Listener

	bc        types.BroadcastConfig
	timeoutMs uint32

	phase   types.ConnPhase
	target  string
	startMs uint32
	lastErr error
}

func New(r radio.Adapter, clock timex.Clock, cfg Config) *Connector {
	c := &Connector{
		radio: r,
		clock: clock,
		lis:   nopListener{},
		bc:    cfg.Broadcast,
	}
	c.bc.Name = strx.Coalesce(c.bc.Name, DefaultBroadcastName)
	c.SetTimeout(cfg.Timeout)
	return c
}

// SetListener installs l; nil removes the current listener.
func (c *Connector) SetListener(l Listener) {
	if l == nil {
		l = nopListener{}
	}
	c.lis = l
}

// ---- Broadcast / timeout settings ----

func (c *Connector) SetBroadcastName(name string) { c.bc.Name = strx.Coalesce(name, DefaultBroadcastName) }
func (c *Connector) SetBroadcastPass(pass string) { c.bc.Pass = pass }

// SetCloseOnConnect selects whether a successful join tears the broadcast
// network down (otherwise both stay up).
func (c *Connector) SetCloseOnConnect(on bool) { c.bc.CloseOnConnect = on }

// MaxTimeout is the longest window the millisecond clock can measure.
const MaxTimeout = time.Duration(math.MaxUint32) * time.Millisecond

// SetTimeout sets the join window; d <= 0 restores DefaultTimeout and values
// above MaxTimeout saturate. It applies to the attempt in progress as well.
func (c *Connector) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultTimeout
	}
	c.timeoutMs = uint32(mathx.Min(d, MaxTimeout) / time.Millisecond)
}

func (c *Connector) Broadcast() types.BroadcastConfig { return c.bc }
func (c *Connector) Timeout() time.Duration {
	return time.Duration(c.timeoutMs) * time.Millisecond
}

// ---- Queries ----

func (c *Connector) Phase() types.ConnPhase { return c.phase }
func (c *Connector) Target() string         { return c.target }
func (c *Connector) Connecting() bool       { return c.phase == types.ConnConnecting }

// Connected is true while the joined link is up. A link lost after the join
// leaves the phase at Connected but reports false here.
func (c *Connector) Connected() bool {
	return c.phase == types.ConnConnected && c.radio.StationStatus() == types.StationConnected
}

// LastError is the error passed to OnError by the most recent Connect or
// Tick, nil once a new attempt starts.
func (c *Connector) LastError() error { return c.lastErr }

// ---- Operations ----

// Connect starts a join attempt to target and reports whether one started.
// An empty target is a configuration error: the device falls back to
// broadcast-only mode and OnError fires before Connect returns. A Connect
// issued while another attempt is active supersedes it.
func (c *Connector) Connect(target, credential string) bool {
	if c.phase == types.ConnConnecting || c.phase == types.ConnConnected {
		logging.Info(subsystem, "superseding %s attempt for %q", c.phase, c.target)
		c.radio.DisconnectStation()
	}

	if target == "" {
		c.target = ""
		c.fallback(errcode.New(errcode.MissingTarget, "connect", "empty network id"))
		return false
	}

	c.phase = types.ConnConnecting
	c.target = target
	c.startMs = c.clock.NowMs()
	c.lastErr = nil

	c.radio.SetMode(types.ModeAPSTA)
	c.startBroadcast()
	if err := c.radio.BeginStationJoin(target, credential); err != nil {
		c.fallback(errcode.Wrap(errcode.JoinRejected, "connect", err))
		return false
	}

	logging.Info(subsystem, "joining %q (credential %s, timeout %dms)", target, strx.Mask(credential), c.timeoutMs)
	c.lis.OnConnecting(target)
	return true
}

// Tick advances an active attempt and reports whether the phase changed.
func (c *Connector) Tick() bool {
	if c.phase != types.ConnConnecting {
		return false
	}

	if c.radio.StationStatus() == types.StationConnected {
		c.phase = types.ConnConnected
		logging.Info(subsystem, "joined %q", c.target)
		c.lis.OnConnect(c.target)
		if c.bc.CloseOnConnect {
			c.radio.StopBroadcast(true)
		}
		return true
	}

	if timex.Due(c.clock.NowMs(), c.startMs, c.timeoutMs) {
		c.fallback(errcode.New(errcode.Timeout, "connect", "no link to "+c.target+" within window"))
		return true
	}
	return false
}

// fallback abandons any join and restores broadcast-only mode.
func (c *Connector) fallback(err error) {
	c.phase = types.ConnFailed
	c.lastErr = err
	c.radio.DisconnectStation()
	c.radio.SetMode(types.ModeAP)
	c.startBroadcast()
	logging.Warn(subsystem, "falling back to broadcast %q: %v", c.bc.Name, err)
	c.lis.OnError(err)
}

func (c *Connector) startBroadcast() {
	if err := c.radio.StartBroadcast(c.bc.Name, c.bc.Pass); err != nil {
		logging.Error(subsystem, errcode.Wrap(errcode.BroadcastDown, "broadcast", err), "broadcast %q not started", c.bc.Name)
	}
}
