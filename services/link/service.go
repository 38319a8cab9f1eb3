// Package link wires the connector, scanner and indicator into one polled
// loop and exposes them on the bus.
//
// Topics (all under "link"):
//
//	state/station|scan|indicator   retained snapshots, published on change
//	event/<name>                   one message per connector/scanner transition
//	control/connect|scan|brightness|enable
//	reply/<control>                OKReply or ErrorReply per control message
package link

import (
	"context"
	"time"

	"devicelink-go/bus"
	"devicelink-go/errcode"
	"devicelink-go/pkg/logging"
	"devicelink-go/services/config"
	"devicelink-go/services/connector"
	"devicelink-go/services/indicator"
	"devicelink-go/services/radio"
	"devicelink-go/services/scanner"
	"devicelink-go/types"
	"devicelink-go/x/timex"
)

const (
	serviceName = "link"

	// controls handled per Tick; the rest wait for the next cycle
	maxControlsPerTick = 8
)

var (
	topicRoot    = bus.T("link")
	topicState   = topicRoot.Append("state")
	topicEvent   = topicRoot.Append("event")
	topicControl = topicRoot.Append("control")
	topicReply   = topicRoot.Append("reply")
)

// Control names under link/control.
const (
	CtrlConnect    = "connect"
	CtrlScan       = "scan"
	CtrlBrightness = "brightness"
	CtrlEnable     = "enable"
)

// Event names under link/event.
const (
	EvConnecting = "connecting"
	EvConnected  = "connected"
	EvError      = "error"
	EvScanStart  = "scan_start"
	EvScanFailed = "scan_failed"
	EvScanDone   = "scan_done"
)

// StateTopic returns link/state/<name>.
func StateTopic(name string) bus.Topic { return topicState.Append(name) }

// EventTopic returns link/event/<name>; "+" subscribes to all events.
func EventTopic(name string) bus.Topic { return topicEvent.Append(name) }

// ControlTopic returns link/control/<name>.
func ControlTopic(name string) bus.Topic { return topicControl.Append(name) }

// ReplyTopic returns link/reply/<name>.
func ReplyTopic(name string) bus.Topic { return topicReply.Append(name) }

// modeReporter is implemented by adapters that can report their active role.
type modeReporter interface {
	Mode() types.Mode
}

// Snapshot is the state last published by the service.
type Snapshot struct {
	Station   types.StationState
	Scan      types.ScanState
	Indicator types.IndicatorState
	Frame     types.RGB
}

type Service struct {
	cfg   config.Config
	radio radio.Adapter
	clock timex.Clock
	conn  *bus.Connection // nil runs without the bus

	Connector *connector.Connector
	Scanner   *scanner.Scanner
	Indicator *indicator.Indicator

	ctrlSub *bus.Subscription
	started bool
	last    Snapshot
}

// New builds the three state machines over r. conn may be nil.
func New(cfg config.Config, r radio.Adapter, sink indicator.Sink, clock timex.Clock, conn *bus.Connection) *Service {
	s := &Service{cfg: cfg, radio: r, clock: clock, conn: conn}

	s.Connector = connector.New(r, clock, connector.Config{
		Broadcast: types.BroadcastConfig{
			Name:           cfg.Broadcast.Name,
			Pass:           cfg.Broadcast.Pass,
			CloseOnConnect: cfg.Broadcast.CloseOnConnect,
		},
		Timeout: cfg.ConnectTimeout,
	})
	s.Scanner = scanner.New(r)
	s.Indicator = indicator.New(sink, s.Connector, s.Scanner, clock, indicator.Config{
		Steps:          uint8(cfg.Indicator.Steps),
		SampleInterval: cfg.Indicator.SampleInterval,
		Brightness:     cfg.Indicator.Brightness,
		StartDisabled:  !cfg.Indicator.Enabled,
	})

	s.Connector.SetListener(connectorEvents{s})
	s.Scanner.SetListener(scannerEvents{s})
	return s
}

// Start initialises the indicator, subscribes to controls and joins the
// configured station if any. Calling it twice is a no-op.
func (s *Service) Start() {
	if s.started {
		return
	}
	s.started = true
	s.Indicator.Init()
	if s.conn != nil {
		s.ctrlSub = s.conn.Subscribe(topicControl.Append("+"))
	}
	if s.cfg.Station.SSID != "" {
		s.Connector.Connect(s.cfg.Station.SSID, s.cfg.Station.Pass)
	} else {
		logging.Info(serviceName, "no station configured, waiting for connect request")
	}
	s.publishState(true)
}

// Stop releases the control subscription.
func (s *Service) Stop() {
	if s.ctrlSub != nil {
		s.ctrlSub.Unsubscribe()
		s.ctrlSub = nil
	}
	s.started = false
}

// Tick runs one loop cycle: pending controls, then connector, scanner and
// indicator in that order, then state publication. It never blocks.
func (s *Service) Tick() {
	s.drainControls()
	s.Connector.Tick()
	s.Scanner.Tick()
	s.Indicator.Tick()
	s.publishState(false)
}

// Run starts the service and ticks it every Loop.Interval until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	s.Start()
	defer s.Stop()

	interval := s.cfg.Loop.Interval
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info(serviceName, "stopping")
			return ctx.Err()
		case <-tick.C:
			s.Tick()
		}
	}
}

// Snapshot returns the state as of the last Tick.
func (s *Service) Snapshot() Snapshot { return s.last }

// -----------------------------------------------------------------------------
// Controls
// -----------------------------------------------------------------------------

func (s *Service) drainControls() {
	if s.ctrlSub == nil {
		return
	}
	for n := 0; n < maxControlsPerTick; n++ {
		msg, ok := s.ctrlSub.TryRecv()
		if !ok {
			return
		}
		if len(msg.Topic) != len(topicControl)+1 {
			continue
		}
		name := msg.Topic[len(topicControl)]
		if err := s.handleControl(name, msg.Payload); err != nil {
			logging.Warn(serviceName, "control %s: %v", name, err)
			s.publish(ReplyTopic(name), types.ErrorReply{OK: false, Error: string(errcode.Of(err))}, false)
			continue
		}
		s.publish(ReplyTopic(name), types.OKReply{OK: true}, false)
	}
}

func (s *Service) handleControl(name string, payload any) error {
	switch name {
	case CtrlConnect:
		req, ok := asValue[types.ConnectRequest](payload)
		if !ok {
			return errcode.New(errcode.InvalidPayload, "control.connect", "want ConnectRequest")
		}
		if !s.Connector.Connect(req.SSID, req.Pass) {
			return s.Connector.LastError()
		}
	case CtrlScan:
		s.Scanner.ScanNetworks()
	case CtrlBrightness:
		req, ok := asValue[types.BrightnessSet](payload)
		if !ok {
			return errcode.New(errcode.InvalidPayload, "control.brightness", "want BrightnessSet")
		}
		s.Indicator.SetBrightness(req.Percent)
	case CtrlEnable:
		req, ok := asValue[types.EnableSet](payload)
		if !ok {
			return errcode.New(errcode.InvalidPayload, "control.enable", "want EnableSet")
		}
		s.Indicator.SetEnabled(req.On)
	default:
		return errcode.New(errcode.InvalidTopic, "control", name)
	}
	return nil
}

// asValue accepts a payload as T or *T.
func asValue[T any](p any) (T, bool) {
	switch v := p.(type) {
	case T:
		return v, true
	case *T:
		if v != nil {
			return *v, true
		}
	}
	var zero T
	return zero, false
}

// -----------------------------------------------------------------------------
// Publication
// -----------------------------------------------------------------------------

func (s *Service) publish(t bus.Topic, payload any, retained bool) {
	if s.conn == nil {
		return
	}
	s.conn.Publish(s.conn.NewMessage(t, payload, retained))
}

func (s *Service) now() int64 { return int64(s.clock.NowMs()) }

// publishState refreshes the snapshot and publishes each section that changed.
func (s *Service) publishState(force bool) {
	ts := s.now()

	st := types.StationState{
		Phase:  s.Connector.Phase().String(),
		Target: s.Connector.Target(),
	}
	if mr, ok := s.radio.(modeReporter); ok {
		st.Mode = mr.Mode().String()
	}
	sc := types.ScanState{
		Phase:    s.Scanner.Result().String(),
		Networks: s.Scanner.NumNetworks(),
	}
	in := types.IndicatorState{
		Status:     s.Indicator.Status().String(),
		Enabled:    s.Indicator.Enabled(),
		Brightness: s.Indicator.Brightness(),
	}

	prev := s.last
	prevSt, prevSc, prevIn := prev.Station, prev.Scan, prev.Indicator
	prevSt.TS, prevSc.TS, prevIn.TS = 0, 0, 0

	if force || st != prevSt {
		st.TS = ts
		s.publish(StateTopic("station"), st, true)
	} else {
		st.TS = prev.Station.TS
	}
	if force || sc != prevSc {
		sc.TS = ts
		s.publish(StateTopic("scan"), sc, true)
	} else {
		sc.TS = prev.Scan.TS
	}
	if force || in != prevIn {
		in.TS = ts
		s.publish(StateTopic("indicator"), in, true)
	} else {
		in.TS = prev.Indicator.TS
	}

	s.last = Snapshot{Station: st, Scan: sc, Indicator: in, Frame: s.Indicator.Frame()}
}

func (s *Service) emit(ev types.LinkEvent) {
	ev.TS = s.now()
	s.publish(EventTopic(ev.Name), ev, false)
}
