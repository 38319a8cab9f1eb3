package link

import (
	"devicelink-go/pkg/logging"
	"devicelink-go/types"
)

// connectorEvents turns connector callbacks into link/event messages.
type connectorEvents struct{ s *Service }

func (e connectorEvents) OnConnecting(target string) {
	logging.Debug(serviceName, "event connecting %q", target)
	e.s.emit(types.LinkEvent{Name: EvConnecting, Target: target})
}

func (e connectorEvents) OnConnect(target string) {
	logging.Debug(serviceName, "event connected %q", target)
	e.s.emit(types.LinkEvent{Name: EvConnected, Target: target})
}

func (e connectorEvents) OnError(err error) {
	logging.Debug(serviceName, "event error %v", err)
	e.s.emit(types.LinkEvent{Name: EvError, Target: e.s.Connector.Target(), Error: err.Error()})
}

// scannerEvents turns scanner callbacks into link/event messages.
type scannerEvents struct{ s *Service }

func (e scannerEvents) OnScanStart() {
	e.s.emit(types.LinkEvent{Name: EvScanStart})
}

func (e scannerEvents) OnScanFailed(err error) {
	logging.Debug(serviceName, "event scan_failed %v", err)
	e.s.emit(types.LinkEvent{Name: EvScanFailed, Error: err.Error()})
}

func (e scannerEvents) OnScanComplete(n int) {
	e.s.emit(types.LinkEvent{Name: EvScanDone, Networks: n})
}
