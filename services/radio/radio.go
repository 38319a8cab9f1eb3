// Package radio defines the adapter the connectivity services drive.
//
// Every method must return without blocking. Implementations that sit on
// blocking drivers keep that work behind their own goroutines and report
// progress through StationStatus and ScanStatus.
package radio

import "devicelink-go/types"

// ScanReport is the adapter's answer to a scan poll.
// Count is only meaningful when Phase is types.ScanDone.
type ScanReport struct {
	Phase types.ScanPhase
	Count int
}

// Running, Done and Failed build the three reports an adapter can give.
func Running() ScanReport   { return ScanReport{Phase: types.ScanRunning} }
func Done(n int) ScanReport { return ScanReport{Phase: types.ScanDone, Count: n} }
func Failed() ScanReport    { return ScanReport{Phase: types.ScanFailed} }

// Adapter is the radio as seen by the Connector and Scanner. It is a single
// shared resource; at most one join and one scan are outstanding at a time.
type Adapter interface {
	// BeginStationJoin starts joining target. Progress is read via StationStatus.
	BeginStationJoin(target, credential string) error
	// DisconnectStation abandons any join and drops the station link.
	DisconnectStation()
	SetMode(m types.Mode)
	// StartBroadcast (re)starts the local network.
	StartBroadcast(name, credential string) error
	// StopBroadcast tears the local network down; persist also clears any
	// stored broadcast configuration.
	StopBroadcast(persist bool)
	StationStatus() types.StationStatus

	StartScan() error
	ScanStatus() ScanReport
}
