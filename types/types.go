package types

// ---- Radio modes & station status ----

// Mode selects which radio roles are active.
type Mode uint8

const (
	ModeOff   Mode = iota
	ModeAP         // local broadcast network only
	ModeSTA        // station (client) only
	ModeAPSTA      // broadcast and station together
)

func (m Mode) String() string {
	switch m {
	case ModeAP:
		return "ap"
	case ModeSTA:
		return "sta"
	case ModeAPSTA:
		return "ap_sta"
	default:
		return "off"
	}
}

// StationStatus is the adapter's view of the station link.
type StationStatus uint8

const (
	StationIdle StationStatus = iota
	StationConnecting
	StationConnected
	StationDisconnected
	StationFailed
)

func (s StationStatus) String() string {
	switch s {
	case StationConnecting:
		return "connecting"
	case StationConnected:
		return "connected"
	case StationDisconnected:
		return "disconnected"
	case StationFailed:
		return "failed"
	default:
		return "idle"
	}
}

// ---- Connection attempt ----

// ConnPhase is the lifecycle of a single join attempt.
type ConnPhase uint8

const (
	ConnIdle ConnPhase = iota
	ConnConnecting
	ConnConnected
	ConnFailed
)

func (p ConnPhase) String() string {
	switch p {
	case ConnConnecting:
		return "connecting"
	case ConnConnected:
		return "connected"
	case ConnFailed:
		return "failed"
	default:
		return "idle"
	}
}

// BroadcastConfig describes the local fallback network.
type BroadcastConfig struct {
	Name           string `json:"name" yaml:"name"`
	Pass           string `json:"pass" yaml:"pass"`
	CloseOnConnect bool   `json:"close_on_connect" yaml:"close_on_connect"`
}

// ---- Scan ----

// ScanPhase tracks one scan request. Idle only precedes the first request.
type ScanPhase uint8

const (
	ScanIdle ScanPhase = iota
	ScanRunning
	ScanDone
	ScanFailed
)

func (p ScanPhase) String() string {
	switch p {
	case ScanRunning:
		return "running"
	case ScanDone:
		return "done"
	case ScanFailed:
		return "failed"
	default:
		return "idle"
	}
}

// ---- Indicator ----

// IndicatorStatus is what the status light is currently showing.
type IndicatorStatus uint8

const (
	StatusOff IndicatorStatus = iota
	StatusConnected
	StatusConnecting
	StatusDisconnected
	StatusScan
)

func (s IndicatorStatus) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusConnecting:
		return "connecting"
	case StatusDisconnected:
		return "disconnected"
	case StatusScan:
		return "scan"
	default:
		return "off"
	}
}

// RGB is one light frame, 8 bits per channel.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Black is the zero frame.
var Black = RGB{}

// Color returns the base colour for a status.
func (s IndicatorStatus) Color() RGB {
	switch s {
	case StatusConnected:
		return RGB{0, 255, 0}
	case StatusConnecting:
		return RGB{255, 165, 0}
	case StatusDisconnected:
		return RGB{255, 0, 0}
	case StatusScan:
		return RGB{0, 0, 255}
	default:
		return Black
	}
}
