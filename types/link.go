package types

// Payloads carried on link/... bus topics.

// ---- Retained state ----

type StationState struct {
	Phase  string `json:"phase"` // ConnPhase.String()
	Target string `json:"target,omitempty"`
	Mode   string `json:"mode,omitempty"`
	TS     int64  `json:"ts_ms"`
}

type ScanState struct {
	Phase    string `json:"phase"` // ScanPhase.String()
	Networks int    `json:"networks"`
	TS       int64  `json:"ts_ms"`
}

type IndicatorState struct {
	Status     string `json:"status"`
	Enabled    bool   `json:"enabled"`
	Brightness int    `json:"brightness"`
	TS         int64  `json:"ts_ms"`
}

// ---- Events ----

// LinkEvent is published once per connector or scanner transition.
type LinkEvent struct {
	Name     string `json:"name"` // connecting|connected|error|scan_start|scan_failed|scan_done
	Target   string `json:"target,omitempty"`
	Networks int    `json:"networks,omitempty"`
	Error    string `json:"error,omitempty"`
	TS       int64  `json:"ts_ms"`
}

// ---- Controls ----

type ConnectRequest struct {
	SSID string `json:"ssid"`
	Pass string `json:"pass,omitempty"`
}

type ScanRequest struct{}

type BrightnessSet struct {
	Percent int `json:"percent"`
}

type EnableSet struct {
	On bool `json:"on"`
}

// Generic replies
type OKReply struct {
	OK bool `json:"ok"`
}
type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
