package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw YAML applied over Defaults()
// -----------------------------------------------------------------------------

const cfgSim = `
broadcast:
  name: devicelink-sim
indicator:
  brightness: 80
loop:
  interval: 10ms
`

const cfgPico = `
broadcast:
  name: ESPHome
  pass: "123456789"
  close_on_connect: true
connect_timeout: 20s
indicator:
  brightness: 50
  steps: 33
  sample_interval: 100ms
loop:
  interval: 5ms
`

var embeddedConfigs = map[string][]byte{
	"sim":  []byte(cfgSim),
	"pico": []byte(cfgPico),
}

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}
