package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"devicelink-go/errcode"
	"devicelink-go/pkg/logging"
)

const (
	serviceName   = "config"
	configPrefix  = "config"
	CtxDeviceKey  = "device" // context key used for device ID
	envPrefix     = "DEVICELINK_"
	DefaultDevice = "sim"
)

// -----------------------------------------------------------------------------
// Types
// -----------------------------------------------------------------------------

type Config struct {
	Device         string        `yaml:"device"`
	Broadcast      Broadcast     `yaml:"broadcast"`
	Station        Station       `yaml:"station"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	Indicator      Indicator     `yaml:"indicator"`
	Loop           Loop          `yaml:"loop"`
	Log            Log           `yaml:"log"`
}

type Broadcast struct {
	Name           string `yaml:"name"`
	Pass           string `yaml:"pass"`
	CloseOnConnect bool   `yaml:"close_on_connect"`
}

// Station is the network joined at start-up; an empty SSID leaves the
// device broadcasting until a connect request arrives.
type Station struct {
	SSID string `yaml:"ssid"`
	Pass string `yaml:"pass"`
}

type Indicator struct {
	Enabled        bool          `yaml:"enabled"`
	Brightness     int           `yaml:"brightness"`
	Steps          int           `yaml:"steps"`
	SampleInterval time.Duration `yaml:"sample_interval"`
}

type Loop struct {
	Interval time.Duration `yaml:"interval"`
}

type Log struct {
	Level string `yaml:"level"`
}

// Defaults returns the built-in configuration every layer is applied over.
func Defaults() Config {
	return Config{
		Device: DefaultDevice,
		Broadcast: Broadcast{
			Name: "ESPHome",
			Pass: "123456789",
		},
		ConnectTimeout: 20 * time.Second,
		Indicator: Indicator{
			Enabled:        true,
			Brightness:     50,
			Steps:          33,
			SampleInterval: 100 * time.Millisecond,
		},
		Loop: Loop{Interval: 10 * time.Millisecond},
		Log:  Log{Level: "info"},
	}
}

// -----------------------------------------------------------------------------
// Loading
// -----------------------------------------------------------------------------

// For mocking in tests
var (
	osReadFile  = os.ReadFile
	osLookupEnv = os.LookupEnv
)

// Load layers the embedded defaults for device, the YAML file at path (if
// non-empty), and DEVICELINK_* environment overrides, then validates.
func Load(device, path string) (Config, error) {
	cfg := Defaults()
	if device != "" {
		cfg.Device = device
	}

	if raw, ok := EmbeddedConfigLookup(cfg.Device); ok && len(raw) > 0 {
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, errcode.Wrap(errcode.InvalidPayload, "config.embedded", err)
		}
	} else {
		logging.Debug(serviceName, "no embedded config for device %q", cfg.Device)
	}

	if path != "" {
		data, err := osReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errcode.Wrap(errcode.InvalidPayload, "config.file", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides fields from DEVICELINK_* variables.
func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := osLookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}
	var firstErr error
	parse := func(key string, fn func(string) error) {
		v, ok := osLookupEnv(envPrefix + key)
		if !ok || firstErr != nil {
			return
		}
		if err := fn(strings.TrimSpace(v)); err != nil {
			firstErr = errcode.Wrap(errcode.InvalidParams, "config.env", fmt.Errorf("%s%s: %w", envPrefix, key, err))
		}
	}
	boolInto := func(dst *bool) func(string) error {
		return func(s string) error {
			b, err := strconv.ParseBool(s)
			if err == nil {
				*dst = b
			}
			return err
		}
	}
	intInto := func(dst *int) func(string) error {
		return func(s string) error {
			n, err := strconv.Atoi(s)
			if err == nil {
				*dst = n
			}
			return err
		}
	}
	durInto := func(dst *time.Duration) func(string) error {
		return func(s string) error {
			d, err := time.ParseDuration(s)
			if err == nil {
				*dst = d
			}
			return err
		}
	}

	str("DEVICE", &cfg.Device)
	str("STATION_SSID", &cfg.Station.SSID)
	str("STATION_PASS", &cfg.Station.Pass)
	str("BROADCAST_NAME", &cfg.Broadcast.Name)
	str("BROADCAST_PASS", &cfg.Broadcast.Pass)
	str("LOG_LEVEL", &cfg.Log.Level)
	parse("BROADCAST_CLOSE_ON_CONNECT", boolInto(&cfg.Broadcast.CloseOnConnect))
	parse("CONNECT_TIMEOUT", durInto(&cfg.ConnectTimeout))
	parse("INDICATOR_ENABLED", boolInto(&cfg.Indicator.Enabled))
	parse("INDICATOR_BRIGHTNESS", intInto(&cfg.Indicator.Brightness))
	parse("LOOP_INTERVAL", durInto(&cfg.Loop.Interval))
	return firstErr
}

// -----------------------------------------------------------------------------
// Validation
// -----------------------------------------------------------------------------

// maxWindow is the longest interval the uint32 millisecond clock can measure.
const maxWindow = time.Duration(math.MaxUint32) * time.Millisecond

// Validate rejects values the link service cannot run with.
func (c Config) Validate() error {
	bad := func(format string, args ...any) error {
		return errcode.New(errcode.InvalidParams, "config.validate", fmt.Sprintf(format, args...))
	}
	switch {
	case c.Broadcast.Name == "":
		return bad("broadcast.name is empty")
	case c.Broadcast.Pass != "" && len(c.Broadcast.Pass) < 8:
		return bad("broadcast.pass must be empty or at least 8 characters")
	case c.ConnectTimeout <= 0 || c.ConnectTimeout > maxWindow:
		return bad("connect_timeout %s outside (0,%s]", c.ConnectTimeout, maxWindow)
	case c.Indicator.Brightness < 0 || c.Indicator.Brightness > 100:
		return bad("indicator.brightness %d outside [0,100]", c.Indicator.Brightness)
	case c.Indicator.Steps < 2 || c.Indicator.Steps > 255:
		return bad("indicator.steps %d outside [2,255]", c.Indicator.Steps)
	case c.Indicator.SampleInterval <= 0 || c.Indicator.SampleInterval > maxWindow:
		return bad("indicator.sample_interval %s outside (0,%s]", c.Indicator.SampleInterval, maxWindow)
	case c.Loop.Interval <= 0:
		return bad("loop.interval must be positive")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return errcode.Wrap(errcode.InvalidParams, "config.validate", err)
	}
	return nil
}
