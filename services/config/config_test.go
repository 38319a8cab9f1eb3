package config

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devicelink-go/bus"
	"devicelink-go/errcode"
)

// isolate stubs file and env access for one test.
func isolate(t *testing.T, files map[string]string, env map[string]string) {
	t.Helper()
	oldRead, oldEnv := osReadFile, osLookupEnv
	t.Cleanup(func() { osReadFile, osLookupEnv = oldRead, oldEnv })

	osReadFile = func(name string) ([]byte, error) {
		if s, ok := files[name]; ok {
			return []byte(s), nil
		}
		return nil, os.ErrNotExist
	}
	osLookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoad_DefaultsWithoutEmbedded(t *testing.T) {
	isolate(t, nil, nil)
	cfg, err := Load("unknown-board", "")
	require.NoError(t, err)

	want := Defaults()
	want.Device = "unknown-board"
	assert.Equal(t, want, cfg)
	assert.Equal(t, "ESPHome", cfg.Broadcast.Name)
	assert.Equal(t, 20*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 33, cfg.Indicator.Steps)
}

func TestLoad_EmbeddedOverridesDefaults(t *testing.T) {
	isolate(t, nil, nil)
	cfg, err := Load("pico", "")
	require.NoError(t, err)

	assert.True(t, cfg.Broadcast.CloseOnConnect)
	assert.Equal(t, 5*time.Millisecond, cfg.Loop.Interval)
	assert.Equal(t, 100*time.Millisecond, cfg.Indicator.SampleInterval)
	assert.True(t, cfg.Indicator.Enabled, "fields absent from YAML keep their default")
}

func TestLoad_FileOverridesEmbedded(t *testing.T) {
	isolate(t, map[string]string{
		"/etc/link.yaml": `
station:
  ssid: home
  pass: hunter22
indicator:
  brightness: 10
  enabled: false
connect_timeout: 5s
`,
	}, nil)
	cfg, err := Load("sim", "/etc/link.yaml")
	require.NoError(t, err)

	assert.Equal(t, "devicelink-sim", cfg.Broadcast.Name, "embedded layer survives")
	assert.Equal(t, "home", cfg.Station.SSID)
	assert.Equal(t, 10, cfg.Indicator.Brightness)
	assert.False(t, cfg.Indicator.Enabled)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
}

func TestLoad_MissingFile(t *testing.T) {
	isolate(t, nil, nil)
	_, err := Load("sim", "/nope.yaml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_BadYAML(t *testing.T) {
	isolate(t, map[string]string{"bad.yaml": "indicator: [1, 2"}, nil)
	_, err := Load("sim", "bad.yaml")
	require.Error(t, err)
	assert.Equal(t, errcode.InvalidPayload, errcode.Of(err))
}

func TestLoad_EnvWins(t *testing.T) {
	isolate(t, map[string]string{"f.yaml": "station:\n  ssid: fromfile\n"}, map[string]string{
		"DEVICELINK_STATION_SSID":               "fromenv",
		"DEVICELINK_BROADCAST_CLOSE_ON_CONNECT": "true",
		"DEVICELINK_CONNECT_TIMEOUT":            "3s",
		"DEVICELINK_INDICATOR_BRIGHTNESS":       "75",
		"DEVICELINK_LOG_LEVEL":                  "debug",
	})
	cfg, err := Load("sim", "f.yaml")
	require.NoError(t, err)

	assert.Equal(t, "fromenv", cfg.Station.SSID)
	assert.True(t, cfg.Broadcast.CloseOnConnect)
	assert.Equal(t, 3*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 75, cfg.Indicator.Brightness)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvParseError(t *testing.T) {
	isolate(t, nil, map[string]string{"DEVICELINK_INDICATOR_BRIGHTNESS": "bright"})
	_, err := Load("sim", "")
	require.Error(t, err)
	assert.Equal(t, errcode.InvalidParams, errcode.Of(err))
	assert.Contains(t, err.Error(), "DEVICELINK_INDICATOR_BRIGHTNESS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty broadcast name", func(c *Config) { c.Broadcast.Name = "" }},
		{"short broadcast pass", func(c *Config) { c.Broadcast.Pass = "1234" }},
		{"zero timeout", func(c *Config) { c.ConnectTimeout = 0 }},
		{"timeout past clock range", func(c *Config) { c.ConnectTimeout = 1200 * time.Hour }},
		{"sample past clock range", func(c *Config) { c.Indicator.SampleInterval = 1200 * time.Hour }},
		{"brightness high", func(c *Config) { c.Indicator.Brightness = 101 }},
		{"brightness negative", func(c *Config) { c.Indicator.Brightness = -1 }},
		{"one step", func(c *Config) { c.Indicator.Steps = 1 }},
		{"too many steps", func(c *Config) { c.Indicator.Steps = 300 }},
		{"zero sample", func(c *Config) { c.Indicator.SampleInterval = 0 }},
		{"zero loop", func(c *Config) { c.Loop.Interval = 0 }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	require.NoError(t, Defaults().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Defaults()
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Equal(t, errcode.InvalidParams, errcode.Of(err))
		})
	}

	edge := Defaults()
	edge.ConnectTimeout = maxWindow
	assert.NoError(t, edge.Validate(), "longest measurable window is allowed")

	open := Defaults()
	open.Broadcast.Pass = ""
	assert.NoError(t, open.Validate(), "open broadcast is allowed")
}

func TestConfigService_PublishesRetainedSections(t *testing.T) {
	cfg := Defaults()
	cfg.Station = Station{SSID: "home", Pass: "secret99"}

	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	ctx := context.WithValue(context.Background(), CtxDeviceKey, "sim")
	require.NoError(t, NewConfigService(cfg).Start(ctx, conn))

	// Subscribing after publish still sees retained sections.
	sub := conn.Subscribe(bus.T(configPrefix, "#"))
	got := map[string]any{}
	for {
		m, ok := sub.TryRecv()
		if !ok {
			break
		}
		require.Len(t, m.Topic, 2)
		got[m.Topic[1]] = m.Payload
	}

	assert.Len(t, got, 7)
	assert.Equal(t, "sim", got["device"])
	st, ok := got["station"].(Station)
	require.True(t, ok)
	assert.Equal(t, "home", st.SSID)
	assert.Equal(t, "***", st.Pass)
	assert.Equal(t, "20s", got["connect_timeout"])
}

func TestConfigService_MissingDevice(t *testing.T) {
	b := bus.NewBus(4)
	err := NewConfigService(Defaults()).Start(context.Background(), b.NewConnection("c"))
	require.Error(t, err)
	assert.Equal(t, errcode.MissingTarget, errcode.Of(err))
}
