package main

import (
	"time"

	"github.com/spf13/cobra"

	"devicelink-go/pkg/logging"
	"devicelink-go/services/config"
	"devicelink-go/services/radio/sim"
	"devicelink-go/x/timex"
)

// options collects the flags shared by every subcommand.
type options struct {
	configPath string
	device     string
	logLevel   string
	ssid       string
	pass       string

	joinAfter  time.Duration
	rejectJoin bool
	scanAfter  time.Duration
	scanCount  int
	scanFail   bool
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "linksim",
		Short: "Run the connectivity loop against a simulated radio",
		Long: `linksim drives the connector, scanner and status light exactly as the
device firmware does, but over a scripted radio so join timeouts, rejected
joins and scan results can be reproduced on a workstation.`,
		SilenceUsage: true,
		Version:      version,
	}
	root.SetVersionTemplate(`{{printf "linksim version %s\n" .Version}}`)

	f := root.PersistentFlags()
	f.StringVar(&o.configPath, "config", "", "YAML config file layered over the device defaults")
	f.StringVar(&o.device, "device", config.DefaultDevice, "device profile for embedded defaults")
	f.StringVar(&o.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	f.StringVar(&o.ssid, "ssid", "", "station network to join at start")
	f.StringVar(&o.pass, "pass", "", "station credential")
	f.DurationVar(&o.joinAfter, "join-after", 2*time.Second, "simulated time until a join succeeds (0 = never)")
	f.BoolVar(&o.rejectJoin, "reject-join", false, "simulated radio refuses joins")
	f.DurationVar(&o.scanAfter, "scan-after", 1500*time.Millisecond, "simulated scan duration")
	f.IntVar(&o.scanCount, "scan-count", 5, "networks found by a simulated scan")
	f.BoolVar(&o.scanFail, "scan-fail", false, "simulated scans fail")

	root.AddCommand(newRunCmd(o))
	root.AddCommand(newTUICmd(o))
	root.AddCommand(newVersionCmd())
	return root
}

// load resolves the config and applies flag overrides on top of it.
func (o *options) load() (config.Config, error) {
	cfg, err := config.Load(o.device, o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.ssid != "" {
		cfg.Station.SSID, cfg.Station.Pass = o.ssid, o.pass
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

func (o *options) level(cfg config.Config) logging.LogLevel {
	lvl, _ := logging.ParseLevel(cfg.Log.Level) // validated by load
	return lvl
}

func (o *options) simOptions() sim.Options {
	return sim.Options{
		JoinAfterMs: uint32(o.joinAfter / time.Millisecond),
		RejectJoin:  o.rejectJoin,
		ScanAfterMs: uint32(o.scanAfter / time.Millisecond),
		ScanCount:   o.scanCount,
		ScanFail:    o.scanFail,
	}
}

func (o *options) radio(clock timex.Clock) *sim.Radio {
	return sim.New(clock, o.simOptions())
}
