//go:build tinygo

package main

import (
	"machine"
	"time"

	"tinygo.org/x/drivers/netlink/probe"

	"devicelink-go/services/config"
	"devicelink-go/services/indicator"
	"devicelink-go/services/link"
	"devicelink-go/services/radio/netlinkadpt"
	"devicelink-go/x/timex"
)

// onboard LED lights when any channel passes half scale
func ledSink(pin machine.Pin) indicator.Sink {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return indicator.SinkFunc(func(r, g, b uint8) error {
		pin.Set(r >= 128 || g >= 128 || b >= 128)
		return nil
	})
}

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	cfg, err := config.Load("pico", "")
	if err != nil {
		println("config:", err.Error())
		cfg = config.Defaults()
	}

	nl, _ := probe.Probe()
	clock := timex.NewSystem()
	svc := link.New(cfg, netlinkadpt.New(nl, cfg.ConnectTimeout), ledSink(machine.LED), clock, nil)
	svc.Start()

	tick := time.NewTicker(cfg.Loop.Interval)
	defer tick.Stop()

	for range tick.C {
		svc.Tick()
	}
}
