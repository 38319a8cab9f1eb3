package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"devicelink-go/bus"
	"devicelink-go/pkg/logging"
	"devicelink-go/services/config"
	"devicelink-go/services/indicator"
	"devicelink-go/services/link"
	"devicelink-go/types"
	"devicelink-go/x/timex"
)

func newRunCmd(o *options) *cobra.Command {
	var (
		duration time.Duration
		scan     bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the loop headless and print link events",
		Long: `run starts the link service on a simulated radio and prints every
connector and scanner event until interrupted or --duration elapses.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load()
			if err != nil {
				return err
			}
			logging.InitForCLI(o.level(cfg), cmd.ErrOrStderr())

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}
			return runHeadless(ctx, cfg, o, scan, cmd.OutOrStdout())
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop after this long (0 = until interrupted)")
	cmd.Flags().BoolVar(&scan, "scan", false, "request a network scan at start")
	return cmd
}

func runHeadless(ctx context.Context, cfg config.Config, o *options, scan bool, out io.Writer) error {
	clock := timex.NewSystem()
	b := bus.NewBus(32)

	cfgCtx := context.WithValue(ctx, config.CtxDeviceKey, cfg.Device)
	if err := config.NewConfigService(cfg).Start(cfgCtx, b.NewConnection("config")); err != nil {
		return err
	}

	var led types.RGB
	sink := indicator.SinkFunc(func(r, g, bl uint8) error {
		led = types.RGB{R: r, G: g, B: bl}
		return nil
	})
	svc := link.New(cfg, o.radio(clock), sink, clock, b.NewConnection("link"))

	mon := b.NewConnection("monitor")
	events := mon.Subscribe(link.EventTopic("+"))
	defer mon.Disconnect()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for m := range events.Channel() {
			if ev, ok := m.Payload.(types.LinkEvent); ok {
				fmt.Fprintln(out, formatEvent(ev))
			}
		}
	}()

	svc.Start()
	if scan {
		mon.Publish(mon.NewMessage(link.ControlTopic(link.CtrlScan), types.ScanRequest{}, false))
	}

	err := svc.Run(ctx)
	mon.Disconnect()
	<-done

	snap := svc.Snapshot()
	fmt.Fprintf(out, "final: station=%s target=%q scan=%s networks=%d light=%s rgb(%d,%d,%d)\n",
		snap.Station.Phase, snap.Station.Target, snap.Scan.Phase, snap.Scan.Networks,
		snap.Indicator.Status, led.R, led.G, led.B)

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func formatEvent(ev types.LinkEvent) string {
	s := fmt.Sprintf("%8dms %-11s", ev.TS, ev.Name)
	if ev.Target != "" {
		s += fmt.Sprintf(" target=%q", ev.Target)
	}
	if ev.Name == link.EvScanDone {
		s += fmt.Sprintf(" networks=%d", ev.Networks)
	}
	if ev.Error != "" {
		s += " error=" + ev.Error
	}
	return s
}
