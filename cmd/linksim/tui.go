package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"devicelink-go/bus"
	"devicelink-go/pkg/logging"
	"devicelink-go/services/config"
	"devicelink-go/services/link"
	"devicelink-go/services/radio/sim"
	"devicelink-go/types"
	"devicelink-go/x/timex"
)

const maxLogLines = 12

func newTUICmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Drive the loop interactively",
		Long: `tui shows the status light, station and scan state live. Keys start
joins and scans, change brightness and toggle simulated radio faults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load()
			if err != nil {
				return err
			}
			logCh := logging.InitForTUI(o.level(cfg))
			clock := timex.NewSystem()
			m := newModel(cfg, o.radio(clock), clock, logCh)
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}

// -----------------------------------------------------------------------------
// Keys
// -----------------------------------------------------------------------------

type keyMap struct {
	Connect    key.Binding
	Scan       key.Binding
	Brighter   key.Binding
	Dimmer     key.Binding
	Enable     key.Binding
	RejectJoin key.Binding
	ScanFail   key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Connect:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "join station")),
		Scan:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "scan")),
		Brighter:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "brighter")),
		Dimmer:     key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "dimmer")),
		Enable:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "light on/off")),
		RejectJoin: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "toggle join rejection")),
		ScanFail:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "toggle scan failure")),
		Help:       key.NewBinding(key.WithKeys("h", "?"), key.WithHelp("h", "toggle help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q/ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Connect, k.Scan, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Connect, k.Scan},
		{k.Brighter, k.Dimmer, k.Enable},
		{k.RejectJoin, k.ScanFail, k.Help, k.Quit},
	}
}

// -----------------------------------------------------------------------------
// Model
// -----------------------------------------------------------------------------

type tickMsg time.Time

type logMsg logging.LogEntry

type model struct {
	cfg   config.Config
	svc   *link.Service
	radio *sim.Radio
	ctrl  *bus.Connection
	evSub *bus.Subscription
	logCh <-chan logging.LogEntry

	led      types.RGB
	lines    []string
	keys     keyMap
	help     help.Model
	interval time.Duration
}

func newModel(cfg config.Config, r *sim.Radio, clock timex.Clock, logCh <-chan logging.LogEntry) *model {
	b := bus.NewBus(32)
	m := &model{
		cfg:      cfg,
		radio:    r,
		ctrl:     b.NewConnection("tui"),
		logCh:    logCh,
		keys:     defaultKeyMap(),
		help:     help.New(),
		interval: cfg.Loop.Interval,
	}
	m.svc = link.New(cfg, r, m, clock, b.NewConnection("link"))
	m.evSub = m.ctrl.Subscribe(link.EventTopic("+"))
	return m
}

// WriteRGB makes the model the indicator's sink.
func (m *model) WriteRGB(r, g, b uint8) error {
	m.led = types.RGB{R: r, G: g, B: b}
	return nil
}

func (m *model) Init() tea.Cmd {
	m.svc.Start()
	return tea.Batch(m.tick(), m.listenForLogs())
}

func (m *model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *model) listenForLogs() tea.Cmd {
	if m.logCh == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-m.logCh
		if !ok {
			return nil
		}
		return logMsg(e)
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.svc.Tick()
		m.drainEvents()
		return m, m.tick()
	case logMsg:
		line := fmt.Sprintf("[%s] %s %s: %s", msg.Timestamp.Format("15:04:05"), msg.Level, msg.Subsystem, msg.Message)
		if msg.Err != nil {
			line += " (" + msg.Err.Error() + ")"
		}
		m.appendLine(line)
		return m, m.listenForLogs()
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.svc.Stop()
		return tea.Quit
	case key.Matches(msg, m.keys.Connect):
		ssid := m.cfg.Station.SSID
		if ssid == "" {
			ssid = "devicelink-lab"
		}
		m.control(link.CtrlConnect, types.ConnectRequest{SSID: ssid, Pass: m.cfg.Station.Pass})
	case key.Matches(msg, m.keys.Scan):
		m.control(link.CtrlScan, types.ScanRequest{})
	case key.Matches(msg, m.keys.Brighter):
		m.control(link.CtrlBrightness, types.BrightnessSet{Percent: m.svc.Indicator.Brightness() + 10})
	case key.Matches(msg, m.keys.Dimmer):
		m.control(link.CtrlBrightness, types.BrightnessSet{Percent: m.svc.Indicator.Brightness() - 10})
	case key.Matches(msg, m.keys.Enable):
		m.control(link.CtrlEnable, types.EnableSet{On: !m.svc.Indicator.Enabled()})
	case key.Matches(msg, m.keys.RejectJoin):
		o := m.radio.Options()
		o.RejectJoin = !o.RejectJoin
		m.radio.SetOptions(o)
		m.appendLine(fmt.Sprintf("sim: reject join = %v", o.RejectJoin))
	case key.Matches(msg, m.keys.ScanFail):
		o := m.radio.Options()
		o.ScanFail = !o.ScanFail
		m.radio.SetOptions(o)
		m.appendLine(fmt.Sprintf("sim: scan failure = %v", o.ScanFail))
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

// control queues a request; the service handles it on its next Tick.
func (m *model) control(name string, payload any) {
	m.ctrl.Publish(m.ctrl.NewMessage(link.ControlTopic(name), payload, false))
}

func (m *model) drainEvents() {
	for {
		msg, ok := m.evSub.TryRecv()
		if !ok {
			return
		}
		if ev, ok := msg.Payload.(types.LinkEvent); ok {
			m.appendLine(formatEvent(ev))
		}
	}
}

func (m *model) appendLine(s string) {
	m.lines = append(m.lines, s)
	if len(m.lines) > maxLogLines {
		m.lines = m.lines[len(m.lines)-maxLogLines:]
	}
}

// -----------------------------------------------------------------------------
// View
// -----------------------------------------------------------------------------

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(11)
	logStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

func swatch(c types.RGB) string {
	hex := fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Width(8).Height(3).Render("")
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

func (m *model) View() string {
	snap := m.svc.Snapshot()

	light := panelStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render("light"),
		swatch(m.led),
		fmt.Sprintf("%s %d%%", snap.Indicator.Status, snap.Indicator.Brightness),
	))

	target := snap.Station.Target
	if target == "" {
		target = "-"
	}
	bcast := "down"
	if m.radio.Broadcasting() {
		bcast = m.radio.BroadcastName()
	}
	state := panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("link"),
		row("station", snap.Station.Phase),
		row("target", target),
		row("mode", m.radio.Mode().String()),
		row("broadcast", bcast),
		row("scan", fmt.Sprintf("%s (%d)", snap.Scan.Phase, snap.Scan.Networks)),
	))

	logs := panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("activity"),
		logStyle.Render(strings.Join(m.lines, "\n")),
	))

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, light, state),
		logs,
		m.help.View(m.keys),
	)
}
