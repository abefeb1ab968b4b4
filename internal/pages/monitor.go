package pages

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/sigflash/internal/app"
	"github.com/buckleypaul/sigflash/internal/serial"
	"github.com/buckleypaul/sigflash/internal/session"
	"github.com/buckleypaul/sigflash/internal/ui"
)

type monitorConnectedMsg struct {
	err error
}

type monitorDataMsg struct {
	chunk string
}

// MonitorPage attaches to the selected port so the device's console can be
// watched after flashing or configuration. The console itself is the
// source of truth for connection state.
type MonitorPage struct {
	ctrl    *session.Controller
	console *serial.Console
	baud    int

	message string
	out     outputPane

	width, height int
}

func NewMonitorPage(ctrl *session.Controller, baud int) *MonitorPage {
	return &MonitorPage{
		ctrl:    ctrl,
		console: serial.NewConsole(),
		baud:    baud,
		out:     newOutputPane("Device output will appear here once connected..."),
	}
}

func (p *MonitorPage) Init() tea.Cmd { return nil }

func (p *MonitorPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case monitorConnectedMsg:
		if msg.err != nil {
			p.message = "Failed to connect: " + msg.err.Error()
			return p, nil
		}
		p.message = ""
		p.out.reset()
		return p, p.waitForData()

	case monitorDataMsg:
		if !p.console.Connected() {
			return p, nil
		}
		p.out.appendText(msg.chunk)
		return p, p.waitForData()

	case tea.KeyMsg:
		return p.handleKey(msg)
	}

	return p, p.out.update(msg)
}

func (p *MonitorPage) handleKey(msg tea.KeyMsg) (app.Page, tea.Cmd) {
	switch msg.String() {
	case "c":
		if p.console.Connected() {
			return p, nil
		}
		port, ok := p.ctrl.Port()
		if !ok {
			p.message = "Select a port on the Flash page first"
			return p, nil
		}
		if p.ctrl.Busy() {
			p.message = "Port is in use by the running operation"
			return p, nil
		}
		return p, p.connect(port.Device)
	case "d":
		if p.console.Connected() {
			p.console.Disconnect()
			p.message = "Disconnected"
		}
		return p, nil
	}
	return p, p.out.update(msg)
}

func (p *MonitorPage) connect(device string) tea.Cmd {
	console := p.console
	baud := p.baud
	return func() tea.Msg {
		if err := console.Connect(device, baud); err != nil {
			return monitorConnectedMsg{err: err}
		}
		return monitorConnectedMsg{}
	}
}

// waitForData subscribes to the current connection's channel. The channel
// closes when the connection ends, so stale subscriptions terminate
// instead of stacking across reconnects.
func (p *MonitorPage) waitForData() tea.Cmd {
	ch := p.console.Data()
	return func() tea.Msg {
		chunk, ok := <-ch
		if !ok {
			return nil
		}
		return monitorDataMsg{chunk: chunk}
	}
}

func (p *MonitorPage) View() string {
	outputHeight := p.height - 5
	if outputHeight < 5 {
		outputHeight = 5
	}

	header := ui.Title("Monitor") + "\n"
	var status string
	if p.console.Connected() {
		status = ui.SuccessStyle.Render(fmt.Sprintf("Connected to %s @ %d", p.console.Device(), p.baud))
	} else if p.message != "" {
		status = ui.WarningStyle.Render(p.message)
	} else {
		status = ui.DimStyle.Render("Disconnected")
	}

	return header + status + "\n" + p.out.view(p.width, outputHeight)
}

func (p *MonitorPage) Name() string { return "Monitor" }

func (p *MonitorPage) ShortHelp() []key.Binding {
	if p.console.Connected() {
		return []key.Binding{
			key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "disconnect")),
		}
	}
	return []key.Binding{
		key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "connect")),
	}
}

func (p *MonitorPage) SetSize(w, h int) {
	p.width = w
	p.height = h
}
