package pages

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/sigflash/internal/app"
	"github.com/buckleypaul/sigflash/internal/esptool"
	"github.com/buckleypaul/sigflash/internal/serial"
	"github.com/buckleypaul/sigflash/internal/session"
	"github.com/buckleypaul/sigflash/internal/ui"
)

type configureState int

const (
	configureStateIdle configureState = iota
	configureStateRunning
	configureStateDone
)

type configureField int

const (
	fieldSignalName configureField = iota
	fieldSignalID
	configureFieldCount
)

// ConfigurePage assigns a signal name and numeric ID to the device on the
// selected port, then verifies it with a chip-id query.
type ConfigurePage struct {
	ctrl *session.Controller

	nameInput textinput.Model
	idInput   textinput.Model
	focused   configureField

	state    configureState
	lastExit int
	message  string
	out      outputPane

	width, height int
}

func NewConfigurePage(ctrl *session.Controller) *ConfigurePage {
	name := textinput.New()
	name.Placeholder = "e.g. Sensor-A"
	name.CharLimit = 64
	name.Prompt = ""
	name.Focus()

	id := textinput.New()
	id.Placeholder = "0-999"
	id.CharLimit = serial.MaxSignalIDLen
	id.Prompt = ""

	return &ConfigurePage{
		ctrl:      ctrl,
		nameInput: name,
		idInput:   id,
		out:       newOutputPane("Configuration exchange will appear here..."),
	}
}

func (p *ConfigurePage) Init() tea.Cmd { return nil }

func (p *ConfigurePage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case esptool.OutputMsg:
		if p.state == configureStateRunning {
			p.out.appendLine(msg.Line)
		}
		return p, nil

	case esptool.FinishedMsg:
		if p.state != configureStateRunning {
			return p, nil
		}
		p.state = configureStateDone
		p.lastExit = msg.ExitCode
		if msg.ExitCode == 0 {
			p.message = "Name and ID set successfully!"
		} else {
			p.message = "Failed to configure device - it did not respond after reset"
		}
		p.out.appendLine("")
		p.out.appendLine(p.message)
		return p, nil

	case tea.KeyMsg:
		return p.handleKey(msg)
	}

	return p, p.out.update(msg)
}

func (p *ConfigurePage) handleKey(msg tea.KeyMsg) (app.Page, tea.Cmd) {
	if p.state == configureStateRunning {
		return p, p.out.update(msg)
	}

	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		p.advanceField()
		return p, nil
	case "enter":
		return p, p.startConfigure()
	case "esc":
		if p.state == configureStateDone {
			p.state = configureStateIdle
			p.message = ""
			p.out.reset()
			return p, nil
		}
		p.nameInput.Blur()
		p.idInput.Blur()
		return p, nil
	}

	var cmd tea.Cmd
	switch p.focused {
	case fieldSignalName:
		p.nameInput, cmd = p.nameInput.Update(msg)
	case fieldSignalID:
		p.idInput, cmd = p.idInput.Update(msg)
	}
	return p, cmd
}

func (p *ConfigurePage) advanceField() {
	switch p.focused {
	case fieldSignalName:
		p.nameInput.Blur()
		p.idInput.Focus()
		p.focused = fieldSignalID
	case fieldSignalID:
		p.idInput.Blur()
		p.nameInput.Focus()
		p.focused = fieldSignalName
	}
}

func (p *ConfigurePage) startConfigure() tea.Cmd {
	_, err := p.ctrl.StartConfigure(p.nameInput.Value(), p.idInput.Value())
	if err != nil {
		p.message = err.Error()
		return nil
	}

	port, _ := p.ctrl.Port()
	p.state = configureStateRunning
	p.message = "Configuring device..."
	p.out.reset()
	p.out.appendLine(fmt.Sprintf("Configuring device on %s...", port.Device))
	return nil
}

func (p *ConfigurePage) View() string {
	outputHeight := p.height - 10
	if outputHeight < 5 {
		outputHeight = 5
	}

	var b strings.Builder
	b.WriteString(ui.Title("Configure"))
	b.WriteString("\n")

	inputWidth := p.width - 14
	if inputWidth < 10 {
		inputWidth = 10
	}
	p.nameInput.Width = inputWidth
	p.idInput.Width = inputWidth

	b.WriteString(p.renderLabel("Name", fieldSignalName) + " " + p.nameInput.View() + "\n")
	b.WriteString(p.renderLabel("ID", fieldSignalID) + " " + p.idInput.View() + "\n\n")

	if port, ok := p.ctrl.Port(); ok {
		b.WriteString(ui.DimStyle.Render("Target: "+port.Label()) + "\n")
	} else {
		b.WriteString(ui.WarningStyle.Render("Select a port on the Flash page first") + "\n")
	}

	if p.message != "" {
		style := ui.DimStyle
		switch {
		case p.state == configureStateDone && p.lastExit == 0:
			style = ui.SuccessStyle
		case p.state == configureStateDone:
			style = ui.ErrorStyle
		}
		b.WriteString(style.Render(p.message) + "\n")
	}

	b.WriteString(p.out.view(p.width, outputHeight))
	return b.String()
}

func (p *ConfigurePage) renderLabel(name string, field configureField) string {
	padded := fmt.Sprintf("%-9s", name)
	if p.focused == field {
		return ui.BoldStyle.Foreground(ui.Primary).Render(padded)
	}
	return padded
}

func (p *ConfigurePage) Name() string { return "Configure" }

func (p *ConfigurePage) ShortHelp() []key.Binding {
	if p.state == configureStateRunning {
		return []key.Binding{
			key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "scroll")),
		}
	}
	return []key.Binding{
		key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "configure")),
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "unfocus")),
	}
}

func (p *ConfigurePage) InputCaptured() bool {
	return p.state == configureStateIdle &&
		(p.nameInput.Focused() || p.idInput.Focused())
}

func (p *ConfigurePage) SetSize(w, h int) {
	p.width = w
	p.height = h
}
