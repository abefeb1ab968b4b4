package pages

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/sigflash/internal/app"
	"github.com/buckleypaul/sigflash/internal/config"
	"github.com/buckleypaul/sigflash/internal/session"
	"github.com/buckleypaul/sigflash/internal/ui"
)

type settingField struct {
	label string
	key   string
}

var settingFields = []settingField{
	{"Firmware Root", "firmware_root"},
	{"Serial Port", "serial_port"},
	{"Serial Baud Rate", "serial_baud_rate"},
	{"Esptool Path", "esptool_path"},
}

// SettingsPage edits the persisted configuration.
type SettingsPage struct {
	cfg     *config.Config
	ctrl    *session.Controller
	root    string
	cursor  int
	editing bool
	input   textinput.Model
	message string

	width, height int
}

func NewSettingsPage(cfg *config.Config, ctrl *session.Controller, root string) *SettingsPage {
	ti := textinput.New()
	ti.CharLimit = 256
	return &SettingsPage{
		cfg:   cfg,
		ctrl:  ctrl,
		root:  root,
		input: ti,
	}
}

func (p *SettingsPage) Init() tea.Cmd { return nil }

func (p *SettingsPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}

	if p.editing {
		switch keyMsg.String() {
		case "enter":
			changedRoot, err := p.applyValue(p.input.Value())
			p.editing = false
			p.input.Blur()
			if err != nil {
				p.message = err.Error()
				return p, nil
			}
			if err := config.Save(*p.cfg, p.root, false); err != nil {
				p.message = "Failed to save: " + err.Error()
				return p, nil
			}
			p.message = "Saved"
			if changedRoot {
				// New firmware root: the version list must be re-read.
				return p, p.ctrl.RefreshVersions()
			}
			return p, nil
		case "esc":
			p.editing = false
			p.input.Blur()
			return p, nil
		}
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(keyMsg)
		return p, cmd
	}

	switch keyMsg.String() {
	case "up":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down":
		if p.cursor < len(settingFields)-1 {
			p.cursor++
		}
	case "enter":
		p.editing = true
		p.input.SetValue(p.currentValue())
		p.input.Focus()
	}
	return p, nil
}

func (p *SettingsPage) currentValue() string {
	switch settingFields[p.cursor].key {
	case "firmware_root":
		return p.cfg.FirmwareRoot
	case "serial_port":
		return p.cfg.SerialPort
	case "serial_baud_rate":
		return strconv.Itoa(p.cfg.SerialBaudRate)
	case "esptool_path":
		return p.cfg.EsptoolPath
	}
	return ""
}

// applyValue writes the edited value back and reports whether the
// firmware root changed.
func (p *SettingsPage) applyValue(v string) (bool, error) {
	switch settingFields[p.cursor].key {
	case "firmware_root":
		changed := v != p.cfg.FirmwareRoot
		p.cfg.FirmwareRoot = v
		return changed, nil
	case "serial_port":
		p.cfg.SerialPort = v
	case "serial_baud_rate":
		rate, err := strconv.Atoi(v)
		if err != nil || rate <= 0 {
			return false, errors.New("baud rate must be a positive number")
		}
		p.cfg.SerialBaudRate = rate
	case "esptool_path":
		p.cfg.EsptoolPath = v
	}
	return false, nil
}

func (p *SettingsPage) View() string {
	var b strings.Builder
	b.WriteString(ui.Title("Settings"))
	b.WriteString("\n")

	for i, f := range settingFields {
		cursor := "  "
		if i == p.cursor {
			cursor = ui.SidebarActiveStyle.Render("▸ ")
		}
		label := fmt.Sprintf("%-18s", f.label)

		if p.editing && i == p.cursor {
			b.WriteString(cursor + label + p.input.View() + "\n")
			continue
		}

		value := p.valueAt(i)
		if value == "" {
			value = ui.DimStyle.Render("(unset)")
		}
		b.WriteString(cursor + label + value + "\n")
	}

	b.WriteString("\n")
	if p.message != "" {
		b.WriteString(ui.DimStyle.Render(p.message) + "\n")
	}
	b.WriteString(ui.DimStyle.Render("enter: edit/save  esc: cancel"))
	return b.String()
}

func (p *SettingsPage) valueAt(i int) string {
	prev := p.cursor
	p.cursor = i
	v := p.currentValue()
	p.cursor = prev
	return v
}

func (p *SettingsPage) Name() string { return "Settings" }

func (p *SettingsPage) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "navigate")),
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit")),
	}
}

func (p *SettingsPage) InputCaptured() bool { return p.editing }

func (p *SettingsPage) SetSize(w, h int) {
	p.width = w
	p.height = h
}
