package pages

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/buckleypaul/sigflash/internal/app"
	"github.com/buckleypaul/sigflash/internal/esptool"
	"github.com/buckleypaul/sigflash/internal/firmware"
	"github.com/buckleypaul/sigflash/internal/serial"
	"github.com/buckleypaul/sigflash/internal/session"
	"github.com/buckleypaul/sigflash/internal/ui"
)

type flashState int

const (
	flashStateIdle flashState = iota
	flashStateRunning
	flashStateDone
)

type flashList int

const (
	listPorts flashList = iota
	listVersions
)

// FlashPage selects a port and firmware version and drives the write.
type FlashPage struct {
	ctrl *session.Controller

	ports         []serial.Port
	versions      []firmware.Version
	portCursor    int
	versionCursor int
	activeList    flashList

	state    flashState
	lastExit int
	message  string
	out      outputPane

	width, height int
}

func NewFlashPage(ctrl *session.Controller) *FlashPage {
	return &FlashPage{
		ctrl: ctrl,
		out:  newOutputPane("esptool output will appear here..."),
	}
}

func (p *FlashPage) Init() tea.Cmd { return nil }

func (p *FlashPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case serial.PortsChangedMsg:
		p.ports = msg.Ports
		p.clampCursors()
		return p, nil

	case session.VersionsChangedMsg:
		p.versions = msg.Versions
		p.clampCursors()
		return p, nil

	case esptool.OutputMsg:
		if p.state == flashStateRunning {
			p.out.appendLine(msg.Line)
		}
		return p, nil

	case esptool.FinishedMsg:
		if p.state != flashStateRunning {
			return p, nil
		}
		p.state = flashStateDone
		p.lastExit = msg.ExitCode
		if msg.ExitCode == 0 {
			p.message = fmt.Sprintf("Flashing completed successfully in %s", msg.Duration.Round(time.Second))
		} else {
			p.message = fmt.Sprintf("Flashing failed (exit code %d) - check the output", msg.ExitCode)
		}
		p.out.appendLine("")
		p.out.appendLine(p.message)
		return p, nil

	case tea.KeyMsg:
		return p.handleKey(msg)
	}

	return p, p.out.update(msg)
}

func (p *FlashPage) handleKey(msg tea.KeyMsg) (app.Page, tea.Cmd) {
	if p.state == flashStateRunning {
		// Only scrolling while the write is in flight; there is no way to
		// interrupt it.
		return p, p.out.update(msg)
	}

	switch msg.String() {
	case "up":
		p.moveCursor(-1)
	case "down":
		p.moveCursor(1)
	case "right":
		p.activeList = listVersions
	case "left":
		p.activeList = listPorts
	case "enter", " ":
		p.applySelection()
	case "f":
		return p, p.startFlash()
	case "r":
		return p, tea.Batch(p.ctrl.RefreshPorts(), p.ctrl.RefreshVersions())
	case "esc":
		if p.state == flashStateDone {
			p.state = flashStateIdle
			p.message = ""
			p.out.reset()
		}
	default:
		return p, p.out.update(msg)
	}
	return p, nil
}

func (p *FlashPage) moveCursor(dir int) {
	switch p.activeList {
	case listPorts:
		p.portCursor = clamp(p.portCursor+dir, len(p.ports))
	case listVersions:
		p.versionCursor = clamp(p.versionCursor+dir, len(p.versions))
	}
}

func (p *FlashPage) applySelection() {
	switch p.activeList {
	case listPorts:
		if p.portCursor < len(p.ports) {
			p.ctrl.SelectPort(p.ports[p.portCursor])
		}
	case listVersions:
		if p.versionCursor < len(p.versions) {
			files := p.ctrl.SelectVersion(p.versions[p.versionCursor])
			if missing := files.Missing(); len(missing) > 0 {
				p.message = "Version incomplete - missing: " + firmware.RoleNames(missing)
			} else {
				p.message = ""
			}
		}
	}
}

func (p *FlashPage) startFlash() tea.Cmd {
	_, err := p.ctrl.StartFlash()
	if err != nil {
		p.message = err.Error()
		return nil
	}

	version, _ := p.ctrl.Version()
	port, _ := p.ctrl.Port()
	p.state = flashStateRunning
	p.message = "Flashing in progress..."
	p.out.reset()
	p.out.appendLine(fmt.Sprintf("Flashing %s to %s...", version.Name, port.Device))
	p.out.appendLine("")
	// Output and completion arrive as esptool messages.
	return nil
}

func (p *FlashPage) clampCursors() {
	p.portCursor = clamp(p.portCursor, len(p.ports))
	p.versionCursor = clamp(p.versionCursor, len(p.versions))
}

func clamp(v, n int) int {
	if n == 0 {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

func (p *FlashPage) View() string {
	listHeight := 10
	outputHeight := p.height - listHeight - 4
	if outputHeight < 5 {
		outputHeight = 5
	}

	var b strings.Builder
	b.WriteString(ui.Title("Flash"))
	b.WriteString("\n")

	columnWidth := (p.width - 4) / 2
	portsCol := p.viewPortList(columnWidth)
	versionsCol := p.viewVersionList(columnWidth)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, portsCol, "  ", versionsCol))
	b.WriteString("\n")
	b.WriteString(p.viewFileSet())
	b.WriteString("\n")

	if p.message != "" {
		style := ui.DimStyle
		switch {
		case p.state == flashStateDone && p.lastExit == 0:
			style = ui.SuccessStyle
		case p.state == flashStateDone, strings.Contains(p.message, "missing"):
			style = ui.ErrorStyle
		}
		b.WriteString(style.Render(p.message))
	}
	b.WriteString("\n")
	b.WriteString(p.out.view(p.width, outputHeight))
	return b.String()
}

func (p *FlashPage) viewPortList(width int) string {
	var b strings.Builder
	header := "Ports"
	if p.activeList == listPorts {
		header = ui.BoldStyle.Render(header)
	} else {
		header = ui.DimStyle.Render(header)
	}
	b.WriteString(header + "\n")

	if len(p.ports) == 0 {
		b.WriteString(ui.DimStyle.Render("  (no serial devices)"))
		return b.String()
	}

	selected, hasSelected := p.ctrl.Port()
	for i, port := range p.ports {
		line := port.Label()
		if len(line) > width-4 && width > 7 {
			line = line[:width-7] + "..."
		}
		prefix := "  "
		if hasSelected && port == selected {
			prefix = ui.SuccessStyle.Render("* ")
		}
		if p.activeList == listPorts && i == p.portCursor {
			b.WriteString(prefix + ui.SidebarActiveStyle.Render(line))
		} else {
			b.WriteString(prefix + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (p *FlashPage) viewVersionList(width int) string {
	var b strings.Builder
	header := "Firmware versions"
	if p.activeList == listVersions {
		header = ui.BoldStyle.Render(header)
	} else {
		header = ui.DimStyle.Render(header)
	}
	b.WriteString(header + "\n")

	if len(p.versions) == 0 {
		b.WriteString(ui.DimStyle.Render("  (no versions in firmware root)"))
		return b.String()
	}

	selected, hasSelected := p.ctrl.Version()
	for i, v := range p.versions {
		prefix := "  "
		if hasSelected && v.Name == selected.Name {
			prefix = ui.SuccessStyle.Render("* ")
		}
		if p.activeList == listVersions && i == p.versionCursor {
			b.WriteString(prefix + ui.SidebarActiveStyle.Render(v.Name))
		} else {
			b.WriteString(prefix + v.Name)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (p *FlashPage) viewFileSet() string {
	if _, ok := p.ctrl.Version(); !ok {
		return ""
	}
	files := p.ctrl.Files()

	var parts []string
	for _, role := range firmware.RequiredRoles {
		if _, ok := files[role]; ok {
			parts = append(parts, ui.SuccessStyle.Render("✓ "+string(role)))
		} else {
			parts = append(parts, ui.ErrorStyle.Render("✗ "+string(role)))
		}
	}
	return strings.Join(parts, "  ")
}

func (p *FlashPage) Name() string { return "Flash" }

func (p *FlashPage) ShortHelp() []key.Binding {
	if p.state == flashStateRunning {
		return []key.Binding{
			key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "scroll")),
		}
	}
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "flash")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	}
}

func (p *FlashPage) SetSize(w, h int) {
	p.width = w
	p.height = h
}
