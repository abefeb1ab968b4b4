package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/buckleypaul/sigflash/internal/session"
	"github.com/buckleypaul/sigflash/internal/ui"
)

const sidebarWidth = 20 // 18 content + 2 border/padding

func renderSelectionBar(ctrl *session.Controller, notice string, width int) string {
	portDisplay := "(none)"
	if port, ok := ctrl.Port(); ok {
		portDisplay = port.Label()
	}
	versionDisplay := "(none)"
	if version, ok := ctrl.Version(); ok {
		versionDisplay = version.Name
	}

	content := fmt.Sprintf("Port: %s  Version: %s", portDisplay, versionDisplay)
	if ctrl.Busy() {
		content += "  " + ui.WarningStyle.Render("[busy]")
	}
	if notice != "" {
		content += "  " + ui.WarningStyle.Render(notice)
	}
	return ui.StatusBarStyle.Width(width).Render(content)
}

func renderSidebar(pages []PageID, active PageID, pageMap map[PageID]Page, height int, focused bool) string {
	var b strings.Builder
	if focused {
		b.WriteString(ui.BoldStyle.Render("sigflash"))
	} else {
		b.WriteString(ui.TitleStyle.Render("sigflash"))
	}
	b.WriteString("\n\n")

	for _, id := range pages {
		p := pageMap[id]
		if id == active {
			b.WriteString(ui.SidebarActiveStyle.Render("▸ " + p.Name()))
		} else {
			b.WriteString(ui.SidebarItemStyle.Render("  " + p.Name()))
		}
		b.WriteString("\n")
	}

	style := ui.SidebarStyle.Height(height)
	if focused {
		style = style.BorderForeground(ui.Primary)
	}
	return style.Render(b.String())
}

func renderStatusBar(pageHelp []key.Binding, width int, focus FocusArea) string {
	var parts []string

	if focus == FocusSidebar {
		parts = append(parts,
			ui.StatusKey("↑/↓", "navigate"),
			ui.StatusKey("enter", "select"),
		)
	} else {
		for _, kb := range pageHelp {
			if kb.Enabled() {
				parts = append(parts, ui.StatusKey(kb.Help().Key, kb.Help().Desc))
			}
		}
	}

	parts = append(parts,
		ui.StatusKey("tab", "focus"),
		ui.StatusKey("q", "quit"),
	)

	line := strings.Join(parts, "  ")
	return ui.StatusBarStyle.Width(width).Render(line)
}

func renderLayout(selectionBar, sidebar, content, statusBar string) string {
	main := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, content)
	return lipgloss.JoinVertical(lipgloss.Left, selectionBar, main, statusBar)
}
