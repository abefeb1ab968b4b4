package app

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/sigflash/internal/esptool"
	"github.com/buckleypaul/sigflash/internal/serial"
	"github.com/buckleypaul/sigflash/internal/session"
	"github.com/buckleypaul/sigflash/internal/ui"
)

type FocusArea int

const (
	FocusSidebar FocusArea = iota
	FocusContent
)

type Model struct {
	pages      map[PageID]Page
	activePage PageID
	focus      FocusArea
	width      int
	height     int
	notice     string

	ctrl   *session.Controller
	portCh <-chan []serial.Port
}

func New(pages map[PageID]Page, ctrl *session.Controller, portCh <-chan []serial.Port) Model {
	return Model{
		pages:  pages,
		ctrl:   ctrl,
		portCh: portCh,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		serial.WaitForChange(m.portCh),
		m.ctrl.RefreshPorts(),
		m.ctrl.RefreshVersions(),
	}
	for _, p := range m.pages {
		if cmd := p.Init(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		contentWidth := m.width - sidebarWidth
		contentHeight := m.height - 2 - 1 // status bar + selection bar
		for _, p := range m.pages {
			p.SetSize(contentWidth, contentHeight)
		}
		return m, nil

	case serial.PortsChangedMsg:
		m.ctrl.ReconcilePorts(msg.Ports)
		// Forward the snapshot to every page, then re-subscribe for the
		// next change.
		cmds := m.broadcast(msg)
		cmds = append(cmds, serial.WaitForChange(m.portCh))
		return m, tea.Batch(cmds...)

	case session.VersionsChangedMsg:
		m.ctrl.ReconcileVersions(msg.Versions)
		return m, tea.Batch(m.broadcast(msg)...)

	case esptool.FinishedMsg:
		m.notice = ""
		var cmds []tea.Cmd
		if cmd := m.ctrl.FinishJob(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
		cmds = append(cmds, m.broadcast(msg)...)
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		// When a page has an active text input, forward all keys directly
		// to the page; only ctrl+c still quits.
		if m.focus == FocusContent {
			if ic, ok := m.pages[m.activePage].(InputCapturer); ok && ic.InputCaptured() {
				if msg.String() == "ctrl+c" {
					return m, tea.Quit
				}
				page := m.pages[m.activePage]
				newPage, cmd := page.Update(msg)
				m.pages[m.activePage] = newPage
				return m, cmd
			}
		}

		switch {
		case key.Matches(msg, GlobalKeys.Quit):
			if m.ctrl.Busy() && msg.String() == "q" {
				// A started write cannot be interrupted; quitting now
				// would only detach the console from it.
				m.notice = "operation in progress - it cannot be cancelled once started"
				return m, nil
			}
			return m, tea.Quit
		case key.Matches(msg, GlobalKeys.ToggleFocus):
			if m.focus == FocusSidebar {
				m.focus = FocusContent
				return m, nil
			}
			m.focus = FocusSidebar
			return m, nil
		}

		if m.focus == FocusSidebar {
			switch msg.String() {
			case "up":
				m.prevPage()
				return m, nil
			case "down":
				m.nextPage()
				return m, nil
			case "enter", "right":
				m.focus = FocusContent
				return m, nil
			}
			return m, nil
		}

		if msg.String() == "left" {
			m.focus = FocusSidebar
			return m, nil
		}

		page := m.pages[m.activePage]
		newPage, cmd := page.Update(msg)
		m.pages[m.activePage] = newPage
		return m, cmd
	}

	// Non-key messages (output lines, connection events, etc.) go to all
	// pages so responses reach the page that initiated the command.
	return m, tea.Batch(m.broadcast(msg)...)
}

func (m Model) broadcast(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	for id, page := range m.pages {
		newPage, cmd := page.Update(msg)
		m.pages[id] = newPage
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	contentWidth := m.width - sidebarWidth
	contentHeight := m.height - 2 - 1

	page := m.pages[m.activePage]

	selectionBar := renderSelectionBar(m.ctrl, m.notice, m.width)
	sidebar := renderSidebar(PageOrder, m.activePage, m.pages, contentHeight, m.focus == FocusSidebar)
	content := ui.ContentStyle.
		Width(contentWidth).
		Height(contentHeight).
		Render(page.View())
	statusBar := renderStatusBar(page.ShortHelp(), m.width, m.focus)

	return renderLayout(selectionBar, sidebar, content, statusBar)
}

func (m *Model) nextPage() {
	for i, id := range PageOrder {
		if id == m.activePage {
			m.activePage = PageOrder[(i+1)%len(PageOrder)]
			return
		}
	}
}

func (m *Model) prevPage() {
	for i, id := range PageOrder {
		if id == m.activePage {
			m.activePage = PageOrder[(i-1+len(PageOrder))%len(PageOrder)]
			return
		}
	}
}
