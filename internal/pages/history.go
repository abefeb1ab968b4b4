package pages

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/sigflash/internal/app"
	"github.com/buckleypaul/sigflash/internal/esptool"
	"github.com/buckleypaul/sigflash/internal/store"
	"github.com/buckleypaul/sigflash/internal/ui"
)

const historyLimit = 20

type historyLoadedMsg struct {
	flashes    []store.FlashRecord
	configures []store.ConfigureRecord
	err        error
}

// HistoryPage lists past flash and configuration operations.
type HistoryPage struct {
	st *store.Store

	flashes    []store.FlashRecord
	configures []store.ConfigureRecord
	message    string

	width, height int
}

func NewHistoryPage(st *store.Store) *HistoryPage {
	return &HistoryPage{st: st}
}

func (p *HistoryPage) Init() tea.Cmd {
	return p.load()
}

func (p *HistoryPage) load() tea.Cmd {
	st := p.st
	return func() tea.Msg {
		flashes, err := st.Flashes()
		if err != nil {
			return historyLoadedMsg{err: err}
		}
		configures, err := st.Configures()
		if err != nil {
			return historyLoadedMsg{err: err}
		}
		return historyLoadedMsg{flashes: flashes, configures: configures}
	}
}

func (p *HistoryPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.err != nil {
			p.message = "Failed to load history: " + msg.err.Error()
			return p, nil
		}
		p.message = ""
		p.flashes = msg.flashes
		p.configures = msg.configures
		return p, nil

	case esptool.FinishedMsg:
		// A completed operation was just recorded.
		return p, p.load()

	case tea.KeyMsg:
		if msg.String() == "r" {
			return p, p.load()
		}
	}
	return p, nil
}

func (p *HistoryPage) View() string {
	var b strings.Builder
	b.WriteString(ui.Title("History"))
	b.WriteString("\n")

	if p.message != "" {
		b.WriteString(ui.ErrorStyle.Render(p.message) + "\n\n")
	}

	b.WriteString(ui.BoldStyle.Render("Flashes") + "\n")
	if len(p.flashes) == 0 {
		b.WriteString(ui.DimStyle.Render("  (none yet)") + "\n")
	}
	for _, r := range tail(p.flashes) {
		b.WriteString(fmt.Sprintf("  %s  %-12s %-20s %s\n",
			r.Timestamp.Format("2006-01-02 15:04"),
			r.Version, r.Port, statusBadge(r.Success)))
	}

	b.WriteString("\n" + ui.BoldStyle.Render("Configurations") + "\n")
	if len(p.configures) == 0 {
		b.WriteString(ui.DimStyle.Render("  (none yet)") + "\n")
	}
	for _, r := range tail(p.configures) {
		b.WriteString(fmt.Sprintf("  %s  id=%-4s %-16s %-20s %s\n",
			r.Timestamp.Format("2006-01-02 15:04"),
			r.SignalID, r.SignalName, r.Port, statusBadge(r.Success)))
	}

	return b.String()
}

// tail returns the most recent records, newest last.
func tail[T any](records []T) []T {
	if len(records) > historyLimit {
		return records[len(records)-historyLimit:]
	}
	return records
}

func statusBadge(success bool) string {
	if success {
		return ui.SuccessBadge("OK")
	}
	return ui.ErrorBadge("FAIL")
}

func (p *HistoryPage) Name() string { return "History" }

func (p *HistoryPage) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	}
}

func (p *HistoryPage) SetSize(w, h int) {
	p.width = w
	p.height = h
}
