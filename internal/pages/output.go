package pages

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wrap"

	"github.com/buckleypaul/sigflash/internal/ui"
)

// outputPane accumulates streamed operation output in a scrollable,
// bordered viewport. Flash and Configure both render one.
type outputPane struct {
	viewport    viewport.Model
	buf         strings.Builder
	placeholder string
}

func newOutputPane(placeholder string) outputPane {
	return outputPane{
		viewport:    viewport.New(0, 0),
		placeholder: placeholder,
	}
}

func (o *outputPane) appendLine(line string) {
	o.buf.WriteString(line)
	o.buf.WriteString("\n")
	o.refresh()
	o.viewport.GotoBottom()
}

// appendText writes raw data as-is, for chunked serial output that
// carries its own newlines.
func (o *outputPane) appendText(s string) {
	o.buf.WriteString(s)
	o.refresh()
	o.viewport.GotoBottom()
}

func (o *outputPane) reset() {
	o.buf.Reset()
	o.refresh()
}

func (o *outputPane) empty() bool {
	return o.buf.Len() == 0
}

func (o *outputPane) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	o.viewport, cmd = o.viewport.Update(msg)
	return cmd
}

// refresh re-wraps the buffer for the current viewport width. Hard wrap
// handles long paths and esptool progress lines without spaces;
// remaining overlong lines are truncated ANSI-aware.
func (o *outputPane) refresh() {
	if o.viewport.Width <= 0 {
		o.viewport.SetContent(o.buf.String())
		return
	}
	wrapped := wrap.String(o.buf.String(), o.viewport.Width)
	lines := strings.Split(wrapped, "\n")
	for i, line := range lines {
		if ansi.PrintableRuneWidth(line) > o.viewport.Width {
			lines[i] = truncate.String(line, uint(o.viewport.Width))
		}
	}
	o.viewport.SetContent(strings.Join(lines, "\n"))
}

func (o *outputPane) view(width, height int) string {
	contentWidth := width - 3
	contentHeight := height - 2
	if contentWidth < 10 {
		contentWidth = 10
	}
	if contentHeight < 3 {
		contentHeight = 3
	}

	oldWidth := o.viewport.Width
	o.viewport.Width = contentWidth
	o.viewport.Height = contentHeight
	if oldWidth != contentWidth && !o.empty() {
		o.refresh()
	}

	style := lipgloss.NewStyle().
		Width(width).
		Height(height).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderTop(true).
		BorderForeground(ui.Surface).
		PaddingLeft(1)

	if o.empty() {
		return style.Render(ui.DimStyle.Render(o.placeholder))
	}
	return style.Render(o.viewport.View())
}
