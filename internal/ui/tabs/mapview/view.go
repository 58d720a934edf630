package mapview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/callmap/internal/ui/components"
	"github.com/j-veylop/callmap/internal/ui/styles"
)

// View renders the map tab.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	snap := m.state.GetSnapshot()
	if snap == nil {
		return m.renderEmpty()
	}

	m.canvas.SetCalls(m.state.GetVisible(), snap.Contracts)

	sections := []string{
		styles.MapFrameStyle.Render(m.canvas.View()),
		m.renderStatus(len(snap.Calls)),
		components.MapLegend(),
		m.renderPrompt(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderEmpty renders the tab before a dataset is available.
func (m *Model) renderEmpty() string {
	if m.state.IsInitialLoading() {
		return components.RenderLoading(m.spinner, m.datasetPath, m.width, m.height)
	}

	msg := "No dataset loaded"
	if err := m.state.GetLoadError(); err != nil {
		msg = styles.ErrorTextStyle.Render(err.Error())
	}
	hint := styles.HelpStyle.Render("Press ctrl+r to retry")
	return styles.CenterBoth(lipgloss.JoinVertical(lipgloss.Center, msg, "", hint), m.width, m.height)
}

// renderStatus renders the visible call count and the active filter chain.
func (m *Model) renderStatus(total int) string {
	visible := len(m.state.GetVisible())
	status := fmt.Sprintf("%s of %s calls  │  filters: %s",
		humanize.Comma(int64(visible)),
		humanize.Comma(int64(total)),
		m.state.GetFilterChain())
	return styles.StatusBarStyle.Width(m.width).Render(status)
}

// renderPrompt renders the filter query prompt, or a key hint when closed.
func (m *Model) renderPrompt() string {
	if !m.Capturing() {
		var hints []string
		for _, b := range m.ShortHelp() {
			hints = append(hints, styles.HelpKeyStyle.Render(b.Help().Key)+" "+styles.HelpDescStyle.Render(b.Help().Desc))
		}
		return strings.Join(hints, styles.HelpSeparatorStyle.Render(" • "))
	}

	label := styles.PromptStyle.Render(strings.ToUpper(m.filterKey))
	return label + " " + m.input.View()
}
