package history

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/callmap/internal/models"
	"github.com/j-veylop/callmap/internal/services"
	"github.com/j-veylop/callmap/internal/ui/components"
	"github.com/j-veylop/callmap/internal/ui/styles"
)

// View renders the history tab.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return m.renderLoading()
	}
	if m.state.GetSnapshot() == nil {
		return m.renderEmpty()
	}

	hourly, weekly := services.Patterns(m.patternCalls())

	sections := []string{
		m.renderHeader(),
		m.renderMonthlyChart(),
		m.renderRevenue(),
		m.renderHourlyHeatmap(hourly),
		m.renderWeeklyPattern(weekly),
		m.renderLoads(),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderLoading() string {
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(styles.HelpStyle.Render("Loading history data..."))
}

func (m *Model) renderEmpty() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("History"),
		"",
		styles.HelpStyle.Render("No dataset loaded."),
		styles.HelpStyle.Render("Charts will appear once a dataset has been replayed."),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("History")

	scopeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)

	scope := scopeStyle.Render(fmt.Sprintf("[t] %s", m.scope))
	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", scope)

	var subtitle string
	if stats := m.state.GetSnapshot().Stats; !stats.FirstCall.IsZero() {
		days := int(stats.LastCall.Sub(stats.FirstCall).Hours()/24) + 1
		subtitle = styles.HelpStyle.Render(fmt.Sprintf("Calls: %s → %s (%d days)",
			stats.FirstCall.Format("Jan 2, 2006"),
			stats.LastCall.Format("Jan 2, 2006"),
			days,
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, subtitle, "")
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 40)
}

// card renders a titled card around body lines.
func (m *Model) card(icon, title string, body []string) string {
	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render(icon)
	rows := []string{fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render(title)), ""}
	rows = append(rows, body...)
	rows = append(rows, "")

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func indent(block string) []string {
	var rows []string
	for line := range strings.SplitSeq(block, "\n") {
		rows = append(rows, "  "+line)
	}
	return rows
}

func (m *Model) renderMonthlyChart() string {
	monthly := m.monthly()
	if len(monthly) == 0 {
		return m.card("📈", "Monthly Calls", []string{styles.HelpStyle.Render("  No monthly data available")})
	}

	chart := components.RenderMonthlyChart(monthly, max(m.cardWidth()-12, 30), 8)
	return m.card("📈", "Monthly Calls", indent(chart))
}

func (m *Model) renderRevenue() string {
	monthly := m.monthly()
	if len(monthly) == 0 {
		return m.card("💵", "Monthly Revenue", []string{styles.HelpStyle.Render("  No revenue data available")})
	}

	total := 0.0
	for _, s := range monthly {
		total += s.Revenue
	}

	rows := indent(components.RenderRevenueBars(monthly, max(m.cardWidth()-12, 30)))
	rows = append(rows, "",
		fmt.Sprintf("  Total billed: %s",
			styles.AmountStyle(total).Bold(true).Render(fmt.Sprintf("$%.2f", total))),
	)
	return m.card("💵", "Monthly Revenue", rows)
}

func (m *Model) renderHourlyHeatmap(hourly [24]float64) string {
	peak, peakVal := peakIndex(hourly[:])
	if peakVal == 0 {
		return m.card("🕐", "Hourly Pattern", []string{styles.HelpStyle.Render("  No calls in scope")})
	}

	rows := []string{
		"  " + components.RenderHourlyHeatmap(hourly),
		"",
		fmt.Sprintf("  Peak: %s (%s calls)",
			lipgloss.NewStyle().Bold(true).Foreground(styles.Primary).
				Render(fmt.Sprintf("%02d:00-%02d:00", peak, (peak+1)%24)),
			humanize.Comma(int64(peakVal)),
		),
	}
	return m.card("🕐", "Hourly Pattern", rows)
}

func (m *Model) renderWeeklyPattern(weekly [7]float64) string {
	peak, peakVal := peakIndex(weekly[:])
	if peakVal == 0 {
		return m.card("📅", "Weekly Pattern", []string{styles.HelpStyle.Render("  No calls in scope")})
	}

	rows := []string{
		"  " + components.RenderWeeklyPattern(weekly),
		"",
		fmt.Sprintf("  Peak day: %s (%s calls)",
			lipgloss.NewStyle().Bold(true).Foreground(styles.Primary).Render(time.Weekday(peak).String()),
			humanize.Comma(int64(peakVal)),
		),
	}
	return m.card("📅", "Weekly Pattern", rows)
}

func (m *Model) renderLoads() string {
	loads := m.loads()
	if len(loads) == 0 {
		return m.card("🗂", "Recent Loads", []string{styles.HelpStyle.Render("  No archived loads")})
	}

	rows := make([]string, 0, len(loads))
	for _, l := range loads {
		rows = append(rows, renderLoad(l))
	}
	return m.card("🗂", "Recent Loads", rows)
}

func renderLoad(l models.LoadRecord) string {
	line := fmt.Sprintf("  %-14s %s  %s customers, %s calls, %s sms",
		humanize.Time(l.LoadedAt),
		styles.InfoTextStyle.Render(filepath.Base(l.Path)),
		humanize.Comma(int64(l.Customers)),
		humanize.Comma(int64(l.Calls)),
		humanize.Comma(int64(l.SMS)),
	)
	if l.Skipped > 0 {
		line += styles.WarningTextStyle.Render(fmt.Sprintf(" (%d skipped)", l.Skipped))
	}
	return line
}

// peakIndex returns the index and value of the largest element; the earliest
// wins ties.
func peakIndex(values []float64) (int, float64) {
	peak := 0
	for i, v := range values {
		if v > values[peak] {
			peak = i
		}
	}
	if len(values) == 0 {
		return 0, 0
	}
	return peak, values[peak]
}
