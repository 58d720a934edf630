package bills

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/callmap/internal/billing"
	"github.com/j-veylop/callmap/internal/models"
	"github.com/j-veylop/callmap/internal/ui/components"
	"github.com/j-veylop/callmap/internal/ui/styles"
)

// lines above the first customer row: title, subtitle, blank, table header
const tableOffset = 4

// View renders the bills tab.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.state.GetSnapshot() == nil {
		return m.renderEmpty("No dataset loaded.")
	}
	month, ok := m.Month()
	if !ok {
		return m.renderEmpty("The dataset has no calls to bill.")
	}

	bills := m.bills(month)
	if len(bills) == 0 {
		return m.renderEmpty("The dataset has no customers.")
	}
	selected := min(m.selected, len(bills)-1)

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(month, bills),
		m.renderTable(bills, selected),
		"",
		m.renderDetail(bills[selected]),
	)
	m.viewport.SetContent(content)
	m.follow(tableOffset + selected)

	return m.viewport.View()
}

// follow scrolls the viewport so that line is visible.
func (m *Model) follow(line int) {
	if line < m.viewport.YOffset {
		m.viewport.SetYOffset(line)
	} else if line >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(line - m.viewport.Height + 1)
	}
}

func (m *Model) renderEmpty(reason string) string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("Bills"),
		"",
		styles.HelpStyle.Render(reason),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader(month models.MonthKey, bills []models.CustomerBill) string {
	total := 0.0
	for _, b := range bills {
		total += b.Total
	}

	title := styles.TitleStyle.Render(fmt.Sprintf("Bills: %s %d", month.Month, month.Year))
	subtitle := fmt.Sprintf("Month %d of %d  │  owing %s",
		m.monthIndex()+1, len(m.months()),
		styles.AmountStyle(total).Render(formatAmount(total)))

	return lipgloss.JoinVertical(lipgloss.Left, title, styles.HelpStyle.Render(subtitle), "")
}

func (m *Model) renderTable(bills []models.CustomerBill, selected int) string {
	header := fmt.Sprintf("  %-10s %6s %10s %12s", "Customer", "Lines", "Minutes", "Total")
	rows := []string{styles.TableHeaderStyle.Render(header)}

	for i, b := range bills {
		minutes := 0
		for _, l := range b.Lines {
			minutes += l.Summary.BilledMinutes + l.Summary.FreeMinutes
		}

		cursor := "  "
		style := styles.ListItemStyle
		if i == selected {
			cursor = "▸ "
			style = styles.SelectedListItemStyle
		}
		row := fmt.Sprintf("%s%-10d %6d %10s %12s",
			cursor, b.CustomerID, len(b.Lines),
			humanize.Comma(int64(minutes)), formatAmount(b.Total))
		rows = append(rows, style.Render(row))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) renderDetail(bill models.CustomerBill) string {
	cardWidth := max(m.width-6, 40)

	rows := []string{
		styles.CardTitleStyle.Render(fmt.Sprintf("Customer %d  %s", bill.CustomerID, bill.Month)),
		"",
	}

	if len(bill.Lines) == 0 {
		rows = append(rows, styles.HelpStyle.Render("No line was billed this month."))
	}

	for _, l := range bill.Lines {
		s := l.Summary
		number := styles.ContractStyle(s.Type).Bold(true).Render(l.Number)
		rows = append(rows,
			fmt.Sprintf("%s  %s", number, styles.ContractStyle(s.Type).Render(s.Type)),
			fmt.Sprintf("  fixed %s  │  rate %s/min  │  billed %s min  │  total %s",
				formatAmount(s.Fixed),
				formatRate(s.MinuteRate),
				humanize.Comma(int64(s.BilledMinutes)),
				styles.AmountStyle(s.Total).Render(formatAmount(s.Total))),
		)
		if s.Type == models.ContractTerm {
			rows = append(rows, "  "+components.UsageBar(s.FreeMinutes, billing.TermFreeMinutes, "free minutes", cardWidth-8))
		}
		rows = append(rows, "")
	}

	rows = append(rows, fmt.Sprintf("Total  %s",
		styles.AmountStyle(bill.Total).Bold(true).Render(formatAmount(bill.Total))))

	if totals := m.monthlyTotals(bill.CustomerID); len(totals) > 1 {
		spark := lipgloss.NewStyle().Foreground(styles.Primary).
			Render(components.RenderSparkline(totals, min(len(totals), cardWidth-20)))
		rows = append(rows, fmt.Sprintf("Trend  %s  %s", spark,
			styles.HelpStyle.Render(fmt.Sprintf("%d months", len(totals)))))
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// formatAmount renders a dollar amount; credits are shown negative.
func formatAmount(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%.2f", sign, v)
}

func formatRate(v float64) string {
	return "$" + strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}
