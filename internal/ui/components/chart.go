// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/callmap/internal/models"
	"github.com/j-veylop/callmap/internal/ui/styles"
)

// Series colours of the monthly chart, matching asciigraph's Red and Blue.
var (
	ChartCallsColor   = lipgloss.Color("#e06c75")
	ChartMinutesColor = lipgloss.Color("#4285f4")
)

var (
	heatBlocks  = []rune{'░', '▒', '▓', '█'}
	heatColors  = []lipgloss.Color{styles.Subtle, styles.Success, styles.Warning, styles.Error}
	sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	revenueBar  = lipgloss.NewStyle().Foreground(styles.Primary)
)

// level maps v in [0, span] onto one of n steps.
func level(v, span float64, n int) int {
	if span <= 0 || v <= 0 {
		return 0
	}
	return min(int(v/span*float64(n-1)), n-1)
}

func spread(values []float64) (lo, hi float64) {
	for i, v := range values {
		if i == 0 || v < lo {
			lo = v
		}
		if i == 0 || v > hi {
			hi = v
		}
	}
	return lo, hi
}

// RenderMonthlyChart plots calls and billed minutes per month, captioned with
// the month range and followed by a legend of both series.
func RenderMonthlyChart(stats []models.MonthlyStats, width, height int) string {
	if len(stats) == 0 {
		return styles.HelpStyle.Render("No monthly data available")
	}

	calls := make([]float64, len(stats))
	minutes := make([]float64, len(stats))
	for i, s := range stats {
		calls[i] = float64(s.Calls)
		minutes[i] = float64(s.BilledMinutes)
	}

	caption := stats[0].Month.String()
	if last := stats[len(stats)-1].Month; last != stats[0].Month {
		caption += " → " + last.String()
	}

	graph := asciigraph.PlotMany([][]float64{calls, minutes},
		asciigraph.Height(max(height, 3)),
		asciigraph.Width(max(width, 20)),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue),
	)
	legend := RenderLegend([]LegendItem{
		{Label: "Calls", Color: ChartCallsColor},
		{Label: "Billed minutes", Color: ChartMinutesColor},
	})
	return graph + "\n\n" + legend
}

// RenderRevenueBars draws one bar per month scaled to the best month. Months
// where credit outweighs charges get no bar.
func RenderRevenueBars(stats []models.MonthlyStats, width int) string {
	if len(stats) == 0 {
		return ""
	}

	peak := 0.0
	for _, s := range stats {
		peak = max(peak, s.Revenue)
	}
	barWidth := max(width-len("2006-01 │ $00000.00"), 10)

	lines := make([]string, len(stats))
	for i, s := range stats {
		n := 0
		if peak > 0 && s.Revenue > 0 {
			n = int(s.Revenue / peak * float64(barWidth))
		}
		lines[i] = fmt.Sprintf("%s │%s %s", s.Month,
			revenueBar.Render(strings.Repeat("█", n)),
			styles.AmountStyle(s.Revenue).Render(fmt.Sprintf("$%.2f", s.Revenue)))
	}
	return strings.Join(lines, "\n")
}

// RenderHourlyHeatmap shades each hour of the day by its call count, with a
// gap at noon.
func RenderHourlyHeatmap(hourly [24]float64) string {
	_, peak := spread(hourly[:])

	var b strings.Builder
	b.WriteString("00 ")
	for hour, v := range hourly {
		i := level(v, peak, len(heatBlocks))
		b.WriteString(lipgloss.NewStyle().Foreground(heatColors[i]).Render(string(heatBlocks[i])))
		if hour == 11 {
			b.WriteByte(' ')
		}
	}
	b.WriteString(" 23")
	return b.String()
}

// RenderWeeklyPattern shows one bar per weekday, Sunday first.
func RenderWeeklyPattern(weekly [7]float64) string {
	_, peak := spread(weekly[:])

	parts := make([]string, len(weekly))
	for day, v := range weekly {
		parts[day] = fmt.Sprintf("%s %c", time.Weekday(day).String()[:3], sparkBlocks[level(v, peak, len(sparkBlocks))])
	}
	return strings.Join(parts, " ")
}

// RenderSparkline draws values in at most width cells, scaled between their
// minimum and maximum.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	lo, hi := spread(values)
	step := max(float64(len(values))/float64(width), 1)

	var b strings.Builder
	for i := 0; i < width; i++ {
		idx := int(float64(i) * step)
		if idx >= len(values) {
			break
		}
		b.WriteRune(sparkBlocks[level(values[idx]-lo, hi-lo, len(sparkBlocks))])
	}
	return b.String()
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}

// RenderLegend renders a coloured square and label per item.
func RenderLegend(items []LegendItem) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = lipgloss.NewStyle().Foreground(item.Color).Render("■") + " " + item.Label
	}
	return strings.Join(parts, "  ")
}
