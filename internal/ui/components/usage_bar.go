package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/callmap/internal/logger"
	"github.com/j-veylop/callmap/internal/ui/styles"
)

// RenderGradientBar renders just the bar part, green when empty fading to red when full.
func RenderGradientBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := int(float64(width) * percent / 100)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	var barChars []string
	for i := 0; i < width; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor("#51cf66", "#ff6b6b", t)
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			barChars = append(barChars, style.Render("█"))
		} else {
			style := lipgloss.NewStyle().Foreground(styles.Subtle)
			barChars = append(barChars, style.Render("░"))
		}
	}

	return strings.Join(barChars, "")
}

// UsageBar renders "label [bar] used/total" for a consumable allowance such
// as a term contract's free minutes.
func UsageBar(used, total int, label string, width int) string {
	percent := 0.0
	if total > 0 {
		percent = float64(used) / float64(total) * 100
	}

	counts := fmt.Sprintf("%d/%d", used, total)
	barWidth := width - len(label) - len(counts) - 5
	if barWidth < 5 {
		barWidth = 5
	}

	labelStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render(label)

	countStyle := styles.SuccessTextStyle
	if percent >= 100 {
		countStyle = styles.WarningTextStyle
	}

	return fmt.Sprintf("%s [%s] %s", labelStr, RenderGradientBar(percent, barWidth), countStyle.Render(counts))
}

// ShareSegment is one part of a ShareBar.
type ShareSegment struct {
	Color lipgloss.Color
	Value float64
}

// ShareBar renders segments side by side, each as wide as its share of the total.
func ShareBar(segments []ShareSegment, width int) string {
	total := 0.0
	for _, s := range segments {
		if s.Value > 0 {
			total += s.Value
		}
	}
	if total == 0 || width < 1 {
		return lipgloss.NewStyle().Foreground(styles.Subtle).Render(strings.Repeat("░", max(0, width)))
	}

	var b strings.Builder
	cum, used := 0.0, 0
	for _, s := range segments {
		if s.Value <= 0 {
			continue
		}
		cum += s.Value
		end := int(math.Round(cum / total * float64(width)))
		b.WriteString(lipgloss.NewStyle().Foreground(s.Color).Render(strings.Repeat("█", end-used)))
		used = end
	}
	return b.String()
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
