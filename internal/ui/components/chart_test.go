package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/callmap/internal/models"
	"github.com/j-veylop/callmap/internal/services"
)

func monthlyStats() []models.MonthlyStats {
	return []models.MonthlyStats{
		{Month: models.NewMonthKey(time.January, 2018), Calls: 12, BilledMinutes: 40, Revenue: 100},
		{Month: models.NewMonthKey(time.February, 2018), Calls: 8, BilledMinutes: 25, Revenue: 50},
		{Month: models.NewMonthKey(time.March, 2018), Calls: 3, BilledMinutes: 5, Revenue: -20},
	}
}

// patternCalls places four calls at 09:00 on Monday and two at 14:00 on
// Wednesday.
func patternCalls() []models.Call {
	monday := time.Date(2018, time.January, 1, 9, 15, 0, 0, time.UTC)
	wednesday := time.Date(2018, time.January, 3, 14, 5, 0, 0, time.UTC)

	var calls []models.Call
	for i := range 4 {
		calls = append(calls, models.Call{Time: monday.Add(time.Duration(i) * time.Minute), Duration: 60})
	}
	for i := range 2 {
		calls = append(calls, models.Call{Time: wednesday.Add(time.Duration(i) * time.Minute), Duration: 60})
	}
	return calls
}

func TestRenderMonthlyChart(t *testing.T) {
	got := ansi.Strip(RenderMonthlyChart(monthlyStats(), 40, 6))

	for _, want := range []string{"2018-01 → 2018-03", "■ Calls", "■ Billed minutes"} {
		if !strings.Contains(got, want) {
			t.Errorf("RenderMonthlyChart() missing %q:\n%s", want, got)
		}
	}
}

func TestRenderMonthlyChart_SingleMonth(t *testing.T) {
	got := ansi.Strip(RenderMonthlyChart(monthlyStats()[:1], 40, 6))
	if !strings.Contains(got, "2018-01") || strings.Contains(got, "→") {
		t.Errorf("single month should be captioned alone:\n%s", got)
	}
}

func TestRenderMonthlyChart_Empty(t *testing.T) {
	if got := RenderMonthlyChart(nil, 40, 6); !strings.Contains(got, "No monthly data") {
		t.Errorf("RenderMonthlyChart(nil) = %q", got)
	}
}

func TestRenderRevenueBars(t *testing.T) {
	lines := strings.Split(ansi.Strip(RenderRevenueBars(monthlyStats(), 60)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want one per month", len(lines))
	}

	// 60 columns minus the month label and amount leaves 39 for the best month.
	tests := []struct {
		prefix string
		bar    int
		amount string
	}{
		{"2018-01 │", 39, "$100.00"},
		{"2018-02 │", 19, "$50.00"},
		{"2018-03 │", 0, "$-20.00"},
	}
	for i, tt := range tests {
		line := lines[i]
		if !strings.HasPrefix(line, tt.prefix) {
			t.Errorf("line %d = %q, want prefix %q", i, line, tt.prefix)
		}
		if got := strings.Count(line, "█"); got != tt.bar {
			t.Errorf("line %d bar = %d cells, want %d", i, got, tt.bar)
		}
		if !strings.HasSuffix(line, tt.amount) {
			t.Errorf("line %d = %q, want amount %q", i, line, tt.amount)
		}
	}

	if RenderRevenueBars(nil, 60) != "" {
		t.Error("RenderRevenueBars(nil) should be empty")
	}
}

func TestRenderHourlyHeatmap(t *testing.T) {
	hourly, _ := services.Patterns(patternCalls())
	got := []rune(ansi.Strip(RenderHourlyHeatmap(hourly)))

	if string(got[:3]) != "00 " || string(got[len(got)-3:]) != " 23" {
		t.Fatalf("heatmap should be framed by hour labels: %q", string(got))
	}
	// cell of hour h, skipping the "00 " label and the gap after 11:00
	cell := func(h int) rune {
		if h > 11 {
			return got[3+h+1]
		}
		return got[3+h]
	}
	if cell(9) != '█' {
		t.Errorf("busiest hour = %q, want █", cell(9))
	}
	if cell(14) != '▒' {
		t.Errorf("14:00 = %q, want ▒", cell(14))
	}
	if cell(0) != '░' {
		t.Errorf("quiet hour = %q, want ░", cell(0))
	}
}

func TestRenderWeeklyPattern(t *testing.T) {
	_, weekly := services.Patterns(patternCalls())
	got := ansi.Strip(RenderWeeklyPattern(weekly))

	for _, want := range []string{"Sun ▁", "Mon █", "Wed ▄", "Sat ▁"} {
		if !strings.Contains(got, want) {
			t.Errorf("RenderWeeklyPattern() = %q, missing %q", got, want)
		}
	}
	if !strings.HasPrefix(got, "Sun") {
		t.Errorf("week should start on Sunday: %q", got)
	}
}

func TestRenderSparkline(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		width  int
		want   string
	}{
		{"Totals", []float64{50.10, 50.05}, 10, "█▁"},
		{"Credit", []float64{-100, -50}, 10, "▁█"},
		{"Flat", []float64{7, 7, 7}, 10, "▁▁▁"},
		{"Sampled", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 5, "▁▂▄▅▇"},
		{"Empty", nil, 10, ""},
		{"NoWidth", []float64{1, 2}, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderSparkline(tt.values, tt.width); got != tt.want {
				t.Errorf("RenderSparkline(%v, %d) = %q, want %q", tt.values, tt.width, got, tt.want)
			}
		})
	}
}

func TestRenderLegend(t *testing.T) {
	got := ansi.Strip(RenderLegend([]LegendItem{
		{Label: "term", Color: ChartCallsColor},
		{Label: "mtm", Color: ChartMinutesColor},
	}))
	if got != "■ term  ■ mtm" {
		t.Errorf("RenderLegend() = %q", got)
	}
}
