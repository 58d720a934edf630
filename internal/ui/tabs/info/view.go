package info

import (
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/callmap/internal/models"
	"github.com/j-veylop/callmap/internal/ui/components"
	"github.com/j-veylop/callmap/internal/ui/styles"
	"github.com/j-veylop/callmap/internal/version"
)

var contractOrder = []string{models.ContractTerm, models.ContractMTM, models.ContractPrepaid}

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderDatasetCard(),
		m.renderConfigCard(),
		m.renderAboutCard(),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderTitle renders the info tab title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Dataset, configuration and application information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 80)
}

// renderDatasetCard summarises the loaded dataset.
func (m *Model) renderDatasetCard() string {
	rows := []string{styles.CardTitleStyle.Render("Dataset"), ""}

	snap := m.state.GetSnapshot()
	if snap == nil {
		msg := "No dataset loaded"
		if err := m.state.GetLoadError(); err != nil {
			msg = styles.ErrorTextStyle.Render(err.Error())
		}
		rows = append(rows, styles.HelpStyle.Render(msg))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	s := snap.Stats
	talk := time.Duration(s.TotalSecs) * time.Second
	rows = append(rows,
		m.renderConfigRow("Customers", humanize.Comma(int64(s.Customers))),
		m.renderConfigRow("Phone Lines", humanize.Comma(int64(s.Lines))),
		m.renderConfigRow("Calls", humanize.Comma(int64(s.Calls))),
		m.renderConfigRow("Text Messages", humanize.Comma(int64(s.SMS))),
		m.renderConfigRow("Unmatched", humanize.Comma(int64(s.Unmatched))),
		m.renderConfigRow("Talk Time", talk.String()),
		m.renderConfigRow("Total Billed", styles.AmountStyle(s.TotalOwing).Render(fmt.Sprintf("$%.2f", s.TotalOwing))),
	)
	if !s.FirstCall.IsZero() {
		rows = append(rows, m.renderConfigRow("Period",
			s.FirstCall.Format("Jan 2, 2006")+" → "+s.LastCall.Format("Jan 2, 2006")))
	}

	counts := make(map[string]int, len(contractOrder))
	for _, contract := range snap.Contracts {
		counts[contract]++
	}
	segments := make([]components.ShareSegment, 0, len(contractOrder))
	legend := make([]components.LegendItem, 0, len(contractOrder))
	for _, contract := range contractOrder {
		segments = append(segments, components.ShareSegment{
			Color: styles.ContractColor(contract),
			Value: float64(counts[contract]),
		})
		legend = append(legend, components.LegendItem{
			Label: fmt.Sprintf("%s %d", contract, counts[contract]),
			Color: styles.ContractColor(contract),
		})
	}
	rows = append(rows, "",
		components.ShareBar(segments, m.cardWidth()-6),
		components.RenderLegend(legend),
	)

	if last := m.state.GetLastUpdated(); !last.IsZero() {
		rows = append(rows, "", styles.HelpStyle.Render("Loaded "+humanize.Time(last)))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderConfigCard renders the configuration card.
func (m *Model) renderConfigCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"))
	rows = append(rows, "")

	if m.config != nil {
		rows = append(rows,
			m.renderConfigRow("Dataset File", m.config.DatasetPath),
			m.renderConfigRow("Database", orNone(m.config.DatabasePath)),
			m.renderConfigRow("Map Image", orNone(m.config.MapImagePath)),
			m.renderConfigRow("Export Dir", m.config.ExportDir),
			m.renderConfigRow("Map Bounds", m.config.MapBounds.String()),
			m.renderConfigRow("Contract Start", formatDate(m.config.ContractStart)),
			m.renderConfigRow("Term End", formatDate(m.config.TermEnd)),
			m.renderConfigRow("Prepaid Credit", fmt.Sprintf("$%.2f", m.config.PrepaidCredit)),
			m.renderConfigRow("Watch Dataset", strconv.FormatBool(m.config.WatchDataset)),
			m.renderConfigRow("Notifications", strconv.FormatBool(m.config.Notify)),
			m.renderConfigRow("Log File", orNone(m.config.LogPath)),
		)
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderConfigRow renders a configuration key-value row.
func (m *Model) renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// renderAboutCard renders the about/version information card.
func (m *Model) renderAboutCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About Callmap"))
	rows = append(rows, "")

	rows = append(rows, m.renderConfigRow("Version", version.GetVersion()))
	rows = append(rows, m.renderConfigRow("Build Date", version.GetDate()))
	rows = append(rows, m.renderConfigRow("Git Commit", version.GetCommit()))
	rows = append(rows, m.renderConfigRow("Go Version", runtime.Version()))
	rows = append(rows, m.renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)))
	rows = append(rows, "")

	customers := m.state.GetCustomerCount()
	rows = append(rows, fmt.Sprintf("Customers: %s", styles.InfoTextStyle.Render(strconv.Itoa(customers))))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "(default)"
	}
	return t.Format("2006-01-02")
}
