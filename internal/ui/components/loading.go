package components

import (
	"path/filepath"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/callmap/internal/ui/styles"
)

// NewLoadSpinner returns the spinner shown while a dataset is replayed.
func NewLoadSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)
	return s
}

// RenderLoading centres the spinner with the name of the dataset being
// loaded. An empty path shows a generic label.
func RenderLoading(s spinner.Model, datasetPath string, width, height int) string {
	label := "Loading dataset"
	if datasetPath != "" {
		label += " " + filepath.Base(datasetPath)
	}
	content := lipgloss.JoinVertical(lipgloss.Center,
		s.View()+" "+lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(label+"..."),
		styles.HelpStyle.Render("replaying calls month by month"),
	)
	return styles.CenterBoth(content, width, height)
}
