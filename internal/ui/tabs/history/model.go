// Package history provides the history tab: monthly call volume and revenue,
// calling patterns and the archive of dataset loads.
package history

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/callmap/internal/app"
	"github.com/j-veylop/callmap/internal/models"
	"github.com/j-veylop/callmap/internal/services"
)

// Scope selects the calls the pattern charts are drawn from.
type Scope int

const (
	// ScopeVisible uses the calls left by the active filters.
	ScopeVisible Scope = iota
	// ScopeAll uses every call of the dataset.
	ScopeAll
)

// String returns the scope label.
func (s Scope) String() string {
	if s == ScopeAll {
		return "all calls"
	}
	return "filtered calls"
}

// keyMap defines the key bindings specific to the history tab.
type keyMap struct {
	ToggleScope key.Binding
	Up          key.Binding
	Down        key.Binding
}

// defaultKeyMap returns the default key bindings for the history tab.
func defaultKeyMap() keyMap {
	return keyMap{
		ToggleScope: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle filtered/all calls"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// Model represents the history tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model
	scope    Scope
}

// New creates a new history model.
func New(state *app.State, svc *services.Manager) *Model {
	return &Model{
		state:    state,
		services: svc,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the history tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the history tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.TabSwitchMsg:
		if msg.Tab == app.TabHistory {
			m.viewport.GotoTop()
		}

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ToggleScope) {
			m.scope = (m.scope + 1) % 2
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// monthly returns archived monthly statistics, falling back to the
// in-memory dataset before the first stats load completes.
func (m *Model) monthly() []models.MonthlyStats {
	if stats := m.state.GetStats(); stats != nil && len(stats.Monthly) > 0 {
		return stats.Monthly
	}
	if snap := m.state.GetSnapshot(); snap != nil {
		return snap.MonthlyStats()
	}
	return nil
}

// loads returns the most recent archived loads.
func (m *Model) loads() []models.LoadRecord {
	if stats := m.state.GetStats(); stats != nil {
		return stats.Loads
	}
	return nil
}

// patternCalls returns the calls the pattern charts use for the current scope.
func (m *Model) patternCalls() []models.Call {
	if m.scope == ScopeAll {
		if snap := m.state.GetSnapshot(); snap != nil {
			return snap.Calls
		}
		return nil
	}
	return m.state.GetVisible()
}

// SetSize sets the available size for the history tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ToggleScope,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ToggleScope},
		{m.keys.Up, m.keys.Down},
	}
}
