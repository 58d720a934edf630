// Package mapview provides the call map tab: the filtered calls drawn over
// the city with keyboard driven filters.
package mapview

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/callmap/internal/app"
	"github.com/j-veylop/callmap/internal/filter"
	"github.com/j-veylop/callmap/internal/geo"
	"github.com/j-veylop/callmap/internal/services"
	"github.com/j-veylop/callmap/internal/ui/components"
)

var errNoDataset = errors.New("no dataset loaded")

// keyMap defines the key bindings specific to the map tab.
type keyMap struct {
	Customer key.Binding
	Duration key.Binding
	Location key.Binding
	Month    key.Binding
	Reset    key.Binding
	Export   key.Binding
	Apply    key.Binding
	Cancel   key.Binding
}

// defaultKeyMap returns the default key bindings for the map tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Customer: key.NewBinding(
			key.WithKeys(filter.KeyCustomer, "C"),
			key.WithHelp("c", "filter by customer"),
		),
		Duration: key.NewBinding(
			key.WithKeys(filter.KeyDuration, "D"),
			key.WithHelp("d", "filter by duration"),
		),
		Location: key.NewBinding(
			key.WithKeys(filter.KeyLocation, "L"),
			key.WithHelp("l", "filter by location"),
		),
		Month: key.NewBinding(
			key.WithKeys(filter.KeyMonth, "M"),
			key.WithHelp("m", "filter by month"),
		),
		Reset: key.NewBinding(
			key.WithKeys(filter.KeyReset, "R"),
			key.WithHelp("r", "reset filters"),
		),
		Export: key.NewBinding(
			key.WithKeys("e", "E"),
			key.WithHelp("e", "export png"),
		),
		Apply: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// Model represents the map tab state.
type Model struct {
	state       *app.State
	services    *services.Manager
	spinner     spinner.Model
	keys        keyMap
	input       textinput.Model
	canvas      components.MapCanvas
	datasetPath string
	// filterKey is the filter the prompt collects a query for, "" when closed.
	filterKey string
	width     int
	height    int
}

// New creates a new map model. svc may be nil in tests; filtering is then
// unavailable.
func New(state *app.State, svc *services.Manager) *Model {
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 64

	bounds := geo.DefaultBounds
	var datasetPath string
	if svc != nil {
		bounds = svc.Bounds()
		datasetPath = svc.Config().DatasetPath
	}

	return &Model{
		state:       state,
		services:    svc,
		spinner:     components.NewLoadSpinner(),
		keys:        defaultKeyMap(),
		input:       input,
		canvas:      components.NewMapCanvas(bounds),
		datasetPath: datasetPath,
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Capturing reports whether the filter prompt is open.
func (m *Model) Capturing() bool {
	return m.filterKey != ""
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Capturing() {
			return m, m.handlePromptKey(msg)
		}
		return m, m.handleKeyMsg(msg)

	case spinner.TickMsg:
		if !m.state.IsInitialLoading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.Capturing() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Customer):
		return m.openPrompt(filter.KeyCustomer)
	case key.Matches(msg, m.keys.Duration):
		return m.openPrompt(filter.KeyDuration)
	case key.Matches(msg, m.keys.Location):
		return m.openPrompt(filter.KeyLocation)
	case key.Matches(msg, m.keys.Month):
		return m.openPrompt(filter.KeyMonth)
	case key.Matches(msg, m.keys.Reset):
		return m.reset()
	case key.Matches(msg, m.keys.Export):
		return m.export()
	}
	return nil
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Apply):
		query := strings.TrimSpace(m.input.Value())
		filterKey := m.filterKey
		m.closePrompt()
		return m.apply(filterKey, query)

	case key.Matches(msg, m.keys.Cancel):
		m.closePrompt()
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// openPrompt starts collecting a query for the filter bound to filterKey.
func (m *Model) openPrompt(filterKey string) tea.Cmd {
	if m.services == nil || m.state.GetSnapshot() == nil {
		return app.NotifyWarningCmd(errNoDataset.Error())
	}

	m.filterKey = filterKey
	m.input.Reset()
	m.input.Placeholder = m.services.FilterDescription(filterKey)
	return m.input.Focus()
}

func (m *Model) closePrompt() {
	m.filterKey = ""
	m.input.Blur()
	m.input.Reset()
}

// apply runs a filter on the calls currently shown. A rejected query leaves
// the map unchanged.
func (m *Model) apply(filterKey, query string) tea.Cmd {
	result, err := m.services.ApplyFilter(filterKey, m.state.GetVisible(), query)
	chain := m.services.FilterChain()
	if err == nil {
		m.state.SetVisible(result, chain)
	}

	return func() tea.Msg {
		return app.FilterAppliedMsg{
			Key:   filterKey,
			Query: query,
			Chain: chain,
			Count: len(result),
			Error: err,
		}
	}
}

func (m *Model) reset() tea.Cmd {
	if m.services == nil || m.state.GetSnapshot() == nil {
		return app.NotifyWarningCmd(errNoDataset.Error())
	}
	return m.apply(filter.KeyReset, "")
}

func (m *Model) export() tea.Cmd {
	if m.services == nil || m.state.GetSnapshot() == nil {
		return app.NotifyWarningCmd(errNoDataset.Error())
	}
	return app.ExportMapCmd(m.services, m.state.GetVisible(), m.state.GetFilterChain())
}

// SetSize sets the available size for the map tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = max(10, width-10)
	// frame border, status line, legend and prompt
	m.canvas.SetSize(max(0, width-2), max(0, height-5))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.Capturing() {
		return []key.Binding{m.keys.Apply, m.keys.Cancel}
	}
	return []key.Binding{
		m.keys.Customer,
		m.keys.Duration,
		m.keys.Location,
		m.keys.Month,
		m.keys.Reset,
		m.keys.Export,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Customer, m.keys.Duration, m.keys.Location, m.keys.Month},
		{m.keys.Reset, m.keys.Export},
		{m.keys.Apply, m.keys.Cancel},
	}
}
