// Package bills provides the bills tab: every customer's monthly bill with a
// per-line breakdown.
package bills

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/callmap/internal/app"
	"github.com/j-veylop/callmap/internal/billing"
	"github.com/j-veylop/callmap/internal/models"
	"github.com/j-veylop/callmap/internal/services"
)

// keyMap defines the key bindings specific to the bills tab.
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	PrevMonth key.Binding
	NextMonth key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
}

// defaultKeyMap returns the default key bindings for the bills tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous customer"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next customer"),
		),
		PrevMonth: key.NewBinding(
			key.WithKeys("[", "left"),
			key.WithHelp("[/←", "previous month"),
		),
		NextMonth: key.NewBinding(
			key.WithKeys("]", "right"),
			key.WithHelp("]/→", "next month"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
	}
}

// Model represents the bills tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	keys     keyMap
	viewport viewport.Model
	// month indexes the snapshot's months; -1 selects the latest.
	month    int
	selected int
	width    int
	height   int

	// totals caches the selected customer's monthly totals per snapshot.
	totals     []float64
	totalsFor  int
	totalsSnap *services.Snapshot
}

// New creates a new bills model.
func New(state *app.State, svc *services.Manager) *Model {
	return &Model{
		state:    state,
		services: svc,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		month:    -1,
	}
}

// Init initializes the bills tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the bills tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.DatasetLoadedMsg:
		if msg.Error == nil {
			m.clamp()
		}

	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.customers())-1 {
			m.selected++
		}

	case key.Matches(msg, m.keys.PrevMonth):
		if i := m.monthIndex(); i > 0 {
			m.month = i - 1
		}

	case key.Matches(msg, m.keys.NextMonth):
		if i := m.monthIndex(); i >= 0 && i < len(m.months())-1 {
			m.month = i + 1
		}

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

// clamp keeps the selection inside a dataset that may have shrunk on reload.
func (m *Model) clamp() {
	if n := len(m.customers()); m.selected >= n {
		m.selected = max(0, n-1)
	}
	if m.month >= len(m.months()) {
		m.month = -1
	}
}

func (m *Model) customers() []*billing.Customer {
	snap := m.state.GetSnapshot()
	if snap == nil {
		return nil
	}
	return snap.Result.Customers
}

func (m *Model) months() []models.MonthKey {
	snap := m.state.GetSnapshot()
	if snap == nil {
		return nil
	}
	return snap.Months()
}

// monthIndex resolves the selected month, -1 when the dataset has none.
func (m *Model) monthIndex() int {
	n := len(m.months())
	if m.month < 0 || m.month >= n {
		return n - 1
	}
	return m.month
}

// Month returns the billing month being shown.
func (m *Model) Month() (models.MonthKey, bool) {
	i := m.monthIndex()
	if i < 0 {
		return models.MonthKey{}, false
	}
	return m.months()[i], true
}

// bills returns every customer's bill for month, in dataset order.
func (m *Model) bills(month models.MonthKey) []models.CustomerBill {
	customers := m.customers()
	out := make([]models.CustomerBill, 0, len(customers))
	for _, c := range customers {
		if m.services != nil {
			if bill, err := m.services.Bill(c.ID(), month); err == nil {
				out = append(out, bill)
				continue
			}
		}
		out = append(out, c.GenerateBill(month))
	}
	return out
}

// monthlyTotals returns the customer's bill total for every month it was
// billed, oldest first.
func (m *Model) monthlyTotals(customerID int) []float64 {
	snap := m.state.GetSnapshot()
	if m.services == nil || snap == nil {
		return nil
	}
	if m.totalsSnap == snap && m.totalsFor == customerID {
		return m.totals
	}

	bills, err := m.services.CustomerBills(customerID)
	if err != nil {
		return nil
	}
	totals := make([]float64, len(bills))
	for i, b := range bills {
		totals[i] = b.Total
	}
	m.totals, m.totalsFor, m.totalsSnap = totals, customerID, snap
	return totals
}

// SetSize sets the available size for the bills tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Up,
		m.keys.Down,
		m.keys.PrevMonth,
		m.keys.NextMonth,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down},
		{m.keys.PrevMonth, m.keys.NextMonth},
		{m.keys.PageUp, m.keys.PageDown},
	}
}
