// Package app implements the main Bubble Tea application with tab-based navigation.
package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/callmap/internal/services"
	"github.com/j-veylop/callmap/internal/ui/styles"
)

// TabID represents the identifier for a tab in the application.
type TabID int

const (
	// TabMap is the ID for the call map tab.
	TabMap TabID = iota
	// TabBills is the ID for the bills tab.
	TabBills
	// TabHistory is the ID for the history tab.
	TabHistory
	// TabInfo is the ID for the info tab.
	TabInfo
)

// tabCount is the number of tabs the navbar shows.
const tabCount = 4

// String returns the string representation of the TabID.
func (t TabID) String() string {
	switch t {
	case TabMap:
		return "Map"
	case TabBills:
		return "Bills"
	case TabHistory:
		return "History"
	case TabInfo:
		return "Info"
	default:
		return "Unknown"
	}
}

// Tab defines the interface that all tabs must implement.
type Tab interface {
	// Init initializes the tab and returns any initial commands.
	Init() tea.Cmd

	// Update handles messages and returns the updated tab and any commands.
	Update(msg tea.Msg) (Tab, tea.Cmd)

	// View renders the tab content.
	View() string

	// SetSize sets the available size for the tab.
	SetSize(width, height int)

	// ShortHelp returns key bindings for the short help view.
	ShortHelp() []key.Binding

	// FullHelp returns key bindings for the full help view.
	FullHelp() [][]key.Binding
}

// InputCapturer is implemented by tabs with a text input. While Capturing
// reports true, every key except ForceQuit goes to the tab.
type InputCapturer interface {
	Capturing() bool
}

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	Tab1      key.Binding
	Tab2      key.Binding
	Tab3      key.Binding
	Tab4      key.Binding
	NextTab   key.Binding
	PrevTab   key.Binding
	Refresh   key.Binding
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
	Up        key.Binding
	Down      key.Binding
	Enter     key.Binding
	Escape    key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
}

// DefaultKeyMap returns the default keybindings. Single letters are left to
// the tabs; the map tab binds its filters to them.
func DefaultKeyMap() KeyMap {
	km := KeyMap{}
	km = setTabKeys(km)
	km = setActionKeys(km)
	km = setNavigationKeys(km)
	return km
}

func setTabKeys(k KeyMap) KeyMap {
	k.Tab1 = key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "map"))
	k.Tab2 = key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "bills"))
	k.Tab3 = key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "history"))
	k.Tab4 = key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "info"))
	k.NextTab = key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab"))
	k.PrevTab = key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab"))
	return k
}

func setActionKeys(k KeyMap) KeyMap {
	k.Refresh = key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload dataset"))
	k.Help = key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help"))
	k.Quit = key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit"))
	k.ForceQuit = key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit"))
	return k
}

func setNavigationKeys(k KeyMap) KeyMap {
	k.Up = key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up"))
	k.Down = key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down"))
	k.Enter = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select"))
	k.Escape = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))
	k.PageUp = key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up"))
	k.PageDown = key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down"))
	return k
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Refresh, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab1, k.Tab2, k.Tab3, k.Tab4},
		{k.NextTab, k.PrevTab},
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Refresh, k.Help, k.Quit},
	}
}

// Styles defines the application styles.
type Styles struct {
	// Tab bar styles
	TabBar       lipgloss.Style
	ActiveTab    lipgloss.Style
	InactiveTab  lipgloss.Style
	TabSeparator lipgloss.Style

	// Notification styles
	NotificationSuccess lipgloss.Style
	NotificationError   lipgloss.Style
	NotificationWarning lipgloss.Style
	NotificationInfo    lipgloss.Style

	// Content styles
	Content lipgloss.Style
	Help    lipgloss.Style
	Spinner lipgloss.Style
	Toast   lipgloss.Style

	// Common styles
	Title     lipgloss.Style
	Subtle    lipgloss.Style
	Highlight lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
}

// DefaultStyles returns the default application styles.
func DefaultStyles() Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	highlight := lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	success := lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	warning := lipgloss.AdaptiveColor{Light: "#FF8C00", Dark: "#FF8C00"}
	errorColor := lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"}
	info := lipgloss.AdaptiveColor{Light: "#0087D7", Dark: "#5FAFFF"}

	s := Styles{}
	s.TabBar = lipgloss.NewStyle().Padding(0, 1).BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).BorderForeground(subtle)
	s.ActiveTab = lipgloss.NewStyle().Bold(true).Foreground(highlight).Padding(0, 2)
	s.InactiveTab = lipgloss.NewStyle().Foreground(subtle).Padding(0, 2)
	s.TabSeparator = lipgloss.NewStyle().Foreground(subtle).SetString(" | ")

	s.NotificationSuccess = lipgloss.NewStyle().Foreground(success).Padding(0, 1)
	s.NotificationError = lipgloss.NewStyle().Foreground(errorColor).Bold(true).Padding(0, 1)
	s.NotificationWarning = lipgloss.NewStyle().Foreground(warning).Padding(0, 1)
	s.NotificationInfo = lipgloss.NewStyle().Foreground(info).Padding(0, 1)

	s.Content = lipgloss.NewStyle().Padding(1, 2)
	s.Help = lipgloss.NewStyle().Foreground(subtle).Padding(0, 1)
	s.Spinner = lipgloss.NewStyle().Foreground(highlight)
	s.Toast = styles.ToastStyle

	s.Title = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	s.Subtle = lipgloss.NewStyle().Foreground(subtle)
	s.Highlight = lipgloss.NewStyle().Foreground(highlight)
	s.Error = lipgloss.NewStyle().Foreground(errorColor)
	s.Success = lipgloss.NewStyle().Foreground(success)
	s.Warning = lipgloss.NewStyle().Foreground(warning)

	return s
}

// Model is the main application model.
type Model struct {
	// Tab management
	activeTab TabID
	tabs      []Tab
	tabNames  []string

	// Shared state
	state    *State
	services *services.Manager
	commands *Commands
	keymap   KeyMap
	styles   Styles

	// UI components
	spinner spinner.Model

	// Window dimensions
	width  int
	height int

	// UI state
	showHelp bool
	ready    bool

	// Service subscription
	eventChannel chan services.ServiceEvent
}

// NewModel initializes a new application model.
func NewModel(mgr *services.Manager) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &Model{
		activeTab: TabMap,
		tabNames:  []string{"Map", "Bills", "History", "Info"},
		tabs:      make([]Tab, tabCount), // set by SetTabs
		state:     NewState(),
		services:  mgr,
		commands:  NewCommands(mgr),
		keymap:    DefaultKeyMap(),
		styles:    DefaultStyles(),
		spinner:   s,
	}
}

// SetTabs sets the tabs for the model.
func (m *Model) SetTabs(tabs []Tab) {
	m.tabs = tabs
	if m.width > 0 && m.height > 0 {
		m.updateTabSizes()
	}
}

// GetState returns the application state.
func (m *Model) GetState() *State {
	return m.state
}

// GetServices returns the service manager.
func (m *Model) GetServices() *services.Manager {
	return m.services
}

// GetCommands returns the commands helper.
func (m *Model) GetCommands() *Commands {
	return m.commands
}

// GetKeyMap returns the key bindings.
func (m *Model) GetKeyMap() KeyMap {
	return m.keymap
}

// GetStyles returns the application styles.
func (m *Model) GetStyles() Styles {
	return m.styles
}

// GetActiveTab returns the currently active tab ID.
func (m *Model) GetActiveTab() TabID {
	return m.activeTab
}

// GetWidth returns the window width.
func (m *Model) GetWidth() int {
	return m.width
}

// GetHeight returns the window height.
func (m *Model) GetHeight() int {
	return m.height
}

// IsReady returns true if the model is ready (window size received).
func (m *Model) IsReady() bool {
	return m.ready
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	m.state.SetLoadingNotification("Loading dataset...")

	cmds := []tea.Cmd{
		m.spinner.Tick,
		defaultTickCmd(),
	}

	if m.services != nil {
		cmds = append(cmds, subscribeToServicesCmd(m.services))
		cmds = append(cmds, loadDatasetCmd(m.services))
	}

	for _, tab := range m.tabs {
		if tab != nil {
			cmds = append(cmds, tab.Init())
		}
	}

	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd, handled := m.handleKeyMsg(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		if handled {
			return m, tea.Batch(cmds...)
		}

	case tea.WindowSizeMsg, spinner.TickMsg:
		if cmd := m.handleTeaMsg(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	default:
		if appCmds := m.handleAppMsg(msg); len(appCmds) > 0 {
			cmds = append(cmds, appCmds...)
		}
	}

	if cmd := m.updateActiveTab(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleTeaMsg(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)
	case spinner.TickMsg:
		return m.handleSpinnerTick(msg)
	}
	return nil
}

func (m *Model) handleAppMsg(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case TickMsg:
		cmds = append(cmds, m.handleTick())
	case SubscriptionEventMsg:
		cmds = append(cmds, m.handleSubscriptionEvent(msg)...)
	case ServiceEventMsg:
		cmds = append(cmds, m.handleServiceEventMsg(msg)...)
	case DatasetLoadedMsg:
		cmds = append(cmds, m.handleDatasetLoaded(msg)...)
	case StatsLoadedMsg:
		m.handleStatsLoaded(msg)
	case FilterAppliedMsg:
		cmds = append(cmds, m.handleFilterApplied(msg))
	case ExportResultMsg:
		cmds = append(cmds, m.handleExportResult(msg))
	case AddNotificationMsg:
		cmds = append(cmds, m.handleAddNotification(msg)...)
	case RemoveNotificationMsg:
		m.state.RemoveNotification(msg.ID)
	case ClearNotificationsMsg:
		m.state.ClearAllNotifications()
	case ClearExpiredNotificationsMsg:
		m.state.ClearExpiredNotifications()
	case StartLoadingMsg:
		m.handleStartLoading(msg)
	case StopLoadingMsg:
		m.handleStopLoading(msg)
	case ErrorMsg:
		cmds = append(cmds, m.handleError(msg))
	case RefreshMsg:
		cmds = append(cmds, m.handleRefresh(msg)...)
	case TabSwitchMsg:
		m.activeTab = msg.Tab
		m.updateTabSizes()
	case ToggleHelpMsg:
		m.showHelp = !m.showHelp
	}
	return cmds
}

func (m *Model) handleWindowSize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.updateTabSizes()
}

func (m *Model) handleSpinnerTick(msg spinner.TickMsg) tea.Cmd {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return cmd
}

func (m *Model) handleTick() tea.Cmd {
	m.state.ClearExpiredNotifications()
	return defaultTickCmd()
}

func (m *Model) handleSubscriptionEvent(msg SubscriptionEventMsg) []tea.Cmd {
	m.eventChannel = msg.Channel
	return []tea.Cmd{waitForServiceEventCmd(m.eventChannel)}
}

func (m *Model) handleServiceEventMsg(msg ServiceEventMsg) []tea.Cmd {
	var cmds []tea.Cmd
	if cmd := m.handleServiceEvent(msg.Event); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if m.eventChannel != nil {
		cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
	}
	return cmds
}

// handleDatasetLoaded finishes a load started by Init or a refresh. Failures
// are reported through the ErrorEvent the manager broadcasts.
func (m *Model) handleDatasetLoaded(msg DatasetLoadedMsg) []tea.Cmd {
	var cmds []tea.Cmd
	m.state.SetLoading("initial", false)
	m.state.SetLoading("dataset", false)
	if !m.state.AnyLoading() {
		m.state.ClearLoadingNotification()
	}

	if msg.Error != nil {
		m.state.SetLoadError(msg.Error)
		return cmds
	}

	m.state.SetDataset(msg.Snapshot, msg.Visible)
	if m.services != nil {
		m.state.SetVisible(msg.Visible, m.services.FilterChain())
		cmds = append(cmds, loadStatsCmd(m.services))
	}
	cmds = append(cmds, NotifySuccessCmd(fmt.Sprintf("Loaded %s calls from %s customers",
		humanize.Comma(int64(msg.Snapshot.Stats.Calls)),
		humanize.Comma(int64(msg.Snapshot.Stats.Customers)))))
	return cmds
}

func (m *Model) handleStatsLoaded(msg StatsLoadedMsg) {
	m.state.SetLoading("stats", false)
	m.state.SetStats(msg.Stats)
}

func (m *Model) handleFilterApplied(msg FilterAppliedMsg) tea.Cmd {
	if msg.Error != nil {
		return NotifyWarningCmd(msg.Error.Error())
	}
	return NotifyInfoCmd(fmt.Sprintf("%s calls shown", humanize.Comma(int64(msg.Count))))
}

func (m *Model) handleExportResult(msg ExportResultMsg) tea.Cmd {
	if !msg.Success {
		return NotifyErrorCmd(fmt.Sprintf("Export failed: %v", msg.Error))
	}
	return NotifySuccessCmd(fmt.Sprintf("Exported %s calls to %s", humanize.Comma(int64(msg.Calls)), msg.Path))
}

func (m *Model) handleError(msg ErrorMsg) tea.Cmd {
	if msg.Context != "" {
		return NotifyErrorCmd(fmt.Sprintf("%s: %v", msg.Context, msg.Error))
	}
	return NotifyErrorCmd(msg.Error.Error())
}

func (m *Model) handleAddNotification(msg AddNotificationMsg) []tea.Cmd {
	var cmds []tea.Cmd
	id := m.state.AddNotification(msg.Type, msg.Message, msg.Duration)
	if msg.Duration > 0 {
		cmds = append(cmds, clearNotificationCmd(id, msg.Duration))
	}
	return cmds
}

func (m *Model) handleStartLoading(msg StartLoadingMsg) {
	m.state.SetLoading(msg.Resource, true)
	m.state.SetLoadingNotification("Reloading...")
}

func (m *Model) handleStopLoading(msg StopLoadingMsg) {
	m.state.SetLoading(msg.Resource, false)
	if !m.state.AnyLoading() {
		m.state.ClearLoadingNotification()
	}
}

func (m *Model) handleRefresh(msg RefreshMsg) []tea.Cmd {
	var cmds []tea.Cmd
	if m.services == nil {
		return cmds
	}

	switch msg.Resource {
	case "all", "dataset":
		m.handleStartLoading(StartLoadingMsg{Resource: "dataset"})
		cmds = append(cmds, loadDatasetCmd(m.services))
	case "stats":
		m.state.SetLoading("stats", true)
		cmds = append(cmds, loadStatsCmd(m.services))
	}
	return cmds
}

func (m *Model) updateActiveTab(msg tea.Msg) tea.Cmd {
	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		var cmd tea.Cmd
		m.tabs[m.activeTab], cmd = m.tabs[m.activeTab].Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) updateTabSizes() {
	contentHeight := m.height - 5
	contentHeight = max(0, contentHeight)

	for _, tab := range m.tabs {
		if tab != nil {
			tab.SetSize(m.width, contentHeight)
		}
	}
}

// capturing reports whether the active tab is reading text input.
func (m *Model) capturing() bool {
	if int(m.activeTab) >= len(m.tabs) || m.tabs[m.activeTab] == nil {
		return false
	}
	c, ok := m.tabs[m.activeTab].(InputCapturer)
	return ok && c.Capturing()
}

func (m *Model) switchTab(id TabID) {
	m.activeTab = id
	m.updateTabSizes()
}

// handleKeyMsg handles global keys. handled reports that the key must not
// reach the active tab.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (cmd tea.Cmd, handled bool) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		return tea.Quit, true
	}
	if m.capturing() {
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
		return nil, true

	case key.Matches(msg, m.keymap.Escape):
		if m.showHelp {
			m.showHelp = false
			return nil, true
		}

	case key.Matches(msg, m.keymap.Tab1):
		m.switchTab(TabMap)
		return nil, true

	case key.Matches(msg, m.keymap.Tab2):
		m.switchTab(TabBills)
		return nil, true

	case key.Matches(msg, m.keymap.Tab3):
		m.switchTab(TabHistory)
		return nil, true

	case key.Matches(msg, m.keymap.Tab4):
		m.switchTab(TabInfo)
		return nil, true

	case key.Matches(msg, m.keymap.NextTab):
		if !m.showHelp {
			m.switchTab(TabID((int(m.activeTab) + 1) % len(m.tabs)))
		}
		return nil, true

	case key.Matches(msg, m.keymap.PrevTab):
		if !m.showHelp {
			m.switchTab(TabID((int(m.activeTab) - 1 + len(m.tabs)) % len(m.tabs)))
		}
		return nil, true

	case key.Matches(msg, m.keymap.Refresh):
		return tea.Batch(m.handleRefresh(RefreshMsg{Resource: "dataset"})...), true
	}

	return nil, m.showHelp
}

func (m *Model) handleServiceEvent(event services.ServiceEvent) tea.Cmd {
	switch e := event.(type) {
	case services.DatasetLoadedEvent:
		m.state.SetDataset(e.Snapshot, e.Visible)
		if e.Reload {
			return NotifyInfoCmd(fmt.Sprintf("Dataset reloaded: %s calls", humanize.Comma(int64(e.Snapshot.Stats.Calls))))
		}

	case services.ErrorEvent:
		return NotifyErrorCmd(fmt.Sprintf("[%s] %v", e.Service, e.Error))

	case services.StatsEvent:
		m.state.SetStats(e)
	}

	return nil
}

// View renders the application UI.
func (m *Model) View() string {
	var b strings.Builder

	if m.width > 0 {
		b.WriteString(m.renderNavbar())
		b.WriteString("\n")
	}

	if !m.ready {
		b.WriteString(m.styles.Content.Render(fmt.Sprintf("%s Loading...", m.spinner.View())))
		return b.String()
	}

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		b.WriteString(m.tabs[m.activeTab].View())
	} else {
		b.WriteString(m.renderPlaceholder())
	}

	mainView := b.String()

	if m.showHelp {
		// Render help modal
		helpView := m.renderHelp()
		mainView = m.overlayCentered(mainView, helpView)
	}

	notifications := m.renderNotifications()

	if len(notifications) > 0 {
		return m.overlayToasts(mainView, notifications)
	}

	return mainView
}

func (m *Model) overlayCentered(mainView string, overlay string) string {
	mainLines := strings.Split(mainView, "\n")
	overlayLines := strings.Split(overlay, "\n")

	overlayHeight := len(overlayLines)
	overlayWidth := lipgloss.Width(overlay)

	// Calculate center position
	y := (m.height - overlayHeight) / 2
	x := (m.width - overlayWidth) / 2

	if y < 0 {
		y = 0
	}
	if x < 0 {
		x = 0
	}

	for i, overlayLine := range overlayLines {
		mainY := y + i
		if mainY >= len(mainLines) {
			break
		}

		mainLine := mainLines[mainY]

		// Truncate main line to the start of the overlay
		left := ansi.Truncate(mainLine, x, "")

		// Calculate how much to cut from the left for the right part
		// We want to skip 'x + overlayWidth' visual cells
		right := ansi.TruncateLeft(mainLine, x+overlayWidth, "")

		// If the line was shorter than the overlay start, pad it
		if lipgloss.Width(left) < x {
			left += strings.Repeat(" ", x-lipgloss.Width(left))
		}

		mainLines[mainY] = left + overlayLine + right
	}

	return strings.Join(mainLines, "\n")
}

func (m *Model) renderNavbar() string {
	var tabs []string

	for i, name := range m.tabNames {
		if TabID(i) == m.activeTab {
			tabs = append(tabs, m.styles.ActiveTab.Render(fmt.Sprintf("[%d] %s", i+1, name)))
		} else {
			tabs = append(tabs, m.styles.InactiveTab.Render(fmt.Sprintf(" %d  %s", i+1, name)))
		}
	}

	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	return m.styles.TabBar.Width(m.width).Render(tabBar)
}

func (m *Model) renderNotifications() []string {
	notifications := m.state.GetNotifications()
	if len(notifications) == 0 {
		return nil
	}

	var toasts []string
	for _, n := range notifications {
		var style lipgloss.Style
		var prefix string

		switch n.Type {
		case NotificationSuccess:
			style = m.styles.NotificationSuccess
			prefix = "[OK]"
		case NotificationError:
			style = m.styles.NotificationError
			prefix = "[ERR]"
		case NotificationWarning:
			style = m.styles.NotificationWarning
			prefix = "[WARN]"
		case NotificationInfo:
			style = m.styles.NotificationInfo
			prefix = "[INFO]"
		case NotificationLoading:
			style = m.styles.NotificationInfo
			prefix = m.spinner.View()
		}

		content := style.Render(fmt.Sprintf("%s %s", prefix, n.Message))
		toast := m.styles.Toast.Render(content)
		toasts = append(toasts, toast)
	}

	return toasts
}

func (m *Model) overlayToasts(mainView string, toasts []string) string {
	if len(toasts) == 0 {
		return mainView
	}

	toastStack := lipgloss.JoinVertical(lipgloss.Right, toasts...)
	toastLines := strings.Split(toastStack, "\n")
	mainLines := strings.Split(mainView, "\n")

	toastWidth := lipgloss.Width(toastStack)
	startX := max(m.width-toastWidth-2, 0)

	startY := 2

	for i, toastLine := range toastLines {
		lineIdx := startY + i
		if lineIdx >= len(mainLines) {
			break
		}

		mainLine := mainLines[lineIdx]
		mainLineWidth := lipgloss.Width(mainLine)

		if mainLineWidth < startX {
			padding := strings.Repeat(" ", startX-mainLineWidth)
			mainLines[lineIdx] = mainLine + padding + toastLine
		} else {
			truncated := ansi.Truncate(mainLine, startX, "")
			mainLines[lineIdx] = truncated + toastLine
		}
	}

	return strings.Join(mainLines, "\n")
}

func (m *Model) renderHelp() string {
	var lines []string

	lines = append(lines, m.styles.Title.Render("Keyboard Shortcuts"))
	lines = append(lines, "")

	lines = append(lines, m.styles.Highlight.Render("Navigation"))
	lines = append(lines, "  1-4        Switch tabs")
	lines = append(lines, "  Tab        Next tab")
	lines = append(lines, "  Shift+Tab  Previous tab")
	lines = append(lines, "")

	lines = append(lines, m.styles.Highlight.Render("Actions"))
	lines = append(lines, "  Ctrl+R     Reload dataset")
	lines = append(lines, "  ?          Toggle help")
	lines = append(lines, "  q/Ctrl+C   Quit")
	lines = append(lines, "")

	lines = append(lines, m.styles.Highlight.Render("Lists"))
	lines = append(lines, "  j/k, ↑/↓   Move up/down")
	lines = append(lines, "  PgUp/PgDn  Scroll a page")
	lines = append(lines, "")

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		tabHelp := m.tabs[m.activeTab].ShortHelp()
		if len(tabHelp) > 0 {
			lines = append(lines, m.styles.Highlight.Render(fmt.Sprintf("%s Tab", m.tabNames[m.activeTab])))
			for _, binding := range tabHelp {
				lines = append(lines, fmt.Sprintf("  %-10s %s", binding.Help().Key, binding.Help().Desc))
			}
		}
	}

	lines = append(lines, "")
	lines = append(lines, m.styles.Subtle.Render("Press ? or Esc to close"))

	return styles.HelpPanelStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderPlaceholder() string {
	content := fmt.Sprintf(
		"Tab %d: %s\n\n%s",
		m.activeTab+1,
		m.tabNames[m.activeTab],
		m.styles.Subtle.Render("This tab is not yet implemented."),
	)
	return m.styles.Content.Render(content)
}
