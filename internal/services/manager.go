// Package services provides service orchestration for the TUI.
package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/callmap/internal/billing"
	"github.com/j-veylop/callmap/internal/config"
	"github.com/j-veylop/callmap/internal/dataset"
	"github.com/j-veylop/callmap/internal/db"
	"github.com/j-veylop/callmap/internal/filter"
	"github.com/j-veylop/callmap/internal/geo"
	"github.com/j-veylop/callmap/internal/logger"
	"github.com/j-veylop/callmap/internal/models"
	"github.com/j-veylop/callmap/internal/render"
)

var (
	// ErrNotLoaded is returned by queries made before a dataset was loaded.
	ErrNotLoaded = errors.New("no dataset loaded")
	// ErrUnknownCustomer is returned for a customer ID not in the dataset.
	ErrUnknownCustomer = errors.New("unknown customer")
)

type (
	// DatasetLoadedEvent is emitted after a dataset was loaded or reloaded.
	DatasetLoadedEvent struct {
		Snapshot *Snapshot
		// Visible is the current filter chain replayed against the new data.
		Visible []models.Call
		Reload  bool
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Error   error
		Service string
	}

	// StatsEvent is emitted when archived statistics change.
	StatsEvent struct {
		Monthly []models.MonthlyStats
		Loads   []models.LoadRecord
		Stats   models.DatasetStats
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (DatasetLoadedEvent) isServiceEvent() {}
func (ErrorEvent) isServiceEvent()         {}
func (StatsEvent) isServiceEvent()         {}

const (
	// recentLoadsShown is how many archived loads StatsEvent carries.
	recentLoadsShown = 10
	// archivedLoadsKept bounds the archive; older loads are pruned.
	archivedLoadsKept = 50
)

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	database    *db.DB
	watcher     *dataset.Watcher
	registry    *filter.Registry
	simulator   *billing.Simulator
	snapshot    *Snapshot
	eventChan   chan ServiceEvent
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent
	notify      func(title, body string) error
}

// NewManager creates a new service manager. The dataset is not read until
// Load is called. An empty DatabasePath disables the archive.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg:       cfg,
		registry:  filter.NewRegistry(cfg.MapBounds),
		simulator: billing.NewSimulator(contractOptions(cfg)),
		eventChan: make(chan ServiceEvent, 100),
		stopChan:  make(chan struct{}),
		notify: func(title, body string) error {
			return beeep.Notify(title, body, "")
		},
	}

	if cfg.DatabasePath != "" {
		var err error
		m.database, err = db.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	return m, nil
}

// contractOptions maps configuration onto contract defaults.
func contractOptions(cfg *config.Config) billing.ContractOptions {
	opts := billing.DefaultContractOptions()
	if !cfg.ContractStart.IsZero() {
		opts.Start = cfg.ContractStart
	}
	if !cfg.TermEnd.IsZero() {
		opts.TermEnd = cfg.TermEnd
	}
	if cfg.PrepaidCredit > 0 {
		opts.PrepaidCredit = cfg.PrepaidCredit
	}
	return opts
}

// Load reads the configured dataset, replays it, archives the result and
// broadcasts it. The first successful Load starts the file watcher when
// WatchDataset is set.
func (m *Manager) Load() (*Snapshot, error) {
	ds, err := dataset.Load(m.cfg.DatasetPath)
	if err != nil {
		m.broadcast(ErrorEvent{Service: "dataset", Error: err})
		return nil, err
	}

	snap, err := m.apply(ds, false)
	if err != nil {
		return nil, err
	}

	if m.cfg.WatchDataset {
		if err := m.startWatcher(); err != nil {
			// The dataset is usable without live reload
			logger.Warn("dataset watcher disabled", "error", err)
			m.broadcast(ErrorEvent{Service: "watcher", Error: err})
		}
	}

	return snap, nil
}

// apply replays ds, swaps it in as the current snapshot and publishes events.
func (m *Manager) apply(ds *models.Dataset, reload bool) (*Snapshot, error) {
	start := time.Now()
	res, err := m.simulator.Process(ds)
	if err != nil {
		err = fmt.Errorf("failed to replay %s: %w", m.cfg.DatasetPath, err)
		m.broadcast(ErrorEvent{Service: "billing", Error: err})
		return nil, err
	}

	snap := newSnapshot(ds, res)
	snap.Load = models.LoadRecord{
		LoadedAt:  time.Now(),
		Path:      m.cfg.DatasetPath,
		Customers: len(ds.Customers),
		Calls:     ds.CallCount(),
		SMS:       ds.SMSCount(),
		Skipped:   ds.Skipped,
	}

	m.mu.Lock()
	m.snapshot = snap
	visible := m.registry.Replay(res.Customers)
	m.mu.Unlock()

	logger.Info("dataset replayed",
		"path", m.cfg.DatasetPath,
		"customers", snap.Stats.Customers,
		"calls", snap.Stats.Calls,
		"unmatched", snap.Stats.Unmatched,
		"took", time.Since(start))

	m.archive(snap)
	m.broadcast(DatasetLoadedEvent{Snapshot: snap, Visible: visible, Reload: reload})
	m.broadcast(m.GetStats())

	return snap, nil
}

// archive records the snapshot in the database. Failures are reported but
// do not prevent the dataset from being used.
func (m *Manager) archive(snap *Snapshot) {
	if m.database == nil {
		return
	}
	if err := m.database.RecordLoad(&snap.Load, snap.allCalls, snap.Bills()); err != nil {
		logger.Error("failed to archive load", "error", err)
		m.broadcast(ErrorEvent{Service: "archive", Error: err})
		return
	}
	if removed, err := m.database.PruneLoads(archivedLoadsKept); err != nil {
		logger.Warn("failed to prune archive", "error", err)
	} else if removed > 0 {
		logger.Debug("pruned archived loads", "removed", removed)
	}
}

// startWatcher starts watching the dataset file once.
func (m *Manager) startWatcher() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watcher != nil {
		return nil
	}

	w, err := dataset.NewWatcher(m.cfg.DatasetPath)
	if err != nil {
		return err
	}
	m.watcher = w
	go m.routeEvents(w)
	return nil
}

// routeEvents routes watcher events to subscribers.
func (m *Manager) routeEvents(w *dataset.Watcher) {
	for {
		select {
		case event, ok := <-w.Events():
			if !ok {
				return
			}
			m.handleWatcherEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleWatcherEvent(event dataset.Event) {
	switch event.Type {
	case dataset.EventReloaded:
		snap, err := m.apply(event.Dataset, true)
		if err != nil {
			m.notifyUser("Dataset reload failed", err.Error())
			return
		}
		m.notifyUser("Dataset reloaded", fmt.Sprintf("%s calls from %s customers",
			humanize.Comma(int64(snap.Stats.Calls)), humanize.Comma(int64(snap.Stats.Customers))))

	case dataset.EventError:
		m.broadcast(ErrorEvent{Service: "dataset", Error: event.Error})
		m.notifyUser("Dataset reload failed", event.Error.Error())
	}
}

// notifyUser shows a desktop notification when enabled.
func (m *Manager) notifyUser(title, body string) {
	if !m.cfg.Notify || m.notify == nil {
		return
	}
	if err := m.notify(title, body); err != nil {
		logger.Debug("desktop notification failed", "error", err)
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	// Send to main event channel
	select {
	case m.eventChan <- event:
	default:
	}

	// Send to subscribers
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

// waitForEvent returns a tea.Cmd that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return waitForEvent(ch)
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Snapshot returns the current dataset snapshot, or nil before Load.
func (m *Manager) Snapshot() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// Customers returns the replayed customers in dataset order.
func (m *Manager) Customers() []*billing.Customer {
	if snap := m.Snapshot(); snap != nil {
		return snap.Result.Customers
	}
	return nil
}

// Calls returns every customer's outgoing calls, the unfiltered map view.
func (m *Manager) Calls() []models.Call {
	if snap := m.Snapshot(); snap != nil {
		return snap.Calls
	}
	return nil
}

// Contracts maps each known phone number to its contract type.
func (m *Manager) Contracts() map[string]string {
	if snap := m.Snapshot(); snap != nil {
		return snap.Contracts
	}
	return nil
}

// Bounds returns the configured map bounds.
func (m *Manager) Bounds() geo.Bounds {
	return m.cfg.MapBounds
}

// Config returns the configuration the manager was created with.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Bill returns a customer's bill for month.
func (m *Manager) Bill(customerID int, month models.MonthKey) (models.CustomerBill, error) {
	snap := m.Snapshot()
	if snap == nil {
		return models.CustomerBill{}, ErrNotLoaded
	}
	c := snap.Result.Customer(customerID)
	if c == nil {
		return models.CustomerBill{}, fmt.Errorf("%w: %d", ErrUnknownCustomer, customerID)
	}
	return c.GenerateBill(month), nil
}

// CustomerBills returns every monthly bill of a customer, oldest first. The
// archive is used when configured, the in-memory snapshot otherwise.
func (m *Manager) CustomerBills(customerID int) ([]models.CustomerBill, error) {
	if m.database != nil {
		return m.database.CustomerBills(m.cfg.DatasetPath, customerID)
	}
	snap := m.Snapshot()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	var bills []models.CustomerBill
	for _, b := range snap.Bills() {
		if b.CustomerID == customerID {
			bills = append(bills, b)
		}
	}
	return bills, nil
}

// ApplyFilter runs the filter bound to key over data. Invalid queries return
// data unchanged with the reason.
func (m *Manager) ApplyFilter(key string, data []models.Call, query string) ([]models.Call, error) {
	customers := m.Customers()

	m.mu.Lock()
	defer m.mu.Unlock()
	result, err := m.registry.Apply(key, customers, data, query)
	if err != nil {
		logger.Debug("filter rejected", "key", key, "query", query, "error", err)
	}
	return result, err
}

// ResetFilters clears the filter chain and returns the unfiltered view.
func (m *Manager) ResetFilters() []models.Call {
	result, _ := m.ApplyFilter(filter.KeyReset, nil, "")
	return result
}

// Visible replays the active filter chain against the loaded calls.
func (m *Manager) Visible() []models.Call {
	customers := m.Customers()

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registry.Replay(customers)
}

// MapOptions returns the image export options for the loaded dataset.
func (m *Manager) MapOptions(caption string) render.Options {
	return render.Options{
		Contracts:  m.Contracts(),
		Background: m.cfg.MapImagePath,
		Caption:    caption,
		Bounds:     m.cfg.MapBounds,
	}
}

// FilterChain describes the filters applied since the last reset.
func (m *Manager) FilterChain() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registry.ChainString()
}

// FilterDescription returns the prompt help for the filter bound to key.
func (m *Manager) FilterDescription(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if f, ok := m.registry.Lookup(key); ok {
		return f.Description()
	}
	return ""
}

// MonthlyStats returns archived per-month statistics of the latest load.
func (m *Manager) MonthlyStats() ([]models.MonthlyStats, error) {
	if m.database == nil {
		if snap := m.Snapshot(); snap != nil {
			return snap.MonthlyStats(), nil
		}
		return nil, nil
	}
	return m.database.MonthlyStats(m.cfg.DatasetPath)
}

// GetStats returns current dataset and archive statistics.
func (m *Manager) GetStats() StatsEvent {
	var ev StatsEvent
	if snap := m.Snapshot(); snap != nil {
		ev.Stats = snap.Stats
	}

	var err error
	if ev.Monthly, err = m.MonthlyStats(); err != nil {
		logger.Error("failed to read monthly stats", "error", err)
	}
	if m.database != nil {
		if ev.Loads, err = m.database.RecentLoads(recentLoadsShown); err != nil {
			logger.Error("failed to read recent loads", "error", err)
		}
	}
	return ev
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	close(m.stopChan)

	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	watcher := m.watcher
	m.mu.Unlock()

	var errs []error

	if watcher != nil {
		if err := watcher.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if m.database != nil {
		if err := m.database.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
