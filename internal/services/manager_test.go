package services

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/callmap/internal/config"
	"github.com/j-veylop/callmap/internal/geo"
	"github.com/j-veylop/callmap/internal/models"
)

const testDataset = `{
  "customers": [
    {"id": 1, "lines": [{"number": "100-0001", "contract": "mtm"}]},
    {"id": 2, "lines": [{"number": "200-0001", "contract": "term"}]}
  ],
  "events": [
    {"type": "call", "src_number": "100-0001", "dst_number": "200-0001",
     "time": "2018-01-05 10:00:00", "duration": 61,
     "src_loc": [-79.5, 43.7], "dst_loc": [-79.4, 43.6]},
    {"type": "sms", "src_number": "200-0001", "dst_number": "100-0001",
     "time": "2018-01-06 10:00:00",
     "src_loc": [-79.4, 43.6], "dst_loc": [-79.5, 43.7]},
    {"type": "call", "src_number": "999-9999", "dst_number": "100-0001",
     "time": "2018-02-01 12:00:00", "duration": 30,
     "src_loc": [-79.3, 43.65], "dst_loc": [-79.5, 43.7]}
  ]
}`

var (
	jan = models.NewMonthKey(time.January, 2018)
	feb = models.NewMonthKey(time.February, 2018)
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	tmpDir := t.TempDir()
	datasetPath := filepath.Join(tmpDir, "dataset.json")
	require.NoError(t, os.WriteFile(datasetPath, []byte(testDataset), 0o600))

	return &config.Config{
		DatasetPath:   datasetPath,
		DatabasePath:  filepath.Join(tmpDir, "test.db"),
		MapBounds:     geo.DefaultBounds,
		ContractStart: time.Date(2017, time.December, 25, 0, 0, 0, 0, time.UTC),
		TermEnd:       time.Date(2019, time.June, 25, 0, 0, 0, 0, time.UTC),
		PrepaidCredit: 100,
	}
}

func newTestManager(t *testing.T, cfg *config.Config) *Manager {
	t.Helper()
	mgr, err := NewManager(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

// nextEvent waits for the next event of type T, skipping others.
func nextEvent[T ServiceEvent](t *testing.T, ch <-chan ServiceEvent) T {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev := <-ch:
			if typed, ok := ev.(T); ok {
				return typed
			}
		case <-timeout:
			var zero T
			t.Fatalf("timeout waiting for %T", zero)
			return zero
		}
	}
}

func TestNewManager(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	assert.NotNil(t, mgr.Database(), "database should be initialized")
	assert.Nil(t, mgr.Snapshot(), "nothing is loaded before Load")
	assert.Nil(t, mgr.Calls())
	assert.Equal(t, geo.DefaultBounds, mgr.Bounds())
}

func TestManager_Load(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	snap, err := mgr.Load()
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Same(t, snap, mgr.Snapshot())
	assert.Len(t, mgr.Customers(), 2)
	require.Len(t, mgr.Calls(), 1, "only calls placed by customers are shown")
	assert.Equal(t, "100-0001", mgr.Calls()[0].Src)

	assert.Equal(t, models.ContractMTM, mgr.Contracts()["100-0001"])
	assert.Equal(t, models.ContractTerm, mgr.Contracts()["200-0001"])

	stats := snap.Stats
	assert.Equal(t, 2, stats.Customers)
	assert.Equal(t, 2, stats.Lines)
	assert.Equal(t, 2, stats.Calls)
	assert.Equal(t, 1, stats.SMS)
	assert.Equal(t, 1, stats.Unmatched)
	assert.Equal(t, int64(91), stats.TotalSecs)
	assert.Equal(t, time.Date(2018, 1, 5, 10, 0, 0, 0, time.UTC), stats.FirstCall)
	assert.Equal(t, time.Date(2018, 2, 1, 12, 0, 0, 0, time.UTC), stats.LastCall)
	// Jan: 50.10 + 20, Feb: 50 + 20
	assert.InDelta(t, 140.10, stats.TotalOwing, 1e-9)

	assert.Equal(t, []models.MonthKey{jan, feb}, snap.Months())
	assert.NotEmpty(t, snap.Load.ID, "load should be archived with an id")
}

func TestManager_LoadMissingDataset(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatasetPath = filepath.Join(t.TempDir(), "missing.json")
	mgr := newTestManager(t, cfg)

	ch, _ := mgr.Subscribe()

	_, err := mgr.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	ev := nextEvent[ErrorEvent](t, ch)
	assert.Equal(t, "dataset", ev.Service)
}

func TestManager_LoadUnknownContract(t *testing.T) {
	cfg := testConfig(t)
	bad := `{"customers": [{"id": 1, "lines": [{"number": "1", "contract": "lifetime"}]}]}`
	require.NoError(t, os.WriteFile(cfg.DatasetPath, []byte(bad), 0o600))
	mgr := newTestManager(t, cfg)

	_, err := mgr.Load()
	assert.Error(t, err)
	assert.Nil(t, mgr.Snapshot())
}

func TestManager_Bill(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	_, err := mgr.Bill(1, jan)
	assert.ErrorIs(t, err, ErrNotLoaded)

	_, err = mgr.Load()
	require.NoError(t, err)

	bill, err := mgr.Bill(1, jan)
	require.NoError(t, err)
	assert.Equal(t, 1, bill.CustomerID)
	require.Len(t, bill.Lines, 1)
	assert.Equal(t, 2, bill.Lines[0].Summary.BilledMinutes)
	assert.InDelta(t, 50.10, bill.Total, 1e-9)

	term, err := mgr.Bill(2, jan)
	require.NoError(t, err)
	assert.InDelta(t, 20, term.Total, 1e-9)
	assert.Zero(t, term.Lines[0].Summary.FreeMinutes, "receiving calls is free")

	_, err = mgr.Bill(42, jan)
	assert.True(t, errors.Is(err, ErrUnknownCustomer))
}

func TestManager_CustomerBills(t *testing.T) {
	for _, tc := range []struct {
		name   string
		withDB bool
	}{
		{"archive", true},
		{"snapshot", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t)
			if !tc.withDB {
				cfg.DatabasePath = ""
			}
			mgr := newTestManager(t, cfg)

			if !tc.withDB {
				_, err := mgr.CustomerBills(1)
				assert.ErrorIs(t, err, ErrNotLoaded)
			}

			_, err := mgr.Load()
			require.NoError(t, err)

			bills, err := mgr.CustomerBills(1)
			require.NoError(t, err)
			require.Len(t, bills, 2)
			assert.Equal(t, jan, bills[0].Month)
			assert.InDelta(t, 50.10, bills[0].Total, 1e-9)
			assert.Equal(t, feb, bills[1].Month)
			assert.InDelta(t, 50.00, bills[1].Total, 1e-9)

			none, err := mgr.CustomerBills(42)
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestManager_Filters(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))
	_, err := mgr.Load()
	require.NoError(t, err)

	all := mgr.Calls()
	assert.Equal(t, "none", mgr.FilterChain())
	assert.NotEmpty(t, mgr.FilterDescription("d"))
	assert.Empty(t, mgr.FilterDescription("z"))

	got, err := mgr.ApplyFilter("c", all, "2")
	require.NoError(t, err)
	assert.Len(t, got, 1, "customer 2 received the call")
	assert.Equal(t, "C:2", mgr.FilterChain())

	got, err = mgr.ApplyFilter("d", got, "G100")
	require.NoError(t, err)
	assert.Empty(t, got)

	unchanged, err := mgr.ApplyFilter("d", all, "X100")
	assert.Error(t, err)
	assert.Equal(t, all, unchanged)
	assert.Equal(t, "C:2 → D:G100", mgr.FilterChain())
	assert.Empty(t, mgr.Visible(), "replaying the chain matches the last result")

	assert.Equal(t, all, mgr.ResetFilters())
	assert.Equal(t, all, mgr.Visible())
	assert.Equal(t, "none", mgr.FilterChain())
}

func TestManager_MapOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.MapImagePath = "toronto.png"
	mgr := newTestManager(t, cfg)
	_, err := mgr.Load()
	require.NoError(t, err)

	opts := mgr.MapOptions("caption")
	assert.Equal(t, "toronto.png", opts.Background)
	assert.Equal(t, "caption", opts.Caption)
	assert.Equal(t, geo.DefaultBounds, opts.Bounds)
	assert.Equal(t, models.ContractMTM, opts.Contracts["100-0001"])
}

func TestManager_MonthlyStats(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))
	_, err := mgr.Load()
	require.NoError(t, err)

	stats, err := mgr.MonthlyStats()
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, jan, stats[0].Month)
	assert.Equal(t, 1, stats[0].Calls)
	assert.InDelta(t, 70.10, stats[0].Revenue, 1e-9)
	assert.Equal(t, feb, stats[1].Month)

	ev := mgr.GetStats()
	assert.Len(t, ev.Monthly, 2)
	assert.Len(t, ev.Loads, 1)
	assert.Equal(t, 2, ev.Stats.Customers)
}

func TestManager_WithoutDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabasePath = ""
	mgr := newTestManager(t, cfg)

	assert.Nil(t, mgr.Database())

	stats, err := mgr.MonthlyStats()
	require.NoError(t, err)
	assert.Empty(t, stats)

	_, err = mgr.Load()
	require.NoError(t, err)

	stats, err = mgr.MonthlyStats()
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, int64(2), stats[0].BilledMinutes)
	assert.InDelta(t, 70.10, stats[0].Revenue, 1e-9)
	assert.Equal(t, 1, stats[1].Calls, "unmatched calls still count toward volume")
}

func TestManager_Subscription(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	ch, cmd := mgr.Subscribe()
	require.NotNil(t, cmd)

	_, err := mgr.Load()
	require.NoError(t, err)

	loaded := nextEvent[DatasetLoadedEvent](t, ch)
	assert.False(t, loaded.Reload)
	assert.Len(t, loaded.Visible, 1)

	stats := nextEvent[StatsEvent](t, ch)
	assert.Len(t, stats.Monthly, 2)

	mgr.Unsubscribe(ch)
	_, open := <-ch
	assert.False(t, open, "Unsubscribe should close the channel")
}

func TestManager_WatchReload(t *testing.T) {
	cfg := testConfig(t)
	cfg.WatchDataset = true
	cfg.Notify = true
	mgr := newTestManager(t, cfg)

	var notified atomic.Int32
	mgr.notify = func(title, body string) error {
		notified.Add(1)
		return nil
	}

	_, err := mgr.Load()
	require.NoError(t, err)

	// Narrow the view so the reload has a chain to replay
	_, err = mgr.ApplyFilter("c", mgr.Calls(), "1")
	require.NoError(t, err)

	ch, _ := mgr.Subscribe()

	updated := `{"customers": [{"id": 1, "lines": [{"number": "100-0001", "contract": "prepaid"}]}],
	  "events": [{"type": "call", "src_number": "100-0001", "dst_number": "300-0001",
	  "time": "2018-03-01 09:00:00", "duration": 10, "src_loc": [-79.5, 43.7], "dst_loc": [-79.4, 43.6]}]}`
	require.NoError(t, os.WriteFile(cfg.DatasetPath, []byte(updated), 0o600))

	ev := nextEvent[DatasetLoadedEvent](t, ch)
	assert.True(t, ev.Reload)
	assert.Len(t, ev.Visible, 1)
	assert.Equal(t, models.ContractPrepaid, ev.Snapshot.Contracts["100-0001"])
	assert.Equal(t, "C:1", mgr.FilterChain(), "reload keeps the filter chain")

	assert.Eventually(t, func() bool { return notified.Load() > 0 }, time.Second, 10*time.Millisecond)

	loads, err := mgr.Database().RecentLoads(10)
	require.NoError(t, err)
	assert.Len(t, loads, 2)
}

func TestManager_NotifyDisabled(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	called := false
	mgr.notify = func(title, body string) error {
		called = true
		return nil
	}
	mgr.notifyUser("title", "body")
	assert.False(t, called)
}

func TestPatterns(t *testing.T) {
	calls := []models.Call{
		{Time: time.Date(2018, 1, 1, 9, 0, 0, 0, time.UTC)},  // Monday
		{Time: time.Date(2018, 1, 7, 9, 30, 0, 0, time.UTC)}, // Sunday
		{Time: time.Date(2018, 1, 7, 23, 0, 0, 0, time.UTC)},
	}
	hourly, weekly := Patterns(calls)
	assert.Equal(t, 2.0, hourly[9])
	assert.Equal(t, 1.0, hourly[23])
	assert.Equal(t, 2.0, weekly[time.Sunday])
	assert.Equal(t, 1.0, weekly[time.Monday])
}
