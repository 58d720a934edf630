package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/callmap/internal/models"
)

var (
	jan = models.NewMonthKey(time.January, 2018)
	feb = models.NewMonthKey(time.February, 2018)
)

func testCalls() []models.Call {
	return []models.Call{
		{Src: "100-0001", Dst: "200-0001", Time: time.Date(2018, 1, 3, 9, 0, 0, 0, time.UTC), Duration: 61},
		{Src: "200-0001", Dst: "100-0001", Time: time.Date(2018, 1, 9, 9, 0, 0, 0, time.UTC), Duration: 30},
		{Src: "100-0001", Dst: "300-0001", Time: time.Date(2018, 2, 1, 9, 0, 0, 0, time.UTC), Duration: 120},
	}
}

func testBills() []models.CustomerBill {
	line := func(number string, total float64) models.LineBill {
		return models.LineBill{Number: number, Summary: models.BillSummary{
			Type: models.ContractMTM, Fixed: 50, MinuteRate: 0.05, Total: total,
		}}
	}
	return []models.CustomerBill{
		{CustomerID: 1, Month: jan, Total: 100.1, Lines: []models.LineBill{line("100-0001", 50.1), line("100-0002", 50)}},
		{CustomerID: 1, Month: feb, Total: 50.1, Lines: []models.LineBill{line("100-0001", 50.1)}},
		{CustomerID: 2, Month: jan, Total: 50, Lines: []models.LineBill{line("200-0001", 50)}},
	}
}

func TestRecordLoad(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	load := &models.LoadRecord{Path: "dataset.json", Customers: 2, Calls: 3, SMS: 1}
	require.NoError(t, db.RecordLoad(load, testCalls(), testBills()))

	assert.NotEmpty(t, load.ID, "RecordLoad should assign an id")
	assert.False(t, load.LoadedAt.IsZero(), "RecordLoad should stamp the load time")

	var calls, bills int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM calls WHERE load_id = ?", load.ID).Scan(&calls))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM bills WHERE load_id = ?", load.ID).Scan(&bills))
	assert.Equal(t, 3, calls)
	assert.Equal(t, 4, bills)
}

func TestRecordLoad_ReplacesSamePath(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	first := &models.LoadRecord{Path: "dataset.json", LoadedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, db.RecordLoad(first, testCalls(), testBills()))

	second := &models.LoadRecord{Path: "dataset.json"}
	require.NoError(t, db.RecordLoad(second, testCalls()[:1], nil))

	var total int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM calls").Scan(&total))
	assert.Equal(t, 1, total, "calls from the earlier load should be replaced")

	loads, err := db.RecentLoads(10)
	require.NoError(t, err)
	require.Len(t, loads, 2)
	assert.Equal(t, second.ID, loads[0].ID)
	assert.Equal(t, first.ID, loads[1].ID)
}

func TestMonthlyStats(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	require.NoError(t, db.RecordLoad(&models.LoadRecord{Path: "a.json"}, testCalls(), testBills()))

	stats, err := db.MonthlyStats("a.json")
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, jan, stats[0].Month)
	assert.Equal(t, 2, stats[0].Calls)
	assert.Equal(t, int64(91), stats[0].TotalSeconds)
	assert.Equal(t, int64(3), stats[0].BilledMinutes)
	assert.InDelta(t, 150.1, stats[0].Revenue, 1e-9)

	assert.Equal(t, feb, stats[1].Month)
	assert.Equal(t, 1, stats[1].Calls)
	assert.Equal(t, int64(2), stats[1].BilledMinutes)
	assert.InDelta(t, 50.1, stats[1].Revenue, 1e-9)
}

func TestMonthlyStats_Empty(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	stats, err := db.MonthlyStats("a.json")
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestMonthlyStats_LatestLoadOnly(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	older := &models.LoadRecord{Path: "a.json", LoadedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, db.RecordLoad(older, testCalls(), testBills()))
	require.NoError(t, db.RecordLoad(&models.LoadRecord{Path: "a.json"}, testCalls()[2:], nil))

	stats, err := db.MonthlyStats("a.json")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, feb, stats[0].Month)
	assert.Zero(t, stats[0].Revenue)
}

func TestMonthlyStats_ScopedToPath(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	older := &models.LoadRecord{Path: "a.json", LoadedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, db.RecordLoad(older, testCalls(), testBills()))
	require.NoError(t, db.RecordLoad(&models.LoadRecord{Path: "b.json"}, testCalls()[2:], nil))

	stats, err := db.MonthlyStats("a.json")
	require.NoError(t, err)
	require.Len(t, stats, 2, "a newer load of another dataset does not hide a.json")
	assert.InDelta(t, 150.1, stats[0].Revenue, 1e-9)

	stats, err = db.MonthlyStats("b.json")
	require.NoError(t, err)
	require.Len(t, stats, 1)

	bills, err := db.CustomerBills("b.json", 1)
	require.NoError(t, err)
	assert.Empty(t, bills)

	bills, err = db.CustomerBills("a.json", 1)
	require.NoError(t, err)
	assert.Len(t, bills, 2)
}

func TestCustomerBills(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	require.NoError(t, db.RecordLoad(&models.LoadRecord{Path: "a.json"}, nil, testBills()))

	bills, err := db.CustomerBills("a.json", 1)
	require.NoError(t, err)
	require.Len(t, bills, 2)

	assert.Equal(t, jan, bills[0].Month)
	assert.Equal(t, 1, bills[0].CustomerID)
	require.Len(t, bills[0].Lines, 2)
	assert.Equal(t, "100-0001", bills[0].Lines[0].Number)
	assert.Equal(t, "100-0002", bills[0].Lines[1].Number)
	assert.InDelta(t, 100.1, bills[0].Total, 1e-9)
	assert.Equal(t, models.ContractMTM, bills[0].Lines[0].Summary.Type)

	assert.Equal(t, feb, bills[1].Month)

	none, err := db.CustomerBills("a.json", 42)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecentLoads_Limit(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		load := &models.LoadRecord{Path: "a.json", LoadedAt: base.Add(time.Duration(i) * time.Minute), Calls: i}
		require.NoError(t, db.RecordLoad(load, nil, nil))
	}

	loads, err := db.RecentLoads(3)
	require.NoError(t, err)
	require.Len(t, loads, 3)
	assert.Equal(t, 4, loads[0].Calls)
	assert.Equal(t, base.Add(4*time.Minute), loads[0].LoadedAt)
	assert.Equal(t, "a.json", loads[0].Path)
}

func TestPruneLoads(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		load := &models.LoadRecord{Path: "p.json", LoadedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, db.RecordLoad(load, nil, nil))
	}

	removed, err := db.PruneLoads(1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	loads, err := db.RecentLoads(10)
	require.NoError(t, err)
	assert.Len(t, loads, 1)
}
