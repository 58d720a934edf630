package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/callmap/internal/billing"
	"github.com/j-veylop/callmap/internal/geo"
	"github.com/j-veylop/callmap/internal/models"
)

var (
	downtown = models.Location{Long: -79.38, Lat: 43.65}
	airport  = models.Location{Long: -79.61, Lat: 43.68}
	east     = models.Location{Long: -79.25, Lat: 43.75}
)

func fixture(t *testing.T) ([]*billing.Customer, []models.Call) {
	t.Helper()

	ds := &models.Dataset{
		Customers: []models.CustomerSpec{
			{ID: 10, Lines: []models.LineSpec{{Number: "100-0001", Contract: models.ContractMTM}}},
			{ID: 20, Lines: []models.LineSpec{
				{Number: "200-0001", Contract: models.ContractTerm},
				{Number: "200-0002", Contract: models.ContractPrepaid},
			}},
			{ID: 30, Lines: []models.LineSpec{{Number: "300-0001", Contract: models.ContractMTM}}},
		},
		Events: []models.Event{
			{Type: models.EventCall, Time: time.Date(2018, 1, 2, 0, 0, 0, 0, time.UTC),
				Src: "100-0001", Dst: "200-0001", Duration: 30, SrcLoc: downtown, DstLoc: airport},
			{Type: models.EventCall, Time: time.Date(2018, 1, 3, 0, 0, 0, 0, time.UTC),
				Src: "200-0002", Dst: "300-0001", Duration: 500, SrcLoc: east, DstLoc: east},
			{Type: models.EventCall, Time: time.Date(2018, 2, 4, 0, 0, 0, 0, time.UTC),
				Src: "300-0001", Dst: "100-0001", Duration: 120, SrcLoc: airport, DstLoc: downtown},
			{Type: models.EventCall, Time: time.Date(2018, 2, 5, 0, 0, 0, 0, time.UTC),
				Src: "100-0001", Dst: "300-0001", Duration: 999, SrcLoc: east, DstLoc: airport},
		},
	}

	res, err := billing.NewSimulator(billing.DefaultContractOptions()).Process(ds)
	require.NoError(t, err)
	return res.Customers, Reset{}.Apply(res.Customers, nil, "")
}

func sources(calls []models.Call) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Src + ">" + c.Dst
	}
	return out
}

func TestReset(t *testing.T) {
	customers, all := fixture(t)

	assert.Equal(t, []string{
		"100-0001>200-0001", "100-0001>300-0001",
		"200-0002>300-0001",
		"300-0001>100-0001",
	}, sources(all), "outgoing calls grouped by customer in dataset order")

	got := Reset{}.Apply(customers, all[:1], "garbage")
	assert.Len(t, got, 4, "data and query are ignored")
}

func TestCustomer(t *testing.T) {
	customers, all := fixture(t)
	f := Customer{}

	got := f.Apply(customers, all, "20")
	assert.Equal(t, []string{"100-0001>200-0001", "200-0002>300-0001"}, sources(got))

	got = f.Apply(customers, all, " 10 ")
	assert.Len(t, got, 3)

	received := f.Apply(customers, all, "30")
	got = f.Apply(customers, received[:1], "20")
	assert.Equal(t, received[:1], got, "no call of customer 20 keeps the input")

	for _, q := range []string{"", "abc", "99", "-1", "1.5"} {
		assert.Equal(t, all, f.Apply(customers, all, q), "query %q", q)
		assert.ErrorIs(t, f.Validate(customers, q), ErrInvalidQuery, "query %q", q)
	}
}

func TestDuration(t *testing.T) {
	customers, all := fixture(t)
	f := Duration{}

	tests := []struct {
		query string
		want  []int
	}{
		{"L120", []int{30}},
		{"l121", []int{30, 120}},
		{"G120", []int{999, 500}},
		{"G999", []int{}},
		{"L0", []int{}},
		{"G0", []int{30, 999, 500, 120}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := f.Apply(customers, all, tt.query)
			durations := make([]int, len(got))
			for i, c := range got {
				durations[i] = c.Duration
			}
			assert.Equal(t, tt.want, durations)
		})
	}

	for _, q := range []string{"", "L", "X100", "L1000", "Gabc", "L-5", "100"} {
		assert.Equal(t, all, f.Apply(customers, all, q), "query %q", q)
		assert.Error(t, f.Validate(customers, q), "query %q", q)
	}
}

func TestLocation(t *testing.T) {
	customers, all := fixture(t)
	f := Location{Map: geo.DefaultBounds}

	got := f.Apply(customers, all, "-79.4, 43.6, -79.3, 43.7")
	assert.Equal(t, []string{"100-0001>200-0001", "300-0001>100-0001"}, sources(got), "downtown at either end")

	got = f.Apply(customers, all, "-79.38, 43.65, -79.38, 43.65")
	assert.Len(t, got, 2, "boundary is inclusive")

	got = f.Apply(customers, all, "-79.5, 43.7, -79.45, 43.72")
	assert.Equal(t, all, got, "an empty rectangle keeps the input")
	assert.NoError(t, f.Validate(customers, "-79.5, 43.7, -79.45, 43.72"))

	for _, q := range []string{"", "-79.4, 43.6", "-80, 43.6, -79.3, 43.7", "-79.3, 43.6, -79.4, 43.7", "a, b, c, d"} {
		assert.Equal(t, all, f.Apply(customers, all, q), "query %q", q)
		assert.Error(t, f.Validate(customers, q), "query %q", q)
	}
}

func TestMonth(t *testing.T) {
	customers, all := fixture(t)
	f := Month{}

	assert.Len(t, f.Apply(customers, all, "2018-01"), 2)
	assert.Len(t, f.Apply(customers, all, "02/2018"), 2)
	assert.Empty(t, f.Apply(customers, all, "2019-01"))
	assert.Equal(t, all, f.Apply(customers, all, "January"))
	for _, q := range []string{"2018-13", "2018-013", "2018-01zzz", "00/2018"} {
		assert.Equal(t, all, f.Apply(customers, all, q), "query %q", q)
		assert.ErrorIs(t, f.Validate(customers, q), ErrInvalidQuery, "query %q", q)
	}
}

func TestFilters_DoNotMutateInput(t *testing.T) {
	customers, all := fixture(t)
	before := append([]models.Call(nil), all...)

	reg := NewRegistry(geo.DefaultBounds)
	for _, key := range reg.Keys() {
		f, _ := reg.Lookup(key)
		_ = f.Apply(customers, all, "G100")
		_ = f.Apply(customers, all, "20")
		_ = f.Apply(customers, all, "-79.4, 43.6, -79.3, 43.7")
	}
	assert.Equal(t, before, all)
}

func TestFilters_Descriptions(t *testing.T) {
	reg := NewRegistry(geo.DefaultBounds)
	for _, key := range reg.Keys() {
		f, ok := reg.Lookup(key)
		require.True(t, ok)
		assert.NotEmpty(t, f.Description(), "filter %s", key)
	}
}
