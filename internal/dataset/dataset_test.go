package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/callmap/internal/models"
)

const sampleDataset = `{
  "customers": [
    {"id": 1, "lines": [{"number": "100-0001", "contract": "term"}, {"number": "100-0002", "contract": "MTM"}]},
    {"id": 2, "lines": [{"number": "200-0001", "contract": "prepaid"}]}
  ],
  "events": [
    {"type": "call", "src_number": "200-0001", "dst_number": "100-0001",
     "time": "2018-01-05 10:00:00", "duration": 61,
     "src_loc": [-79.5, 43.7], "dst_loc": [-79.4, 43.6]},
    {"type": "sms", "src_number": "100-0001", "dst_number": "200-0001",
     "time": "2018-01-02 09:00:00",
     "src_loc": [-79.4, 43.6], "dst_loc": [-79.5, 43.7]},
    {"type": "fax", "src_number": "100-0001", "dst_number": "200-0001",
     "time": "2018-01-03 09:00:00",
     "src_loc": [-79.4, 43.6], "dst_loc": [-79.5, 43.7]},
    {"type": "call", "src_number": "100-0002", "dst_number": "999-9999",
     "time": "2018-01-01 08:30:00", "duration": 5,
     "src_loc": [-79.3, 43.65], "dst_loc": [-79.2, 43.7]}
  ]
}`

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func compress(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func TestParse(t *testing.T) {
	ds, err := Parse([]byte(sampleDataset))
	require.NoError(t, err)

	require.Len(t, ds.Customers, 2)
	assert.Equal(t, 1, ds.Customers[0].ID)
	assert.Equal(t, []models.LineSpec{
		{Number: "100-0001", Contract: models.ContractTerm},
		{Number: "100-0002", Contract: models.ContractMTM},
	}, ds.Customers[0].Lines)

	assert.Equal(t, 1, ds.Skipped)
	require.Len(t, ds.Events, 3)
	assert.Equal(t, 2, ds.CallCount())
	assert.Equal(t, 1, ds.SMSCount())

	// Sorted by time
	assert.Equal(t, "100-0002", ds.Events[0].Src)
	assert.Equal(t, models.EventSMS, ds.Events[1].Type)
	assert.Equal(t, 0, ds.Events[1].Duration)

	call := ds.Events[2]
	assert.Equal(t, time.Date(2018, 1, 5, 10, 0, 0, 0, time.UTC), call.Time)
	assert.Equal(t, 61, call.Duration)
	assert.Equal(t, models.Location{Long: -79.5, Lat: 43.7}, call.SrcLoc)
	assert.Equal(t, models.Location{Long: -79.4, Lat: 43.6}, call.DstLoc)
}

func TestParse_Empty(t *testing.T) {
	ds, err := Parse([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, ds.Customers)
	assert.Empty(t, ds.Events)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"NotJSON", `{"customers": [`},
		{"NotObject", `[1, 2, 3]`},
		{"CustomersNotArray", `{"customers": 5}`},
		{"MissingID", `{"customers": [{"lines": []}]}`},
		{"LineWithoutNumber", `{"customers": [{"id": 1, "lines": [{"contract": "mtm"}]}]}`},
		{"BadTime", `{"events": [{"type": "call", "time": "yesterday", "src_loc": [0, 0], "dst_loc": [0, 0]}]}`},
		{"MissingLocation", `{"events": [{"type": "call", "time": "2018-01-01 00:00:00", "src_loc": [0, 0]}]}`},
		{"MissingDuration", `{"events": [{"type": "call", "time": "2018-01-01 00:00:00", "src_loc": [0, 0], "dst_loc": [0, 0]}]}`},
		{"StringDuration", `{"events": [{"type": "call", "time": "2018-01-01 00:00:00", "duration": "60", "src_loc": [0, 0], "dst_loc": [0, 0]}]}`},
		{"FractionalDuration", `{"events": [{"type": "call", "time": "2018-01-01 00:00:00", "duration": 1.5, "src_loc": [0, 0], "dst_loc": [0, 0]}]}`},
		{"NegativeDuration", `{"events": [{"type": "call", "time": "2018-01-01 00:00:00", "duration": -1, "src_loc": [0, 0], "dst_loc": [0, 0]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed), "error %v should wrap ErrMalformed", err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "dataset.json", []byte(sampleDataset))

	ds, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, ds.Customers, 2)
	assert.Len(t, ds.Events, 3)
}

func TestLoad_Zstd(t *testing.T) {
	path := writeFile(t, "dataset.json.zst", compress(t, []byte(sampleDataset)))

	ds, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, ds.Events, 3)
}

func TestLoad_ZstdSniffed(t *testing.T) {
	path := writeFile(t, "dataset.json", compress(t, []byte(sampleDataset)))

	ds, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, ds.Customers, 2)
}

func TestLoad_CorruptZstd(t *testing.T) {
	path := writeFile(t, "dataset.zst", []byte("definitely not zstd"))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestLoad_MalformedNamesPath(t *testing.T) {
	path := writeFile(t, "broken.json", []byte(`{"events": [`))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Contains(t, err.Error(), "broken.json")
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
