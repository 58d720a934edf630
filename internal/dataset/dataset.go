// Package dataset reads call record datasets from disk and watches them for changes.
package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/valyala/fastjson"

	"github.com/j-veylop/callmap/internal/logger"
	"github.com/j-veylop/callmap/internal/models"
)

// ErrMalformed is returned when a dataset file cannot be parsed.
var ErrMalformed = errors.New("malformed dataset")

// zstdMagic is the frame header of a zstd stream.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var parserPool fastjson.ParserPool

// Load reads and parses the dataset at path. Files ending in .zst, or
// starting with a zstd frame header, are decompressed first.
func Load(path string) (*models.Dataset, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".zst") || bytes.HasPrefix(data, zstdMagic) {
		data, err = decompress(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
		}
	}

	ds, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logger.Debug("dataset loaded", "path", path, "customers", len(ds.Customers),
		"events", len(ds.Events), "skipped", ds.Skipped)
	return ds, nil
}

// decompress inflates a zstd-compressed body.
func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}

// Parse decodes a dataset document. Events of unknown type are skipped and
// counted; the remaining events are sorted stably by time.
func Parse(data []byte) (*models.Dataset, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if v.Type() != fastjson.TypeObject {
		return nil, fmt.Errorf("%w: top level must be an object", ErrMalformed)
	}

	ds := &models.Dataset{}

	customers, err := arrayField(v, "customers")
	if err != nil {
		return nil, err
	}
	ds.Customers = make([]models.CustomerSpec, 0, len(customers))
	for i, c := range customers {
		spec, err := parseCustomer(c)
		if err != nil {
			return nil, fmt.Errorf("%w: customer %d: %v", ErrMalformed, i, err)
		}
		ds.Customers = append(ds.Customers, spec)
	}

	events, err := arrayField(v, "events")
	if err != nil {
		return nil, err
	}
	ds.Events = make([]models.Event, 0, len(events))
	for i, e := range events {
		kind := models.EventType(strings.ToLower(string(e.GetStringBytes("type"))))
		if kind != models.EventCall && kind != models.EventSMS {
			ds.Skipped++
			continue
		}
		event, err := parseEvent(e, kind)
		if err != nil {
			return nil, fmt.Errorf("%w: event %d: %v", ErrMalformed, i, err)
		}
		ds.Events = append(ds.Events, event)
	}

	sort.SliceStable(ds.Events, func(i, j int) bool {
		return ds.Events[i].Time.Before(ds.Events[j].Time)
	})

	return ds, nil
}

// arrayField returns the array stored under key, or an empty slice if absent.
func arrayField(v *fastjson.Value, key string) ([]*fastjson.Value, error) {
	field := v.Get(key)
	if field == nil {
		return nil, nil
	}
	arr, err := field.Array()
	if err != nil {
		return nil, fmt.Errorf("%w: %q must be an array", ErrMalformed, key)
	}
	return arr, nil
}

func parseCustomer(v *fastjson.Value) (models.CustomerSpec, error) {
	idVal := v.Get("id")
	if idVal == nil {
		return models.CustomerSpec{}, errors.New("missing id")
	}
	id, err := idVal.Int()
	if err != nil {
		return models.CustomerSpec{}, fmt.Errorf("id: %v", err)
	}

	spec := models.CustomerSpec{ID: id}
	for _, l := range v.GetArray("lines") {
		number := string(l.GetStringBytes("number"))
		if number == "" {
			return models.CustomerSpec{}, errors.New("line without number")
		}
		spec.Lines = append(spec.Lines, models.LineSpec{
			Number:   number,
			Contract: strings.ToLower(string(l.GetStringBytes("contract"))),
		})
	}
	return spec, nil
}

func parseEvent(v *fastjson.Value, kind models.EventType) (models.Event, error) {
	ts := string(v.GetStringBytes("time"))
	t, err := time.Parse(models.TimeLayout, ts)
	if err != nil {
		return models.Event{}, fmt.Errorf("time %q: want %s", ts, models.TimeLayout)
	}

	src, err := parseLocation(v, "src_loc")
	if err != nil {
		return models.Event{}, err
	}
	dst, err := parseLocation(v, "dst_loc")
	if err != nil {
		return models.Event{}, err
	}

	event := models.Event{
		Time:   t,
		Type:   kind,
		Src:    string(v.GetStringBytes("src_number")),
		Dst:    string(v.GetStringBytes("dst_number")),
		SrcLoc: src,
		DstLoc: dst,
	}
	if kind == models.EventCall {
		d := v.Get("duration")
		if d == nil {
			return models.Event{}, errors.New("call without duration")
		}
		if event.Duration, err = d.Int(); err != nil {
			return models.Event{}, fmt.Errorf("duration: %v", err)
		}
		if event.Duration < 0 {
			return models.Event{}, fmt.Errorf("negative duration %d", event.Duration)
		}
	}
	return event, nil
}

// parseLocation reads a [long, lat] pair.
func parseLocation(v *fastjson.Value, key string) (models.Location, error) {
	pair := v.GetArray(key)
	if len(pair) != 2 {
		return models.Location{}, fmt.Errorf("%s must be [long, lat]", key)
	}
	long, err := pair[0].Float64()
	if err != nil {
		return models.Location{}, fmt.Errorf("%s longitude: %v", key, err)
	}
	lat, err := pair[1].Float64()
	if err != nil {
		return models.Location{}, fmt.Errorf("%s latitude: %v", key, err)
	}
	return models.Location{Long: long, Lat: lat}, nil
}
