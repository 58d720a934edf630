// Package geo maps longitude/latitude coordinates onto drawing surfaces.
package geo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/j-veylop/callmap/internal/models"
)

// Bounds is a longitude/latitude rectangle.
type Bounds struct {
	MinLong float64
	MinLat  float64
	MaxLong float64
	MaxLat  float64
}

// DefaultBounds covers the city map shipped with the sample dataset.
var DefaultBounds = Bounds{
	MinLong: -79.697878,
	MinLat:  43.576959,
	MaxLong: -79.196382,
	MaxLat:  43.799568,
}

// Valid reports whether the rectangle has positive extent.
func (b Bounds) Valid() bool {
	return b.MinLong < b.MaxLong && b.MinLat < b.MaxLat
}

// Contains reports whether loc lies inside b, boundaries included.
func (b Bounds) Contains(loc models.Location) bool {
	return loc.Long >= b.MinLong && loc.Long <= b.MaxLong &&
		loc.Lat >= b.MinLat && loc.Lat <= b.MaxLat
}

// ContainsBounds reports whether inner lies entirely within b.
func (b Bounds) ContainsBounds(inner Bounds) bool {
	return b.Contains(models.Location{Long: inner.MinLong, Lat: inner.MinLat}) &&
		b.Contains(models.Location{Long: inner.MaxLong, Lat: inner.MaxLat})
}

// Clamp returns loc moved onto the nearest point inside b.
func (b Bounds) Clamp(loc models.Location) models.Location {
	return models.Location{
		Long: min(max(loc.Long, b.MinLong), b.MaxLong),
		Lat:  min(max(loc.Lat, b.MinLat), b.MaxLat),
	}
}

// Project maps loc onto a width x height grid. Row 0 is the northern edge.
// Points outside the bounds are clamped to the border.
func (b Bounds) Project(loc models.Location, width, height int) (x, y int) {
	if width <= 0 || height <= 0 || !b.Valid() {
		return 0, 0
	}
	loc = b.Clamp(loc)

	fx := (loc.Long - b.MinLong) / (b.MaxLong - b.MinLong)
	fy := (b.MaxLat - loc.Lat) / (b.MaxLat - b.MinLat)

	x = int(fx * float64(width-1))
	y = int(fy * float64(height-1))
	return x, y
}

// String formats the bounds in the same order ParseBounds accepts.
func (b Bounds) String() string {
	return fmt.Sprintf("%g, %g, %g, %g", b.MinLong, b.MinLat, b.MaxLong, b.MaxLat)
}

// ParseBounds parses "lowerLong, lowerLat, upperLong, upperLat".
func ParseBounds(s string) (Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Bounds{}, fmt.Errorf("invalid bounds %q: want 4 comma-separated values", s)
	}

	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Bounds{}, fmt.Errorf("invalid bounds %q: %w", s, err)
		}
		vals[i] = v
	}

	b := Bounds{MinLong: vals[0], MinLat: vals[1], MaxLong: vals[2], MaxLat: vals[3]}
	if b.MinLong > b.MaxLong || b.MinLat > b.MaxLat {
		return Bounds{}, fmt.Errorf("invalid bounds %q: lower corner above upper corner", s)
	}
	return b, nil
}
