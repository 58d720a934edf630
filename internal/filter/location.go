package filter

import (
	"fmt"

	"github.com/j-veylop/callmap/internal/billing"
	"github.com/j-veylop/callmap/internal/geo"
	"github.com/j-veylop/callmap/internal/models"
)

// Location keeps calls placed or received inside a rectangle of the map.
type Location struct {
	Map geo.Bounds
}

// Apply keeps calls whose source or destination lies inside the rectangle in
// query, boundaries included. An empty rectangle leaves data unchanged.
func (f Location) Apply(_ []*billing.Customer, data []models.Call, query string) []models.Call {
	area, err := f.parse(query)
	if err != nil {
		return data
	}
	return keepOrAll(data, func(c models.Call) bool {
		return area.Contains(c.SrcLoc) || area.Contains(c.DstLoc)
	})
}

// Validate implements Validator.
func (f Location) Validate(_ []*billing.Customer, query string) error {
	_, err := f.parse(query)
	return err
}

func (f Location) parse(query string) (geo.Bounds, error) {
	area, err := geo.ParseBounds(query)
	if err != nil {
		return geo.Bounds{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if !f.Map.ContainsBounds(area) {
		return geo.Bounds{}, fmt.Errorf("%w: rectangle %s lies outside the map (%s)", ErrInvalidQuery, area, f.Map)
	}
	return area, nil
}

// Description implements Filter.
func (Location) Description() string {
	return "Filter calls made or received in a given rectangular area. " +
		"Format: \"lowerLong, lowerLat, upperLong, upperLat\" (e.g., -79.6, 43.6, -79.3, 43.7)"
}
