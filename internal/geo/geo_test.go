package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/callmap/internal/models"
)

func TestBounds_Contains(t *testing.T) {
	b := Bounds{MinLong: -1, MinLat: -1, MaxLong: 1, MaxLat: 1}

	assert.True(t, b.Contains(models.Location{Long: 0, Lat: 0}))
	assert.True(t, b.Contains(models.Location{Long: -1, Lat: 1}), "boundary is inclusive")
	assert.False(t, b.Contains(models.Location{Long: 1.0001, Lat: 0}))
	assert.False(t, b.Contains(models.Location{Long: 0, Lat: -1.5}))
}

func TestBounds_Project(t *testing.T) {
	b := Bounds{MinLong: 0, MinLat: 0, MaxLong: 10, MaxLat: 10}

	x, y := b.Project(models.Location{Long: 0, Lat: 10}, 11, 11)
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y, "north edge maps to row 0")

	x, y = b.Project(models.Location{Long: 10, Lat: 0}, 11, 11)
	assert.Equal(t, 10, x)
	assert.Equal(t, 10, y)

	x, y = b.Project(models.Location{Long: 5, Lat: 5}, 11, 11)
	assert.Equal(t, 5, x)
	assert.Equal(t, 5, y)

	x, y = b.Project(models.Location{Long: 50, Lat: -50}, 11, 11)
	assert.Equal(t, 10, x, "outside points are clamped")
	assert.Equal(t, 10, y)

	x, y = b.Project(models.Location{Long: 5, Lat: 5}, 0, 0)
	assert.Zero(t, x)
	assert.Zero(t, y)
}

func TestParseBounds(t *testing.T) {
	b, err := ParseBounds("-79.6, 43.6, -79.3, 43.7")
	require.NoError(t, err)
	assert.Equal(t, Bounds{MinLong: -79.6, MinLat: 43.6, MaxLong: -79.3, MaxLat: 43.7}, b)

	round, err := ParseBounds(b.String())
	require.NoError(t, err)
	assert.Equal(t, b, round)

	for _, in := range []string{"", "1,2,3", "a, b, c, d", "1, 1, 0, 2", "1,2,3,4,5"} {
		_, err := ParseBounds(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestDefaultBounds(t *testing.T) {
	assert.True(t, DefaultBounds.Valid())
	assert.True(t, DefaultBounds.ContainsBounds(Bounds{
		MinLong: -79.6, MinLat: 43.6, MaxLong: -79.3, MaxLat: 43.7,
	}))
	assert.False(t, DefaultBounds.ContainsBounds(Bounds{
		MinLong: -80, MinLat: 43.6, MaxLong: -79.3, MaxLat: 43.7,
	}))
}
