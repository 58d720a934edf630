package render

import (
	"fmt"
	"image/color"

	"github.com/j-veylop/callmap/internal/models"
)

// Line calls plot for every cell on the segment from (x0, y0) to (x1, y1),
// endpoints included, using Bresenham's algorithm.
func Line(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy

	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Line colours per contract type.
var (
	colorTerm    = color.RGBA{R: 97, G: 175, B: 239, A: 255}
	colorMTM     = color.RGBA{R: 152, G: 195, B: 121, A: 255}
	colorPrepaid = color.RGBA{R: 229, G: 192, B: 123, A: 255}
	colorUnknown = color.RGBA{R: 128, G: 128, B: 128, A: 255}
)

// ContractColor returns the line colour used for calls from a contract type.
func ContractColor(contract string) color.RGBA {
	switch contract {
	case models.ContractTerm:
		return colorTerm
	case models.ContractMTM:
		return colorMTM
	case models.ContractPrepaid:
		return colorPrepaid
	default:
		return colorUnknown
	}
}

// ContractHex is ContractColor as a "#rrggbb" string for terminal styling.
func ContractHex(contract string) string {
	c := ContractColor(contract)
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
