package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/callmap/internal/geo"
	"github.com/j-veylop/callmap/internal/models"
	"github.com/j-veylop/callmap/internal/render"
	"github.com/j-veylop/callmap/internal/ui/styles"
)

const (
	endpointRune = '●'
	emptyRune    = ' '
)

// cell is one character of the map canvas.
type cell struct {
	contract string
	r        rune
	endpoint bool
}

// MapCanvas draws calls as lines on a character grid.
type MapCanvas struct {
	contracts map[string]string
	calls     []models.Call
	bounds    geo.Bounds
	width     int
	height    int
}

// NewMapCanvas creates an empty canvas over bounds.
func NewMapCanvas(bounds geo.Bounds) MapCanvas {
	return MapCanvas{bounds: bounds}
}

// SetSize sets the canvas size in cells.
func (m *MapCanvas) SetSize(width, height int) {
	m.width = max(0, width)
	m.height = max(0, height)
}

// SetBounds changes the geographic area shown.
func (m *MapCanvas) SetBounds(bounds geo.Bounds) {
	m.bounds = bounds
}

// SetCalls sets the calls to draw. contracts maps caller numbers to their
// contract type and may be nil.
func (m *MapCanvas) SetCalls(calls []models.Call, contracts map[string]string) {
	m.calls = calls
	m.contracts = contracts
}

// Size returns the canvas size in cells.
func (m MapCanvas) Size() (int, int) {
	return m.width, m.height
}

// grid rasterises the calls. Later calls draw over earlier ones and
// endpoints are drawn over every line.
func (m MapCanvas) grid() [][]cell {
	grid := make([][]cell, m.height)
	for y := range grid {
		grid[y] = make([]cell, m.width)
		for x := range grid[y] {
			grid[y][x].r = emptyRune
		}
	}
	if m.width == 0 || m.height == 0 || !m.bounds.Valid() {
		return grid
	}

	for _, c := range m.calls {
		x0, y0 := m.bounds.Project(c.SrcLoc, m.width, m.height)
		x1, y1 := m.bounds.Project(c.DstLoc, m.width, m.height)
		r := lineRune(x1-x0, y1-y0)
		contract := m.contracts[c.Src]
		render.Line(x0, y0, x1, y1, func(x, y int) {
			grid[y][x] = cell{r: r, contract: contract}
		})
	}
	for _, c := range m.calls {
		for _, loc := range []models.Location{c.SrcLoc, c.DstLoc} {
			x, y := m.bounds.Project(loc, m.width, m.height)
			grid[y][x] = cell{r: endpointRune, endpoint: true}
		}
	}
	return grid
}

// lineRune picks a box-drawing character matching the slope of a segment.
// Screen rows grow downward.
func lineRune(dx, dy int) rune {
	adx, ady := dx, dy
	if adx < 0 {
		adx = -adx
	}
	if ady < 0 {
		ady = -ady
	}
	switch {
	case adx == 0 && ady == 0:
		return '·'
	case ady*2 < adx:
		return '─'
	case adx*2 < ady:
		return '│'
	case (dx > 0) == (dy > 0):
		return '╲'
	default:
		return '╱'
	}
}

// Plain renders the canvas without colour, one string per row.
func (m MapCanvas) Plain() []string {
	grid := m.grid()
	rows := make([]string, len(grid))
	for y, row := range grid {
		var b strings.Builder
		for _, c := range row {
			b.WriteRune(c.r)
		}
		rows[y] = b.String()
	}
	return rows
}

// View renders the canvas with lines coloured by contract type.
func (m MapCanvas) View() string {
	grid := m.grid()
	rows := make([]string, len(grid))
	for y, row := range grid {
		var b strings.Builder
		// Style runs of identical cells together to keep the output small
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && sameStyle(row[x], row[start]) {
				continue
			}
			b.WriteString(cellStyle(row[start]).Render(runes(row[start:x])))
			start = x
		}
		rows[y] = b.String()
	}
	return strings.Join(rows, "\n")
}

func sameStyle(a, b cell) bool {
	if a.r == emptyRune || b.r == emptyRune {
		return a.r == b.r
	}
	return a.endpoint == b.endpoint && a.contract == b.contract
}

func cellStyle(c cell) lipgloss.Style {
	switch {
	case c.r == emptyRune:
		return lipgloss.NewStyle()
	case c.endpoint:
		return styles.EndpointStyle
	default:
		return styles.ContractStyle(c.contract)
	}
}

func runes(cells []cell) string {
	var b strings.Builder
	for _, c := range cells {
		b.WriteRune(c.r)
	}
	return b.String()
}

// MapLegend renders the contract colour legend.
func MapLegend() string {
	return RenderLegend([]LegendItem{
		{Label: "term", Color: styles.ContractTerm},
		{Label: "mtm", Color: styles.ContractMTM},
		{Label: "prepaid", Color: styles.ContractPrepaid},
		{Label: "other", Color: styles.ContractUnknown},
	})
}
