// Package render draws calls onto raster images of the map.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg" // background maps may be JPEG
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/nfnt/resize"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/j-veylop/callmap/internal/geo"
	"github.com/j-veylop/callmap/internal/logger"
	"github.com/j-veylop/callmap/internal/models"
)

// DefaultWidth is the image width used when Options.Width is unset.
const DefaultWidth = 1024

var (
	mapBackground = color.RGBA{R: 24, G: 26, B: 33, A: 255}
	endpointColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Options controls how a map image is rendered.
type Options struct {
	// Contracts maps a phone number to its contract type and picks line colours.
	Contracts map[string]string
	// Background is an optional PNG or JPEG map image stretched to the output size.
	Background string
	Caption    string
	Bounds     geo.Bounds
	Width      int
	// Height defaults to the bounds' aspect ratio at their mid latitude.
	Height int
}

// FitHeight returns the image height that keeps b undistorted at width.
func FitHeight(b geo.Bounds, width int) int {
	if !b.Valid() || width <= 0 {
		return 0
	}
	midLat := (b.MinLat + b.MaxLat) / 2 * math.Pi / 180
	ratio := (b.MaxLat - b.MinLat) / ((b.MaxLong - b.MinLong) * math.Cos(midLat))
	return max(1, int(math.Round(float64(width)*ratio)))
}

func (o Options) size() (int, int) {
	w := o.Width
	if w <= 0 {
		w = DefaultWidth
	}
	h := o.Height
	if h <= 0 {
		h = FitHeight(o.Bounds, w)
	}
	return w, h
}

// Image renders calls as straight lines between their endpoints.
func Image(calls []models.Call, opts Options) (*image.RGBA, error) {
	if !opts.Bounds.Valid() {
		return nil, errors.New("render: invalid map bounds")
	}
	w, h := opts.size()
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	if opts.Background != "" {
		bg, err := loadBackground(opts.Background, w, h)
		if err != nil {
			return nil, err
		}
		draw.Draw(img, img.Bounds(), bg, bg.Bounds().Min, draw.Src)
	} else {
		draw.Draw(img, img.Bounds(), image.NewUniform(mapBackground), image.Point{}, draw.Src)
	}

	for _, c := range calls {
		x0, y0 := opts.Bounds.Project(c.SrcLoc, w, h)
		x1, y1 := opts.Bounds.Project(c.DstLoc, w, h)
		col := ContractColor(opts.Contracts[c.Src])
		Line(x0, y0, x1, y1, func(x, y int) {
			img.SetRGBA(x, y, col)
		})
	}
	for _, c := range calls {
		x0, y0 := opts.Bounds.Project(c.SrcLoc, w, h)
		x1, y1 := opts.Bounds.Project(c.DstLoc, w, h)
		marker(img, x0, y0, endpointColor)
		marker(img, x1, y1, ContractColor(opts.Contracts[c.Src]))
	}

	if opts.Caption != "" {
		caption(img, opts.Caption)
	}
	return img, nil
}

// PNG renders calls and encodes the result as PNG to w.
func PNG(w io.Writer, calls []models.Call, opts Options) error {
	img, err := Image(calls, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// ExportFile renders calls to a timestamped PNG in dir and returns its path.
func ExportFile(dir string, calls []models.Call, opts Options) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, "callmap-"+time.Now().Format("20060102-150405")+".png")
	return path, WriteFile(path, calls, opts)
}

// WriteFile renders calls to a PNG at path.
func WriteFile(path string, calls []models.Call, opts Options) (err error) {
	f, err := os.Create(path) //nolint:gosec // export path chosen by the user
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := PNG(f, calls, opts); err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	logger.Info("map exported", "path", path, "calls", len(calls))
	return nil
}

// loadBackground decodes the image at path and scales it to w×h.
func loadBackground(path string, w, h int) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open map image: %w", err)
	}
	defer func() { _ = f.Close() }()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode map image %s: %w", path, err)
	}
	if b := src.Bounds(); b.Dx() == w && b.Dy() == h {
		return src, nil
	}
	return resize.Resize(uint(w), uint(h), src, resize.Lanczos3), nil
}

// marker draws a 3×3 square centred on (x, y), clipped to the image.
func marker(img *image.RGBA, x, y int, col color.RGBA) {
	r := image.Rect(x-1, y-1, x+2, y+2).Intersect(img.Bounds())
	draw.Draw(img, r, image.NewUniform(col), image.Point{}, draw.Src)
}

// caption draws text near the bottom-left on a translucent backdrop.
func caption(img *image.RGBA, text string) {
	const pad = 6
	face := basicfont.Face7x13
	b := img.Bounds()

	dr := &font.Drawer{Dst: img, Src: image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255}), Face: face}
	tw := dr.MeasureString(text).Ceil()
	x := b.Min.X + 8
	y := b.Max.Y - 6

	rect := image.Rect(x-pad, y-face.Metrics().Ascent.Ceil()-pad, x+tw+pad, y+pad/2)
	draw.Draw(img, rect, image.NewUniform(color.RGBA{A: 200}), image.Point{}, draw.Over)

	dr.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	dr.DrawString(text)
}
