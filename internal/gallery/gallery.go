// Package gallery loads the page's photos and draws them with half-block
// characters, two pixel rows per terminal row.
package gallery

import (
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
)

const (
	// NarrowBreakpoint is the terminal width below which the grid has one
	// column.
	NarrowBreakpoint = 80

	// thumbWidth bounds the decoded image kept in memory. Terminal cells
	// never need more.
	thumbWidth = 320
)

// Image is one gallery entry. A missing or undecodable file keeps its error
// and is drawn as a placeholder.
type Image struct {
	Path string
	Alt  string
	Err  error

	img image.Image
}

// Size returns the dimensions of the image as held in memory, or zero for a
// broken image.
func (i Image) Size() (int, int) {
	if i.img == nil {
		return 0, 0
	}
	b := i.img.Bounds()
	return b.Dx(), b.Dy()
}

// Load decodes every image. It never fails as a whole; each broken entry
// carries its own error.
func Load(paths []string, alt func(int) string) []Image {
	images := make([]Image, len(paths))
	for i, path := range paths {
		images[i] = Image{Path: path, Alt: alt(i)}
		img, err := decode(path)
		if err != nil {
			images[i].Err = err
			continue
		}
		images[i].img = thumbnail(img)
	}
	return images
}

func thumbnail(src image.Image) image.Image {
	b := src.Bounds()
	if b.Dx() <= thumbWidth {
		return src
	}
	h := max(1, b.Dy()*thumbWidth/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, thumbWidth, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("unable to decode image: %w", err)
	}
	return img, nil
}

// Inspect reads an image's format and dimensions without decoding it.
func Inspect(path string) (image.Config, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", fmt.Errorf("unable to open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return image.Config{}, "", fmt.Errorf("unable to read image header: %w", err)
	}
	return cfg, format, nil
}

// Columns is the number of grid columns for a terminal width.
func Columns(width, breakpoint int) int {
	if width < breakpoint {
		return 1
	}
	return 2
}

// Cell is a grid position.
type Cell struct {
	Row, Col int
}

// Layout places n items row by row in a grid of cols columns.
func Layout(n, cols int) []Cell {
	if cols < 1 {
		cols = 1
	}
	cells := make([]Cell, n)
	for i := range cells {
		cells[i] = Cell{Row: i / cols, Col: i % cols}
	}
	return cells
}
