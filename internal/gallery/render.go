package gallery

import (
	"fmt"
	"image"
	"math"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/serenade/internal/cache"
	"github.com/dgnsrekt/serenade/internal/motion"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/reflow/truncate"
	"golang.org/x/image/draw"
)

const (
	halfBlock = "▀"

	// opacitySteps quantises fades so a handful of renders can be cached.
	opacitySteps = 10

	placeholderFg = "#D53F8C"
)

// Renderer draws gallery images, memoising each size and opacity.
type Renderer struct {
	cache      *cache.MemoryCache
	background string
}

// NewRenderer creates a renderer that fades images toward background.
func NewRenderer(c *cache.MemoryCache, background string) *Renderer {
	return &Renderer{cache: c, background: background}
}

// Render draws img at most width cells wide and maxRows rows tall, at the
// given opacity.
func (r *Renderer) Render(img Image, width, maxRows int, opacity float64) string {
	if width <= 0 || maxRows <= 0 {
		return ""
	}
	opacity = math.Round(clamp01(opacity)*opacitySteps) / opacitySteps
	key := fmt.Sprintf("%s@%dx%d/%.1f", img.Path, width, maxRows, opacity)

	return r.cache.GetOrRender(key, func() string {
		if img.img == nil {
			return r.placeholder(img, width, maxRows, opacity)
		}
		return r.halfBlocks(img.img, width, maxRows, opacity)
	})
}

// halfBlocks scales src and draws each pair of pixel rows as one line of
// upper half blocks: foreground is the top pixel, background the bottom.
func (r *Renderer) halfBlocks(src image.Image, width, maxRows int, opacity float64) string {
	sw, sh := src.Bounds().Dx(), src.Bounds().Dy()
	if sw == 0 || sh == 0 {
		return ""
	}
	w, rows := fit(sw, sh, width, maxRows)

	dst := image.NewRGBA(image.Rect(0, 0, w, rows*2))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var b strings.Builder
	for y := 0; y < rows; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < w; x++ {
			top := r.pixel(dst, x, y*2, opacity)
			bottom := r.pixel(dst, x, y*2+1, opacity)
			b.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(top)).
				Background(lipgloss.Color(bottom)).
				Render(halfBlock))
		}
	}
	return b.String()
}

// fit scales an image of sw x sh pixels into width cells and maxRows rows,
// keeping its aspect ratio. Each row holds two pixels.
func fit(sw, sh, width, maxRows int) (int, int) {
	w := width
	rows := int(math.Ceil(float64(w) * float64(sh) / float64(sw) / 2))
	if rows > maxRows {
		rows = maxRows
		w = max(1, int(math.Round(float64(rows*2)*float64(sw)/float64(sh))))
		w = min(w, width)
	}
	return w, max(rows, 1)
}

func (r *Renderer) pixel(img *image.RGBA, x, y int, opacity float64) string {
	c, ok := colorful.MakeColor(img.RGBAAt(x, y))
	hex := "#000000"
	if ok {
		hex = c.Hex()
	}
	if r.background == "" {
		return hex
	}
	return motion.Blend(hex, r.background, opacity)
}

// placeholder is drawn for images that could not be loaded.
func (r *Renderer) placeholder(img Image, width, maxRows int, opacity float64) string {
	fg := placeholderFg
	if r.background != "" {
		fg = motion.Blend(fg, r.background, opacity)
	}

	inner := max(width-4, 1)
	rows := max(min(maxRows, width/4), 3) - 2
	text := truncate.StringWithTail("✗ "+img.Alt, uint(inner), "…")            //nolint:gosec
	name := truncate.StringWithTail(filepath.Base(img.Path), uint(inner), "…") //nolint:gosec

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(fg)).
		Foreground(lipgloss.Color(fg)).
		Width(inner+2).
		Height(max(rows, 2)).
		Align(lipgloss.Center, lipgloss.Center).
		Render(text + "\n" + name)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Reset drops every cached render. Files may have changed on disk since
// they were drawn.
func (r *Renderer) Reset() {
	r.cache.Clear()
}

// Stats reports how the render cache is doing.
func (r *Renderer) Stats() cache.Stats {
	return r.cache.Stats()
}
