package particles

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/serenade/internal/motion"
)

// Kind is what occupies a cell.
type Kind uint8

const (
	Empty Kind = iota
	Link
	Dot
)

const (
	linkGlyph     = '·'
	smallDotGlyph = '•'
	largeDotGlyph = '●'
)

// Frame is one rendered snapshot of the field.
type Frame struct {
	Cols, Rows int
	kinds      []Kind
	glyphs     []rune
	dotColor   string
	dotStyle   lipgloss.Style
	linkStyle  lipgloss.Style
}

// At returns the content of the cell at col, row.
func (fr *Frame) At(col, row int) (Kind, rune) {
	if col < 0 || row < 0 || col >= fr.Cols || row >= fr.Rows {
		return Empty, ' '
	}
	i := row*fr.Cols + col
	return fr.kinds[i], fr.glyphs[i]
}

func (fr *Frame) set(col, row int, k Kind, r rune) {
	if col < 0 || row < 0 || col >= fr.Cols || row >= fr.Rows {
		return
	}
	i := row*fr.Cols + col
	if fr.kinds[i] > k {
		return
	}
	fr.kinds[i] = k
	fr.glyphs[i] = r
}

// Render draws the field into cols x rows cells. background is the colour
// particle and link opacity are blended against; leave it empty to draw
// them at full strength.
func (f *Field) Render(cols, rows int, background string) *Frame {
	fr := &Frame{
		Cols:     max(cols, 0),
		Rows:     max(rows, 0),
		dotColor: f.opts.Color,
	}
	linkColor := f.opts.LinkColor
	if background != "" {
		fr.dotColor = motion.Blend(fr.dotColor, background, f.opts.Opacity)
		linkColor = motion.Blend(linkColor, background, f.opts.LinkOpacity)
	}
	fr.dotStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(fr.dotColor))
	fr.linkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(linkColor)).Faint(background == "")

	n := fr.Cols * fr.Rows
	fr.kinds = make([]Kind, n)
	fr.glyphs = make([]rune, n)
	for i := range fr.glyphs {
		fr.glyphs[i] = ' '
	}

	if f.opts.LinkDistance > 0 {
		for i := range f.particles {
			for j := i + 1; j < len(f.particles); j++ {
				a, b := f.particles[i], f.particles[j]
				if math.Hypot(a.X-b.X, a.Y-b.Y) > f.opts.LinkDistance {
					continue
				}
				ac, ar := toCell(a)
				bc, br := toCell(b)
				line(ac, ar, bc, br, func(c, r int) { fr.set(c, r, Link, linkGlyph) })
			}
		}
	}

	mid := (f.opts.MinSize + f.opts.MaxSize) / 2
	for _, p := range f.particles {
		c, r := toCell(p)
		glyph := smallDotGlyph
		if p.Size > mid {
			glyph = largeDotGlyph
		}
		fr.set(c, r, Dot, glyph)
	}
	return fr
}

// Row renders cells [from, to) of row as a styled string of width to-from.
func (fr *Frame) Row(row, from, to int) string {
	if to <= from {
		return ""
	}
	var b strings.Builder
	var run []rune
	runKind := Empty

	flush := func() {
		if len(run) == 0 {
			return
		}
		switch runKind {
		case Dot:
			b.WriteString(fr.dotStyle.Render(string(run)))
		case Link:
			b.WriteString(fr.linkStyle.Render(string(run)))
		default:
			b.WriteString(string(run))
		}
		run = run[:0]
	}

	for col := from; col < to; col++ {
		k, g := fr.At(col, row)
		if k != runKind {
			flush()
			runKind = k
		}
		run = append(run, g)
	}
	flush()
	return b.String()
}

func toCell(p Particle) (int, int) {
	return int(p.X / CellWidth), int(p.Y / CellHeight)
}

// line visits the cells between two points (Bresenham), excluding the
// endpoints, which belong to the particles themselves.
func line(x0, y0, x1, y1 int, visit func(int, int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	x, y := x0, y0
	for {
		if x == x1 && y == y1 {
			return
		}
		if x != x0 || y != y0 {
			visit(x, y)
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
