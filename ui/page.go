package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/serenade/internal/content"
	"github.com/dgnsrekt/serenade/internal/gallery"
	"github.com/dgnsrekt/serenade/internal/motion"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

const (
	statusLineHeight = 1
	statusBarHeight  = 1

	galleryGap      = 2
	paragraphMargin = 4

	// The headline floats 20 units up; one terminal row is as far as it
	// can go.
	floatUnitsPerRow = 20

	buttonPadding      = 2
	buttonScalePadding = 10

	galleryHoverScale = 1.05
	galleryTapScale   = 0.95
	buttonHoverScale  = 1.1
	hoverDuration     = 200 * time.Millisecond

	// Below this opacity an element is not drawn at all.
	invisible = 0.02
)

// Glyphs for a quarter turn each, clockwise.
var spinGlyphs = []string{"◐", "◓", "◑", "◒"}

// pageLine is one line of the content column. Only the text is drawn; the
// rest of the row belongs to the particle field.
type pageLine struct {
	indent int
	text   string
	width  int
}

// hitBox is a screen area of the content, in content lines and columns.
type hitBox struct {
	line0, line1 int
	x0, x1       int
}

func (h hitBox) contains(x, line int) bool {
	return line >= h.line0 && line < h.line1 && x >= h.x0 && x < h.x1
}

func centered(s string, width int) pageLine {
	w := ansi.PrintableRuneWidth(s)
	return pageLine{indent: max(width-w, 0) / 2, text: s, width: w}
}

// render lays out the page at now and hands it to the viewport.
func (m *model) render(now time.Time) {
	width := m.viewport.Width
	if width <= 0 {
		m.lines = nil
		m.viewport.SetContent("")
		return
	}

	lines := []pageLine{{}}
	lines = append(lines, m.headingLines(now, width)...)
	lines = append(lines, pageLine{})
	galleryStart := len(lines)
	galleryLines, boxes := m.galleryLines(now, width)
	lines = append(lines, galleryLines...)
	m.cellBoxes = boxes
	for i := range m.cellBoxes {
		m.cellBoxes[i].line0 += galleryStart
		m.cellBoxes[i].line1 += galleryStart
		m.cellBoxes[i].x0 += m.contentLeft()
		m.cellBoxes[i].x1 += m.contentLeft()
	}
	for i, p := range m.page.Paragraphs {
		lines = append(lines, pageLine{})
		lines = append(lines, m.paragraphLines(i, p, now, width)...)
	}
	lines = append(lines, pageLine{}, pageLine{})

	button := centered(m.buttonView(now), width)
	m.buttonLine = len(lines)
	m.buttonX0 = m.contentLeft() + button.indent
	m.buttonX1 = m.buttonX0 + button.width
	lines = append(lines, button, pageLine{})

	m.lines = lines
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = strings.Repeat(" ", l.indent) + l.text
	}
	m.viewport.SetContent(strings.Join(texts, "\n"))
}

func (m model) headingLines(now time.Time, width int) []pageLine {
	ty := m.heading.Value(motion.TranslateY, now)
	lift := min(max(int(math.Round(-ty/floatUnitsPerRow)), 0), 1)

	heading := headingStyle.Foreground(lipgloss.Color(pink500)).Render(m.page.Heading)
	out := make([]pageLine, 2)
	out[1-lift] = centered(heading, width)
	return out
}

// galleryLines lays out the grid and returns where each cell landed,
// relative to the gallery's first line and the content column.
func (m model) galleryLines(now time.Time, width int) ([]pageLine, []hitBox) {
	n := len(m.page.Images)
	if n == 0 {
		return nil, nil
	}
	cols := gallery.Columns(m.width, m.cfg.NarrowBreakpoint)
	cellWidth := (width - galleryGap*(cols-1)) / cols
	if cellWidth <= 0 {
		return nil, nil
	}
	cellRows := max(cellWidth/2, 1)

	cells := gallery.Layout(n, cols)
	grid := make([][]string, cells[n-1].Row+1)
	for i, cell := range cells {
		grid[cell.Row] = append(grid[cell.Row], m.galleryCell(i, now, cellWidth, cellRows))
	}

	gridWidth := cols*cellWidth + galleryGap*(cols-1)
	indent := max(width-gridWidth, 0) / 2
	gap := strings.Repeat(" ", galleryGap)
	rowStart := make([]int, len(grid))
	var out []pageLine
	for r, row := range grid {
		if r > 0 {
			out = append(out, pageLine{})
		}
		rowStart[r] = len(out)
		joined := make([]string, 0, len(row)*2)
		for i, cell := range row {
			if i > 0 {
				joined = append(joined, gap)
			}
			joined = append(joined, cell)
		}
		block := lipgloss.JoinHorizontal(lipgloss.Top, joined...)
		for _, l := range strings.Split(block, "\n") {
			out = append(out, pageLine{indent: indent, text: l, width: ansi.PrintableRuneWidth(l)})
		}
	}

	boxes := make([]hitBox, n)
	for i, cell := range cells {
		x0 := indent + cell.Col*(cellWidth+galleryGap)
		boxes[i] = hitBox{
			line0: rowStart[cell.Row],
			line1: rowStart[cell.Row] + cellRows,
			x0:    x0,
			x1:    x0 + cellWidth,
		}
	}
	return out, boxes
}

// galleryCell draws image i into a fixed slot, scaled and faded by its
// entrance animation.
func (m model) galleryCell(i int, now time.Time, width, rows int) string {
	entrance := m.entrances[i]
	opacity := entrance.Value(motion.Opacity, now)
	// Resting images leave room to grow on hover.
	hover := 1.0
	if i < len(m.cellScales) {
		hover = m.cellScales[i].Value(now)
	}
	scale := entrance.Value(motion.Scale, now) * hover / galleryHoverScale
	scale = math.Round(scale*20) / 20

	var img string
	if opacity > invisible && i < len(m.images) {
		w := max(int(math.Round(float64(width)*scale)), 1)
		r := max(int(math.Round(float64(rows)*scale)), 1)
		img = m.renderer.Render(m.images[i], w, r, opacity)
	}
	return lipgloss.Place(width, rows, lipgloss.Center, lipgloss.Center, img)
}

func (m model) paragraphLines(i int, p content.Paragraph, now time.Time, width int) []pageLine {
	text := wordwrap.String(strings.Join(strings.Fields(p.Text), " "), max(width-paragraphMargin, 10))
	wrapped := strings.Split(text, "\n")
	out := make([]pageLine, len(wrapped))

	opacity := m.fades[i].Value(motion.Opacity, now)
	if opacity <= invisible {
		return out
	}

	color := p.Color
	if color == "" {
		color = gray700
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(m.blend(color, opacity)))
	switch p.Emphasis {
	case content.Bold:
		style = style.Bold(true)
	case content.Italic:
		style = style.Italic(true)
	}
	for j, l := range wrapped {
		out[j] = pageLine{
			indent: max(width-runewidth.StringWidth(l), 0) / 2,
			text:   style.Render(l),
			width:  runewidth.StringWidth(l),
		}
	}
	return out
}

func (m model) buttonView(now time.Time) string {
	scale := m.button.Value(motion.Scale, now) * m.buttonScale.Value(now)
	pad := buttonPadding + int(math.Round((scale-1)*buttonScalePadding))

	label := m.ctrl.ButtonLabel()
	if !m.button.Spec().IsNone() {
		label = spinGlyph(m.button.Value(motion.Rotate, now)) + " " + label
	}
	return buttonStyle.Padding(0, pad).Render(label)
}

func spinGlyph(degrees float64) string {
	d := math.Mod(degrees, 360)
	if d < 0 {
		d += 360
	}
	return spinGlyphs[int(d/90)%len(spinGlyphs)]
}

func (m model) blend(color string, opacity float64) string {
	return motion.Blend(color, m.cfg.Background, opacity)
}

func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder
	frame := m.field.Render(m.width, m.viewport.Height, m.cfg.Background)
	left := m.contentLeft()
	for y := 0; y < m.viewport.Height; y++ {
		var l pageLine
		if i := y + m.viewport.YOffset; i < len(m.lines) {
			l = m.lines[i]
		}
		from := min(left+l.indent, m.width)
		row := frame.Row(y, 0, from) + l.text + frame.Row(y, from+l.width, m.width)
		b.WriteString(clip(row, m.width))
		b.WriteByte('\n')
	}

	b.WriteString(clip(m.statusLineView(), m.width))
	b.WriteByte('\n')
	var bar strings.Builder
	m.statusBarView(&bar)
	b.WriteString(clip(bar.String(), m.width))

	if m.showHelp {
		fmt.Fprint(&b, "\n"+m.helpView())
	}
	return b.String()
}

// statusLineView is the music status. It keeps its row while hidden.
func (m model) statusLineView() string {
	opacity := m.status.Value(m.now)
	if opacity <= invisible {
		return ""
	}
	s := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(m.blend(pink500, opacity))).
		Render(m.ctrl.StatusText())
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, s)
}

func (m model) statusBarView(b *strings.Builder) {
	const (
		minPercent               float64 = 0.0
		maxPercent               float64 = 1.0
		percentToStringMagnitude float64 = 100.0
	)

	logo := logoStyle(" Serenade ")

	track := " ♪ paused "
	if m.ctrl.IsPlaying() {
		track = " ♪ playing "
	}
	percent := math.Max(minPercent, math.Min(maxPercent, m.viewport.ScrollPercent()))
	track += fmt.Sprintf("%3.f%% ", percent*percentToStringMagnitude)
	track = statusBarTrackStyle(track)

	helpNote := statusBarHelpStyle(" ? Help ")

	showNote := m.note != ""
	note := m.page.Heading
	if showNote {
		note = m.note
	}
	note = truncate.StringWithTail(" "+note+" ", uint(max(0, //nolint:gosec
		m.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(track)-
			ansi.PrintableRuneWidth(helpNote),
	)), ellipsis)
	if showNote {
		note = statusBarMessageStyle(note)
	} else {
		note = statusBarNoteStyle(note)
	}

	// Empty space
	padding := max(0,
		m.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(track)-
			ansi.PrintableRuneWidth(helpNote),
	)
	emptySpace := strings.Repeat(" ", padding)
	if showNote {
		emptySpace = statusBarMessageStyle(emptySpace)
	} else {
		emptySpace = statusBarNoteStyle(emptySpace)
	}

	fmt.Fprintf(b, "%s%s%s%s%s",
		logo,
		note,
		emptySpace,
		track,
		helpNote,
	)
}

func (m model) helpView() string {
	s := "\n" + m.help.FullHelpView(m.keys.FullHelp()) + "\n"
	s = indent(s, 2)

	// Fill up empty cells with spaces for background coloring
	if m.width > 0 {
		lines := strings.Split(s, "\n")
		for i := 0; i < len(lines); i++ {
			l := ansi.PrintableRuneWidth(lines[i])
			n := max(m.width-l, 0)
			lines[i] = clip(lines[i]+strings.Repeat(" ", n), m.width)
		}
		s = strings.Join(lines, "\n")
	}

	return helpViewStyle(s)
}

// clip cuts s down to width cells. Narrow terminals would otherwise wrap
// the line and push the footer off screen.
func clip(s string, width int) string {
	if ansi.PrintableRuneWidth(s) <= width {
		return s
	}
	return truncate.String(s, uint(max(width, 0))) //nolint:gosec
}

func helpHeight(help string) int {
	return strings.Count(help, "\n") + 1
}

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		fmt.Fprintf(&b, "%s%s\n", i, v)
	}
	return b.String()
}
