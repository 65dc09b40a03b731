package particles

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/serenade/internal/motion"
)

func testRand() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) }

func TestDensityScalesCount(t *testing.T) {
	tests := []struct {
		name       string
		density    bool
		cols, rows int
		want       int
	}{
		{"density off", false, 80, 24, 80},
		{"small terminal", true, 80, 24, 25},
		{"large terminal", true, 200, 60, 154},
		{"empty", true, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Density = tt.density
			f := New(opts, tt.cols, tt.rows, testRand())
			if got := len(f.Particles()); got != tt.want {
				t.Errorf("particles = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStepKeepsParticlesInBounds(t *testing.T) {
	f := New(DefaultOptions(), 40, 10, testRand())
	w, h := 40*CellWidth, 10*CellHeight

	for i := 0; i < 500; i++ {
		f.Step(33 * time.Millisecond)
	}
	for i, p := range f.Particles() {
		if p.X < 0 || p.X > w || p.Y < 0 || p.Y > h {
			t.Fatalf("particle %d escaped: (%v, %v)", i, p.X, p.Y)
		}
	}
}

func TestStepMoves(t *testing.T) {
	f := New(DefaultOptions(), 80, 24, testRand())
	before := append([]Particle(nil), f.Particles()...)
	f.Step(100 * time.Millisecond)
	f.Step(0)

	moved := 0
	for i, p := range f.Particles() {
		if p.X != before[i].X || p.Y != before[i].Y {
			moved++
		}
	}
	if moved == 0 {
		t.Error("no particle moved")
	}
}

func TestPushAddsParticles(t *testing.T) {
	f := New(DefaultOptions(), 80, 24, testRand())
	n := len(f.Particles())

	f.Push(10, 5)
	if got := len(f.Particles()); got != n+4 {
		t.Fatalf("particles = %d, want %d", got, n+4)
	}
	for _, p := range f.Particles()[n:] {
		col, row := toCell(p)
		if col != 10 || row != 5 {
			t.Errorf("pushed particle at cell (%d, %d), want (10, 5)", col, row)
		}
	}
}

func TestHoverRepulses(t *testing.T) {
	opts := DefaultOptions()
	opts.Density = false
	opts.Count = 0
	opts.Speed = 0
	f := New(opts, 80, 24, testRand())
	f.Push(10, 5)
	p0 := f.Particles()[0]

	f.Hover(9, 5)
	f.Step(100 * time.Millisecond)

	hx, hy := cellCenter(9, 5)
	before := math.Hypot(p0.X-hx, p0.Y-hy)
	p1 := f.Particles()[0]
	after := math.Hypot(p1.X-hx, p1.Y-hy)
	if after <= before {
		t.Errorf("distance from pointer went from %v to %v, want it to grow", before, after)
	}

	f.Leave()
	f.Step(100 * time.Millisecond)
	if p2 := f.Particles()[0]; p2 != p1 {
		t.Error("still moving after the pointer left")
	}
}

func TestResizeTrims(t *testing.T) {
	f := New(DefaultOptions(), 200, 60, testRand())
	f.Resize(80, 24)
	if got := len(f.Particles()); got != 25 {
		t.Errorf("particles after resize = %d, want 25", got)
	}
	for _, p := range f.Particles() {
		if p.X > 80*CellWidth || p.Y > 24*CellHeight {
			t.Fatalf("particle outside resized field: (%v, %v)", p.X, p.Y)
		}
	}
}

func TestFrameInterval(t *testing.T) {
	opts := DefaultOptions()
	opts.FPSLimit = 120
	if got := New(opts, 1, 1, testRand()).FrameInterval(); got != time.Second/120 {
		t.Errorf("FrameInterval() = %v", got)
	}
	opts.FPSLimit = 0
	if got := New(opts, 1, 1, testRand()).FrameInterval(); got != time.Second/30 {
		t.Errorf("FrameInterval() with no limit = %v", got)
	}
}

func TestRenderPlacesDots(t *testing.T) {
	opts := DefaultOptions()
	opts.Density = false
	opts.Count = 0
	opts.Speed = 0
	f := New(opts, 20, 5, testRand())
	f.Push(2, 1)
	f.Push(12, 1)

	fr := f.Render(20, 5, "#FFF5F7")

	if k, _ := fr.At(2, 1); k != Dot {
		t.Errorf("cell (2,1) = %v, want dot", k)
	}
	if k, _ := fr.At(12, 1); k != Dot {
		t.Errorf("cell (12,1) = %v, want dot", k)
	}
	// 10 cells apart is 80 units, inside the link distance.
	if k, g := fr.At(7, 1); k != Link || g != linkGlyph {
		t.Errorf("cell (7,1) = %v %q, want link", k, g)
	}
	if k, _ := fr.At(7, 3); k != Empty {
		t.Errorf("cell (7,3) = %v, want empty", k)
	}
	if k, _ := fr.At(-1, 99); k != Empty {
		t.Error("out of range cells should be empty")
	}

	for row := 0; row < 5; row++ {
		if w := lipgloss.Width(fr.Row(row, 0, 20)); w != 20 {
			t.Errorf("row %d width = %d, want 20", row, w)
		}
	}
	if fr.Row(0, 5, 5) != "" {
		t.Error("empty span should render nothing")
	}
}

func TestRenderDotOpacity(t *testing.T) {
	opts := DefaultOptions()
	opts.Density = false
	opts.Count = 0
	f := New(opts, 10, 5, testRand())

	if got, want := f.Render(10, 5, "#FFF5F7").dotColor, motion.Blend(opts.Color, "#FFF5F7", 0.5); got != want {
		t.Errorf("dot colour = %s, want %s", got, want)
	}
	if got := f.Render(10, 5, "").dotColor; got != opts.Color {
		t.Errorf("dot colour without background = %s, want %s", got, opts.Color)
	}
}

func TestLineExcludesEndpoints(t *testing.T) {
	var cells [][2]int
	line(0, 0, 4, 0, func(c, r int) { cells = append(cells, [2]int{c, r}) })

	want := [][2]int{{1, 0}, {2, 0}, {3, 0}}
	if len(cells) != len(want) {
		t.Fatalf("cells = %v, want %v", cells, want)
	}
	for i := range want {
		if cells[i] != want[i] {
			t.Errorf("cells[%d] = %v, want %v", i, cells[i], want[i])
		}
	}

	cells = nil
	line(3, 3, 3, 3, func(c, r int) { cells = append(cells, [2]int{c, r}) })
	if len(cells) != 0 {
		t.Errorf("degenerate line visited %v", cells)
	}
}
