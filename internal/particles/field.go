// Package particles simulates the background field of drifting, linked dots
// and draws it into terminal cells. The field runs on its own once created;
// pointer hover repulses nearby particles and a click pushes new ones in.
package particles

import (
	"math"
	"math/rand/v2"
	"time"
)

// Terminal cells are taller than they are wide. The simulation runs in a
// pixel-like space and maps to cells at the end.
const (
	CellWidth  = 8.0
	CellHeight = 16.0
)

// Options mirror the classic particle background configuration.
type Options struct {
	Count        int     // particles per density area
	Density      bool    // scale Count with the field's area
	DensityArea  float64 // reference area, in thousands of square units
	Color        string  // particle colour
	Opacity      float64 // particle opacity against the background
	LinkColor    string  // colour of the lines between close particles
	LinkDistance float64
	LinkOpacity  float64
	Speed        float64 // units per frame at 60 fps
	MinSize      float64
	MaxSize      float64
	FPSLimit     int

	RepulseDistance float64
	RepulseDuration time.Duration
	PushQuantity    int
}

// DefaultOptions returns the page's background configuration.
func DefaultOptions() Options {
	return Options{
		Count:           80,
		Density:         true,
		DensityArea:     800,
		Color:           "#ff69b4",
		Opacity:         0.5,
		LinkColor:       "#ff69b4",
		LinkDistance:    150,
		LinkOpacity:     0.5,
		Speed:           2,
		MinSize:         1,
		MaxSize:         5,
		FPSLimit:        30,
		RepulseDistance: 200,
		RepulseDuration: 400 * time.Millisecond,
		PushQuantity:    4,
	}
}

// Particle is one dot.
type Particle struct {
	X, Y   float64
	VX, VY float64 // units per second
	Size   float64
}

// Field is the particle simulation.
type Field struct {
	opts      Options
	rng       *rand.Rand
	width     float64
	height    float64
	particles []Particle

	hovering bool
	hoverX   float64
	hoverY   float64
}

// New creates a field covering cols x rows terminal cells. It is the only
// place the field is configured.
func New(opts Options, cols, rows int, rng *rand.Rand) *Field {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	f := &Field{opts: opts, rng: rng}
	f.Resize(cols, rows)
	return f
}

// Particles returns the current particles.
func (f *Field) Particles() []Particle { return f.particles }

// Options returns the field's configuration.
func (f *Field) Options() Options { return f.opts }

// Resize changes the field to cols x rows cells, keeping particles in
// bounds and topping up or trimming to the target count.
func (f *Field) Resize(cols, rows int) {
	f.width = float64(max(cols, 0)) * CellWidth
	f.height = float64(max(rows, 0)) * CellHeight

	for i := range f.particles {
		p := &f.particles[i]
		p.X = clamp(p.X, 0, f.width)
		p.Y = clamp(p.Y, 0, f.height)
	}

	target := f.targetCount()
	for len(f.particles) < target {
		f.particles = append(f.particles, f.spawn(f.rng.Float64()*f.width, f.rng.Float64()*f.height))
	}
	if len(f.particles) > target {
		f.particles = f.particles[:target]
	}
}

// targetCount applies density scaling to the configured count.
func (f *Field) targetCount() int {
	if f.width == 0 || f.height == 0 {
		return 0
	}
	if !f.opts.Density || f.opts.DensityArea <= 0 {
		return f.opts.Count
	}
	area := f.width * f.height / (f.opts.DensityArea * 1000)
	return max(1, int(math.Round(float64(f.opts.Count)*area)))
}

// spawn creates a particle at x, y heading in a random direction.
func (f *Field) spawn(x, y float64) Particle {
	angle := f.rng.Float64() * 2 * math.Pi
	speed := f.opts.Speed * 60
	return Particle{
		X:    x,
		Y:    y,
		VX:   math.Cos(angle) * speed,
		VY:   math.Sin(angle) * speed,
		Size: f.opts.MinSize + f.rng.Float64()*(f.opts.MaxSize-f.opts.MinSize),
	}
}

// Step advances the simulation by dt. Particles bounce off the edges.
func (f *Field) Step(dt time.Duration) {
	s := dt.Seconds()
	if s <= 0 {
		return
	}
	for i := range f.particles {
		p := &f.particles[i]
		p.X += p.VX * s
		p.Y += p.VY * s

		if p.X < 0 || p.X > f.width {
			p.VX = -p.VX
			p.X = clamp(p.X, 0, f.width)
		}
		if p.Y < 0 || p.Y > f.height {
			p.VY = -p.VY
			p.Y = clamp(p.Y, 0, f.height)
		}

		if f.hovering {
			f.repulse(p, s)
		}
	}
}

// repulse moves p away from the pointer. A particle at the pointer is
// pushed out to the edge of the repulse radius over RepulseDuration.
func (f *Field) repulse(p *Particle, s float64) {
	dx := p.X - f.hoverX
	dy := p.Y - f.hoverY
	d := math.Hypot(dx, dy)
	r := f.opts.RepulseDistance
	if d >= r || r <= 0 {
		return
	}
	if d == 0 {
		dx, dy, d = 1, 0, 1
	}

	rate := 1.0
	if f.opts.RepulseDuration > 0 {
		rate = math.Min(1, s/f.opts.RepulseDuration.Seconds())
	}
	push := (r - d) * rate
	p.X = clamp(p.X+dx/d*push, 0, f.width)
	p.Y = clamp(p.Y+dy/d*push, 0, f.height)
}

// Hover moves the pointer to the cell at col, row.
func (f *Field) Hover(col, row int) {
	f.hovering = true
	f.hoverX, f.hoverY = cellCenter(col, row)
}

// Leave removes the pointer from the field.
func (f *Field) Leave() { f.hovering = false }

// Push adds PushQuantity particles at the cell at col, row.
func (f *Field) Push(col, row int) {
	x, y := cellCenter(col, row)
	x = clamp(x, 0, f.width)
	y = clamp(y, 0, f.height)
	for i := 0; i < f.opts.PushQuantity; i++ {
		f.particles = append(f.particles, f.spawn(x, y))
	}
}

// FrameInterval is the time between frames at the configured fps limit.
func (f *Field) FrameInterval() time.Duration {
	fps := f.opts.FPSLimit
	if fps <= 0 {
		fps = 30
	}
	return time.Second / time.Duration(fps)
}

func cellCenter(col, row int) (float64, float64) {
	return (float64(col) + 0.5) * CellWidth, (float64(row) + 0.5) * CellHeight
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
