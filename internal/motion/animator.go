package motion

import (
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// Animator holds the animation currently applied to one element.
type Animator struct {
	spec  Spec
	start time.Time
}

// Apply switches to s. Re-applying the running spec is a no-op, so callers
// can apply the desired animation on every frame without restarting it.
func (a *Animator) Apply(s Spec, now time.Time) {
	if a.spec.Name == s.Name && a.spec.IsNone() == s.IsNone() {
		return
	}
	a.spec = s
	a.start = now
}

// Spec returns the applied animation.
func (a *Animator) Spec() Spec { return a.spec }

// Value samples p at now. With no animation applied p is at rest.
func (a *Animator) Value(p Property, now time.Time) float64 {
	if a.spec.IsNone() {
		return Identity(p)
	}
	return a.spec.Value(p, now.Sub(a.start))
}

// Fader tweens a single value toward a target, restarting from wherever it
// currently is when the target changes.
type Fader struct {
	from     float64
	to       float64
	start    time.Time
	duration time.Duration
}

// NewFader returns a fader resting at value.
func NewFader(value float64, duration time.Duration) Fader {
	return Fader{from: value, to: value, duration: duration}
}

// Target is the value the fader is heading to.
func (f *Fader) Target() float64 { return f.to }

// Set retargets the fader. Setting the current target again is a no-op.
func (f *Fader) Set(target float64, now time.Time) {
	if target == f.to {
		return
	}
	f.from = f.Value(now)
	f.to = target
	f.start = now
}

// Value samples the fader at now.
func (f *Fader) Value(now time.Time) float64 {
	if f.duration <= 0 || f.from == f.to {
		return f.to
	}
	t := now.Sub(f.start)
	if t >= f.duration {
		return f.to
	}
	if t <= 0 {
		return f.from
	}
	p := EaseInOut(float64(t) / float64(f.duration))
	return f.from + (f.to-f.from)*p
}

// Blend renders fg at the given opacity over bg and returns the resulting
// hex colour. Terminals have no alpha channel, so opacity is faked by
// mixing toward the background.
func Blend(fg, bg string, opacity float64) string {
	if opacity >= 1 {
		return fg
	}
	f, err := colorful.Hex(fg)
	if err != nil {
		return fg
	}
	b, err := colorful.Hex(bg)
	if err != nil {
		return fg
	}
	if opacity < 0 {
		opacity = 0
	}
	return b.BlendRgb(f, opacity).Clamped().Hex()
}
