package motion

import (
	"math"
	"time"
)

// Property is an animatable visual property.
type Property string

const (
	Opacity    Property = "opacity"
	Scale      Property = "scale"
	Rotate     Property = "rotate"
	TranslateY Property = "translateY"
)

// Infinite repeats an animation forever.
const Infinite = -1

// Identity returns the resting value of a property.
func Identity(p Property) float64 {
	switch p {
	case Opacity, Scale:
		return 1
	default:
		return 0
	}
}

// Easing maps linear progress in [0,1] to eased progress.
type Easing func(t float64) float64

// Linear is the identity easing.
func Linear(t float64) float64 { return t }

// EaseInOut is a quadratic ease-in-out curve.
func EaseInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return -1 + (4-2*t)*t
}

// Spec describes one animation. The zero Spec is None.
type Spec struct {
	Name     string
	Props    map[Property][]float64
	Duration time.Duration
	Delay    time.Duration
	Repeat   int // extra cycles after the first; Infinite loops forever
	Ease     Easing
}

// None is the empty animation.
var None = Spec{}

// IsNone reports whether s animates nothing.
func (s Spec) IsNone() bool { return len(s.Props) == 0 }

// Done reports whether a finite animation has reached its final frame.
func (s Spec) Done(elapsed time.Duration) bool {
	if s.IsNone() {
		return true
	}
	if s.Repeat == Infinite {
		return false
	}
	return elapsed >= s.Delay+s.Duration*time.Duration(s.Repeat+1)
}

// Value samples property p at the given time since the animation started.
// Properties the spec does not animate report their identity value.
func (s Spec) Value(p Property, elapsed time.Duration) float64 {
	frames, ok := s.Props[p]
	if !ok || len(frames) == 0 {
		return Identity(p)
	}
	if len(frames) == 1 {
		return frames[0]
	}

	t := elapsed - s.Delay
	if t <= 0 {
		return frames[0]
	}
	if s.Duration <= 0 || s.Done(elapsed) {
		return frames[len(frames)-1]
	}

	progress := float64(t%s.Duration) / float64(s.Duration)
	return sample(frames, progress, s.Ease)
}

// sample interpolates evenly spaced keyframes, easing each segment.
func sample(frames []float64, progress float64, ease Easing) float64 {
	if ease == nil {
		ease = Linear
	}
	segments := float64(len(frames) - 1)
	pos := progress * segments
	i := int(math.Floor(pos))
	if i >= len(frames)-1 {
		return frames[len(frames)-1]
	}
	local := ease(pos - float64(i))
	return frames[i] + (frames[i+1]-frames[i])*local
}
