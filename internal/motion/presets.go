package motion

import "time"

const (
	// StaggerDelay separates the entrance of consecutive gallery items.
	StaggerDelay = 200 * time.Millisecond
	// EntranceDuration is how long a single gallery item takes to appear.
	EntranceDuration = 500 * time.Millisecond
	// PulsePeriod is one cycle of the music button loop.
	PulsePeriod = 2 * time.Second
	// FloatPeriod is one cycle of the headline float.
	FloatPeriod = 3 * time.Second
)

// Entrance is the staggered appearance of the gallery item at index.
func Entrance(index int) Spec {
	return Spec{
		Name: "entrance",
		Props: map[Property][]float64{
			Opacity: {0, 1},
			Scale:   {0.8, 1},
		},
		Duration: EntranceDuration,
		Delay:    time.Duration(index) * StaggerDelay,
		Ease:     EaseInOut,
	}
}

// FadeIn fades from transparent to opaque once.
func FadeIn(delay, duration time.Duration) Spec {
	return Spec{
		Name:     "fade-in",
		Props:    map[Property][]float64{Opacity: {0, 1}},
		Duration: duration,
		Delay:    delay,
		Ease:     EaseInOut,
	}
}

// Float bobs the headline up and back down forever.
func Float() Spec {
	return Spec{
		Name:     "float",
		Props:    map[Property][]float64{TranslateY: {0, -20, 0}},
		Duration: FloatPeriod,
		Repeat:   Infinite,
		Ease:     EaseInOut,
	}
}

// PulseSpin is the loop shown on the music button while a song plays.
func PulseSpin() Spec {
	return Spec{
		Name: "pulse-spin",
		Props: map[Property][]float64{
			Scale:  {1, 1.2, 1},
			Rotate: {0, 360},
		},
		Duration: PulsePeriod,
		Repeat:   Infinite,
		Ease:     Linear,
	}
}
