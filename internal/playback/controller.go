// Package playback owns the music track behind the page's one button. It
// keeps the "is playing" and "show message" flags, reconciles the audio
// handle with them, and tells the renderer which animation the button wears.
package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/serenade/internal/motion"
)

const (
	// StatusTimeout is how long the status line stays visible after a toggle.
	StatusTimeout = 3 * time.Second
	// FadeDuration is the status line's fade in and out.
	FadeDuration = 500 * time.Millisecond

	PlayLabel  = "Click me for a surprise!"
	PauseLabel = "Pause Music"

	PlayingMessage = "Enjoy your favorite song!"
	PausedMessage  = "Music paused"
)

// Player is the audio handle the controller owns.
type Player interface {
	// Load acquires the track. It is called once, at mount.
	Load() error
	// Play starts or resumes from the current position. The returned
	// channel receives the outcome once the device reports back.
	Play() <-chan error
	// Pause pauses and keeps the position.
	Pause() error
	// Close stops playback and releases the track.
	Close() error
}

// Options tune the controller.
type Options struct {
	StatusTimeout time.Duration

	// CancelStaleTimers makes only the newest toggle's timer hide the status
	// line. When false, every timer hides it, so a timer from an earlier
	// toggle can hide the message shown by a later one.
	CancelStaleTimers bool
}

// DefaultOptions returns the options the page ships with.
func DefaultOptions() Options {
	return Options{StatusTimeout: StatusTimeout}
}

// TimerToken identifies the toggle that scheduled a status timer.
type TimerToken struct {
	Generation uint64
}

// Effect is what a reconciliation asks of the renderer.
type Effect struct {
	// Animation is the decorative animation the button should wear.
	Animation motion.Spec
	// Started receives the outcome of a playback start, or is nil when the
	// reconciliation paused instead.
	Started <-chan error
}

var errNoTrack = errors.New("no track loaded")

// Controller is the page's playback state. Its methods run on the UI event
// loop; Close may also be called from a signal handler.
type Controller struct {
	mu sync.Mutex

	player  Player
	loadErr error
	opts    Options

	playing    bool
	showing    bool
	generation uint64
	closed     bool
}

// New mounts the controller: the track is acquired but not played. A track
// that fails to load does not fail the mount; the error resurfaces as a
// playback failure the first time the button asks for music.
func New(player Player, opts Options) *Controller {
	if opts.StatusTimeout <= 0 {
		opts.StatusTimeout = StatusTimeout
	}
	c := &Controller{player: player, opts: opts}
	if player == nil {
		c.loadErr = errNoTrack
		return c
	}
	if err := player.Load(); err != nil {
		log.Warn("Unable to load track", "error", err)
		c.loadErr = err
	}
	return c
}

// Toggle is the button press: it flips playback, shows the status line and
// reconciles the track. The caller schedules the returned token to expire
// after StatusTimeout.
func (c *Controller) Toggle() (Effect, TimerToken) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.playing = !c.playing
	c.showing = true
	c.generation++
	log.Debug("Toggled playback", "playing", c.playing, "generation", c.generation)

	return c.reconcile(), TimerToken{Generation: c.generation}
}

// Reconcile brings the track and the button animation in line with the
// playing flag.
func (c *Controller) Reconcile() Effect {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconcile()
}

func (c *Controller) reconcile() Effect {
	if c.closed {
		return Effect{Animation: motion.None}
	}
	if !c.playing {
		if c.loadErr == nil {
			if err := c.player.Pause(); err != nil {
				log.Error("Error pausing audio", "error", err)
			}
		}
		return Effect{Animation: motion.None}
	}

	var started <-chan error
	if c.loadErr != nil {
		ch := make(chan error, 1)
		ch <- c.loadErr
		started = ch
	} else {
		started = c.player.Play()
	}
	return Effect{Animation: motion.PulseSpin(), Started: started}
}

// Expire handles a status timer firing and reports whether it hid the
// status line.
func (c *Controller) Expire(token TimerToken) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.opts.CancelStaleTimers && token.Generation != c.generation {
		log.Debug("Ignoring stale status timer", "token", token.Generation, "current", c.generation)
		return false
	}
	c.showing = false
	return true
}

// StartFailed records a failed playback start. The playing flag is left
// alone, so the page keeps showing the playing state.
func (c *Controller) StartFailed(err error) {
	if err == nil {
		return
	}
	log.Error("Error playing audio", "error", err)
}

// IsPlaying reports whether music is meant to be playing.
func (c *Controller) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// ShowMessage reports whether the status line is visible.
func (c *Controller) ShowMessage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.showing
}

// StatusTimeout is how long after a toggle its timer should fire.
func (c *Controller) StatusTimeout() time.Duration {
	return c.opts.StatusTimeout
}

// StatusText is the status line's content for the current playing flag.
func (c *Controller) StatusText() string {
	if c.IsPlaying() {
		return PlayingMessage
	}
	return PausedMessage
}

// ButtonLabel is the button's text for the current playing flag.
func (c *Controller) ButtonLabel() string {
	if c.IsPlaying() {
		return PauseLabel
	}
	return PlayLabel
}

// Animation is the button animation for the current playing flag.
func (c *Controller) Animation() motion.Spec {
	if c.IsPlaying() {
		return motion.PulseSpin()
	}
	return motion.None
}

// Close unmounts the controller: playback stops and the track is released.
// It is safe to call more than once and from any goroutine.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.player == nil {
		return nil
	}
	if c.playing && c.loadErr == nil {
		if err := c.player.Pause(); err != nil {
			log.Warn("Error pausing audio during close", "error", err)
		}
	}
	return c.player.Close()
}

// Name identifies the controller to the lifecycle manager.
func (c *Controller) Name() string { return "playback" }

// Shutdown releases the track as part of a coordinated shutdown.
func (c *Controller) Shutdown(context.Context) error { return c.Close() }

// ForceStop releases the track if a graceful shutdown failed.
func (c *Controller) ForceStop() error {
	if c.player == nil {
		return nil
	}
	return c.player.Close()
}
