//go:build nocgo
// +build nocgo

package audio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Stub implementation for builds without CGO. Tracks are still decoded so
// format errors surface, but nothing is ever played.

// Player plays one track through the system audio device.
type Player struct {
	path   string
	config PlayerConfig

	mu       sync.Mutex
	duration time.Duration
	state    atomic.Int32
}

// NewPlayer creates a player for the track at path.
func NewPlayer(path string, config PlayerConfig) (*Player, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	p := &Player{path: path, config: config}
	p.state.Store(int32(StateStopped))
	return p, nil
}

// Load decodes the track and reports that there is no device to play it on.
func (p *Player) Load() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if PlayerState(p.state.Load()) == StateClosed {
		return ErrClosed
	}
	stream, err := Decode(p.path)
	if err != nil {
		return fmt.Errorf("unable to load %s: %w", p.path, err)
	}
	defer func() { _ = stream.Close() }()
	if err := validateFormat(stream); err != nil {
		return err
	}
	p.duration = stream.Duration()
	return ErrNoDevice
}

// Play always fails: the track was never loaded.
func (p *Player) Play() <-chan error {
	result := make(chan error, 1)
	if PlayerState(p.state.Load()) == StateClosed {
		result <- ErrClosed
	} else {
		result <- ErrNotLoaded
	}
	return result
}

// Pause does nothing.
func (p *Player) Pause() error { return nil }

// IsPlaying is always false.
func (p *Player) IsPlaying() bool { return false }

// State returns the current player state.
func (p *Player) State() PlayerState {
	return PlayerState(p.state.Load())
}

// Duration returns the length of the decoded track.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// Close marks the player closed. Closing twice is safe.
func (p *Player) Close() error {
	p.state.Store(int32(StateClosed))
	return nil
}
