//go:build !nocgo
// +build !nocgo

package audio

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process, so it is shared by all players.
var (
	otoMu       sync.Mutex
	otoCtx      *oto.Context
	otoRate     int
	otoChannels int
)

// Player plays one track through the system audio device. Pausing keeps the
// position, so a later Play continues where the track left off.
type Player struct {
	path   string
	config PlayerConfig

	mu     sync.Mutex
	stream *Stream
	player *oto.Player
	state  atomic.Int32
}

// NewPlayer creates a player for the track at path. Nothing is opened until
// Load is called.
func NewPlayer(path string, config PlayerConfig) (*Player, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	p := &Player{path: path, config: config}
	p.state.Store(int32(StateStopped))
	return p, nil
}

// Load decodes the track and acquires a device player for it. Anything
// acquired before a failure is released again.
func (p *Player) Load() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch PlayerState(p.state.Load()) {
	case StateClosed:
		return ErrClosed
	case StatePaused, StatePlaying:
		return nil
	}

	stream, err := Decode(p.path)
	if err != nil {
		return fmt.Errorf("unable to load %s: %w", p.path, err)
	}
	if err := validateFormat(stream); err != nil {
		_ = stream.Close()
		return err
	}
	ctx, err := deviceContext(stream.SampleRate, stream.Channels, p.config.BufferSize)
	if err != nil {
		_ = stream.Close()
		return err
	}

	player := ctx.NewPlayer(stream)
	player.SetVolume(p.config.Volume)

	p.stream = stream
	p.player = player
	p.state.Store(int32(StatePaused))
	return nil
}

// deviceContext returns the process-wide oto context, creating it on first
// use.
func deviceContext(sampleRate, channels int, buffer time.Duration) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if sampleRate != otoRate || channels != otoChannels {
			return nil, fmt.Errorf("%w: device is %d Hz/%d ch, track is %d Hz/%d ch",
				ErrFormatMismatch, otoRate, otoChannels, sampleRate, channels)
		}
		return otoCtx, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   buffer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	otoCtx = ctx
	otoRate = sampleRate
	otoChannels = channels
	return ctx, nil
}

// Play starts or resumes playback. The request is issued before Play
// returns; the returned channel later receives the outcome.
func (p *Player) Play() <-chan error {
	result := make(chan error, 1)

	p.mu.Lock()
	defer p.mu.Unlock()

	finished := p.finished()
	switch PlayerState(p.state.Load()) {
	case StateClosed:
		result <- ErrClosed
		return result
	case StateStopped:
		result <- ErrNotLoaded
		return result
	case StatePlaying:
		if !finished {
			result <- nil
			return result
		}
	}

	player := p.player
	// A track that played to the end starts over; a paused one resumes.
	if finished {
		if _, err := player.Seek(0, io.SeekStart); err != nil {
			result <- fmt.Errorf("unable to rewind track: %w", err)
			return result
		}
	}
	player.Play()
	p.state.Store(int32(StatePlaying))

	go p.awaitStart(player, result)
	return result
}

// finished reports whether the device has played every byte of the track.
// oto stops by itself at the end of the stream and never says so.
func (p *Player) finished() bool {
	if p.player == nil || p.stream == nil {
		return false
	}
	return !p.player.IsPlaying() && p.player.BufferedSize() == 0 && p.stream.Exhausted()
}

// awaitStart waits until the device reports playback or an error.
func (p *Player) awaitStart(player *oto.Player, result chan<- error) {
	deadline := time.Now().Add(p.config.StartTimeout)
	for {
		if PlayerState(p.state.Load()) != StatePlaying {
			// paused or closed before the device caught up
			result <- nil
			return
		}
		if err := player.Err(); err != nil {
			result <- fmt.Errorf("playback failed: %w", err)
			return
		}
		if player.IsPlaying() {
			result <- nil
			return
		}
		if time.Now().After(deadline) {
			result <- ErrStartTimeout
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Pause pauses playback and keeps the position. Pausing a player that is
// not playing does nothing.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if PlayerState(p.state.Load()) != StatePlaying {
		return nil
	}
	p.player.Pause()
	p.state.Store(int32(StatePaused))
	return nil
}

// IsPlaying returns whether audio is currently playing.
func (p *Player) IsPlaying() bool {
	return PlayerState(p.state.Load()) == StatePlaying
}

// State returns the current player state.
func (p *Player) State() PlayerState {
	return PlayerState(p.state.Load())
}

// Duration returns the length of the loaded track.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		return 0
	}
	return p.stream.Duration()
}

// Close stops playback and releases the device player and the track.
// Closing twice is safe.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if PlayerState(p.state.Load()) == StateClosed {
		return nil
	}
	p.state.Store(int32(StateClosed))

	var errs []error
	if p.player != nil {
		p.player.Pause()
		p.player.Close() //nolint:errcheck
		p.player = nil
	}
	// oto.Context has no Close in v3; it lives until the process exits.
	if p.stream != nil {
		if err := p.stream.Close(); err != nil {
			errs = append(errs, fmt.Errorf("unable to close track: %w", err))
		}
		p.stream = nil
	}
	return errors.Join(errs...)
}
