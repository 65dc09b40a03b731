package audio

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrClosed is returned by operations on a closed player.
	ErrClosed = errors.New("player is closed")
	// ErrNotLoaded is returned when playing before Load succeeded.
	ErrNotLoaded = errors.New("track is not loaded")
	// ErrStartTimeout is returned when the device never reports playback.
	ErrStartTimeout = errors.New("playback did not start")
	// ErrFormatMismatch is returned when a track does not match the format
	// the audio device was already opened with.
	ErrFormatMismatch = errors.New("track format does not match audio device")
	// ErrNoDevice is returned by builds without audio output.
	ErrNoDevice = errors.New("audio not available in nocgo build")
)

// PlayerState represents the current state of the player.
type PlayerState int32

const (
	StateStopped PlayerState = iota // nothing loaded
	StatePaused                     // loaded, not playing
	StatePlaying
	StateClosed
)

func (s PlayerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	Volume       float64       // 0.0 to 1.0
	BufferSize   time.Duration // device buffer, 0 lets oto decide
	StartTimeout time.Duration // how long Play waits for the device
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		Volume:       1.0,
		BufferSize:   100 * time.Millisecond,
		StartTimeout: 2 * time.Second,
	}
}

// validateConfig validates the player configuration.
func validateConfig(config PlayerConfig) error {
	if config.Volume < 0.0 || config.Volume > 1.0 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", config.Volume)
	}
	if config.BufferSize < 0 {
		return errors.New("buffer size must not be negative")
	}
	if config.StartTimeout <= 0 {
		return errors.New("start timeout must be positive")
	}
	return nil
}

// validateFormat checks a decoded track against what oto plays reliably.
func validateFormat(s *Stream) error {
	if s.SampleRate != 44100 && s.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", s.SampleRate)
	}
	if s.Channels != 1 && s.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", s.Channels)
	}
	return nil
}
