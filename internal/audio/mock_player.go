package audio

import (
	"sync"
	"sync/atomic"
	"time"
)

// MockPlayer stands in for Player in tests. It simulates playback without
// producing sound; tests move the position forward with Advance.
type MockPlayer struct {
	mu       sync.Mutex
	state    PlayerState
	position time.Duration
	length   time.Duration // 0 means endless

	loadErr error
	playErr error

	callbacks MockCallbacks

	// Metrics for testing
	loadCount  atomic.Int64
	playCount  atomic.Int64
	pauseCount atomic.Int64
	closeCount atomic.Int64
}

// MockCallbacks provides hooks for testing.
type MockCallbacks struct {
	OnLoad  func()
	OnPlay  func()
	OnPause func()
	OnClose func()
}

// DefaultMockPlayer creates a new mock player with default settings.
func DefaultMockPlayer() *MockPlayer {
	return &MockPlayer{state: StateStopped}
}

// NewMockPlayer creates a new mock player with custom callbacks.
func NewMockPlayer(callbacks MockCallbacks) *MockPlayer {
	mp := DefaultMockPlayer()
	mp.callbacks = callbacks
	return mp
}

// FailLoad makes the next Load calls fail with err.
func (mp *MockPlayer) FailLoad(err error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.loadErr = err
}

// FailPlay makes Play report err, the way a device or codec refusal would.
func (mp *MockPlayer) FailPlay(err error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.playErr = err
}

// SetLength gives the simulated track an end. Advance stops there, and the
// next Play starts the track over.
func (mp *MockPlayer) SetLength(d time.Duration) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.length = d
}

func (mp *MockPlayer) finished() bool {
	return mp.length > 0 && mp.position >= mp.length
}

// Load simulates acquiring the track.
func (mp *MockPlayer) Load() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.loadCount.Add(1)
	if mp.state == StateClosed {
		return ErrClosed
	}
	if mp.loadErr != nil {
		return mp.loadErr
	}
	if mp.state == StateStopped {
		mp.state = StatePaused
	}
	if mp.callbacks.OnLoad != nil {
		mp.callbacks.OnLoad()
	}
	return nil
}

// Play resumes from the current position. A configured failure leaves the
// player paused.
func (mp *MockPlayer) Play() <-chan error {
	result := make(chan error, 1)

	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.playCount.Add(1)
	switch {
	case mp.state == StateClosed:
		result <- ErrClosed
	case mp.state == StateStopped:
		result <- ErrNotLoaded
	case mp.playErr != nil:
		result <- mp.playErr
	default:
		if mp.finished() {
			mp.position = 0
		}
		mp.state = StatePlaying
		result <- nil
		if mp.callbacks.OnPlay != nil {
			mp.callbacks.OnPlay()
		}
	}
	return result
}

// Pause pauses playback and keeps the position.
func (mp *MockPlayer) Pause() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.state != StatePlaying {
		return nil
	}
	mp.state = StatePaused
	mp.pauseCount.Add(1)
	if mp.callbacks.OnPause != nil {
		mp.callbacks.OnPause()
	}
	return nil
}

// Close releases the simulated track.
func (mp *MockPlayer) Close() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.state == StateClosed {
		return nil
	}
	mp.state = StateClosed
	mp.closeCount.Add(1)
	if mp.callbacks.OnClose != nil {
		mp.callbacks.OnClose()
	}
	return nil
}

// Advance moves the position forward by d if the player is playing.
func (mp *MockPlayer) Advance(d time.Duration) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if mp.state == StatePlaying {
		mp.position += d
		if mp.length > 0 {
			mp.position = min(mp.position, mp.length)
		}
	}
}

// Position returns the simulated playback position.
func (mp *MockPlayer) Position() time.Duration {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.position
}

// IsPlaying returns whether audio is currently playing.
func (mp *MockPlayer) IsPlaying() bool {
	return mp.State() == StatePlaying
}

// State returns the current player state.
func (mp *MockPlayer) State() PlayerState {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.state
}

// MockPlayerMetrics contains playback metrics for testing.
type MockPlayerMetrics struct {
	LoadCount  int64
	PlayCount  int64
	PauseCount int64
	CloseCount int64
}

// Metrics returns playback metrics for testing.
func (mp *MockPlayer) Metrics() MockPlayerMetrics {
	return MockPlayerMetrics{
		LoadCount:  mp.loadCount.Load(),
		PlayCount:  mp.playCount.Load(),
		PauseCount: mp.pauseCount.Load(),
		CloseCount: mp.closeCount.Load(),
	}
}
