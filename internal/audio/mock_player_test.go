package audio

import (
	"errors"
	"testing"
	"time"
)

func TestMockPlayer_LoadPlayPause(t *testing.T) {
	player := DefaultMockPlayer()
	defer player.Close() //nolint:errcheck

	if player.State() != StateStopped {
		t.Errorf("Initial state should be Stopped, got %v", player.State())
	}
	if err := <-player.Play(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Play before Load = %v, want ErrNotLoaded", err)
	}

	if err := player.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if player.State() != StatePaused {
		t.Errorf("State after Load should be Paused, got %v", player.State())
	}

	if err := <-player.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if !player.IsPlaying() {
		t.Error("Player should be playing after Play()")
	}

	if err := player.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if player.IsPlaying() {
		t.Error("Player should not be playing after Pause()")
	}
}

func TestMockPlayer_ResumesWithoutRewinding(t *testing.T) {
	player := DefaultMockPlayer()
	if err := player.Load(); err != nil {
		t.Fatal(err)
	}

	<-player.Play()
	player.Advance(5 * time.Second)
	if err := player.Pause(); err != nil {
		t.Fatal(err)
	}

	// Time passing while paused does not move the position.
	player.Advance(time.Minute)
	if got := player.Position(); got != 5*time.Second {
		t.Fatalf("paused position = %v, want 5s", got)
	}

	<-player.Play()
	player.Advance(time.Second)
	if got := player.Position(); got != 6*time.Second {
		t.Errorf("resumed position = %v, want 6s", got)
	}
}

func TestMockPlayer_FailPlay(t *testing.T) {
	player := DefaultMockPlayer()
	if err := player.Load(); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("autoplay blocked")
	player.FailPlay(boom)

	if err := <-player.Play(); !errors.Is(err, boom) {
		t.Fatalf("Play() = %v, want %v", err, boom)
	}
	if player.IsPlaying() {
		t.Error("failed Play should leave the player paused")
	}
}

func TestMockPlayer_FailLoad(t *testing.T) {
	player := DefaultMockPlayer()
	boom := errors.New("no such file")
	player.FailLoad(boom)

	if err := player.Load(); !errors.Is(err, boom) {
		t.Fatalf("Load() = %v, want %v", err, boom)
	}
	if player.State() != StateStopped {
		t.Errorf("state = %v, want stopped", player.State())
	}
}

func TestMockPlayer_Callbacks(t *testing.T) {
	var calls []string
	player := NewMockPlayer(MockCallbacks{
		OnLoad:  func() { calls = append(calls, "load") },
		OnPlay:  func() { calls = append(calls, "play") },
		OnPause: func() { calls = append(calls, "pause") },
		OnClose: func() { calls = append(calls, "close") },
	})

	_ = player.Load()
	<-player.Play()
	_ = player.Pause()
	_ = player.Pause() // not playing, no callback
	_ = player.Close()
	_ = player.Close() // already closed, no callback

	want := []string{"load", "play", "pause", "close"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}

	m := player.Metrics()
	if m.LoadCount != 1 || m.PlayCount != 1 || m.PauseCount != 1 || m.CloseCount != 1 {
		t.Errorf("unexpected metrics: %+v", m)
	}
}

func TestMockPlayer_ClosedRejectsPlay(t *testing.T) {
	player := DefaultMockPlayer()
	_ = player.Load()
	<-player.Play()
	_ = player.Close()

	if player.IsPlaying() {
		t.Error("closed player should not be playing")
	}
	if err := <-player.Play(); !errors.Is(err, ErrClosed) {
		t.Errorf("Play after Close = %v, want ErrClosed", err)
	}
	if err := player.Load(); !errors.Is(err, ErrClosed) {
		t.Errorf("Load after Close = %v, want ErrClosed", err)
	}
}

func TestMockPlayer_StartsOverAfterEnd(t *testing.T) {
	player := DefaultMockPlayer()
	player.SetLength(3 * time.Second)
	if err := player.Load(); err != nil {
		t.Fatal(err)
	}

	<-player.Play()
	player.Advance(time.Minute)
	if got := player.Position(); got != 3*time.Second {
		t.Fatalf("position past the end = %v, want 3s", got)
	}
	_ = player.Pause()

	if err := <-player.Play(); err != nil {
		t.Fatalf("Play after end = %v", err)
	}
	if got := player.Position(); got != 0 {
		t.Errorf("position after replay = %v, want 0", got)
	}
}
