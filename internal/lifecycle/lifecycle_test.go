package lifecycle

import (
	"context"
	"errors"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"
)

type fakeComponent struct {
	name        string
	shutdownErr error
	forceErr    error

	mu       sync.Mutex
	record   *[]string
	shutdown int
	forced   int
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Shutdown(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdown++
	if f.record != nil {
		*f.record = append(*f.record, f.name)
	}
	return f.shutdownErr
}

func (f *fakeComponent) ForceStop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forced++
	return f.forceErr
}

func TestShutdownReverseOrder(t *testing.T) {
	var order []string
	m := New()
	m.Register(&fakeComponent{name: "first", record: &order})
	m.Register(&fakeComponent{name: "second", record: &order})
	m.Register(&fakeComponent{name: "third", record: &order})

	if err := m.Shutdown(); err != nil {
		t.Fatalf("Shutdown() = %v", err)
	}

	want := []string{"third", "second", "first"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("shutdown order = %v, want %v", order, want)
		}
	}

	select {
	case <-m.Done():
	default:
		t.Error("Done() should be closed after shutdown")
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	c := &fakeComponent{name: "audio"}
	m := New()
	m.Register(c)

	_ = m.Shutdown()
	_ = m.Shutdown()

	if c.shutdown != 1 {
		t.Errorf("component shut down %d times, want 1", c.shutdown)
	}

	late := &fakeComponent{name: "late"}
	m.Register(late)
	_ = m.Shutdown()
	if late.shutdown != 0 {
		t.Error("components registered after shutdown should be ignored")
	}
}

func TestForceStopOnFailure(t *testing.T) {
	graceful := &fakeComponent{name: "graceful"}
	stubborn := &fakeComponent{name: "stubborn", shutdownErr: errors.New("busy")}
	broken := &fakeComponent{
		name:        "broken",
		shutdownErr: errors.New("busy"),
		forceErr:    errors.New("stuck"),
	}

	m := New(WithTimeout(time.Second))
	m.Register(graceful)
	m.Register(stubborn)
	m.Register(broken)

	err := m.Shutdown()
	if err == nil {
		t.Fatal("expected an error from the broken component")
	}
	if !errors.Is(err, broken.forceErr) {
		t.Errorf("error %v should wrap %v", err, broken.forceErr)
	}
	if graceful.forced != 0 {
		t.Error("graceful component should not be force stopped")
	}
	if stubborn.forced != 1 || broken.forced != 1 {
		t.Error("failed components should be force stopped")
	}
}

func TestSignalTriggersShutdown(t *testing.T) {
	c := &fakeComponent{name: "audio"}
	got := make(chan os.Signal, 1)

	m := New(OnSignal(func(sig os.Signal) { got <- sig }))
	m.Register(c)
	m.Start()

	if err := syscall.Kill(os.Getpid(), syscall.SIGHUP); err != nil {
		t.Fatalf("kill: %v", err)
	}

	select {
	case sig := <-got:
		if sig != syscall.SIGHUP {
			t.Errorf("signal = %v, want SIGHUP", sig)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("signal was not handled")
	}

	select {
	case <-m.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not finish")
	}

	_ = m.Shutdown()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shutdown != 1 {
		t.Errorf("component shut down %d times, want 1", c.shutdown)
	}
}
