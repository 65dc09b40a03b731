// Package lifecycle releases owned resources on every way out of the
// program: a normal return, a termination signal, or a hung-up terminal.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
)

// Component is something that needs cleanup on shutdown.
type Component interface {
	// Name returns the component name for logging
	Name() string

	// Shutdown performs graceful shutdown
	Shutdown(ctx context.Context) error

	// ForceStop performs immediate termination if graceful shutdown fails
	ForceStop() error
}

// Manager coordinates shutdown of registered components.
type Manager struct {
	mu         sync.Mutex
	components []Component
	isShutdown bool

	shutdownCh chan struct{}
	done       chan struct{}
	wg         sync.WaitGroup
	stopNotify func()

	timeout  time.Duration
	onSignal func(os.Signal)
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout bounds graceful shutdown before components are force stopped.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// OnSignal is called when a termination signal arrives, before components
// are shut down.
func OnSignal(fn func(os.Signal)) Option {
	return func(m *Manager) { m.onSignal = fn }
}

// New creates a new lifecycle manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		shutdownCh: make(chan struct{}),
		done:       make(chan struct{}),
		timeout:    5 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds a component. Components shut down in reverse order.
func (m *Manager) Register(c Component) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isShutdown {
		log.Warn("Cannot register component during shutdown", "component", c.Name())
		return
	}
	m.components = append(m.components, c)
	log.Debug("Registered lifecycle component", "name", c.Name())
}

// Start begins watching for SIGINT, SIGTERM and SIGHUP.
func (m *Manager) Start() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	m.stopNotify = func() { signal.Stop(sigCh) }

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		select {
		case sig := <-sigCh:
			log.Info("Received shutdown signal", "signal", sig)
			if m.onSignal != nil {
				m.onSignal(sig)
			}
			_ = m.shutdown()
		case <-m.shutdownCh:
		}
	}()
}

// Shutdown shuts every component down once; later calls return nil.
func (m *Manager) Shutdown() error {
	err := m.shutdown()
	m.wg.Wait()
	return err
}

func (m *Manager) shutdown() error {
	m.mu.Lock()
	if m.isShutdown {
		m.mu.Unlock()
		return nil
	}
	m.isShutdown = true
	components := m.components
	m.mu.Unlock()

	close(m.shutdownCh)
	if m.stopNotify != nil {
		m.stopNotify()
	}
	defer close(m.done)

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	var errs []error
	for i := len(components) - 1; i >= 0; i-- {
		c := components[i]
		log.Debug("Shutting down component", "name", c.Name())

		if err := c.Shutdown(ctx); err != nil {
			log.Warn("Component graceful shutdown failed", "name", c.Name(), "error", err)
			if forceErr := c.ForceStop(); forceErr != nil {
				log.Error("Component force stop failed", "name", c.Name(), "error", forceErr)
				errs = append(errs, fmt.Errorf("%s: %w", c.Name(), forceErr))
			}
		}
	}
	return errors.Join(errs...)
}

// Done is closed once shutdown has finished.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}
