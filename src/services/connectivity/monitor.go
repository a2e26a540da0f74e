// Package connectivity tracks whether the chat backend is reachable.
package connectivity

import (
	"context"
	"sync"
	"time"

	"llmchat/src/models"

	"go.uber.org/zap"
)

const (
	defaultInterval = 30 * time.Second
	defaultTimeout  = 5 * time.Second
)

// HealthChecker performs a single reachability probe.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Listener receives every state transition.
type Listener func(models.ConnectivityState)

// Monitor periodically probes the backend and publishes Connected/Disconnected
// transitions. The state starts Unknown until the first probe completes.
type Monitor struct {
	checker  HealthChecker
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	state     models.ConnectivityState
	lastErr   error
	lastCheck time.Time
	seq       uint64
	applied   uint64
	listeners map[int]Listener
	nextID    int

	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the period between background probes.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithTimeout bounds a single probe.
func WithTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithLogger sets the monitor's logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewMonitor creates a stopped monitor in the Unknown state.
func NewMonitor(checker HealthChecker, opts ...Option) *Monitor {
	m := &Monitor{
		checker:   checker,
		interval:  defaultInterval,
		timeout:   defaultTimeout,
		logger:    zap.NewNop(),
		state:     models.ConnectivityUnknown,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current connectivity state.
func (m *Monitor) State() models.ConnectivityState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LastError returns the error from the most recent applied failed probe.
func (m *Monitor) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// LastCheck returns when the most recent probe result was applied.
func (m *Monitor) LastCheck() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCheck
}

// Subscribe registers fn for state transitions. Listeners run on the probing
// goroutine and must not block. The returned func unsubscribes.
func (m *Monitor) Subscribe(fn Listener) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Probe runs one health check and applies its result. When probes overlap,
// only the most recently started one may change the state. A probe whose
// context was canceled leaves the state untouched.
func (m *Monitor) Probe(ctx context.Context) models.ConnectivityState {
	m.mu.Lock()
	m.seq++
	seq := m.seq
	m.mu.Unlock()

	pctx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.checker.Health(pctx)
	cancel()

	if ctx.Err() != nil {
		return m.State()
	}

	next := models.ConnectivityConnected
	if err != nil {
		next = models.ConnectivityDisconnected
	}

	m.mu.Lock()
	if seq < m.applied {
		state := m.state
		m.mu.Unlock()
		return state
	}
	m.applied = seq
	m.lastCheck = time.Now()
	m.lastErr = err
	prev := m.state
	m.state = next
	var notify []Listener
	if prev != next {
		notify = make([]Listener, 0, len(m.listeners))
		for _, l := range m.listeners {
			notify = append(notify, l)
		}
	}
	m.mu.Unlock()

	if prev != next {
		if err != nil {
			m.logger.Warn("backend unreachable", zap.Error(err))
		} else {
			m.logger.Info("backend reachable")
		}
		for _, l := range notify {
			l(next)
		}
	}
	return next
}

// Retry probes immediately, outside the periodic schedule.
func (m *Monitor) Retry(ctx context.Context) models.ConnectivityState {
	m.logger.Debug("manual connectivity retry")
	return m.Probe(ctx)
}

// Start launches the background loop: one probe right away, then one per
// interval. Calling Start on a running monitor does nothing.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done
	m.mu.Unlock()

	go func() {
		defer close(done)
		m.Probe(loopCtx)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				m.Probe(loopCtx)
			}
		}
	}()
}

// Stop cancels the background loop and waits for it to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the background loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}
