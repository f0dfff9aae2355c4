// Package lifecycle drives the showcase through its boot sequence with a
// table-driven state machine.
package lifecycle

import (
	"context"
	stlog "log/slog"
	"sync"

	"github.com/sandruandrei/SGDemo/internal/signals"
)

// Outcome reports what Next did with a transition request.
type Outcome int

const (
	// Transitioned means the state changed and its side effect ran.
	Transitioned Outcome = iota
	// DeclinedNoConfig means the current state has no table entry.
	DeclinedNoConfig
	// DeclinedNoFlow means no flow of the current state leads to the target
	// with a passing guard.
	DeclinedNoFlow
)

func (o Outcome) String() string {
	switch o {
	case Transitioned:
		return "transitioned"
	case DeclinedNoConfig:
		return "declined_no_config"
	case DeclinedNoFlow:
		return "declined_no_flow"
	}
	return "unknown"
}

// Starter starts an asset load pass.
type Starter interface {
	Start(ctx context.Context) error
}

// Deps are the collaborators the side effects act on.
type Deps struct {
	Loader Starter
	Bus    signals.Emitter
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the machine's logger.
func WithLogger(logger *stlog.Logger) Option {
	return func(m *Machine) { m.logger = logger }
}

// WithMetrics sets the machine's metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Machine) { m.metrics = metrics }
}

// Machine holds the current lifecycle state. Only Next changes it.
type Machine struct {
	deps    Deps
	logger  *stlog.Logger
	metrics *Metrics

	table   map[State][]Flow
	effects map[State]func(ctx context.Context) error

	mu      sync.Mutex
	current State

	bootDone chan struct{}
	bootErr  error
}

// New builds a machine in the Initial state from table and immediately
// starts driving it to LoadingAssets in the background. Use Wait to block
// until that first transition and its side effect are done.
//
// When table lists a state more than once, the first entry is used.
func New(ctx context.Context, table []StateConfig, deps Deps, opts ...Option) *Machine {
	m := &Machine{
		deps:     deps,
		table:    make(map[State][]Flow, len(table)),
		current:  Initial,
		bootDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = stlog.Default()
	}
	m.logger = m.logger.With("component", "lifecycle")
	if m.metrics == nil {
		m.metrics = NewMetrics(nil)
	}

	for _, cfg := range table {
		if _, dup := m.table[cfg.State]; dup {
			m.logger.Warn("Duplicate state config ignored", "state", cfg.State)
			continue
		}
		m.table[cfg.State] = append([]Flow(nil), cfg.Flows...)
	}
	m.effects = map[State]func(ctx context.Context) error{
		LoadingAssets:      m.startLoading,
		LoadingComplete:    m.advance(ConnectingToServer),
		ConnectingToServer: m.emit(signals.ConnectToServer{}),
		AuthStarted:        m.emit(signals.StartAuth{}),
		AuthComplete:       m.advance(Initialized),
		Initialized:        m.emit(signals.ChangeGame{}),
	}

	go m.bootstrap(ctx)
	return m
}

func (m *Machine) bootstrap(ctx context.Context) {
	defer close(m.bootDone)
	if _, err := m.Next(ctx, LoadingAssets); err != nil {
		m.logger.Error("Bootstrap transition failed", "error", err)
		m.bootErr = err
	}
}

// Wait blocks until the bootstrap transition finished and returns the error
// of its side effect, if any.
func (m *Machine) Wait(ctx context.Context) error {
	select {
	case <-m.bootDone:
		return m.bootErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Next moves to the requested state if the current state has a flow to it
// whose guard passes. Flows are tried in table order and the first match
// wins. The state is updated before the target's side effect runs; the side
// effect runs outside the lock so it may request further transitions, and
// its error is returned. A declined request leaves the state untouched and
// is not an error.
func (m *Machine) Next(ctx context.Context, to State) (Outcome, error) {
	m.mu.Lock()
	from := m.current
	outcome := m.match(from, to)
	if outcome == Transitioned {
		m.current = to
	}
	m.mu.Unlock()

	m.metrics.Transitions(from, to, outcome).Inc()

	switch outcome {
	case DeclinedNoConfig:
		m.logger.Warn("No config found for current state", "from", from, "to", to)
		return outcome, nil
	case DeclinedNoFlow:
		m.logger.Warn("Invalid transition", "from", from, "to", to)
		return outcome, nil
	}

	m.logger.Info("State changed", "from", from, "to", to)
	effect, ok := m.effects[to]
	if !ok {
		return outcome, nil
	}
	return outcome, effect(ctx)
}

// match must be called with mu held.
func (m *Machine) match(from, to State) Outcome {
	flows, ok := m.table[from]
	if !ok {
		return DeclinedNoConfig
	}
	for _, f := range flows {
		if f.Next != to {
			continue
		}
		if f.When == nil || f.When() {
			return Transitioned
		}
	}
	return DeclinedNoFlow
}

func (m *Machine) startLoading(ctx context.Context) error {
	if m.deps.Loader == nil {
		m.logger.Warn("No asset loader configured")
		return nil
	}
	return m.deps.Loader.Start(ctx)
}

func (m *Machine) advance(to State) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := m.Next(ctx, to)
		return err
	}
}

func (m *Machine) emit(s signals.Signal) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if m.deps.Bus == nil {
			m.logger.Warn("No signal bus configured", "signal", s.SignalName())
			return nil
		}
		m.deps.Bus.Emit(ctx, s)
		return nil
	}
}
