// Package showcase wires the signal bus, the asset loader and the lifecycle
// state machine into the running showcase.
package showcase

import (
	"context"
	"fmt"
	stlog "log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/sandruandrei/SGDemo/internal/assets"
	"github.com/sandruandrei/SGDemo/internal/lifecycle"
	"github.com/sandruandrei/SGDemo/internal/signals"
)

// Loader is the part of the asset loader the manager drives.
type Loader interface {
	SetManifest(m assets.Manifest) int
	Start(ctx context.Context) error
}

// Options configures a Manager.
type Options struct {
	// LoadRetries is how many times a failed load pass is retried. Zero only
	// logs the failure.
	LoadRetries uint
	// RetryBackoff paces load retries. Defaults to exponential backoff.
	RetryBackoff backoff.BackOff
	// Table overrides the lifecycle transition table.
	Table   []lifecycle.StateConfig
	Metrics *lifecycle.Metrics
	Logger  *stlog.Logger
}

// Snapshot is a consistent view of the manager for display.
type Snapshot struct {
	State      lifecycle.State
	UserID     string
	Game       string
	Background string
	LoadError  error
}

// Manager turns bus signals into lifecycle transitions.
type Manager struct {
	bus      *signals.Bus
	loader   Loader
	manifest assets.Manifest
	opts     Options
	logger   *stlog.Logger

	started atomic.Bool
	wg      sync.WaitGroup

	mu          sync.RWMutex
	ctx         context.Context
	machine     *lifecycle.Machine
	userID      string
	game        Game
	loadErr     error
	retriesLeft uint
}

// NewManager returns a manager that will load manifest through loader.
func NewManager(bus *signals.Bus, loader Loader, manifest assets.Manifest, opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = stlog.Default()
	}
	if opts.Table == nil {
		opts.Table = lifecycle.DefaultTable()
	}
	if opts.RetryBackoff == nil {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 500 * time.Millisecond
		opts.RetryBackoff = b
	}
	return &Manager{
		bus:         bus,
		loader:      loader,
		manifest:    manifest,
		opts:        opts,
		logger:      opts.Logger.With("component", "manager"),
		retriesLeft: opts.LoadRetries,
	}
}

// Start sets the manifest, subscribes the manager to the bus and boots the
// state machine for userID. It returns once the bootstrap load pass ended,
// with its error. Only the first call has any effect.
func (m *Manager) Start(ctx context.Context, userID string) error {
	if !m.started.CompareAndSwap(false, true) {
		m.logger.Info("Manager already started")
		return nil
	}
	m.logger.Info("Starting", "userId", userID)

	m.loader.SetManifest(m.manifest)

	signals.On(m.bus, m.onLoadingComplete)
	signals.On(m.bus, m.onLoadingFailed)
	signals.On(m.bus, m.onConnectedToServer)
	signals.On(m.bus, m.onStartAuth)
	signals.On(m.bus, m.onAuthComplete)
	signals.On(m.bus, m.onChangeGame)
	signals.On(m.bus, m.onGameChanged)

	var opts []lifecycle.Option
	opts = append(opts, lifecycle.WithLogger(m.opts.Logger))
	if m.opts.Metrics != nil {
		opts = append(opts, lifecycle.WithMetrics(m.opts.Metrics))
	}

	// Handlers fired by the bootstrap pass block on mu until machine is set.
	m.mu.Lock()
	m.ctx = ctx
	m.userID = userID
	m.machine = lifecycle.New(ctx, m.opts.Table, lifecycle.Deps{Loader: m.loader, Bus: m.bus}, opts...)
	machine := m.machine
	m.mu.Unlock()

	if err := machine.Wait(ctx); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	return nil
}

// Wait blocks until scheduled load retries have finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Snapshot returns the current state of the showcase.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Snapshot{
		State:      lifecycle.Initial,
		UserID:     m.userID,
		Game:       m.game.Name,
		Background: m.game.Background,
		LoadError:  m.loadErr,
	}
	if m.machine != nil {
		s.State = m.machine.Current()
	}
	return s
}

func (m *Manager) stateMachine() *lifecycle.Machine {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.machine
}

func (m *Manager) next(ctx context.Context, to lifecycle.State) (lifecycle.Outcome, error) {
	machine := m.stateMachine()
	if machine == nil {
		return lifecycle.DeclinedNoConfig, fmt.Errorf("transition to %s before start", to)
	}
	return machine.Next(ctx, to)
}

func (m *Manager) onLoadingComplete(ctx context.Context, _ signals.LoadingComplete) error {
	m.mu.Lock()
	m.loadErr = nil
	m.mu.Unlock()

	_, err := m.next(ctx, lifecycle.LoadingComplete)
	return err
}

func (m *Manager) onLoadingFailed(_ context.Context, s signals.LoadingFailed) error {
	m.logger.Error("Loading failed", "message", s.Message, "details", s.Details)

	m.mu.Lock()
	m.loadErr = s.Details
	retry := m.retriesLeft > 0
	if retry {
		m.retriesLeft--
	}
	left := m.retriesLeft
	ctx := m.ctx
	m.mu.Unlock()

	if !retry {
		return nil
	}
	delay := m.opts.RetryBackoff.NextBackOff()
	if delay == backoff.Stop {
		m.logger.Warn("Retry backoff exhausted")
		return nil
	}
	m.logger.Info("Retrying asset load", "in", delay, "retriesLeft", left)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if err := m.loader.Start(ctx); err != nil {
			m.logger.Debug("Retry pass failed", "error", err)
		}
	}()
	return nil
}

func (m *Manager) onConnectedToServer(ctx context.Context, _ signals.ConnectedToServer) error {
	_, err := m.next(ctx, lifecycle.AuthStarted)
	return err
}

func (m *Manager) onStartAuth(ctx context.Context, _ signals.StartAuth) error {
	m.mu.RLock()
	userID := m.userID
	m.mu.RUnlock()

	m.bus.Emit(ctx, signals.SetUserID{UserID: userID})
	return nil
}

func (m *Manager) onAuthComplete(ctx context.Context, s signals.AuthComplete) error {
	m.logger.Info("Auth complete", "userId", s.UserID)
	_, err := m.next(ctx, lifecycle.AuthComplete)
	return err
}

func (m *Manager) onChangeGame(ctx context.Context, s signals.ChangeGame) error {
	game, ok := LookupGame(s.Game)
	if !ok {
		m.logger.Warn("Unknown game, using default", "game", s.Game, "default", DefaultGame)
		game, _ = LookupGame(DefaultGame)
	}

	outcome, err := m.next(ctx, lifecycle.ChangeGame)
	if err != nil {
		return err
	}
	if outcome != lifecycle.Transitioned {
		m.logger.Warn("Game change declined", "game", game.Name, "outcome", outcome)
		return nil
	}

	m.mu.Lock()
	m.game = game
	m.mu.Unlock()

	if _, err := m.next(ctx, lifecycle.PlayGame); err != nil {
		return err
	}
	m.bus.Emit(ctx, signals.GameChanged{Game: game.Name})
	return nil
}

func (m *Manager) onGameChanged(_ context.Context, s signals.GameChanged) error {
	m.logger.Info("Game changed", "game", s.Game)
	return nil
}
