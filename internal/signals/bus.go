// Package signals is the process-wide publish/subscribe bus that lets the
// lifecycle modules talk to each other without importing one another.
package signals

import (
	"context"
	"fmt"
	stlog "log/slog"
	"sync"
)

// HandlerFunc reacts to a signal. A returned error is logged by the bus and
// never reaches the emitter.
type HandlerFunc func(ctx context.Context, s Signal) error

// Listener is a subscribable handler. Its pointer is its identity, so
// subscribing the same Listener twice under one name has no effect.
type Listener struct {
	fn HandlerFunc
}

// NewListener wraps fn into a Listener.
func NewListener(fn HandlerFunc) *Listener {
	return &Listener{fn: fn}
}

// Emitter is the producer side of the bus.
type Emitter interface {
	Emit(ctx context.Context, s Signal)
}

// Bus maps signal names to insertion-ordered sets of listeners.
type Bus struct {
	mu        sync.RWMutex
	listeners map[Name][]*Listener
	logger    *stlog.Logger
}

// NewBus creates an empty bus. A nil logger falls back to slog.Default.
func NewBus(logger *stlog.Logger) *Bus {
	if logger == nil {
		logger = stlog.Default()
	}
	return &Bus{
		listeners: make(map[Name][]*Listener),
		logger:    logger.With("component", "signals"),
	}
}

// Subscribe registers l under name. Registering a listener that is already
// present is a no-op.
func (b *Bus) Subscribe(name Name, l *Listener) {
	if l == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, existing := range b.listeners[name] {
		if existing == l {
			return
		}
	}
	b.listeners[name] = append(b.listeners[name], l)
	b.logger.Debug("Registered listener", "signal", name, "listeners", len(b.listeners[name]))
}

// Unsubscribe removes l from name, keeping the order of the remaining ones.
func (b *Bus) Unsubscribe(name Name, l *Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.listeners[name]
	for i, existing := range current {
		if existing == l {
			next := make([]*Listener, 0, len(current)-1)
			next = append(next, current[:i]...)
			next = append(next, current[i+1:]...)
			if len(next) == 0 {
				delete(b.listeners, name)
			} else {
				b.listeners[name] = next
			}
			return
		}
	}
}

// Emit calls every listener registered for s in registration order, on the
// caller's goroutine. A failing or panicking listener is logged and does not
// stop the others.
func (b *Bus) Emit(ctx context.Context, s Signal) {
	name := s.SignalName()

	// Copy so listeners may subscribe from inside a handler.
	b.mu.RLock()
	listeners := append([]*Listener(nil), b.listeners[name]...)
	b.mu.RUnlock()

	if len(listeners) == 0 {
		b.logger.Debug("No listeners registered", "signal", name)
		return
	}

	b.logger.Debug("Emitting signal", "signal", name, "listeners", len(listeners))
	for i, l := range listeners {
		if err := b.invoke(ctx, l, s); err != nil {
			b.logger.Error("Listener failed", "signal", name, "index", i, "error", err)
		}
	}
}

// Count returns how many listeners are registered for name.
func (b *Bus) Count(name Name) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[name])
}

func (b *Bus) invoke(ctx context.Context, l *Listener, s Signal) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panicked: %v", r)
		}
	}()
	return l.fn(ctx, s)
}

// On subscribes a typed handler for the signal variant S and returns its
// listener. Signals of any other variant that happen to share the name are
// ignored.
func On[S Signal](b *Bus, fn func(ctx context.Context, s S) error) *Listener {
	var zero S
	l := NewListener(func(ctx context.Context, s Signal) error {
		typed, ok := s.(S)
		if !ok {
			return fmt.Errorf("unexpected payload %T for signal %q", s, zero.SignalName())
		}
		return fn(ctx, typed)
	})
	b.Subscribe(zero.SignalName(), l)
	return l
}
