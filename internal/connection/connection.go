// Package connection links the showcase to the lobby server. It answers the
// connect-to-server and set-user-id signals and reports back with
// connected-to-server and auth-complete.
package connection

import (
	"context"
	"errors"
	"fmt"
	stlog "log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"

	"github.com/sandruandrei/SGDemo/internal/protocol"
	"github.com/sandruandrei/SGDemo/internal/signals"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var (
	ErrNotConnected = errors.New("not connected to server")
	ErrAuthTimeout  = errors.New("timed out waiting for auth reply")
)

// Options configures a Module.
type Options struct {
	// ServerURL is the lobby websocket endpoint. Empty runs offline: every
	// request is acknowledged immediately.
	ServerURL    string
	DialAttempts uint
	AuthTimeout  time.Duration
	// Backoff paces dial retries. Defaults to exponential backoff.
	Backoff backoff.BackOff
	Dialer  *websocket.Dialer
	Logger  *stlog.Logger
}

// Module owns the lobby connection.
type Module struct {
	bus    signals.Emitter
	opts   Options
	logger *stlog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	frames  chan protocol.Frame
	writeMu sync.Mutex

	mu        sync.RWMutex
	conn      *websocket.Conn
	sessionID string
	err       error
}

// New subscribes a Module to bus. Background work stops when ctx is done or
// Close is called.
func New(ctx context.Context, bus *signals.Bus, opts Options) *Module {
	if opts.Logger == nil {
		opts.Logger = stlog.Default()
	}
	if opts.DialAttempts == 0 {
		opts.DialAttempts = 1
	}
	if opts.AuthTimeout <= 0 {
		opts.AuthTimeout = 10 * time.Second
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}

	m := &Module{
		bus:    bus,
		opts:   opts,
		logger: opts.Logger.With("component", "connection"),
		frames: make(chan protocol.Frame, 16),
	}
	m.ctx, m.cancel = context.WithCancel(ctx)

	signals.On(bus, m.onConnect)
	signals.On(bus, m.onSetUserID)
	return m
}

// Offline reports whether the module runs without a server.
func (m *Module) Offline() bool { return m.opts.ServerURL == "" }

// Connected reports whether a server connection is open.
func (m *Module) Connected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conn != nil
}

// SessionID returns the session granted by the lobby, if any.
func (m *Module) SessionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID
}

// Err returns the last connection or authentication error.
func (m *Module) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

func (m *Module) setErr(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *Module) onConnect(ctx context.Context, _ signals.ConnectToServer) error {
	if m.Offline() {
		m.logger.Info("No server configured, running offline")
		m.bus.Emit(ctx, signals.ConnectedToServer{})
		return nil
	}
	if m.Connected() {
		m.logger.Info("Already connected")
		m.bus.Emit(ctx, signals.ConnectedToServer{})
		return nil
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.connect(m.ctx); err != nil {
			m.logger.Error("Failed to connect to server", "url", m.opts.ServerURL, "error", err)
			m.setErr(err)
			return
		}
		m.bus.Emit(m.ctx, signals.ConnectedToServer{})
	}()
	return nil
}

func (m *Module) connect(ctx context.Context) error {
	b := m.opts.Backoff
	if b == nil {
		b = backoff.NewExponentialBackOff()
	}
	attempt := 0
	conn, err := backoff.Retry(ctx, func() (*websocket.Conn, error) {
		attempt++
		m.logger.Info("Dialing server", "url", m.opts.ServerURL, "attempt", attempt)
		conn, _, err := m.opts.Dialer.DialContext(ctx, m.opts.ServerURL, nil)
		return conn, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(m.opts.DialAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			m.logger.Warn("Dial failed, retrying", "error", err, "in", next)
		}),
	)
	if err != nil {
		return fmt.Errorf("dial %s: %w", m.opts.ServerURL, err)
	}

	m.mu.Lock()
	m.conn = conn
	m.err = nil
	m.mu.Unlock()
	m.logger.Info("Connected to server", "url", m.opts.ServerURL)

	m.wg.Add(2)
	go m.readLoop(conn)
	go m.pingLoop(conn)
	return nil
}

func (m *Module) readLoop(conn *websocket.Conn) {
	defer m.wg.Done()
	defer func() {
		m.mu.Lock()
		if m.conn == conn {
			m.conn = nil
		}
		m.mu.Unlock()
		m.logger.Info("Read loop finished")
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || m.ctx.Err() != nil {
				m.logger.Info("Connection closed")
			} else {
				m.logger.Error("Read error", "error", err)
			}
			return
		}
		if messageType != websocket.BinaryMessage {
			m.logger.Warn("Received non-binary message", "type", messageType)
			continue
		}
		frame, err := protocol.Unmarshal(message)
		if err != nil {
			m.logger.Error("Failed to unmarshal server frame", "error", err)
			continue
		}
		select {
		case m.frames <- frame:
		default:
			m.logger.Warn("Dropping unclaimed frame", "type", frame.Type)
		}
	}
}

func (m *Module) pingLoop(conn *websocket.Conn) {
	defer m.wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				m.logger.Error("Ping error", "error", err)
				return
			}
		}
	}
}

func (m *Module) onSetUserID(ctx context.Context, s signals.SetUserID) error {
	if m.Offline() {
		m.logger.Info("Offline auth", "userId", s.UserID)
		m.bus.Emit(ctx, signals.AuthComplete{UserID: s.UserID})
		return nil
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		userID, err := m.authenticate(m.ctx, s.UserID)
		if err != nil {
			m.logger.Error("Authentication failed", "userId", s.UserID, "error", err)
			m.setErr(err)
			return
		}
		m.bus.Emit(m.ctx, signals.AuthComplete{UserID: userID})
	}()
	return nil
}

func (m *Module) authenticate(ctx context.Context, userID string) (string, error) {
	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()
	if conn == nil {
		return "", ErrNotConnected
	}

	data, err := protocol.Marshal(protocol.Frame{Type: protocol.TypeAuth, UserID: userID})
	if err != nil {
		return "", err
	}
	m.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	err = conn.WriteMessage(websocket.BinaryMessage, data)
	m.writeMu.Unlock()
	if err != nil {
		return "", fmt.Errorf("send auth: %w", err)
	}

	timer := time.NewTimer(m.opts.AuthTimeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
			return "", ErrAuthTimeout
		case f := <-m.frames:
			switch f.Type {
			case protocol.TypeAuthOK:
				m.mu.Lock()
				m.sessionID = f.SessionID
				m.err = nil
				m.mu.Unlock()
				m.logger.Info("Authenticated", "userId", f.UserID, "sessionId", f.SessionID)
				return f.UserID, nil
			case protocol.TypeError:
				return "", fmt.Errorf("server rejected auth: %s", f.Message)
			default:
				m.logger.Debug("Ignoring frame while authenticating", "type", f.Type)
			}
		}
	}
}

// Close stops background work and closes the connection.
func (m *Module) Close() error {
	m.cancel()

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	var err error
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		err = conn.Close()
	}
	m.wg.Wait()
	return err
}
