package connection

import (
	"context"
	"io"
	stlog "log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandruandrei/SGDemo/internal/server"
	"github.com/sandruandrei/SGDemo/internal/signals"
)

var discardLogger = stlog.New(stlog.NewTextHandler(io.Discard, nil))

type events struct {
	mu        sync.Mutex
	connected int
	authed    []string
}

func (e *events) snapshot() (int, []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connected, append([]string(nil), e.authed...)
}

func newBus(t *testing.T) (*signals.Bus, *events) {
	t.Helper()
	bus := signals.NewBus(discardLogger)
	ev := &events{}
	signals.On(bus, func(context.Context, signals.ConnectedToServer) error {
		ev.mu.Lock()
		ev.connected++
		ev.mu.Unlock()
		return nil
	})
	signals.On(bus, func(_ context.Context, s signals.AuthComplete) error {
		ev.mu.Lock()
		ev.authed = append(ev.authed, s.UserID)
		ev.mu.Unlock()
		return nil
	})
	return bus, ev
}

func startLobby(t *testing.T) (*server.Hub, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := server.NewHub(discardLogger, nil)
	go hub.Run(ctx)
	srv := httptest.NewServer(server.Handler(hub))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func newModule(t *testing.T, bus *signals.Bus, opts Options) *Module {
	t.Helper()
	opts.Logger = discardLogger
	if opts.Backoff == nil {
		opts.Backoff = backoff.NewConstantBackOff(time.Millisecond)
	}
	m := New(context.Background(), bus, opts)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestOfflineAcknowledgesImmediately(t *testing.T) {
	bus, ev := newBus(t)
	m := newModule(t, bus, Options{})
	require.True(t, m.Offline())

	bus.Emit(context.Background(), signals.ConnectToServer{})
	bus.Emit(context.Background(), signals.SetUserID{UserID: "RandomUser"})

	connected, authed := ev.snapshot()
	assert.Equal(t, 1, connected)
	assert.Equal(t, []string{"RandomUser"}, authed)
}

func TestConnectAndAuthenticateAgainstLobby(t *testing.T) {
	hub, url := startLobby(t)
	bus, ev := newBus(t)
	m := newModule(t, bus, Options{ServerURL: url, DialAttempts: 3, AuthTimeout: 2 * time.Second})

	bus.Emit(context.Background(), signals.ConnectToServer{})
	require.Eventually(t, func() bool {
		connected, _ := ev.snapshot()
		return connected == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, m.Connected())

	bus.Emit(context.Background(), signals.SetUserID{UserID: "RandomUser"})
	require.Eventually(t, func() bool {
		_, authed := ev.snapshot()
		return len(authed) == 1
	}, 2*time.Second, 5*time.Millisecond)

	_, authed := ev.snapshot()
	assert.Equal(t, "RandomUser", authed[0])

	userID, ok := hub.Session(m.SessionID())
	assert.True(t, ok)
	assert.Equal(t, "RandomUser", userID)
	assert.NoError(t, m.Err())
}

func TestDialRetriesThenGivesUp(t *testing.T) {
	var dials atomic.Int32
	dialer := &websocket.Dialer{
		NetDialContext: func(context.Context, string, string) (net.Conn, error) {
			dials.Add(1)
			return nil, &net.OpError{Op: "dial", Err: io.ErrUnexpectedEOF}
		},
	}
	bus, ev := newBus(t)
	m := newModule(t, bus, Options{ServerURL: "ws://lobby.invalid/ws", DialAttempts: 3, Dialer: dialer})

	bus.Emit(context.Background(), signals.ConnectToServer{})

	require.Eventually(t, func() bool { return m.Err() != nil }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(3), dials.Load())
	connected, _ := ev.snapshot()
	assert.Zero(t, connected)
	assert.False(t, m.Connected())
}

func TestAuthRejectedByServer(t *testing.T) {
	_, url := startLobby(t)
	bus, ev := newBus(t)
	m := newModule(t, bus, Options{ServerURL: url, AuthTimeout: 2 * time.Second})

	bus.Emit(context.Background(), signals.ConnectToServer{})
	require.Eventually(t, m.Connected, 2*time.Second, 5*time.Millisecond)

	bus.Emit(context.Background(), signals.SetUserID{UserID: ""})
	require.Eventually(t, func() bool { return m.Err() != nil }, 2*time.Second, 5*time.Millisecond)

	assert.Contains(t, m.Err().Error(), "user id is empty")
	_, authed := ev.snapshot()
	assert.Empty(t, authed)
}

func TestAuthTimesOut(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	bus, ev := newBus(t)
	m := newModule(t, bus, Options{ServerURL: "ws" + strings.TrimPrefix(srv.URL, "http"), AuthTimeout: 20 * time.Millisecond})

	bus.Emit(context.Background(), signals.ConnectToServer{})
	require.Eventually(t, m.Connected, 2*time.Second, 5*time.Millisecond)

	bus.Emit(context.Background(), signals.SetUserID{UserID: "RandomUser"})
	require.Eventually(t, func() bool { return m.Err() != nil }, 2*time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, m.Err(), ErrAuthTimeout)
	_, authed := ev.snapshot()
	assert.Empty(t, authed)
}

func TestAuthWithoutConnection(t *testing.T) {
	bus, _ := newBus(t)
	m := newModule(t, bus, Options{ServerURL: "ws://lobby.invalid/ws"})

	bus.Emit(context.Background(), signals.SetUserID{UserID: "RandomUser"})
	require.Eventually(t, func() bool { return m.Err() != nil }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, m.Err(), ErrNotConnected)
}
