package server

import (
	"context"
	"io"
	stlog "log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandruandrei/SGDemo/internal/protocol"
)

var discardLogger = stlog.New(stlog.NewTextHandler(io.Discard, nil))

func startLobby(t *testing.T) (*Hub, *Metrics, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	metrics := NewMetrics(prometheus.NewRegistry())
	hub := NewHub(discardLogger, metrics)
	go hub.Run(ctx)

	srv := httptest.NewServer(Handler(hub))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, metrics, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, f protocol.Frame) protocol.Frame {
	t.Helper()
	data, err := protocol.Marshal(f)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, data))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	messageType, reply, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.BinaryMessage, messageType)

	out, err := protocol.Unmarshal(reply)
	require.NoError(t, err)
	return out
}

func TestAuthOpensSession(t *testing.T) {
	hub, metrics, url := startLobby(t)
	conn := dial(t, url)

	reply := roundTrip(t, conn, protocol.Frame{Type: protocol.TypeAuth, UserID: "RandomUser"})

	assert.Equal(t, protocol.TypeAuthOK, reply.Type)
	assert.Equal(t, "RandomUser", reply.UserID)
	require.NotEmpty(t, reply.SessionID)

	userID, ok := hub.Session(reply.SessionID)
	assert.True(t, ok)
	assert.Equal(t, "RandomUser", userID)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.auths.WithLabelValues("ok")))
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestAuthWithoutUserIsRejected(t *testing.T) {
	_, metrics, url := startLobby(t)
	conn := dial(t, url)

	reply := roundTrip(t, conn, protocol.Frame{Type: protocol.TypeAuth})

	assert.Equal(t, protocol.TypeError, reply.Type)
	assert.Contains(t, reply.Message, "user id")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.auths.WithLabelValues("rejected")))
}

func TestUnknownFrameTypeGetsError(t *testing.T) {
	_, _, url := startLobby(t)
	conn := dial(t, url)

	reply := roundTrip(t, conn, protocol.Frame{Type: "teleport"})
	assert.Equal(t, protocol.TypeError, reply.Type)
	assert.Contains(t, reply.Message, "teleport")
}

func TestTextMessagesAreIgnored(t *testing.T) {
	_, metrics, url := startLobby(t)
	conn := dial(t, url)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	reply := roundTrip(t, conn, protocol.Frame{Type: protocol.TypeAuth, UserID: "u"})

	assert.Equal(t, protocol.TypeAuthOK, reply.Type)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.receivedFrames.WithLabelValues(protocol.TypeAuth)))
}

func TestDisconnectDropsClientAndSession(t *testing.T) {
	hub, _, url := startLobby(t)
	conn := dial(t, url)

	reply := roundTrip(t, conn, protocol.Frame{Type: protocol.TypeAuth, UserID: "gone"})
	require.Equal(t, protocol.TypeAuthOK, reply.Type)
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		_, ok := hub.Session(reply.SessionID)
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubShutdownClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(discardLogger, nil)
	go hub.Run(ctx)
	srv := httptest.NewServer(Handler(hub))
	defer srv.Close()

	conn := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http"))
	reply := roundTrip(t, conn, protocol.Frame{Type: protocol.TypeAuth, UserID: "u"})
	require.Equal(t, protocol.TypeAuthOK, reply.Type)

	cancel()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNoStatusReceived), "got %v", err)
}
