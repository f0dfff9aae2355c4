package server

import (
	stlog "log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sandruandrei/SGDemo/internal/protocol"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod     = (pongWait * 9) / 10 // Send pings to peer with this period. Must be less than pongWait.
	maxMessageSize = 2048                // Maximum frame size allowed from peer.
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *stlog.Logger

	mu        sync.RWMutex
	closed    bool
	userID    string
	sessionID string
}

// readPump pumps frames from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
		c.logger.Info("Client readPump finished")
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket read error", "error", err)
			}
			break
		}

		c.hub.metrics.receivedBytes.Add(float64(len(message)))

		if messageType != websocket.BinaryMessage {
			c.logger.Warn("Received non-binary message", "type", messageType)
			continue
		}
		frame, err := protocol.Unmarshal(message)
		if err != nil {
			c.logger.Error("Failed to unmarshal client frame", "error", err)
			c.sendFrame(protocol.Frame{Type: protocol.TypeError, Message: err.Error()})
			continue
		}
		c.hub.metrics.receivedFrames.WithLabelValues(frame.Type).Inc()
		c.handleFrame(frame)
	}
}

// writePump pumps frames from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.Info("Client writePump finished")
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.logger.Info("Send channel closed, sending close message.")
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				c.logger.Error("WebSocket write error", "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Error("WebSocket ping error", "error", err)
				return
			}
		}
	}
}

func (c *Client) handleFrame(f protocol.Frame) {
	switch f.Type {
	case protocol.TypeAuth:
		sessionID, err := c.hub.authenticate(f.UserID)
		if err != nil {
			c.logger.Warn("Authentication rejected", "error", err)
			c.sendFrame(protocol.Frame{Type: protocol.TypeError, Message: err.Error()})
			return
		}
		c.mu.Lock()
		c.userID, c.sessionID = f.UserID, sessionID
		c.mu.Unlock()

		c.logger.Info("Client authenticated", "userId", f.UserID, "sessionId", sessionID)
		c.sendFrame(protocol.Frame{Type: protocol.TypeAuthOK, UserID: f.UserID, SessionID: sessionID})
	default:
		c.logger.Warn("Received unknown frame type", "type", f.Type)
		c.sendFrame(protocol.Frame{Type: protocol.TypeError, Message: "unknown frame type " + f.Type})
	}
}

// sendFrame serializes f, queues it and updates metrics. Frames are dropped
// when the send buffer is full or the client is gone.
func (c *Client) sendFrame(f protocol.Frame) {
	data, err := protocol.Marshal(f)
	if err != nil {
		c.logger.Error("Failed to marshal frame", "type", f.Type, "error", err)
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
		c.hub.metrics.sentFrames.WithLabelValues(f.Type).Inc()
		c.hub.metrics.sentBytes.Add(float64(len(data)))
	default:
		c.logger.Warn("Client send buffer full, dropping frame", "type", f.Type)
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) session() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}
