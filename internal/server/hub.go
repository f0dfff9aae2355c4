package server

import (
	"context"
	"errors"
	stlog "log/slog"
	"sync"

	"github.com/google/uuid"
)

var errEmptyUserID = errors.New("user id is empty")

// Hub tracks connected clients and the sessions they opened.
type Hub struct {
	clients    map[*Client]bool
	clientsMux sync.RWMutex

	sessions    map[string]string
	sessionsMux sync.RWMutex

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	logger  *stlog.Logger
	metrics *Metrics
}

// NewHub creates a new Hub instance.
func NewHub(logger *stlog.Logger, metrics *Metrics) *Hub {
	if logger == nil {
		logger = stlog.Default()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		sessions:   make(map[string]string),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With("component", "hub"),
		metrics:    metrics,
	}
}

// Run processes registrations until ctx is done, then disconnects every
// remaining client.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("Hub started")
	defer func() {
		close(h.done)
		h.logger.Info("Hub stopped")
	}()
	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case <-ctx.Done():
			h.shutdown()
			return
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.clientsMux.Lock()
	h.clients[client] = true
	h.clientsMux.Unlock()

	h.metrics.connectedClients.Inc()
	client.logger.Info("Client registered")
}

func (h *Hub) handleUnregister(client *Client) {
	h.clientsMux.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		client.closeSend()
	}
	h.clientsMux.Unlock()
	if !ok {
		return
	}

	h.metrics.connectedClients.Dec()
	if sessionID := client.session(); sessionID != "" {
		h.sessionsMux.Lock()
		delete(h.sessions, sessionID)
		h.sessionsMux.Unlock()
	}
	client.logger.Info("Client unregistered")
}

func (h *Hub) shutdown() {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		client.closeSend()
		h.metrics.connectedClients.Dec()
	}
}

// authenticate opens a session for userID and returns its id.
func (h *Hub) authenticate(userID string) (string, error) {
	if userID == "" {
		h.metrics.auths.WithLabelValues("rejected").Inc()
		return "", errEmptyUserID
	}
	sessionID := uuid.NewString()

	h.sessionsMux.Lock()
	h.sessions[sessionID] = userID
	h.sessionsMux.Unlock()

	h.metrics.auths.WithLabelValues("ok").Inc()
	return sessionID, nil
}

// Session returns the user that owns sessionID.
func (h *Hub) Session(sessionID string) (string, bool) {
	h.sessionsMux.RLock()
	defer h.sessionsMux.RUnlock()
	userID, ok := h.sessions[sessionID]
	return userID, ok
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}
