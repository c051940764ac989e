package ws

import (
	"context"
	"errors"
	"sync"

	"github.com/Temutjin2k/ride-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/ride-dispatch/pkg/logger/wrapper"
)

var (
	ErrEmptyConn      = errors.New("connection is empty")
	ErrConnIsNotFound = errors.New("connection not found")
)

// ConnectionHub keeps the active WebSocket connection per user.
type ConnectionHub struct {
	clients map[int64]*Conn
	l       logger.Logger
	mu      sync.Mutex
}

func NewConnHub(l logger.Logger) *ConnectionHub {
	return &ConnectionHub{
		clients: make(map[int64]*Conn),
		l:       l,
	}
}

// Add registers a new connection. An existing connection for the same
// user is closed and replaced.
func (h *ConnectionHub) Add(newConn *Conn) error {
	if newConn == nil {
		return ErrEmptyConn
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := wrap.WithAction(context.Background(), "add_ws_connection")

	if existing, ok := h.clients[newConn.userID]; ok {
		h.l.Warn(ctx,
			"replacing existing connection",
			"user_id", existing.userID,
		)
		if err := existing.Close(); err != nil {
			h.l.Warn(ctx,
				"failed to close existing conn",
				"user_id", existing.userID,
				"err", err.Error(),
			)
		}
	}

	h.clients[newConn.userID] = newConn

	return nil
}

// Delete removes and closes the connection for a user.
func (h *ConnectionHub) Delete(userID int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := wrap.WithAction(context.Background(), "ws_connection_delete")

	conn, ok := h.clients[userID]
	if !ok {
		return ErrConnIsNotFound
	}

	if err := conn.Close(); err != nil {
		h.l.Warn(ctx,
			"failed to close conn",
			"user_id", conn.userID,
			"err", err.Error(),
		)
	}

	delete(h.clients, userID)

	return nil
}

// SendTo delivers a message to the user's connection.
// Returns ErrConnIsNotFound when the user is not connected.
func (h *ConnectionHub) SendTo(userID int64, msg any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, ok := h.clients[userID]; ok {
		return conn.Send(msg)
	}
	return ErrConnIsNotFound
}

// Connected reports whether the user currently has a live connection.
func (h *ConnectionHub) Connected(userID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.clients[userID]
	return ok
}

// Close closes every connection in the hub.
func (h *ConnectionHub) Close() {
	h.mu.Lock()
	clients := make([]*Conn, 0, len(h.clients))
	for _, conn := range h.clients {
		clients = append(clients, conn)
	}
	h.mu.Unlock()

	for _, conn := range clients {
		_ = h.Delete(conn.userID)
	}
}
