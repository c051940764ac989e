package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Conn wraps a websocket connection bound to one user.
// Writes are serialized by a mutex; gorilla allows one concurrent writer.
type Conn struct {
	userID int64
	ws     *websocket.Conn
	mu     sync.Mutex
	closed bool
}

func NewConn(userID int64, ws *websocket.Conn) *Conn {
	return &Conn{
		userID: userID,
		ws:     ws,
	}
}

func (c *Conn) UserID() int64 {
	return c.userID
}

// Send marshals v as JSON and writes it with a deadline.
func (c *Conn) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return websocket.ErrCloseSent
	}

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteJSON(v)
}

// Close sends a close frame and closes the underlying connection.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	deadline := time.Now().Add(writeWait)
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)

	return c.ws.Close()
}
