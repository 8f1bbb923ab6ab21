package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Conn is the subset of a websocket connection the hub needs. It is
// satisfied by *websocket.Conn from gofiber/contrib/websocket.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	Close() error
}

// ErrSlowClient is returned when a client's send buffer is full. The
// hub drops such clients instead of blocking the fan-out.
var ErrSlowClient = errors.New("client send buffer full")

const sendBufferSize = 256

// Client is one websocket connection. Rooms address clients by
// clientId; the relay never verifies who is behind a connection.
type Client struct {
	clientId string
	conn     Conn

	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(conn Conn) *Client {
	return &Client{
		clientId: uuid.NewString(),
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
	}
}

func (c *Client) ClientId() string { return c.clientId }

// enqueue hands a payload to the write pump without blocking.
func (c *Client) enqueue(b []byte) error {
	select {
	case <-c.done:
		return ErrSlowClient
	case c.send <- b:
		return nil
	default:
		return ErrSlowClient
	}
}

// close stops the write pump and closes the underlying connection. Safe
// to call from any goroutine, any number of times.
func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}
