package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/websocket"
)

const maxFrameSize = 4096

// serveConn adapts the fiber websocket handler to handleConn.
func (s *Server) serveConn(wc *websocket.Conn) {
	s.handleConn(wc)
}

// handleConn owns one connection for its lifetime: registers it, starts
// the write pump and reads frames until the peer goes away.
func (s *Server) handleConn(conn Conn) {
	c := newClient(conn)
	s.dispatcher.dispatch(clientEvent{clientConnected, c})
	defer func() {
		c.close()
		s.dispatcher.dispatch(clientEvent{clientDisconnected, c})
	}()

	go s.writePump(c)
	s.readPump(c)
}

func (s *Server) readPump(c *Client) {
	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			slog.Debug("read loop ended", slog.String("clientId", c.ClientId()), "err", err)
			return
		}
		s.handler.handleFrame(context.Background(), c, frame)
	}
}

func (s *Server) writePump(c *Client) {
	// ping often enough that the peer's pong resets our read deadline
	ticker := time.NewTicker(s.readTimeout * 9 / 10)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return

		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				slog.Debug("can't write to client", slog.String("clientId", c.ClientId()), "err", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
