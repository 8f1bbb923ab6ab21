package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/bravonokoth/store-sub000/ws/presence"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type Config struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the websocket transport: it upgrades requests, runs the
// per-connection pumps and keeps room membership in sync with
// connection lifecycle.
type Server struct {
	rooms      *roomServer
	dispatcher *roomDispatcher
	handler    *eventHandler
	presence   *presence.MemService

	readTimeout  time.Duration
	writeTimeout time.Duration

	connections metric.Int64UpDownCounter
}

func NewServer(rooms *roomServer, svc RelayService, pres *presence.MemService, conf Config) *Server {
	if conf.ReadTimeout <= 0 {
		conf.ReadTimeout = 60 * time.Second
	}
	if conf.WriteTimeout <= 0 {
		conf.WriteTimeout = 10 * time.Second
	}

	meter := otel.Meter("github.com/bravonokoth/store-sub000/ws")
	connections, err := meter.Int64UpDownCounter("relay.connections",
		metric.WithDescription("Open websocket connections"))
	if err != nil {
		slog.Warn("can't create relay.connections gauge", "err", err)
	}

	s := &Server{
		rooms:        rooms,
		dispatcher:   NewRoomDispatcher(),
		handler:      newEventHandler(rooms, svc, pres),
		presence:     pres,
		readTimeout:  conf.ReadTimeout,
		writeTimeout: conf.WriteTimeout,
		connections:  connections,
	}

	s.registerEventHandlers()

	return s
}

func (s *Server) registerEventHandlers() {
	s.dispatcher.SubscribeOnClientEvents(func(e clientEvent) {
		switch e.EventType() {
		case clientConnected:
			if s.connections != nil {
				s.connections.Add(context.Background(), 1)
			}
		case clientDisconnected:
			s.rooms.DropClient(e.client)
			if s.presence != nil {
				s.presence.Disconnected(e.client.ClientId())
			}
			if s.connections != nil {
				s.connections.Add(context.Background(), -1)
			}
		}
	})
}

// Register mounts the websocket endpoint on the fiber app.
func (s *Server) Register(app *fiber.App) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(s.serveConn))
}
