// Package bridge consumes broadcast requests the storefront backend
// publishes to NATS, as an alternative to POST /broadcast.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Broadcaster pushes an event into a notification room.
type Broadcaster interface {
	Broadcast(ctx context.Context, event string, data json.RawMessage, channel string)
}

// envelope mirrors the POST /broadcast body.
type envelope struct {
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
	Channel string          `json:"channel"`
}

type Bridge struct {
	nc  *nats.Conn
	sub *nats.Subscription
	svc Broadcaster
}

// Connect subscribes to the broadcast subject. Callers treat a failed
// connection as non-fatal and run without the bridge.
func Connect(url, subject string, svc Broadcaster) (*Bridge, error) {
	nc, err := nats.Connect(url,
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("can't connect to nats: %w", err)
	}

	b := &Bridge{nc: nc, svc: svc}

	sub, err := nc.Subscribe(subject, b.handle)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("can't subscribe to %s: %w", subject, err)
	}
	b.sub = sub

	slog.Info("listening for backend broadcasts", slog.String("subject", subject))
	return b, nil
}

func (b *Bridge) handle(msg *nats.Msg) {
	ev, err := decode(msg.Data)
	if err != nil {
		slog.Warn("dropping broadcast message", slog.String("subject", msg.Subject), "err", err)
		return
	}

	b.svc.Broadcast(context.Background(), ev.Event, ev.Data, ev.Channel)
}

func decode(data []byte) (envelope, error) {
	ev := envelope{}
	if err := json.Unmarshal(data, &ev); err != nil {
		return envelope{}, fmt.Errorf("can't decode envelope: %w", err)
	}
	if ev.Event == "" || ev.Channel == "" {
		return envelope{}, fmt.Errorf("envelope needs event and channel")
	}
	return ev, nil
}

// Close drains the subscription so in-flight messages finish.
func (b *Bridge) Close() {
	if err := b.sub.Drain(); err != nil {
		slog.Warn("can't drain nats subscription", "err", err)
	}
	b.nc.Close()
}
