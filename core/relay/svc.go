package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Broadcaster fans a payload out to every connection currently in the
// room. Emitting to an absent or empty room is a no-op.
type Broadcaster interface {
	Emit(roomId string, payload []byte)
}

// Journal records emitted events for the back-office. Recording is
// best-effort: callers log failures and move on.
type Journal interface {
	Record(ctx context.Context, room, event string, payload []byte) error
}

type svc struct {
	rooms   Broadcaster
	journal Journal
	emitted metric.Int64Counter
}

// NewService wires the relay operations to a room broadcaster and an
// optional journal (nil disables journaling).
func NewService(rooms Broadcaster, journal Journal) *svc {
	meter := otel.Meter("github.com/bravonokoth/store-sub000/core/relay")
	emitted, err := meter.Int64Counter("relay.events.emitted",
		metric.WithDescription("Events fanned out to notification rooms"))
	if err != nil {
		slog.Warn("can't create relay.events.emitted counter", "err", err)
	}

	return &svc{rooms: rooms, journal: journal, emitted: emitted}
}

type notificationBody struct {
	Message string          `json:"message"`
	Order   json.RawMessage `json:"order,omitempty"`
}

// MarshalJSON keeps the attached order bytes verbatim, same as
// Envelope.MarshalJSON does for frame data.
func (n notificationBody) MarshalJSON() ([]byte, error) {
	msg, err := json.Marshal(n.Message)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(`{"message":`)
	buf.Write(msg)
	if len(n.Order) > 0 {
		buf.WriteString(`,"order":`)
		buf.Write(n.Order)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type statusBody struct {
	OrderID ID     `json:"orderId"`
	Status  string `json:"status"`
	UserID  ID     `json:"userId,omitempty"`
}

// OrderPlaced tells the back-office about a new order and toasts the
// buyer. Delivery is at-most-once; nobody in a room means nobody hears
// about it.
func (s *svc) OrderPlaced(ctx context.Context, ev OrderEvent) {
	s.emit(ctx, AdminRoom, EvNewOrder, ev.Payload)

	note := notificationBody{
		Message: fmt.Sprintf("Order #%s placed successfully", ev.OrderID),
		Order:   ev.Payload,
	}
	s.emitJSON(ctx, UserRoom(ev.UserID.String()), EvNotification, note)
}

// UpdateOrderStatus notifies the order's owner and the back-office of a
// status transition.
func (s *svc) UpdateOrderStatus(ctx context.Context, ch StatusChange) {
	userRoom := UserRoom(ch.UserID.String())

	s.emitJSON(ctx, userRoom, EvOrderStatusUpdated, statusBody{OrderID: ch.OrderID, Status: ch.Status})
	s.emitJSON(ctx, userRoom, EvNotification, notificationBody{
		Message: fmt.Sprintf("Order #%s status updated to %s", ch.OrderID, ch.Status),
	})

	s.emitJSON(ctx, AdminRoom, EvOrderStatusUpdated, statusBody{OrderID: ch.OrderID, Status: ch.Status, UserID: ch.UserID})
}

// Broadcast pushes an arbitrary event to an arbitrary room on behalf of
// the trusted backend. Data is forwarded unchanged.
func (s *svc) Broadcast(ctx context.Context, event string, data json.RawMessage, channel string) {
	s.emit(ctx, channel, event, data)
}

// emitJSON calls MarshalJSON directly where a body provides one:
// json.Marshal re-compacts and HTML-escapes a Marshaler's output, which
// would undo the verbatim splicing.
func (s *svc) emitJSON(ctx context.Context, room, event string, body any) {
	var data []byte
	var err error
	if m, ok := body.(json.Marshaler); ok {
		data, err = m.MarshalJSON()
	} else {
		data, err = json.Marshal(body)
	}
	if err != nil {
		slog.Error("can't marshal event body", slog.String("event", event), "err", err)
		return
	}
	s.emit(ctx, room, event, data)
}

func (s *svc) emit(ctx context.Context, room, event string, data json.RawMessage) {
	payload, err := Envelope{Event: event, Data: data}.MarshalJSON()
	if err != nil {
		slog.Error("can't marshal envelope", slog.String("event", event), "err", err)
		return
	}

	s.rooms.Emit(room, payload)

	if s.emitted != nil {
		s.emitted.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
	}

	if s.journal != nil {
		if err := s.journal.Record(ctx, room, event, data); err != nil {
			slog.Warn("can't journal event", slog.String("room", room), slog.String("event", event), "err", err)
		}
	}
}
