package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AdminRoom receives back-office broadcasts.
const AdminRoom = "admin_room"

// UserRoom returns the per-user notification room name.
func UserRoom(userId string) string {
	return "user_" + userId
}

// Server -> client event names.
const (
	EvNewOrder           = "new_order"
	EvOrderStatusUpdated = "order_status_updated"
	EvNotification       = "notification"
)

// Envelope is the wire frame in both directions: an event name plus an
// opaque payload. Data is kept as raw bytes so a payload is forwarded
// exactly as it arrived.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// MarshalJSON splices Data into the frame untouched. json.Marshal would
// compact it and escape <, >, & as \uXXXX, so the bytes a client gets
// would no longer match the bytes the backend sent.
func (e Envelope) MarshalJSON() ([]byte, error) {
	name, err := json.Marshal(e.Event)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(`{"event":`)
	buf.Write(name)
	if len(e.Data) > 0 {
		buf.WriteString(`,"data":`)
		buf.Write(e.Data)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ID is an order or user id. The storefront sends ids as JSON numbers
// in some places and strings in others.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, (*string)(id))
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n)
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

func (id ID) String() string { return string(id) }

// OrderEvent is an order_placed payload. Only the ids are read; the
// payload itself stays opaque and is re-emitted verbatim.
type OrderEvent struct {
	OrderID ID
	UserID  ID
	Payload json.RawMessage
}

func ParseOrderEvent(data json.RawMessage) (OrderEvent, error) {
	var ids struct {
		OrderID ID `json:"orderId"`
		UserID  ID `json:"userId"`
	}
	if err := json.Unmarshal(data, &ids); err != nil {
		return OrderEvent{}, fmt.Errorf("can't decode order data: %w", err)
	}

	return OrderEvent{OrderID: ids.OrderID, UserID: ids.UserID, Payload: data}, nil
}

// StatusChange is an update_order_status payload.
type StatusChange struct {
	OrderID ID     `json:"orderId"`
	Status  string `json:"status"`
	UserID  ID     `json:"userId"`
}

func ParseStatusChange(data json.RawMessage) (StatusChange, error) {
	ch := StatusChange{}
	if err := json.Unmarshal(data, &ch); err != nil {
		return StatusChange{}, fmt.Errorf("can't decode status change: %w", err)
	}
	return ch, nil
}
