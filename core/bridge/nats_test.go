package bridge

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedBroadcast struct {
	event, channel string
	data           json.RawMessage
}

type mockSvc struct {
	calls []recordedBroadcast
}

func (m *mockSvc) Broadcast(_ context.Context, event string, data json.RawMessage, channel string) {
	m.calls = append(m.calls, recordedBroadcast{event, channel, data})
}

func TestDecode(t *testing.T) {
	ev, err := decode([]byte(`{"event":"new_order","data":{"orderId": 7},"channel":"admin_room"}`))
	require.NoError(t, err)
	assert.Equal(t, "new_order", ev.Event)
	assert.Equal(t, "admin_room", ev.Channel)
	assert.Equal(t, `{"orderId": 7}`, string(ev.Data))

	_, err = decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = decode([]byte(`{"data":{}}`))
	assert.Error(t, err, "event and channel are required")
}

func TestHandle(t *testing.T) {
	svc := &mockSvc{}
	b := &Bridge{svc: svc}

	b.handle(&nats.Msg{Subject: "storefront.notifications", Data: []byte(
		`{"event":"notification","data":{"message":"hi"},"channel":"user_42"}`)})
	b.handle(&nats.Msg{Subject: "storefront.notifications", Data: []byte(`garbage`)})

	require.Len(t, svc.calls, 1, "bad messages are dropped")
	assert.Equal(t, "notification", svc.calls[0].event)
	assert.Equal(t, "user_42", svc.calls[0].channel)
	assert.JSONEq(t, `{"message":"hi"}`, string(svc.calls[0].data))
}
