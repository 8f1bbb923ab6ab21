package ws

type roomEventType string

const (
	clientConnected    roomEventType = "client.connected"
	clientDisconnected roomEventType = "client.disconnected"
)

type clientEvent struct {
	evType roomEventType
	client *Client
}

func (c clientEvent) EventType() roomEventType {
	return c.evType
}

// roomDispatcher decouples the websocket transport from whoever cares
// about connection lifecycle (room cleanup, connection gauge).
type roomDispatcher struct {
	clientEvSubscribers []func(clientEvent)
}

func NewRoomDispatcher() *roomDispatcher {
	return &roomDispatcher{}
}

func (d *roomDispatcher) dispatch(e clientEvent) {
	for _, f := range d.clientEvSubscribers {
		f(e)
	}
}

func (d *roomDispatcher) SubscribeOnClientEvents(f func(e clientEvent)) {
	d.clientEvSubscribers = append(d.clientEvSubscribers, f)
}
