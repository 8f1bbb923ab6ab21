package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/bravonokoth/store-sub000/core/relay"
	"github.com/bravonokoth/store-sub000/ws/presence"
)

// Client -> server event names, kept wire-compatible with the
// storefront frontend.
const (
	evJoinUserRoom      = "join_user_room"
	evJoinAdminRoom     = "join_admin_room"
	evOrderPlaced       = "order_placed"
	evUpdateOrderStatus = "update_order_status"
)

// RelayService handles the domain events a socket client may emit.
type RelayService interface {
	OrderPlaced(ctx context.Context, ev relay.OrderEvent)
	UpdateOrderStatus(ctx context.Context, ch relay.StatusChange)
}

// eventHandler routes inbound frames. The relay trusts its clients:
// any connection may join any room, and malformed frames are dropped
// without closing the connection.
type eventHandler struct {
	rooms    *roomServer
	svc      RelayService
	presence *presence.MemService
}

func newEventHandler(rooms *roomServer, svc RelayService, pres *presence.MemService) *eventHandler {
	return &eventHandler{rooms: rooms, svc: svc, presence: pres}
}

func (h *eventHandler) handleFrame(ctx context.Context, c *Client, frame []byte) {
	env := relay.Envelope{}
	if err := json.Unmarshal(frame, &env); err != nil {
		slog.Debug("dropping malformed frame", slog.String("clientId", c.ClientId()), "err", err)
		return
	}

	switch env.Event {
	case evJoinUserRoom:
		var userId relay.ID
		if err := json.Unmarshal(env.Data, &userId); err != nil || userId == "" {
			slog.Debug("dropping join without userId", slog.String("clientId", c.ClientId()))
			return
		}
		h.rooms.Join(c, relay.UserRoom(userId.String()))
		if h.presence != nil {
			h.presence.Connect(userId.String(), c.ClientId())
		}

	case evJoinAdminRoom:
		h.rooms.Join(c, relay.AdminRoom)

	case evOrderPlaced:
		ev, err := relay.ParseOrderEvent(env.Data)
		if err != nil {
			slog.Debug("dropping order_placed", slog.String("clientId", c.ClientId()), "err", err)
			return
		}
		h.svc.OrderPlaced(ctx, ev)

	case evUpdateOrderStatus:
		ch, err := relay.ParseStatusChange(env.Data)
		if err != nil {
			slog.Debug("dropping update_order_status", slog.String("clientId", c.ClientId()), "err", err)
			return
		}
		h.svc.UpdateOrderStatus(ctx, ch)

	default:
		slog.Debug("unknown event", slog.String("event", env.Event), slog.String("clientId", c.ClientId()))
	}
}
