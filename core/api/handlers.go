package api

import (
	"context"
	"encoding/json"

	"github.com/bravonokoth/store-sub000/core/journal"

	"github.com/danielgtaylor/huma/v2"
)

// RelayService pushes events into notification rooms.
type RelayService interface {
	Broadcast(ctx context.Context, event string, data json.RawMessage, channel string)
}

// JournalReader exposes the emit history. May be nil when journaling is
// disabled.
type JournalReader interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// PresenceReader reports which users hold a live socket.
type PresenceReader interface {
	IsOnline(userId string) bool
	OnlineUsers() int
}

type Handler struct {
	svc      RelayService
	journal  JournalReader
	presence PresenceReader
}

// broadcast lets the storefront backend push an event to any room.
// Delivery is best-effort, so the response says the event was
// broadcasted even when the room is empty.
func (h *Handler) broadcast(ctx context.Context, in *broadcastInput) (*broadcastOutput, error) {
	h.svc.Broadcast(ctx, in.Body.Event, json.RawMessage(in.Body.Data), in.Body.Channel)

	res := &broadcastOutput{}
	res.Body.Status = "Event broadcasted"
	return res, nil
}

func (h *Handler) recentNotifications(ctx context.Context, in *recentNotificationsInput) (*ResBody[[]journal.Entry], error) {
	if h.journal == nil {
		return nil, huma.Error404NotFound("journal is disabled")
	}

	entries, err := h.journal.Recent(ctx, in.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("can't read the journal", err)
	}

	return &ResBody[[]journal.Entry]{Body: entries}, nil
}

func (h *Handler) userPresence(ctx context.Context, in *userPresenceInput) (*ResBody[presenceBody], error) {
	if h.presence == nil {
		return nil, huma.Error404NotFound("presence is disabled")
	}
	return &ResBody[presenceBody]{Body: presenceBody{Online: h.presence.IsOnline(in.UserID)}}, nil
}

func (h *Handler) presenceSummary(ctx context.Context, in *struct{}) (*ResBody[presenceSummaryBody], error) {
	if h.presence == nil {
		return nil, huma.Error404NotFound("presence is disabled")
	}
	return &ResBody[presenceSummaryBody]{Body: presenceSummaryBody{OnlineUsers: h.presence.OnlineUsers()}}, nil
}
