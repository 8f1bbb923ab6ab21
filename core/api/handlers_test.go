package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bravonokoth/store-sub000/core/journal"
	"github.com/bravonokoth/store-sub000/ws/presence"

	"github.com/danielgtaylor/huma/v2/humatest"
)

func TestHandler_broadcast(t *testing.T) {
	_, api := humatest.New(t)
	rooms := NewMockRooms()
	h := Handler{svc: newMockService(rooms), journal: nil}

	registerEndpoints(api, h)

	resp := api.Post("/broadcast", map[string]any{
		"event":   "notification",
		"data":    map[string]any{"message": "restock tomorrow"},
		"channel": "admin_room",
	})
	assertStatus(t, resp, 200)

	var body struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "Event broadcasted" {
		t.Errorf(`expected status "Event broadcasted", got %q`, body.Status)
	}

	emits := rooms.forRoom("admin_room")
	if len(emits) != 1 {
		t.Fatalf("expected one emit to admin_room, got %d", len(emits))
	}

	env := struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(emits[0], &env); err != nil {
		t.Fatal(err)
	}
	if env.Event != "notification" {
		t.Errorf("expected event notification, got %q", env.Event)
	}
	if string(env.Data) != `{"message":"restock tomorrow"}` {
		t.Errorf("data should be forwarded unchanged, got: %s", env.Data)
	}
}

func TestHandler_broadcast_emptyRoom(t *testing.T) {
	_, api := humatest.New(t)
	rooms := NewMockRooms()
	registerEndpoints(api, Handler{svc: newMockService(rooms)})

	// nobody ever joined user_99; the relay still reports success
	resp := api.Post("/broadcast", map[string]any{
		"event":   "order_status_updated",
		"data":    map[string]any{"orderId": 3, "status": "shipped"},
		"channel": "user_99",
	})
	assertStatus(t, resp, 200)
}

func TestHandler_broadcast_dataBytesUnchanged(t *testing.T) {
	_, api := humatest.New(t)
	rooms := NewMockRooms()
	registerEndpoints(api, Handler{svc: newMockService(rooms)})

	// raw body so the client's spacing and html characters survive
	body := `{"event":"notification","data":{"note": "a<b&c>d"},"channel":"admin_room"}`
	resp := api.Post("/broadcast", "Content-Type: application/json", strings.NewReader(body))
	assertStatus(t, resp, 200)

	emits := rooms.forRoom("admin_room")
	if len(emits) != 1 {
		t.Fatalf("expected one emit to admin_room, got %d", len(emits))
	}
	if !strings.Contains(string(emits[0]), `{"note": "a<b&c>d"}`) {
		t.Errorf("data should reach the room byte for byte, got: %s", emits[0])
	}
}

func TestHandler_broadcast_invalidBody(t *testing.T) {
	_, api := humatest.New(t)
	registerEndpoints(api, Handler{svc: newMockService(NewMockRooms())})

	resp := api.Post("/broadcast", map[string]any{"data": map[string]any{}})
	assertStatus(t, resp, 422)
}

func TestHandler_recentNotifications(t *testing.T) {
	_, api := humatest.New(t)
	j := &mockJournal{entries: []journal.Entry{
		{ID: 2, Room: "user_42", Event: "notification", Payload: []byte(`{}`), CreatedAt: time.Now()},
		{ID: 1, Room: "admin_room", Event: "new_order", Payload: []byte(`{}`), CreatedAt: time.Now()},
	}}
	registerEndpoints(api, Handler{svc: newMockService(NewMockRooms()), journal: j})

	resp := api.Get("/notifications/recent?limit=1")
	assertStatus(t, resp, 200)

	var entries []journal.Entry
	if err := json.Unmarshal(resp.Body.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Room != "user_42" {
		t.Errorf("expected the newest entry, got: %+v", entries)
	}
}

func TestHandler_recentNotifications_journalBroken(t *testing.T) {
	h := Handler{svc: newMockService(NewMockRooms()), journal: &mockJournal{err: errors.New("disk gone")}}

	_, err := h.recentNotifications(context.Background(), &recentNotificationsInput{Limit: 10})
	if err == nil {
		t.Error("expected an error from a broken journal")
	}
}

func TestHandler_userPresence(t *testing.T) {
	_, api := humatest.New(t)
	pres := presence.NewMemService()
	pres.Connect("42", "cli_1")
	registerEndpoints(api, Handler{svc: newMockService(NewMockRooms()), presence: pres})

	resp := api.Get("/presence/42")
	assertStatus(t, resp, 200)

	var body struct {
		Online bool `json:"online"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Online {
		t.Error("user 42 should be online")
	}

	resp = api.Get("/presence/99")
	assertStatus(t, resp, 200)
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Online {
		t.Error("user 99 should be offline")
	}

	resp = api.Get("/presence")
	assertStatus(t, resp, 200)
	var summary struct {
		OnlineUsers int `json:"onlineUsers"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.OnlineUsers != 1 {
		t.Errorf("expected 1 online user, got %d", summary.OnlineUsers)
	}
}

func TestHandler_recentNotifications_disabled(t *testing.T) {
	h := Handler{svc: newMockService(NewMockRooms())}

	_, err := h.recentNotifications(context.Background(), &recentNotificationsInput{Limit: 10})
	if err == nil {
		t.Error("expected an error when the journal is disabled")
	}
}

func assertStatus(t *testing.T, resp *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if resp.Code != expected {
		t.Errorf("Unexpected status code. got %d, expected %d", resp.Code, expected)
	}
}
