package api

import (
	"context"
	"sync"

	"github.com/bravonokoth/store-sub000/core/journal"
	"github.com/bravonokoth/store-sub000/core/relay"
)

// MockRooms records every fan-out instead of touching real sockets.
type MockRooms struct {
	mu    sync.Mutex
	Emits map[string][][]byte
}

func NewMockRooms() *MockRooms {
	return &MockRooms{Emits: map[string][][]byte{}}
}

func (m *MockRooms) Emit(roomId string, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Emits[roomId] = append(m.Emits[roomId], payload)
}

func (m *MockRooms) forRoom(roomId string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Emits[roomId]
}

type mockJournal struct {
	entries []journal.Entry
	err     error
}

func (j *mockJournal) Recent(ctx context.Context, limit int) ([]journal.Entry, error) {
	if j.err != nil {
		return nil, j.err
	}
	if limit < len(j.entries) {
		return j.entries[:limit], nil
	}
	return j.entries, nil
}

func newMockService(rooms *MockRooms) RelayService {
	return relay.NewService(rooms, nil)
}
