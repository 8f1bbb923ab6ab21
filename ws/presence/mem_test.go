package presence

import (
	"fmt"
	"sync"
	"testing"
)

func TestMemService_Connect(t *testing.T) {
	tests := []struct {
		name    string
		clients map[string]string // clientId -> userId
	}{
		{"one client", map[string]string{"client1": "me"}},
		{"two clients same user", map[string]string{"cli_21": "user2", "cli_22": "user2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMemService()

			for clientId, userId := range tt.clients {
				s.Connect(userId, clientId)

				if !s.IsOnline(userId) {
					t.Errorf("user %s should be online after connect", userId)
				}
			}
		})
	}
}

func TestMemService_Rejoin(t *testing.T) {
	s := NewMemService()

	s.Connect("u1", "cli")
	s.Connect("u2", "cli") // same socket joins another user room

	if s.IsOnline("u1") {
		t.Error("u1 should be offline after the client rejoined as u2")
	}
	if !s.IsOnline("u2") {
		t.Error("u2 should be online")
	}
	if s.OnlineUsers() != 1 {
		t.Errorf("expected 1 online user, got %d", s.OnlineUsers())
	}
}

func TestMemService_Disconnected(t *testing.T) {
	tests := []struct {
		name         string
		clients      map[string]string // clientId -> userId
		disconnected string
		stillOnline  []string
		offline      []string
	}{
		{"empty", nil, "cli", nil, []string{"user"}},
		{"one client", map[string]string{"cli": "user"}, "cli", nil, []string{"user"}},
		{"three clients", map[string]string{
			"c_21": "u2", "c_22": "u2", "c_23": "u2", "oCli": "other",
		}, "c_22", []string{"u2", "other"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMemService()

			for clientId, userId := range tt.clients {
				s.Connect(userId, clientId)
			}

			s.Disconnected(tt.disconnected)

			for _, u := range tt.stillOnline {
				if !s.IsOnline(u) {
					t.Errorf("user %s should still be online", u)
				}
			}
			for _, u := range tt.offline {
				if s.IsOnline(u) {
					t.Errorf("user %s should be offline", u)
				}
			}
		})
	}
}

func TestMemService_OnlineUsers(t *testing.T) {
	s := NewMemService()

	const users = 50
	wg := sync.WaitGroup{}
	wg.Add(users)

	for i := 0; i < users; i++ {
		go func(i int) {
			userId := fmt.Sprint(i)
			s.Connect(userId, "cli_"+userId)
			wg.Done()
		}(i)
	}
	wg.Wait()

	if s.OnlineUsers() != users {
		t.Errorf("OnlineUsers is %d, expected: %d", s.OnlineUsers(), users)
	}

	wg.Add(users)
	for i := 0; i < users; i++ {
		go func(i int) {
			s.Disconnected("cli_" + fmt.Sprint(i))
			wg.Done()
		}(i)
	}
	wg.Wait()

	if s.OnlineUsers() != 0 {
		t.Errorf("OnlineUsers is %d, expected: 0", s.OnlineUsers())
	}
}
