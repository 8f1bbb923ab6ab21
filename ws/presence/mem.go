// Package presence tracks which storefront users currently hold a live
// socket. A connection is anonymous until it joins its user room, so
// clients show up here only after a join_user_room.
package presence

import "sync"

type MemService struct {
	mu sync.Mutex

	clientsByUser map[string][]string
	userByClient  map[string]string
}

func NewMemService() *MemService {
	return &MemService{
		clientsByUser: map[string][]string{},
		userByClient:  map[string]string{},
	}
}

// Connect marks the user behind clientId as online. A client that joins
// another user room later counts for the new user only.
func (s *MemService) Connect(userId, clientId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.userByClient[clientId]; ok {
		if prev == userId {
			return
		}
		s.removeLocked(prev, clientId)
	}

	s.userByClient[clientId] = userId
	s.clientsByUser[userId] = append(s.clientsByUser[userId], clientId)
}

// Disconnected forgets the client. Unknown clients are a no-op, so the
// disconnect path may call it for connections that never joined.
func (s *MemService) Disconnected(clientId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userId, ok := s.userByClient[clientId]
	if !ok {
		return
	}

	delete(s.userByClient, clientId)
	s.removeLocked(userId, clientId)
}

func (s *MemService) removeLocked(userId, clientId string) {
	clients := findAndDelete(s.clientsByUser[userId], clientId)
	if len(clients) == 0 {
		delete(s.clientsByUser, userId)
	} else {
		s.clientsByUser[userId] = clients
	}
}

func (s *MemService) IsOnline(userId string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.clientsByUser[userId]) > 0
}

// OnlineUsers returns the number of distinct users with at least one
// live connection.
func (s *MemService) OnlineUsers() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.clientsByUser)
}

// Deletes item from slice then insert zero value at end (for GC).
// Be careful, it reorders the slice
func findAndDelete[T comparable](list []T, elem T) []T {
	var zero T
	lastIdx := len(list) - 1
	for i := range list {
		if list[i] == elem {
			list[i] = list[lastIdx]
			list[lastIdx] = zero
			list = list[:lastIdx]
			return list
		}
	}
	return list
}
