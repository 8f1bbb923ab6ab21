package ws

import (
	"log/slog"
	"sync"
)

// roomServer keeps the room registry: which clients joined which rooms.
// Membership is created by join events and torn down when the
// connection goes away; rooms themselves appear and disappear with
// their members.
type roomServer struct {
	rooms       map[string]*room
	clientRooms map[string][]*room // rooms joined, by clientId
	mu          sync.RWMutex
}

func NewRoomServer() *roomServer {
	return &roomServer{
		rooms:       make(map[string]*room),
		clientRooms: make(map[string][]*room),
	}
}

// Join adds the client to the room, creating it on first join. Joining
// a room twice is a no-op.
func (r *roomServer) Join(c *Client, roomId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomIns, ok := r.rooms[roomId]
	if !ok {
		roomIns = newRoom(roomId)
		r.rooms[roomId] = roomIns
	}

	if roomIns.containsClient(c.ClientId()) {
		return
	}

	roomIns.addClient(c)
	r.clientRooms[c.ClientId()] = append(r.clientRooms[c.ClientId()], roomIns)

	slog.Debug("client joined room", slog.String("roomId", roomId), slog.String("clientId", c.ClientId()))
}

// Leave removes the client from one room and deletes the room once
// empty.
func (r *roomServer) Leave(c *Client, roomId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomIns, ok := r.rooms[roomId]
	if !ok {
		return
	}

	r.leaveLocked(c, roomIns)
}

// DropClient removes the client from every room it joined. Called on
// disconnect; there is no explicit leave in the protocol.
func (r *roomServer) DropClient(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, roomIns := range r.clientRooms[c.ClientId()] {
		roomIns.removeClient(c.ClientId())
		if roomIns.isEmpty() {
			delete(r.rooms, roomIns.ID)
		}
	}
	delete(r.clientRooms, c.ClientId())
}

func (r *roomServer) leaveLocked(c *Client, roomIns *room) {
	roomIns.removeClient(c.ClientId())
	if roomIns.isEmpty() {
		delete(r.rooms, roomIns.ID)
	}

	rooms := findAndDelete(r.clientRooms[c.ClientId()], roomIns)
	if len(rooms) == 0 {
		delete(r.clientRooms, c.ClientId())
	} else {
		r.clientRooms[c.ClientId()] = rooms
	}
}

// Emit fans the payload out to every client currently in the room. An
// absent or empty room drops the payload silently; clients with a full
// send buffer are evicted.
func (r *roomServer) Emit(roomId string, payload []byte) {
	r.mu.RLock()
	roomIns := r.rooms[roomId]
	r.mu.RUnlock()

	if roomIns == nil {
		slog.Debug("emit to empty room dropped", slog.String("roomId", roomId))
		return
	}

	for _, c := range roomIns.clientsSnapshot() {
		if err := c.enqueue(payload); err != nil {
			slog.Warn("evicting slow client", slog.String("clientId", c.ClientId()), "err", err)
			c.close()
			go r.DropClient(c)
		}
	}
}

// Len reports the member count of a room.
func (r *roomServer) Len(roomId string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomIns := r.rooms[roomId]
	if roomIns == nil {
		return 0
	}
	return roomIns.len()
}

// --------------

type room struct {
	ID      string
	clients map[string]*Client
	mu      sync.RWMutex
}

func newRoom(id string) *room {
	return &room{ID: id, clients: make(map[string]*Client)}
}

func (r *room) addClient(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ClientId()] = c
}

func (r *room) removeClient(clientId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, clientId)
}

func (r *room) containsClient(clientId string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[clientId]
	return ok
}

func (r *room) isEmpty() bool {
	return r.len() == 0
}

func (r *room) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *room) clientsSnapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		res = append(res, c)
	}
	return res
}
