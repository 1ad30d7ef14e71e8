package core

import "sync"

// Membership is the room and display name a connection joined under.
type Membership struct {
	RoomID string
	Name   string
}

// Registry tracks live connections and which room each has joined, and
// indexes connections per room for addressing fan-out.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	joined  map[string]Membership
	rooms   map[string]*Room
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		joined:  make(map[string]Membership),
		rooms:   make(map[string]*Room),
	}
}

// Connect records a newly opened connection.
func (r *Registry) Connect(c *Client) {
	r.mu.Lock()
	r.clients[c.ID] = c
	r.mu.Unlock()
}

// Connected reports whether the connection is live.
func (r *Registry) Connected(connID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[connID]
	return ok
}

// RecordJoin associates the connection with a room and name, replacing any
// previous association. Leaving the previous room in the store is the
// caller's job.
func (r *Registry) RecordJoin(connID, roomID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.joined[connID]; ok && prev.RoomID != roomID {
		r.unindexLocked(prev.RoomID, connID)
	}
	r.joined[connID] = Membership{RoomID: roomID, Name: name}

	c, ok := r.clients[connID]
	if !ok {
		return
	}
	rm, ok := r.rooms[roomID]
	if !ok {
		rm = NewRoom(roomID)
		r.rooms[roomID] = rm
	}
	rm.AddClient(c)
}

// Lookup returns the connection's current membership.
func (r *Registry) Lookup(connID string) (Membership, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.joined[connID]
	return m, ok
}

// Remove forgets the connection entirely and returns its last membership.
func (r *Registry) Remove(connID string) (Membership, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.clients, connID)
	m, ok := r.joined[connID]
	if !ok {
		return Membership{}, false
	}
	delete(r.joined, connID)
	r.unindexLocked(m.RoomID, connID)
	return m, true
}

// Connections returns the clients joined to roomID.
func (r *Registry) Connections(roomID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	return rm.Clients()
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Registry) unindexLocked(roomID, connID string) {
	rm, ok := r.rooms[roomID]
	if !ok {
		return
	}
	rm.RemoveClient(connID)
	if rm.Empty() {
		delete(r.rooms, roomID)
	}
}
