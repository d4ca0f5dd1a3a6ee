package presence

import "sync"

// Conn is the writable handle of a live client connection.
type Conn interface {
	WriteJSON(v any) error
}

// Registry maps user ids to their single live connection. Entries are
// process-local and rebuilt from zero on restart.
type Registry struct {
	mu      sync.RWMutex
	entries map[int]Conn
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[int]Conn)}
}

// Register stores conn as the user's live connection, replacing any previous
// one. Last connect wins.
func (r *Registry) Register(userID int, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[userID] = conn
}

// Unregister removes the user's entry only when conn is still the stored
// handle, so a stale disconnect cannot evict a newer connection. Reports
// whether an entry was removed.
func (r *Registry) Unregister(userID int, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.entries[userID]; ok && current == conn {
		delete(r.entries, userID)
		return true
	}
	return false
}

// Lookup returns the user's live connection, if any.
func (r *Registry) Lookup(userID int) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.entries[userID]
	return conn, ok
}

// Snapshot returns the ids of all currently connected users.
func (r *Registry) Snapshot() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}

// Connections returns every live connection handle. Used for presence
// broadcasts, which go to all connected clients.
func (r *Registry) Connections() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]Conn, 0, len(r.entries))
	for _, conn := range r.entries {
		conns = append(conns, conn)
	}
	return conns
}
