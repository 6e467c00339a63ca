package realtime

import (
	"sort"
	"sync"
)

// Conn is the slice of a socket connection the registry and fan-out need.
// socketio.Conn satisfies it; tests substitute fakes.
type Conn interface {
	ID() string
	Emit(msg string, v ...interface{})
}

// Registry maps a user to their live socket connections. A user may hold
// several at once (tabs, devices); zero connections simply means offline.
// Process-local only — on restart everyone is offline until they reconnect.
// A multi-instance deployment would need a shared presence layer behind this
// type; that seam is deliberate.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]map[string]Conn // userID -> connID -> conn
	owner map[string]string          // connID -> userID
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]map[string]Conn),
		owner: make(map[string]string),
	}
}

// Bind registers a connection under a user.
func (r *Registry) Bind(userID string, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conns[userID] == nil {
		r.conns[userID] = make(map[string]Conn)
	}
	r.conns[userID][c.ID()] = c
	r.owner[c.ID()] = userID
}

// Unbind removes a connection and returns the user it belonged to, if any.
func (r *Registry) Unbind(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.owner[connID]
	if !ok {
		return "", false
	}
	delete(r.owner, connID)
	delete(r.conns[userID], connID)
	if len(r.conns[userID]) == 0 {
		delete(r.conns, userID)
	}
	return userID, true
}

// ConnectionsFor returns the live connections bound to a user, possibly none.
func (r *Registry) ConnectionsFor(userID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]Conn, 0, len(r.conns[userID]))
	for _, c := range r.conns[userID] {
		conns = append(conns, c)
	}
	return conns
}

// AllConnections returns every bound connection across all users.
func (r *Registry) AllConnections() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var conns []Conn
	for _, byID := range r.conns {
		for _, c := range byID {
			conns = append(conns, c)
		}
	}
	return conns
}

// OnlineUsers returns the ids of users with at least one connection, sorted.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.conns))
	for userID := range r.conns {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

// IsOnline reports whether a user has any live connection.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID]) > 0
}
