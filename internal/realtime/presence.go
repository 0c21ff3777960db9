package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks live connections. Implementations are injected into the
// hub; there is deliberately no package-level instance.
type Registry interface {
	Add(conn *Connection)
	Remove(id uuid.UUID) *Connection
	Each(fn func(conn *Connection))
	Len() int
}

// MemoryRegistry is the in-process Registry used by the gateway.
type MemoryRegistry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*Connection
}

// NewMemoryRegistry builds an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{conns: map[uuid.UUID]*Connection{}}
}

func (r *MemoryRegistry) Add(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID] = conn
}

func (r *MemoryRegistry) Remove(id uuid.UUID) *Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[id]
	if !ok {
		return nil
	}
	delete(r.conns, id)
	return conn
}

func (r *MemoryRegistry) Each(fn func(conn *Connection)) {
	r.mu.RLock()
	snapshot := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		snapshot = append(snapshot, conn)
	}
	r.mu.RUnlock()
	for _, conn := range snapshot {
		fn(conn)
	}
}

func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
