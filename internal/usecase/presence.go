package usecase

import (
	"sync"

	"github.com/mmuslimabdulj/meet-signal/internal/domain"
)

// PresenceRegistry maps each online identity to its current connection and
// keeps the online list in first-join order.
//
// Every method is atomic on its own. Sequences that must observe a consistent
// view across calls (resolve-then-mutate) are serialized by the caller.
type PresenceRegistry struct {
	mu         sync.RWMutex
	entries    []*domain.PresenceEntry // first-join order
	byIdentity map[domain.Identity]*domain.PresenceEntry
	byConn     map[domain.ConnID]domain.Identity
}

// NewPresenceRegistry creates an empty registry
func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		entries:    make([]*domain.PresenceEntry, 0),
		byIdentity: make(map[domain.Identity]*domain.PresenceEntry),
		byConn:     make(map[domain.ConnID]domain.Identity),
	}
}

// Join registers identity on conn. An existing entry is updated in place (page
// reload, second tab) and keeps its position in the online list. The
// superseded connection is returned, or "" when there was none.
func (r *PresenceRegistry) Join(id domain.Identity, displayName string, conn domain.ConnID) domain.ConnID {
	r.mu.Lock()
	defer r.mu.Unlock()

	// A connection speaks for one identity only.
	if prev, ok := r.byConn[conn]; ok && prev != id {
		r.removeLocked(prev)
	}

	if entry, ok := r.byIdentity[id]; ok {
		superseded := entry.Conn
		if superseded != conn {
			delete(r.byConn, superseded)
		} else {
			superseded = ""
		}
		entry.Conn = conn
		entry.DisplayName = displayName
		r.byConn[conn] = id
		return superseded
	}

	entry := &domain.PresenceEntry{
		Identity:    id,
		DisplayName: displayName,
		Conn:        conn,
	}
	r.entries = append(r.entries, entry)
	r.byIdentity[id] = entry
	r.byConn[conn] = id
	return ""
}

// Resolve returns the current connection of identity
func (r *PresenceRegistry) Resolve(id domain.Identity) (domain.ConnID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byIdentity[id]
	if !ok {
		return "", false
	}
	return entry.Conn, true
}

// IdentityOf returns the identity whose current connection is conn
func (r *PresenceRegistry) IdentityOf(conn domain.ConnID) (domain.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byConn[conn]
	return id, ok
}

// Lookup returns a copy of the entry for identity
func (r *PresenceRegistry) Lookup(id domain.Identity) (domain.PresenceEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byIdentity[id]
	if !ok {
		return domain.PresenceEntry{}, false
	}
	return *entry, true
}

// Leave removes the entry whose current connection is conn. A superseded
// connection matches nothing and leaves the registry untouched.
func (r *PresenceRegistry) Leave(conn domain.ConnID) (domain.Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byConn[conn]
	if !ok {
		return "", false
	}
	r.removeLocked(id)
	return id, true
}

// removeLocked drops identity from every index. Caller must hold the write lock.
func (r *PresenceRegistry) removeLocked(id domain.Identity) {
	entry, ok := r.byIdentity[id]
	if !ok {
		return
	}
	delete(r.byIdentity, id)
	delete(r.byConn, entry.Conn)
	for i, e := range r.entries {
		if e == entry {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			break
		}
	}
}

// Snapshot returns the online list in first-join order
func (r *PresenceRegistry) Snapshot() []domain.OnlineUser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.OnlineUser, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, domain.OnlineUser{UserID: e.Identity, Name: e.DisplayName})
	}
	return out
}

// Len returns the number of identities online
func (r *PresenceRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
