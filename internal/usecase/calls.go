package usecase

import (
	"sync"

	"github.com/mmuslimabdulj/meet-signal/internal/domain"
)

// Teardown reports a session that was ended to make room for a new one:
// Party's call with Session.Peer no longer exists.
type Teardown struct {
	Party   domain.Identity
	Session domain.CallSession
}

// CallTable holds one CallSession per identity in an active call. Rows are
// written and removed in symmetric pairs; the ringing phase is never stored.
type CallTable struct {
	mu       sync.RWMutex
	sessions map[domain.Identity]domain.CallSession
}

// NewCallTable creates an empty call table
func NewCallTable() *CallTable {
	return &CallTable{
		sessions: make(map[domain.Identity]domain.CallSession),
	}
}

// Active returns the session identity is in
func (t *CallTable) Active(id domain.Identity) (domain.CallSession, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[id]
	return s, ok
}

// Busy reports whether identity is in a call
func (t *CallTable) Busy(id domain.Identity) bool {
	_, ok := t.Active(id)
	return ok
}

// Connect records that a and b are in a call with each other. aConn and bConn
// are the handles known at answer time. Any call either side still held with a
// third party is torn down first and returned.
func (t *CallTable) Connect(a domain.Identity, aConn domain.ConnID, b domain.Identity, bConn domain.ConnID) []Teardown {
	t.mu.Lock()
	defer t.mu.Unlock()

	var torn []Teardown
	for _, id := range []domain.Identity{a, b} {
		s, ok := t.sessions[id]
		if !ok || s.Peer == a || s.Peer == b {
			continue
		}
		t.unlinkLocked(id, s.Peer)
		torn = append(torn, Teardown{Party: id, Session: s})
	}

	t.sessions[a] = domain.CallSession{Peer: b, PeerConn: bConn}
	t.sessions[b] = domain.CallSession{Peer: a, PeerConn: aConn}
	return torn
}

// End removes the pair a<->b. Rows that point elsewhere are left alone.
// Reports whether anything was removed.
func (t *CallTable) End(a, b domain.Identity) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.unlinkLocked(a, b)
}

// EndWithConn ends peer's call with whoever is on conn. Used when the ending
// side has no registered identity: the row is matched by the stored handle.
func (t *CallTable) EndWithConn(peer domain.Identity, conn domain.ConnID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[peer]
	if !ok || s.PeerConn != conn {
		return false
	}
	return t.unlinkLocked(peer, s.Peer)
}

// Drop removes identity's row and every row pointing at identity. The former
// peers are returned once each, with the peer handle when it was recorded.
func (t *CallTable) Drop(id domain.Identity) []domain.CallSession {
	t.mu.Lock()
	defer t.mu.Unlock()

	var peers []domain.CallSession
	seen := make(map[domain.Identity]bool)

	if s, ok := t.sessions[id]; ok {
		delete(t.sessions, id)
		peers = append(peers, s)
		seen[s.Peer] = true
	}
	for other, s := range t.sessions {
		if s.Peer != id {
			continue
		}
		delete(t.sessions, other)
		if !seen[other] {
			peers = append(peers, domain.CallSession{Peer: other})
			seen[other] = true
		}
	}
	return peers
}

// unlinkLocked removes a->b and b->a where present. Caller must hold the write lock.
func (t *CallTable) unlinkLocked(a, b domain.Identity) bool {
	removed := false
	if s, ok := t.sessions[a]; ok && s.Peer == b {
		delete(t.sessions, a)
		removed = true
	}
	if s, ok := t.sessions[b]; ok && s.Peer == a {
		delete(t.sessions, b)
		removed = true
	}
	return removed
}

// Len returns the number of rows (two per active call)
func (t *CallTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}
