package ws

import (
	"github.com/rs/zerolog/log"

	"github.com/mmuslimabdulj/meet-signal/internal/domain"
)

// Join registers the identity declared on c and broadcasts the online list.
// Joining again from another connection moves the identity to c; joining as a
// different identity on the same connection first departs the old one.
func (h *Hub) Join(c *Client, p domain.JoinPayload) {
	id := domain.Identity(sanitizeIdentity(string(p.ID)))
	if id == "" {
		malformed(c, domain.EventJoin, "missing identity")
		return
	}
	name := sanitizeDisplayName(p.Name, string(id))

	var out outbox
	h.mu.Lock()
	if _, live := h.clients[c.ID]; !live {
		h.mu.Unlock()
		return
	}
	if prev, ok := h.presence.IdentityOf(c.ID); ok && prev != id {
		h.departLocked(prev, c.ID, &out)
	}
	superseded := h.presence.Join(id, name, c.ID)
	h.broadcastOnlineLocked(&out)
	h.mu.Unlock()

	h.flush(out)

	ev := log.Info().Str("module", "ws.hub").Str("user_id", string(id)).Str("conn", string(c.ID))
	if superseded != "" {
		ev = ev.Str("superseded", string(superseded))
	}
	ev.Msg("user joined")
}

// HandleDisconnect forgets c. When c was the current connection of its
// identity, the identity's calls are dropped, the former peers are told and
// everyone gets the new online list. A superseded connection changes nothing.
func (h *Hub) HandleDisconnect(c *Client) {
	var out outbox
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; !ok {
		// Already unregistered
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.ID)
	c.close()

	id, current := h.presence.IdentityOf(c.ID)
	if current {
		h.departLocked(id, c.ID, &out)
		h.broadcastOnlineLocked(&out)
	}
	h.mu.Unlock()

	h.flush(out)

	if current {
		log.Info().Str("module", "ws.hub").Str("user_id", string(id)).Str("conn", string(c.ID)).Msg("user left")
	} else {
		log.Debug().Str("module", "ws.hub").Str("conn", string(c.ID)).Msg("connection closed without presence change")
	}
}

// departLocked takes identity id, currently on conn, offline: its call rows
// are removed, each former peer gets peer-disconnected and every other
// connection gets user-disconnected.
// NOTE: Caller must hold Lock
func (h *Hub) departLocked(id domain.Identity, conn domain.ConnID, out *outbox) {
	notice := domain.PresenceNoticePayload{UserID: id}

	for _, s := range h.calls.Drop(id) {
		if peer := h.peerClientLocked(s); peer != nil && peer.ID != conn {
			out.add(peer, h.buildMessage(domain.EventPeerDisconnected, conn, id, notice))
		}
		log.Debug().Str("module", "ws.hub").Str("user_id", string(id)).Str("peer", string(s.Peer)).Msg("call dropped on departure")
	}

	h.presence.Leave(conn)

	data := h.buildMessage(domain.EventUserDisconnected, conn, id, notice)
	for _, other := range h.clients {
		if other.ID != conn {
			out.add(other, data)
		}
	}
}

// broadcastOnlineLocked queues the full online list for every connection
// NOTE: Caller must hold at least RLock
func (h *Hub) broadcastOnlineLocked(out *outbox) {
	users := h.presence.Snapshot()
	data := h.buildMessage(domain.EventOnlineUsers, "", "", domain.OnlineUsersPayload{
		Users: users,
		Count: len(users),
	})
	for _, c := range h.clients {
		out.add(c, data)
	}
}
