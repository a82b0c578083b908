package ws

import (
	"github.com/rs/zerolog/log"

	"github.com/mmuslimabdulj/meet-signal/internal/domain"
	"github.com/mmuslimabdulj/meet-signal/internal/usecase"
)

const (
	msgCalleeOffline = "User is offline."
	msgCalleeBusy    = "User is currently in another call."
	reasonReplaced   = "replaced"
)

// PlaceCall delivers a call invite from c to the callee. Nothing is stored
// until the callee answers.
func (h *Hub) PlaceCall(c *Client, p domain.CallInvitePayload) domain.CallOutcome {
	var out outbox
	h.mu.Lock()
	callee := h.resolveTargetLocked(string(p.To))
	if callee == c {
		h.mu.Unlock()
		malformed(c, domain.EventCallInvite, "caller cannot call itself")
		return domain.CallDropped
	}

	callerID := h.senderLocked(c)
	meta := h.callerMetaLocked(callerID, p.CallerMeta)

	// The target may be a connection ID; rows are keyed by identity
	var calleeID domain.Identity
	if callee != nil {
		calleeID = h.senderLocked(callee)
	}

	outcome := domain.CallDelivered
	switch {
	case callee == nil:
		outcome = domain.CallCalleeOffline
		out.add(c, h.buildMessage(domain.EventCallUnavailable, "", p.To, domain.NoticePayload{
			UserID:  p.To,
			Message: msgCalleeOffline,
		}))

	case calleeID != "" && h.calls.Busy(calleeID):
		outcome = domain.CallCalleeBusy
		out.add(c, h.buildMessage(domain.EventCallBusy, "", p.To, domain.NoticePayload{
			UserID:  p.To,
			Message: msgCalleeBusy,
		}))
		// Best effort: the ongoing call learns someone tried to reach the callee
		s, _ := h.calls.Active(calleeID)
		if peer := h.peerClientLocked(s); peer != nil && peer != c {
			out.add(peer, h.buildMessage(domain.EventCallWhileBusy, c.ID, callerID, domain.CallWhileBusyPayload{
				Callee:     calleeID,
				CallerMeta: meta,
			}))
		}

	default:
		out.add(callee, h.buildMessage(domain.EventCallInvite, c.ID, callerID, domain.IncomingCallPayload{
			Signal:     p.Signal,
			CallerMeta: meta,
		}))
	}
	h.mu.Unlock()

	h.flush(out)
	log.Info().Str("module", "ws.call").Str("caller", string(callerID)).Str("callee", string(p.To)).Str("outcome", outcome.String()).Msg("call placed")
	return outcome
}

// callerMetaLocked fills missing caller fields from the caller's presence entry
// NOTE: Caller must hold at least RLock
func (h *Hub) callerMetaLocked(callerID domain.Identity, meta domain.CallerMeta) domain.CallerMeta {
	if callerID == "" {
		return meta
	}
	if meta.UserID == "" {
		meta.UserID = callerID
	}
	if meta.Name == "" {
		if entry, ok := h.presence.Lookup(callerID); ok {
			meta.Name = entry.DisplayName
		}
	}
	return meta
}

// AnswerCall forwards the answer to the caller and records the call on both
// sides. Either side's leftover call with someone else is ended first.
func (h *Hub) AnswerCall(c *Client, p domain.CallAnswerPayload) {
	var out outbox
	h.mu.Lock()
	answererID := h.senderLocked(c)
	if answererID != "" && answererID == p.To {
		h.mu.Unlock()
		malformed(c, domain.EventCallAnswer, "caller cannot answer itself")
		return
	}

	caller := h.resolveTargetLocked(string(p.To))
	if caller == c {
		h.mu.Unlock()
		malformed(c, domain.EventCallAnswer, "caller cannot answer itself")
		return
	}
	if caller == nil {
		out.add(c, h.buildMessage(domain.EventCallUnavailable, "", p.To, domain.NoticePayload{
			UserID:  p.To,
			Message: msgCalleeOffline,
		}))
		h.mu.Unlock()
		h.flush(out)
		log.Info().Str("module", "ws.call").Str("caller", string(p.To)).Msg("answer for unreachable caller")
		return
	}

	out.add(caller, h.buildMessage(domain.EventCallAccepted, c.ID, answererID, domain.CallAcceptedPayload{
		Signal: p.Signal,
		UserID: answererID,
	}))

	callerID, joined := h.presence.IdentityOf(caller.ID)
	var torn []usecase.Teardown
	if joined && answererID != "" {
		torn = h.calls.Connect(callerID, caller.ID, answererID, c.ID)
		for _, t := range torn {
			if other := h.peerClientLocked(t.Session); other != nil {
				out.add(other, h.buildMessage(domain.EventCallEnded, "", t.Party, domain.CallEndedPayload{
					UserID: t.Party,
					Reason: reasonReplaced,
				}))
			}
		}
	}
	h.mu.Unlock()

	h.flush(out)
	log.Info().Str("module", "ws.call").Str("caller", string(callerID)).Str("answerer", string(answererID)).Int("replaced", len(torn)).Msg("call answered")
}

// RejectCall forwards a rejection to the caller. No state exists yet.
func (h *Hub) RejectCall(c *Client, p domain.CallRejectPayload) {
	var out outbox
	h.mu.RLock()
	rejecterID := h.senderLocked(c)
	if caller := h.resolveTargetLocked(string(p.To)); caller != nil {
		out.add(caller, h.buildMessage(domain.EventCallRejected, c.ID, rejecterID, domain.CallRejectedPayload{
			UserID:     rejecterID,
			Name:       p.Name,
			ProfilePic: p.ProfilePic,
		}))
	} else {
		out.add(c, h.buildMessage(domain.EventCallUnavailable, "", p.To, domain.NoticePayload{
			UserID:  p.To,
			Message: msgCalleeOffline,
		}))
	}
	h.mu.RUnlock()

	h.flush(out)
	log.Info().Str("module", "ws.call").Str("rejecter", string(rejecterID)).Str("caller", string(p.To)).Msg("call rejected")
}

// EndCall tells the peer the call is over and removes both rows. When c never
// joined, only a row whose stored handle is c is removed.
func (h *Hub) EndCall(c *Client, p domain.CallEndPayload) {
	var out outbox
	h.mu.Lock()
	enderID := h.senderLocked(c)

	var peer *Client
	if s, ok := h.calls.Active(enderID); enderID != "" && ok && s.Peer == p.To {
		peer = h.peerClientLocked(s)
	}
	if peer == nil {
		peer = h.resolveTargetLocked(string(p.To))
	}

	// Rows are keyed by identity; a target given as connection ID is mapped back
	peerID := p.To
	if _, ok := h.presence.Resolve(p.To); !ok && peer != nil {
		if id, ok := h.presence.IdentityOf(peer.ID); ok {
			peerID = id
		}
	}

	var ended bool
	if enderID != "" {
		ended = h.calls.End(enderID, peerID)
	} else {
		ended = h.calls.EndWithConn(peerID, c.ID)
	}

	if peer != nil && peer != c {
		out.add(peer, h.buildMessage(domain.EventCallEnded, c.ID, enderID, domain.CallEndedPayload{
			UserID: enderID,
			Name:   p.Name,
		}))
	} else if peer == nil {
		out.add(c, h.buildMessage(domain.EventCallUnavailable, "", p.To, domain.NoticePayload{
			UserID:  p.To,
			Message: msgCalleeOffline,
		}))
	}
	h.mu.Unlock()

	h.flush(out)
	log.Info().Str("module", "ws.call").Str("ender", string(enderID)).Str("peer", string(peerID)).Bool("removed", ended).Msg("call ended")
}
