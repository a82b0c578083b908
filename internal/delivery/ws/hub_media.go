package ws

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mmuslimabdulj/meet-signal/internal/domain"
)

const msgRecipientOffline = "Recipient is not connected."

// RelayMediaEvent forwards a chat, media sync or screen share event to its
// target, untouched apart from the sender stamp. The target is an identity or
// a connection ID. Reports whether the event was delivered.
func (h *Hub) RelayMediaEvent(c *Client, kind domain.EventType, payload json.RawMessage) bool {
	outType, ok := domain.RelayedEvents[kind]
	if !ok {
		malformed(c, kind, "not a relay event")
		return false
	}

	var routed domain.RoutedPayload
	if len(payload) == 0 {
		malformed(c, kind, "empty payload")
		return false
	}
	if err := json.Unmarshal(payload, &routed); err != nil {
		log.Warn().Str("module", "ws.relay").Str("conn", string(c.ID)).Str("event", string(kind)).Err(err).Msg("dropping malformed event")
		return false
	}
	to := strings.TrimSpace(routed.To)
	if !isValidTarget(to) {
		malformed(c, kind, "missing relay target")
		return false
	}

	var out outbox
	h.mu.RLock()
	senderID := h.senderLocked(c)
	target := h.resolveTargetLocked(to)
	if target != nil {
		out.add(target, h.buildMessage(outType, c.ID, senderID, payload))
	} else {
		out.add(c, h.buildMessage(domain.EventDeliveryFailed, "", "", domain.DeliveryFailedPayload{
			Type:    kind,
			To:      to,
			Message: msgRecipientOffline,
		}))
	}
	h.mu.RUnlock()

	h.flush(out)
	log.Debug().Str("module", "ws.relay").Str("event", string(kind)).Str("from", string(c.ID)).Str("to", to).Bool("delivered", target != nil).Msg("relayed")
	return target != nil
}
