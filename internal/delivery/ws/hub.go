package ws

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/mmuslimabdulj/meet-signal/internal/directory"
	"github.com/mmuslimabdulj/meet-signal/internal/domain"
	"github.com/mmuslimabdulj/meet-signal/internal/usecase"
)

// inboundEvent is one decoded frame waiting for the run loop
type inboundEvent struct {
	client *Client
	env    domain.Envelope
}

// Hub owns every live connection together with the presence and call tables.
// All state changes happen in Run, one event at a time; frames produced by an
// event are queued to the recipients' send buffers after the lock is released.
type Hub struct {
	mu      sync.RWMutex
	clients map[domain.ConnID]*Client

	presence *usecase.PresenceRegistry
	calls    *usecase.CallTable

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundEvent
	quit       chan struct{}
	stopOnce   sync.Once

	directory     directory.Directory
	lookupTimeout time.Duration

	maxMessageSize int64
	sendBufferSize int
	eventRate      rate.Limit
	eventBurst     int
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:        make(map[domain.ConnID]*Client),
		presence:       usecase.NewPresenceRegistry(),
		calls:          usecase.NewCallTable(),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		inbound:        make(chan inboundEvent, 256),
		quit:           make(chan struct{}),
		lookupTimeout:  domain.DirectoryTimeout,
		maxMessageSize: domain.MaxMessageSize,
		sendBufferSize: domain.SendBufferSize,
		eventRate:      domain.DefaultEventRate,
		eventBurst:     domain.DefaultEventBurst,
	}
}

// Run starts the hub's main event loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.closeAll()
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.HandleDisconnect(client)

		case ev := <-h.inbound:
			h.dispatch(ev.client, ev.env)
		}
	}
}

// Stop ends the run loop and closes every connection
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
	log.Info().Str("module", "ws.hub").Msg("hub stopped")
}

// addClient tracks a fresh connection and greets it with its own ID
func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	count := len(h.clients)
	h.mu.Unlock()

	c.Send(h.buildMessage(domain.EventMe, "", "", domain.MePayload{ID: c.ID}))
	log.Debug().Str("module", "ws.hub").Str("conn", string(c.ID)).Int("clients", count).Msg("client registered")
}

// dispatch routes one inbound event to its handler. Events still queued when
// their connection was already unregistered are discarded.
func (h *Hub) dispatch(c *Client, env domain.Envelope) {
	h.mu.RLock()
	_, live := h.clients[c.ID]
	h.mu.RUnlock()
	if !live {
		log.Debug().Str("module", "ws.hub").Str("conn", string(c.ID)).Str("event", string(env.Type)).Msg("event from closed connection ignored")
		return
	}

	switch env.Type {
	case domain.EventJoin:
		var p domain.JoinPayload
		if !decodePayload(c, env, &p) {
			return
		}
		h.Join(c, p)

	case domain.EventCallInvite:
		var p domain.CallInvitePayload
		if !decodePayload(c, env, &p) {
			return
		}
		if !trimTarget(&p.To) {
			malformed(c, env.Type, "missing call target")
			return
		}
		h.PlaceCall(c, p)

	case domain.EventCallAnswer:
		var p domain.CallAnswerPayload
		if !decodePayload(c, env, &p) {
			return
		}
		if !trimTarget(&p.To) {
			malformed(c, env.Type, "missing call target")
			return
		}
		h.AnswerCall(c, p)

	case domain.EventCallReject:
		var p domain.CallRejectPayload
		if !decodePayload(c, env, &p) {
			return
		}
		if !trimTarget(&p.To) {
			malformed(c, env.Type, "missing call target")
			return
		}
		h.RejectCall(c, p)

	case domain.EventCallEnd:
		var p domain.CallEndPayload
		if !decodePayload(c, env, &p) {
			return
		}
		if !trimTarget(&p.To) {
			malformed(c, env.Type, "missing call target")
			return
		}
		h.EndCall(c, p)

	default:
		if _, ok := domain.RelayedEvents[env.Type]; ok {
			h.RelayMediaEvent(c, env.Type, env.Payload)
			return
		}
		malformed(c, env.Type, "unknown event type")
	}
}

// trimTarget normalizes a call routing field in place and reports whether it is usable
func trimTarget(to *domain.Identity) bool {
	*to = domain.Identity(strings.TrimSpace(string(*to)))
	return isValidTarget(string(*to))
}

// decodePayload unmarshals the envelope payload, logging malformed input
func decodePayload(c *Client, env domain.Envelope, v interface{}) bool {
	if len(env.Payload) == 0 {
		malformed(c, env.Type, "empty payload")
		return false
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		log.Warn().Str("module", "ws.hub").Str("conn", string(c.ID)).Str("event", string(env.Type)).Err(err).Msg("dropping malformed event")
		return false
	}
	return true
}

func malformed(c *Client, event domain.EventType, reason string) {
	log.Warn().Str("module", "ws.hub").Str("conn", string(c.ID)).Str("event", string(event)).Msg("dropping malformed event: " + reason)
}

// outbox collects frames produced while the state lock is held
type outbox []delivery

type delivery struct {
	to   *Client
	data []byte
}

func (o *outbox) add(to *Client, data []byte) {
	if to == nil || data == nil {
		return
	}
	*o = append(*o, delivery{to: to, data: data})
}

// flush hands every queued frame to its recipient's write pump
func (h *Hub) flush(o outbox) {
	for _, d := range o {
		d.to.Send(d.data)
	}
}

// buildMessage creates an outbound frame as JSON bytes
func (h *Hub) buildMessage(eventType domain.EventType, from domain.ConnID, userID domain.Identity, payload interface{}) []byte {
	var raw json.RawMessage
	switch p := payload.(type) {
	case json.RawMessage:
		raw = p
	default:
		b, err := json.Marshal(p)
		if err != nil {
			log.Error().Str("module", "ws.hub").Str("event", string(eventType)).Err(err).Msg("failed to encode payload")
			return nil
		}
		raw = b
	}

	msg := domain.Message{
		ID:        uuid.New().String(),
		Type:      eventType,
		From:      from,
		UserID:    userID,
		Payload:   raw,
		CreatedAt: time.Now(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Str("module", "ws.hub").Str("event", string(eventType)).Err(err).Msg("failed to encode message")
		return nil
	}
	return data
}

// resolveTargetLocked finds the live client a routing field points at:
// an identity first, then a raw connection ID.
// NOTE: Caller must hold at least RLock
func (h *Hub) resolveTargetLocked(target string) *Client {
	if conn, ok := h.presence.Resolve(domain.Identity(target)); ok {
		if c, ok := h.clients[conn]; ok {
			return c
		}
	}
	return h.clients[domain.ConnID(target)]
}

// peerClientLocked finds the live client of a stored call peer. The identity is
// re-resolved first; the handle stored at answer time is the fallback.
// NOTE: Caller must hold at least RLock
func (h *Hub) peerClientLocked(s domain.CallSession) *Client {
	if conn, ok := h.presence.Resolve(s.Peer); ok {
		if c, ok := h.clients[conn]; ok {
			return c
		}
	}
	if s.PeerConn != "" {
		return h.clients[s.PeerConn]
	}
	return nil
}

// senderLocked returns the identity behind c, if it has joined
// NOTE: Caller must hold at least RLock
func (h *Hub) senderLocked(c *Client) domain.Identity {
	id, _ := h.presence.IdentityOf(c.ID)
	return id
}
