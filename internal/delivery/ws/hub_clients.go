package ws

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/mmuslimabdulj/meet-signal/internal/directory"
	"github.com/mmuslimabdulj/meet-signal/internal/domain"
)

// Register adds a client to the hub. A client registered after Stop is closed.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.quit:
		c.close()
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// Dispatch queues an inbound event for the run loop
func (h *Hub) Dispatch(c *Client, env domain.Envelope) {
	select {
	case h.inbound <- inboundEvent{client: c, env: env}:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// OnlineSnapshot returns the online list in first-join order
func (h *Hub) OnlineSnapshot() []domain.OnlineUser {
	return h.presence.Snapshot()
}

// ActiveCalls returns the number of calls in progress
func (h *Hub) ActiveCalls() int {
	return h.calls.Len() / 2
}

// SetDirectory sets the user directory consulted when a join carries no name
func (h *Hub) SetDirectory(d directory.Directory, timeout time.Duration) {
	h.directory = d
	if timeout > 0 {
		h.lookupTimeout = timeout
	}
}

// SetLimits overrides the per-connection limits. Non-positive values keep the defaults.
func (h *Hub) SetLimits(maxMessageSize, sendBufferSize int, eventRate rate.Limit, eventBurst int) {
	if maxMessageSize > 0 {
		h.maxMessageSize = int64(maxMessageSize)
	}
	if sendBufferSize > 0 {
		h.sendBufferSize = sendBufferSize
	}
	if eventRate > 0 {
		h.eventRate = eventRate
	}
	if eventBurst > 0 {
		h.eventBurst = eventBurst
	}
}
