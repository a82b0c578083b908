package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/mmuslimabdulj/meet-signal/internal/directory"
	"github.com/mmuslimabdulj/meet-signal/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second // Relaxed to 60s for mobile stability

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10
)

// Client represents a single websocket connection
type Client struct {
	ID      domain.ConnID
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	limiter *rate.Limiter
}

// NewClient creates a new Client with a fresh connection ID
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:      domain.NewConnID(),
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, hub.sendBufferSize),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(hub.eventRate, hub.eventBurst),
	}
}

// ReadPump pumps events from the websocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Str("module", "ws.client").Str("conn", string(c.ID)).Err(err).Msg("unexpected close")
			}
			break
		}

		if !c.limiter.Allow() {
			log.Warn().Str("module", "ws.client").Str("conn", string(c.ID)).Msg("event rate exceeded, dropping event")
			continue
		}

		var env domain.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.Warn().Str("module", "ws.client").Str("conn", string(c.ID)).Err(err).Msg("dropping malformed frame")
			continue
		}

		if env.Type == domain.EventJoin {
			env = c.hub.completeJoin(env)
		}

		c.hub.Dispatch(c, env)
	}
}

// WritePump pumps messages from the hub to the websocket connection, one
// message per frame
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-c.done:
			// Hub let go of this client
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Send adds a message to the client's send queue. Messages for a closed client
// or a full queue are dropped.
func (c *Client) Send(msg []byte) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- msg:
	default:
		log.Warn().Str("module", "ws.client").Str("conn", string(c.ID)).Msg("send buffer full, dropping message")
	}
}

// close signals the write pump to shut the connection down
func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// completeJoin fills a missing display name from the user directory. It runs
// on the connection's read goroutine so the lookup never holds up the hub.
func (h *Hub) completeJoin(env domain.Envelope) domain.Envelope {
	if h.directory == nil || len(env.Payload) == 0 {
		return env
	}

	var p domain.JoinPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil || p.ID == "" || p.Name != "" {
		return env
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.lookupTimeout)
	defer cancel()

	profile, err := h.directory.Lookup(ctx, p.ID)
	if err != nil {
		ev := log.Warn()
		if errors.Is(err, directory.ErrNotFound) {
			ev = log.Debug()
		}
		ev.Str("module", "ws.client").Str("user_id", string(p.ID)).Err(err).Msg("directory lookup failed")
		return env
	}

	p.Name = profile.DisplayName()
	payload, err := json.Marshal(p)
	if err != nil {
		return env
	}
	env.Payload = payload
	return env
}
