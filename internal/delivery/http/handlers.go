package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mmuslimabdulj/meet-signal/internal/config"
	"github.com/mmuslimabdulj/meet-signal/internal/delivery/ws"
	"github.com/mmuslimabdulj/meet-signal/internal/domain"
	"github.com/mmuslimabdulj/meet-signal/internal/middleware"
)

// OnlineResponse is the body of GET /api/online
type OnlineResponse struct {
	Users       []domain.OnlineUser `json:"users"`
	Count       int                 `json:"count"`
	ActiveCalls int                 `json:"active_calls"`
}

type Handler struct {
	hub        *ws.Hub
	cfg        *config.Config
	upgrader   websocket.Upgrader
	apiLimiter *middleware.IPRateLimiter
	wsLimiter  *middleware.IPRateLimiter
}

func NewHandler(hub *ws.Hub, cfg *config.Config) *Handler {
	h := &Handler{
		hub:        hub,
		cfg:        cfg,
		apiLimiter: middleware.NewIPRateLimiter(cfg.RateLimitAPI, int(cfg.RateLimitAPI)*2),
		wsLimiter:  middleware.NewIPRateLimiter(cfg.RateLimitWS, int(cfg.RateLimitWS)*2),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return h.isOriginAllowed(r.Header.Get("Origin"))
		},
	}
	return h
}

// isOriginAllowed checks if the origin is in the allowed list
func (h *Handler) isOriginAllowed(origin string) bool {
	return middleware.OriginAllowed(origin, h.cfg.AllowedOrigins)
}

// NewRouter wires the HTTP surface: health, online list and the websocket endpoint
func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(h.cfg.AllowedOrigins))

	r.Get("/ok", h.HandleHealth)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitMiddleware(h.apiLimiter))
		r.Get("/api/online", h.HandleOnline)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitMiddleware(h.wsLimiter))
		r.Get("/ws", h.HandleWebSocket)
	})

	return r
}

// Close releases the rate limiters' background workers
func (h *Handler) Close() {
	h.apiLimiter.Stop()
	h.wsLimiter.Stop()
}

// HandleHealth reports that the process is up
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Server is running!",
	})
}

// HandleOnline returns the current online list
func (h *Handler) HandleOnline(w http.ResponseWriter, r *http.Request) {
	users := h.hub.OnlineSnapshot()
	writeJSON(w, http.StatusOK, OnlineResponse{
		Users:       users,
		Count:       len(users),
		ActiveCalls: h.hub.ActiveCalls(),
	})
}

// HandleWebSocket upgrades HTTP to WebSocket and hands the connection to the hub
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		log.Warn().Str("module", "http").Str("request_id", chimw.GetReqID(r.Context())).Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register(client)

	log.Debug().Str("module", "http").Str("conn", string(client.ID)).Str("remote", r.RemoteAddr).Msg("websocket connected")

	// Start read/write pumps in goroutines
	go client.WritePump()
	go client.ReadPump()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Str("module", "http").Err(err).Msg("failed to encode response")
	}
}
