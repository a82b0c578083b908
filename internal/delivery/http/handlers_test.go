package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mmuslimabdulj/meet-signal/internal/config"
	"github.com/mmuslimabdulj/meet-signal/internal/delivery/ws"
	"github.com/mmuslimabdulj/meet-signal/internal/domain"
)

func setupTestHandler(t *testing.T) (*Handler, *ws.Hub) {
	t.Helper()
	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	cfg := config.DefaultConfig()
	h := NewHandler(hub, cfg)
	t.Cleanup(h.Close)
	return h, hub
}

// === SECURITY TESTS ===

func TestIsOriginAllowed(t *testing.T) {
	h, _ := setupTestHandler(t)

	tests := []struct {
		origin   string
		expected bool
	}{
		{"http://localhost:8080", true},
		{"http://localhost:3000", true},
		{"", true}, // Empty origin allowed (same-origin)
		{"http://evil.com", false},
		{"https://attacker.com", false},
	}

	for _, tc := range tests {
		result := h.isOriginAllowed(tc.origin)
		if result != tc.expected {
			t.Errorf("isOriginAllowed(%s) = %v, expected %v", tc.origin, result, tc.expected)
		}
	}
}

func TestRouter_SecurityHeaders(t *testing.T) {
	h, _ := setupTestHandler(t)
	router := h.NewRouter()

	req := httptest.NewRequest("GET", "/ok", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("Expected security headers on every route")
	}
}

func TestRouter_ForeignOriginNotGranted(t *testing.T) {
	h, _ := setupTestHandler(t)
	router := h.NewRouter()

	req := httptest.NewRequest("GET", "/api/online", nil)
	req.Header.Set("Origin", "http://evil.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Foreign origin must not be granted CORS access, got %q", got)
	}

	req = httptest.NewRequest("GET", "/api/online", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Listed origin should be granted, got %q", got)
	}
}

// === ROUTES ===

func TestHandleHealth(t *testing.T) {
	h, _ := setupTestHandler(t)
	router := h.NewRouter()

	req := httptest.NewRequest("GET", "/ok", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %s", ct)
	}

	var res map[string]string
	json.NewDecoder(w.Body).Decode(&res)
	if res["message"] != "Server is running!" {
		t.Errorf("Unexpected body: %v", res)
	}
}

func TestHandleOnline_Empty(t *testing.T) {
	h, _ := setupTestHandler(t)
	router := h.NewRouter()

	req := httptest.NewRequest("GET", "/api/online", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var res OnlineResponse
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Count != 0 || len(res.Users) != 0 || res.ActiveCalls != 0 {
		t.Errorf("Expected empty response, got %+v", res)
	}
	if !strings.Contains(w.Body.String(), `"users":[]`) {
		t.Errorf("Expected users to encode as an empty list, got %s", w.Body.String())
	}
}

func TestHandleOnline_InvalidMethod(t *testing.T) {
	h, _ := setupTestHandler(t)
	router := h.NewRouter()

	req := httptest.NewRequest("POST", "/api/online", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", w.Code)
	}
}

func TestHandleOnline_RateLimited(t *testing.T) {
	h, _ := setupTestHandler(t)
	router := h.NewRouter()

	limited := false
	for i := 0; i < 100; i++ {
		req := httptest.NewRequest("GET", "/api/online", nil)
		req.RemoteAddr = "10.1.1.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("Expected the API limiter to kick in")
	}
}

func TestHandleWebSocket_NotUpgrade(t *testing.T) {
	h, _ := setupTestHandler(t)
	router := h.NewRouter()

	req := httptest.NewRequest("GET", "/ws", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for plain GET, got %d", w.Code)
	}
}

func TestHandleWebSocket_JoinShowsOnline(t *testing.T) {
	h, hub := setupTestHandler(t)
	srv := httptest.NewServer(h.NewRouter())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	payload, _ := json.Marshal(domain.JoinPayload{ID: "u1", Name: "Alice"})
	frame, _ := json.Marshal(domain.Envelope{Type: domain.EventJoin, Payload: payload})
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(hub.OnlineSnapshot()) != 1 {
		if time.Now().After(deadline) {
			t.Fatal("u1 never came online")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Get(srv.URL + "/api/online")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var res OnlineResponse
	json.NewDecoder(resp.Body).Decode(&res)
	if res.Count != 1 || res.Users[0].UserID != "u1" || res.Users[0].Name != "Alice" {
		t.Errorf("Unexpected online list: %+v", res)
	}
}

func TestHandleWebSocket_ForeignOriginRefused(t *testing.T) {
	h, _ := setupTestHandler(t)
	srv := httptest.NewServer(h.NewRouter())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{}
	header.Set("Origin", "http://evil.com")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("Expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403, got %v", resp)
	}
}
