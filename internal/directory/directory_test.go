package directory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmuslimabdulj/meet-signal/internal/domain"
)

func newUserService(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/user/u1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"user":{"_id":"u1","username":"alice","fullname":"Alice Doe","email":"alice@example.com","profilepic":"/a.png"}}`))
	})
	mux.HandleFunc("/api/user/u2", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"User not found"}`))
	})
	mux.HandleFunc("/api/user/broken", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})
	mux.HandleFunc("/api/user/down", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/api/user/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"success":true,"user":{"username":"slow"}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPDirectory_Lookup(t *testing.T) {
	srv := newUserService(t)
	d := NewHTTPDirectory(srv.URL, time.Second)

	p, err := d.Lookup(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if p.ID != "u1" || p.Username != "alice" || p.Email != "alice@example.com" {
		t.Errorf("Unexpected profile: %+v", p)
	}
	if p.DisplayName() != "Alice Doe" {
		t.Errorf("Expected full name as display name, got %s", p.DisplayName())
	}
}

func TestHTTPDirectory_NotFound(t *testing.T) {
	srv := newUserService(t)
	d := NewHTTPDirectory(srv.URL, time.Second)

	tests := []domain.Identity{"u2", "missing", ""}
	for _, id := range tests {
		if _, err := d.Lookup(context.Background(), id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Lookup(%q): expected ErrNotFound, got %v", id, err)
		}
	}
}

func TestHTTPDirectory_Errors(t *testing.T) {
	srv := newUserService(t)
	d := NewHTTPDirectory(srv.URL, time.Second)

	for _, id := range []domain.Identity{"broken", "down"} {
		_, err := d.Lookup(context.Background(), id)
		if err == nil || errors.Is(err, ErrNotFound) {
			t.Errorf("Lookup(%q): expected a service error, got %v", id, err)
		}
	}
}

func TestHTTPDirectory_Timeout(t *testing.T) {
	srv := newUserService(t)
	d := NewHTTPDirectory(srv.URL, 50*time.Millisecond)

	if _, err := d.Lookup(context.Background(), "slow"); err == nil {
		t.Error("Expected timeout error")
	}
}

func TestStatic_Lookup(t *testing.T) {
	d := Static{
		"u1": {ID: "u1", Username: "alice"},
	}

	p, err := d.Lookup(context.Background(), "u1")
	if err != nil || p.DisplayName() != "alice" {
		t.Errorf("Unexpected result: %+v, %v", p, err)
	}
	if _, err := d.Lookup(context.Background(), "u2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
