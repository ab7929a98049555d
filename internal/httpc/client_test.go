package httpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := Fetch(context.Background(), srv.URL+"/state")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}

	if _, err := Fetch(context.Background(), srv.URL+"/missing"); err == nil {
		t.Error("Fetch() should fail on 404")
	}
}

func TestNewClient(t *testing.T) {
	c := NewClient(5)
	if c.Timeout != 5 {
		t.Errorf("Timeout = %v, want 5", c.Timeout)
	}
	if Client.Timeout != DefaultTimeout {
		t.Errorf("shared Timeout = %v, want %v", Client.Timeout, DefaultTimeout)
	}
}
