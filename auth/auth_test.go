package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTokenServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"token123","token_type":"bearer","expires_in":3600}`))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestTokenCached(t *testing.T) {
	server, hits := newTokenServer(t)
	client := NewClientCred(Conf{ClientID: "id", ClientSecret: "secret", TokenURL: server.URL})

	tok, err := client.Token(context.Background())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if tok != "token123" {
		t.Fatalf("unexpected token %s", tok)
	}
	if _, err := client.Token(context.Background()); err != nil {
		t.Fatalf("second token: %v", err)
	}
	if *hits != 1 {
		t.Fatalf("expected one token request, got %d", *hits)
	}
}

func TestSetAuthHeader(t *testing.T) {
	server, _ := newTokenServer(t)
	client := NewClientCred(Conf{ClientID: "id", ClientSecret: "secret", TokenURL: server.URL})

	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	if err := client.SetAuthHeader(req); err != nil {
		t.Fatalf("set auth header: %v", err)
	}
	if auth := req.Header.Get("Authorization"); auth != "Bearer token123" {
		t.Fatalf("unexpected Authorization header %q", auth)
	}
}

func TestEnabled(t *testing.T) {
	if (Conf{}).Enabled() {
		t.Fatal("empty conf should be disabled")
	}
	if !(Conf{TokenURL: "http://localhost/token"}).Enabled() {
		t.Fatal("conf with token url should be enabled")
	}
}
