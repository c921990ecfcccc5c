package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newDiscoveryServer(t *testing.T, doc map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(doc)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewOIDCProvider(t *testing.T) {
	srv := newDiscoveryServer(t, map[string]any{
		"issuer":            "https://idp.example.com",
		"jwks_uri":          "https://idp.example.com/keys",
		"token_endpoint":    "https://idp.example.com/token",
		"userinfo_endpoint": "https://idp.example.com/userinfo",
	})

	p, err := NewOIDCProvider(srv.URL + "/") // trailing slash must not break the path
	if err != nil {
		t.Fatalf("NewOIDCProvider: %v", err)
	}
	if p.JWKSURI != "https://idp.example.com/keys" {
		t.Errorf("JWKSURI = %q", p.JWKSURI)
	}
	if p.TokenEndpoint != "https://idp.example.com/token" {
		t.Errorf("TokenEndpoint = %q", p.TokenEndpoint)
	}
}

func TestNewOIDCProvider_MissingJWKSURI(t *testing.T) {
	srv := newDiscoveryServer(t, map[string]any{
		"issuer":         "https://idp.example.com",
		"token_endpoint": "https://idp.example.com/token",
	})

	if _, err := NewOIDCProvider(srv.URL); err == nil {
		t.Fatal("expected error for a discovery document without jwks_uri")
	}
}

func TestNewOIDCProvider_UnreachableOrErroring(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer srv.Close()

	if _, err := NewOIDCProvider(srv.URL); err == nil {
		t.Fatal("expected error for a 404 discovery endpoint")
	}
	if _, err := NewOIDCProvider("http://127.0.0.1:1"); err == nil {
		t.Fatal("expected error for an unreachable issuer")
	}
}

func TestOIDCProvider_JWKSKeyFunc(t *testing.T) {
	jwks := newJWKSServer(t, jwkFor(testRSAKey(t), "kid-oidc"))
	srv := newDiscoveryServer(t, map[string]any{
		"issuer":   "https://idp.example.com",
		"jwks_uri": jwks.URL,
	})

	p, err := NewOIDCProvider(srv.URL)
	if err != nil {
		t.Fatalf("NewOIDCProvider: %v", err)
	}
	keyFunc := p.JWKSKeyFunc()
	if keyFunc == nil {
		t.Fatal("JWKSKeyFunc returned nil")
	}
}
