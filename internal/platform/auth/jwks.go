package auth

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// keySetTTL bounds how long verification keys are trusted before a
	// refetch.
	keySetTTL = 5 * time.Minute
	// minRefreshInterval throttles refetches triggered by unknown kids, so a
	// flood of garbage tokens cannot hammer the provider.
	minRefreshInterval = 30 * time.Second
)

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwkDocument struct {
	Keys []jwk `json:"keys"`
}

// KeySet holds the RSA verification keys published at a JWKS endpoint. Keys
// are refreshed when the TTL lapses and when a token presents a kid the set
// does not know, which covers provider key rotation without a restart.
type KeySet struct {
	url    string
	ttl    time.Duration
	client *http.Client

	mu          sync.Mutex
	keys        map[string]*rsa.PublicKey
	refreshedAt time.Time
}

// NewKeySet builds a KeySet over the given JWKS endpoint. A non-positive ttl
// falls back to the default.
func NewKeySet(jwksURL string, ttl time.Duration) *KeySet {
	if ttl <= 0 {
		ttl = keySetTTL
	}
	return &KeySet{
		url:    jwksURL,
		ttl:    ttl,
		keys:   map[string]*rsa.PublicKey{},
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Key returns the verification key for kid, refreshing the set if the kid is
// unknown or the cached keys have aged out.
func (s *KeySet) Key(kid string) (*rsa.PublicKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stale := time.Since(s.refreshedAt) >= s.ttl
	key, ok := s.keys[kid]
	if ok && !stale {
		return key, nil
	}

	if stale || len(s.keys) == 0 || time.Since(s.refreshedAt) >= minRefreshInterval {
		if err := s.refreshLocked(); err != nil {
			// A stale key beats an outage while the provider is unreachable.
			if ok {
				return key, nil
			}
			return nil, err
		}
	}

	key, ok = s.keys[kid]
	if !ok {
		return nil, fmt.Errorf("no key %q in JWKS", kid)
	}
	return key, nil
}

func (s *KeySet) refreshLocked() error {
	resp, err := s.client.Get(s.url)
	if err != nil {
		return fmt.Errorf("fetch JWKS %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned %d", resp.StatusCode)
	}

	var doc jwkDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decode JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := rsaKeyFromJWK(k)
		if err != nil {
			// One malformed key must not block the rest of the set.
			continue
		}
		keys[k.Kid] = pub
	}

	s.keys = keys
	s.refreshedAt = time.Now()
	return nil
}

func rsaKeyFromJWK(k jwk) (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(new(big.Int).SetBytes(e).Int64()),
	}, nil
}

// jwksKeyFunc adapts a KeySet to the jwt parser: the token's kid header
// selects the verification key.
func jwksKeyFunc(jwksURL string) jwt.Keyfunc {
	set := NewKeySet(jwksURL, keySetTTL)
	return func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, fmt.Errorf("token has no kid header")
		}
		return set.Key(kid)
	}
}
