package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/telecare/telecare/internal/platform/auth"
)

func rateLimitedRequest(t *testing.T, mw echo.MiddlewareFunc, ip, userID string) (int, http.Header) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/lab-orders", nil)
	req.Header.Set("X-Real-Ip", ip)
	if userID != "" {
		req = req.WithContext(context.WithValue(req.Context(), auth.UserIDKey, userID))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})(c)

	if err != nil {
		httpErr, ok := err.(*echo.HTTPError)
		if !ok {
			t.Fatalf("err = %T (%v), want *echo.HTTPError", err, err)
		}
		return httpErr.Code, rec.Header()
	}
	return rec.Code, rec.Header()
}

func TestRateLimit_AllowsWithinBurst(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 3})

	for i := 0; i < 3; i++ {
		code, hdr := rateLimitedRequest(t, mw, "10.0.0.1", "")
		if code != http.StatusOK {
			t.Fatalf("request %d: code = %d, want 200", i, code)
		}
		if hdr.Get("X-RateLimit-Limit") == "" {
			t.Error("expected X-RateLimit-Limit header on allowed requests")
		}
	}
}

func TestRateLimit_RejectsPastBurst(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 2})

	rateLimitedRequest(t, mw, "10.0.0.2", "")
	rateLimitedRequest(t, mw, "10.0.0.2", "")
	code, hdr := rateLimitedRequest(t, mw, "10.0.0.2", "")

	if code != http.StatusTooManyRequests {
		t.Fatalf("code = %d, want 429", code)
	}
	if hdr.Get("Retry-After") == "" {
		t.Error("expected Retry-After header on 429")
	}
	if hdr.Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", hdr.Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimit_KeysAreIsolatedByIP(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 1})

	if code, _ := rateLimitedRequest(t, mw, "10.0.0.3", ""); code != http.StatusOK {
		t.Fatalf("first client: code = %d, want 200", code)
	}
	if code, _ := rateLimitedRequest(t, mw, "10.0.0.3", ""); code != http.StatusTooManyRequests {
		t.Fatalf("first client second request: code = %d, want 429", code)
	}
	if code, _ := rateLimitedRequest(t, mw, "10.0.0.4", ""); code != http.StatusOK {
		t.Errorf("different IP: code = %d, want 200", code)
	}
}

func TestRateLimit_KeysAreIsolatedByUser(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 1})

	if code, _ := rateLimitedRequest(t, mw, "10.0.0.5", "doctor-1"); code != http.StatusOK {
		t.Fatalf("doctor-1: code = %d, want 200", code)
	}
	if code, _ := rateLimitedRequest(t, mw, "10.0.0.5", "doctor-1"); code != http.StatusTooManyRequests {
		t.Fatalf("doctor-1 second request: code = %d, want 429", code)
	}
	// Same address, different user: a coordinator behind the same NAT is not
	// throttled by the doctor's burst.
	if code, _ := rateLimitedRequest(t, mw, "10.0.0.5", "coordinator-1"); code != http.StatusOK {
		t.Errorf("coordinator-1: code = %d, want 200", code)
	}
}

func TestLimiterStore_ReusesLimiterPerKey(t *testing.T) {
	store := newLimiterStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	if store.get("a") != store.get("a") {
		t.Error("expected the same limiter for the same key")
	}
	if store.get("a") == store.get("b") {
		t.Error("expected distinct limiters for distinct keys")
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	cases := []struct {
		limit rate.Limit
		want  int
	}{
		{limit: 0, want: 1},
		{limit: 4, want: 1},
		{limit: 0.5, want: 2},
		{limit: 0.1, want: 10},
	}
	for _, tc := range cases {
		if got := retryAfterSeconds(tc.limit); got != tc.want {
			t.Errorf("retryAfterSeconds(%v) = %d, want %d", tc.limit, got, tc.want)
		}
	}
}
