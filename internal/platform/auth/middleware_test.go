package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func signedToken(t *testing.T, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func freshClaims(subject string, roles ...string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Roles: roles,
	}
}

// runAuthed pushes a request through JWTMiddleware with an HMAC config and
// reports the middleware error plus whether the handler ran.
func runAuthed(t *testing.T, path, authHeader string, inspect func(c echo.Context)) (error, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)

	called := false
	err := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})(func(c echo.Context) error {
		called = true
		if inspect != nil {
			inspect(c)
		}
		return c.NoContent(http.StatusOK)
	})(c)
	return err, called
}

func wantUnauthorized(t *testing.T, err error) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("err = %T (%v), want *echo.HTTPError", err, err)
	}
	if httpErr.Code != http.StatusUnauthorized {
		t.Errorf("code = %d, want 401", httpErr.Code)
	}
}

func TestJWTMiddleware_RejectsMissingOrMalformedCredentials(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "wrong scheme", header: "Token abc123"},
		{name: "bare scheme", header: "Bearer"},
		{name: "empty token", header: "Bearer "},
		{name: "basic auth", header: "Basic dXNlcjpwYXNz"},
		{name: "garbage token", header: "Bearer not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err, called := runAuthed(t, "/api/v1/consultations", tc.header, nil)
			if called {
				t.Error("handler must not run without valid credentials")
			}
			wantUnauthorized(t, err)
		})
	}
}

func TestJWTMiddleware_ValidTokenPopulatesContext(t *testing.T) {
	token := signedToken(t, freshClaims("doc-456", "doctor", "coordinator"))

	err, called := runAuthed(t, "/api/v1/consultations", "Bearer "+token, func(c echo.Context) {
		ctx := c.Request().Context()
		if uid := UserIDFromContext(ctx); uid != "doc-456" {
			t.Errorf("user id = %q, want doc-456", uid)
		}
		roles := RolesFromContext(ctx)
		if len(roles) != 2 || roles[0] != "doctor" || roles[1] != "coordinator" {
			t.Errorf("roles = %v, want [doctor coordinator]", roles)
		}
	})
	if err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if !called {
		t.Error("handler did not run for a valid token")
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	claims := freshClaims("doc-456", "doctor")
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	token := signedToken(t, claims)

	err, called := runAuthed(t, "/api/v1/consultations", "Bearer "+token, nil)
	if called {
		t.Error("handler must not run for an expired token")
	}
	wantUnauthorized(t, err)
}

func TestJWTMiddleware_HealthEndpointsSkipped(t *testing.T) {
	for _, path := range []string{"/health", "/health/db"} {
		err, called := runAuthed(t, path, "", nil)
		if err != nil {
			t.Errorf("%s: %v", path, err)
		}
		if !called {
			t.Errorf("%s must be reachable without a token", path)
		}
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{header: "bearer abc.def.ghi", want: "abc.def.ghi"},
		{header: "Bearer ", want: ""},
		{header: "Bearer", want: ""},
		{header: "Basic dXNlcjpwYXNz", want: ""},
		{header: "", want: ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		if got := bearerToken(req); got != tc.want {
			t.Errorf("bearerToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestDevAuthMiddleware_DefaultsWithoutCredentials(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/consultations", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := DevAuthMiddleware()(func(c echo.Context) error {
		ctx := c.Request().Context()
		if uid := UserIDFromContext(ctx); uid != "dev-user" {
			t.Errorf("user id = %q, want dev-user", uid)
		}
		if roles := RolesFromContext(ctx); len(roles) != 1 || roles[0] != "admin" {
			t.Errorf("roles = %v, want [admin]", roles)
		}
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		t.Fatalf("middleware: %v", err)
	}
}
