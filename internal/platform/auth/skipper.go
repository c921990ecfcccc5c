package auth

import (
	"github.com/labstack/echo/v4"
)

// IsPublicPath reports whether a path is an infrastructure endpoint that must
// stay reachable without credentials. Load balancer and readiness probes hit
// the health endpoints before any identity provider is configured.
func IsPublicPath(path string) bool {
	switch path {
	case "/health", "/health/db":
		return true
	}
	return false
}

// AuthSkipper exempts public paths from the authentication middleware.
func AuthSkipper(c echo.Context) bool {
	return IsPublicPath(c.Path())
}
