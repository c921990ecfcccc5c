package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireRole admits the request when the caller holds any of the given
// roles. The admin role implies every other role, so operations staff can
// exercise doctor and coordinator endpoints.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			held := RolesFromContext(c.Request().Context())
			if holdsAny(held, roles) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("requires one of: %s", strings.Join(roles, ", ")))
		}
	}
}

func holdsAny(held, wanted []string) bool {
	for _, h := range held {
		if h == "admin" {
			return true
		}
		for _, w := range wanted {
			if h == w {
				return true
			}
		}
	}
	return false
}
