package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestTimeout bounds every request with a context deadline. When the
// deadline lapses the client gets a 504 and the handler's context is
// cancelled; the handler goroutine itself keeps running, so anything slow
// (pool queries, outbound calls) must honor its context.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			done := make(chan error, 1)
			go func() {
				done <- next(c)
			}()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				return timeoutResponse(c, ctx.Err())
			}
		}
	}
}

func timeoutResponse(c echo.Context, cause error) error {
	if !errors.Is(cause, context.DeadlineExceeded) {
		// Client went away; there is nobody to answer.
		return cause
	}
	if c.Response().Committed {
		return nil
	}
	return c.JSON(http.StatusGatewayTimeout, echo.Map{
		"error": "request processing exceeded the allowed time limit",
	})
}
