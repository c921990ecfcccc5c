package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

const healthPingTimeout = 5 * time.Second

// HealthReport is the /health/db response body.
type HealthReport struct {
	Status string    `json:"status"`
	Error  string    `json:"error,omitempty"`
	Pool   ConnStats `json:"pool"`
}

// ConnStats is a point-in-time snapshot of the connection pool.
type ConnStats struct {
	Total    int32 `json:"total"`
	Idle     int32 `json:"idle"`
	Acquired int32 `json:"acquired"`
	Max      int32 `json:"max"`
}

func snapshotStats(pool *pgxpool.Pool) ConnStats {
	s := pool.Stat()
	return ConnStats{
		Total:    s.TotalConns(),
		Idle:     s.IdleConns(),
		Acquired: s.AcquiredConns(),
		Max:      s.MaxConns(),
	}
}

// buildHealthReport maps a ping outcome and pool snapshot onto the HTTP
// status and body for the health endpoint.
func buildHealthReport(pingErr error, stats ConnStats) (int, HealthReport) {
	if pingErr != nil {
		return http.StatusServiceUnavailable, HealthReport{
			Status: "unhealthy",
			Error:  pingErr.Error(),
			Pool:   stats,
		}
	}
	return http.StatusOK, HealthReport{Status: "healthy", Pool: stats}
}

// HealthHandler serves the database health endpoint. The ping is bounded so a
// hung database turns into a 503 instead of a stuck probe.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthPingTimeout)
		defer cancel()

		code, report := buildHealthReport(pool.Ping(ctx), snapshotStats(pool))
		return c.JSON(code, report)
	}
}
