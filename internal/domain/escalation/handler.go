package escalation

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/telecare/telecare/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	dash := api.Group("/dashboard", auth.RequireRole("admin", "doctor", "coordinator"))
	dash.GET("/escalations", h.ListEscalations)
	dash.GET("/breaches", h.CountBreaches)
}

func (h *Handler) ListEscalations(c echo.Context) error {
	items, err := h.svc.ListEscalations(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  items,
		"total": len(items),
	})
}

func (h *Handler) CountBreaches(c echo.Context) error {
	counts, err := h.svc.CountBreaches(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, counts)
}
