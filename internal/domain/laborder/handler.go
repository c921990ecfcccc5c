package laborder

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/telecare/telecare/internal/platform/auth"
	"github.com/telecare/telecare/internal/workflow"
	"github.com/telecare/telecare/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	ops := api.Group("", auth.RequireRole("admin", "doctor", "coordinator"))
	ops.POST("/lab-orders", h.CreateOrder)
	ops.GET("/lab-orders", h.ListOrders)
	ops.GET("/lab-orders/:id", h.GetOrder)
	ops.POST("/lab-orders/:id/transition", h.TransitionOrder)
	ops.GET("/lab-orders/breaches", h.CountBreaches)

	// Reverts bypass the forward transition table, so they are admin-only.
	admin := api.Group("", auth.RequireRole("admin"))
	admin.POST("/lab-orders/:id/revert", h.RevertOrder)
}

func (h *Handler) CreateOrder(c echo.Context) error {
	var o LabOrder
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateOrder(c.Request().Context(), &o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) GetOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := h.svc.GetOrder(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "lab order not found")
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) ListOrders(c echo.Context) error {
	pg := pagination.FromContext(c)
	if patientID := c.QueryParam("patient_id"); patientID != "" {
		pid, err := uuid.Parse(patientID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		items, total, err := h.svc.ListByPatient(c.Request().Context(), pid, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}
	status := workflow.Status(c.QueryParam("status"))
	if status == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id or status query parameter is required")
	}
	items, total, err := h.svc.ListByStatus(c.Request().Context(), status, pg.Limit, pg.Offset)
	if err != nil {
		var ue *workflow.UnknownStatusError
		if errors.As(err, &ue) {
			return echo.NewHTTPError(http.StatusBadRequest, ue.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) TransitionOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req TransitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o, err := h.svc.Transition(c.Request().Context(), id, req)
	if err != nil {
		return transitionHTTPError(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) RevertOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		Status workflow.Status `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o, err := h.svc.AdminRevert(c.Request().Context(), id, req.Status)
	if err != nil {
		var ue *workflow.UnknownStatusError
		if errors.As(err, &ue) {
			return echo.NewHTTPError(http.StatusBadRequest, ue.Error())
		}
		if errors.Is(err, ErrStatusConflict) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) CountBreaches(c echo.Context) error {
	counts, err := h.svc.CountBreaches(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, counts)
}

func transitionHTTPError(err error) error {
	var te *workflow.TransitionError
	if errors.As(err, &te) {
		return echo.NewHTTPError(http.StatusConflict, te.Error())
	}
	var me *workflow.MissingFieldError
	if errors.As(err, &me) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, me.Error())
	}
	var ue *workflow.UnknownStatusError
	if errors.As(err, &ue) {
		return echo.NewHTTPError(http.StatusBadRequest, ue.Error())
	}
	if errors.Is(err, ErrStatusConflict) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusNotFound, "lab order not found")
}
