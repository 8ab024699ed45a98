package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-reservation/internal/middleware"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
	"github.com/iliyamo/bus-seat-reservation/internal/service"
)

// OperatorHandler serves the fleet operator's view of its vehicles.  Every
// method assumes JWTAuth and RequireRole(OPERATOR) already ran.
type OperatorHandler struct {
	Vehicles  service.VehicleDirectory
	Lifecycle *service.Lifecycle
}

// NewOperatorHandler constructs an OperatorHandler.
func NewOperatorHandler(vehicles service.VehicleDirectory, lc *service.Lifecycle) *OperatorHandler {
	return &OperatorHandler{Vehicles: vehicles, Lifecycle: lc}
}

// Manifest handles GET /v1/operator/vehicles/:id/reservations?date=.  It
// lists booked reservations of a vehicle the operator owns.
func (h *OperatorHandler) Manifest(c echo.Context) error {
	date, ok := serviceDate(c)
	if !ok {
		return badRequest(c, "date must be YYYY-MM-DD")
	}
	ctx := c.Request().Context()
	v, err := h.Vehicles.GetVehicle(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrVehicleNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
	}
	if err != nil {
		return writeError(c, err)
	}
	if v.OperatorID != middleware.PartyFrom(c).ID {
		return writeError(c, service.ErrNotOwner)
	}
	rs, err := h.Lifecycle.ListForVehicle(ctx, v.ID, date)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"vehicle":      v,
		"service_date": date,
		"items":        rs,
	})
}

// Cancel handles POST /v1/operator/reservations/:id/cancel.
func (h *OperatorHandler) Cancel(c echo.Context) error {
	return h.apply(c, h.Lifecycle.CancelByOperator)
}

// Complete handles POST /v1/operator/reservations/:id/complete.
func (h *OperatorHandler) Complete(c echo.Context) error {
	return h.apply(c, h.Lifecycle.CompleteByOperator)
}

func (h *OperatorHandler) apply(c echo.Context, op func(ctx context.Context, id, operatorID string) (model.Reservation, error)) error {
	r, err := op(c.Request().Context(), c.Param("id"), middleware.PartyFrom(c).ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}
