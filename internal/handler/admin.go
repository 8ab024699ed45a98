package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-reservation/internal/middleware"
	"github.com/iliyamo/bus-seat-reservation/internal/service"
)

// AdminHandler holds administrative escape hatches.
type AdminHandler struct {
	Lifecycle *service.Lifecycle
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(lc *service.Lifecycle) *AdminHandler {
	return &AdminHandler{Lifecycle: lc}
}

// DeleteReservation handles DELETE /v1/admin/reservations/:id and answers
// 204 on success.
func (h *AdminHandler) DeleteReservation(c echo.Context) error {
	id := c.Param("id")
	if err := h.Lifecycle.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	c.Logger().Warnf("admin: %s deleted reservation %s", middleware.PartyFrom(c).ID, id)
	return c.NoContent(http.StatusNoContent)
}
