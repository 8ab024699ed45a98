package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-reservation/internal/middleware"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/service"
)

// ReservationHandler serves passenger booking endpoints.
type ReservationHandler struct {
	Writer    *service.Writer
	Lifecycle *service.Lifecycle
}

// NewReservationHandler constructs a ReservationHandler.  Both dependencies
// must be non-nil.
func NewReservationHandler(w *service.Writer, lc *service.Lifecycle) *ReservationHandler {
	if w == nil || lc == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Writer: w, Lifecycle: lc}
}

// Create handles POST /v1/reservations.  Guests may book; an authenticated
// passenger becomes the owner of the reservation.  Returns 201 with the
// reservation, 400 for invalid input and 409 when the seat is taken.
func (h *ReservationHandler) Create(c echo.Context) error {
	var in model.ReservationInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	in.PartyID = middleware.PartyFrom(c).ID
	r, err := h.Writer.CreateReservation(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// ListMine handles GET /v1/my-reservations?status=booked|cancelled|completed.
// Results are newest first.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	var status *model.Status
	if raw := c.QueryParam("status"); raw != "" {
		st, ok := model.ParseStatus(raw)
		if !ok {
			return badRequest(c, "invalid status")
		}
		status = &st
	}
	party := middleware.PartyFrom(c)
	rs, err := h.Lifecycle.ListByParty(c.Request().Context(), party.ID, status)
	if err != nil {
		return writeError(c, err)
	}
	now := h.Lifecycle.Now()
	items := make([]reservationView, 0, len(rs))
	for _, r := range rs {
		items = append(items, reservationView{Reservation: r, Cancellable: service.IsCancellable(r, now)})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CancelMine handles POST /v1/reservations/:id/cancel for the owning
// passenger.  Cancelling twice is not an error.
func (h *ReservationHandler) CancelMine(c echo.Context) error {
	party := middleware.PartyFrom(c)
	r, err := h.Lifecycle.CancelByParty(c.Request().Context(), c.Param("id"), party.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// reservationView adds whether the passenger may still cancel.
type reservationView struct {
	model.Reservation
	Cancellable bool `json:"cancellable"`
}
