package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-reservation/internal/service"
)

// writeError maps service errors to HTTP responses.  Anything unexpected
// is logged and answered with the generic retry text, which never claims
// anything about a specific seat.
func writeError(c echo.Context, err error) error {
	var (
		ve  *service.ValidationError
		ce  *service.SeatConflictError
		nfe *service.NotFoundError
		ite *service.InvalidTransitionError
	)
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "validation_failed",
			"field":   ve.Field,
			"message": service.UserMessage(err),
		})
	case errors.As(err, &ce):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":   "seat_conflict",
			"seat":    ce.Seat,
			"message": service.MsgSeatTaken,
		})
	case errors.As(err, &nfe):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.As(err, &ite):
		c.Logger().Warnf("handler: %v", err)
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid_transition", "message": "this reservation can no longer be changed"})
	case errors.Is(err, service.ErrNotOwner):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, service.ErrNotCancellable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "not_cancellable", "message": service.UserMessage(err)})
	}
	c.Logger().Errorf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error", "message": service.MsgRetry})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
