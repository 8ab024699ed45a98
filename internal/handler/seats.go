package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-reservation/internal/layout"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/realtime"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
	"github.com/iliyamo/bus-seat-reservation/internal/service"
)

// keepAliveEvery spaces SSE comments so idle proxies keep the stream open.
const keepAliveEvery = 25 * time.Second

// SeatHandler serves layouts and availability.  None of its endpoints
// require authentication.
type SeatHandler struct {
	Vehicles     service.VehicleDirectory
	Availability *service.Availability
	Hub          *realtime.Hub // nil disables the live stream
}

// NewSeatHandler constructs a SeatHandler.
func NewSeatHandler(vehicles service.VehicleDirectory, avail *service.Availability, hub *realtime.Hub) *SeatHandler {
	return &SeatHandler{Vehicles: vehicles, Availability: avail, Hub: hub}
}

type layoutResponse struct {
	layout.Layout
	Capacity int      `json:"capacity"`
	Seats    []string `json:"seats"`
}

func newLayoutResponse(l layout.Layout) layoutResponse {
	return layoutResponse{Layout: l, Capacity: l.Capacity(), Seats: l.Seats()}
}

// ClassLayout handles GET /v1/layouts/:class?capacity=N.  Unknown classes
// return an empty layout with 200.
func (h *SeatHandler) ClassLayout(c echo.Context) error {
	capacity := 0
	if raw := c.QueryParam("capacity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return badRequest(c, "invalid capacity")
		}
		capacity = n
	}
	return c.JSON(http.StatusOK, newLayoutResponse(layout.Generate(c.Param("class"), capacity)))
}

// VehicleLayout handles GET /v1/vehicles/:id/layout.
func (h *SeatHandler) VehicleLayout(c echo.Context) error {
	v, err := h.Vehicles.GetVehicle(c.Request().Context(), c.Param("id"))
	if errors.Is(err, repository.ErrVehicleNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newLayoutResponse(service.LayoutFor(v)))
}

// OccupiedSeats handles GET /v1/vehicles/:id/seats?date=YYYY-MM-DD.
func (h *SeatHandler) OccupiedSeats(c echo.Context) error {
	date, ok := serviceDate(c)
	if !ok {
		return badRequest(c, "date must be YYYY-MM-DD")
	}
	seats, err := h.Availability.OccupiedSeats(c.Request().Context(), c.Param("id"), date)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"vehicle_id":   c.Param("id"),
		"service_date": date,
		"occupied":     seats,
	})
}

// SeatAvailability handles GET /v1/vehicles/:id/seats/:seat?date=YYYY-MM-DD.
func (h *SeatHandler) SeatAvailability(c echo.Context) error {
	date, ok := serviceDate(c)
	if !ok {
		return badRequest(c, "date must be YYYY-MM-DD")
	}
	seat := c.Param("seat")
	free, err := h.Availability.IsSeatAvailable(c.Request().Context(), c.Param("id"), date, seat)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"vehicle_id":   c.Param("id"),
		"service_date": date,
		"seat":         seat,
		"available":    free,
	})
}

// Stream handles GET /v1/vehicles/:id/seats/stream?date=YYYY-MM-DD as
// server-sent events.  It sends the occupied set on connect and again
// after every reservation change on that vehicle and date.
func (h *SeatHandler) Stream(c echo.Context) error {
	if h.Hub == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "live updates unavailable"})
	}
	date, ok := serviceDate(c)
	if !ok {
		return badRequest(c, "date must be YYYY-MM-DD")
	}
	vehicleID := c.Param("id")
	ctx := c.Request().Context()

	sub, err := h.Hub.Subscribe(ctx, vehicleID, date)
	if err != nil {
		return writeError(c, err)
	}
	defer sub.Close()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	send := func() error {
		seats, err := h.Availability.OccupiedSeats(ctx, vehicleID, date)
		if err != nil {
			return err
		}
		body, err := json.Marshal(seats)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(res, "event: seats\ndata: %s\n\n", body); err != nil {
			return err
		}
		res.Flush()
		return nil
	}
	if err := send(); err != nil {
		return nil
	}

	ticker := time.NewTicker(keepAliveEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-sub.Events():
			if !ok || send() != nil {
				return nil
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func serviceDate(c echo.Context) (model.ServiceDate, bool) {
	d, err := model.ParseServiceDate(c.QueryParam("date"))
	return d, err == nil
}
