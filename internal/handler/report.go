package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/salones-cra/booking-api/internal/repository"
)

// ReportHandler serves the coordinator's usage reports: reservation counts
// per room and total requested material quantities, both over an inclusive
// date range with an optional room filter.
type ReportHandler struct {
	Reservations *repository.ReservationRepo
}

func NewReportHandler(reservations *repository.ReservationRepo) *ReportHandler {
	if reservations == nil {
		panic("nil repository passed to NewReportHandler")
	}
	return &ReportHandler{Reservations: reservations}
}

// reportRange parses the shared from/to/room_id query parameters.  A
// missing range defaults to the current month.
func reportRange(c echo.Context) (from, to time.Time, roomID *uint64, ok bool) {
	now := time.Now().UTC()
	from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to = from.AddDate(0, 1, -1)

	if raw := c.QueryParam("from"); raw != "" {
		t, err := parseDateParam(raw)
		if err != nil {
			_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from, expected YYYY-MM-DD"})
			return from, to, nil, false
		}
		from = t
	}
	if raw := c.QueryParam("to"); raw != "" {
		t, err := parseDateParam(raw)
		if err != nil {
			_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to, expected YYYY-MM-DD"})
			return from, to, nil, false
		}
		to = t
	}
	if to.Before(from) {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "to must not be before from"})
		return from, to, nil, false
	}
	if raw := c.QueryParam("room_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room_id"})
			return from, to, nil, false
		}
		roomID = &id
	}
	return from, to, roomID, true
}

// RoomUsage handles GET /v1/reports/rooms.
func (h *ReportHandler) RoomUsage(c echo.Context) error {
	from, to, roomID, ok := reportRange(c)
	if !ok {
		return nil
	}
	rows, err := h.Reservations.CountByRoom(c.Request().Context(), from, to, roomID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"from":  from.Format("2006-01-02"),
		"to":    to.Format("2006-01-02"),
		"rooms": rows,
	})
}

// MaterialUsage handles GET /v1/reports/materials.
func (h *ReportHandler) MaterialUsage(c echo.Context) error {
	from, to, roomID, ok := reportRange(c)
	if !ok {
		return nil
	}
	rows, err := h.Reservations.MaterialTotals(c.Request().Context(), from, to, roomID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"from":      from.Format("2006-01-02"),
		"to":        to.Format("2006-01-02"),
		"materials": rows,
	})
}
