package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/salones-cra/booking-api/internal/booking"
	"github.com/salones-cra/booking-api/internal/model"
)

// BlackoutHandler exposes administrative blackout management.  All routes
// are ADMIN-only; the cascade side effects (cancelled reservations) are
// reported back in the response so the admin panel can show them.
type BlackoutHandler struct {
	Svc *booking.BlackoutService
}

func NewBlackoutHandler(svc *booking.BlackoutService) *BlackoutHandler {
	if svc == nil {
		panic("nil service passed to NewBlackoutHandler")
	}
	return &BlackoutHandler{Svc: svc}
}

type blackoutReq struct {
	RoomID *uint64 `json:"room_id"` // null blocks every room
	Start  string  `json:"start_datetime"`
	End    string  `json:"end_datetime"` // optional, defaults to start + 45m
	Reason string  `json:"reason"`
}

// datetimeFormats are accepted for blackout bounds, most specific first.
var datetimeFormats = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"}

func parseDatetime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range datetimeFormats {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func bindBlackout(c echo.Context, createdBy *uint64) (booking.BlackoutInput, bool) {
	var req blackoutReq
	if err := c.Bind(&req); err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
		return booking.BlackoutInput{}, false
	}
	if req.Start == "" {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "start_datetime required"})
		return booking.BlackoutInput{}, false
	}
	start, err := parseDatetime(req.Start)
	if err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_datetime"})
		return booking.BlackoutInput{}, false
	}
	var end time.Time
	if req.End != "" {
		end, err = parseDatetime(req.End)
		if err != nil {
			_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_datetime"})
			return booking.BlackoutInput{}, false
		}
	}
	return booking.BlackoutInput{
		RoomID:    req.RoomID,
		Start:     start,
		End:       end,
		Reason:    req.Reason,
		CreatedBy: createdBy,
	}, true
}

type blackoutResp struct {
	ID                    uint64  `json:"id"`
	RoomID                *uint64 `json:"room_id,omitempty"`
	StartDatetime         string  `json:"start_datetime"`
	EndDatetime           string  `json:"end_datetime"`
	Reason                string  `json:"reason"`
	CancelledReservations int     `json:"cancelled_reservations"`
}

func toBlackoutResp(b *model.Blackout, cancelled int) blackoutResp {
	return blackoutResp{
		ID:                    b.ID,
		RoomID:                b.RoomID,
		StartDatetime:         b.StartDatetime.UTC().Format(time.RFC3339),
		EndDatetime:           b.EndDatetime.UTC().Format(time.RFC3339),
		Reason:                b.Reason,
		CancelledReservations: cancelled,
	}
}

// Create handles POST /v1/blackouts.
func (h *BlackoutHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	in, ok := bindBlackout(c, &userID)
	if !ok {
		return nil
	}
	b, cancelled, err := h.Svc.Create(c.Request().Context(), in)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, toBlackoutResp(b, cancelled))
}

// Update handles PUT /v1/blackouts/:id and re-runs the cascade over the
// new span.
func (h *BlackoutHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid blackout id"})
	}
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	in, ok := bindBlackout(c, &userID)
	if !ok {
		return nil
	}
	b, cancelled, err := h.Svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, toBlackoutResp(b, cancelled))
}

// Delete handles DELETE /v1/blackouts/:id.
func (h *BlackoutHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid blackout id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/blackouts; only administrative entries appear,
// reservation shadows stay internal.
func (h *BlackoutHandler) List(c echo.Context) error {
	out, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"blackouts": out})
}
