package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/salones-cra/booking-api/internal/booking"
	"github.com/salones-cra/booking-api/internal/model"
	"github.com/salones-cra/booking-api/internal/schedule"
)

// ReservationHandler exposes the booking engine over HTTP.  Mutations
// require a valid JWT; the listing also serves anonymous callers, who get
// an empty result.
type ReservationHandler struct {
	Svc *booking.ReservationService
}

func NewReservationHandler(svc *booking.ReservationService) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Svc: svc}
}

type reservationItemReq struct {
	MaterialID uint64 `json:"material_id"`
	Quantity   uint32 `json:"quantity"`
}

type reservationReq struct {
	RoomID    uint64               `json:"room_id"`
	Date      string               `json:"date"`       // YYYY-MM-DD
	StartTime string               `json:"start_time"` // HH:MM
	EndTime   string               `json:"end_time"`
	Items     []reservationItemReq `json:"items"`
	// WithBlackout mirrors the web flow: the reservation also writes a
	// blocked-slot entry so the room reads as unavailable in the blackout
	// calendar.
	WithBlackout bool `json:"with_blackout"`
}

type reservationItemResp struct {
	MaterialID uint64 `json:"material_id"`
	Quantity   uint32 `json:"quantity"`
}

type reservationResp struct {
	ID        uint64                `json:"id"`
	RoomID    uint64                `json:"room_id"`
	UserID    *uint64               `json:"user_id,omitempty"`
	Date      string                `json:"date"`
	StartTime string                `json:"start_time"`
	EndTime   string                `json:"end_time"`
	Items     []reservationItemResp `json:"items"`
}

func toReservationResp(r *model.Reservation) reservationResp {
	items := make([]reservationItemResp, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, reservationItemResp{MaterialID: it.MaterialID, Quantity: it.Quantity})
	}
	return reservationResp{
		ID:        r.ID,
		RoomID:    r.RoomID,
		UserID:    r.UserID,
		Date:      r.Date.Format("2006-01-02"),
		StartTime: r.StartTime.String(),
		EndTime:   r.EndTime.String(),
		Items:     items,
	}
}

// bindSlot parses and validates the shared fields of a create or update
// request, writing the 400 response itself when something is malformed.
func bindSlot(c echo.Context) (reservationReq, booking.CreateInput, bool) {
	var req reservationReq
	if err := c.Bind(&req); err != nil || req.RoomID == 0 {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
		return req, booking.CreateInput{}, false
	}
	date, err := parseDateParam(req.Date)
	if err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
		return req, booking.CreateInput{}, false
	}
	start, err := schedule.ParseTimeOfDay(req.StartTime)
	if err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_time, expected HH:MM"})
		return req, booking.CreateInput{}, false
	}
	end, err := schedule.ParseTimeOfDay(req.EndTime)
	if err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_time, expected HH:MM"})
		return req, booking.CreateInput{}, false
	}
	lines := make([]booking.ItemLine, 0, len(req.Items))
	for _, it := range req.Items {
		if it.MaterialID == 0 {
			_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid material_id in items"})
			return req, booking.CreateInput{}, false
		}
		lines = append(lines, booking.ItemLine{MaterialID: it.MaterialID, Quantity: it.Quantity})
	}
	return req, booking.CreateInput{
		RoomID: req.RoomID,
		Date:   date,
		Start:  start,
		End:    end,
		Items:  lines,
	}, true
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	req, in, ok := bindSlot(c)
	if !ok {
		return nil
	}
	in.UserID = &userID
	in.WithShadowBlackout = req.WithBlackout

	res, err := h.Svc.Create(c.Request().Context(), in)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, toReservationResp(res))
}

// canTouch reports whether the caller may mutate the given reservation:
// admins always, teachers only their own.
func (h *ReservationHandler) canTouch(c echo.Context, id uint64) (bool, error) {
	if currentRole(c) == model.RoleAdmin {
		return true, nil
	}
	userID, err := getUserID(c)
	if err != nil {
		return false, nil
	}
	owner, err := h.Svc.Owner(c.Request().Context(), id)
	if err != nil {
		return false, err
	}
	return owner != nil && *owner == userID, nil
}

// Update handles PUT /v1/reservations/:id.
func (h *ReservationHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ok, err := h.canTouch(c, id)
	if err != nil {
		return bookingError(c, err)
	}
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	_, in, bound := bindSlot(c)
	if !bound {
		return nil
	}
	res, err := h.Svc.Update(c.Request().Context(), id, booking.UpdateInput{
		RoomID: in.RoomID,
		Date:   in.Date,
		Start:  in.Start,
		End:    in.End,
		Items:  in.Items,
	})
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(res))
}

// Delete handles DELETE /v1/reservations/:id.  Stock returns to the
// ledger and the shadow blackout disappears with the reservation.
func (h *ReservationHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ok, err := h.canTouch(c, id)
	if err != nil {
		return bookingError(c, err)
	}
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/reservations.  Admins see everything, teachers
// their own bookings, anonymous callers an empty list.
func (h *ReservationHandler) List(c echo.Context) error {
	var userID *uint64
	if uid, err := getUserID(c); err == nil {
		userID = &uid
	}
	out, err := h.Svc.ListVisibleTo(c.Request().Context(), currentRole(c), userID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}
