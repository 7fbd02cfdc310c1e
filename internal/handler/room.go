package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/salones-cra/booking-api/internal/repository"
)

// RoomHandler manages the room catalog.  Creation and deletion are
// ADMIN-only; listing is public so the booking form can populate its
// room selector without a session.
type RoomHandler struct {
	Rooms *repository.RoomRepo
}

func isLetter(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z'
}

func NewRoomHandler(rooms *repository.RoomRepo) *RoomHandler {
	if rooms == nil {
		panic("nil repository passed to NewRoomHandler")
	}
	return &RoomHandler{Rooms: rooms}
}

// Create handles POST /v1/rooms.  Codes are a single letter ('A', 'B', ...),
// unique and stored upper-case.
func (h *RoomHandler) Create(c echo.Context) error {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code is required"})
	}
	code := strings.TrimSpace(req.Code)
	if len(code) != 1 || !isLetter(code[0]) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code must be a single letter"})
	}
	id, err := h.Rooms.Create(c.Request().Context(), code)
	if err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "room code already exists"})
		}
		return bookingError(c, err)
	}
	room, err := h.Rooms.GetByID(c.Request().Context(), id)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, room)
}

// List handles GET /v1/rooms.
func (h *RoomHandler) List(c echo.Context) error {
	rooms, err := h.Rooms.List(c.Request().Context())
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": rooms})
}

// Delete handles DELETE /v1/rooms/:id.  The schema cascades: the room's
// inventory, reservations and blackouts go with it.
func (h *RoomHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	if err := h.Rooms.Delete(c.Request().Context(), id); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
