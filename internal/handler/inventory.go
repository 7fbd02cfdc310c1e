package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/salones-cra/booking-api/internal/repository"
)

// InventoryHandler manages per-room stock rows.  These are the admin's
// view of the ledger; the booking engine mutates the same rows under row
// locks when reservations come and go.
type InventoryHandler struct {
	Inventory *repository.InventoryRepo
}

func NewInventoryHandler(inv *repository.InventoryRepo) *InventoryHandler {
	if inv == nil {
		panic("nil repository passed to NewInventoryHandler")
	}
	return &InventoryHandler{Inventory: inv}
}

// Create handles POST /v1/inventory: stock a material in a room.
func (h *InventoryHandler) Create(c echo.Context) error {
	var req struct {
		RoomID     uint64 `json:"room_id"`
		MaterialID uint64 `json:"material_id"`
		Quantity   uint32 `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil || req.RoomID == 0 || req.MaterialID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id and material_id are required"})
	}
	id, err := h.Inventory.Create(c.Request().Context(), req.RoomID, req.MaterialID, req.Quantity)
	if err != nil {
		switch err {
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "material already stocked in this room"})
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room or material not found"})
		}
		return bookingError(c, err)
	}
	row, err := h.Inventory.GetByID(c.Request().Context(), id)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, row)
}

// List handles GET /v1/inventory with an optional ?room_id= filter.
func (h *InventoryHandler) List(c echo.Context) error {
	var roomID *uint64
	if raw := c.QueryParam("room_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room_id"})
		}
		roomID = &id
	}
	rows, err := h.Inventory.List(c.Request().Context(), roomID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"inventory": rows})
}

// Adjust handles PATCH /v1/inventory/:id with {"action": "add" | "remove"
// | "set", "quantity": n}.  Removing more than the current stock fails.
func (h *InventoryHandler) Adjust(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid inventory id"})
	}
	var req struct {
		Action   string `json:"action"`
		Quantity uint32 `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	action := strings.ToLower(strings.TrimSpace(req.Action))
	switch action {
	case "add", "remove", "set":
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "action must be add, remove or set"})
	}
	qty, err := h.Inventory.Adjust(c.Request().Context(), id, action, req.Quantity)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "quantity": qty})
}

// Delete handles DELETE /v1/inventory/:id.
func (h *InventoryHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid inventory id"})
	}
	if err := h.Inventory.Delete(c.Request().Context(), id); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
