package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/salones-cra/booking-api/internal/booking"
	"github.com/salones-cra/booking-api/internal/repository"
)

// getUserID extracts the user_id from echo.Context and converts it to
// uint64.  JWT claims decode numbers as float64, so several shapes are
// accepted.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// currentRole returns the role claim, or "" when the request is anonymous.
func currentRole(c echo.Context) string {
	role, _ := c.Get("role").(string)
	return role
}

// pathID parses the :id path parameter as a positive integer.
func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// parseDateParam parses a YYYY-MM-DD query or body value.
func parseDateParam(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// bookingError translates engine and repository errors into the HTTP
// responses the web and mobile clients show to teachers.  User-facing
// messages are in Spanish; unrecognized errors become a generic 500.
func bookingError(c echo.Context, err error) error {
	var stockErr *repository.StockError
	switch {
	case errors.Is(err, booking.ErrInvalidInterval):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "La hora de inicio debe ser anterior a la hora de fin."})
	case errors.Is(err, booking.ErrWeekdayNotAllowed):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Solo se permiten reservas en días hábiles."})
	case errors.Is(err, booking.ErrOutsideBusinessHours):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "El horario solicitado está fuera del horario de atención."})
	case errors.Is(err, booking.ErrRoomDoubleBooked):
		return c.JSON(http.StatusConflict, echo.Map{"error": "El salón ya está ocupado en ese horario."})
	case errors.Is(err, booking.ErrBlackoutConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "El salón está bloqueado en ese horario."})
	case errors.As(err, &stockErr):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":       "No hay suficiente inventario de " + stockErr.MaterialName + " en el salón " + stockErr.RoomCode + ".",
			"room_id":     stockErr.RoomID,
			"material_id": stockErr.MaterialID,
		})
	case errors.Is(err, repository.ErrInsufficientStock):
		return c.JSON(http.StatusConflict, echo.Map{"error": "No hay suficiente inventario para la reserva."})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}
