package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/salones-cra/booking-api/internal/repository"
)

// MaterialHandler manages the material catalog (projectors, laptops,
// speakers and so on).  A material referenced by any reservation line is
// protected from deletion.
type MaterialHandler struct {
	Materials *repository.MaterialRepo
}

func NewMaterialHandler(materials *repository.MaterialRepo) *MaterialHandler {
	if materials == nil {
		panic("nil repository passed to NewMaterialHandler")
	}
	return &MaterialHandler{Materials: materials}
}

// Create handles POST /v1/materials.
func (h *MaterialHandler) Create(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	id, err := h.Materials.Create(c.Request().Context(), strings.TrimSpace(req.Name))
	if err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "material name already exists"})
		}
		return bookingError(c, err)
	}
	m, err := h.Materials.GetByID(c.Request().Context(), id)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// List handles GET /v1/materials.
func (h *MaterialHandler) List(c echo.Context) error {
	out, err := h.Materials.List(c.Request().Context())
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"materials": out})
}

// Update handles PUT /v1/materials/:id (rename).
func (h *MaterialHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid material id"})
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if err := h.Materials.Rename(c.Request().Context(), id, strings.TrimSpace(req.Name)); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "material name already exists"})
		}
		return bookingError(c, err)
	}
	m, err := h.Materials.GetByID(c.Request().Context(), id)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Delete handles DELETE /v1/materials/:id.  Materials referenced by
// reservation lines cannot be removed.
func (h *MaterialHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid material id"})
	}
	if err := h.Materials.Delete(c.Request().Context(), id); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "material is referenced by reservations"})
		}
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
