package users

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kinesio/kinesio/internal/platform/auth"
	"github.com/kinesio/kinesio/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("medic", "patient"))
	read.GET("/users/:id", h.GetUser)
	read.GET("/patients/:id/profile", h.GetProfile)

	// Relationship management is a medic-side operation.
	write := api.Group("", auth.RequireRole("medic"))
	write.GET("/medics", h.ListMedics)
	write.GET("/patients", h.ListPatients)
	write.POST("/medics", h.CreateMedic)
	write.POST("/patients", h.CreatePatient)
	write.PUT("/patients/:id/medic", h.AssignMedic)
	write.POST("/patients/:id/shares", h.AddShare)
	write.DELETE("/patients/:id/shares/:medic_id", h.RemoveShare)
}

type createUserRequest struct {
	Name           string     `json:"name"`
	CurrentMedicID *uuid.UUID `json:"current_medic_id,omitempty"`
}

func (h *Handler) CreateMedic(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := h.svc.CreateMedic(c.Request().Context(), req.Name)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := h.svc.CreatePatient(c.Request().Context(), req.Name, req.CurrentMedicID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) GetUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	u, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) ListMedics(c echo.Context) error {
	return h.list(c, RoleMedic)
}

func (h *Handler) ListPatients(c echo.Context) error {
	return h.list(c, RolePatient)
}

func (h *Handler) list(c echo.Context, role Role) error {
	pg := pagination.FromContext(c)
	result, total, err := h.svc.List(c.Request().Context(), role, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(result, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetProfile(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.Profile(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

type assignMedicRequest struct {
	MedicID *uuid.UUID `json:"medic_id"`
}

func (h *Handler) AssignMedic(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req assignMedicRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AssignMedic(c.Request().Context(), id, req.MedicID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type shareRequest struct {
	MedicID uuid.UUID `json:"medic_id"`
}

func (h *Handler) AddShare(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req shareRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Share(c.Request().Context(), id, req.MedicID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RemoveShare(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	medicID, err := uuid.Parse(c.Param("medic_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid medic id")
	}
	if err := h.svc.Unshare(c.Request().Context(), id, medicID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
