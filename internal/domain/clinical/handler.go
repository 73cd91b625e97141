package clinical

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kinesio/kinesio/internal/domain/users"
	"github.com/kinesio/kinesio/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("medic", "patient"))
	read.GET("/sessions", h.ListAllSessions)
	read.GET("/sessions/:id", h.GetSession)
	read.GET("/patients/:id/sessions", h.ListSessions)

	write := api.Group("", auth.RequireRole("medic"))
	write.POST("/sessions", h.CreateSession)
	write.PUT("/sessions/:id", h.UpdateSession)
	write.DELETE("/sessions/:id", h.DeleteSession)
}

type createSessionRequest struct {
	PatientID   uuid.UUID `json:"patient_id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
}

func (h *Handler) CreateSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := users.ActorFromContext(c.Request().Context())
	session, err := h.svc.Create(c.Request().Context(), actor, CreateSessionInput{
		PatientID:   req.PatientID,
		Date:        req.Date,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusCreated, session)
}

func (h *Handler) GetSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := users.ActorFromContext(c.Request().Context())
	session, err := h.svc.Get(c.Request().Context(), actor, id)
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusOK, session)
}

type updateSessionRequest struct {
	Description *string `json:"description"`
	Status      *Status `json:"status"`
}

func (h *Handler) UpdateSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req updateSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := users.ActorFromContext(c.Request().Context())
	session, err := h.svc.Update(c.Request().Context(), actor, id, UpdateSessionInput{
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *Handler) DeleteSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := users.ActorFromContext(c.Request().Context())
	if err := h.svc.Delete(c.Request().Context(), actor, id); err != nil {
		return sessionError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListSessions(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := users.ActorFromContext(c.Request().Context())
	sessions, err := h.svc.ListForPatient(c.Request().Context(), actor, patientID)
	if err != nil {
		return sessionError(err)
	}
	if sessions == nil {
		sessions = []*Session{}
	}
	return c.JSON(http.StatusOK, sessions)
}

// ListAllSessions returns every session the caller may read.
func (h *Handler) ListAllSessions(c echo.Context) error {
	actor := users.ActorFromContext(c.Request().Context())
	sessions, err := h.svc.ListForUser(c.Request().Context(), actor)
	if err != nil {
		return sessionError(err)
	}
	if sessions == nil {
		sessions = []*Session{}
	}
	return c.JSON(http.StatusOK, sessions)
}

// sessionError maps missing and unauthorized to the same response so that
// session ids cannot be enumerated; the sentinel stays attached for the logs.
// Anything that is not a validation failure renders as an opaque 500.
func sessionError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnauthorized):
		return echo.NewHTTPError(http.StatusNotFound, "session not found").SetInternal(err)
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
}
