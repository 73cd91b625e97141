package exercise

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
	read.GET("/homeworks/:id", h.GetHomework)
	read.GET("/homeworks/:id/exercises", h.ListExercises)
	read.GET("/patients/:id/homeworks", h.ListHomework)
	read.PUT("/exercises/:id/status", h.SetExerciseStatus)
	read.GET("/videos", h.ListVideos)

	write := api.Group("", auth.RequireRole("medic"))
	write.POST("/homeworks", h.CreateHomework)
	write.DELETE("/homeworks/:id", h.DeleteHomework)
	write.POST("/homeworks/:id/exercises", h.AddExercise)
	write.POST("/videos", h.CreateVideo)
	write.DELETE("/videos/:id", h.DeleteVideo)
}

type createHomeworkRequest struct {
	PatientID   uuid.UUID `json:"patient_id"`
	FromDate    time.Time `json:"from_date"`
	ToDate      time.Time `json:"to_date"`
	Periodicity int       `json:"periodicity"`
}

func (h *Handler) CreateHomework(c echo.Context) error {
	var req createHomeworkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := users.ActorFromContext(c.Request().Context())
	hw, err := h.svc.CreateHomework(c.Request().Context(), actor, CreateHomeworkInput(req))
	if err != nil {
		return exerciseError(err)
	}
	return c.JSON(http.StatusCreated, hw)
}

func (h *Handler) GetHomework(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := users.ActorFromContext(c.Request().Context())
	hw, err := h.svc.GetHomework(c.Request().Context(), actor, id)
	if err != nil {
		return exerciseError(err)
	}
	return c.JSON(http.StatusOK, hw)
}

func (h *Handler) ListHomework(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := users.ActorFromContext(c.Request().Context())
	homeworks, err := h.svc.ListHomeworkForPatient(c.Request().Context(), actor, patientID)
	if err != nil {
		return exerciseError(err)
	}
	if homeworks == nil {
		homeworks = []*Homework{}
	}
	return c.JSON(http.StatusOK, homeworks)
}

func (h *Handler) DeleteHomework(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := users.ActorFromContext(c.Request().Context())
	if err := h.svc.DeleteHomework(c.Request().Context(), actor, id); err != nil {
		return exerciseError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type addExerciseRequest struct {
	Date          time.Time `json:"date"`
	SessionNumber int       `json:"session_number"`
}

func (h *Handler) AddExercise(c echo.Context) error {
	homeworkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req addExerciseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := users.ActorFromContext(c.Request().Context())
	ex, err := h.svc.AddExercise(c.Request().Context(), actor, homeworkID, req.Date, req.SessionNumber)
	if err != nil {
		return exerciseError(err)
	}
	return c.JSON(http.StatusCreated, ex)
}

func (h *Handler) ListExercises(c echo.Context) error {
	homeworkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := users.ActorFromContext(c.Request().Context())
	exercises, err := h.svc.ListExercises(c.Request().Context(), actor, homeworkID)
	if err != nil {
		return exerciseError(err)
	}
	if exercises == nil {
		exercises = []*HomeworkExercise{}
	}
	return c.JSON(http.StatusOK, exercises)
}

type setStatusRequest struct {
	Status ExerciseStatus `json:"status"`
}

func (h *Handler) SetExerciseStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req setStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := users.ActorFromContext(c.Request().Context())
	if err := h.svc.SetExerciseStatus(c.Request().Context(), actor, id, req.Status); err != nil {
		return exerciseError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type createVideoRequest struct {
	Name       string `json:"name"`
	StorageKey string `json:"storage_key"`
}

func (h *Handler) CreateVideo(c echo.Context) error {
	var req createVideoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := users.ActorFromContext(c.Request().Context())
	v, err := h.svc.CreateVideo(c.Request().Context(), actor, req.Name, req.StorageKey)
	if err != nil {
		return exerciseError(err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) ListVideos(c echo.Context) error {
	actor := users.ActorFromContext(c.Request().Context())
	videos, err := h.svc.AccessibleVideos(c.Request().Context(), actor)
	if err != nil {
		return exerciseError(err)
	}
	if videos == nil {
		videos = []*Video{}
	}
	return c.JSON(http.StatusOK, videos)
}

func (h *Handler) DeleteVideo(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := users.ActorFromContext(c.Request().Context())
	if err := h.svc.DeleteVideo(c.Request().Context(), actor, id); err != nil {
		return exerciseError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func exerciseError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnauthorized):
		return echo.NewHTTPError(http.StatusNotFound, "not found").SetInternal(err)
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
}
