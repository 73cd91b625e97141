package media

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kinesio/kinesio/internal/domain/users"
	"github.com/kinesio/kinesio/internal/platform/auth"
	"github.com/kinesio/kinesio/internal/platform/crypto"
	"github.com/kinesio/kinesio/internal/platform/imaging"
)

// maxUploadBytes caps a single image upload.
const maxUploadBytes = 20 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("medic", "patient"))
	read.GET("/images", h.ListAccessible)
	read.GET("/images/:id", h.Download)
	read.GET("/images/:id/thumbnail", h.DownloadThumbnail)
	read.GET("/sessions/:id/images", h.ListByTag)

	write := api.Group("", auth.RequireRole("medic"))
	write.POST("/sessions/:id/images", h.Upload)
	write.DELETE("/images/:id", h.Delete)
}

func (h *Handler) Upload(c echo.Context) error {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing image file")
	}
	if file.Size > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image too large")
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable image file")
	}
	defer src.Close()
	raw, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable image file")
	}
	if len(raw) > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image too large")
	}

	actor := users.ActorFromContext(c.Request().Context())
	img, err := h.svc.CreateImage(c.Request().Context(), actor, sessionID, raw, Tag(c.FormValue("tag")))
	if err != nil {
		return mediaError(err)
	}
	return c.JSON(http.StatusCreated, img)
}

func (h *Handler) Download(c echo.Context) error {
	return h.download(c, h.svc.ReadImage)
}

func (h *Handler) DownloadThumbnail(c echo.Context) error {
	return h.download(c, h.svc.ReadThumbnail)
}

func (h *Handler) download(c echo.Context, read func(context.Context, *users.User, uuid.UUID) ([]byte, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := users.ActorFromContext(c.Request().Context())
	payload, err := read(c.Request().Context(), actor, id)
	if err != nil {
		return mediaError(err)
	}
	return c.Blob(http.StatusOK, imaging.SniffContentType(payload), payload)
}

func (h *Handler) ListByTag(c echo.Context) error {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	actor := users.ActorFromContext(c.Request().Context())
	groups, err := h.svc.ListByTag(c.Request().Context(), actor, sessionID)
	if err != nil {
		return mediaError(err)
	}
	if groups == nil {
		groups = []TagGroup{}
	}
	return c.JSON(http.StatusOK, groups)
}

func (h *Handler) ListAccessible(c echo.Context) error {
	actor := users.ActorFromContext(c.Request().Context())
	images, err := h.svc.ListAccessible(c.Request().Context(), actor)
	if err != nil {
		return mediaError(err)
	}
	if images == nil {
		images = []*Image{}
	}
	return c.JSON(http.StatusOK, images)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := users.ActorFromContext(c.Request().Context())
	if err := h.svc.DeleteImage(c.Request().Context(), actor, id); err != nil {
		return mediaError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// mediaError maps service failures to responses. Missing and unauthorized
// collapse into one 404 so image and session ids cannot be enumerated; the
// original sentinel rides along as the internal error, so server logs still
// tell a denial apart from a genuine miss.
func mediaError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrUnauthorized):
		return echo.NewHTTPError(http.StatusNotFound, "not found").SetInternal(err)
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, "not a decodable image")
	case errors.Is(err, ErrInvalidTag):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, crypto.ErrDecrypt):
		return echo.NewHTTPError(http.StatusInternalServerError, "stored content unavailable").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
}
