package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-management/internal/application"
	"github.com/oksasatya/go-user-management/internal/domain/apperror"
	"github.com/oksasatya/go-user-management/internal/interface/middleware"
	"github.com/oksasatya/go-user-management/pkg/response"
)

type UserHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

func invalidBody(err error) error {
	var ve *apperror.ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return apperror.NewValidationError("body", "invalid request body")
}

// userIDParam reads :id in canonical lower-case form and rejects anything
// that is not a UUID with 422.
func userIDParam(c *gin.Context, logger *logrus.Logger) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.FromError(c, apperror.NewValidationError("id", "must be a valid UUID"), logger)
		return "", false
	}
	return id.String(), true
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.NewValidationError(name, "must be an integer")
	}
	return n, nil
}

// Me handles GET /me/.
func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.Svc.Me(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		response.FromError(c, err, h.Logger)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u))
}

func (h *UserHandler) Create(c *gin.Context) {
	var in application.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.FromError(c, invalidBody(err), h.Logger)
		return
	}
	u, err := h.Svc.Create(c.Request.Context(), middleware.ActorFrom(c), in)
	if err != nil {
		response.FromError(c, err, h.Logger)
		return
	}
	response.Success(c, http.StatusCreated, toUserResponse(u))
}

func (h *UserHandler) List(c *gin.Context) {
	skip, err := queryInt(c, "skip")
	if err != nil {
		response.FromError(c, err, h.Logger)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		response.FromError(c, err, h.Logger)
		return
	}
	page, err := h.Svc.List(c.Request.Context(), middleware.ActorFrom(c), skip, limit)
	if err != nil {
		response.FromError(c, err, h.Logger)
		return
	}
	response.Success(c, http.StatusOK, toPageResponse(c.Request.URL.Path, page))
}

func (h *UserHandler) Search(c *gin.Context) {
	size, err := queryInt(c, "size")
	if err != nil {
		response.FromError(c, err, h.Logger)
		return
	}
	users, err := h.Svc.Search(c.Request.Context(), middleware.ActorFrom(c), c.Query("q"), size)
	if err != nil {
		response.FromError(c, err, h.Logger)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": toUserResponses(users)})
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := userIDParam(c, h.Logger)
	if !ok {
		return
	}
	u, err := h.Svc.Get(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		response.FromError(c, err, h.Logger)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u))
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := userIDParam(c, h.Logger)
	if !ok {
		return
	}
	var in application.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.FromError(c, invalidBody(err), h.Logger)
		return
	}
	u, err := h.Svc.Update(c.Request.Context(), middleware.ActorFrom(c), id, in)
	if err != nil {
		response.FromError(c, err, h.Logger)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u))
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := userIDParam(c, h.Logger)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		response.FromError(c, err, h.Logger)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Unlock(c *gin.Context) {
	id, ok := userIDParam(c, h.Logger)
	if !ok {
		return
	}
	u, err := h.Svc.Unlock(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		response.FromError(c, err, h.Logger)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u))
}

// UploadAvatar handles multipart POST /users/:id/avatar with the image in "file".
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	id, ok := userIDParam(c, h.Logger)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.FromError(c, apperror.NewValidationError("file", "is required"), h.Logger)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.FromError(c, apperror.Internal(err), h.Logger)
		return
	}
	defer func() { _ = f.Close() }()

	u, err := h.Svc.UploadAvatar(c.Request.Context(), middleware.ActorFrom(c), id, f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		response.FromError(c, err, h.Logger)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u))
}
