package handler

import (
	"context"
	"io"
	"net/http"
	"os"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
	"github.com/noah-isme/event-idea-marketplace/pkg/response"
	"github.com/noah-isme/event-idea-marketplace/pkg/storage"
)

type uploadService interface {
	Upload(ctx context.Context, actor *models.JWTClaims, kind models.UploadKind, fileName, declared string, size int64, r io.Reader) (*models.UploadResult, error)
	Open(ctx context.Context, token string) (*os.File, storage.Grant, error)
}

// UploadHandler accepts posters and slides and serves signed downloads.
type UploadHandler struct {
	service uploadService
}

// NewUploadHandler constructs an upload handler.
func NewUploadHandler(svc uploadService) *UploadHandler {
	return &UploadHandler{service: svc}
}

// Poster godoc
// @Summary Upload an event poster
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image"
// @Success 201 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Security BearerAuth
// @Router /upload/poster [post]
func (h *UploadHandler) Poster(c *gin.Context) {
	h.upload(c, models.UploadPoster)
}

// Slides godoc
// @Summary Upload a presentation
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF, PPT or PPTX"
// @Success 201 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Security BearerAuth
// @Router /upload/ppt [post]
func (h *UploadHandler) Slides(c *gin.Context) {
	h.upload(c, models.UploadSlides)
}

// Download godoc
// @Summary Fetch an uploaded file
// @Tags Uploads
// @Param token path string true "Signed token"
// @Success 200
// @Failure 403 {object} response.Envelope
// @Router /files/{token} [get]
func (h *UploadHandler) Download(c *gin.Context) {
	file, grant, err := h.service.Open(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read file"))
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	http.ServeContent(c.Writer, c.Request, path.Base(grant.Key), info.ModTime(), file)
}

func (h *UploadHandler) upload(c *gin.Context, kind models.UploadKind) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "multipart field \"file\" is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read upload"))
		return
	}
	defer file.Close()

	result, err := h.service.Upload(c.Request.Context(), claims, kind, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
