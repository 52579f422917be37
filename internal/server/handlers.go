package server

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/manash/adhook/internal/adhook"
	"github.com/manash/adhook/internal/apierr"
	"github.com/manash/adhook/pkg/models"
)

const msgInvalidBody = "invalid JSON body"

// Service is the set of operations exposed over HTTP.
type Service interface {
	GenerateCopy(ctx context.Context, in adhook.CopyInput) (json.RawMessage, error)
	GenerateImages(ctx context.Context, in adhook.ImageInput) ([]string, error)
	EditImage(ctx context.Context, in adhook.EditInput) ([]string, error)
	SaveCopy(ctx context.Context, in adhook.SaveCopyInput) error
	SaveImages(ctx context.Context, in adhook.SaveImagesInput) ([]string, error)
	ListGenerations(ctx context.Context) ([]*models.Generation, error)
	Drain(ctx context.Context) error
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *Handler) GenerateCopy(c *gin.Context) {
	var in adhook.CopyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, apierr.Validation(msgInvalidBody))
		return
	}

	content, err := h.svc.GenerateCopy(c.Request.Context(), in)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", content)
}

type urlsResponse struct {
	URLs []string `json:"urls"`
}

func (h *Handler) GenerateImage(c *gin.Context) {
	var in adhook.ImageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, apierr.Validation(msgInvalidBody))
		return
	}

	urls, err := h.svc.GenerateImages(c.Request.Context(), in)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, urlsResponse{URLs: nonNil(urls)})
}

// EditImage reads a multipart form. Missing parts are left empty so the
// service reports them in its own order.
func (h *Handler) EditImage(c *gin.Context) {
	in := adhook.EditInput{
		Prompt: c.PostForm("prompt"),
		Size:   c.PostForm("size"),
		N:      parseCount(c.PostForm("n")),
	}

	var err error
	if in.Image, err = readFormFile(c, "image"); err != nil {
		RespondError(c, apierr.Validation(err.Error()))
		return
	}
	if in.Mask, err = readFormFile(c, "mask"); err != nil {
		RespondError(c, apierr.Validation(err.Error()))
		return
	}

	urls, err := h.svc.EditImage(c.Request.Context(), in)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, urlsResponse{URLs: nonNil(urls)})
}

// parseCount returns models.DefaultCount for an empty field and 0 for a
// value that is not an integer.
func parseCount(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.DefaultCount
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// readFormFile returns nil when the part is absent and a non-nil empty slice
// for a zero-byte upload.
func readFormFile(c *gin.Context, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	return readPart(fh)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

type okResponse struct {
	OK     bool     `json:"ok"`
	Images []string `json:"images,omitempty"`
}

func (h *Handler) SaveAdCopy(c *gin.Context) {
	var in adhook.SaveCopyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, apierr.Validation(msgInvalidBody))
		return
	}

	if err := h.svc.SaveCopy(c.Request.Context(), in); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, okResponse{OK: true})
}

func (h *Handler) SaveImages(c *gin.Context) {
	var in adhook.SaveImagesInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, apierr.Validation(msgInvalidBody))
		return
	}

	images, err := h.svc.SaveImages(c.Request.Context(), in)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, okResponse{OK: true, Images: images})
}

type rowsResponse struct {
	Rows []*models.Generation `json:"rows"`
}

func (h *Handler) ListAdCopy(c *gin.Context) {
	rows, err := h.svc.ListGenerations(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	if rows == nil {
		rows = []*models.Generation{}
	}
	RespondOK(c, rowsResponse{Rows: rows})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
