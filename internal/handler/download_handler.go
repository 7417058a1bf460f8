package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/college-erp-api/internal/service"
	appErrors "github.com/noah-isme/college-erp-api/pkg/errors"
	"github.com/noah-isme/college-erp-api/pkg/response"
)

type downloadResolver interface {
	Resolve(ctx context.Context, token string) (*service.Download, error)
}

// DownloadHandler streams artifacts behind signed links. The token is the
// credential, so the route sits outside the JWT group.
type DownloadHandler struct {
	downloads downloadResolver
}

// NewDownloadHandler constructs handler.
func NewDownloadHandler(downloads downloadResolver) *DownloadHandler {
	return &DownloadHandler{downloads: downloads}
}

// Download godoc
// @Summary Fetch a generated failure report or marksheet PDF
// @Tags Downloads
// @Produce application/octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /downloads/{token} [get]
func (h *DownloadHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	dl, err := h.downloads.Resolve(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer dl.File.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", dl.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, dl.Size, dl.ContentType, dl.File, nil)
}
