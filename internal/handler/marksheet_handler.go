package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/college-erp-api/internal/models"
	"github.com/noah-isme/college-erp-api/pkg/response"
)

type marksheetReader interface {
	FindByID(ctx context.Context, id string) (*models.MarksheetDetail, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.MarksheetDetail, error)
	RenderPDF(ctx context.Context, id string) ([]byte, string, error)
	PDFLink(ctx context.Context, id string) (*models.DownloadLink, error)
}

// MarksheetHandler serves formatted marksheets.
type MarksheetHandler struct {
	marksheets marksheetReader
}

// NewMarksheetHandler constructs handler.
func NewMarksheetHandler(marksheets marksheetReader) *MarksheetHandler {
	return &MarksheetHandler{marksheets: marksheets}
}

// Get godoc
// @Summary Marksheet with subjects and grades
// @Tags Marksheets
// @Produce json
// @Param id path string true "Marksheet ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /marksheets/{id} [get]
func (h *MarksheetHandler) Get(c *gin.Context) {
	detail, err := h.marksheets.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// PDF godoc
// @Summary Printable statement of marks
// @Tags Marksheets
// @Produce application/pdf
// @Param id path string true "Marksheet ID"
// @Success 200 {file} file
// @Router /marksheets/{id}/pdf [get]
func (h *MarksheetHandler) PDF(c *gin.Context) {
	body, name, err := h.marksheets.RenderPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, name, "application/pdf", body)
}

// PDFLink godoc
// @Summary Signed, time limited link to the marksheet PDF
// @Tags Marksheets
// @Produce json
// @Param id path string true "Marksheet ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /marksheets/{id}/pdf/link [get]
func (h *MarksheetHandler) PDFLink(c *gin.Context) {
	link, err := h.marksheets.PDFLink(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link)
}

// ListByStudent godoc
// @Summary Every marksheet of a student
// @Tags Marksheets
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/marksheets [get]
func (h *MarksheetHandler) ListByStudent(c *gin.Context) {
	details, err := h.marksheets.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, map[string]interface{}{"count": len(details)})
}
