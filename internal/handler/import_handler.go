package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/college-erp-api/internal/models"
	appErrors "github.com/noah-isme/college-erp-api/pkg/errors"
	"github.com/noah-isme/college-erp-api/pkg/response"
)

type importJobService interface {
	CreateJob(ctx context.Context, req models.ImportRequest, actorID string) (*models.ImportJob, error)
	CreateLegacyJob(ctx context.Context, req models.LegacyMigrationRequest, actorID string) (*models.ImportJob, error)
	GetJob(ctx context.Context, id string) (*models.ImportJob, error)
	FailuresCSV(ctx context.Context, id string) ([]byte, error)
	FailuresLink(ctx context.Context, id string) (*models.DownloadLink, error)
}

// ImportHandler exposes bulk marksheet imports and legacy migrations.
type ImportHandler struct {
	jobs importJobService
}

// NewImportHandler constructs handler.
func NewImportHandler(jobs importJobService) *ImportHandler {
	return &ImportHandler{jobs: jobs}
}

// CreateImport godoc
// @Summary Queue a bulk marksheet import
// @Tags Imports
// @Accept json
// @Produce json
// @Param payload body models.ImportRequest true "Marksheet rows"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /marksheets/imports [post]
func (h *ImportHandler) CreateImport(c *gin.Context) {
	var req models.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import payload"))
		return
	}
	job, err := h.jobs.CreateJob(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// ImportStatus godoc
// @Summary Import or migration job status
// @Tags Imports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /marksheets/imports/{id} [get]
func (h *ImportHandler) ImportStatus(c *gin.Context) {
	job, err := h.jobs.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job)
}

// ImportFailures godoc
// @Summary Download the failed student groups of a finished job
// @Tags Imports
// @Produce text/csv
// @Param id path string true "Job ID"
// @Success 200 {file} file
// @Failure 409 {object} response.Envelope
// @Router /marksheets/imports/{id}/failures.csv [get]
func (h *ImportHandler) ImportFailures(c *gin.Context) {
	id := c.Param("id")
	body, err := h.jobs.FailuresCSV(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, "import-"+id+"-failures.csv", "text/csv", body)
}

// ImportFailuresLink godoc
// @Summary Signed link to the failure report of a finished job
// @Tags Imports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /marksheets/imports/{id}/failures/link [get]
func (h *ImportHandler) ImportFailuresLink(c *gin.Context) {
	link, err := h.jobs.FailuresLink(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link)
}

// CreateMigration godoc
// @Summary Queue a legacy admissions migration
// @Tags Legacy
// @Accept json
// @Produce json
// @Param payload body models.LegacyMigrationRequest false "Shift and batch overrides"
// @Success 202 {object} response.Envelope
// @Router /legacy/migrations [post]
func (h *ImportHandler) CreateMigration(c *gin.Context) {
	var req models.LegacyMigrationRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid migration request"))
		return
	}
	job, err := h.jobs.CreateLegacyJob(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}
