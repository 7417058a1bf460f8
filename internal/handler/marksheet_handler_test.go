package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-erp-api/internal/models"
	appErrors "github.com/noah-isme/college-erp-api/pkg/errors"
)

type marksheetServiceMock struct {
	detail  *models.MarksheetDetail
	details []models.MarksheetDetail
	pdf     []byte
	link    *models.DownloadLink
	err     error
}

func (m *marksheetServiceMock) FindByID(ctx context.Context, id string) (*models.MarksheetDetail, error) {
	return m.detail, m.err
}

func (m *marksheetServiceMock) ListByStudent(ctx context.Context, studentID string) ([]models.MarksheetDetail, error) {
	return m.details, m.err
}

func (m *marksheetServiceMock) RenderPDF(ctx context.Context, id string) ([]byte, string, error) {
	return m.pdf, "marksheet-sem1-2021.pdf", m.err
}

func (m *marksheetServiceMock) PDFLink(ctx context.Context, id string) (*models.DownloadLink, error) {
	return m.link, m.err
}

func TestMarksheetHandlerGet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sgpa := "8.455"
	handler := NewMarksheetHandler(&marksheetServiceMock{detail: &models.MarksheetDetail{Marksheet: models.Marksheet{ID: "ms-1", Semester: 1, SGPA: &sgpa}}})

	c, w := newGinContext(http.MethodGet, "/marksheets/ms-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "ms-1"}}

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data models.MarksheetDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "8.455", *body.Data.SGPA)
}

func TestMarksheetHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMarksheetHandler(&marksheetServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "marksheet not found")})

	c, w := newGinContext(http.MethodGet, "/marksheets/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarksheetHandlerPDF(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMarksheetHandler(&marksheetServiceMock{pdf: []byte("%PDF-1.3")})

	c, w := newGinContext(http.MethodGet, "/marksheets/ms-1/pdf", nil)
	c.Params = gin.Params{{Key: "id", Value: "ms-1"}}

	handler.PDF(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "marksheet-sem1-2021.pdf")
}

func TestMarksheetHandlerPDFLink(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMarksheetHandler(&marksheetServiceMock{link: &models.DownloadLink{URL: "/api/v1/downloads/tok", Filename: "marksheet-sem1-2021.pdf"}})

	c, w := newGinContext(http.MethodGet, "/marksheets/ms-1/pdf/link", nil)
	c.Params = gin.Params{{Key: "id", Value: "ms-1"}}

	handler.PDFLink(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"url":"/api/v1/downloads/tok"`)
}

func TestMarksheetHandlerListByStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMarksheetHandler(&marksheetServiceMock{details: []models.MarksheetDetail{
		{Marksheet: models.Marksheet{ID: "ms-1", Semester: 1}},
		{Marksheet: models.Marksheet{ID: "ms-2", Semester: 2}},
	}})

	c, w := newGinContext(http.MethodGet, "/students/stu-1/marksheets", nil)
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}

	handler.ListByStudent(c)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []models.MarksheetDetail `json:"data"`
		Meta map[string]interface{}   `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	require.EqualValues(t, 2, body.Meta["count"])
}
