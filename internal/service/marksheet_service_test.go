package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/college-erp-api/internal/models"
	appErrors "github.com/noah-isme/college-erp-api/pkg/errors"
	"github.com/noah-isme/college-erp-api/pkg/export"
)

type mockMarksheetStore struct {
	mu       sync.Mutex
	meta     *mockMetadataStore
	sheets   map[string]*models.Marksheet
	subjects map[string]map[string]*models.Subject
	clock    time.Time
	seq      int
}

func newMockMarksheetStore(meta *mockMetadataStore) *mockMarksheetStore {
	return &mockMarksheetStore{
		meta:     meta,
		sheets:   make(map[string]*models.Marksheet),
		subjects: make(map[string]map[string]*models.Subject),
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *mockMarksheetStore) Upsert(ctx context.Context, sheet *models.Marksheet) (*models.Marksheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sheets {
		if s.StudentID == sheet.StudentID && s.Semester == sheet.Semester && s.Year == sheet.Year {
			s.UpdatedByUserID = sheet.UpdatedByUserID
			clone := *s
			return &clone, nil
		}
	}
	m.seq++
	stored := *sheet
	stored.ID = fmt.Sprintf("ms-%d", m.seq)
	stored.CreatedAt = m.clock.Add(time.Duration(m.seq) * time.Minute)
	m.sheets[stored.ID] = &stored
	clone := stored
	return &clone, nil
}

func (m *mockMarksheetStore) UpdateResults(ctx context.Context, sheet *models.Marksheet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sheets[sheet.ID]
	if !ok {
		return sql.ErrNoRows
	}
	s.SGPA, s.CGPA, s.Classification, s.Remarks = sheet.SGPA, sheet.CGPA, sheet.Classification, sheet.Remarks
	return nil
}

func (m *mockMarksheetStore) FindByID(ctx context.Context, id string) (*models.Marksheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sheets[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *s
	return &clone, nil
}

func (m *mockMarksheetStore) ListByStudent(ctx context.Context, studentID string) ([]models.Marksheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Marksheet
	for _, s := range m.sheets {
		if s.StudentID == studentID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *mockMarksheetStore) UpsertSubject(ctx context.Context, subject *models.Subject) (*models.Subject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bySheet, ok := m.subjects[subject.MarksheetID]
	if !ok {
		bySheet = make(map[string]*models.Subject)
		m.subjects[subject.MarksheetID] = bySheet
	}
	stored := *subject
	if existing, ok := bySheet[subject.SubjectMetadataID]; ok {
		stored.ID = existing.ID
	} else {
		m.seq++
		stored.ID = fmt.Sprintf("sub-%d", m.seq)
	}
	bySheet[subject.SubjectMetadataID] = &stored
	clone := stored
	return &clone, nil
}

func (m *mockMarksheetStore) PruneSubjects(ctx context.Context, marksheetID string, keep []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keepSet := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	var removed int64
	for metaID := range m.subjects[marksheetID] {
		if _, ok := keepSet[metaID]; !ok {
			delete(m.subjects[marksheetID], metaID)
			removed++
		}
	}
	return removed, nil
}

func (m *mockMarksheetStore) ListSubjects(ctx context.Context, marksheetID string) ([]models.SubjectDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SubjectDetail
	for metaID, subject := range m.subjects[marksheetID] {
		var meta models.SubjectMetadata
		m.meta.mu.Lock()
		for _, candidate := range m.meta.items {
			if candidate.ID == metaID {
				meta = *candidate
			}
		}
		m.meta.mu.Unlock()
		out = append(out, models.SubjectDetail{Subject: *subject, Metadata: meta})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Metadata.MarksheetCode < out[j].Metadata.MarksheetCode })
	return out, nil
}

type mockStreamReader struct {
	streams map[string]models.Stream
}

func (m *mockStreamReader) FindByID(ctx context.Context, id string) (*models.Stream, error) {
	s, ok := m.streams[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (m *mockStreamReader) List(ctx context.Context) ([]models.Stream, error) {
	out := make([]models.Stream, 0, len(m.streams))
	for _, s := range m.streams {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type captureRenderer struct {
	doc export.Document
}

func (c *captureRenderer) Render(doc export.Document) ([]byte, error) {
	c.doc = doc
	return []byte("%PDF"), nil
}

var bscHonours = models.Stream{ID: "stream-1", DegreeName: "BSC", Discipline: "Science & Technology", Programme: models.ProgrammeHonours, Framework: models.FrameworkCCF}

type marksheetFixture struct {
	svc      *MarksheetService
	sheets   *mockMarksheetStore
	students *mockStudentStore
	meta     *mockMetadataStore
	pdf      *captureRenderer
}

func newMarksheetFixture() *marksheetFixture {
	meta := newMockMetadataStore()
	sheets := newMockMarksheetStore(meta)
	students := newMockStudentStore()
	pdf := &captureRenderer{}
	identity := NewStudentIdentityService(students, nil, zap.NewNop())
	svc := NewMarksheetService(
		sheets,
		&mockStreamReader{streams: map[string]models.Stream{bscHonours.ID: bscHonours}},
		identity,
		NewSubjectMetadataService(meta, nil),
		DefaultGradePolicy(),
		zap.NewNop(),
		pdf,
		nil,
	)
	return &marksheetFixture{svc: svc, sheets: sheets, students: students, meta: meta, pdf: pdf}
}

func semesterRow(semester int) models.MarksheetRow {
	row := physicsRow()
	row.Semester = semester
	row.Year1 = 2021 + (semester-1)/2
	row.PaperCode = fmt.Sprintf("PHY%d01", semester)
	return row
}

func TestReconcileGradesSubjectAndSheet(t *testing.T) {
	fx := newMarksheetFixture()
	seedIdentifier(fx.students, "2210210001")

	outcome, err := fx.svc.Reconcile(context.Background(), MarksheetGroup{Stream: bscHonours, Semester: 1, Year: 2021, Rows: []models.MarksheetRow{semesterRow(1)}})
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.SavedRows)

	sheet := outcome.Marksheet
	require.NotNil(t, sheet)
	assert.Equal(t, "8.455", *sheet.SGPA)
	assert.Equal(t, "Semester cleared.", *sheet.Remarks)
	assert.Nil(t, sheet.CGPA)
	assert.Equal(t, models.MarksheetSourceFileUpload, sheet.Source)
	require.Len(t, sheet.Subjects, 1)
	subject := sheet.Subjects[0]
	assert.Equal(t, 93.0, *subject.TotalMarks)
	assert.Equal(t, "33.820", *subject.TGP)
	assert.Equal(t, models.SubjectStatusPass, *subject.Status)
	assert.Equal(t, "stream-1", sheet.Stream.ID)
	assert.Equal(t, 2021, *fx.students.students["st-seed"].LastPassedYear)
}

func TestReconcileRerunDoesNotDuplicateSubjects(t *testing.T) {
	fx := newMarksheetFixture()
	seedIdentifier(fx.students, "2210210001")
	group := MarksheetGroup{Stream: bscHonours, Semester: 1, Year: 2021, Rows: []models.MarksheetRow{semesterRow(1)}}

	first, err := fx.svc.Reconcile(context.Background(), group)
	require.NoError(t, err)
	second, err := fx.svc.Reconcile(context.Background(), group)
	require.NoError(t, err)

	assert.Equal(t, first.Marksheet.ID, second.Marksheet.ID)
	assert.Len(t, second.Marksheet.Subjects, 1)
	assert.Len(t, fx.sheets.sheets, 1)
}

func TestReconcileDropsPapersMissingFromReupload(t *testing.T) {
	fx := newMarksheetFixture()
	seedIdentifier(fx.students, "2210210001")
	second := semesterRow(1)
	second.PaperCode = "PHY102"
	second.TheoryMarks = models.NewMarks(20)

	first, err := fx.svc.Reconcile(context.Background(), MarksheetGroup{Stream: bscHonours, Semester: 1, Year: 2021, Rows: []models.MarksheetRow{semesterRow(1), second}})
	require.NoError(t, err)
	require.Len(t, first.Marksheet.Subjects, 2)

	again, err := fx.svc.Reconcile(context.Background(), MarksheetGroup{Stream: bscHonours, Semester: 1, Year: 2021, Rows: []models.MarksheetRow{semesterRow(1)}})
	require.NoError(t, err)
	assert.Equal(t, first.Marksheet.ID, again.Marksheet.ID)
	require.Len(t, again.Marksheet.Subjects, 1)
	assert.Equal(t, "PHY101", again.Marksheet.Subjects[0].Metadata.MarksheetCode)
	assert.Equal(t, "8.455", *again.Marksheet.SGPA)
}

func TestReconcileKeepsPapersWhenRowsAreSkipped(t *testing.T) {
	fx := newMarksheetFixture()
	seedIdentifier(fx.students, "2210210001")
	second := semesterRow(1)
	second.PaperCode = "PHY102"

	_, err := fx.svc.Reconcile(context.Background(), MarksheetGroup{Stream: bscHonours, Semester: 1, Year: 2021, Rows: []models.MarksheetRow{semesterRow(1), second}})
	require.NoError(t, err)

	bad := semesterRow(1)
	bad.PaperCode = ""
	outcome, err := fx.svc.Reconcile(context.Background(), MarksheetGroup{Stream: bscHonours, Semester: 1, Year: 2021, Rows: []models.MarksheetRow{semesterRow(1), bad}})
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.SkippedRows)
	assert.Len(t, outcome.Marksheet.Subjects, 2)
}

func TestReconcileFinalSemesterCarriesCGPA(t *testing.T) {
	fx := newMarksheetFixture()
	seedIdentifier(fx.students, "2210210001")

	var third, sixth *models.MarksheetDetail
	for sem := 1; sem <= 6; sem++ {
		row := semesterRow(sem)
		outcome, err := fx.svc.Reconcile(context.Background(), MarksheetGroup{Stream: bscHonours, Semester: sem, Year: row.Year1, Rows: []models.MarksheetRow{row}})
		require.NoError(t, err)
		switch sem {
		case 3:
			third = outcome.Marksheet
		case 6:
			sixth = outcome.Marksheet
		}
	}

	require.NotNil(t, third.SGPA)
	assert.Nil(t, third.CGPA)
	assert.Nil(t, third.Classification)

	require.NotNil(t, sixth.CGPA)
	assert.Equal(t, "8.455", *sixth.CGPA)
	assert.Equal(t, "Excellent", *sixth.Classification)
	assert.Equal(t, "Qualified with Honours.", *sixth.Remarks)
	assert.True(t, fx.students.students["st-seed"].Alumni)
}

func TestReconcileFinalSemesterWithGaps(t *testing.T) {
	fx := newMarksheetFixture()
	seedIdentifier(fx.students, "2210210001")

	row := semesterRow(6)
	outcome, err := fx.svc.Reconcile(context.Background(), MarksheetGroup{Stream: bscHonours, Semester: 6, Year: row.Year1, Rows: []models.MarksheetRow{row}})
	require.NoError(t, err)
	assert.Equal(t, NotClearedClassification, *outcome.Marksheet.Classification)
}

func TestReconcileKeepsPopulatedRollNumber(t *testing.T) {
	fx := newMarksheetFixture()
	fx.students.students["st-seed"] = &models.Student{ID: "st-seed", UID: "BU0001"}
	fx.students.identifiers["st-seed"] = &models.AcademicIdentifier{
		ID:            "ai-seed",
		StudentID:     "st-seed",
		RollNumber:    str("2210210001"),
		RollNumberKey: str("2210210001"),
	}

	row := semesterRow(1)
	row.RollNumber = "221021-0001"
	row.RegistrationNumber = "0121111004519"
	outcome, err := fx.svc.Reconcile(context.Background(), MarksheetGroup{Stream: bscHonours, Semester: 1, Year: 2021, Rows: []models.MarksheetRow{row}})
	require.NoError(t, err)

	identifier := outcome.Marksheet.Identifier
	require.NotNil(t, identifier)
	assert.Equal(t, "2210210001", *identifier.RollNumber)
	assert.Equal(t, "012-1111-0045-19", *identifier.RegistrationNumber)
}

func TestReconcileSkipsRowsWithoutPaperCode(t *testing.T) {
	fx := newMarksheetFixture()
	seedIdentifier(fx.students, "2210210001")
	bad := semesterRow(1)
	bad.PaperCode = ""

	outcome, err := fx.svc.Reconcile(context.Background(), MarksheetGroup{Stream: bscHonours, Semester: 1, Year: 2021, Rows: []models.MarksheetRow{semesterRow(1), bad}})
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.SavedRows)
	assert.Equal(t, 1, outcome.SkippedRows)
}

func TestReconcileZeroFullMarksFailsGroup(t *testing.T) {
	fx := newMarksheetFixture()
	seedIdentifier(fx.students, "2210210001")
	row := semesterRow(1)
	row.FullMarksInternal, row.FullMarksTheory, row.FullMarksPractical = models.Marks{}, models.Marks{}, models.Marks{}

	_, err := fx.svc.Reconcile(context.Background(), MarksheetGroup{Stream: bscHonours, Semester: 1, Year: 2021, Rows: []models.MarksheetRow{row}})
	assert.ErrorIs(t, err, appErrors.ErrDataError)
}

func TestReconcileUnknownStudent(t *testing.T) {
	fx := newMarksheetFixture()
	_, err := fx.svc.Reconcile(context.Background(), MarksheetGroup{Stream: bscHonours, Semester: 1, Year: 2021, Rows: []models.MarksheetRow{semesterRow(1)}})
	assert.ErrorIs(t, err, appErrors.ErrStudentNotFound)
	assert.Empty(t, fx.sheets.sheets)
}

func TestMarksheetQueries(t *testing.T) {
	fx := newMarksheetFixture()
	seedIdentifier(fx.students, "2210210001")
	outcome, err := fx.svc.Reconcile(context.Background(), MarksheetGroup{Stream: bscHonours, Semester: 1, Year: 2021, Rows: []models.MarksheetRow{semesterRow(1)}})
	require.NoError(t, err)

	list, err := fx.svc.ListByStudent(context.Background(), "st-seed")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, outcome.Marksheet.ID, list[0].ID)

	_, err = fx.svc.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	body, name, err := fx.svc.RenderPDF(context.Background(), outcome.Marksheet.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), body)
	assert.Equal(t, "marksheet-sem1-2021-221021-0001.pdf", name)
	assert.Equal(t, "Statement of Marks", fx.pdf.doc.Title)
	require.Len(t, fx.pdf.doc.Table.Rows, 1)
	assert.Equal(t, "PHY101", fx.pdf.doc.Table.Rows[0]["Code"])
	assert.Equal(t, "93", fx.pdf.doc.Table.Rows[0]["Obtained"])
}
