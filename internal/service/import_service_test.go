package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-erp-api/internal/models"
	appErrors "github.com/noah-isme/college-erp-api/pkg/errors"
)

type reconcileCall struct {
	roll     string
	year     int
	semester int
	rows     int
}

type mockReconciler struct {
	mu    sync.Mutex
	calls []reconcileCall
	fail  map[string]error
}

func (m *mockReconciler) Reconcile(ctx context.Context, group MarksheetGroup) (*ReconcileOutcome, error) {
	roll := RollKey(group.Rows[0].RollNumber)
	m.mu.Lock()
	m.calls = append(m.calls, reconcileCall{roll: roll, year: group.Year, semester: group.Semester, rows: len(group.Rows)})
	m.mu.Unlock()
	if err, ok := m.fail[roll]; ok {
		return nil, err
	}
	return &ReconcileOutcome{
		SavedRows: len(group.Rows),
		Marksheet: &models.MarksheetDetail{Marksheet: models.Marksheet{ID: "ms-" + roll, StudentID: "st-" + roll}},
	}, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []models.ProgressEvent
}

func (r *recordingSink) Publish(ctx context.Context, event models.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingSink) stages() []models.ProgressStage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.ProgressStage, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Stage)
	}
	return out
}

type staticStreams []models.Stream

func (s staticStreams) List(ctx context.Context) ([]models.Stream, error) {
	return s, nil
}

func newImportService(reconciler *mockReconciler) *ImportService {
	svc := NewImportService(staticStreams{bscHonours}, nil, reconciler, 1, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func importRow(roll, paper string, year, semester int) models.MarksheetRow {
	row := physicsRow()
	row.RollNumber = roll
	row.PaperCode = paper
	row.Year1 = year
	row.Semester = semester
	return row
}

func TestImportGroupsRowsPerStudent(t *testing.T) {
	reconciler := &mockReconciler{}
	svc := newImportService(reconciler)

	result, err := svc.Run(context.Background(), ImportRun{JobID: "job-1", Rows: []models.MarksheetRow{
		importRow("R1", "PHY101", 2022, 1),
		importRow("R2", "PHY101", 2022, 1),
		importRow("R1", "CHE101", 2022, 1),
	}})
	require.NoError(t, err)

	require.Len(t, reconciler.calls, 2)
	assert.Equal(t, reconcileCall{roll: "R1", year: 2022, semester: 1, rows: 2}, reconciler.calls[0])
	assert.Equal(t, reconcileCall{roll: "R2", year: 2022, semester: 1, rows: 1}, reconciler.calls[1])
	assert.Len(t, result.Succeeded, 2)
	assert.Empty(t, result.Failed)
	assert.Zero(t, result.Skipped)
	assert.Equal(t, "ms-R1", result.Succeeded[0].MarksheetID)
	assert.Equal(t, 2, result.Succeeded[0].AffectedRowCount)
}

func TestImportProcessesBucketsInYearAndSemesterOrder(t *testing.T) {
	reconciler := &mockReconciler{}
	svc := newImportService(reconciler)

	_, err := svc.Run(context.Background(), ImportRun{Rows: []models.MarksheetRow{
		importRow("R1", "PHY201", 2023, 2),
		importRow("R1", "PHY301", 2022, 3),
		importRow("R1", "PHY101", 2022, 1),
	}})
	require.NoError(t, err)

	require.Len(t, reconciler.calls, 3)
	assert.Equal(t, []int{2022, 2022, 2023}, []int{reconciler.calls[0].year, reconciler.calls[1].year, reconciler.calls[2].year})
	assert.Equal(t, []int{1, 3, 2}, []int{reconciler.calls[0].semester, reconciler.calls[1].semester, reconciler.calls[2].semester})
}

func TestImportReportsUnknownStreamOncePerGroup(t *testing.T) {
	reconciler := &mockReconciler{}
	svc := newImportService(reconciler)

	ba := importRow("R9", "ENG101", 2022, 1)
	ba.Stream = "BA"
	baSecond := importRow("R9", "HIS101", 2022, 1)
	baSecond.Stream = "BA"

	result, err := svc.Run(context.Background(), ImportRun{Rows: []models.MarksheetRow{ba, baSecond, importRow("R1", "PHY101", 2022, 1)}})
	require.NoError(t, err)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, appErrors.ErrInvalidInput.Code, result.Failed[0].Code)
	assert.Equal(t, "R9", result.Failed[0].Key.RollNumber)
	assert.Contains(t, result.Failed[0].Error, "BA/HONOURS/CCF")
	assert.Len(t, result.Succeeded, 1)
}

func TestImportCollectsGroupFailures(t *testing.T) {
	reconciler := &mockReconciler{fail: map[string]error{
		"R1": appErrors.Clone(appErrors.ErrStudentNotFound, "registration number is unknown"),
	}}
	svc := newImportService(reconciler)

	result, err := svc.Run(context.Background(), ImportRun{Rows: []models.MarksheetRow{
		importRow("R1", "PHY101", 2022, 1),
		importRow("R2", "PHY101", 2022, 1),
	}})
	require.NoError(t, err)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, appErrors.ErrStudentNotFound.Code, result.Failed[0].Code)
	assert.Equal(t, 2022, result.Failed[0].Key.Year)
	assert.Equal(t, 1, result.Failed[0].Key.Semester)
	require.Len(t, result.Succeeded, 1)
	assert.Equal(t, "R2", result.Succeeded[0].RollNumber)
	assert.True(t, result.PartiallyFailed())
}

func TestImportRejectsInvalidRowsBeforeWriting(t *testing.T) {
	overFull := importRow("R1", "PHY101", 2022, 1)
	overFull.TheoryMarks = models.NewMarks(80)

	noRoll := importRow(" -/ ", "PHY101", 2022, 1)

	badCourse := importRow("R1", "PHY101", 2022, 1)
	badCourse.Course = "masters"

	badSemester := importRow("R1", "PHY101", 2022, 7)

	cases := []struct {
		name string
		rows []models.MarksheetRow
		want string
	}{
		{"marks above full marks", []models.MarksheetRow{overFull}, "theory_marks 80 exceeds full marks 70"},
		{"roll without alphanumerics", []models.MarksheetRow{noRoll}, "RollNumber"},
		{"unknown course", []models.MarksheetRow{badCourse}, "Course failed oneof"},
		{"semester out of range", []models.MarksheetRow{badSemester}, "Semester failed max=6"},
		{"duplicate paper", []models.MarksheetRow{importRow("R1", "PHY101", 2022, 1), importRow("r-1", " phy101", 2022, 1)}, "duplicates row 1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reconciler := &mockReconciler{}
			svc := newImportService(reconciler)

			_, err := svc.Run(context.Background(), ImportRun{Rows: tc.rows})
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
			assert.Contains(t, err.Error(), tc.want)
			assert.Empty(t, reconciler.calls)
		})
	}
}

func TestImportChecksMarksAgainstStoredMetadata(t *testing.T) {
	store := newMockMetadataStore()
	_, err := store.Upsert(context.Background(), &models.SubjectMetadata{
		StreamID:          bscHonours.ID,
		Semester:          1,
		MarksheetCode:     "PHY101",
		Name:              "PHYSICS I",
		FullMarksInternal: 10,
		FullMarksTheory:   50,
		FullMarks:         60,
		Credit:            4,
	})
	require.NoError(t, err)

	row := importRow("R1", "PHY101", 2022, 1)
	row.FullMarksInternal, row.FullMarksTheory, row.FullMarksPractical = models.Marks{}, models.Marks{}, models.Marks{}
	row.PracticalMarks = models.Marks{}

	reconciler := &mockReconciler{}
	svc := NewImportService(staticStreams{bscHonours}, store, reconciler, 1, nil, nil, nil)
	_, err = svc.Run(context.Background(), ImportRun{Rows: []models.MarksheetRow{row}})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Contains(t, err.Error(), "internal_marks 18 exceeds stored full marks 10")
	assert.Empty(t, reconciler.calls)

	row.InternalMarks = models.NewMarks(9)
	row.TheoryMarks = models.NewMarks(45)
	_, err = svc.Run(context.Background(), ImportRun{Rows: []models.MarksheetRow{row, importRow("R2", "PHY999", 2022, 1)}})
	require.NoError(t, err)
	assert.Len(t, reconciler.calls, 2)
}

func TestImportAcceptsAbsentMarks(t *testing.T) {
	row := importRow("R1", "PHY101", 2022, 1)
	row.TheoryMarks = models.Marks{Present: true, Absent: true}
	reconciler := &mockReconciler{}

	_, err := newImportService(reconciler).Run(context.Background(), ImportRun{Rows: []models.MarksheetRow{row}})
	require.NoError(t, err)
	assert.Len(t, reconciler.calls, 1)
}

func TestImportRejectsEmptyUpload(t *testing.T) {
	_, err := newImportService(&mockReconciler{}).Run(context.Background(), ImportRun{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestImportEmitsProgressStages(t *testing.T) {
	sink := &recordingSink{}
	_, err := newImportService(&mockReconciler{}).Run(context.Background(), ImportRun{
		JobID: "job-7",
		Rows:  []models.MarksheetRow{importRow("R1", "PHY101", 2022, 1)},
		Sink:  sink,
	})
	require.NoError(t, err)

	assert.Equal(t, []models.ProgressStage{
		models.StageReading,
		models.StageCleaningData,
		models.StageValidatingData,
		models.StageProcessingData,
		models.StageProcessingData,
		models.StageProcessingData,
		models.StageCompleted,
	}, sink.stages())
	assert.Equal(t, "job-7", sink.events[0].JobID)
	assert.Contains(t, sink.events[4].Message, "Student R1 processed")
	assert.Contains(t, sink.events[5].Message, "Finished 2022 semester 1")
}

func TestImportPublishesEachStudentAndSemester(t *testing.T) {
	reconciler := &mockReconciler{fail: map[string]error{
		"R3": appErrors.Clone(appErrors.ErrStudentNotFound, "registration number is unknown"),
	}}
	sink := &recordingSink{}

	_, err := newImportService(reconciler).Run(context.Background(), ImportRun{
		JobID: "job-8",
		Sink:  sink,
		Rows: []models.MarksheetRow{
			importRow("R1", "PHY101", 2022, 1),
			importRow("R2", "PHY101", 2022, 1),
			importRow("R1", "PHY201", 2022, 2),
			importRow("R3", "PHY201", 2022, 2),
		},
	})
	require.NoError(t, err)

	var messages []string
	for _, event := range sink.events {
		if event.Stage == models.StageProcessingData {
			messages = append(messages, event.Message)
		}
	}
	require.Len(t, messages, 7)
	assert.Contains(t, messages[1], "Student R1 processed for 2022 BSC/HONOURS/CCF semester 1")
	assert.Contains(t, messages[2], "Student R2 processed")
	assert.Equal(t, "Finished 2022 semester 1 of BSC/HONOURS/CCF: 2 students processed, 0 failed", messages[3])
	assert.Contains(t, messages[4], "Student R1 processed for 2022 BSC/HONOURS/CCF semester 2")
	assert.Contains(t, messages[5], "Student R3 failed")
	assert.Contains(t, messages[5], "registration number is unknown")
	assert.Equal(t, "Finished 2022 semester 2 of BSC/HONOURS/CCF: 1 students processed, 1 failed", messages[6])
}

func TestImportStopsOnCancelledContext(t *testing.T) {
	reconciler := &mockReconciler{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newImportService(reconciler).Run(ctx, ImportRun{Rows: []models.MarksheetRow{importRow("R1", "PHY101", 2022, 1)}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reconciler.calls)
}

func TestCleanRowsNumbersAndNormalizes(t *testing.T) {
	rows := CleanRows([]models.MarksheetRow{{RollNumber: " r 1 ", Stream: " bsc ", Course: "honours", Framework: "ccf", PaperCode: " phy101 "}})
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Index)
	assert.Equal(t, "BSC", rows[0].Stream)
	assert.Equal(t, "HONOURS", rows[0].Course)
	assert.Equal(t, "CCF", rows[0].Framework)
	assert.Equal(t, "PHY101", rows[0].PaperCode)
}
