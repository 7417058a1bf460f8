package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-erp-api/internal/models"
)

func marksheetRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "semester", "year", "sgpa", "cgpa", "classification", "remarks", "source", "created_by_user_id", "updated_by_user_id", "created_at", "updated_at"})
}

func TestMarksheetRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMarksheetRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO marksheets .* ON CONFLICT \\(student_id, semester, year\\) DO UPDATE").
		WithArgs(sqlmock.AnyArg(), "st-1", 6, 2024, models.MarksheetSourceFileUpload, nil, sqlmock.AnyArg()).
		WillReturnRows(marksheetRows().AddRow("ms-1", "st-1", 6, 2024, nil, nil, nil, nil, "FILE_UPLOAD", nil, nil, now, now))

	sheet, err := repo.Upsert(context.Background(), &models.Marksheet{StudentID: "st-1", Semester: 6, Year: 2024, Source: models.MarksheetSourceFileUpload})
	require.NoError(t, err)
	assert.Equal(t, "ms-1", sheet.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarksheetRepositoryUpdateResults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMarksheetRepository(db)

	sgpa := "8.455"
	mock.ExpectExec("UPDATE marksheets SET sgpa = \\?, cgpa = \\?").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateResults(context.Background(), &models.Marksheet{ID: "ms-1", SGPA: &sgpa}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarksheetRepositoryUpsertSubjectIsIdempotentOnNaturalKey(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMarksheetRepository(db)

	now := time.Now()
	cols := []string{"id", "marksheet_id", "subject_metadata_id", "year1", "year2", "internal_marks", "theory_marks", "practical_marks", "project_marks", "viva_marks",
		"total_marks", "letter_grade", "status", "ngp", "tgp", "created_at", "updated_at"}
	mock.ExpectQuery("INSERT INTO marksheet_subjects .* ON CONFLICT \\(marksheet_id, subject_metadata_id\\) DO UPDATE").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("sub-1", "ms-1", "sm-1", 2024, nil, 18.0, 55.0, 20.0, nil, nil, 93.0, "A+", "PASS", "8.455", "33.820", now, now))

	total := 93.0
	stored, err := repo.UpsertSubject(context.Background(), &models.Subject{MarksheetID: "ms-1", SubjectMetadataID: "sm-1", Year1: 2024, TotalMarks: &total})
	require.NoError(t, err)
	assert.Equal(t, "sub-1", stored.ID)
	require.NotNil(t, stored.Status)
	assert.Equal(t, models.SubjectStatusPass, *stored.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarksheetRepositoryListSubjects(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMarksheetRepository(db)

	now := time.Now()
	cols := []string{"id", "marksheet_id", "subject_metadata_id", "year1", "year2", "internal_marks", "theory_marks", "practical_marks", "project_marks", "viva_marks",
		"total_marks", "letter_grade", "status", "ngp", "tgp", "created_at", "updated_at",
		"sm_stream_id", "sm_semester", "sm_marksheet_code", "sm_name", "sm_category", "sm_full_marks_internal", "sm_full_marks_theory",
		"sm_full_marks_practical", "sm_full_marks_project", "sm_full_marks_viva", "sm_full_marks", "sm_credit"}
	mock.ExpectQuery("FROM marksheet_subjects s\\s+JOIN subject_metadata m").
		WithArgs("ms-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("sub-1", "ms-1", "sm-1", 2024, nil, 18.0, 55.0, 20.0, nil, nil, 93.0, "A+", "PASS", "8.455", "33.820", now, now,
			"s-1", 3, "PHY101", "PHYSICS I", nil, 20.0, 70.0, 20.0, 0.0, 0.0, 110.0, 4.0))

	subjects, err := repo.ListSubjects(context.Background(), "ms-1")
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "sm-1", subjects[0].Metadata.ID)
	assert.Equal(t, 110.0, subjects[0].Metadata.FullMarks)
	assert.Equal(t, 4.0, subjects[0].Metadata.Credit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarksheetRepositoryPruneSubjectsKeepsListedMetadata(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMarksheetRepository(db)

	mock.ExpectExec("DELETE FROM marksheet_subjects WHERE marksheet_id = \\$1 AND NOT \\(subject_metadata_id = ANY\\(\\$2\\)\\)").
		WithArgs("ms-1", "{\"meta-1\",\"meta-2\"}").
		WillReturnResult(sqlmock.NewResult(0, 2))

	removed, err := repo.PruneSubjects(context.Background(), "ms-1", []string{"meta-1", "meta-2"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
