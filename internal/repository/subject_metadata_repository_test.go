package repository

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-erp-api/internal/models"
)

func metadataRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "stream_id", "semester", "marksheet_code", "name", "category",
		"full_marks_internal", "full_marks_theory", "full_marks_practical", "full_marks_project", "full_marks_viva", "full_marks",
		"credit_internal", "credit_theory", "credit_practical", "credit_project", "credit_viva", "credit"})
}

func TestSubjectMetadataRepositoryFindMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectMetadataRepository(db)

	mock.ExpectQuery("FROM subject_metadata WHERE stream_id = \\$1 AND semester = \\$2 AND marksheet_code = \\$3").
		WithArgs("s-1", 3, "PHY101").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), "s-1", 3, "PHY101")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectMetadataRepositoryUpsertReturnsStoredRecord(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectMetadataRepository(db)

	mock.ExpectQuery("INSERT INTO subject_metadata .* ON CONFLICT \\(stream_id, semester, marksheet_code\\) DO UPDATE SET marksheet_code = subject_metadata.marksheet_code").
		WillReturnRows(metadataRows().AddRow("sm-existing", "s-1", 3, "PHY101", "PHYSICS I", nil, 20.0, 70.0, 20.0, 0.0, 0.0, 110.0, 0.0, 0.0, 0.0, 0.0, 0.0, 4.0))

	stored, err := repo.Upsert(context.Background(), &models.SubjectMetadata{StreamID: "s-1", Semester: 3, MarksheetCode: "PHY101", Name: "PHY101", FullMarks: 90})
	require.NoError(t, err)
	assert.Equal(t, "sm-existing", stored.ID)
	assert.Equal(t, 110.0, stored.FullMarks)
	assert.NoError(t, mock.ExpectationsWereMet())
}
