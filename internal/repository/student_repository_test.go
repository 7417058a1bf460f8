package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-erp-api/internal/models"
)

func identifierRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "registration_number", "roll_number", "roll_number_key", "uid", "stream_id", "created_at", "updated_at"})
}

func studentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "legacy_student_id", "uid", "name", "last_passed_year", "active", "alumni", "created_at", "updated_at"})
}

func TestStudentRepositoryFindIdentifierByRollKey(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, registration_number, roll_number, roll_number_key, uid, stream_id, created_at, updated_at FROM academic_identifiers WHERE roll_number_key = $1 LIMIT 1")).
		WithArgs("B0010012").
		WillReturnRows(identifierRows().AddRow("ai-1", "st-1", nil, "B-001-0012", "B0010012", nil, nil, now, now))

	identifier, err := repo.FindIdentifierByRollKey(context.Background(), "B0010012")
	require.NoError(t, err)
	assert.Equal(t, "st-1", identifier.StudentID)
	require.NotNil(t, identifier.RollNumber)
	assert.Equal(t, "B-001-0012", *identifier.RollNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("FROM students WHERE id = \\$1").WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpsertKeepsExistingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO students .* ON CONFLICT \\(uid\\) DO UPDATE").
		WithArgs(sqlmock.AnyArg(), nil, nil, "0101234567", "ASHA ROY", true, false, sqlmock.AnyArg()).
		WillReturnRows(studentRows().AddRow("st-1", nil, int64(77), "0101234567", "ASHA ROY", 2023, true, false, now, now))

	stored, err := repo.Upsert(context.Background(), &models.Student{UID: "0101234567", Name: "ASHA ROY", Active: true})
	require.NoError(t, err)
	assert.Equal(t, "st-1", stored.ID)
	require.NotNil(t, stored.LegacyStudentID)
	assert.Equal(t, int64(77), *stored.LegacyStudentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpsertIdentifierFillsEmptyFieldsOnly(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	roll := "242101-0099"
	key := "2421010099"
	now := time.Now()
	mock.ExpectQuery("INSERT INTO academic_identifiers .* ON CONFLICT \\(student_id\\) DO UPDATE SET\\s+registration_number = COALESCE\\(NULLIF\\(academic_identifiers.registration_number, ''\\), EXCLUDED.registration_number\\)").
		WithArgs(sqlmock.AnyArg(), "st-1", nil, roll, key, nil, nil, sqlmock.AnyArg()).
		WillReturnRows(identifierRows().AddRow("ai-1", "st-1", nil, "242101-0012", "2421010012", nil, nil, now, now))

	stored, err := repo.UpsertIdentifier(context.Background(), &models.AcademicIdentifier{StudentID: "st-1", RollNumber: &roll, RollNumberKey: &key})
	require.NoError(t, err)
	assert.Equal(t, "242101-0012", *stored.RollNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	year := 2024
	yes := true
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET last_passed_year = COALESCE($2, last_passed_year)")).
		WithArgs("st-1", year, yes, yes, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "st-1", &year, &yes, &yes))
	assert.NoError(t, mock.ExpectationsWereMet())
}
