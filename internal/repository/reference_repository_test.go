package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-erp-api/internal/models"
)

func TestReferenceRepositoryEnsure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	legacyID := int64(4)
	mock.ExpectQuery("INSERT INTO religions \\(id, name, code, legacy_id\\) .* ON CONFLICT \\(name\\) DO UPDATE SET code = COALESCE\\(religions.code, EXCLUDED.code\\)").
		WithArgs(sqlmock.AnyArg(), "HINDU", nil, legacyID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "legacy_id"}).AddRow("r-1", "HINDU", nil, legacyID))

	row, err := repo.Ensure(context.Background(), models.RefReligion, "HINDU", nil, &legacyID)
	require.NoError(t, err)
	assert.Equal(t, "r-1", row.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceRepositoryRejectsUnknownTable(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	_, err := repo.Ensure(context.Background(), models.ReferenceTable("users"), "x", nil, nil)
	assert.Error(t, err)
	_, err = repo.FindByName(context.Background(), models.ReferenceTable("users"), "x")
	assert.Error(t, err)
}

func TestReferenceRepositoryEnsureBoard(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	mock.ExpectQuery("INSERT INTO boards .* ON CONFLICT \\(name\\)").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "degree_id", "passing_marks", "code"}).AddRow("b-1", "WBCHSE", nil, 30.0, nil))

	board, err := repo.EnsureBoard(context.Background(), &models.Board{Name: "WBCHSE"})
	require.NoError(t, err)
	assert.Equal(t, "b-1", board.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceRepositoryEnsureBankBranch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	legacyID := int64(14)
	mock.ExpectQuery("INSERT INTO bank_branches .* ON CONFLICT \\(bank_id, name\\)").
		WithArgs(sqlmock.AnyArg(), "bank-1", "COLLEGE STREET", int64(14)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "bank_id", "name", "legacy_id"}).AddRow("br-1", "bank-1", "COLLEGE STREET", 14))

	branch, err := repo.EnsureBankBranch(context.Background(), &models.BankBranch{BankID: "bank-1", Name: "COLLEGE STREET", LegacyID: &legacyID})
	require.NoError(t, err)
	assert.Equal(t, "br-1", branch.ID)
	assert.Equal(t, int64(14), *branch.LegacyID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
