package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-erp-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "phone", "role", "active", "created_at", "updated_at"})
}

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, full_name, phone, role, active, created_at, updated_at FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("0101234567@thebges.edu.in").
		WillReturnRows(userRows().AddRow("1", "0101234567@thebges.edu.in", "hash", "ASHA ROY", nil, string(models.RoleStudent), true, now, now))

	user, err := repo.FindByEmail(context.Background(), "0101234567@thebges.edu.in")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmailNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("FROM users WHERE email").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "missing@thebges.edu.in")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEnsureUserReturnsStoredAccount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO users .* ON CONFLICT \\(email\\) DO UPDATE SET email = users.email").
		WithArgs(sqlmock.AnyArg(), "0101234567@thebges.edu.in", "new-hash", "ASHA ROY", nil, models.RoleStudent, true, sqlmock.AnyArg()).
		WillReturnRows(userRows().AddRow("existing", "0101234567@thebges.edu.in", "old-hash", "ASHA ROY", nil, "STUDENT", true, now, now))

	user, err := repo.Ensure(context.Background(), &models.User{Email: "0101234567@thebges.edu.in", PasswordHash: "new-hash", FullName: "ASHA ROY", Role: models.RoleStudent, Active: true})
	require.NoError(t, err)
	assert.Equal(t, "existing", user.ID)
	assert.Equal(t, "old-hash", user.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}
