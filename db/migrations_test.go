package db

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsAreEmbedded(t *testing.T) {
	names, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "migrations/0001_marksheet_pipeline.up.sql", names[0])
}

func TestApplyExecutesEveryMigration(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer raw.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS subject_metadata").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Apply(context.Background(), sqlx.NewDb(raw, "sqlmock")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
