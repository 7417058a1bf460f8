package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/college-erp-api/pkg/config"
)

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "erp", Password: "it's secret", Name: "college", SSLMode: "disable"})

	assert.Contains(t, dsn, "host=db port=5432 user=erp")
	assert.Contains(t, dsn, `password='it\'s secret'`)
	assert.Contains(t, dsn, "dbname=college sslmode=disable")
	assert.Contains(t, dsn, "application_name=college-erp-api")

	plain := PostgresDSN(config.DatabaseConfig{Password: "secret"})
	assert.Contains(t, plain, "password=secret ")
}

func TestPoolSizeCoversImportWriters(t *testing.T) {
	open, idle := poolSize(config.DatabaseConfig{MaxOpenConns: 10, MaxIdleConns: 5}, 4)
	assert.Equal(t, 10, open)
	assert.Equal(t, 5, idle)

	open, idle = poolSize(config.DatabaseConfig{MaxOpenConns: 4, MaxIdleConns: 8}, 12)
	assert.Equal(t, 13, open)
	assert.Equal(t, 8, idle)

	open, idle = poolSize(config.DatabaseConfig{}, 0)
	assert.Equal(t, 1, open)
	assert.Equal(t, 1, idle)
}
