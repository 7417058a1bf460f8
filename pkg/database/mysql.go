package database

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/college-erp-api/pkg/config"
)

// NewLegacyMySQL opens the legacy admissions database. The pipeline only reads
// from it, so the pool is kept small.
func NewLegacyMySQL(cfg config.LegacyDatabaseConfig) (*sqlx.DB, error) {
	dsn := LegacyDSN(cfg)

	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxLifetime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping legacy database: %w", err)
	}

	return db, nil
}

// LegacyDSN renders the go-sql-driver DSN for the legacy schema.
func LegacyDSN(cfg config.LegacyDatabaseConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Loc = time.Local
	return mc.FormatDSN()
}
