package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/noah-isme/college-erp-api/pkg/config"
)

// NewPostgres opens the ERP schema. writers is the number of goroutines that
// may reconcile marksheets or migrate legacy records at the same time; each
// holds a connection for a whole student group, so the pool never drops below
// writers plus one spare for the HTTP handlers.
func NewPostgres(cfg config.DatabaseConfig, writers int) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", PostgresDSN(cfg))
	if err != nil {
		return nil, err
	}

	open, idle := poolSize(cfg, writers)
	db.SetMaxOpenConns(open)
	db.SetMaxIdleConns(idle)
	// Imports arrive in bursts; idle writers are released well before the
	// next upload instead of pinning server slots for an hour.
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping erp database: %w", err)
	}

	return db, nil
}

// PostgresDSN renders a lib/pq keyword DSN tagged with the application name.
func PostgresDSN(cfg config.DatabaseConfig) string {
	parts := []string{
		"host=" + cfg.Host,
		fmt.Sprintf("port=%d", cfg.Port),
		"user=" + cfg.User,
		"password=" + quoteDSN(cfg.Password),
		"dbname=" + cfg.Name,
		"sslmode=" + cfg.SSLMode,
		"application_name=college-erp-api",
		"connect_timeout=10",
	}
	return strings.Join(parts, " ")
}

func poolSize(cfg config.DatabaseConfig, writers int) (int, int) {
	open := cfg.MaxOpenConns
	if floor := writers + 1; open < floor {
		open = floor
	}
	idle := cfg.MaxIdleConns
	if idle <= 0 || idle > open {
		idle = open
	}
	return open, idle
}

func quoteDSN(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	return "'" + strings.ReplaceAll(v, `'`, `\'`) + "'"
}
