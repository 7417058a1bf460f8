package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database       DatabaseConfig
	LegacyDatabase LegacyDatabaseConfig
	Redis          RedisConfig
	JWT            JWTConfig
	CORS           CORSConfig
	Log            LogConfig
	Imports        ImportsConfig
	Legacy         LegacyMigrationConfig
	Downloads      DownloadsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// LegacyDatabaseConfig points at the read-only MySQL admissions schema.
type LegacyDatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	MaxOpenConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ImportsConfig tunes marksheet bulk imports.
type ImportsConfig struct {
	Workers      int
	QueueWorkers int
	QueueBuffer  int
	ResultTTL    time.Duration
}

// DownloadsConfig controls where generated failure reports and marksheet PDFs
// are kept and how long their signed links stay valid. An empty secret falls
// back to the JWT secret.
type DownloadsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupInterval time.Duration
}

// LegacyMigrationConfig tunes the legacy admissions migration.
type LegacyMigrationConfig struct {
	BatchSize   int
	ShiftID     int
	Workers     int
	EmailDomain string
	Framework   string
	BcryptCost  int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.LegacyDatabase = LegacyDatabaseConfig{
		Host:         v.GetString("LEGACY_DB_HOST"),
		Port:         v.GetInt("LEGACY_DB_PORT"),
		User:         v.GetString("LEGACY_DB_USER"),
		Password:     v.GetString("LEGACY_DB_PASSWORD"),
		Name:         v.GetString("LEGACY_DB_NAME"),
		MaxOpenConns: v.GetInt("LEGACY_DB_MAX_OPEN_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Imports = ImportsConfig{
		Workers:      positive(v.GetInt("IMPORT_WORKERS"), 1),
		QueueWorkers: positive(v.GetInt("IMPORT_QUEUE_WORKERS"), 1),
		QueueBuffer:  positive(v.GetInt("IMPORT_QUEUE_BUFFER"), 16),
		ResultTTL:    parseDuration(v.GetString("IMPORT_RESULT_TTL"), 24*time.Hour),
	}

	cfg.Legacy = LegacyMigrationConfig{
		BatchSize:   positive(v.GetInt("LEGACY_BATCH_SIZE"), 500),
		ShiftID:     v.GetInt("LEGACY_SHIFT_ID"),
		Workers:     positive(v.GetInt("LEGACY_WORKERS"), 4),
		EmailDomain: v.GetString("LEGACY_EMAIL_DOMAIN"),
		Framework:   strings.ToUpper(v.GetString("LEGACY_FRAMEWORK")),
		BcryptCost:  positive(v.GetInt("LEGACY_BCRYPT_COST"), 10),
	}

	cfg.Downloads = DownloadsConfig{
		StorageDir:      v.GetString("DOWNLOADS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("DOWNLOADS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("DOWNLOADS_SIGNED_URL_TTL"), time.Hour),
		CleanupInterval: parseDuration(v.GetString("DOWNLOADS_CLEANUP_INTERVAL"), time.Hour),
	}
	if cfg.Downloads.SignedURLSecret == "" {
		cfg.Downloads.SignedURLSecret = cfg.JWT.Secret
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "college_erp")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	// An empty LEGACY_DB_HOST disables the legacy source.
	v.SetDefault("LEGACY_DB_HOST", "")
	v.SetDefault("LEGACY_DB_PORT", 3306)
	v.SetDefault("LEGACY_DB_USER", "root")
	v.SetDefault("LEGACY_DB_PASSWORD", "")
	v.SetDefault("LEGACY_DB_NAME", "admissions")
	v.SetDefault("LEGACY_DB_MAX_OPEN_CONNS", 8)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("IMPORT_WORKERS", 1)
	v.SetDefault("IMPORT_QUEUE_WORKERS", 1)
	v.SetDefault("IMPORT_QUEUE_BUFFER", 16)
	v.SetDefault("IMPORT_RESULT_TTL", "24h")

	v.SetDefault("LEGACY_BATCH_SIZE", 500)
	v.SetDefault("LEGACY_SHIFT_ID", 2)
	v.SetDefault("LEGACY_WORKERS", 4)
	v.SetDefault("LEGACY_EMAIL_DOMAIN", "thebges.edu.in")
	v.SetDefault("LEGACY_FRAMEWORK", "CCF")
	v.SetDefault("LEGACY_BCRYPT_COST", 10)

	v.SetDefault("DOWNLOADS_STORAGE_DIR", "./downloads")
	v.SetDefault("DOWNLOADS_SIGNED_URL_TTL", "1h")
	v.SetDefault("DOWNLOADS_CLEANUP_INTERVAL", "1h")
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func positive(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
