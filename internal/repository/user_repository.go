package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/college-erp-api/internal/models"
)

const userColumns = `id, email, password_hash, full_name, phone, role, active, created_at, updated_at`

// UserRepository provides database access for login accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// Ensure inserts the user unless the email is taken; the stored account is
// returned and its password is never replaced.
func (r *UserRepository) Ensure(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	query := `INSERT INTO users (id, email, password_hash, full_name, phone, role, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
        ON CONFLICT (email) DO UPDATE SET email = users.email
        RETURNING ` + userColumns
	var stored models.User
	if err := r.db.GetContext(ctx, &stored, query, user.ID, user.Email, user.PasswordHash, user.FullName, user.Phone, user.Role, user.Active, now); err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	return &stored, nil
}
