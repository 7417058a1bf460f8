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

const (
	studentColumns    = `id, user_id, legacy_student_id, uid, name, last_passed_year, active, alumni, created_at, updated_at`
	identifierColumns = `id, student_id, registration_number, roll_number, roll_number_key, uid, stream_id, created_at, updated_at`
)

// StudentRepository manages persistence for students and their academic identifiers.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return r.findOne(ctx, "id", id)
}

// FindByLegacyID fetches a student by its legacy studentpersonaldetails id.
func (r *StudentRepository) FindByLegacyID(ctx context.Context, legacyID int64) (*models.Student, error) {
	return r.findOne(ctx, "legacy_student_id", legacyID)
}

func (r *StudentRepository) findOne(ctx context.Context, column string, value interface{}) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE %s = $1 LIMIT 1", studentColumns, column)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, value); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by %s: %w", column, err)
	}
	return &student, nil
}

// Upsert inserts the student or, when the UID already exists, fills in the
// empty columns of the stored row. The stored row is returned.
func (r *StudentRepository) Upsert(ctx context.Context, student *models.Student) (*models.Student, error) {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	query := `INSERT INTO students (id, user_id, legacy_student_id, uid, name, active, alumni, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
        ON CONFLICT (uid) DO UPDATE SET
            user_id = COALESCE(students.user_id, EXCLUDED.user_id),
            legacy_student_id = COALESCE(students.legacy_student_id, EXCLUDED.legacy_student_id),
            name = CASE WHEN students.name = '' THEN EXCLUDED.name ELSE students.name END,
            updated_at = EXCLUDED.updated_at
        RETURNING ` + studentColumns
	var stored models.Student
	if err := r.db.GetContext(ctx, &stored, query, student.ID, student.UserID, student.LegacyStudentID, student.UID, student.Name, student.Active, student.Alumni, now); err != nil {
		return nil, fmt.Errorf("upsert student: %w", err)
	}
	return &stored, nil
}

// UpdateStatus sets last passed year and the active/alumni flags; nil
// arguments leave the column unchanged.
func (r *StudentRepository) UpdateStatus(ctx context.Context, id string, lastPassedYear *int, active, alumni *bool) error {
	const query = `UPDATE students SET last_passed_year = COALESCE($2, last_passed_year), active = COALESCE($3, active), alumni = COALESCE($4, alumni), updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, lastPassedYear, active, alumni, time.Now().UTC()); err != nil {
		return fmt.Errorf("update student status: %w", err)
	}
	return nil
}

// FindIdentifierByRollKey returns the identifier whose normalized roll number matches key.
func (r *StudentRepository) FindIdentifierByRollKey(ctx context.Context, key string) (*models.AcademicIdentifier, error) {
	return r.findIdentifier(ctx, "roll_number_key", key)
}

// FindIdentifierByStudentID returns the identifier of a student.
func (r *StudentRepository) FindIdentifierByStudentID(ctx context.Context, studentID string) (*models.AcademicIdentifier, error) {
	return r.findIdentifier(ctx, "student_id", studentID)
}

func (r *StudentRepository) findIdentifier(ctx context.Context, column, value string) (*models.AcademicIdentifier, error) {
	query := fmt.Sprintf("SELECT %s FROM academic_identifiers WHERE %s = $1 LIMIT 1", identifierColumns, column)
	var identifier models.AcademicIdentifier
	if err := r.db.GetContext(ctx, &identifier, query, value); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find academic identifier by %s: %w", column, err)
	}
	return &identifier, nil
}

// UpsertIdentifier creates the identifier of a student or fills only the
// fields that are still empty on the stored one. Populated fields are never
// overwritten.
func (r *StudentRepository) UpsertIdentifier(ctx context.Context, identifier *models.AcademicIdentifier) (*models.AcademicIdentifier, error) {
	if identifier.ID == "" {
		identifier.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	query := `INSERT INTO academic_identifiers (id, student_id, registration_number, roll_number, roll_number_key, uid, stream_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
        ON CONFLICT (student_id) DO UPDATE SET
            registration_number = COALESCE(NULLIF(academic_identifiers.registration_number, ''), EXCLUDED.registration_number),
            roll_number = COALESCE(NULLIF(academic_identifiers.roll_number, ''), EXCLUDED.roll_number),
            roll_number_key = COALESCE(NULLIF(academic_identifiers.roll_number_key, ''), EXCLUDED.roll_number_key),
            uid = COALESCE(NULLIF(academic_identifiers.uid, ''), EXCLUDED.uid),
            stream_id = COALESCE(academic_identifiers.stream_id, EXCLUDED.stream_id),
            updated_at = EXCLUDED.updated_at
        RETURNING ` + identifierColumns
	var stored models.AcademicIdentifier
	args := []interface{}{identifier.ID, identifier.StudentID, identifier.RegistrationNumber, identifier.RollNumber, identifier.RollNumberKey, identifier.UID, identifier.StreamID, now}
	if err := r.db.GetContext(ctx, &stored, query, args...); err != nil {
		return nil, fmt.Errorf("upsert academic identifier: %w", err)
	}
	return &stored, nil
}

// SetIdentifierStream moves the identifier to a stream.
func (r *StudentRepository) SetIdentifierStream(ctx context.Context, studentID, streamID string) error {
	const query = `UPDATE academic_identifiers SET stream_id = $2, updated_at = $3 WHERE student_id = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID, streamID, time.Now().UTC()); err != nil {
		return fmt.Errorf("set identifier stream: %w", err)
	}
	return nil
}
