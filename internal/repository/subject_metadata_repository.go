package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/college-erp-api/internal/models"
)

const subjectMetadataColumns = `id, stream_id, semester, marksheet_code, name, category,
        full_marks_internal, full_marks_theory, full_marks_practical, full_marks_project, full_marks_viva, full_marks,
        credit_internal, credit_theory, credit_practical, credit_project, credit_viva, credit`

// SubjectMetadataRepository persists paper descriptions keyed by
// (stream, semester, marksheet code).
type SubjectMetadataRepository struct {
	db *sqlx.DB
}

// NewSubjectMetadataRepository constructs a SubjectMetadataRepository.
func NewSubjectMetadataRepository(db *sqlx.DB) *SubjectMetadataRepository {
	return &SubjectMetadataRepository{db: db}
}

// Find returns the metadata for the natural key.
func (r *SubjectMetadataRepository) Find(ctx context.Context, streamID string, semester int, code string) (*models.SubjectMetadata, error) {
	query := `SELECT ` + subjectMetadataColumns + ` FROM subject_metadata WHERE stream_id = $1 AND semester = $2 AND marksheet_code = $3 LIMIT 1`
	var meta models.SubjectMetadata
	if err := r.db.GetContext(ctx, &meta, query, streamID, semester, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find subject metadata: %w", err)
	}
	return &meta, nil
}

// Upsert inserts the metadata unless its natural key exists, in which case the
// stored record is returned untouched.
func (r *SubjectMetadataRepository) Upsert(ctx context.Context, meta *models.SubjectMetadata) (*models.SubjectMetadata, error) {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	query := `INSERT INTO subject_metadata (` + subjectMetadataColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
        ON CONFLICT (stream_id, semester, marksheet_code) DO UPDATE SET marksheet_code = subject_metadata.marksheet_code
        RETURNING ` + subjectMetadataColumns
	args := []interface{}{
		meta.ID, meta.StreamID, meta.Semester, meta.MarksheetCode, meta.Name, meta.Category,
		meta.FullMarksInternal, meta.FullMarksTheory, meta.FullMarksPractical, meta.FullMarksProject, meta.FullMarksViva, meta.FullMarks,
		meta.CreditInternal, meta.CreditTheory, meta.CreditPractical, meta.CreditProject, meta.CreditViva, meta.Credit,
	}
	var stored models.SubjectMetadata
	if err := r.db.GetContext(ctx, &stored, query, args...); err != nil {
		return nil, fmt.Errorf("upsert subject metadata: %w", err)
	}
	return &stored, nil
}
