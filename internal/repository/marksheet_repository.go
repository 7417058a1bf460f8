package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/college-erp-api/internal/models"
)

const (
	marksheetColumns = `id, student_id, semester, year, sgpa, cgpa, classification, remarks, source, created_by_user_id, updated_by_user_id, created_at, updated_at`
	subjectColumns   = `id, marksheet_id, subject_metadata_id, year1, year2, internal_marks, theory_marks, practical_marks, project_marks, viva_marks,
        total_marks, letter_grade, status, ngp, tgp, created_at, updated_at`
)

// MarksheetRepository persists marksheets and their subject rows.
type MarksheetRepository struct {
	db *sqlx.DB
}

// NewMarksheetRepository constructs a MarksheetRepository.
func NewMarksheetRepository(db *sqlx.DB) *MarksheetRepository {
	return &MarksheetRepository{db: db}
}

// Upsert creates the marksheet for (student, semester, year) or returns the
// existing one with its source and editor refreshed.
func (r *MarksheetRepository) Upsert(ctx context.Context, sheet *models.Marksheet) (*models.Marksheet, error) {
	if sheet.ID == "" {
		sheet.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	query := `INSERT INTO marksheets (id, student_id, semester, year, source, created_by_user_id, updated_by_user_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $6, $7, $7)
        ON CONFLICT (student_id, semester, year) DO UPDATE SET
            source = EXCLUDED.source,
            updated_by_user_id = COALESCE(EXCLUDED.updated_by_user_id, marksheets.updated_by_user_id),
            updated_at = EXCLUDED.updated_at
        RETURNING ` + marksheetColumns
	var stored models.Marksheet
	if err := r.db.GetContext(ctx, &stored, query, sheet.ID, sheet.StudentID, sheet.Semester, sheet.Year, sheet.Source, sheet.CreatedByUserID, now); err != nil {
		return nil, fmt.Errorf("upsert marksheet: %w", err)
	}
	return &stored, nil
}

// UpdateResults stores the computed aggregate fields in one update.
func (r *MarksheetRepository) UpdateResults(ctx context.Context, sheet *models.Marksheet) error {
	sheet.UpdatedAt = time.Now().UTC()
	const query = `UPDATE marksheets SET sgpa = :sgpa, cgpa = :cgpa, classification = :classification, remarks = :remarks,
        updated_by_user_id = COALESCE(:updated_by_user_id, updated_by_user_id), updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, sheet); err != nil {
		return fmt.Errorf("update marksheet results: %w", err)
	}
	return nil
}

// FindByID fetches a marksheet by ID.
func (r *MarksheetRepository) FindByID(ctx context.Context, id string) (*models.Marksheet, error) {
	query := `SELECT ` + marksheetColumns + ` FROM marksheets WHERE id = $1`
	var sheet models.Marksheet
	if err := r.db.GetContext(ctx, &sheet, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find marksheet: %w", err)
	}
	return &sheet, nil
}

// ListByStudent returns the marksheets of a student ordered by semester then
// most recent first.
func (r *MarksheetRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Marksheet, error) {
	query := `SELECT ` + marksheetColumns + ` FROM marksheets WHERE student_id = $1 ORDER BY semester ASC, year DESC, updated_at DESC`
	var sheets []models.Marksheet
	if err := r.db.SelectContext(ctx, &sheets, query, studentID); err != nil {
		return nil, fmt.Errorf("list marksheets by student: %w", err)
	}
	return sheets, nil
}

// UpsertSubject writes a subject row; a re-run for the same
// (marksheet, subject metadata) overwrites marks instead of duplicating the row.
func (r *MarksheetRepository) UpsertSubject(ctx context.Context, subject *models.Subject) (*models.Subject, error) {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	query := `INSERT INTO marksheet_subjects (id, marksheet_id, subject_metadata_id, year1, year2, internal_marks, theory_marks, practical_marks, project_marks, viva_marks,
            total_marks, letter_grade, status, ngp, tgp, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
        ON CONFLICT (marksheet_id, subject_metadata_id) DO UPDATE SET
            year1 = EXCLUDED.year1, year2 = EXCLUDED.year2,
            internal_marks = EXCLUDED.internal_marks, theory_marks = EXCLUDED.theory_marks, practical_marks = EXCLUDED.practical_marks,
            project_marks = EXCLUDED.project_marks, viva_marks = EXCLUDED.viva_marks, total_marks = EXCLUDED.total_marks,
            letter_grade = EXCLUDED.letter_grade, status = EXCLUDED.status, ngp = EXCLUDED.ngp, tgp = EXCLUDED.tgp,
            updated_at = EXCLUDED.updated_at
        RETURNING ` + subjectColumns
	args := []interface{}{
		subject.ID, subject.MarksheetID, subject.SubjectMetadataID, subject.Year1, subject.Year2,
		subject.InternalMarks, subject.TheoryMarks, subject.PracticalMarks, subject.ProjectMarks, subject.VivaMarks,
		subject.TotalMarks, subject.LetterGrade, subject.Status, subject.NGP, subject.TGP, now,
	}
	var stored models.Subject
	if err := r.db.GetContext(ctx, &stored, query, args...); err != nil {
		return nil, fmt.Errorf("upsert marksheet subject: %w", err)
	}
	return &stored, nil
}

type subjectDetailRow struct {
	models.Subject
	MetaStreamID           string  `db:"sm_stream_id"`
	MetaSemester           int     `db:"sm_semester"`
	MetaMarksheetCode      string  `db:"sm_marksheet_code"`
	MetaName               string  `db:"sm_name"`
	MetaCategory           *string `db:"sm_category"`
	MetaFullMarksInternal  float64 `db:"sm_full_marks_internal"`
	MetaFullMarksTheory    float64 `db:"sm_full_marks_theory"`
	MetaFullMarksPractical float64 `db:"sm_full_marks_practical"`
	MetaFullMarksProject   float64 `db:"sm_full_marks_project"`
	MetaFullMarksViva      float64 `db:"sm_full_marks_viva"`
	MetaFullMarks          float64 `db:"sm_full_marks"`
	MetaCredit             float64 `db:"sm_credit"`
}

// PruneSubjects deletes the subjects of a marksheet whose metadata is not in
// keep and reports how many rows went.
func (r *MarksheetRepository) PruneSubjects(ctx context.Context, marksheetID string, keep []string) (int64, error) {
	const query = `DELETE FROM marksheet_subjects WHERE marksheet_id = $1 AND NOT (subject_metadata_id = ANY($2))`
	res, err := r.db.ExecContext(ctx, query, marksheetID, pq.Array(keep))
	if err != nil {
		return 0, fmt.Errorf("prune marksheet subjects: %w", err)
	}
	return res.RowsAffected()
}

// ListSubjects returns the subjects of a marksheet joined with their metadata.
func (r *MarksheetRepository) ListSubjects(ctx context.Context, marksheetID string) ([]models.SubjectDetail, error) {
	const query = `SELECT s.id, s.marksheet_id, s.subject_metadata_id, s.year1, s.year2, s.internal_marks, s.theory_marks, s.practical_marks,
            s.project_marks, s.viva_marks, s.total_marks, s.letter_grade, s.status, s.ngp, s.tgp, s.created_at, s.updated_at,
            m.stream_id AS sm_stream_id, m.semester AS sm_semester, m.marksheet_code AS sm_marksheet_code, m.name AS sm_name,
            m.category AS sm_category, m.full_marks_internal AS sm_full_marks_internal, m.full_marks_theory AS sm_full_marks_theory,
            m.full_marks_practical AS sm_full_marks_practical, m.full_marks_project AS sm_full_marks_project,
            m.full_marks_viva AS sm_full_marks_viva, m.full_marks AS sm_full_marks, m.credit AS sm_credit
        FROM marksheet_subjects s
        JOIN subject_metadata m ON m.id = s.subject_metadata_id
        WHERE s.marksheet_id = $1
        ORDER BY m.marksheet_code`
	var rows []subjectDetailRow
	if err := r.db.SelectContext(ctx, &rows, query, marksheetID); err != nil {
		return nil, fmt.Errorf("list marksheet subjects: %w", err)
	}
	details := make([]models.SubjectDetail, 0, len(rows))
	for _, row := range rows {
		details = append(details, models.SubjectDetail{
			Subject: row.Subject,
			Metadata: models.SubjectMetadata{
				ID:                 row.SubjectMetadataID,
				StreamID:           row.MetaStreamID,
				Semester:           row.MetaSemester,
				MarksheetCode:      row.MetaMarksheetCode,
				Name:               row.MetaName,
				Category:           row.MetaCategory,
				FullMarksInternal:  row.MetaFullMarksInternal,
				FullMarksTheory:    row.MetaFullMarksTheory,
				FullMarksPractical: row.MetaFullMarksPractical,
				FullMarksProject:   row.MetaFullMarksProject,
				FullMarksViva:      row.MetaFullMarksViva,
				FullMarks:          row.MetaFullMarks,
				Credit:             row.MetaCredit,
			},
		})
	}
	return details, nil
}
