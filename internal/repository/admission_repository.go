package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/college-erp-api/internal/models"
)

// AdmissionRepository stores migrated course admissions and subject selections.
type AdmissionRepository struct {
	db *sqlx.DB
}

// NewAdmissionRepository constructs an AdmissionRepository.
func NewAdmissionRepository(db *sqlx.DB) *AdmissionRepository {
	return &AdmissionRepository{db: db}
}

// EnsureProgramCourse returns the program course for its six-part key,
// inserting it when absent.
func (r *AdmissionRepository) EnsureProgramCourse(ctx context.Context, pc *models.ProgramCourse) (*models.ProgramCourse, error) {
	if pc.ID == "" {
		pc.ID = uuid.NewString()
	}
	const query = `INSERT INTO program_courses (id, stream_id, course_id, course_type_id, course_level_id, affiliation_id, regulation_type_id, duration, total_semesters)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (stream_id, course_id, course_type_id, course_level_id, affiliation_id, regulation_type_id) DO UPDATE SET duration = program_courses.duration
        RETURNING id, stream_id, course_id, course_type_id, course_level_id, affiliation_id, regulation_type_id, duration, total_semesters`
	var stored models.ProgramCourse
	args := []interface{}{pc.ID, pc.StreamID, pc.CourseID, pc.CourseTypeID, pc.CourseLevelID, pc.AffiliationID, pc.RegulationTypeID, pc.Duration, pc.TotalSemesters}
	if err := r.db.GetContext(ctx, &stored, query, args...); err != nil {
		return nil, fmt.Errorf("ensure program course: %w", err)
	}
	return &stored, nil
}

// UpsertCourseDetails stores an admission keyed by its legacy course details id
// and returns the stored id.
func (r *AdmissionRepository) UpsertCourseDetails(ctx context.Context, d *models.AdmissionCourseDetails) (string, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	const query = `INSERT INTO admission_course_details (id, student_id, legacy_course_details_id, stream_id, program_course_id, class_id, shift_id,
            student_category_id, eligibility_criteria_id, merit_list_id, bank_id, bank_branch_id, bank_branch_other,
            class_roll_number, app_number, challan_number, amount, payment_at, application_at, is_verified, freeship_percentage, fees_paid_at)
        VALUES (:id, :student_id, :legacy_course_details_id, :stream_id, :program_course_id, :class_id, :shift_id,
            :student_category_id, :eligibility_criteria_id, :merit_list_id, :bank_id, :bank_branch_id, :bank_branch_other,
            :class_roll_number, :app_number, :challan_number, :amount, :payment_at, :application_at, :is_verified, :freeship_percentage, :fees_paid_at)
        ON CONFLICT (legacy_course_details_id) DO UPDATE SET
            student_id = EXCLUDED.student_id, stream_id = EXCLUDED.stream_id, program_course_id = EXCLUDED.program_course_id,
            class_id = EXCLUDED.class_id, shift_id = EXCLUDED.shift_id,
            student_category_id = EXCLUDED.student_category_id, eligibility_criteria_id = EXCLUDED.eligibility_criteria_id,
            merit_list_id = EXCLUDED.merit_list_id, bank_id = EXCLUDED.bank_id, bank_branch_id = EXCLUDED.bank_branch_id,
            bank_branch_other = EXCLUDED.bank_branch_other, class_roll_number = EXCLUDED.class_roll_number,
            app_number = EXCLUDED.app_number, challan_number = EXCLUDED.challan_number, amount = EXCLUDED.amount,
            payment_at = EXCLUDED.payment_at, application_at = EXCLUDED.application_at, is_verified = EXCLUDED.is_verified,
            freeship_percentage = EXCLUDED.freeship_percentage, fees_paid_at = EXCLUDED.fees_paid_at
        RETURNING id`
	stmt, err := r.db.PrepareNamedContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("prepare admission course details: %w", err)
	}
	defer stmt.Close()
	var id string
	if err := stmt.GetContext(ctx, &id, d); err != nil {
		return "", fmt.Errorf("upsert admission course details: %w", err)
	}
	return id, nil
}

// SaveSubjectSelections writes every selection of one admission in a
// transaction, keyed by the legacy selection id.
func (r *AdmissionRepository) SaveSubjectSelections(ctx context.Context, selections []models.SubjectPaperSelection) (err error) {
	if len(selections) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin subject selections: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO subject_paper_selections (id, student_id, admission_course_details_id, subject_id, subject_type_id, legacy_selection_id)
        VALUES (:id, :student_id, :admission_course_details_id, :subject_id, :subject_type_id, :legacy_selection_id)
        ON CONFLICT (legacy_selection_id) DO UPDATE SET subject_id = EXCLUDED.subject_id, subject_type_id = EXCLUDED.subject_type_id`
	for i := range selections {
		if selections[i].ID == "" {
			selections[i].ID = uuid.NewString()
		}
		if _, err = tx.NamedExecContext(ctx, query, selections[i]); err != nil {
			return fmt.Errorf("upsert subject selection %d: %w", selections[i].LegacySelectionID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit subject selections: %w", err)
	}
	return nil
}
