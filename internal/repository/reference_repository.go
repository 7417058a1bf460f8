package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/college-erp-api/internal/models"
)

var referenceTables = map[models.ReferenceTable]struct{}{
	models.RefOccupation:        {},
	models.RefBloodGroup:        {},
	models.RefNationality:       {},
	models.RefCategory:          {},
	models.RefReligion:          {},
	models.RefLanguageMedium:    {},
	models.RefAnnualIncome:      {},
	models.RefBoardResultStatus: {},
	models.RefCourse:            {},
	models.RefCourseType:        {},
	models.RefCourseLevel:       {},
	models.RefAffiliation:       {},
	models.RefRegulationType:    {},
	models.RefClass:             {},
	models.RefShift:             {},
	models.RefSubject:           {},
	models.RefSubjectType:       {},
	models.RefStudentCategory:   {},
	models.RefEligibility:       {},
	models.RefMeritList:         {},
	models.RefBank:              {},
}

// ReferenceRepository resolves lookup rows by name, creating them on first use.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs a ReferenceRepository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

func checkReferenceTable(table models.ReferenceTable) error {
	if _, ok := referenceTables[table]; !ok {
		return fmt.Errorf("unknown reference table %q", table)
	}
	return nil
}

// FindByName returns the row of table whose name matches exactly.
func (r *ReferenceRepository) FindByName(ctx context.Context, table models.ReferenceTable, name string) (*models.ReferenceRow, error) {
	if err := checkReferenceTable(table); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT id, name, code, legacy_id FROM %s WHERE name = $1 LIMIT 1", table)
	var row models.ReferenceRow
	if err := r.db.GetContext(ctx, &row, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find %s by name: %w", table, err)
	}
	return &row, nil
}

// Ensure returns the row named name, inserting it when absent. Code and legacy
// id are only filled when the stored row has none.
func (r *ReferenceRepository) Ensure(ctx context.Context, table models.ReferenceTable, name string, code *string, legacyID *int64) (*models.ReferenceRow, error) {
	if err := checkReferenceTable(table); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`INSERT INTO %[1]s (id, name, code, legacy_id) VALUES ($1, $2, $3, $4)
        ON CONFLICT (name) DO UPDATE SET code = COALESCE(%[1]s.code, EXCLUDED.code), legacy_id = COALESCE(%[1]s.legacy_id, EXCLUDED.legacy_id)
        RETURNING id, name, code, legacy_id`, table)
	var row models.ReferenceRow
	if err := r.db.GetContext(ctx, &row, query, uuid.NewString(), name, code, legacyID); err != nil {
		return nil, fmt.Errorf("ensure %s: %w", table, err)
	}
	return &row, nil
}

// EnsureBoard returns the board named board.Name, inserting it when absent.
func (r *ReferenceRepository) EnsureBoard(ctx context.Context, board *models.Board) (*models.Board, error) {
	if board.ID == "" {
		board.ID = uuid.NewString()
	}
	const query = `INSERT INTO boards (id, name, degree_id, passing_marks, code) VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (name) DO UPDATE SET degree_id = COALESCE(boards.degree_id, EXCLUDED.degree_id)
        RETURNING id, name, degree_id, passing_marks, code`
	var stored models.Board
	if err := r.db.GetContext(ctx, &stored, query, board.ID, board.Name, board.DegreeID, board.PassingMarks, board.Code); err != nil {
		return nil, fmt.Errorf("ensure board: %w", err)
	}
	return &stored, nil
}

// EnsureBankBranch returns the branch of bankID named name, inserting it when
// absent.
func (r *ReferenceRepository) EnsureBankBranch(ctx context.Context, branch *models.BankBranch) (*models.BankBranch, error) {
	if branch.ID == "" {
		branch.ID = uuid.NewString()
	}
	const query = `INSERT INTO bank_branches (id, bank_id, name, legacy_id) VALUES ($1, $2, $3, $4)
        ON CONFLICT (bank_id, name) DO UPDATE SET legacy_id = COALESCE(bank_branches.legacy_id, EXCLUDED.legacy_id)
        RETURNING id, bank_id, name, legacy_id`
	var stored models.BankBranch
	if err := r.db.GetContext(ctx, &stored, query, branch.ID, branch.BankID, branch.Name, branch.LegacyID); err != nil {
		return nil, fmt.Errorf("ensure bank branch: %w", err)
	}
	return &stored, nil
}
