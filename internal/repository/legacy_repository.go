package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/college-erp-api/internal/models"
)

// LegacyLookup names a small legacy table read by id.
type LegacyLookup string

const (
	LegacyOccupation      LegacyLookup = "parentoccupation"
	LegacyBloodGroup      LegacyLookup = "bloodgroup"
	LegacyNationality     LegacyLookup = "nationality"
	LegacyCategory        LegacyLookup = "category"
	LegacyReligion        LegacyLookup = "religion"
	LegacyMotherTongue    LegacyLookup = "mothertongue"
	LegacyClass           LegacyLookup = "classes"
	LegacyShift           LegacyLookup = "shift"
	LegacySubjectType     LegacyLookup = "subjecttype"
	LegacyStudentCategory LegacyLookup = "studentcatagory"
	LegacyEligibility     LegacyLookup = "eligibilitycriteria"
	LegacyMeritList       LegacyLookup = "meritlist"
	LegacyBank            LegacyLookup = "adminbank"
)

// legacyLookupColumns maps each lookup table to the projection that yields
// (id, name, code).
var legacyLookupColumns = map[LegacyLookup]string{
	LegacyOccupation:      "id, occupationName AS name, NULL AS code",
	LegacyBloodGroup:      "id, bloodgroupName AS name, NULL AS code",
	LegacyNationality:     "id, nationalityName AS name, CAST(code AS CHAR) AS code",
	LegacyCategory:        "id, category AS name, code",
	LegacyReligion:        "id, religionName AS name, NULL AS code",
	LegacyMotherTongue:    "id, mothertongueName AS name, NULL AS code",
	LegacyClass:           "id, classname AS name, NULL AS code",
	LegacyShift:           "id, shiftName AS name, NULL AS code",
	LegacySubjectType:     "id, subjectTypeName AS name, NULL AS code",
	LegacyStudentCategory: "id, studentCName AS name, NULL AS code",
	LegacyEligibility:     "id, COALESCE(description, '') AS name, NULL AS code",
	LegacyMeritList:       "id, name, NULL AS code",
	LegacyBank:            "id, bankName AS name, NULL AS code",
}

const legacyCourseDetailsColumns = `id, parent_id, courseid, classid, shiftid, rollNumber, uid, appno, chllno, amt, paymentDate, applicationdt,
        verified, freeshipperc, feespaymentdate, studentCategoryId, eligibilityCriteriaId, meritlistid,
        feespaymentbankid, feespaymentbrnchid, feespaymentbrnchothr`

const legacyStudentColumns = `id, admissionid, codeNumber, name, contactNo, whatsappno, email, dateOfBirth, sexId, handicapped, aadharcardno,
        univregno, univlstexmrollno, placeofstay, placeofstayaddr, placeofstaycontactno, localitytyp,
        mailingAddress, mailingPinNo, residentialAddress, resiPinNo, resiPhoneMobileNo,
        issnglprnt, fatherName, fatherEmail, fatherMobNo, fatherOccupation, motherName, motherEmail, motherMobNo, motherOccupation,
        guardianName, guardianEmail, guardianMobNo, guardianOccupation, annualFamilyIncome,
        bloodGroup, eyePowerLeft, eyePowerRight, emercontactpersonnm, emercontactpersonmob, emrgnResidentPhNo,
        nationalityId, othernationality, studentCategoryId, religionId, motherTongueId, lastBoardUniversity, boardresultid`

// LegacyRepository reads the legacy MySQL admissions schema. It never writes.
type LegacyRepository struct {
	db *sqlx.DB
}

// NewLegacyRepository constructs a LegacyRepository over the legacy pool.
func NewLegacyRepository(db *sqlx.DB) *LegacyRepository {
	return &LegacyRepository{db: db}
}

// CountCourseDetails counts admissions with a UID in the given shift.
func (r *LegacyRepository) CountCourseDetails(ctx context.Context, shiftID int) (int, error) {
	const query = `SELECT COUNT(*) FROM coursedetails WHERE uid IS NOT NULL AND shiftid = ?`
	var total int
	if err := r.db.GetContext(ctx, &total, query, shiftID); err != nil {
		return 0, fmt.Errorf("count legacy course details: %w", err)
	}
	return total, nil
}

// ListCourseDetails pages through admissions with a UID in the given shift.
func (r *LegacyRepository) ListCourseDetails(ctx context.Context, shiftID, limit, offset int) ([]models.LegacyCourseDetails, error) {
	query := `SELECT ` + legacyCourseDetailsColumns + ` FROM coursedetails WHERE uid IS NOT NULL AND shiftid = ? ORDER BY id LIMIT ? OFFSET ?`
	var rows []models.LegacyCourseDetails
	if err := r.db.SelectContext(ctx, &rows, query, shiftID, limit, offset); err != nil {
		return nil, fmt.Errorf("list legacy course details: %w", err)
	}
	return rows, nil
}

// FindStudentByAdmissionID returns the personal details row of an admission.
func (r *LegacyRepository) FindStudentByAdmissionID(ctx context.Context, admissionID int64) (*models.LegacyStudent, error) {
	query := `SELECT ` + legacyStudentColumns + ` FROM studentpersonaldetails WHERE admissionid = ? LIMIT 1`
	var student models.LegacyStudent
	if err := r.db.GetContext(ctx, &student, query, admissionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find legacy student by admission: %w", err)
	}
	return &student, nil
}

// FindStudentByRegistrationKey matches univregno ignoring case, spaces and hyphens.
func (r *LegacyRepository) FindStudentByRegistrationKey(ctx context.Context, key string) (*models.LegacyStudent, error) {
	query := `SELECT ` + legacyStudentColumns + ` FROM studentpersonaldetails
        WHERE UPPER(REPLACE(REPLACE(REPLACE(univregno, '-', ''), ' ', ''), '/', '')) = ? ORDER BY id DESC LIMIT 1`
	var student models.LegacyStudent
	if err := r.db.GetContext(ctx, &student, query, key); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find legacy student by registration: %w", err)
	}
	return &student, nil
}

// FindNamed reads one row of a lookup table by id.
func (r *LegacyRepository) FindNamed(ctx context.Context, table LegacyLookup, id int64) (*models.LegacyNamedRow, error) {
	columns, ok := legacyLookupColumns[table]
	if !ok {
		return nil, fmt.Errorf("unknown legacy lookup %q", table)
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1", columns, table)
	var row models.LegacyNamedRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find legacy %s: %w", table, err)
	}
	return &row, nil
}

// FindBankBranch reads a legacy bank branch.
func (r *LegacyRepository) FindBankBranch(ctx context.Context, id int64) (*models.LegacyBankBranch, error) {
	const query = `SELECT id, name, bankid FROM bankbranch WHERE id = ? LIMIT 1`
	var branch models.LegacyBankBranch
	if err := r.db.GetContext(ctx, &branch, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find legacy bank branch: %w", err)
	}
	return &branch, nil
}

// FindCourse reads a legacy course.
func (r *LegacyRepository) FindCourse(ctx context.Context, id int64) (*models.LegacyCourse, error) {
	const query = `SELECT id, courseName, shortname FROM course WHERE id = ? LIMIT 1`
	var course models.LegacyCourse
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find legacy course: %w", err)
	}
	return &course, nil
}

// ListSubjectSelections returns the subjects picked on an admission.
func (r *LegacyRepository) ListSubjectSelections(ctx context.Context, courseDetailsID int64) ([]models.LegacySubjectSelection, error) {
	const query = `SELECT id, parent_id, subjecttypeid, subjectid FROM cvsubjectselection WHERE parent_id = ? ORDER BY id`
	var rows []models.LegacySubjectSelection
	if err := r.db.SelectContext(ctx, &rows, query, courseDetailsID); err != nil {
		return nil, fmt.Errorf("list legacy subject selections: %w", err)
	}
	return rows, nil
}

// FindSubject reads a legacy subject.
func (r *LegacyRepository) FindSubject(ctx context.Context, id int64) (*models.LegacySubject, error) {
	const query = `SELECT id, subjectName, univcode FROM subject WHERE id = ? LIMIT 1`
	var subject models.LegacySubject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find legacy subject: %w", err)
	}
	return &subject, nil
}

// FindBoard reads a legacy board together with its degree name.
func (r *LegacyRepository) FindBoard(ctx context.Context, id int64) (*models.LegacyBoard, error) {
	const query = `SELECT b.id, b.boardName, b.degreeid, b.passmrks, b.code, d.degreeName
        FROM board b LEFT JOIN degree d ON d.id = b.degreeid WHERE b.id = ? LIMIT 1`
	var board models.LegacyBoard
	if err := r.db.GetContext(ctx, &board, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find legacy board: %w", err)
	}
	return &board, nil
}

// FindBoardResultStatus reads a legacy board result status.
func (r *LegacyRepository) FindBoardResultStatus(ctx context.Context, id int64) (*models.LegacyBoardResultStatus, error) {
	const query = `SELECT id, name, spcltype, flag FROM boardresultstatus WHERE id = ? LIMIT 1`
	var status models.LegacyBoardResultStatus
	if err := r.db.GetContext(ctx, &status, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find legacy board result status: %w", err)
	}
	return &status, nil
}
