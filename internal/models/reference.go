package models

import "time"

// ReferenceTable names a lookup table resolved by upper-cased name.
type ReferenceTable string

const (
	RefOccupation        ReferenceTable = "occupations"
	RefBloodGroup        ReferenceTable = "blood_groups"
	RefNationality       ReferenceTable = "nationalities"
	RefCategory          ReferenceTable = "categories"
	RefReligion          ReferenceTable = "religions"
	RefLanguageMedium    ReferenceTable = "language_mediums"
	RefAnnualIncome      ReferenceTable = "annual_incomes"
	RefBoardResultStatus ReferenceTable = "board_result_statuses"
	RefCourse            ReferenceTable = "courses"
	RefCourseType        ReferenceTable = "course_types"
	RefCourseLevel       ReferenceTable = "course_levels"
	RefAffiliation       ReferenceTable = "affiliations"
	RefRegulationType    ReferenceTable = "regulation_types"
	RefClass             ReferenceTable = "classes"
	RefShift             ReferenceTable = "shifts"
	RefSubject           ReferenceTable = "subjects"
	RefSubjectType       ReferenceTable = "subject_types"
	RefStudentCategory   ReferenceTable = "student_categories"
	RefEligibility       ReferenceTable = "eligibility_criteria"
	RefMeritList         ReferenceTable = "merit_lists"
	RefBank              ReferenceTable = "banks"
)

// ReferenceRow is a lookup row keyed by name.
type ReferenceRow struct {
	ID       string  `db:"id" json:"id"`
	Name     string  `db:"name" json:"name"`
	Code     *string `db:"code" json:"code,omitempty"`
	LegacyID *int64  `db:"legacy_id" json:"legacy_id,omitempty"`
}

// Board is a school board or university a student last studied under.
type Board struct {
	ID           string   `db:"id" json:"id"`
	Name         string   `db:"name" json:"name"`
	DegreeID     *string  `db:"degree_id" json:"degree_id,omitempty"`
	PassingMarks *float64 `db:"passing_marks" json:"passing_marks,omitempty"`
	Code         *string  `db:"code" json:"code,omitempty"`
}

// BankBranch is a branch of a bank that admission fees were paid at.
type BankBranch struct {
	ID       string `db:"id" json:"id"`
	BankID   string `db:"bank_id" json:"bank_id"`
	Name     string `db:"name" json:"name"`
	LegacyID *int64 `db:"legacy_id" json:"legacy_id,omitempty"`
}

// ProgramCourse is the (stream, course, course type, level, affiliation,
// regulation) combination a student is admitted into.
type ProgramCourse struct {
	ID               string `db:"id" json:"id"`
	StreamID         string `db:"stream_id" json:"stream_id"`
	CourseID         string `db:"course_id" json:"course_id"`
	CourseTypeID     string `db:"course_type_id" json:"course_type_id"`
	CourseLevelID    string `db:"course_level_id" json:"course_level_id"`
	AffiliationID    string `db:"affiliation_id" json:"affiliation_id"`
	RegulationTypeID string `db:"regulation_type_id" json:"regulation_type_id"`
	Duration         int    `db:"duration" json:"duration"`
	TotalSemesters   int    `db:"total_semesters" json:"total_semesters"`
}

// AdmissionCourseDetails is a migrated legacy course admission.
type AdmissionCourseDetails struct {
	ID                    string     `db:"id" json:"id"`
	StudentID             string     `db:"student_id" json:"student_id"`
	LegacyCourseDetailsID int64      `db:"legacy_course_details_id" json:"legacy_course_details_id"`
	StreamID              string     `db:"stream_id" json:"stream_id"`
	ProgramCourseID       string     `db:"program_course_id" json:"program_course_id"`
	ClassID               *string    `db:"class_id" json:"class_id,omitempty"`
	ShiftID               *string    `db:"shift_id" json:"shift_id,omitempty"`
	StudentCategoryID     *string    `db:"student_category_id" json:"student_category_id,omitempty"`
	EligibilityCriteriaID *string    `db:"eligibility_criteria_id" json:"eligibility_criteria_id,omitempty"`
	MeritListID           *string    `db:"merit_list_id" json:"merit_list_id,omitempty"`
	BankID                *string    `db:"bank_id" json:"bank_id,omitempty"`
	BankBranchID          *string    `db:"bank_branch_id" json:"bank_branch_id,omitempty"`
	BankBranchOther       *string    `db:"bank_branch_other" json:"bank_branch_other,omitempty"`
	ClassRollNumber       *string    `db:"class_roll_number" json:"class_roll_number,omitempty"`
	AppNumber             *string    `db:"app_number" json:"app_number,omitempty"`
	ChallanNumber         *string    `db:"challan_number" json:"challan_number,omitempty"`
	Amount                float64    `db:"amount" json:"amount"`
	PaymentAt             *time.Time `db:"payment_at" json:"payment_at,omitempty"`
	ApplicationAt         *time.Time `db:"application_at" json:"application_at,omitempty"`
	IsVerified            bool       `db:"is_verified" json:"is_verified"`
	FreeshipPercentage    float64    `db:"freeship_percentage" json:"freeship_percentage"`
	FeesPaidAt            *time.Time `db:"fees_paid_at" json:"fees_paid_at,omitempty"`
}

// SubjectPaperSelection records a subject a student picked at admission.
type SubjectPaperSelection struct {
	ID                       string `db:"id" json:"id"`
	StudentID                string `db:"student_id" json:"student_id"`
	AdmissionCourseDetailsID string `db:"admission_course_details_id" json:"admission_course_details_id"`
	SubjectID                string `db:"subject_id" json:"subject_id"`
	SubjectTypeID            string `db:"subject_type_id" json:"subject_type_id"`
	LegacySelectionID        int64  `db:"legacy_selection_id" json:"legacy_selection_id"`
}
