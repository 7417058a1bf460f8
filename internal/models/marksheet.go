package models

import "time"

// MarksheetSource records how a marksheet entered the system.
type MarksheetSource string

const (
	MarksheetSourceAdded      MarksheetSource = "ADDED"
	MarksheetSourceFileUpload MarksheetSource = "FILE_UPLOAD"
)

// SubjectStatus is the pass/fail outcome of a single paper.
type SubjectStatus string

const (
	SubjectStatusPass SubjectStatus = "PASS"
	SubjectStatusFail SubjectStatus = "FAIL"
)

// FinalSemester is the semester whose marksheet carries CGPA and classification.
const FinalSemester = 6

// Marksheet is the per (student, semester, year) result sheet.
type Marksheet struct {
	ID              string          `db:"id" json:"id"`
	StudentID       string          `db:"student_id" json:"student_id"`
	Semester        int             `db:"semester" json:"semester"`
	Year            int             `db:"year" json:"year"`
	SGPA            *string         `db:"sgpa" json:"sgpa"`
	CGPA            *string         `db:"cgpa" json:"cgpa"`
	Classification  *string         `db:"classification" json:"classification"`
	Remarks         *string         `db:"remarks" json:"remarks"`
	Source          MarksheetSource `db:"source" json:"source"`
	CreatedByUserID *string         `db:"created_by_user_id" json:"created_by_user_id,omitempty"`
	UpdatedByUserID *string         `db:"updated_by_user_id" json:"updated_by_user_id,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// SubjectMetadata describes a paper within a stream and semester.
type SubjectMetadata struct {
	ID                 string  `db:"id" json:"id"`
	StreamID           string  `db:"stream_id" json:"stream_id"`
	Semester           int     `db:"semester" json:"semester"`
	MarksheetCode      string  `db:"marksheet_code" json:"marksheet_code"`
	Name               string  `db:"name" json:"name"`
	Category           *string `db:"category" json:"category,omitempty"`
	FullMarksInternal  float64 `db:"full_marks_internal" json:"full_marks_internal"`
	FullMarksTheory    float64 `db:"full_marks_theory" json:"full_marks_theory"`
	FullMarksPractical float64 `db:"full_marks_practical" json:"full_marks_practical"`
	FullMarksProject   float64 `db:"full_marks_project" json:"full_marks_project"`
	FullMarksViva      float64 `db:"full_marks_viva" json:"full_marks_viva"`
	FullMarks          float64 `db:"full_marks" json:"full_marks"`
	CreditInternal     float64 `db:"credit_internal" json:"credit_internal"`
	CreditTheory       float64 `db:"credit_theory" json:"credit_theory"`
	CreditPractical    float64 `db:"credit_practical" json:"credit_practical"`
	CreditProject      float64 `db:"credit_project" json:"credit_project"`
	CreditViva         float64 `db:"credit_viva" json:"credit_viva"`
	Credit             float64 `db:"credit" json:"credit"`
}

// Subject is the mark record of one paper on one marksheet.
type Subject struct {
	ID                string         `db:"id" json:"id"`
	MarksheetID       string         `db:"marksheet_id" json:"marksheet_id"`
	SubjectMetadataID string         `db:"subject_metadata_id" json:"subject_metadata_id"`
	Year1             int            `db:"year1" json:"year1"`
	Year2             *int           `db:"year2" json:"year2,omitempty"`
	InternalMarks     *float64       `db:"internal_marks" json:"internal_marks"`
	TheoryMarks       *float64       `db:"theory_marks" json:"theory_marks"`
	PracticalMarks    *float64       `db:"practical_marks" json:"practical_marks"`
	ProjectMarks      *float64       `db:"project_marks" json:"project_marks"`
	VivaMarks         *float64       `db:"viva_marks" json:"viva_marks"`
	TotalMarks        *float64       `db:"total_marks" json:"total_marks"`
	LetterGrade       *string        `db:"letter_grade" json:"letter_grade"`
	Status            *SubjectStatus `db:"status" json:"status"`
	NGP               *string        `db:"ngp" json:"ngp"`
	TGP               *string        `db:"tgp" json:"tgp"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// SubjectDetail is a subject joined with its metadata.
type SubjectDetail struct {
	Subject
	Metadata SubjectMetadata `json:"subject_metadata"`
}

// MarksheetDetail is the formatted marksheet returned by reads and used for
// post-processing.
type MarksheetDetail struct {
	Marksheet
	Stream     *Stream             `json:"stream,omitempty"`
	Identifier *AcademicIdentifier `json:"academic_identifier,omitempty"`
	Subjects   []SubjectDetail     `json:"subjects"`
}

// TotalCredit sums the credits of every subject on the marksheet.
func (m MarksheetDetail) TotalCredit() float64 {
	var total float64
	for _, s := range m.Subjects {
		total += s.Metadata.Credit
	}
	return total
}
