package service

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/college-erp-api/internal/models"
	appErrors "github.com/noah-isme/college-erp-api/pkg/errors"
)

const (
	// PassPercent is the minimum subject and marksheet percentage to clear a semester.
	PassPercent = 30.0
	// NotClearedClassification is recorded when a final marksheet is reached
	// before every earlier semester has an SGPA.
	NotClearedClassification = "Previous Semester not cleared"

	remarksNotCleared = "Semester not cleared."
)

// RemarksInput carries what the remarks policy looks at.
type RemarksInput struct {
	Percent   float64
	Degree    string
	Programme models.Programme
	Semester  int
	Subjects  []models.SubjectDetail
}

// GradePolicy holds the institution specific grading rules.
type GradePolicy struct {
	LetterGrade    func(percent float64) string
	Classification func(cgpa float64) string
	Remarks        func(in RemarksInput) string
}

type band struct {
	min   float64
	label string
}

var letterBands = []band{
	{90, "A++"}, {80, "A+"}, {70, "A"}, {60, "B+"}, {50, "B"}, {40, "C+"}, {30, "C"},
}

var classificationBands = []band{
	{9, "Outstanding"}, {8, "Excellent"}, {7, "Very Good"}, {6, "Good"}, {5, "Average"}, {4, "Fair"}, {3, "Satisfactory"},
}

func pickBand(bands []band, value float64, fallback string) string {
	for _, b := range bands {
		if value >= b.min {
			return b.label
		}
	}
	return fallback
}

// DefaultGradePolicy returns the college's published grading rules.
func DefaultGradePolicy() GradePolicy {
	return GradePolicy{
		LetterGrade: func(percent float64) string {
			return pickBand(letterBands, percent, "F")
		},
		Classification: func(cgpa float64) string {
			return pickBand(classificationBands, cgpa, "Fail")
		},
		Remarks: defaultRemarks,
	}
}

func (p GradePolicy) withDefaults() GradePolicy {
	def := DefaultGradePolicy()
	if p.LetterGrade == nil {
		p.LetterGrade = def.LetterGrade
	}
	if p.Classification == nil {
		p.Classification = def.Classification
	}
	if p.Remarks == nil {
		p.Remarks = def.Remarks
	}
	return p
}

func defaultRemarks(in RemarksInput) string {
	for _, s := range in.Subjects {
		if s.TotalMarks == nil {
			return remarksNotCleared
		}
		if s.Metadata.FullMarks > 0 && *s.TotalMarks*100/s.Metadata.FullMarks < PassPercent {
			return remarksNotCleared
		}
	}
	if in.Percent < PassPercent {
		return remarksNotCleared
	}
	if in.Semester < models.FinalSemester {
		return "Semester cleared."
	}
	if !strings.EqualFold(in.Degree, "BCOM") {
		return "Qualified with Honours."
	}
	if in.Programme == models.ProgrammeHonours {
		return "Semester cleared with honours."
	}
	return "Semester cleared with general."
}

// SubjectGrade is the derived part of a subject mark record.
type SubjectGrade struct {
	Total       *float64
	Percent     *float64
	LetterGrade *string
	Status      *models.SubjectStatus
	NGP         *string
	TGP         *string
}

// Apply copies the derived fields onto subject.
func (g SubjectGrade) Apply(subject *models.Subject) {
	subject.TotalMarks = g.Total
	subject.LetterGrade = g.LetterGrade
	subject.Status = g.Status
	subject.NGP = g.NGP
	subject.TGP = g.TGP
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func formatPoint(v float64) string {
	return strconv.FormatFloat(round3(v), 'f', 3, 64)
}

func parsePoint(v *string) (float64, bool) {
	if v == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// SubjectTotal sums the mark components that are present. It is nil when no
// component was entered.
func SubjectTotal(subject models.Subject) *float64 {
	var total float64
	present := false
	for _, m := range []*float64{subject.InternalMarks, subject.TheoryMarks, subject.PracticalMarks, subject.ProjectMarks, subject.VivaMarks} {
		if m != nil {
			total += *m
			present = true
		}
	}
	if !present {
		return nil
	}
	return &total
}

// ComputeSubjectGrade derives total, letter grade, status, NGP and TGP for
// one paper. Any pre-supplied total on subject is ignored.
func ComputeSubjectGrade(subject models.Subject, meta models.SubjectMetadata, policy GradePolicy) (SubjectGrade, error) {
	policy = policy.withDefaults()

	total := SubjectTotal(subject)
	if total == nil {
		return SubjectGrade{}, nil
	}
	if meta.FullMarks <= 0 {
		return SubjectGrade{Total: total}, appErrors.Clonef(appErrors.ErrDataError, "paper %s has no full marks", meta.MarksheetCode)
	}

	percent := *total * 100 / meta.FullMarks
	letter := policy.LetterGrade(percent)
	grade := SubjectGrade{Total: total, Percent: &percent, LetterGrade: &letter}

	if strings.HasPrefix(strings.ToUpper(letter), "F") {
		status := models.SubjectStatusFail
		grade.Status = &status
		return grade, nil
	}

	status := models.SubjectStatusPass
	grade.Status = &status
	ngp := round3(percent / 10)
	ngpText := formatPoint(ngp)
	grade.NGP = &ngpText
	if meta.Credit != 0 {
		tgp := formatPoint(ngp * meta.Credit)
		grade.TGP = &tgp
	}
	return grade, nil
}

// ComputeSGPA is the credit weighted mean NGP over subjects that have one.
func ComputeSGPA(subjects []models.SubjectDetail) *string {
	var points, credits float64
	for _, s := range subjects {
		ngp, ok := parsePoint(s.NGP)
		if !ok {
			continue
		}
		points += ngp * s.Metadata.Credit
		credits += s.Metadata.Credit
	}
	if credits == 0 {
		return nil
	}
	sgpa := formatPoint(points / credits)
	return &sgpa
}

// SemesterResult is one marksheet as seen by the CGPA computation.
type SemesterResult struct {
	MarksheetID string
	Semester    int
	Year        int
	SGPA        *string
	Credit      float64
	CreatedAt   time.Time
}

// latestBySemester keeps, per semester 1..6, the most recent result with an SGPA.
func latestBySemester(results []SemesterResult) map[int]SemesterResult {
	sorted := append([]SemesterResult(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Year != sorted[j].Year {
			return sorted[i].Year < sorted[j].Year
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	latest := make(map[int]SemesterResult)
	for _, r := range sorted {
		if r.Semester < 1 || r.Semester > models.FinalSemester {
			continue
		}
		if _, ok := parsePoint(r.SGPA); !ok {
			continue
		}
		latest[r.Semester] = r
	}
	return latest
}

// ComputeCGPA weights each semester's latest SGPA by its credits.
func ComputeCGPA(results []SemesterResult) *string {
	var points, credits float64
	for _, r := range latestBySemester(results) {
		sgpa, _ := parsePoint(r.SGPA)
		points += sgpa * r.Credit
		credits += r.Credit
	}
	if credits == 0 {
		return nil
	}
	cgpa := formatPoint(points / credits)
	return &cgpa
}

// ComputeClassification labels a final result. Every semester from 1 to 6
// must carry an SGPA, otherwise the student has not cleared an earlier one.
func ComputeClassification(cgpa *string, results []SemesterResult, policy GradePolicy) *string {
	policy = policy.withDefaults()

	latest := latestBySemester(results)
	for sem := 1; sem <= models.FinalSemester; sem++ {
		if _, ok := latest[sem]; !ok {
			label := NotClearedClassification
			return &label
		}
	}
	value, ok := parsePoint(cgpa)
	if !ok {
		return nil
	}
	label := policy.Classification(value)
	return &label
}

// ComputeRemarks applies the remarks policy.
func ComputeRemarks(in RemarksInput, policy GradePolicy) string {
	return policy.withDefaults().Remarks(in)
}

// MarksheetPercent is obtained marks over full marks across every subject.
func MarksheetPercent(subjects []models.SubjectDetail) float64 {
	var obtained, full float64
	for _, s := range subjects {
		if s.TotalMarks != nil {
			obtained += *s.TotalMarks
		}
		full += s.Metadata.FullMarks
	}
	if full == 0 {
		return 0
	}
	return obtained * 100 / full
}

func describeGrade(g SubjectGrade) string {
	if g.LetterGrade == nil {
		return "no marks"
	}
	return fmt.Sprintf("%s (%.2f%%)", *g.LetterGrade, *g.Percent)
}
