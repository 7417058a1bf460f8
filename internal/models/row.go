package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// AbsentMark is the marker spreadsheets use for an absent candidate.
const AbsentMark = "AB"

// Marks is a spreadsheet cell that may hold a number, a numeric string, the
// absent marker or nothing at all.
type Marks struct {
	Value   float64
	Present bool
	Absent  bool
}

// NewMarks builds a present mark.
func NewMarks(v float64) Marks {
	return Marks{Value: v, Present: true}
}

// UnmarshalJSON accepts numbers, numeric strings, "AB", "" and null.
func (m *Marks) UnmarshalJSON(data []byte) error {
	*m = Marks{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		return m.parse(raw)
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid marks %s", data)
	}
	*m = NewMarks(v)
	return nil
}

func (m *Marks) parse(raw string) error {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return nil
	case strings.EqualFold(raw, AbsentMark):
		*m = Marks{Present: true, Absent: true}
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid marks %q", raw)
	}
	*m = NewMarks(v)
	return nil
}

// MarshalJSON writes the absent marker, null or the numeric value.
func (m Marks) MarshalJSON() ([]byte, error) {
	switch {
	case m.Absent:
		return json.Marshal(AbsentMark)
	case !m.Present:
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// Ptr returns nil when the cell is empty; an absent candidate scores 0.
func (m Marks) Ptr() *float64 {
	if !m.Present {
		return nil
	}
	v := m.Value
	if m.Absent {
		v = 0
	}
	return &v
}

// Or returns the value or the fallback when the cell is empty or absent.
func (m Marks) Or(fallback float64) float64 {
	if !m.Present || m.Absent {
		return fallback
	}
	return m.Value
}

// MarksheetRow is one student-paper row of a bulk upload, already decoded from
// the spreadsheet.
type MarksheetRow struct {
	Index              int    `json:"-"`
	RollNumber         string `json:"roll_no" validate:"required"`
	RegistrationNumber string `json:"registration_no"`
	UID                string `json:"uid"`
	Name               string `json:"name"`
	Stream             string `json:"stream" validate:"required"`
	Course             string `json:"course" validate:"required,oneof=HONOURS GENERAL REGULAR"`
	Framework          string `json:"framework" validate:"required,oneof=CBCS CCF"`
	Year1              int    `json:"year1" validate:"required,gt=1900"`
	Year2              *int   `json:"year2,omitempty"`
	Semester           int    `json:"semester" validate:"required,min=1,max=6"`
	PaperCode          string `json:"paper_code"`
	SubjectName        string `json:"subject"`
	Category           string `json:"category"`

	InternalMarks  Marks `json:"internal_marks"`
	TheoryMarks    Marks `json:"theory_marks"`
	PracticalMarks Marks `json:"practical_marks"`
	ProjectMarks   Marks `json:"project_marks"`
	VivaMarks      Marks `json:"viva_marks"`

	FullMarksInternal  Marks `json:"full_marks_internal"`
	FullMarksTheory    Marks `json:"full_marks_theory"`
	FullMarksPractical Marks `json:"full_marks_practical"`
	FullMarksProject   Marks `json:"full_marks_project"`
	FullMarksViva      Marks `json:"full_marks_viva"`

	CreditInternal  Marks `json:"credit_internal"`
	CreditTheory    Marks `json:"credit_theory"`
	CreditPractical Marks `json:"credit_practical"`
	CreditProject   Marks `json:"credit_project"`
	CreditViva      Marks `json:"credit_viva"`
	Credit          Marks `json:"credit"`

	// Total, Grade, NGP and TGP are accepted for round-tripping exported
	// sheets; the computed values always win.
	Total Marks  `json:"total"`
	Grade string `json:"grade"`
	NGP   Marks  `json:"ngp"`
	TGP   Marks  `json:"tgp"`
}

// MarkComponents lists the obtained marks in component order.
func (r MarksheetRow) MarkComponents() []Marks {
	return []Marks{r.InternalMarks, r.TheoryMarks, r.PracticalMarks, r.ProjectMarks, r.VivaMarks}
}

// FullMarkComponents lists the full marks in component order.
func (r MarksheetRow) FullMarkComponents() []Marks {
	return []Marks{r.FullMarksInternal, r.FullMarksTheory, r.FullMarksPractical, r.FullMarksProject, r.FullMarksViva}
}

// StreamKey is the stream the row belongs to.
func (r MarksheetRow) StreamKey() StreamKey {
	return StreamKey{Degree: r.Stream, Programme: Programme(r.Course), Framework: Framework(r.Framework)}
}

// Year selects the academic year the row is filed under: BCOM under CBCS
// uses year2 when present.
func (r MarksheetRow) Year() int {
	if r.Stream == "BCOM" && Framework(r.Framework) == FrameworkCBCS && r.Year2 != nil && *r.Year2 > 0 {
		return *r.Year2
	}
	return r.Year1
}
