package service

import (
	"strings"

	"github.com/noah-isme/college-erp-api/internal/models"
	appErrors "github.com/noah-isme/college-erp-api/pkg/errors"
)

// CourseMapping is where a legacy course name lands in the new schema.
type CourseMapping struct {
	Degree     string
	Discipline string
	Programme  models.Programme

	course *models.LegacyCourse
}

type courseRule struct {
	// every substring in all must appear, and at least one of any when set.
	all        []string
	any        []string
	degree     string
	discipline string
}

func (r courseRule) matches(name string) bool {
	for _, s := range r.all {
		if !strings.Contains(name, s) {
			return false
		}
	}
	if len(r.any) == 0 {
		return true
	}
	for _, s := range r.any {
		if strings.Contains(name, s) {
			return true
		}
	}
	return false
}

// courseRules is evaluated top to bottom. bba sits above ba because every BBA
// course name also contains "ba".
var courseRules = []courseRule{
	{all: []string{"bsc"}, degree: "BSC", discipline: "Science & Technology"},
	{all: []string{"bba"}, degree: "BBA", discipline: "Commerce & Management"},
	{all: []string{"bcom"}, any: []string{"(h)", "(g)"}, degree: "BCOM", discipline: "Commerce & Management"},
	{all: []string{"ba"}, degree: "BA", discipline: "Arts & Humanities"},
}

func normalizeCourseName(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ToLower(name), ".", ""))
}

// CourseProgramme reads the course type marker: (H) is honours, (G) general
// and anything else regular.
func CourseProgramme(name string) models.Programme {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "(h)"):
		return models.ProgrammeHonours
	case strings.Contains(lower, "(g)"):
		return models.ProgrammeGeneral
	}
	return models.ProgrammeRegular
}

// MapCourse resolves a free-text legacy course name. Names no rule matches
// fail with ErrUnmappedCourse.
func MapCourse(name string) (CourseMapping, error) {
	normalized := normalizeCourseName(name)
	for _, rule := range courseRules {
		if rule.matches(normalized) {
			return CourseMapping{Degree: rule.degree, Discipline: rule.discipline, Programme: CourseProgramme(normalized)}, nil
		}
	}
	return CourseMapping{}, appErrors.Clonef(appErrors.ErrUnmappedCourse, "legacy course %q is not mapped", name)
}
