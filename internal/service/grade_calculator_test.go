package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-erp-api/internal/models"
	appErrors "github.com/noah-isme/college-erp-api/pkg/errors"
)

func f64(v float64) *float64 { return &v }
func str(v string) *string   { return &v }

func int64Ptr(v int64) *int64 { return &v }

func physicsMeta() models.SubjectMetadata {
	return models.SubjectMetadata{
		ID:                 "meta-phy",
		MarksheetCode:      "PHY101",
		FullMarksInternal:  20,
		FullMarksTheory:    70,
		FullMarksPractical: 20,
		FullMarks:          110,
		Credit:             4,
	}
}

func TestComputeSubjectGradePass(t *testing.T) {
	subject := models.Subject{InternalMarks: f64(18), TheoryMarks: f64(55), PracticalMarks: f64(20), TotalMarks: f64(1)}

	grade, err := ComputeSubjectGrade(subject, physicsMeta(), DefaultGradePolicy())
	require.NoError(t, err)

	require.NotNil(t, grade.Total)
	assert.Equal(t, 93.0, *grade.Total)
	assert.InDelta(t, 84.545, *grade.Percent, 0.001)
	assert.Equal(t, "A+", *grade.LetterGrade)
	assert.Equal(t, models.SubjectStatusPass, *grade.Status)
	assert.Equal(t, "8.455", *grade.NGP)
	assert.Equal(t, "33.820", *grade.TGP)
}

func TestComputeSubjectGradeZeroTotalFails(t *testing.T) {
	subject := models.Subject{InternalMarks: f64(0), TheoryMarks: f64(0), PracticalMarks: f64(0)}

	grade, err := ComputeSubjectGrade(subject, physicsMeta(), DefaultGradePolicy())
	require.NoError(t, err)

	assert.Equal(t, 0.0, *grade.Total)
	assert.Equal(t, "F", *grade.LetterGrade)
	assert.Equal(t, models.SubjectStatusFail, *grade.Status)
	assert.Nil(t, grade.NGP)
	assert.Nil(t, grade.TGP)
}

func TestComputeSubjectGradeWithoutMarks(t *testing.T) {
	grade, err := ComputeSubjectGrade(models.Subject{}, physicsMeta(), DefaultGradePolicy())
	require.NoError(t, err)
	assert.Equal(t, SubjectGrade{}, grade)
}

func TestComputeSubjectGradeZeroFullMarks(t *testing.T) {
	meta := physicsMeta()
	meta.FullMarks = 0

	_, err := ComputeSubjectGrade(models.Subject{TheoryMarks: f64(40)}, meta, DefaultGradePolicy())
	assert.ErrorIs(t, err, appErrors.ErrDataError)
}

func TestComputeSubjectGradeZeroCreditHasNoTGP(t *testing.T) {
	meta := physicsMeta()
	meta.Credit = 0

	grade, err := ComputeSubjectGrade(models.Subject{TheoryMarks: f64(70)}, meta, DefaultGradePolicy())
	require.NoError(t, err)
	assert.NotNil(t, grade.NGP)
	assert.Nil(t, grade.TGP)
}

func TestComputeSubjectGradeCustomPolicy(t *testing.T) {
	policy := GradePolicy{LetterGrade: func(p float64) string {
		if p >= 50 {
			return "P"
		}
		return "FX"
	}}

	grade, err := ComputeSubjectGrade(models.Subject{TheoryMarks: f64(40)}, physicsMeta(), policy)
	require.NoError(t, err)
	assert.Equal(t, "FX", *grade.LetterGrade)
	assert.Equal(t, models.SubjectStatusFail, *grade.Status)
}

func TestLetterGradeBands(t *testing.T) {
	policy := DefaultGradePolicy()
	cases := map[float64]string{100: "A++", 90: "A++", 89.99: "A+", 80: "A+", 70: "A", 60: "B+", 50: "B", 40: "C+", 30: "C", 29.99: "F", 0: "F"}
	for percent, want := range cases {
		assert.Equal(t, want, policy.LetterGrade(percent), "percent %v", percent)
	}
}

func TestNGPAndTGPAreConsistent(t *testing.T) {
	meta := physicsMeta()
	for theory := 0.0; theory <= 70; theory += 7 {
		grade, err := ComputeSubjectGrade(models.Subject{InternalMarks: f64(20), TheoryMarks: f64(theory)}, meta, DefaultGradePolicy())
		require.NoError(t, err)
		if *grade.Status == models.SubjectStatusFail {
			assert.Nil(t, grade.NGP)
			continue
		}
		ngp, ok := parsePoint(grade.NGP)
		require.True(t, ok)
		assert.InDelta(t, *grade.Percent/10, ngp, 0.0005)
		tgp, ok := parsePoint(grade.TGP)
		require.True(t, ok)
		assert.InDelta(t, ngp*meta.Credit, tgp, 0.0005)
	}
}

func detail(ngp *string, credit float64, total *float64, full float64) models.SubjectDetail {
	return models.SubjectDetail{
		Subject:  models.Subject{NGP: ngp, TotalMarks: total},
		Metadata: models.SubjectMetadata{Credit: credit, FullMarks: full},
	}
}

func TestComputeSGPA(t *testing.T) {
	subjects := []models.SubjectDetail{
		detail(str("8.000"), 4, f64(80), 100),
		detail(str("6.000"), 2, f64(60), 100),
		detail(nil, 4, f64(10), 100),
	}
	sgpa := ComputeSGPA(subjects)
	require.NotNil(t, sgpa)
	assert.Equal(t, "7.333", *sgpa)

	assert.Nil(t, ComputeSGPA([]models.SubjectDetail{detail(nil, 4, f64(10), 100)}))
	assert.Nil(t, ComputeSGPA(nil))
}

func TestComputeCGPAUsesLatestSheetPerSemester(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	results := []SemesterResult{
		{Semester: 1, Year: 2022, SGPA: str("5.000"), Credit: 20, CreatedAt: base},
		{Semester: 1, Year: 2023, SGPA: str("7.000"), Credit: 20, CreatedAt: base.Add(time.Hour)},
		{Semester: 2, Year: 2023, SGPA: str("9.000"), Credit: 10, CreatedAt: base},
		{Semester: 3, Year: 2024, SGPA: nil, Credit: 20, CreatedAt: base},
	}
	cgpa := ComputeCGPA(results)
	require.NotNil(t, cgpa)
	assert.Equal(t, "7.667", *cgpa)

	assert.Nil(t, ComputeCGPA([]SemesterResult{{Semester: 1}}))
}

func sixSemesters(sgpa string) []SemesterResult {
	results := make([]SemesterResult, 0, 6)
	for sem := 1; sem <= 6; sem++ {
		results = append(results, SemesterResult{Semester: sem, Year: 2020 + (sem+1)/2, SGPA: str(sgpa), Credit: 20})
	}
	return results
}

func TestComputeClassification(t *testing.T) {
	results := sixSemesters("8.500")
	cgpa := ComputeCGPA(results)
	label := ComputeClassification(cgpa, results, DefaultGradePolicy())
	require.NotNil(t, label)
	assert.Equal(t, "Excellent", *label)

	missing := results[:5]
	label = ComputeClassification(ComputeCGPA(missing), missing, DefaultGradePolicy())
	assert.Equal(t, NotClearedClassification, *label)

	assert.Nil(t, ComputeClassification(nil, results, DefaultGradePolicy()))
}

func TestClassificationBands(t *testing.T) {
	policy := DefaultGradePolicy()
	cases := map[float64]string{10: "Outstanding", 9: "Outstanding", 8.2: "Excellent", 7: "Very Good", 6.5: "Good", 5: "Average", 4: "Fair", 3: "Satisfactory", 2.99: "Fail"}
	for cgpa, want := range cases {
		assert.Equal(t, want, policy.Classification(cgpa), "cgpa %v", cgpa)
	}
}

func TestComputeRemarks(t *testing.T) {
	passing := []models.SubjectDetail{detail(str("6.000"), 4, f64(60), 100)}
	failing := []models.SubjectDetail{detail(str("6.000"), 4, f64(60), 100), detail(nil, 4, f64(20), 100)}
	blank := []models.SubjectDetail{detail(nil, 4, nil, 100)}

	cases := []struct {
		name string
		in   RemarksInput
		want string
	}{
		{"failed subject", RemarksInput{Percent: 40, Semester: 2, Subjects: failing}, "Semester not cleared."},
		{"blank subject", RemarksInput{Percent: 40, Semester: 2, Subjects: blank}, "Semester not cleared."},
		{"low percent", RemarksInput{Percent: 29, Semester: 2, Subjects: passing}, "Semester not cleared."},
		{"middle semester", RemarksInput{Percent: 60, Semester: 3, Degree: "BSC", Subjects: passing}, "Semester cleared."},
		{"final non commerce", RemarksInput{Percent: 60, Semester: 6, Degree: "BSC", Subjects: passing}, "Qualified with Honours."},
		{"final bcom honours", RemarksInput{Percent: 60, Semester: 6, Degree: "BCOM", Programme: models.ProgrammeHonours, Subjects: passing}, "Semester cleared with honours."},
		{"final bcom general", RemarksInput{Percent: 60, Semester: 6, Degree: "BCOM", Programme: models.ProgrammeGeneral, Subjects: passing}, "Semester cleared with general."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeRemarks(tc.in, GradePolicy{}))
		})
	}
}

func TestMarksheetPercent(t *testing.T) {
	subjects := []models.SubjectDetail{detail(nil, 4, f64(45), 100), detail(nil, 2, nil, 50)}
	assert.InDelta(t, 30.0, MarksheetPercent(subjects), 0.0001)
	assert.Equal(t, 0.0, MarksheetPercent(nil))
}
