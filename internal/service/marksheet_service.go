package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/college-erp-api/internal/models"
	appErrors "github.com/noah-isme/college-erp-api/pkg/errors"
	"github.com/noah-isme/college-erp-api/pkg/export"
)

type marksheetStore interface {
	Upsert(ctx context.Context, sheet *models.Marksheet) (*models.Marksheet, error)
	UpdateResults(ctx context.Context, sheet *models.Marksheet) error
	FindByID(ctx context.Context, id string) (*models.Marksheet, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Marksheet, error)
	UpsertSubject(ctx context.Context, subject *models.Subject) (*models.Subject, error)
	PruneSubjects(ctx context.Context, marksheetID string, keep []string) (int64, error)
	ListSubjects(ctx context.Context, marksheetID string) ([]models.SubjectDetail, error)
}

type streamReader interface {
	FindByID(ctx context.Context, id string) (*models.Stream, error)
}

type identityResolver interface {
	ResolveOrMigrate(ctx context.Context, lookup IdentityLookup) (*models.StudentIdentity, error)
	FindIdentifier(ctx context.Context, studentID string) (*models.AcademicIdentifier, error)
	FillIdentifier(ctx context.Context, studentID string, fields models.AcademicIdentifier) (*models.AcademicIdentifier, error)
	MarkPassed(ctx context.Context, studentID string, year int, final bool) error
}

type metadataResolver interface {
	Resolve(ctx context.Context, streamID string, row models.MarksheetRow) (*models.SubjectMetadata, error)
}

type documentRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

// MarksheetGroup is every row of one student for one stream, semester and year.
type MarksheetGroup struct {
	Stream   models.Stream
	Semester int
	Year     int
	Rows     []models.MarksheetRow
	Source   models.MarksheetSource
	UserID   *string
}

// ReconcileOutcome reports what happened to a group.
type ReconcileOutcome struct {
	Marksheet   *models.MarksheetDetail
	SavedRows   int
	SkippedRows int
}

// MarksheetService turns uploaded rows into graded marksheets and serves
// formatted marksheets back.
type MarksheetService struct {
	marksheets marksheetStore
	streams    streamReader
	identity   identityResolver
	metadata   metadataResolver
	pdf        documentRenderer
	downloads  artifactPublisher
	policy     GradePolicy
	logger     *zap.Logger
}

// NewMarksheetService constructs a MarksheetService. downloads may be nil when
// signed PDF links are not served.
func NewMarksheetService(marksheets marksheetStore, streams streamReader, identity identityResolver, metadata metadataResolver, policy GradePolicy, logger *zap.Logger, pdf documentRenderer, downloads artifactPublisher) *MarksheetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &MarksheetService{
		marksheets: marksheets,
		streams:    streams,
		identity:   identity,
		metadata:   metadata,
		pdf:        pdf,
		downloads:  downloads,
		policy:     policy.withDefaults(),
		logger:     logger,
	}
}

// Reconcile grades and stores one student group. Malformed rows are skipped;
// any other failure aborts the group and is returned. When every row is saved
// the group replaces the marksheet's papers, so papers missing from it are
// removed before the results are computed.
func (s *MarksheetService) Reconcile(ctx context.Context, group MarksheetGroup) (*ReconcileOutcome, error) {
	if len(group.Rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, "marksheet group has no rows")
	}
	first := group.Rows[0]
	log := s.logger.With(
		zap.String("roll_number", RollKey(first.RollNumber)),
		zap.Int("year", group.Year),
		zap.String("stream", group.Stream.Key().String()),
		zap.Int("semester", group.Semester),
	)

	identity, err := s.identity.ResolveOrMigrate(ctx, IdentityLookup{
		RollNumber:         first.RollNumber,
		RegistrationNumber: firstNonEmpty(group.Rows, func(r models.MarksheetRow) string { return r.RegistrationNumber }),
		UID:                firstNonEmpty(group.Rows, func(r models.MarksheetRow) string { return r.UID }),
		Name:               firstNonEmpty(group.Rows, func(r models.MarksheetRow) string { return r.Name }),
		StreamID:           group.Stream.ID,
	})
	if err != nil {
		return nil, err
	}
	studentID := identity.Student.ID

	source := group.Source
	if source == "" {
		source = models.MarksheetSourceFileUpload
	}
	sheet, err := s.marksheets.Upsert(ctx, &models.Marksheet{
		StudentID:       studentID,
		Semester:        group.Semester,
		Year:            group.Year,
		Source:          source,
		CreatedByUserID: group.UserID,
		UpdatedByUserID: group.UserID,
	})
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to save marksheet")
	}

	outcome := &ReconcileOutcome{}
	kept := make([]string, 0, len(group.Rows))
	for _, row := range group.Rows {
		metaID, err := s.saveSubject(ctx, sheet.ID, group.Stream.ID, row, log)
		if err != nil {
			if errors.Is(err, appErrors.ErrInvalidInput) {
				log.Warn("row skipped", zap.Int("row", row.Index), zap.Error(err))
				outcome.SkippedRows++
				continue
			}
			return nil, err
		}
		kept = append(kept, metaID)
		outcome.SavedRows++
	}
	if outcome.SkippedRows == 0 {
		removed, err := s.marksheets.PruneSubjects(ctx, sheet.ID, kept)
		if err != nil {
			return nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to remove dropped papers")
		}
		if removed > 0 {
			log.Info("dropped papers removed", zap.Int64("subjects", removed))
		}
	}

	subjects, err := s.marksheets.ListSubjects(ctx, sheet.ID)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to reload subjects")
	}
	if err := s.applyResults(ctx, sheet, group.Stream, subjects); err != nil {
		return nil, err
	}
	sheet.UpdatedByUserID = group.UserID
	if err := s.marksheets.UpdateResults(ctx, sheet); err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to save marksheet results")
	}

	detail, err := s.postProcess(ctx, sheet, group, first)
	if err != nil {
		return nil, err
	}
	outcome.Marksheet = detail

	log.Info("marksheet reconciled",
		zap.String("marksheet_id", sheet.ID),
		zap.Int("subjects", outcome.SavedRows),
		zap.Int("skipped_rows", outcome.SkippedRows),
		zap.Stringp("sgpa", sheet.SGPA),
	)
	return outcome, nil
}

func (s *MarksheetService) saveSubject(ctx context.Context, marksheetID, streamID string, row models.MarksheetRow, log *zap.Logger) (string, error) {
	meta, err := s.metadata.Resolve(ctx, streamID, row)
	if err != nil {
		return "", err
	}

	subject := models.Subject{
		MarksheetID:       marksheetID,
		SubjectMetadataID: meta.ID,
		Year1:             row.Year1,
		Year2:             row.Year2,
		InternalMarks:     row.InternalMarks.Ptr(),
		TheoryMarks:       row.TheoryMarks.Ptr(),
		PracticalMarks:    row.PracticalMarks.Ptr(),
		ProjectMarks:      row.ProjectMarks.Ptr(),
		VivaMarks:         row.VivaMarks.Ptr(),
	}
	grade, err := ComputeSubjectGrade(subject, *meta, s.policy)
	if err != nil {
		return "", err
	}
	grade.Apply(&subject)
	log.Debug("subject graded", zap.String("paper_code", meta.MarksheetCode), zap.String("grade", describeGrade(grade)))

	if _, err := s.marksheets.UpsertSubject(ctx, &subject); err != nil {
		return "", appErrors.WrapAs(appErrors.ErrPersistence, err, fmt.Sprintf("failed to save subject %s", meta.MarksheetCode))
	}
	return meta.ID, nil
}

// applyResults fills SGPA and remarks, and on the final semester CGPA and
// classification.
func (s *MarksheetService) applyResults(ctx context.Context, sheet *models.Marksheet, stream models.Stream, subjects []models.SubjectDetail) error {
	sheet.SGPA = ComputeSGPA(subjects)
	sheet.CGPA = nil
	sheet.Classification = nil

	if sheet.Semester == models.FinalSemester && sheet.SGPA != nil {
		results, err := s.semesterResults(ctx, sheet, subjects)
		if err != nil {
			return err
		}
		sheet.CGPA = ComputeCGPA(results)
		if sheet.CGPA != nil {
			sheet.Classification = ComputeClassification(sheet.CGPA, results, s.policy)
		}
	}

	remarks := ComputeRemarks(RemarksInput{
		Percent:   MarksheetPercent(subjects),
		Degree:    stream.DegreeName,
		Programme: stream.Programme,
		Semester:  sheet.Semester,
		Subjects:  subjects,
	}, s.policy)
	sheet.Remarks = &remarks
	return nil
}

// semesterResults lists every marksheet of the student with its credit total.
// The sheet being reconciled contributes its freshly computed SGPA.
func (s *MarksheetService) semesterResults(ctx context.Context, current *models.Marksheet, currentSubjects []models.SubjectDetail) ([]SemesterResult, error) {
	sheets, err := s.marksheets.ListByStudent(ctx, current.StudentID)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to list student marksheets")
	}

	results := make([]SemesterResult, 0, len(sheets)+1)
	for _, sheet := range sheets {
		if sheet.ID == current.ID {
			continue
		}
		subjects, err := s.marksheets.ListSubjects(ctx, sheet.ID)
		if err != nil {
			return nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to list marksheet subjects")
		}
		detail := models.MarksheetDetail{Marksheet: sheet, Subjects: subjects}
		results = append(results, SemesterResult{
			MarksheetID: sheet.ID,
			Semester:    sheet.Semester,
			Year:        sheet.Year,
			SGPA:        sheet.SGPA,
			Credit:      detail.TotalCredit(),
			CreatedAt:   sheet.CreatedAt,
		})
	}

	detail := models.MarksheetDetail{Marksheet: *current, Subjects: currentSubjects}
	results = append(results, SemesterResult{
		MarksheetID: current.ID,
		Semester:    current.Semester,
		Year:        current.Year,
		SGPA:        current.SGPA,
		Credit:      detail.TotalCredit(),
		CreatedAt:   current.CreatedAt,
	})
	return results, nil
}

// postProcess reloads the sheet, completes the identifier and records the
// student's progress.
func (s *MarksheetService) postProcess(ctx context.Context, sheet *models.Marksheet, group MarksheetGroup, first models.MarksheetRow) (*models.MarksheetDetail, error) {
	registration := firstNonEmpty(group.Rows, func(r models.MarksheetRow) string { return r.RegistrationNumber })
	if _, err := s.identity.FillIdentifier(ctx, sheet.StudentID, identifierFields(registration, first.RollNumber, "", group.Stream.ID)); err != nil {
		return nil, err
	}

	if sheet.SGPA != nil {
		if err := s.identity.MarkPassed(ctx, sheet.StudentID, sheet.Year, sheet.Semester == models.FinalSemester); err != nil {
			return nil, err
		}
	}

	return s.FindByID(ctx, sheet.ID)
}

// FindByID returns the formatted marksheet.
func (s *MarksheetService) FindByID(ctx context.Context, id string) (*models.MarksheetDetail, error) {
	sheet, err := s.marksheets.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "marksheet not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marksheet")
	}
	return s.format(ctx, *sheet)
}

// ListByStudent returns every formatted marksheet of a student.
func (s *MarksheetService) ListByStudent(ctx context.Context, studentID string) ([]models.MarksheetDetail, error) {
	sheets, err := s.marksheets.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list marksheets")
	}
	details := make([]models.MarksheetDetail, 0, len(sheets))
	for _, sheet := range sheets {
		detail, err := s.format(ctx, sheet)
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}
	return details, nil
}

func (s *MarksheetService) format(ctx context.Context, sheet models.Marksheet) (*models.MarksheetDetail, error) {
	subjects, err := s.marksheets.ListSubjects(ctx, sheet.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marksheet subjects")
	}
	detail := &models.MarksheetDetail{Marksheet: sheet, Subjects: subjects}

	identifier, err := s.identity.FindIdentifier(ctx, sheet.StudentID)
	if err != nil {
		return nil, err
	}
	detail.Identifier = identifier

	streamID := ""
	if len(subjects) > 0 {
		streamID = subjects[0].Metadata.StreamID
	} else if identifier != nil {
		streamID = stringValue(identifier.StreamID)
	}
	if streamID != "" {
		stream, err := s.streams.FindByID(ctx, streamID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stream")
		}
		detail.Stream = stream
	}
	return detail, nil
}

// RenderPDF prints a marksheet and returns the document with its file name.
func (s *MarksheetService) RenderPDF(ctx context.Context, id string) ([]byte, string, error) {
	detail, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	body, err := s.pdf.Render(marksheetDocument(detail))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render marksheet")
	}
	name := fmt.Sprintf("marksheet-sem%d-%d", detail.Semester, detail.Year)
	if detail.Identifier != nil && !isBlank(detail.Identifier.RollNumber) {
		name += "-" + *detail.Identifier.RollNumber
	}
	return body, name + ".pdf", nil
}

// PDFLink renders the marksheet into the artifact store and returns a signed
// link to the document.
func (s *MarksheetService) PDFLink(ctx context.Context, id string) (*models.DownloadLink, error) {
	if s.downloads == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "download links are not enabled")
	}
	body, name, err := s.RenderPDF(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.downloads.Publish(ctx, id, "marksheets/"+id+"/"+name, body)
}

func marksheetDocument(detail *models.MarksheetDetail) export.Document {
	header := []export.Field{
		{Label: "Semester", Value: strconv.Itoa(detail.Semester)},
		{Label: "Year", Value: strconv.Itoa(detail.Year)},
	}
	if detail.Stream != nil {
		header = append(header, export.Field{Label: "Stream", Value: detail.Stream.Key().String()})
	}
	if id := detail.Identifier; id != nil {
		header = append(header,
			export.Field{Label: "Registration No.", Value: stringValue(id.RegistrationNumber)},
			export.Field{Label: "Roll No.", Value: stringValue(id.RollNumber)},
		)
	}

	table := export.Dataset{Headers: []string{"Code", "Subject", "Full Marks", "Obtained", "Grade", "Status", "Credit", "NGP", "TGP"}}
	for _, s := range detail.Subjects {
		status := ""
		if s.Status != nil {
			status = string(*s.Status)
		}
		table.Rows = append(table.Rows, map[string]string{
			"Code":       s.Metadata.MarksheetCode,
			"Subject":    s.Metadata.Name,
			"Full Marks": formatMarks(&s.Metadata.FullMarks),
			"Obtained":   formatMarks(s.TotalMarks),
			"Grade":      stringValue(s.LetterGrade),
			"Status":     status,
			"Credit":     formatMarks(&s.Metadata.Credit),
			"NGP":        stringValue(s.NGP),
			"TGP":        stringValue(s.TGP),
		})
	}

	summary := []export.Field{
		{Label: "SGPA", Value: stringValue(detail.SGPA)},
		{Label: "Remarks", Value: stringValue(detail.Remarks)},
	}
	if detail.Semester == models.FinalSemester {
		summary = append(summary,
			export.Field{Label: "CGPA", Value: stringValue(detail.CGPA)},
			export.Field{Label: "Classification", Value: stringValue(detail.Classification)},
		)
	}
	return export.Document{Title: "Statement of Marks", Header: header, Table: table, Summary: summary}
}

func formatMarks(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func firstNonEmpty(rows []models.MarksheetRow, field func(models.MarksheetRow) string) string {
	for _, r := range rows {
		if v := field(r); v != "" {
			return v
		}
	}
	return ""
}
