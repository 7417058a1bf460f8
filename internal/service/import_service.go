package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/college-erp-api/internal/models"
	appErrors "github.com/noah-isme/college-erp-api/pkg/errors"
)

type streamLister interface {
	List(ctx context.Context) ([]models.Stream, error)
}

type metadataFinder interface {
	Find(ctx context.Context, streamID string, semester int, code string) (*models.SubjectMetadata, error)
}

type groupReconciler interface {
	Reconcile(ctx context.Context, group MarksheetGroup) (*ReconcileOutcome, error)
}

// ImportRun is one bulk upload.
type ImportRun struct {
	JobID  string
	Rows   []models.MarksheetRow
	UserID *string
	Sink   ProgressSink
}

type bucketKey struct {
	Year     int
	Stream   models.StreamKey
	Semester int
}

type studentGroup struct {
	key    models.ImportKey
	stream models.Stream
	rows   []models.MarksheetRow
}

// ImportService drives a bulk marksheet upload: it cleans and validates the
// rows, files them into (year, stream, semester) buckets and reconciles every
// student group in ascending year and semester order.
type ImportService struct {
	streams    streamLister
	metadata   metadataFinder
	reconciler groupReconciler
	validator  *validator.Validate
	metrics    *MetricsService
	logger     *zap.Logger
	workers    int
	now        func() time.Time
}

// NewImportService constructs an ImportService. workers bounds how many
// student groups of one bucket are reconciled at once. metadata may be nil, in
// which case marks are only checked against the full marks on the rows.
func NewImportService(streams streamLister, metadata metadataFinder, reconciler groupReconciler, workers int, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ImportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 1
	}
	return &ImportService{
		streams:    streams,
		metadata:   metadata,
		reconciler: reconciler,
		validator:  validate,
		metrics:    metrics,
		logger:     logger,
		workers:    workers,
		now:        time.Now,
	}
}

// Run imports the rows. A validation failure aborts before anything is
// written; failures of individual student groups are collected in the result.
func (s *ImportService) Run(ctx context.Context, run ImportRun) (*models.ImportResult, error) {
	if run.Sink == nil {
		run.Sink = NopProgressSink{}
	}
	started := s.now()
	emit := func(stage models.ProgressStage, format string, args ...interface{}) {
		s.publish(ctx, run, stage, format, args...)
	}
	log := s.logger.With(zap.String("job_id", run.JobID))

	emit(models.StageReading, "Reading %d rows", len(run.Rows))
	if len(run.Rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no rows to import")
	}

	emit(models.StageCleaningData, "Cleaning %d rows", len(run.Rows))
	rows := CleanRows(run.Rows)

	emit(models.StageValidatingData, "Validating %d rows", len(rows))
	if err := s.ValidateRows(rows); err != nil {
		log.Warn("import rejected", zap.Error(err))
		return nil, err
	}

	streams, err := s.streams.List(ctx)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to list streams")
	}
	if err := s.checkStoredFullMarks(ctx, rows, streams); err != nil {
		log.Warn("import rejected", zap.Error(err))
		return nil, err
	}

	emit(models.StageProcessingData, "Processing %d rows", len(rows))
	result := &models.ImportResult{}
	buckets, minYear, maxYear, unknown := bucketRows(rows, streams)
	result.Failed = append(result.Failed, unknown...)
	for range unknown {
		s.metrics.RecordImportGroup(OutcomeFailed)
	}

	if year := s.now().Year(); minYear > 0 && year > maxYear {
		maxYear = year
	}
	for year := minYear; year <= maxYear; year++ {
		for _, stream := range streams {
			for semester := 1; semester <= models.FinalSemester; semester++ {
				members, ok := buckets[bucketKey{Year: year, Stream: stream.Key(), Semester: semester}]
				if !ok {
					continue
				}
				done, failed, err := s.processBucket(ctx, run, stream, year, semester, members, result, log)
				if err != nil {
					return result, err
				}
				emit(models.StageProcessingData, "Finished %d semester %d of %s: %d students processed, %d failed", year, semester, stream.Key(), done, failed)
			}
		}
	}

	s.metrics.ObserveImport(len(rows), s.now().Sub(started))
	emit(models.StageCompleted, "Imported %d student groups, %d failed", len(result.Succeeded), len(result.Failed))
	log.Info("import finished",
		zap.Int("rows", len(rows)),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)),
		zap.Int("skipped", result.Skipped),
		zap.Duration("elapsed", s.now().Sub(started)),
	)
	return result, nil
}

func (s *ImportService) publish(ctx context.Context, run ImportRun, stage models.ProgressStage, format string, args ...interface{}) {
	run.Sink.Publish(ctx, models.ProgressEvent{JobID: run.JobID, Stage: stage, Message: fmt.Sprintf(format, args...), At: s.now().UTC()})
}

// bucketRows files every row under its (year, stream, semester) in one pass.
// Rows of streams that do not exist are reported once per student group.
func bucketRows(rows []models.MarksheetRow, streams []models.Stream) (map[bucketKey][]models.MarksheetRow, int, int, []models.ImportFailure) {
	known := make(map[models.StreamKey]struct{}, len(streams))
	for _, stream := range streams {
		known[stream.Key()] = struct{}{}
	}

	buckets := make(map[bucketKey][]models.MarksheetRow)
	minYear, maxYear := 0, 0
	var unknown []models.ImportFailure
	reported := make(map[string]struct{})
	for _, row := range rows {
		year := row.Year()
		streamKey := row.StreamKey()
		if _, ok := known[streamKey]; !ok {
			id := fmt.Sprintf("%s|%d|%s|%d", RollKey(row.RollNumber), year, streamKey, row.Semester)
			if _, seen := reported[id]; !seen {
				reported[id] = struct{}{}
				unknown = append(unknown, models.ImportFailure{
					Key:   models.ImportKey{RollNumber: RollKey(row.RollNumber), Year: year, Stream: streamKey.String(), Semester: row.Semester},
					Code:  appErrors.ErrInvalidInput.Code,
					Error: fmt.Sprintf("stream %s does not exist", streamKey),
				})
			}
			continue
		}
		if minYear == 0 || year < minYear {
			minYear = year
		}
		if year > maxYear {
			maxYear = year
		}
		key := bucketKey{Year: year, Stream: streamKey, Semester: row.Semester}
		buckets[key] = append(buckets[key], row)
	}
	if minYear == 0 {
		maxYear = -1
	}
	return buckets, minYear, maxYear, unknown
}

// processBucket reconciles each student of a bucket once. The first row of a
// roll number pulls in every row of that student; later rows of an already
// processed roll number are passed over. Every finished student is published
// on the run's progress sink.
func (s *ImportService) processBucket(ctx context.Context, run ImportRun, stream models.Stream, year, semester int, rows []models.MarksheetRow, result *models.ImportResult, log *zap.Logger) (int, int, error) {
	byRoll := make(map[string][]models.MarksheetRow)
	for _, row := range rows {
		roll := RollKey(row.RollNumber)
		byRoll[roll] = append(byRoll[roll], row)
	}

	processed := make(map[string]struct{})
	var groups []studentGroup
	for _, row := range rows {
		roll := RollKey(row.RollNumber)
		if _, done := processed[roll]; done {
			continue
		}
		processed[roll] = struct{}{}
		groups = append(groups, studentGroup{
			key:    models.ImportKey{RollNumber: roll, Year: year, Stream: stream.Key().String(), Semester: semester},
			stream: stream,
			rows:   byRoll[roll],
		})
	}

	var (
		mu           sync.Mutex
		g            errgroup.Group
		done, failed int
	)
	g.SetLimit(s.workers)
	for _, group := range groups {
		group := group
		if err := ctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcome, err := s.reconciler.Reconcile(ctx, MarksheetGroup{
				Stream:   group.stream,
				Semester: semester,
				Year:     year,
				Rows:     group.rows,
				Source:   models.MarksheetSourceFileUpload,
				UserID:   run.UserID,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				log.Error("student group failed",
					zap.String("roll_number", group.key.RollNumber),
					zap.Int("year", year),
					zap.String("stream", group.key.Stream),
					zap.Int("semester", semester),
					zap.Error(err),
				)
				result.Failed = append(result.Failed, models.ImportFailure{
					Key:   group.key,
					Code:  appErrors.FromError(err).Code,
					Error: err.Error(),
				})
				s.metrics.RecordImportGroup(OutcomeFailed)
				failed++
				s.publish(ctx, run, models.StageProcessingData, "Student %s failed for %d %s semester %d: %v", group.key.RollNumber, year, group.key.Stream, semester, err)
				return nil
			}

			key := group.key
			key.AffectedRowCount = outcome.SavedRows
			if outcome.Marksheet != nil {
				key.StudentID = outcome.Marksheet.StudentID
				key.MarksheetID = outcome.Marksheet.ID
			}
			result.Succeeded = append(result.Succeeded, key)
			result.Skipped += outcome.SkippedRows
			s.metrics.RecordImportGroup(OutcomeSucceeded)
			done++
			s.publish(ctx, run, models.StageProcessingData, "Student %s processed for %d %s semester %d (%d papers)", group.key.RollNumber, year, group.key.Stream, semester, outcome.SavedRows)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return done, failed, err
	}
	return done, failed, ctx.Err()
}

// CleanRows numbers the rows from 1 and normalizes their text fields.
func CleanRows(rows []models.MarksheetRow) []models.MarksheetRow {
	cleaned := make([]models.MarksheetRow, len(rows))
	for i, row := range rows {
		row.Index = i + 1
		row.RollNumber = CleanIdentifier(row.RollNumber)
		row.RegistrationNumber = CleanIdentifier(row.RegistrationNumber)
		row.UID = CleanIdentifier(row.UID)
		row.Name = CleanText(row.Name)
		row.Stream = strings.ToUpper(strings.TrimSpace(row.Stream))
		row.Course = strings.ToUpper(strings.TrimSpace(row.Course))
		row.Framework = strings.ToUpper(strings.TrimSpace(row.Framework))
		row.PaperCode = NormalizePaperCode(row.PaperCode)
		row.SubjectName = CleanText(row.SubjectName)
		row.Category = CleanText(row.Category)
		cleaned[i] = row
	}
	return cleaned
}

var markComponentNames = []string{"internal", "theory", "practical", "project", "viva"}

// ValidateRows checks every row and the uniqueness of papers per student. The
// first problem found is returned with the row it occurred on.
func (s *ImportService) ValidateRows(rows []models.MarksheetRow) error {
	seen := make(map[string]int, len(rows))
	for _, row := range rows {
		if err := s.validator.Struct(row); err != nil {
			field, reason := "row", err.Error()
			var fieldErrs validator.ValidationErrors
			if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
				field = fieldErrs[0].Field()
				reason = "failed " + fieldErrs[0].Tag()
				if param := fieldErrs[0].Param(); param != "" {
					reason += "=" + param
				}
			}
			return rowError(row, field, reason)
		}
		if RollKey(row.RollNumber) == "" {
			return rowError(row, "RollNumber", "has no letters or digits")
		}
		if row.PaperCode == "" {
			return rowError(row, "PaperCode", "is required")
		}

		marks := row.MarkComponents()
		full := row.FullMarkComponents()
		for i, name := range markComponentNames {
			if full[i].Present && !full[i].Absent && full[i].Value < 0 {
				return rowError(row, "full_marks_"+name, "must not be negative")
			}
			if !marks[i].Present || marks[i].Absent {
				continue
			}
			if marks[i].Value < 0 {
				return rowError(row, name+"_marks", "must not be negative")
			}
			if full[i].Present && !full[i].Absent && marks[i].Value > full[i].Value {
				return rowError(row, name+"_marks", fmt.Sprintf("%g exceeds full marks %g", marks[i].Value, full[i].Value))
			}
		}

		dup := fmt.Sprintf("%d|%s|%d|%s|%s", row.Year(), row.StreamKey(), row.Semester, RollKey(row.RollNumber), row.PaperCode)
		if first, ok := seen[dup]; ok {
			return rowError(row, "PaperCode", fmt.Sprintf("duplicates row %d", first))
		}
		seen[dup] = row.Index
	}
	return nil
}

// checkStoredFullMarks bounds the marks of rows whose paper already has
// metadata by the stored full marks, which win over the ones on the row.
func (s *ImportService) checkStoredFullMarks(ctx context.Context, rows []models.MarksheetRow, streams []models.Stream) error {
	if s.metadata == nil {
		return nil
	}
	streamIDs := make(map[models.StreamKey]string, len(streams))
	for _, stream := range streams {
		streamIDs[stream.Key()] = stream.ID
	}

	found := make(map[string]*models.SubjectMetadata)
	for _, row := range rows {
		streamID, ok := streamIDs[row.StreamKey()]
		if !ok {
			continue
		}
		key := fmt.Sprintf("%s|%d|%s", streamID, row.Semester, row.PaperCode)
		meta, seen := found[key]
		if !seen {
			stored, err := s.metadata.Find(ctx, streamID, row.Semester, row.PaperCode)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to load subject metadata")
			}
			found[key] = stored
			meta = stored
		}
		if meta == nil {
			continue
		}

		full := []float64{meta.FullMarksInternal, meta.FullMarksTheory, meta.FullMarksPractical, meta.FullMarksProject, meta.FullMarksViva}
		for i, mark := range row.MarkComponents() {
			if !mark.Present || mark.Absent {
				continue
			}
			if mark.Value > full[i] {
				return rowError(row, markComponentNames[i]+"_marks", fmt.Sprintf("%g exceeds stored full marks %g", mark.Value, full[i]))
			}
		}
	}
	return nil
}

func rowError(row models.MarksheetRow, field, reason string) error {
	return appErrors.Clonef(appErrors.ErrValidation, "row %d (roll %s, paper %s): %s %s", row.Index, row.RollNumber, row.PaperCode, field, reason)
}
