package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/college-erp-api/internal/models"
	"github.com/noah-isme/college-erp-api/pkg/cache"
	appErrors "github.com/noah-isme/college-erp-api/pkg/errors"
	"github.com/noah-isme/college-erp-api/pkg/export"
	"github.com/noah-isme/college-erp-api/pkg/jobs"
)

// Queue job types.
const (
	ImportJobType = "marksheet_import"
	LegacyJobType = "legacy_migration"
)

type keyValueStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type importRunner interface {
	Run(ctx context.Context, run ImportRun) (*models.ImportResult, error)
}

type legacyRunner interface {
	Migrate(ctx context.Context, req models.LegacyMigrationRequest) (*models.ImportResult, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ImportPayload travels with the queued job.
type ImportPayload struct {
	Rows   []models.MarksheetRow
	UserID *string
}

// ImportJobStore keeps job snapshots in process and mirrors them to Redis so
// that any API instance can answer a status poll. Finished jobs are kept
// locally for ttl after they finish.
type ImportJobStore struct {
	mu     sync.RWMutex
	local  map[string]models.ImportJob
	remote keyValueStore
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewImportJobStore constructs a store. remote may be nil.
func NewImportJobStore(remote keyValueStore, ttl time.Duration, logger *zap.Logger) *ImportJobStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ImportJobStore{local: make(map[string]models.ImportJob), remote: remote, ttl: ttl, logger: logger, now: time.Now}
}

func (s *ImportJobStore) expired(job models.ImportJob, now time.Time) bool {
	return job.FinishedAt != nil && now.Sub(*job.FinishedAt) > s.ttl
}

// Save records the snapshot and evicts finished jobs older than ttl.
func (s *ImportJobStore) Save(ctx context.Context, job models.ImportJob) {
	now := s.now()
	s.mu.Lock()
	for id, stored := range s.local {
		if s.expired(stored, now) {
			delete(s.local, id)
		}
	}
	s.local[job.ID] = job
	s.mu.Unlock()
	if s.remote == nil {
		return
	}
	if err := s.remote.Set(ctx, cache.ImportJobKey(job.ID), job, s.ttl); err != nil {
		s.logger.Warn("failed to store import job", zap.String("job_id", job.ID), zap.Error(err))
	}
}

// Load returns the snapshot of a job.
func (s *ImportJobStore) Load(ctx context.Context, id string) (*models.ImportJob, error) {
	s.mu.RLock()
	job, ok := s.local[id]
	s.mu.RUnlock()
	if ok && s.expired(job, s.now()) {
		s.mu.Lock()
		delete(s.local, id)
		s.mu.Unlock()
		ok = false
	}
	if ok {
		return &job, nil
	}
	if s.remote == nil {
		return nil, appErrors.ErrCacheMiss
	}
	var stored models.ImportJob
	if err := s.remote.Get(ctx, cache.ImportJobKey(id), &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// ImportJobService accepts bulk uploads and reports on their progress.
type ImportJobService struct {
	store     *ImportJobStore
	queue     jobDispatcher
	validator *validator.Validate
	csv       csvRenderer
	downloads artifactPublisher
	logger    *zap.Logger
}

// NewImportJobService constructs the job front end. downloads may be nil, in
// which case failure reports are only served inline.
func NewImportJobService(store *ImportJobStore, queue jobDispatcher, validate *validator.Validate, logger *zap.Logger, csv csvRenderer, downloads artifactPublisher) *ImportJobService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	return &ImportJobService{store: store, queue: queue, validator: validate, csv: csv, downloads: downloads, logger: logger}
}

// CreateJob queues the rows for import and returns the queued job.
func (s *ImportJobService) CreateJob(ctx context.Context, req models.ImportRequest, actorID string) (*models.ImportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import payload")
	}
	var userID *string
	if actorID != "" {
		userID = &actorID
	}
	return s.enqueue(ctx, ImportJobType, len(req.Rows), actorID, ImportPayload{Rows: req.Rows, UserID: userID})
}

// CreateLegacyJob queues a legacy admissions migration. It is polled like an
// import job.
func (s *ImportJobService) CreateLegacyJob(ctx context.Context, req models.LegacyMigrationRequest, actorID string) (*models.ImportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid migration request")
	}
	return s.enqueue(ctx, LegacyJobType, 0, actorID, req)
}

func (s *ImportJobService) enqueue(ctx context.Context, jobType string, rows int, actorID string, payload interface{}) (*models.ImportJob, error) {
	job := models.ImportJob{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    models.ImportJobQueued,
		RowCount:  rows,
		CreatedBy: actorID,
		CreatedAt: time.Now().UTC(),
	}
	s.store.Save(ctx, job)

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: jobType, Payload: payload, Enqueued: job.CreatedAt}); err != nil {
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		job.Status = models.ImportJobFailed
		job.ErrorMessage = &msg
		job.FinishedAt = &now
		s.store.Save(ctx, job)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue "+jobType+" job")
	}
	s.logger.Info("job queued", zap.String("job_id", job.ID), zap.String("type", jobType), zap.Int("rows", rows))
	return &job, nil
}

// GetJob returns the state of an import job.
func (s *ImportJobService) GetJob(ctx context.Context, id string) (*models.ImportJob, error) {
	job, err := s.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "import job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load import job")
	}
	return job, nil
}

var failureHeaders = []string{"Roll Number", "Year", "Stream", "Semester", "Legacy Record", "Code", "Error"}

// FailuresCSV renders the failed groups of a finished job.
func (s *ImportJobService) FailuresCSV(ctx context.Context, id string) ([]byte, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Result == nil {
		return nil, appErrors.Clonef(appErrors.ErrConflict, "import job is %s", job.Status)
	}
	return RenderFailures(s.csv, job.Result.Failed)
}

// FailuresLink stores the failure report of a finished job and returns a
// signed link to it.
func (s *ImportJobService) FailuresLink(ctx context.Context, id string) (*models.DownloadLink, error) {
	if s.downloads == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "download links are not enabled")
	}
	body, err := s.FailuresCSV(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.downloads.Publish(ctx, id, failuresArtifact(id), body)
}

func failuresArtifact(jobID string) string {
	return "imports/" + jobID + "/import-" + jobID + "-failures.csv"
}

// RenderFailures writes failures as CSV ordered by year, stream, semester and
// roll number.
func RenderFailures(csv csvRenderer, failures []models.ImportFailure) ([]byte, error) {
	sorted := append([]models.ImportFailure(nil), failures...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Key, sorted[j].Key
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Stream != b.Stream {
			return a.Stream < b.Stream
		}
		if a.Semester != b.Semester {
			return a.Semester < b.Semester
		}
		return a.RollNumber < b.RollNumber
	})

	data := export.Dataset{Headers: failureHeaders}
	for _, f := range sorted {
		row := map[string]string{
			"Roll Number": f.Key.RollNumber,
			"Stream":      f.Key.Stream,
			"Code":        f.Code,
			"Error":       f.Error,
		}
		if f.Key.Year != 0 {
			row["Year"] = strconv.Itoa(f.Key.Year)
		}
		if f.Key.Semester != 0 {
			row["Semester"] = strconv.Itoa(f.Key.Semester)
		}
		if f.Key.LegacyRecordID != 0 {
			row["Legacy Record"] = strconv.FormatInt(f.Key.LegacyRecordID, 10)
		}
		data.Rows = append(data.Rows, row)
	}
	body, err := csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render failures")
	}
	return body, nil
}

// ImportWorker bridges queue jobs to ImportService and the legacy migration.
type ImportWorker struct {
	store     *ImportJobStore
	importer  importRunner
	migrator  legacyRunner
	progress  ProgressSink
	downloads artifactPublisher
	csv       csvRenderer
	logger    *zap.Logger
}

// NewImportWorker constructs a worker publishing import progress on sink.
// migrator may be nil when no legacy database is configured. When downloads
// is set, jobs finishing with failures get a signed link to the report.
func NewImportWorker(store *ImportJobStore, importer importRunner, migrator legacyRunner, sink ProgressSink, downloads artifactPublisher, logger *zap.Logger) *ImportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = NopProgressSink{}
	}
	return &ImportWorker{
		store:     store,
		importer:  importer,
		migrator:  migrator,
		progress:  sink,
		downloads: downloads,
		csv:       export.NewCSVExporter(),
		logger:    logger,
	}
}

// Handle processes a queue job.
func (w *ImportWorker) Handle(ctx context.Context, job jobs.Job) error {
	var run func() (*models.ImportResult, error)
	rows := 0
	switch payload := job.Payload.(type) {
	case ImportPayload:
		rows = len(payload.Rows)
		run = func() (*models.ImportResult, error) {
			return w.importer.Run(ctx, ImportRun{JobID: job.ID, Rows: payload.Rows, UserID: payload.UserID, Sink: w.progress})
		}
	case models.LegacyMigrationRequest:
		if w.migrator == nil {
			return appErrors.Clone(appErrors.ErrInternal, "legacy database is not configured")
		}
		run = func() (*models.ImportResult, error) {
			return w.migrator.Migrate(ctx, payload)
		}
	default:
		return appErrors.Clonef(appErrors.ErrInternal, "job %s carries an unknown payload", job.ID)
	}

	record, err := w.store.Load(ctx, job.ID)
	if err != nil {
		record = &models.ImportJob{ID: job.ID, Type: job.Type, RowCount: rows, CreatedAt: job.Enqueued}
	}
	record.Status = models.ImportJobProcessing
	w.store.Save(ctx, *record)

	result, runErr := run()
	now := time.Now().UTC()
	record.FinishedAt = &now
	record.Result = result
	if runErr != nil {
		msg := runErr.Error()
		record.Status = models.ImportJobFailed
		record.ErrorMessage = &msg
		w.store.Save(ctx, *record)
		w.logger.Warn("job failed", zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Error(runErr))
		return runErr
	}
	record.Status = models.ImportJobFinished
	record.FailuresLink = w.publishFailures(ctx, job.ID, result)
	w.store.Save(ctx, *record)
	w.logger.Info("job finished", zap.String("job_id", job.ID), zap.String("type", job.Type))
	return nil
}

// publishFailures stores the failure report of a finished job. The job still
// finishes when the report cannot be stored.
func (w *ImportWorker) publishFailures(ctx context.Context, jobID string, result *models.ImportResult) *models.DownloadLink {
	if w.downloads == nil || result == nil || len(result.Failed) == 0 {
		return nil
	}
	body, err := RenderFailures(w.csv, result.Failed)
	if err == nil {
		var link *models.DownloadLink
		if link, err = w.downloads.Publish(ctx, jobID, failuresArtifact(jobID), body); err == nil {
			return link
		}
	}
	w.logger.Warn("failure report not published", zap.String("job_id", jobID), zap.Error(err))
	return nil
}
