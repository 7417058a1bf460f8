package models

import "time"

// ProgressStage names a step of a bulk operation.
type ProgressStage string

const (
	StageReading        ProgressStage = "reading"
	StageValidatingData ProgressStage = "validating_data"
	StageCleaningData   ProgressStage = "cleaning_data"
	StageProcessingData ProgressStage = "processing_data"
	StageCompleted      ProgressStage = "completed"
)

// ProgressEvent is pushed to the progress sink.
type ProgressEvent struct {
	JobID   string        `json:"job_id,omitempty"`
	Stage   ProgressStage `json:"stage"`
	Message string        `json:"message"`
	At      time.Time     `json:"at"`
}

// ImportKey identifies a processed student group or legacy record.
type ImportKey struct {
	RollNumber       string `json:"roll_number,omitempty"`
	Year             int    `json:"year,omitempty"`
	Stream           string `json:"stream,omitempty"`
	Semester         int    `json:"semester,omitempty"`
	LegacyRecordID   int64  `json:"legacy_record_id,omitempty"`
	StudentID        string `json:"student_id,omitempty"`
	MarksheetID      string `json:"marksheet_id,omitempty"`
	AffectedRowCount int    `json:"rows,omitempty"`
}

// ImportFailure is a key together with the reason it failed.
type ImportFailure struct {
	Key   ImportKey `json:"key"`
	Code  string    `json:"code"`
	Error string    `json:"error"`
}

// ImportResult separates fully processed groups from failed ones.
type ImportResult struct {
	Succeeded []ImportKey     `json:"succeeded"`
	Failed    []ImportFailure `json:"failed"`
	Skipped   int             `json:"skipped"`
}

// Merge appends other onto r.
func (r *ImportResult) Merge(other ImportResult) {
	r.Succeeded = append(r.Succeeded, other.Succeeded...)
	r.Failed = append(r.Failed, other.Failed...)
	r.Skipped += other.Skipped
}

// PartiallyFailed reports whether any group failed.
func (r ImportResult) PartiallyFailed() bool {
	return len(r.Failed) > 0
}

// ImportJobStatus tracks the lifecycle of a queued import.
type ImportJobStatus string

const (
	ImportJobQueued     ImportJobStatus = "QUEUED"
	ImportJobProcessing ImportJobStatus = "PROCESSING"
	ImportJobFinished   ImportJobStatus = "FINISHED"
	ImportJobFailed     ImportJobStatus = "FAILED"
)

// ImportJob is the polled state of a bulk marksheet import or legacy migration.
type ImportJob struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	Status       ImportJobStatus `json:"status"`
	RowCount     int             `json:"row_count"`
	CreatedBy    string          `json:"created_by,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	Result       *ImportResult   `json:"result,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	FailuresLink *DownloadLink   `json:"failures_link,omitempty"`
}

// DownloadLink is a time limited, signed URL to a generated artifact.
type DownloadLink struct {
	URL       string    `json:"url"`
	Filename  string    `json:"filename"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ImportRequest is the payload of a bulk marksheet import.
type ImportRequest struct {
	Rows []MarksheetRow `json:"rows" validate:"required,min=1"`
}

// LegacyMigrationRequest narrows a legacy migration run.
type LegacyMigrationRequest struct {
	ShiftID   *int `json:"shift_id,omitempty"`
	BatchSize int  `json:"batch_size,omitempty" validate:"omitempty,min=1,max=5000"`
	Limit     int  `json:"limit,omitempty" validate:"omitempty,min=1"`
}
