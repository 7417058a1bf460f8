package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/college-erp-api/internal/models"
	appErrors "github.com/noah-isme/college-erp-api/pkg/errors"
	"github.com/noah-isme/college-erp-api/pkg/keylock"
)

type subjectMetadataStore interface {
	Find(ctx context.Context, streamID string, semester int, code string) (*models.SubjectMetadata, error)
	Upsert(ctx context.Context, meta *models.SubjectMetadata) (*models.SubjectMetadata, error)
}

// SubjectMetadataService finds or creates the canonical description of a paper.
type SubjectMetadataService struct {
	repo   subjectMetadataStore
	locks  *keylock.Locker
	logger *zap.Logger
}

// NewSubjectMetadataService constructs the resolver.
func NewSubjectMetadataService(repo subjectMetadataStore, logger *zap.Logger) *SubjectMetadataService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectMetadataService{repo: repo, locks: keylock.New(), logger: logger}
}

// NormalizePaperCode trims and upper-cases a paper code.
func NormalizePaperCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Resolve returns the metadata of the row's paper in the given stream and
// semester, creating it from the row's full marks and credits on first sight.
func (s *SubjectMetadataService) Resolve(ctx context.Context, streamID string, row models.MarksheetRow) (*models.SubjectMetadata, error) {
	code := NormalizePaperCode(row.PaperCode)
	if code == "" {
		return nil, appErrors.Clonef(appErrors.ErrInvalidInput, "row %d: paper code is required", row.Index)
	}

	unlock := s.locks.Lock(fmt.Sprintf("%s|%d|%s", streamID, row.Semester, code))
	defer unlock()

	existing, err := s.repo.Find(ctx, streamID, row.Semester, code)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to load subject metadata")
	}

	meta := metadataFromRow(streamID, code, row)
	stored, err := s.repo.Upsert(ctx, meta)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to create subject metadata")
	}
	s.logger.Info("subject metadata created",
		zap.String("stream_id", streamID),
		zap.Int("semester", row.Semester),
		zap.String("marksheet_code", code),
		zap.Float64("full_marks", stored.FullMarks),
	)
	return stored, nil
}

func metadataFromRow(streamID, code string, row models.MarksheetRow) *models.SubjectMetadata {
	name := CleanText(row.SubjectName)
	if name == "" {
		name = code
	}
	meta := &models.SubjectMetadata{
		StreamID:           streamID,
		Semester:           row.Semester,
		MarksheetCode:      code,
		Name:               name,
		Category:           optionalString(CleanText(row.Category)),
		FullMarksInternal:  row.FullMarksInternal.Or(0),
		FullMarksTheory:    row.FullMarksTheory.Or(0),
		FullMarksPractical: row.FullMarksPractical.Or(0),
		FullMarksProject:   row.FullMarksProject.Or(0),
		FullMarksViva:      row.FullMarksViva.Or(0),
		CreditInternal:     row.CreditInternal.Or(0),
		CreditTheory:       row.CreditTheory.Or(0),
		CreditPractical:    row.CreditPractical.Or(0),
		CreditProject:      row.CreditProject.Or(0),
		CreditViva:         row.CreditViva.Or(0),
	}
	meta.FullMarks = meta.FullMarksInternal + meta.FullMarksTheory + meta.FullMarksPractical + meta.FullMarksProject + meta.FullMarksViva
	meta.Credit = row.Credit.Or(meta.CreditInternal + meta.CreditTheory + meta.CreditPractical + meta.CreditProject + meta.CreditViva)
	return meta
}
