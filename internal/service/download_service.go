package service

import (
	"context"
	"errors"
	"os"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/college-erp-api/internal/models"
	appErrors "github.com/noah-isme/college-erp-api/pkg/errors"
	"github.com/noah-isme/college-erp-api/pkg/storage"
)

type artifactStore interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, int64, error)
	Sweep(ttl time.Duration, now time.Time) ([]string, error)
}

type linkSigner interface {
	Sign(owner, path string) (string, time.Time, error)
	Verify(token string) (*storage.Link, error)
	TTL() time.Duration
}

// artifactPublisher is what the import and marksheet services need to hand
// out download links.
type artifactPublisher interface {
	Publish(ctx context.Context, owner, name string, body []byte) (*models.DownloadLink, error)
}

// Download is an opened artifact ready to be streamed.
type Download struct {
	File        *os.File
	Filename    string
	ContentType string
	Size        int64
	ExpiresAt   time.Time
}

// DownloadService stores generated artifacts and issues signed links to them.
type DownloadService struct {
	store     artifactStore
	signer    linkSigner
	urlPrefix string
	logger    *zap.Logger
	now       func() time.Time
}

// NewDownloadService builds links as urlPrefix + "/downloads/" + token.
func NewDownloadService(store artifactStore, signer linkSigner, urlPrefix string, logger *zap.Logger) *DownloadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DownloadService{
		store:     store,
		signer:    signer,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		logger:    logger,
		now:       time.Now,
	}
}

// Publish writes body under name and returns a signed link owned by owner.
// Publishing the same name again replaces the artifact.
func (s *DownloadService) Publish(ctx context.Context, owner, name string, body []byte) (*models.DownloadLink, error) {
	stored, err := s.store.Save(name, body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store artifact")
	}
	token, expiresAt, err := s.signer.Sign(owner, stored)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	s.logger.Debug("artifact published", zap.String("owner", owner), zap.String("path", stored))
	return &models.DownloadLink{
		URL:       s.urlPrefix + "/downloads/" + token,
		Filename:  path.Base(stored),
		ExpiresAt: expiresAt.UTC(),
	}, nil
}

// Resolve verifies token and opens the artifact it points at. The caller
// closes the returned file.
func (s *DownloadService) Resolve(ctx context.Context, token string) (*Download, error) {
	link, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrExpiredLink) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	file, size, err := s.store.Open(link.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "artifact no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open artifact")
	}
	return &Download{
		File:        file,
		Filename:    path.Base(link.Path),
		ContentType: contentTypeFor(link.Path),
		Size:        size,
		ExpiresAt:   link.ExpiresAt,
	}, nil
}

// Cleanup removes artifacts older than the link TTL; their links have all
// expired by then.
func (s *DownloadService) Cleanup(ctx context.Context) int {
	removed, err := s.store.Sweep(s.signer.TTL(), s.now())
	if err != nil {
		s.logger.Warn("artifact cleanup failed", zap.Error(err))
		return 0
	}
	if len(removed) > 0 {
		s.logger.Info("expired artifacts removed", zap.Int("count", len(removed)))
	}
	return len(removed)
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (s *DownloadService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup(ctx)
			}
		}
	}()
}

func contentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
