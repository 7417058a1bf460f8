package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/college-erp-api/internal/models"
)

const streamColumns = `s.id, s.degree_id, d.name AS degree_name, d.discipline, s.programme, s.framework`

// StreamRepository manages degrees and the streams built on them.
type StreamRepository struct {
	db *sqlx.DB
}

// NewStreamRepository constructs a StreamRepository.
func NewStreamRepository(db *sqlx.DB) *StreamRepository {
	return &StreamRepository{db: db}
}

// List returns every stream ordered by degree, programme and framework.
func (r *StreamRepository) List(ctx context.Context) ([]models.Stream, error) {
	query := `SELECT ` + streamColumns + ` FROM streams s JOIN degrees d ON d.id = s.degree_id ORDER BY d.name, s.programme, s.framework`
	var streams []models.Stream
	if err := r.db.SelectContext(ctx, &streams, query); err != nil {
		return nil, fmt.Errorf("list streams: %w", err)
	}
	return streams, nil
}

// FindByID fetches a stream by ID.
func (r *StreamRepository) FindByID(ctx context.Context, id string) (*models.Stream, error) {
	query := `SELECT ` + streamColumns + ` FROM streams s JOIN degrees d ON d.id = s.degree_id WHERE s.id = $1`
	var stream models.Stream
	if err := r.db.GetContext(ctx, &stream, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find stream: %w", err)
	}
	return &stream, nil
}

// EnsureDegree returns the degree with the given name, creating it when absent.
// An empty discipline on an existing degree is filled in.
func (r *StreamRepository) EnsureDegree(ctx context.Context, name, discipline string) (*models.Degree, error) {
	const query = `INSERT INTO degrees (id, name, discipline) VALUES ($1, $2, $3)
        ON CONFLICT (name) DO UPDATE SET discipline = CASE WHEN degrees.discipline = '' THEN EXCLUDED.discipline ELSE degrees.discipline END
        RETURNING id, name, discipline`
	var degree models.Degree
	if err := r.db.GetContext(ctx, &degree, query, uuid.NewString(), name, discipline); err != nil {
		return nil, fmt.Errorf("ensure degree: %w", err)
	}
	return &degree, nil
}

// Ensure returns the stream for (degree, programme, framework), creating the
// degree and stream when absent.
func (r *StreamRepository) Ensure(ctx context.Context, degreeName, discipline string, programme models.Programme, framework models.Framework) (*models.Stream, error) {
	degree, err := r.EnsureDegree(ctx, degreeName, discipline)
	if err != nil {
		return nil, err
	}
	const query = `INSERT INTO streams (id, degree_id, programme, framework) VALUES ($1, $2, $3, $4)
        ON CONFLICT (degree_id, programme, framework) DO UPDATE SET programme = EXCLUDED.programme
        RETURNING id`
	var id string
	if err := r.db.GetContext(ctx, &id, query, uuid.NewString(), degree.ID, programme, framework); err != nil {
		return nil, fmt.Errorf("ensure stream: %w", err)
	}
	return &models.Stream{
		ID:         id,
		DegreeID:   degree.ID,
		DegreeName: degree.Name,
		Discipline: degree.Discipline,
		Programme:  programme,
		Framework:  framework,
	}, nil
}
