package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/transcript-pipeline/internal/job"
)

// Postgres stores job records in a PostgreSQL table.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database and verifies it.
func Connect(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Migrate creates the jobs table if it does not exist yet.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS transcription_jobs (
			id                UUID PRIMARY KEY,
			owner_id          BIGINT NOT NULL,
			source_kind       TEXT NOT NULL,
			source_value      TEXT NOT NULL,
			original_filename TEXT NOT NULL DEFAULT '',
			status            TEXT NOT NULL,
			error             TEXT NOT NULL DEFAULT '',
			created_at        TIMESTAMPTZ NOT NULL,
			updated_at        TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS transcription_jobs_owner_idx
			ON transcription_jobs (owner_id, created_at DESC)`)
	if err != nil {
		return fmt.Errorf("failed to migrate jobs table: %w", err)
	}
	return nil
}

const jobColumns = `id, owner_id, source_kind, source_value, original_filename, status, error, created_at, updated_at`

// Get returns the job with the given id, or ErrNotFound.
func (p *Postgres) Get(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM transcription_jobs WHERE id = $1`, id)
	return scanJob(row)
}

// Save upserts the job record. Artifact paths are not persisted: they are
// recomputed from id and created_at on load.
func (p *Postgres) Save(ctx context.Context, j *job.Job) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO transcription_jobs (`+jobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
			original_filename = $5, status = $6, error = $7, updated_at = $9`,
		j.ID, j.OwnerID, string(j.Source.Kind), j.Source.Value,
		j.OriginalFilename, string(j.Status), j.Error, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save job %s: %w", j.ID, err)
	}
	return nil
}

// FindActiveForOwner returns the owner's most recent non-terminal job.
func (p *Postgres) FindActiveForOwner(ctx context.Context, ownerID int64) (*job.Job, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM transcription_jobs
		 WHERE owner_id = $1 AND status NOT IN ('failed', 'confirmed', 'rejected')
		 ORDER BY created_at DESC LIMIT 1`, ownerID)
	return scanJob(row)
}

func scanJob(row pgx.Row) (*job.Job, error) {
	var (
		j         job.Job
		kind      string
		status    string
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&j.ID, &j.OwnerID, &kind, &j.Source.Value,
		&j.OriginalFilename, &status, &j.Error, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}
	j.Source.Kind = job.SourceKind(kind)
	j.Status = job.Status(status)
	j.CreatedAt = createdAt
	j.UpdatedAt = updatedAt
	j.Paths = job.DerivePaths(j.ID, j.CreatedAt)
	return &j, nil
}
