package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"clipforge/internal/domain"
)

const jobsSchema = `
CREATE TABLE IF NOT EXISTS jobs (
    id         TEXT PRIMARY KEY,
    status     TEXT NOT NULL,
    payload    JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs (status);
`

// JobStorePG persists full job records as JSONB. The registry holds the
// authoritative in-memory state; this store exists so jobs survive restarts.
type JobStorePG struct {
	pool *pgxpool.Pool
}

// NewJobStore creates a job store backed by PostgreSQL.
func NewJobStore(pool *pgxpool.Pool) *JobStorePG {
	return &JobStorePG{pool: pool}
}

// EnsureSchema creates the jobs table when it does not exist yet.
func (s *JobStorePG) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, jobsSchema); err != nil {
		return fmt.Errorf("repo: ensure jobs schema: %w", err)
	}
	return nil
}

// Save upserts the job's full state.
func (s *JobStorePG) Save(ctx context.Context, job *domain.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("repo: marshal job %s: %w", job.ID, err)
	}
	query := `
INSERT INTO jobs (id, status, payload, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET status = EXCLUDED.status,
    payload = EXCLUDED.payload,
    updated_at = EXCLUDED.updated_at;
`
	if _, err := s.pool.Exec(ctx, query, job.ID, string(job.Status), payload, job.CreatedAt, job.UpdatedAt); err != nil {
		return fmt.Errorf("repo: save job %s: %w", job.ID, err)
	}
	return nil
}

// Delete removes a job record.
func (s *JobStorePG) Delete(ctx context.Context, jobID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1;`, jobID); err != nil {
		return fmt.Errorf("repo: delete job %s: %w", jobID, err)
	}
	return nil
}

// List returns every persisted job.
func (s *JobStorePG) List(ctx context.Context) ([]*domain.Job, error) {
	rows, err := s.pool.Query(ctx, `SELECT payload FROM jobs ORDER BY created_at;`)
	if err != nil {
		return nil, fmt.Errorf("repo: list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("repo: scan job: %w", err)
		}
		var job domain.Job
		if err := json.Unmarshal(payload, &job); err != nil {
			return nil, fmt.Errorf("repo: unmarshal job: %w", err)
		}
		jobs = append(jobs, &job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo: list jobs: %w", err)
	}
	return jobs, nil
}

var _ domain.JobStore = (*JobStorePG)(nil)
