package domain

import "context"

// JobStore persists job records. The registry is the single writer; the store
// only mirrors registry state so jobs survive restarts.
type JobStore interface {
	Save(ctx context.Context, job *Job) error
	Delete(ctx context.Context, jobID string) error
	List(ctx context.Context) ([]*Job, error)
}
