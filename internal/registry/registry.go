package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipforge/internal/domain"
	"clipforge/internal/infra"
)

// RestartFailureReason is the error detail set on jobs that were in flight
// when the service stopped.
const RestartFailureReason = "service restarted"

const persistTimeout = 5 * time.Second

// Forward transitions of the linear pipeline, plus the stages a failed job may
// resume at via retry. Failure and cancellation are reachable from any
// non-terminal state and are handled by Fail and MarkCancelled directly.
var allowedTransitions = map[domain.JobStatus][]domain.JobStatus{
	domain.JobStatusPending:    {domain.JobStatusPlanning},
	domain.JobStatusPlanning:   {domain.JobStatusGenerating},
	domain.JobStatusGenerating: {domain.JobStatusAssembling},
	domain.JobStatusAssembling: {domain.JobStatusFormatting},
	domain.JobStatusFormatting: {domain.JobStatusCompleted},
	domain.JobStatusFailed: {
		domain.JobStatusPlanning,
		domain.JobStatusGenerating,
		domain.JobStatusAssembling,
		domain.JobStatusFormatting,
	},
}

func transitionAllowed(from, to domain.JobStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Registry owns every job's lifecycle. It is the single writer: pipeline
// stages report through its methods and never mutate job state directly, so
// concurrent pollers always observe consistent snapshots.
type Registry struct {
	mu      sync.RWMutex
	jobs    map[string]*domain.Job
	cancels map[string]context.CancelFunc
	store   domain.JobStore
	logger  infra.Logger
	now     func() time.Time
}

// New constructs a Registry backed by the given store.
func New(store domain.JobStore, logger infra.Logger) *Registry {
	return &Registry{
		jobs:    make(map[string]*domain.Job),
		cancels: make(map[string]context.CancelFunc),
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
}

// Restore loads persisted jobs. Jobs that were mid-pipeline when the service
// stopped are marked failed; their cause names the stage they were in.
func (r *Registry) Restore(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	jobs, err := r.store.List(ctx)
	if err != nil {
		return fmt.Errorf("registry: restore: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, job := range jobs {
		if !job.Status.IsTerminal() {
			job.Error = &domain.JobError{Stage: string(job.Status), Detail: RestartFailureReason}
			job.Status = domain.JobStatusFailed
			job.Progress = 100
			job.CurrentStep = "Failed"
			job.UpdatedAt = r.now()
			r.persistLocked(job)
		}
		r.jobs[job.ID] = job
	}
	r.logger.Info().Int("count", len(jobs)).Msg("registry: restored jobs")
	return nil
}

// Create registers a new job in pending state and returns its snapshot.
func (r *Registry) Create(cfg domain.JobConfig) *domain.Job {
	now := r.now()
	job := &domain.Job{
		ID:          uuid.NewString(),
		Status:      domain.JobStatusPending,
		Progress:    0,
		CurrentStep: "Queued",
		Config:      cfg,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
	r.persistLocked(job)
	return job.Clone()
}

// Get returns a deep-copied snapshot of a job.
func (r *Registry) Get(jobID string) (*domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return job.Clone(), nil
}

// List returns snapshots of all jobs, newest first.
func (r *Registry) List() []*domain.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// BindCancel registers the cancel function that aborts a running job's
// in-flight provider calls.
func (r *Registry) BindCancel(jobID string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels[jobID] = cancel
}

// ReleaseCancel removes a job's cancel binding once its run finishes.
func (r *Registry) ReleaseCancel(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cancels, jobID)
}

// RequestCancel flags a non-terminal job for cooperative cancellation and
// aborts its in-flight external calls best-effort. The status transition to
// cancelled happens when the pipeline observes the flag at its next yield
// point.
func (r *Registry) RequestCancel(jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if job.Status.IsTerminal() {
		return fmt.Errorf("registry: cancel %s job: %w", job.Status, domain.ErrInvalidTransition)
	}
	job.CancelRequested = true
	job.UpdatedAt = r.now()
	if cancel, ok := r.cancels[jobID]; ok {
		cancel()
	}
	return nil
}

// CancelRequested reports whether cancellation has been requested for a job.
func (r *Registry) CancelRequested(jobID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[jobID]
	return ok && job.CancelRequested
}

// MarkCancelled finalizes a cooperative cancellation: already-produced
// segment results are discarded and the job becomes terminal.
func (r *Registry) MarkCancelled(jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if job.Status.IsTerminal() {
		return fmt.Errorf("registry: cancel %s job: %w", job.Status, domain.ErrInvalidTransition)
	}
	job.Status = domain.JobStatusCancelled
	job.Progress = 100
	job.CurrentStep = "Cancelled"
	job.Segments = nil
	job.Assembled = nil
	job.Outputs = nil
	job.UpdatedAt = r.now()
	r.persistLocked(job)
	r.logger.Info().Str("job_id", jobID).Msg("registry: job cancelled")
	return nil
}

// Transition advances a job along the pipeline. Progress never regresses
// except when resuming out of the failed state.
func (r *Registry) Transition(jobID string, to domain.JobStatus, step string, progress int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if !transitionAllowed(job.Status, to) {
		return fmt.Errorf("registry: %s -> %s: %w", job.Status, to, domain.ErrInvalidTransition)
	}
	resuming := job.Status == domain.JobStatusFailed
	if !resuming && progress < job.Progress {
		progress = job.Progress
	}
	job.Status = to
	job.CurrentStep = step
	job.Progress = progress
	if resuming {
		job.Error = nil
		job.CancelRequested = false
	}
	job.UpdatedAt = r.now()
	r.persistLocked(job)
	return nil
}

// SetPlan records the segment plan and seeds one pending result per segment.
func (r *Registry) SetPlan(jobID string, plan *domain.SegmentPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	job.Plan = plan
	job.Segments = make([]domain.SegmentResult, len(plan.Segments))
	for i, seg := range plan.Segments {
		job.Segments[i] = domain.SegmentResult{Index: seg.Index, Status: domain.SegmentPending}
	}
	job.UpdatedAt = r.now()
	r.persistLocked(job)
	return nil
}

// SetSegment records one segment result and advances progress by the
/// stage-weighted formula: generation occupies the 10-70 band. The completion
// count is derived from the stored results under the registry lock, so
// observers arriving out of order cannot move progress or the step text
// backwards.
func (r *Registry) SetSegment(jobID string, res domain.SegmentResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if res.Index < 0 || res.Index >= len(job.Segments) {
		return fmt.Errorf("registry: segment index %d out of range", res.Index)
	}
	job.Segments[res.Index] = res

	total := len(job.Segments)
	done := 0
	for i := range job.Segments {
		if job.Segments[i].Status == domain.SegmentDone {
			done++
		}
	}
	if total > 0 {
		progress := 10 + 60*done/total
		if progress > job.Progress {
			job.Progress = progress
		}
	}
	job.CurrentStep = fmt.Sprintf("Generating segment %d of %d", done, total)
	job.UpdatedAt = r.now()
	r.persistLocked(job)
	return nil
}

// SetAssembled stores the concatenated artifact on the job.
func (r *Registry) SetAssembled(jobID string, assembled *domain.AssembledVideo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	job.Assembled = assembled
	job.UpdatedAt = r.now()
	r.persistLocked(job)
	return nil
}

// Complete marks a job finished with its platform outputs and any non-fatal
// per-platform diagnostics.
func (r *Registry) Complete(jobID string, outputs map[string]domain.PlatformOutput, diagnostics []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if job.Status != domain.JobStatusFormatting {
		return fmt.Errorf("registry: complete from %s: %w", job.Status, domain.ErrInvalidTransition)
	}
	job.Status = domain.JobStatusCompleted
	job.Progress = 100
	job.CurrentStep = "Completed"
	job.Outputs = outputs
	job.Diagnostics = diagnostics
	job.UpdatedAt = r.now()
	r.persistLocked(job)
	r.logger.Info().Str("job_id", jobID).Int("outputs", len(outputs)).Msg("registry: job completed")
	return nil
}

// Fail marks a job failed with a structured cause. Partial segment results
// are retained for diagnostics when provided.
func (r *Registry) Fail(jobID, stage, detail string, segments []domain.SegmentResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if job.Status.IsTerminal() {
		return fmt.Errorf("registry: fail %s job: %w", job.Status, domain.ErrInvalidTransition)
	}
	if segments != nil {
		job.Segments = segments
	}
	job.Status = domain.JobStatusFailed
	job.Progress = 100
	job.CurrentStep = "Failed"
	job.Error = &domain.JobError{Stage: stage, Detail: detail}
	job.UpdatedAt = r.now()
	r.persistLocked(job)
	r.logger.Warn().Str("job_id", jobID).Str("stage", stage).Str("detail", detail).Msg("registry: job failed")
	return nil
}

// PrepareRetry validates that a job is retryable and returns the snapshot the
// pipeline resumes from. The resume stage is the stage recorded in the
// failure cause; already-succeeded segment results are kept so they are not
// regenerated.
func (r *Registry) PrepareRetry(jobID string) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if job.Status != domain.JobStatusFailed {
		return nil, fmt.Errorf("registry: retry %s job: %w", job.Status, domain.ErrInvalidTransition)
	}
	for i := range job.Segments {
		if job.Segments[i].Status == domain.SegmentFailed {
			job.Segments[i] = domain.SegmentResult{Index: job.Segments[i].Index, Status: domain.SegmentPending}
		}
	}
	job.CancelRequested = false
	job.UpdatedAt = r.now()
	r.persistLocked(job)
	return job.Clone(), nil
}

// Delete removes a terminal job's record.
func (r *Registry) Delete(ctx context.Context, jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if !job.Status.IsTerminal() {
		return fmt.Errorf("registry: delete %s job: %w", job.Status, domain.ErrInvalidTransition)
	}
	delete(r.jobs, jobID)
	if r.store != nil {
		if err := r.store.Delete(ctx, jobID); err != nil {
			r.logger.Warn().Err(err).Str("job_id", jobID).Msg("registry: delete from store failed")
		}
	}
	return nil
}

// persistLocked mirrors the current job state to the store. Persistence is
// best-effort; the in-memory registry remains the source of truth.
func (r *Registry) persistLocked(job *domain.Job) {
	if r.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := r.store.Save(ctx, job.Clone()); err != nil {
		r.logger.Warn().Err(err).Str("job_id", job.ID).Msg("registry: persist failed")
	}
}
