package pipeline

import (
	"context"
	"sync"

	"clipforge/internal/domain"
	"clipforge/internal/infra"
	"clipforge/internal/planner"
	"clipforge/internal/registry"
)

// Stage names recorded in failure causes. A retry resumes at the named stage.
const (
	StagePlanning   = "planning"
	StageGenerating = "generating"
	StageAssembling = "assembling"
	StageFormatting = "formatting"
)

// Runner drives submitted jobs through the pipeline. Each job runs on its own
// goroutine; all state changes flow through the registry so pollers never see
// a half-applied update.
type Runner struct {
	registry  *registry.Registry
	planner   *planner.Planner
	generator *SequenceGenerator
	assembler *Assembler
	formatter *Formatter
	logger    infra.Logger

	wg sync.WaitGroup
}

// NewRunner wires the pipeline stages together.
func NewRunner(
	reg *registry.Registry,
	pl *planner.Planner,
	gen *SequenceGenerator,
	asm *Assembler,
	fmtr *Formatter,
	logger infra.Logger,
) *Runner {
	return &Runner{
		registry:  reg,
		planner:   pl,
		generator: gen,
		assembler: asm,
		formatter: fmtr,
		logger:    logger,
	}
}

// Submit validates the config, registers the job, and starts its pipeline.
// An invalid config is rejected up front and no job record is created.
func (r *Runner) Submit(cfg domain.JobConfig) (*domain.Job, error) {
	cfg.Consistency = domain.ParseConsistency(string(cfg.Consistency))
	if err := r.planner.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	job := r.registry.Create(cfg)
	r.start(job, domain.JobStatusPlanning)
	return job, nil
}

// Cancel requests cooperative cancellation of a running job. The job turns
// cancelled when its pipeline observes the request at the next yield point.
func (r *Runner) Cancel(jobID string) error {
	return r.registry.RequestCancel(jobID)
}

// Retry restarts a failed job at the stage that failed, reusing segment
// results that already succeeded.
func (r *Runner) Retry(jobID string) (*domain.Job, error) {
	job, err := r.registry.PrepareRetry(jobID)
	if err != nil {
		return nil, err
	}
	resume := domain.JobStatusPlanning
	if job.Error != nil {
		switch job.Error.Stage {
		case StageGenerating:
			resume = domain.JobStatusGenerating
		case StageAssembling:
			resume = domain.JobStatusAssembling
		case StageFormatting:
			resume = domain.JobStatusFormatting
		}
	}
	r.start(job, resume)
	return job, nil
}

// Wait blocks until every in-flight job goroutine has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) start(job *domain.Job, from domain.JobStatus) {
	ctx, cancel := context.WithCancel(context.Background())
	r.registry.BindCancel(job.ID, cancel)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		defer r.registry.ReleaseCancel(job.ID)
		r.run(ctx, job, from)
	}()
}

// run advances a job from the given stage to completion. Cancellation is
// checked between stages and between segments; an observed request discards
// partial work and finalizes the job as cancelled.
func (r *Runner) run(ctx context.Context, job *domain.Job, from domain.JobStatus) {
	id := job.ID
	cfg := job.Config
	plan := job.Plan
	segments := job.Segments
	assembled := job.Assembled

	r.logger.Info().
		Str("job_id", id).
		Str("stage", string(from)).
		Str("topic", cfg.Topic).
		Msg("runner: job started")

	// Planning.
	if from == domain.JobStatusPlanning {
		if r.yield(id, ctx) {
			return
		}
		if err := r.registry.Transition(id, domain.JobStatusPlanning, "Planning segments", 5); err != nil {
			r.logger.Error().Err(err).Str("job_id", id).Msg("runner: transition failed")
			return
		}
		p, err := r.planner.Plan(cfg)
		if err != nil {
			r.fail(id, StagePlanning, err, nil)
			return
		}
		plan = p
		if err := r.registry.SetPlan(id, plan); err != nil {
			r.logger.Error().Err(err).Str("job_id", id).Msg("runner: set plan failed")
			return
		}
		segments = nil
		from = domain.JobStatusGenerating
	}

	// Generating.
	if from == domain.JobStatusGenerating {
		if r.yield(id, ctx) {
			return
		}
		done, total := countDone(segments), 0
		if plan != nil {
			total = len(plan.Segments)
		}
		progress := 10
		if total > 0 {
			progress = 10 + 60*done/total
		}
		if err := r.registry.Transition(id, domain.JobStatusGenerating, "Generating segments", progress); err != nil {
			r.logger.Error().Err(err).Str("job_id", id).Msg("runner: transition failed")
			return
		}
		results, err := r.generator.Run(ctx, id, cfg, plan, segments, func(res domain.SegmentResult, completed, total int) {
			if err := r.registry.SetSegment(id, res); err != nil {
				r.logger.Warn().Err(err).Str("job_id", id).Msg("runner: record segment failed")
			}
		})
		if r.yield(id, ctx) {
			return
		}
		if err != nil {
			r.fail(id, StageGenerating, err, results)
			return
		}
		segments = results
		from = domain.JobStatusAssembling
	}

	// Assembling.
	if from == domain.JobStatusAssembling {
		if r.yield(id, ctx) {
			return
		}
		if err := r.registry.Transition(id, domain.JobStatusAssembling, "Assembling video", 70); err != nil {
			r.logger.Error().Err(err).Str("job_id", id).Msg("runner: transition failed")
			return
		}
		av, err := r.assembler.Assemble(ctx, id, segments)
		if r.yield(id, ctx) {
			return
		}
		if err != nil {
			r.fail(id, StageAssembling, err, nil)
			return
		}
		assembled = av
		if err := r.registry.SetAssembled(id, assembled); err != nil {
			r.logger.Error().Err(err).Str("job_id", id).Msg("runner: set assembled failed")
			return
		}
		from = domain.JobStatusFormatting
	}

	// Formatting.
	if from == domain.JobStatusFormatting {
		if r.yield(id, ctx) {
			return
		}
		if err := r.registry.Transition(id, domain.JobStatusFormatting, "Formatting for platforms", 85); err != nil {
			r.logger.Error().Err(err).Str("job_id", id).Msg("runner: transition failed")
			return
		}
		outputs, diagnostics, err := r.formatter.Format(ctx, id, assembled, cfg.Platforms, cfg.Hashtags, cfg.Description)
		if r.yield(id, ctx) {
			return
		}
		if err != nil {
			r.fail(id, StageFormatting, err, nil)
			return
		}
		if err := r.registry.Complete(id, outputs, diagnostics); err != nil {
			r.logger.Error().Err(err).Str("job_id", id).Msg("runner: complete failed")
		}
	}
}

// yield is the cooperative cancellation point between units of work.
func (r *Runner) yield(id string, ctx context.Context) bool {
	if ctx.Err() == nil && !r.registry.CancelRequested(id) {
		return false
	}
	if err := r.registry.MarkCancelled(id); err != nil {
		r.logger.Warn().Err(err).Str("job_id", id).Msg("runner: mark cancelled failed")
	}
	return true
}

func (r *Runner) fail(id, stage string, cause error, segments []domain.SegmentResult) {
	if err := r.registry.Fail(id, stage, cause.Error(), segments); err != nil {
		r.logger.Error().Err(err).Str("job_id", id).Msg("runner: mark failed failed")
	}
}

func countDone(segments []domain.SegmentResult) int {
	n := 0
	for _, seg := range segments {
		if seg.Status == domain.SegmentDone {
			n++
		}
	}
	return n
}
