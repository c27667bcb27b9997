package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"clipforge/internal/domain"
	"clipforge/internal/infra"
	"clipforge/internal/providers/video"
)

// GeneratorConfig tunes the segment generation fan-out and retry policy.
type GeneratorConfig struct {
	// Fanout bounds concurrent provider calls per job. The effective value is
	// min(Fanout, segment count).
	Fanout int
	// Retries is the number of re-attempts after a failed provider call.
	Retries int
	// RetryBaseDelay is the first backoff delay; it doubles per attempt.
	RetryBaseDelay time.Duration
	// CallTimeout is the deadline applied to each provider call. Exceeding it
	// counts as a provider failure and is subject to the same retry policy.
	CallTimeout time.Duration
	// PreferReference makes a supplied style reference replace each segment's
	// own visual description. This biases output toward visual continuity
	// over per-segment specificity.
	PreferReference bool
}

func (c GeneratorConfig) withDefaults() GeneratorConfig {
	if c.Fanout <= 0 {
		c.Fanout = 4
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 500 * time.Millisecond
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 120 * time.Second
	}
	return c
}

// SegmentObserver is invoked once per completed segment, in completion order.
// The completed/total counts drive progress accounting.
type SegmentObserver func(res domain.SegmentResult, completed, total int)

// SequenceGenerator drives a segment plan through the generation provider
// while keeping every segment visually coherent with the shared reference.
type SequenceGenerator struct {
	provider video.Generator
	cfg      GeneratorConfig
	logger   infra.Logger

	// sleep is swappable so tests do not wait out real backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSequenceGenerator constructs a generator over the given provider.
func NewSequenceGenerator(provider video.Generator, cfg GeneratorConfig, logger infra.Logger) *SequenceGenerator {
	return &SequenceGenerator{
		provider: provider,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		sleep:    sleepCtx,
	}
}

// Run executes the plan and returns one result per planned segment, ordered by
// plan index regardless of completion order. Segments already done in prior
// (from a retried job) are reused without calling the provider again. On
// failure the partial results are returned alongside the error so they can be
// retained for diagnostics.
func (g *SequenceGenerator) Run(
	ctx context.Context,
	jobID string,
	cfg domain.JobConfig,
	plan *domain.SegmentPlan,
	prior []domain.SegmentResult,
	observe SegmentObserver,
) ([]domain.SegmentResult, error) {
	total := len(plan.Segments)
	results := make([]domain.SegmentResult, total)
	completed := 0
	for i, seg := range plan.Segments {
		results[i] = domain.SegmentResult{Index: seg.Index, Status: domain.SegmentPending}
		if i < len(prior) && prior[i].Status == domain.SegmentDone {
			results[i] = prior[i]
			completed++
		}
	}

	pending := make([]int, 0, total)
	for i := range results {
		if results[i].Status != domain.SegmentDone {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return results, nil
	}

	fanout := g.cfg.Fanout
	if fanout > len(pending) {
		fanout = len(pending)
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
		failed   bool
	)
	indices := make(chan int)

	// Feeder stops handing out work as soon as a failure is observed, so
	// segments after a failed one are never attempted once the job is doomed.
	go func() {
		defer close(indices)
		for _, idx := range pending {
			mu.Lock()
			stop := failed
			mu.Unlock()
			if stop {
				return
			}
			select {
			case indices <- idx:
			case <-ctx.Done():
				return
			}
		}
	}()

	for w := 0; w < fanout; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indices {
				mu.Lock()
				stop := failed
				mu.Unlock()
				if stop {
					continue
				}
				seg := plan.Segments[idx]
				clip, err := g.generateWithRetry(ctx, jobID, cfg, seg)
				mu.Lock()
				if err != nil {
					results[idx].Status = domain.SegmentFailed
					if firstErr == nil && ctx.Err() == nil {
						firstErr = fmt.Errorf("segment %d: %v: %w", seg.Index, err, domain.ErrSegmentGeneration)
					}
					failed = true
					mu.Unlock()
					continue
				}
				results[idx] = domain.SegmentResult{
					Index:        seg.Index,
					ArtifactRef:  clip.ArtifactRef,
					DurationSecs: clip.DurationSecs,
					Status:       domain.SegmentDone,
				}
				completed++
				res, done := results[idx], completed
				mu.Unlock()
				if observe != nil {
					observe(res, done, total)
				}
			}
		}()
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	if firstErr != nil {
		return results, firstErr
	}
	return results, nil
}

func (g *SequenceGenerator) generateWithRetry(ctx context.Context, jobID string, cfg domain.JobConfig, seg domain.SegmentSpec) (*video.Clip, error) {
	prompt := seg.VisualDescription
	if g.cfg.PreferReference && seg.DependsOnReference && cfg.StyleReference != "" {
		prompt = cfg.StyleReference
	}

	req := video.GenerateRequest{
		Prompt:         prompt,
		StyleReference: cfg.StyleReference,
		DurationSecs:   seg.DurationSecs,
		Consistency:    cfg.Consistency,
		RequestID:      fmt.Sprintf("%s-%03d", jobID, seg.Index),
	}

	var lastErr error
	for attempt := 0; attempt <= g.cfg.Retries; attempt++ {
		if attempt > 0 {
			delay := g.cfg.RetryBaseDelay << (attempt - 1)
			g.logger.Warn().
				Str("job_id", jobID).
				Int("segment", seg.Index).
				Int("attempt", attempt).
				Dur("backoff", delay).
				Err(lastErr).
				Msg("generator: retrying segment")
			if err := g.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, g.cfg.CallTimeout)
		clip, err := g.provider.Generate(callCtx, req)
		cancel()
		if err == nil {
			return clip, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	g.logger.Error().
		Str("job_id", jobID).
		Int("segment", seg.Index).
		Int("attempts", g.cfg.Retries+1).
		Err(lastErr).
		Msg("generator: segment exhausted retries")
	return nil, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
