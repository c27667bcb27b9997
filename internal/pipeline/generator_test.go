package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"clipforge/internal/domain"
	"clipforge/internal/providers/video"
)

type fakeGenerator struct {
	mu       sync.Mutex
	attempts map[int]int
	failures map[int]int
	prompts  map[int]string
	delay    func(index int) time.Duration
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{
		attempts: make(map[int]int),
		failures: make(map[int]int),
		prompts:  make(map[int]string),
	}
}

func segmentIndex(requestID string) int {
	idx := strings.LastIndex(requestID, "-")
	n, _ := strconv.Atoi(requestID[idx+1:])
	return n
}

func (f *fakeGenerator) Generate(ctx context.Context, req video.GenerateRequest) (*video.Clip, error) {
	index := segmentIndex(req.RequestID)

	f.mu.Lock()
	f.attempts[index]++
	attempt := f.attempts[index]
	f.prompts[index] = req.Prompt
	remaining := f.failures[index]
	delay := time.Duration(0)
	if f.delay != nil {
		delay = f.delay(index)
	}
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if attempt <= remaining {
		return nil, fmt.Errorf("synthetic failure %d", attempt)
	}
	return &video.Clip{
		ArtifactRef:  fmt.Sprintf("segments/%03d.mp4", index),
		DurationSecs: req.DurationSecs,
		Format:       "mp4",
	}, nil
}

func (f *fakeGenerator) attemptCount(index int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[index]
}

func testPlan(n int) *domain.SegmentPlan {
	segments := make([]domain.SegmentSpec, n)
	for i := range segments {
		segments[i] = domain.SegmentSpec{
			Index:              i,
			VisualDescription:  fmt.Sprintf("scene %d", i),
			DurationSecs:       4,
			DependsOnReference: true,
		}
	}
	return &domain.SegmentPlan{Segments: segments}
}

func newTestSequenceGenerator(provider video.Generator, cfg GeneratorConfig) *SequenceGenerator {
	g := NewSequenceGenerator(provider, cfg, zerolog.New(io.Discard))
	g.sleep = func(context.Context, time.Duration) error { return nil }
	return g
}

func TestRunOrdersResultsByIndex(t *testing.T) {
	provider := newFakeGenerator()
	// Later segments finish first, so completion order differs from index order.
	provider.delay = func(index int) time.Duration {
		return time.Duration(6-index) * 5 * time.Millisecond
	}
	gen := newTestSequenceGenerator(provider, GeneratorConfig{Fanout: 4})

	var mu sync.Mutex
	var completions []int
	results, err := gen.Run(context.Background(), "job-a", domain.JobConfig{}, testPlan(6), nil,
		func(res domain.SegmentResult, completed, total int) {
			mu.Lock()
			completions = append(completions, completed)
			mu.Unlock()
		})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(results) != 6 {
		t.Fatalf("results = %d, want 6", len(results))
	}
	for i, res := range results {
		if res.Index != i {
			t.Fatalf("results[%d].Index = %d", i, res.Index)
		}
		if res.Status != domain.SegmentDone {
			t.Fatalf("results[%d].Status = %s, want done", i, res.Status)
		}
		if res.ArtifactRef == "" {
			t.Fatalf("results[%d] has no artifact", i)
		}
	}
	if len(completions) != 6 {
		t.Fatalf("observer calls = %d, want 6", len(completions))
	}
	// Observers fire from concurrent workers, so only the set of counts is
	// deterministic, not their order.
	seen := make(map[int]bool, len(completions))
	for _, completed := range completions {
		if completed < 1 || completed > 6 || seen[completed] {
			t.Fatalf("completed counts = %v, want each of 1..6 exactly once", completions)
		}
		seen[completed] = true
	}
}

func TestRunRetriesTransientFailures(t *testing.T) {
	provider := newFakeGenerator()
	provider.failures[2] = 2

	gen := NewSequenceGenerator(provider, GeneratorConfig{
		Fanout:         2,
		Retries:        2,
		RetryBaseDelay: 50 * time.Millisecond,
	}, zerolog.New(io.Discard))
	var delays []time.Duration
	gen.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	results, err := gen.Run(context.Background(), "job-b", domain.JobConfig{}, testPlan(4), nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results[2].Status != domain.SegmentDone {
		t.Fatalf("segment 2 status = %s, want done", results[2].Status)
	}
	if got := provider.attemptCount(2); got != 3 {
		t.Fatalf("segment 2 attempts = %d, want 3", got)
	}
	want := []time.Duration{50 * time.Millisecond, 100 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("backoff delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("backoff delays = %v, want %v", delays, want)
		}
	}
}

func TestRunStopsDispatchAfterExhaustedSegment(t *testing.T) {
	provider := newFakeGenerator()
	provider.failures[1] = 10

	gen := newTestSequenceGenerator(provider, GeneratorConfig{Fanout: 1, Retries: 2})

	results, err := gen.Run(context.Background(), "job-c", domain.JobConfig{}, testPlan(3), nil, nil)
	if !errors.Is(err, domain.ErrSegmentGeneration) {
		t.Fatalf("err = %v, want ErrSegmentGeneration", err)
	}
	if got := provider.attemptCount(1); got != 3 {
		t.Fatalf("segment 1 attempts = %d, want 3", got)
	}
	if got := provider.attemptCount(2); got != 0 {
		t.Fatalf("segment 2 attempts = %d, want 0 after failure", got)
	}
	if results[0].Status != domain.SegmentDone {
		t.Fatalf("segment 0 status = %s, want done", results[0].Status)
	}
	if results[1].Status != domain.SegmentFailed {
		t.Fatalf("segment 1 status = %s, want failed", results[1].Status)
	}
	if results[2].Status != domain.SegmentPending {
		t.Fatalf("segment 2 status = %s, want pending", results[2].Status)
	}
}

func TestRunReusesPriorResults(t *testing.T) {
	provider := newFakeGenerator()
	gen := newTestSequenceGenerator(provider, GeneratorConfig{Fanout: 2})

	prior := []domain.SegmentResult{
		{Index: 0, ArtifactRef: "segments/000.mp4", DurationSecs: 4, Status: domain.SegmentDone},
		{Index: 1, Status: domain.SegmentPending},
	}
	results, err := gen.Run(context.Background(), "job-d", domain.JobConfig{}, testPlan(2), prior, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := provider.attemptCount(0); got != 0 {
		t.Fatalf("segment 0 regenerated: %d attempts", got)
	}
	if got := provider.attemptCount(1); got != 1 {
		t.Fatalf("segment 1 attempts = %d, want 1", got)
	}
	if results[0].ArtifactRef != "segments/000.mp4" {
		t.Fatalf("segment 0 artifact = %q, want reused ref", results[0].ArtifactRef)
	}
}

func TestRunPrefersStyleReference(t *testing.T) {
	cfg := domain.JobConfig{StyleReference: "neon noir reference board"}

	provider := newFakeGenerator()
	gen := newTestSequenceGenerator(provider, GeneratorConfig{Fanout: 1, PreferReference: true})
	if _, err := gen.Run(context.Background(), "job-e", cfg, testPlan(2), nil, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for index := 0; index < 2; index++ {
		if provider.prompts[index] != cfg.StyleReference {
			t.Fatalf("prompt[%d] = %q, want style reference", index, provider.prompts[index])
		}
	}

	provider = newFakeGenerator()
	gen = newTestSequenceGenerator(provider, GeneratorConfig{Fanout: 1, PreferReference: false})
	if _, err := gen.Run(context.Background(), "job-f", cfg, testPlan(2), nil, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for index := 0; index < 2; index++ {
		if provider.prompts[index] != fmt.Sprintf("scene %d", index) {
			t.Fatalf("prompt[%d] = %q, want segment description", index, provider.prompts[index])
		}
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	provider := newFakeGenerator()
	provider.delay = func(int) time.Duration { return 50 * time.Millisecond }
	gen := newTestSequenceGenerator(provider, GeneratorConfig{Fanout: 1})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := gen.Run(ctx, "job-g", domain.JobConfig{}, testPlan(10), nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if got := provider.attemptCount(9); got != 0 {
		t.Fatalf("segment 9 attempted after cancellation")
	}
}
