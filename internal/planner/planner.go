package planner

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"clipforge/internal/domain"
	"clipforge/internal/platformspec"
)

const (
	// DefaultTargetSegmentSecs matches the clip length typical generation
	// providers cap a single call at.
	DefaultTargetSegmentSecs = 4

	// DefaultMaxDurationSecs bounds a single request.
	DefaultMaxDurationSecs = 600
)

// Planner splits a content request into an ordered segment plan.
type Planner struct {
	TargetSegmentSecs int
	MaxDurationSecs   int
}

// New returns a Planner with the given tunables; zero values fall back to defaults.
func New(targetSegmentSecs, maxDurationSecs int) *Planner {
	if targetSegmentSecs <= 0 {
		targetSegmentSecs = DefaultTargetSegmentSecs
	}
	if maxDurationSecs <= 0 {
		maxDurationSecs = DefaultMaxDurationSecs
	}
	return &Planner{TargetSegmentSecs: targetSegmentSecs, MaxDurationSecs: maxDurationSecs}
}

// ValidateConfig checks the request shape before any stage runs.
func (p *Planner) ValidateConfig(cfg domain.JobConfig) error {
	if strings.TrimSpace(cfg.Topic) == "" {
		return fmt.Errorf("planner: topic is required: %w", domain.ErrInvalidConfig)
	}
	if cfg.DurationSecs <= 0 {
		return fmt.Errorf("planner: duration must be positive: %w", domain.ErrInvalidConfig)
	}
	if cfg.DurationSecs > p.MaxDurationSecs {
		return fmt.Errorf("planner: duration %ds exceeds maximum %ds: %w", cfg.DurationSecs, p.MaxDurationSecs, domain.ErrInvalidConfig)
	}
	if len(cfg.Platforms) == 0 {
		return fmt.Errorf("planner: at least one platform is required: %w", domain.ErrInvalidConfig)
	}
	for _, platform := range cfg.Platforms {
		if !platformspec.Supported(platform) {
			// Unknown platforms surface later as per-platform diagnostics,
			// but a request made of only unknown platforms can never
			// produce an output.
			continue
		}
		return nil
	}
	return fmt.Errorf("planner: no supported platform requested: %w", domain.ErrInvalidConfig)
}

// Plan produces an ordered segment plan whose durations sum to the requested
// total. All but the last segment take the target duration; the last segment
// takes the remainder.
func (p *Planner) Plan(cfg domain.JobConfig) (*domain.SegmentPlan, error) {
	if err := p.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	count := (cfg.DurationSecs + p.TargetSegmentSecs - 1) / p.TargetSegmentSecs
	segments := make([]domain.SegmentSpec, count)
	remaining := cfg.DurationSecs
	for i := 0; i < count; i++ {
		duration := p.TargetSegmentSecs
		if duration > remaining {
			duration = remaining
		}
		segments[i] = domain.SegmentSpec{
			Index:              i,
			VisualDescription:  describeSegment(cfg, i, count),
			DurationSecs:       duration,
			DependsOnReference: true,
		}
		remaining -= duration
	}

	return &domain.SegmentPlan{Segments: segments}, nil
}

// Narrative beats cycled across segments so each clip prompt stays distinct
// while telling one continuous story.
var beats = []string{
	"Establishing shot introducing",
	"Close-up details of",
	"Dynamic movement around",
	"Wide angle revealing",
}

func describeSegment(cfg domain.JobConfig, index, count int) string {
	topic := cases.Title(language.Und).String(strings.TrimSpace(cfg.Topic))

	var beat string
	switch {
	case index == 0:
		beat = beats[0]
	case index == count-1:
		beat = "Closing shot of"
	default:
		beat = beats[1+(index-1)%(len(beats)-1)]
	}

	desc := fmt.Sprintf("%s %s", beat, topic)
	if style := strings.TrimSpace(cfg.Style); style != "" {
		desc = fmt.Sprintf("%s, %s style", desc, strings.ToLower(style))
	}
	return desc
}
