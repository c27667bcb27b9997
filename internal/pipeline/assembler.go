package pipeline

import (
	"context"
	"fmt"

	"clipforge/internal/domain"
	"clipforge/internal/providers/render"
)

// Assembler concatenates generated segments into one continuous video. The
// full content is preserved here; trimming to platform limits is a formatting
// concern.
type Assembler struct {
	renderer render.Renderer
}

// NewAssembler constructs an Assembler over the given render backend.
func NewAssembler(renderer render.Renderer) *Assembler {
	return &Assembler{renderer: renderer}
}

// Assemble merges segments in index order. A missing or out-of-order segment
// cannot happen when generation succeeded, so it is treated as an
// internal-consistency failure: fatal and never retried.
func (a *Assembler) Assemble(ctx context.Context, jobID string, segments []domain.SegmentResult) (*domain.AssembledVideo, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("assembler: no segments to assemble: %w", domain.ErrAssembly)
	}

	refs := make([]string, 0, len(segments))
	total := 0
	for i, seg := range segments {
		if seg.Index != i {
			return nil, fmt.Errorf("assembler: segment at position %d has index %d: %w", i, seg.Index, domain.ErrAssembly)
		}
		if seg.Status != domain.SegmentDone || seg.ArtifactRef == "" {
			return nil, fmt.Errorf("assembler: segment %d is not complete: %w", i, domain.ErrAssembly)
		}
		refs = append(refs, seg.ArtifactRef)
		total += seg.DurationSecs
	}

	ref, err := a.renderer.Concatenate(ctx, render.ConcatenateRequest{
		ArtifactRefs: refs,
		RequestID:    jobID,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("assembler: concatenate: %v: %w", err, domain.ErrAssembly)
	}

	return &domain.AssembledVideo{
		ArtifactRef:    ref,
		SourceSegments: refs,
		DurationSecs:   total,
	}, nil
}
