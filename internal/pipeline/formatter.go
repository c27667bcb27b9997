package pipeline

import (
	"context"
	"fmt"

	"clipforge/internal/domain"
	"clipforge/internal/platformspec"
	"clipforge/internal/providers/render"
)

// Formatter fans one assembled video out to per-platform renditions. It is
// stateless: given the same assembled video and spec table it always produces
// the same outputs.
type Formatter struct {
	renderer render.Renderer
}

// NewFormatter constructs a Formatter over the given render backend.
func NewFormatter(renderer render.Renderer) *Formatter {
	return &Formatter{renderer: renderer}
}

// Format produces one output per requested platform. A platform that is
// unknown or fails to render is recorded in the diagnostics list without
// aborting the others; the job only fails when no platform produced an
// output at all.
func (f *Formatter) Format(
	ctx context.Context,
	jobID string,
	assembled *domain.AssembledVideo,
	platforms []string,
	hashtags []string,
	description string,
) (map[string]domain.PlatformOutput, []string, error) {
	if assembled == nil || assembled.ArtifactRef == "" {
		return nil, nil, fmt.Errorf("formatter: no assembled video: %w", domain.ErrFormat)
	}

	outputs := make(map[string]domain.PlatformOutput, len(platforms))
	var diagnostics []string

	for _, platform := range platforms {
		if err := ctx.Err(); err != nil {
			return outputs, diagnostics, err
		}

		spec, err := platformspec.Lookup(platform)
		if err != nil {
			diagnostics = append(diagnostics, fmt.Sprintf("%s: unsupported platform", platform))
			continue
		}

		duration := assembled.DurationSecs
		if duration > spec.MaxDurationSecs {
			duration = spec.MaxDurationSecs
		}

		ref, err := f.renderer.Reformat(ctx, render.ReformatRequest{
			ArtifactRef:     assembled.ArtifactRef,
			Platform:        spec.Platform,
			AspectRatio:     spec.AspectRatio,
			MaxDurationSecs: spec.MaxDurationSecs,
			CaptionStyle:    spec.CaptionStyle,
			SafeZone:        spec.SafeZone,
			BrandPosition:   spec.BrandPosition,
			RequestID:       jobID,
		})
		if err != nil {
			if ctx.Err() != nil {
				return outputs, diagnostics, ctx.Err()
			}
			diagnostics = append(diagnostics, fmt.Sprintf("%s: format failed: %v", spec.Platform, err))
			continue
		}

		outputs[spec.Platform] = domain.PlatformOutput{
			Platform:      spec.Platform,
			ArtifactRef:   ref,
			DurationSecs:  duration,
			AspectRatio:   spec.AspectRatio,
			CaptionStyle:  spec.CaptionStyle,
			SafeZone:      spec.SafeZone,
			BrandPosition: spec.BrandPosition,
			Hashtags:      truncateHashtags(hashtags, spec.MaxHashtags),
			Description:   description,
		}
	}

	if len(outputs) == 0 {
		return nil, diagnostics, fmt.Errorf("formatter: no platform output produced: %w", domain.ErrFormat)
	}
	return outputs, diagnostics, nil
}

// truncateHashtags caps the list at the platform ceiling. Order is preserved
// and duplicates are kept; truncation is the only transformation applied.
func truncateHashtags(hashtags []string, max int) []string {
	if max < 0 {
		max = 0
	}
	if len(hashtags) > max {
		hashtags = hashtags[:max]
	}
	return append([]string(nil), hashtags...)
}
