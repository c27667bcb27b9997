package video

import (
	"context"

	"clipforge/internal/domain"
)

// GenerateRequest carries everything a provider needs for one segment call.
type GenerateRequest struct {
	Prompt         string
	StyleReference string
	DurationSecs   int
	Consistency    domain.Consistency
	RequestID      string
}

// Clip is the normalized representation of one generated segment.
type Clip struct {
	ArtifactRef  string
	DurationSecs int
	Format       string
}

// Generator is the capability contract for the external video-synthesis
// service. Any failure is treated as retryable by the caller; providers do not
// need to distinguish transient from permanent errors.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*Clip, error)
}
