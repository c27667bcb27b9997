package render

import (
	"context"

	"clipforge/internal/domain"
)

// ConcatenateRequest asks the codec backend to merge segment clips in order.
type ConcatenateRequest struct {
	ArtifactRefs []string
	RequestID    string
}

// ReformatRequest asks the codec backend to produce one platform rendition.
type ReformatRequest struct {
	ArtifactRef     string
	Platform        string
	AspectRatio     string
	MaxDurationSecs int
	CaptionStyle    string
	SafeZone        domain.SafeZone
	BrandPosition   string
	RequestID       string
}

// Renderer is the capability contract for the rendering/encoding backend.
// It is a black box to the pipeline; failures propagate as assembly or format
// errors on the owning job.
type Renderer interface {
	Concatenate(ctx context.Context, req ConcatenateRequest) (string, error)
	Reformat(ctx context.Context, req ReformatRequest) (string, error)
}
