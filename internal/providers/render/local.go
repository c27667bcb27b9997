package render

import (
	"context"
	"fmt"
	"strings"

	"clipforge/internal/storage"
)

// Local is a deterministic render backend for development and tests. It does
// no real encoding; it writes a placeholder artifact per operation into the
// file store so downstream consumers (status polling, output bundles) see
// real storage keys.
type Local struct {
	store *storage.FileStore
}

// NewLocal constructs a Local renderer backed by the given file store.
func NewLocal(store *storage.FileStore) (*Local, error) {
	if store == nil {
		return nil, fmt.Errorf("render: file store is required")
	}
	return &Local{store: store}, nil
}

// Concatenate writes a placeholder combined artifact and returns its key.
func (l *Local) Concatenate(ctx context.Context, req ConcatenateRequest) (string, error) {
	if len(req.ArtifactRefs) == 0 {
		return "", fmt.Errorf("render: no artifacts to concatenate")
	}
	key := fmt.Sprintf("assembled/%s.mp4", req.RequestID)
	manifest := fmt.Sprintf("concat\n%s\n", strings.Join(req.ArtifactRefs, "\n"))
	saved, err := l.store.Write(ctx, key, []byte(manifest))
	if err != nil {
		return "", fmt.Errorf("render: persist assembled artifact: %w", err)
	}
	return saved, nil
}

// Reformat writes a placeholder platform rendition and returns its key.
func (l *Local) Reformat(ctx context.Context, req ReformatRequest) (string, error) {
	if req.ArtifactRef == "" {
		return "", fmt.Errorf("render: source artifact is required")
	}
	key := fmt.Sprintf("outputs/%s/%s.mp4", req.RequestID, req.Platform)
	manifest := fmt.Sprintf("reformat\nsource=%s\naspect=%s\nmax_duration=%d\ncaption=%s\nbrand=%s\n",
		req.ArtifactRef, req.AspectRatio, req.MaxDurationSecs, req.CaptionStyle, req.BrandPosition)
	saved, err := l.store.Write(ctx, key, []byte(manifest))
	if err != nil {
		return "", fmt.Errorf("render: persist platform artifact: %w", err)
	}
	return saved, nil
}

var _ Renderer = (*Local)(nil)
