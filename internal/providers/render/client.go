package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"clipforge/internal/infra"
)

// Options controls how the render client is configured.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client talks to an external rendering/encoding service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

type concatenatePayload struct {
	ArtifactRefs []string `json:"artifact_refs"`
	RequestID    string   `json:"request_id,omitempty"`
}

type reformatPayload struct {
	ArtifactRef     string       `json:"artifact_ref"`
	Platform        string       `json:"platform"`
	AspectRatio     string       `json:"aspect_ratio"`
	MaxDurationSecs int          `json:"max_duration_seconds"`
	CaptionStyle    string       `json:"caption_style"`
	SafeZone        safeZoneJSON `json:"safe_zone"`
	BrandPosition   string       `json:"brand_position"`
	RequestID       string       `json:"request_id,omitempty"`
}

type safeZoneJSON struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
	Right  int `json:"right"`
}

type renderResponse struct {
	ArtifactRef string `json:"artifact_ref"`
}

// NewClient constructs a render client.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 300 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("render: base URL is required")
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{baseURL: baseURL, httpClient: client, logger: logger}, nil
}

// Concatenate merges the given clips in order and returns the combined artifact ref.
func (c *Client) Concatenate(ctx context.Context, req ConcatenateRequest) (string, error) {
	return c.post(ctx, "/concatenate", concatenatePayload{
		ArtifactRefs: req.ArtifactRefs,
		RequestID:    req.RequestID,
	})
}

// Reformat produces a platform rendition and returns its artifact ref.
func (c *Client) Reformat(ctx context.Context, req ReformatRequest) (string, error) {
	return c.post(ctx, "/reformat", reformatPayload{
		ArtifactRef:     req.ArtifactRef,
		Platform:        req.Platform,
		AspectRatio:     req.AspectRatio,
		MaxDurationSecs: req.MaxDurationSecs,
		CaptionStyle:    req.CaptionStyle,
		SafeZone: safeZoneJSON{
			Top:    req.SafeZone.Top,
			Bottom: req.SafeZone.Bottom,
			Left:   req.SafeZone.Left,
			Right:  req.SafeZone.Right,
		},
		BrandPosition: req.BrandPosition,
		RequestID:     req.RequestID,
	})
}

func (c *Client) post(ctx context.Context, path string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("render: marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("render: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("render: %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("render: %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if readErr != nil {
		return "", fmt.Errorf("render: read response: %w", readErr)
	}

	var out renderResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("render: decode response: %w", err)
	}
	if out.ArtifactRef == "" {
		return "", fmt.Errorf("render: %s returned empty artifact ref", path)
	}

	c.logger.Debug().Str("artifact_ref", out.ArtifactRef).Msgf("render: %s ok", strings.TrimPrefix(path, "/"))
	return out.ArtifactRef, nil
}

var _ Renderer = (*Client)(nil)
