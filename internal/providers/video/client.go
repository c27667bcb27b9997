package video

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"clipforge/internal/domain"
	"clipforge/internal/infra"
)

// Options controls how the synthesis client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client talks to the external video-synthesis service. When no API key is
// configured it produces deterministic synthetic clips instead, which keeps
// the whole pipeline exercisable in local and CI environments.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

type generationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	StyleReference string `json:"style_reference,omitempty"`
	DurationSecs   int    `json:"duration_seconds"`
	Consistency    string `json:"consistency"`
	RequestID      string `json:"request_id,omitempty"`
}

type generationResponse struct {
	ArtifactRef  string `json:"artifact_ref"`
	DurationSecs int    `json:"duration_seconds"`
	Format       string `json:"format"`
}

type generationErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a synthesis client with sane defaults. Callers may
// provide a nil HTTP client; a reusable one with a timeout will be created.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.videosynth.example.com/v1"
	}

	model := opts.Model
	if model == "" {
		model = "synthwave-1"
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		logger:     logger,
	}, nil
}

// Model returns the configured synthesis model identifier.
func (c *Client) Model() string {
	return c.model
}

// Generate produces one segment clip. Errors from the remote service are
// returned to the caller so its retry policy can apply; only the keyless
// development mode never fails.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*Clip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.apiKey == "" {
		return c.syntheticClip(req), nil
	}

	return c.remoteGenerate(ctx, req)
}

func (c *Client) syntheticClip(req GenerateRequest) *Clip {
	seed := deterministicSeed(req.RequestID, req.Prompt, req.StyleReference, string(req.Consistency), req.DurationSecs)
	ref := fmt.Sprintf("synthetic/clips/%s/%s.mp4", c.model, seed)

	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.model).
		Msg("video: generated synthetic clip")

	return &Clip{
		ArtifactRef:  ref,
		DurationSecs: req.DurationSecs,
		Format:       "video/mp4",
	}
}

func (c *Client) remoteGenerate(ctx context.Context, req GenerateRequest) (*Clip, error) {
	payload := generationRequest{
		Model:          c.model,
		Prompt:         req.Prompt,
		StyleReference: req.StyleReference,
		DurationSecs:   req.DurationSecs,
		Consistency:    string(req.Consistency),
		RequestID:      req.RequestID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("video: marshal generation request: %w", err)
	}

	endpoint := c.baseURL + "/generations"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("video: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("video: %v: %w", err, domain.ErrProviderFailure)
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		var apiErr generationErrorResponse
		if unmarshalErr := json.Unmarshal(respBody, &apiErr); unmarshalErr == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("video: provider returned %d: %s: %w", resp.StatusCode, apiErr.Error.Message, domain.ErrProviderFailure)
		}
		return nil, fmt.Errorf("video: provider returned %d: %w", resp.StatusCode, domain.ErrProviderFailure)
	}
	if readErr != nil {
		return nil, fmt.Errorf("video: read response: %w", domain.ErrProviderFailure)
	}

	var out generationResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("video: decode response: %w", domain.ErrProviderFailure)
	}
	if out.ArtifactRef == "" {
		return nil, fmt.Errorf("video: provider returned empty artifact ref: %w", domain.ErrProviderFailure)
	}
	if out.DurationSecs <= 0 {
		out.DurationSecs = req.DurationSecs
	}
	if out.Format == "" {
		out.Format = "video/mp4"
	}

	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("artifact_ref", out.ArtifactRef).
		Msg("video: clip generated")

	return &Clip{ArtifactRef: out.ArtifactRef, DurationSecs: out.DurationSecs, Format: out.Format}, nil
}

func deterministicSeed(parts ...any) string {
	h := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(h, "%v|", part)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

var _ Generator = (*Client)(nil)
