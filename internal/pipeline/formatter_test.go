package pipeline

import (
	"context"
	"errors"
	"testing"

	"clipforge/internal/domain"
)

func testAssembled(duration int) *domain.AssembledVideo {
	return &domain.AssembledVideo{
		ArtifactRef:  "assembled/job.mp4",
		DurationSecs: duration,
	}
}

func TestFormatProducesPerPlatformOutputs(t *testing.T) {
	renderer := newFakeRenderer()
	fmtr := NewFormatter(renderer)

	hashtags := []string{"#a", "#b", "#c", "#d", "#e", "#f", "#g"}
	outputs, diagnostics, err := fmtr.Format(context.Background(), "job-a", testAssembled(75),
		[]string{"tiktok", "instagram", "youtube"}, hashtags, "how to brew")
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if len(diagnostics) != 0 {
		t.Fatalf("diagnostics = %v, want none", diagnostics)
	}
	if len(outputs) != 3 {
		t.Fatalf("outputs = %d, want 3", len(outputs))
	}

	// Duration is capped per platform, never padded.
	if got := outputs["tiktok"].DurationSecs; got != 60 {
		t.Fatalf("tiktok duration = %d, want 60", got)
	}
	if got := outputs["instagram"].DurationSecs; got != 75 {
		t.Fatalf("instagram duration = %d, want 75", got)
	}

	// Hashtags are truncated to each platform's ceiling, order preserved.
	if got := outputs["tiktok"].Hashtags; len(got) != 5 || got[0] != "#a" || got[4] != "#e" {
		t.Fatalf("tiktok hashtags = %v", got)
	}
	if got := outputs["instagram"].Hashtags; len(got) != 7 {
		t.Fatalf("instagram hashtags = %v, want all 7", got)
	}

	for platform, out := range outputs {
		if out.Platform != platform {
			t.Fatalf("output key %q holds platform %q", platform, out.Platform)
		}
		if out.AspectRatio != "9:16" {
			t.Fatalf("%s aspect = %q", platform, out.AspectRatio)
		}
		if out.Description != "how to brew" {
			t.Fatalf("%s description = %q", platform, out.Description)
		}
	}
}

func TestFormatUnknownPlatformBecomesDiagnostic(t *testing.T) {
	renderer := newFakeRenderer()
	fmtr := NewFormatter(renderer)

	outputs, diagnostics, err := fmtr.Format(context.Background(), "job-b", testAssembled(30),
		[]string{"tiktok", "myspace"}, nil, "")
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if len(outputs) != 1 {
		t.Fatalf("outputs = %d, want 1", len(outputs))
	}
	if len(diagnostics) != 1 {
		t.Fatalf("diagnostics = %v, want one entry", diagnostics)
	}
}

func TestFormatPartialRenderFailureIsNonFatal(t *testing.T) {
	renderer := newFakeRenderer()
	renderer.reformatErr["instagram"] = errors.New("render backend timeout")
	fmtr := NewFormatter(renderer)

	outputs, diagnostics, err := fmtr.Format(context.Background(), "job-c", testAssembled(30),
		[]string{"tiktok", "instagram"}, nil, "")
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if _, ok := outputs["tiktok"]; !ok {
		t.Fatal("tiktok output missing")
	}
	if _, ok := outputs["instagram"]; ok {
		t.Fatal("instagram output present despite render failure")
	}
	if len(diagnostics) != 1 {
		t.Fatalf("diagnostics = %v, want one entry", diagnostics)
	}
}

func TestFormatFailsWhenNothingProduced(t *testing.T) {
	renderer := newFakeRenderer()
	renderer.reformatErrAll = errors.New("render backend down")
	fmtr := NewFormatter(renderer)

	if _, _, err := fmtr.Format(context.Background(), "job-d", testAssembled(30),
		[]string{"tiktok", "instagram"}, nil, ""); !errors.Is(err, domain.ErrFormat) {
		t.Fatalf("err = %v, want ErrFormat", err)
	}

	if _, _, err := fmtr.Format(context.Background(), "job-e", nil,
		[]string{"tiktok"}, nil, ""); !errors.Is(err, domain.ErrFormat) {
		t.Fatalf("err = %v, want ErrFormat for missing assembly", err)
	}
}

func TestTruncateHashtagsPreservesOrder(t *testing.T) {
	in := []string{"#one", "#two", "#three"}
	got := truncateHashtags(in, 2)
	if len(got) != 2 || got[0] != "#one" || got[1] != "#two" {
		t.Fatalf("truncateHashtags = %v", got)
	}

	got = truncateHashtags(in, 10)
	if len(got) != 3 {
		t.Fatalf("truncateHashtags under limit = %v", got)
	}
	got[0] = "#mutated"
	if in[0] != "#one" {
		t.Fatal("truncateHashtags returned shared backing array")
	}
}
