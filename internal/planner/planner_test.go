package planner

import (
	"errors"
	"testing"

	"clipforge/internal/domain"
)

func validConfig(durationSecs int) domain.JobConfig {
	return domain.JobConfig{
		Topic:        "street food in bangkok",
		Platforms:    []string{"tiktok"},
		Style:        "Cinematic",
		DurationSecs: durationSecs,
	}
}

func TestPlanSegmentCountAndDurations(t *testing.T) {
	p := New(4, 600)

	cases := []struct {
		duration  int
		wantCount int
		wantLast  int
	}{
		{12, 3, 4},
		{10, 3, 2},
		{4, 1, 4},
		{1, 1, 1},
		{13, 4, 1},
	}
	for _, tc := range cases {
		plan, err := p.Plan(validConfig(tc.duration))
		if err != nil {
			t.Fatalf("Plan(%d): unexpected error %v", tc.duration, err)
		}
		if len(plan.Segments) != tc.wantCount {
			t.Errorf("Plan(%d): %d segments, want %d", tc.duration, len(plan.Segments), tc.wantCount)
		}
		if got := plan.TotalDurationSecs(); got != tc.duration {
			t.Errorf("Plan(%d): total duration %d, want %d", tc.duration, got, tc.duration)
		}
		last := plan.Segments[len(plan.Segments)-1]
		if last.DurationSecs != tc.wantLast {
			t.Errorf("Plan(%d): last segment duration %d, want %d", tc.duration, last.DurationSecs, tc.wantLast)
		}
	}
}

func TestPlanDurationSumsWithinTolerance(t *testing.T) {
	p := New(4, 600)
	for duration := 1; duration <= 120; duration++ {
		plan, err := p.Plan(validConfig(duration))
		if err != nil {
			t.Fatalf("Plan(%d): %v", duration, err)
		}
		diff := duration - plan.TotalDurationSecs()
		if diff < 0 {
			diff = -diff
		}
		if diff >= p.TargetSegmentSecs {
			t.Fatalf("Plan(%d): total %d differs by a full segment", duration, plan.TotalDurationSecs())
		}
	}
}

func TestPlanSegmentsAreOrderedAndReferenced(t *testing.T) {
	p := New(4, 600)
	plan, err := p.Plan(validConfig(20))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	for i, seg := range plan.Segments {
		if seg.Index != i {
			t.Errorf("segment %d has index %d", i, seg.Index)
		}
		if !seg.DependsOnReference {
			t.Errorf("segment %d does not depend on the shared reference", i)
		}
		if seg.VisualDescription == "" {
			t.Errorf("segment %d has empty visual description", i)
		}
	}
}

func TestPlanDescriptionsVaryAcrossSegments(t *testing.T) {
	p := New(4, 600)
	plan, err := p.Plan(validConfig(16))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	seen := make(map[string]bool)
	for _, seg := range plan.Segments {
		seen[seg.VisualDescription] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected varied descriptions, got %d unique of %d", len(seen), len(plan.Segments))
	}
}

func TestValidateConfigRejectsBadRequests(t *testing.T) {
	p := New(4, 600)

	cases := []struct {
		name string
		cfg  domain.JobConfig
	}{
		{"zero duration", validConfig(0)},
		{"negative duration", validConfig(-5)},
		{"over max", validConfig(601)},
		{"empty topic", domain.JobConfig{Platforms: []string{"tiktok"}, DurationSecs: 10}},
		{"no platforms", domain.JobConfig{Topic: "x", DurationSecs: 10}},
		{"only unknown platforms", domain.JobConfig{Topic: "x", Platforms: []string{"vine"}, DurationSecs: 10}},
	}
	for _, tc := range cases {
		if _, err := p.Plan(tc.cfg); !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("%s: Plan = %v, want ErrInvalidConfig", tc.name, err)
		}
	}
}

func TestValidateConfigAllowsMixedPlatforms(t *testing.T) {
	p := New(4, 600)
	cfg := validConfig(10)
	cfg.Platforms = []string{"vine", "tiktok"}
	if err := p.ValidateConfig(cfg); err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
}
