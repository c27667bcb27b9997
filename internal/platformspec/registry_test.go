package platformspec

import (
	"errors"
	"testing"

	"clipforge/internal/domain"
)

func TestLookupKnownPlatforms(t *testing.T) {
	cases := []struct {
		platform    string
		maxHashtags int
		maxDuration int
	}{
		{PlatformTikTok, 5, 60},
		{PlatformInstagram, 15, 90},
		{PlatformYouTube, 10, 60},
	}
	for _, tc := range cases {
		spec, err := Lookup(tc.platform)
		if err != nil {
			t.Fatalf("Lookup(%q): unexpected error %v", tc.platform, err)
		}
		if spec.MaxHashtags != tc.maxHashtags {
			t.Errorf("%s: MaxHashtags = %d, want %d", tc.platform, spec.MaxHashtags, tc.maxHashtags)
		}
		if spec.MaxDurationSecs != tc.maxDuration {
			t.Errorf("%s: MaxDurationSecs = %d, want %d", tc.platform, spec.MaxDurationSecs, tc.maxDuration)
		}
		if spec.AspectRatio != "9:16" {
			t.Errorf("%s: AspectRatio = %q, want 9:16", tc.platform, spec.AspectRatio)
		}
	}
}

func TestLookupNormalizesIdentifier(t *testing.T) {
	spec, err := Lookup("  TikTok ")
	if err != nil {
		t.Fatalf("Lookup: unexpected error %v", err)
	}
	if spec.Platform != PlatformTikTok {
		t.Fatalf("Platform = %q, want %q", spec.Platform, PlatformTikTok)
	}
}

func TestLookupUnknownPlatform(t *testing.T) {
	_, err := Lookup("myspace")
	if !errors.Is(err, domain.ErrUnsupportedPlatform) {
		t.Fatalf("Lookup(myspace) = %v, want ErrUnsupportedPlatform", err)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	first := All()
	first[0].MaxHashtags = 999
	second := All()
	if second[0].MaxHashtags == 999 {
		t.Fatal("All() leaked internal slice")
	}
	if len(second) != 3 {
		t.Fatalf("len(All()) = %d, want 3", len(second))
	}
}
