package platformspec

import (
	"fmt"
	"strings"

	"clipforge/internal/domain"
)

// Spec is the fixed set of formatting constraints for one target platform.
// Specs are static, process-wide, and read-only after initialization: adding a
// platform means adding one table row here, never adding branching logic.
type Spec struct {
	Platform        string
	AspectRatio     string
	MaxDurationSecs int
	CaptionStyle    string
	SafeZone        domain.SafeZone
	MaxHashtags     int
	BrandPosition   string
}

const (
	PlatformTikTok    = "tiktok"
	PlatformInstagram = "instagram"
	PlatformYouTube   = "youtube"
)

var specs = []Spec{
	{
		Platform:        PlatformTikTok,
		AspectRatio:     "9:16",
		MaxDurationSecs: 60,
		CaptionStyle:    "bold_center",
		SafeZone:        domain.SafeZone{Top: 120, Bottom: 220, Left: 40, Right: 120},
		MaxHashtags:     5,
		BrandPosition:   "top_right",
	},
	{
		Platform:        PlatformInstagram,
		AspectRatio:     "9:16",
		MaxDurationSecs: 90,
		CaptionStyle:    "clean_minimal",
		SafeZone:        domain.SafeZone{Top: 140, Bottom: 280, Left: 60, Right: 60},
		MaxHashtags:     15,
		BrandPosition:   "bottom_left",
	},
	{
		Platform:        PlatformYouTube,
		AspectRatio:     "9:16",
		MaxDurationSecs: 60,
		CaptionStyle:    "subtitle_band",
		SafeZone:        domain.SafeZone{Top: 100, Bottom: 160, Left: 40, Right: 40},
		MaxHashtags:     10,
		BrandPosition:   "top_left",
	},
}

var specIndex = func() map[string]Spec {
	idx := make(map[string]Spec, len(specs))
	for _, s := range specs {
		idx[s.Platform] = s
	}
	return idx
}()

// Lookup resolves the spec for a platform identifier.
func Lookup(platform string) (Spec, error) {
	normalized := strings.ToLower(strings.TrimSpace(platform))
	spec, ok := specIndex[normalized]
	if !ok {
		return Spec{}, fmt.Errorf("platformspec: %q: %w", platform, domain.ErrUnsupportedPlatform)
	}
	return spec, nil
}

// All returns the ordered list of supported platform specs.
func All() []Spec {
	cp := make([]Spec, len(specs))
	copy(cp, specs)
	return cp
}

// Supported reports whether a platform identifier is known.
func Supported(platform string) bool {
	_, err := Lookup(platform)
	return err == nil
}
