package handlers

import (
	"net/http"

	"clipforge/internal/platformspec"
)

type platformView struct {
	Platform        string       `json:"platform"`
	AspectRatio     string       `json:"aspect_ratio"`
	MaxDurationSecs int          `json:"max_duration_seconds"`
	CaptionStyle    string       `json:"caption_style"`
	SafeZone        safeZoneView `json:"safe_zone"`
	MaxHashtags     int          `json:"max_hashtags"`
	BrandPosition   string       `json:"brand_position"`
}

func (a *App) Platforms(w http.ResponseWriter, r *http.Request) {
	specs := platformspec.All()
	views := make([]platformView, 0, len(specs))
	for _, spec := range specs {
		views = append(views, platformView{
			Platform:        spec.Platform,
			AspectRatio:     spec.AspectRatio,
			MaxDurationSecs: spec.MaxDurationSecs,
			CaptionStyle:    spec.CaptionStyle,
			SafeZone:        safeZoneView(spec.SafeZone),
			MaxHashtags:     spec.MaxHashtags,
			BrandPosition:   spec.BrandPosition,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"platforms": views})
}
