package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"clipforge/internal/domain"
	pkgzip "clipforge/pkg/zip"
)

type createJobRequest struct {
	Topic          string   `json:"topic"`
	Platforms      []string `json:"platforms"`
	Style          string   `json:"style"`
	StyleReference string   `json:"style_reference"`
	DurationSecs   int      `json:"duration_seconds"`
	Language       string   `json:"language"`
	Quality        string   `json:"quality"`
	Consistency    string   `json:"consistency"`
	Hashtags       []string `json:"hashtags"`
	Description    string   `json:"description"`
}

type jobConfigView struct {
	Topic          string   `json:"topic"`
	Platforms      []string `json:"platforms"`
	Style          string   `json:"style,omitempty"`
	StyleReference string   `json:"style_reference,omitempty"`
	DurationSecs   int      `json:"duration_seconds"`
	Language       string   `json:"language,omitempty"`
	Quality        string   `json:"quality,omitempty"`
	Consistency    string   `json:"consistency"`
	Hashtags       []string `json:"hashtags,omitempty"`
	Description    string   `json:"description,omitempty"`
}

type segmentView struct {
	Index        int    `json:"index"`
	ArtifactRef  string `json:"artifact_ref,omitempty"`
	DurationSecs int    `json:"duration_seconds"`
	Status       string `json:"status"`
}

type assembledView struct {
	ArtifactRef  string `json:"artifact_ref"`
	DurationSecs int    `json:"duration_seconds"`
}

type safeZoneView struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
	Right  int `json:"right"`
}

type outputView struct {
	Platform      string       `json:"platform"`
	ArtifactRef   string       `json:"artifact_ref"`
	DurationSecs  int          `json:"duration_seconds"`
	AspectRatio   string       `json:"aspect_ratio"`
	CaptionStyle  string       `json:"caption_style"`
	SafeZone      safeZoneView `json:"safe_zone"`
	BrandPosition string       `json:"brand_position"`
	Hashtags      []string     `json:"hashtags"`
	Description   string       `json:"description,omitempty"`
}

type jobErrorView struct {
	Stage  string `json:"stage"`
	Detail string `json:"detail"`
}

type jobView struct {
	ID          string                `json:"id"`
	Status      string                `json:"status"`
	Progress    int                   `json:"progress"`
	CurrentStep string                `json:"current_step"`
	Config      jobConfigView         `json:"config"`
	Segments    []segmentView         `json:"segments,omitempty"`
	Assembled   *assembledView        `json:"assembled,omitempty"`
	Outputs     map[string]outputView `json:"outputs,omitempty"`
	Diagnostics []string              `json:"diagnostics,omitempty"`
	Error       *jobErrorView         `json:"error,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

func viewJob(job *domain.Job) jobView {
	v := jobView{
		ID:          job.ID,
		Status:      string(job.Status),
		Progress:    job.Progress,
		CurrentStep: job.CurrentStep,
		Config: jobConfigView{
			Topic:          job.Config.Topic,
			Platforms:      job.Config.Platforms,
			Style:          job.Config.Style,
			StyleReference: job.Config.StyleReference,
			DurationSecs:   job.Config.DurationSecs,
			Language:       job.Config.Language,
			Quality:        job.Config.Quality,
			Consistency:    string(job.Config.Consistency),
			Hashtags:       job.Config.Hashtags,
			Description:    job.Config.Description,
		},
		Diagnostics: job.Diagnostics,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
	}
	for _, seg := range job.Segments {
		v.Segments = append(v.Segments, segmentView{
			Index:        seg.Index,
			ArtifactRef:  seg.ArtifactRef,
			DurationSecs: seg.DurationSecs,
			Status:       string(seg.Status),
		})
	}
	if job.Assembled != nil {
		v.Assembled = &assembledView{
			ArtifactRef:  job.Assembled.ArtifactRef,
			DurationSecs: job.Assembled.DurationSecs,
		}
	}
	if len(job.Outputs) > 0 {
		v.Outputs = make(map[string]outputView, len(job.Outputs))
		for platform, out := range job.Outputs {
			v.Outputs[platform] = outputView{
				Platform:      out.Platform,
				ArtifactRef:   out.ArtifactRef,
				DurationSecs:  out.DurationSecs,
				AspectRatio:   out.AspectRatio,
				CaptionStyle:  out.CaptionStyle,
				SafeZone:      safeZoneView(out.SafeZone),
				BrandPosition: out.BrandPosition,
				Hashtags:      out.Hashtags,
				Description:   out.Description,
			}
		}
	}
	if job.Error != nil {
		v.Error = &jobErrorView{Stage: job.Error.Stage, Detail: job.Error.Detail}
	}
	return v
}

func (a *App) JobsCreate(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	job, err := a.Runner.Submit(domain.JobConfig{
		Topic:          req.Topic,
		Platforms:      req.Platforms,
		Style:          req.Style,
		StyleReference: req.StyleReference,
		DurationSecs:   req.DurationSecs,
		Language:       req.Language,
		Quality:        req.Quality,
		Consistency:    domain.Consistency(req.Consistency),
		Hashtags:       req.Hashtags,
		Description:    req.Description,
	})
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_config", err.Error())
		return
	}
	a.json(w, http.StatusAccepted, viewJob(job))
}

func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	job, err := a.Registry.Get(chi.URLParam(r, "job_id"))
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return
	}
	a.json(w, http.StatusOK, viewJob(job))
}

func (a *App) JobsList(w http.ResponseWriter, r *http.Request) {
	jobs := a.Registry.List()
	views := make([]jobView, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, viewJob(job))
	}
	a.json(w, http.StatusOK, map[string]any{"jobs": views})
}

func (a *App) JobCancel(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if err := a.Runner.Cancel(jobID); err != nil {
		a.jobError(w, err)
		return
	}
	job, err := a.Registry.Get(jobID)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return
	}
	a.json(w, http.StatusAccepted, viewJob(job))
}

func (a *App) JobRetry(w http.ResponseWriter, r *http.Request) {
	job, err := a.Runner.Retry(chi.URLParam(r, "job_id"))
	if err != nil {
		a.jobError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, viewJob(job))
}

func (a *App) JobDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.Registry.Delete(r.Context(), chi.URLParam(r, "job_id")); err != nil {
		a.jobError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// JobBundle streams a zip of every platform rendition of a completed job.
func (a *App) JobBundle(w http.ResponseWriter, r *http.Request) {
	job, err := a.Registry.Get(chi.URLParam(r, "job_id"))
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return
	}
	if job.Status != domain.JobStatusCompleted {
		a.error(w, http.StatusConflict, "conflict", "job has no outputs yet")
		return
	}

	assets := make([]pkgzip.Asset, 0, len(job.Outputs))
	for platform, out := range job.Outputs {
		data, err := a.Store.Read(r.Context(), out.ArtifactRef)
		if err != nil {
			a.Logger.Warn().Err(err).Str("job_id", job.ID).Str("platform", platform).Msg("handlers: bundle read failed")
			continue
		}
		assets = append(assets, pkgzip.Asset{
			Filename: fmt.Sprintf("%s.mp4", platform),
			MIME:     "video/mp4",
			Data:     data,
		})
	}
	if len(assets) == 0 {
		a.error(w, http.StatusInternalServerError, "internal", "no output artifacts readable")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", job.ID+".zip"))
	_, _ = w.Write(pkgzip.ArchiveAssets(assets))
}

// jobError maps registry errors onto HTTP statuses.
func (a *App) jobError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "job not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		a.error(w, http.StatusConflict, "conflict", err.Error())
	default:
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
	}
}
