package domain

import "time"

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusPlanning   JobStatus = "planning"
	JobStatusGenerating JobStatus = "generating"
	JobStatusAssembling JobStatus = "assembling"
	JobStatusFormatting JobStatus = "formatting"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether no further pipeline-driven transition can occur.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// Consistency is the visual-coherence level requested from the generation provider.
type Consistency string

const (
	ConsistencyLow    Consistency = "low"
	ConsistencyMedium Consistency = "medium"
	ConsistencyHigh   Consistency = "high"
)

// ParseConsistency normalizes a consistency value, defaulting to high.
func ParseConsistency(v string) Consistency {
	switch Consistency(v) {
	case ConsistencyLow, ConsistencyMedium, ConsistencyHigh:
		return Consistency(v)
	default:
		return ConsistencyHigh
	}
}

// JobConfig is the immutable snapshot of an originating content request.
type JobConfig struct {
	Topic          string
	Platforms      []string
	Style          string
	StyleReference string
	DurationSecs   int
	Language       string
	Quality        string
	Consistency    Consistency
	Hashtags       []string
	Description    string
}

// SegmentStatus enumerates per-segment generation states.
type SegmentStatus string

const (
	SegmentPending SegmentStatus = "pending"
	SegmentDone    SegmentStatus = "done"
	SegmentFailed  SegmentStatus = "failed"
)

// SegmentSpec describes one planned clip of the output video.
type SegmentSpec struct {
	Index              int
	VisualDescription  string
	DurationSecs       int
	DependsOnReference bool
}

// SegmentPlan is the ordered list of segments a request was split into.
type SegmentPlan struct {
	Segments []SegmentSpec
}

// TotalDurationSecs sums all planned segment durations.
func (p *SegmentPlan) TotalDurationSecs() int {
	if p == nil {
		return 0
	}
	total := 0
	for _, s := range p.Segments {
		total += s.DurationSecs
	}
	return total
}

// SegmentResult records the outcome of one segment generation call. A result is
// exclusively owned by its parent Job and is never shared across jobs.
type SegmentResult struct {
	Index        int
	ArtifactRef  string
	DurationSecs int
	Status       SegmentStatus
}

// AssembledVideo is the single concatenated artifact produced from all segments.
type AssembledVideo struct {
	ArtifactRef    string
	SourceSegments []string
	DurationSecs   int
}

// SafeZone describes the margins (in pixels) that platform UI overlays occupy.
type SafeZone struct {
	Top    int
	Bottom int
	Left   int
	Right  int
}

// PlatformOutput is one platform-formatted rendition of an assembled video.
type PlatformOutput struct {
	Platform      string
	ArtifactRef   string
	DurationSecs  int
	AspectRatio   string
	CaptionStyle  string
	SafeZone      SafeZone
	BrandPosition string
	Hashtags      []string
	Description   string
}

// JobError is the structured cause retained on a failed job.
type JobError struct {
	Stage  string
	Detail string
}

func (e *JobError) Error() string {
	if e == nil {
		return ""
	}
	return e.Stage + ": " + e.Detail
}

// Job is a generation request's execution record.
type Job struct {
	ID          string
	Status      JobStatus
	Progress    int
	CurrentStep string
	Config      JobConfig
	Plan        *SegmentPlan
	Segments    []SegmentResult
	Assembled   *AssembledVideo
	Outputs     map[string]PlatformOutput
	Diagnostics []string
	Error       *JobError
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// CancelRequested is the cooperative cancellation flag observed by the
	// pipeline at its yield points. It is not part of the public snapshot.
	CancelRequested bool
}

// Clone returns a deep copy so that pollers never observe torn state.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	cp.Config.Platforms = append([]string(nil), j.Config.Platforms...)
	cp.Config.Hashtags = append([]string(nil), j.Config.Hashtags...)
	if j.Plan != nil {
		plan := SegmentPlan{Segments: append([]SegmentSpec(nil), j.Plan.Segments...)}
		cp.Plan = &plan
	}
	cp.Segments = append([]SegmentResult(nil), j.Segments...)
	if j.Assembled != nil {
		assembled := *j.Assembled
		assembled.SourceSegments = append([]string(nil), j.Assembled.SourceSegments...)
		cp.Assembled = &assembled
	}
	if j.Outputs != nil {
		cp.Outputs = make(map[string]PlatformOutput, len(j.Outputs))
		for platform, out := range j.Outputs {
			out.Hashtags = append([]string(nil), out.Hashtags...)
			cp.Outputs[platform] = out
		}
	}
	cp.Diagnostics = append([]string(nil), j.Diagnostics...)
	if j.Error != nil {
		jobErr := *j.Error
		cp.Error = &jobErr
	}
	return &cp
}
