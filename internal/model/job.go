package model

import "time"

// JobStatus of a background generation job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
)

// Job types
const JobTypeGenerate = "generate"

// Job represents a background playlist-generation job.
type Job struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	UserID      string     `json:"userId"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	CurrentStep string     `json:"currentStep,omitempty"`
	Error       *string    `json:"error,omitempty"`
	Payload     []byte     `json:"payload,omitempty"`
	Result      []byte     `json:"result,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// GenerateJobPayload carries one generation request into the worker. The
// Spotify token rides along because the worker has no request context to
// read it from; it is short-lived by nature.
type GenerateJobPayload struct {
	UserID       string           `json:"userId"`
	SpotifyToken string           `json:"spotifyToken"`
	SeedTracks   []string         `json:"seedTracks"`
	Filters      *GenerateFilters `json:"filters,omitempty"`
}

// GenerateStartResponse is returned when an async generation job is queued.
type GenerateStartResponse struct {
	JobID     string    `json:"jobId"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// GenerateStatusResponse reports async job progress.
type GenerateStatusResponse struct {
	JobID       string     `json:"jobId"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	CurrentStep string     `json:"currentStep,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
