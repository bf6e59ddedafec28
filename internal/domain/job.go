package domain

import (
	"encoding/json"
	"time"
)

// JobStatus is the lifecycle status of an AI generation job.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s JobStatus) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s permits no further transitions.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is a legal successor of s.
// pending -> running and pending/running -> any terminal state are legal;
// terminal states accept nothing.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if s.Terminal() || !next.Valid() || s == next {
		return false
	}
	switch s {
	case StatusPending:
		return next == StatusRunning || next.Terminal()
	case StatusRunning:
		return next.Terminal()
	}
	return false
}

// JobKind is the generation intent of a job.
type JobKind string

const (
	KindContentCreator    JobKind = "content_creator"
	KindContentResearcher JobKind = "content_researcher"
	KindContentEditor     JobKind = "content_editor"
	KindCourseDesigner    JobKind = "course_designer"
)

// Job is one AI content-generation request and its tracked lifecycle.
// The input prompt is immutable after creation; startedAt/completedAt
// populate only on the corresponding transitions.
type Job struct {
	ID              string          `json:"id"`
	ConfigurationID string          `json:"configuration_id"`
	Kind            JobKind         `json:"job_type"`
	Status          JobStatus       `json:"status"`
	InputPrompt     string          `json:"input_prompt"`
	InputMetadata   json.RawMessage `json:"input_metadata,omitempty"`
	OutputData      json.RawMessage `json:"output_data,omitempty"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	SuggestionCount int             `json:"suggestion_count,omitempty"`
	TokensUsed      json.RawMessage `json:"tokens_used,omitempty"`
	ExecutionTimeMs int64           `json:"execution_time_ms,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	StartedAt       *time.Time      `json:"started_at,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
}

// ProgressSample is the latest progress observation for a running job.
// Samples are superseded in place and discarded once the job is terminal.
type ProgressSample struct {
	JobID      string    `json:"job_id"`
	Percent    float64   `json:"percent"`
	Message    string    `json:"message,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}
