package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/lehrwerk/ai-authoring-sync/internal/domain"
	"github.com/lehrwerk/ai-authoring-sync/internal/lifecycle"
)

// JobResponse is the API response for a job
type JobResponse struct {
	ID              string   `json:"id"`
	ConfigurationID string   `json:"configuration_id"`
	JobType         string   `json:"job_type"`
	Status          string   `json:"status"`
	InputPrompt     string   `json:"input_prompt,omitempty"`
	Error           string   `json:"error,omitempty"`
	SuggestionCount int      `json:"suggestion_count"`
	Progress        *float64 `json:"progress,omitempty"`
	ProgressMessage string   `json:"progress_message,omitempty"`
	CreatedAt       string   `json:"created_at"`
	StartedAt       *string  `json:"started_at,omitempty"`
	CompletedAt     *string  `json:"completed_at,omitempty"`
}

// StatusResponse is the API response for overall status
type StatusResponse struct {
	Stream    string `json:"stream"`
	Total     int    `json:"total"`
	Pending   int    `json:"pending"`
	Running   int    `json:"running"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
	Cancelled int    `json:"cancelled"`
}

// ProgressResponse is pushed over SSE for running jobs
type ProgressResponse struct {
	JobID   string  `json:"job_id"`
	Percent float64 `json:"percent"`
	Message string  `json:"message,omitempty"`
}

// SuggestionsResponse is pushed over SSE when a suggestion set loads
type SuggestionsResponse struct {
	JobID string `json:"job_id"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

func jobToResponse(job domain.Job, progress *domain.ProgressSample) JobResponse {
	resp := JobResponse{
		ID:              job.ID,
		ConfigurationID: job.ConfigurationID,
		JobType:         string(job.Kind),
		Status:          string(job.Status),
		InputPrompt:     job.InputPrompt,
		Error:           job.ErrorMessage,
		SuggestionCount: job.SuggestionCount,
		CreatedAt:       job.CreatedAt.Format(time.RFC3339),
	}

	if job.StartedAt != nil {
		t := job.StartedAt.Format(time.RFC3339)
		resp.StartedAt = &t
	}
	if job.CompletedAt != nil {
		t := job.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &t
	}
	if progress != nil {
		p := progress.Percent
		resp.Progress = &p
		resp.ProgressMessage = progress.Message
	}

	return resp
}

func progressToResponse(ev lifecycle.Event) ProgressResponse {
	resp := ProgressResponse{JobID: ev.Job.ID}
	if ev.Progress != nil {
		resp.Percent = ev.Progress.Percent
		resp.Message = ev.Progress.Message
	}
	return resp
}

func suggestionsToResponse(ev lifecycle.Event) SuggestionsResponse {
	return SuggestionsResponse{
		JobID: ev.Job.ID,
		Count: len(ev.Suggestions),
		Error: ev.Error,
	}
}

func (s *Server) statusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		jobs := s.store.List()

		status := StatusResponse{Total: len(jobs)}
		for _, job := range jobs {
			switch job.Status {
			case domain.StatusPending:
				status.Pending++
			case domain.StatusRunning:
				status.Running++
			case domain.StatusCompleted:
				status.Completed++
			case domain.StatusFailed:
				status.Failed++
			case domain.StatusCancelled:
				status.Cancelled++
			}
		}

		if s.streamer != nil {
			status.Stream = s.streamer.Status().String()
		}

		writeJSON(w, status)
	}
}

func (s *Server) listJobsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		jobs := s.store.List()
		responses := make([]JobResponse, len(jobs))
		for i, job := range jobs {
			var progress *domain.ProgressSample
			if sample, ok := s.store.Progress(job.ID); ok {
				progress = &sample
			}
			responses[i] = jobToResponse(job, progress)
		}

		writeJSON(w, responses)
	}
}

func (s *Server) getJobHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		id := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if id == "" || strings.Contains(id, "/") {
			writeError(w, http.StatusBadRequest, "job ID required")
			return
		}

		job, ok := s.store.Get(id)
		if !ok {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}

		var progress *domain.ProgressSample
		if sample, found := s.store.Progress(id); found {
			progress = &sample
		}

		writeJSON(w, jobToResponse(job, progress))
	}
}
