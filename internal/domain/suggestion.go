package domain

import "time"

// SuggestionStatus is the approval state of a block suggestion.
// Once non-pending the suggestion is immutable.
type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionApproved SuggestionStatus = "approved"
	SuggestionRejected SuggestionStatus = "rejected"
)

// Decided reports whether the suggestion has been approved or rejected.
func (s SuggestionStatus) Decided() bool {
	return s == SuggestionApproved || s == SuggestionRejected
}

// Suggestion is one candidate content block produced by a completed job,
// awaiting human approval. The job holds no suggestion objects itself, only
// a count cached after load.
type Suggestion struct {
	ID              string           `json:"id"`
	JobID           string           `json:"ai_job_id"`
	Title           string           `json:"title"`
	Slug            string           `json:"slug"`
	Content         string           `json:"content"`
	BlockType       string           `json:"block_type"`
	Language        string           `json:"language,omitempty"`
	Tags            []string         `json:"tags,omitempty"`
	SourceURLs      []string         `json:"source_urls,omitempty"`
	ConfidenceScore float64          `json:"confidence_score"`
	Rationale       string           `json:"ai_rationale,omitempty"`
	Status          SuggestionStatus `json:"status"`
	UserFeedback    string           `json:"user_feedback,omitempty"`
	CreatedBlockID  string           `json:"created_block_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}
