// Package approval guards the suggestion review flow. A suggestion is
// decided exactly once: the gate refuses locally-known repeats, never
// mutates local state before the server confirms, and never retries a
// decision request.
package approval

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lehrwerk/ai-authoring-sync/internal/apiclient"
	"github.com/lehrwerk/ai-authoring-sync/internal/domain"
	"github.com/lehrwerk/ai-authoring-sync/internal/jobstore"
)

// Decider is the slice of the API client the gate needs.
type Decider interface {
	ApproveSuggestion(ctx context.Context, suggestionID string) (*apiclient.ApprovalResult, error)
	RejectSuggestion(ctx context.Context, suggestionID, feedback string) error
}

// Gate applies approve/reject decisions through the API and records the
// outcome locally only after the server confirmed it.
type Gate struct {
	client Decider
	store  *jobstore.Store
	log    zerolog.Logger
}

// NewGate creates a Gate deciding through client and recording into store.
func NewGate(client Decider, store *jobstore.Store, log zerolog.Logger) *Gate {
	return &Gate{client: client, store: store, log: log}
}

// Approve approves a pending suggestion. On success it returns the created
// content reference and records the approval. A suggestion already decided
// locally is refused without a request; a server-side conflict is surfaced
// untouched so the caller refreshes instead of retrying.
func (g *Gate) Approve(ctx context.Context, s domain.Suggestion) (*apiclient.ApprovalResult, error) {
	if s.Status.Decided() {
		return nil, &apiclient.RequestError{
			Kind:    apiclient.KindConflict,
			Op:      "approve suggestion",
			Message: "suggestion already " + string(s.Status),
		}
	}

	result, err := g.client.ApproveSuggestion(ctx, s.ID)
	if err != nil {
		g.log.Warn().Err(err).Str("suggestion_id", s.ID).Msg("approval failed")
		return nil, err
	}

	s.Status = domain.SuggestionApproved
	s.CreatedBlockID = result.CreatedBlockID
	g.store.SaveSuggestions([]domain.Suggestion{s})

	g.log.Info().Str("suggestion_id", s.ID).Str("block_id", result.CreatedBlockID).Msg("suggestion approved")
	return result, nil
}

// Reject rejects a pending suggestion with optional reviewer feedback.
func (g *Gate) Reject(ctx context.Context, s domain.Suggestion, feedback string) error {
	if s.Status.Decided() {
		return &apiclient.RequestError{
			Kind:    apiclient.KindConflict,
			Op:      "reject suggestion",
			Message: "suggestion already " + string(s.Status),
		}
	}

	if err := g.client.RejectSuggestion(ctx, s.ID, feedback); err != nil {
		g.log.Warn().Err(err).Str("suggestion_id", s.ID).Msg("rejection failed")
		return err
	}

	s.Status = domain.SuggestionRejected
	s.UserFeedback = feedback
	g.store.SaveSuggestions([]domain.Suggestion{s})

	g.log.Info().Str("suggestion_id", s.ID).Msg("suggestion rejected")
	return nil
}
