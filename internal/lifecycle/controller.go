// Package lifecycle implements the job state machine and its transition
// policy: which status progressions are valid, what side effects fire on a
// transition, and which events are stale. It is the only writer of the job
// store.
package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lehrwerk/ai-authoring-sync/internal/domain"
	"github.com/lehrwerk/ai-authoring-sync/internal/jobstore"
)

// suggestionFetchTimeout bounds the post-completion suggestion load.
const suggestionFetchTimeout = 30 * time.Second

// SuggestionLister loads the suggestion set of a completed job.
type SuggestionLister interface {
	ListSuggestions(ctx context.Context, jobID string) ([]domain.Suggestion, error)
}

// Controller applies inbound job events to the store and fires transition
// side effects. It keeps its own last-applied-status memory per job id,
// independent of the store, so de-duplication survives a consumer clearing
// its view of a job.
type Controller struct {
	store       *jobstore.Store
	suggestions SuggestionLister
	log         zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	lastApplied map[string]domain.JobStatus
	fetched     map[string]bool

	subs *registry
}

// New creates a Controller writing to store. lister may be nil when no
// suggestion loading is wanted (e.g. in a bare monitor).
func New(store *jobstore.Store, lister SuggestionLister, log zerolog.Logger) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		store:       store,
		suggestions: lister,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
		lastApplied: make(map[string]domain.JobStatus),
		fetched:     make(map[string]bool),
		subs:        newRegistry(),
	}
}

// Stop cancels any in-flight suggestion loads and closes all subscriptions.
func (c *Controller) Stop() {
	c.cancel()
	c.subs.closeAll()
}

// Store returns the job store the controller writes to.
func (c *Controller) Store() *jobstore.Store { return c.store }

// Track registers a job the client just created or fetched, seeding the
// de-duplication memory with its current status.
func (c *Controller) Track(job domain.Job) {
	c.store.Put(job)

	c.mu.Lock()
	if _, ok := c.lastApplied[job.ID]; !ok {
		c.lastApplied[job.ID] = job.Status
	}
	c.mu.Unlock()
}

// HandleUpdate applies a pushed status update. Updates repeating the
// last-applied status, updates for jobs already terminal, and updates for
// untracked jobs are dropped as stale.
func (c *Controller) HandleUpdate(jobID string, status domain.JobStatus, errMsg string, output []byte) {
	c.mu.Lock()

	last, seen := c.lastApplied[jobID]
	if !seen {
		job, tracked := c.store.Get(jobID)
		if !tracked {
			c.mu.Unlock()
			c.log.Debug().Str("job_id", jobID).Msg("update for untracked job dropped")
			return
		}
		last = job.Status
	}

	if last == status {
		c.mu.Unlock()
		c.log.Debug().Str("job_id", jobID).Str("status", string(status)).Msg("duplicate status dropped")
		return
	}
	if last.Terminal() {
		c.mu.Unlock()
		c.log.Debug().Str("job_id", jobID).Str("status", string(status)).Msg("stale event for terminal job dropped")
		return
	}

	job, applied := c.store.ApplyStatus(jobID, status, errMsg, output, time.Now())
	if !applied {
		c.mu.Unlock()
		c.log.Debug().Str("job_id", jobID).Str("status", string(status)).Msg("transition rejected by store")
		return
	}
	c.lastApplied[jobID] = status

	fetch := false
	if status == domain.StatusCompleted && c.suggestions != nil && !c.fetched[jobID] {
		c.fetched[jobID] = true
		fetch = true
	}
	c.mu.Unlock()

	event := Event{Kind: EventStatus, Job: job}
	switch status {
	case domain.StatusFailed:
		event.Error = job.ErrorMessage
		if event.Error == "" {
			event.Error = "generation failed"
		}
	case domain.StatusCancelled:
		c.store.ClearProgress(jobID)
	}

	c.log.Info().Str("job_id", jobID).Str("status", string(status)).Msg("job transition applied")
	c.subs.publish(jobID, event)

	if fetch {
		go c.loadSuggestions(jobID)
	}
}

// HandleProgress applies a pushed progress sample. Samples for jobs not
// currently running are dropped.
func (c *Controller) HandleProgress(jobID string, percent float64, message string) {
	sample := domain.ProgressSample{
		JobID:      jobID,
		Percent:    percent,
		Message:    message,
		ObservedAt: time.Now(),
	}
	if !c.store.SetProgress(sample) {
		c.log.Debug().Str("job_id", jobID).Msg("progress for non-running job dropped")
		return
	}

	job, _ := c.store.Get(jobID)
	c.subs.publish(jobID, Event{Kind: EventProgress, Job: job, Progress: &sample})
}

// ConfirmCancelled records a cancellation confirmed by the cancel request's
// response. A pushed cancelled event arriving later is discarded by the
// terminal-is-final rule, and vice versa.
func (c *Controller) ConfirmCancelled(jobID string) {
	c.HandleUpdate(jobID, domain.StatusCancelled, "", nil)
}

// Resync reconciles a job record fetched out-of-band (manual refresh or the
// periodic reconciler) through the same transition policy as pushed events.
func (c *Controller) Resync(job domain.Job) {
	if _, tracked := c.store.Get(job.ID); !tracked {
		c.Track(job)
		return
	}
	c.HandleUpdate(job.ID, job.Status, job.ErrorMessage, job.OutputData)
}

func (c *Controller) loadSuggestions(jobID string) {
	ctx, cancel := context.WithTimeout(c.ctx, suggestionFetchTimeout)
	defer cancel()

	suggestions, err := c.suggestions.ListSuggestions(ctx, jobID)
	if err != nil {
		c.log.Warn().Err(err).Str("job_id", jobID).Msg("loading suggestions failed")
		c.subs.publish(jobID, Event{Kind: EventSuggestions, Error: err.Error()})
		return
	}

	c.store.SetSuggestionCount(jobID, len(suggestions))
	c.store.SaveSuggestions(suggestions)

	job, _ := c.store.Get(jobID)
	c.subs.publish(jobID, Event{Kind: EventSuggestions, Job: job, Suggestions: suggestions})
}
