package lifecycle

import (
	"sync"

	"github.com/google/uuid"

	"github.com/lehrwerk/ai-authoring-sync/internal/domain"
)

// EventKind tells subscribers what changed.
type EventKind string

const (
	// EventStatus signals an applied status transition.
	EventStatus EventKind = "status"
	// EventProgress signals a fresh progress sample for a running job.
	EventProgress EventKind = "progress"
	// EventSuggestions signals that a completed job's suggestion set
	// finished loading (or failed to, see Error).
	EventSuggestions EventKind = "suggestions"
)

// Event is delivered to subscribers on every applied change.
type Event struct {
	Kind        EventKind
	Job         domain.Job
	Progress    *domain.ProgressSample
	Suggestions []domain.Suggestion
	Error       string
}

// eventBuffer is the per-subscriber channel capacity. Slow subscribers
// lose events rather than block dispatch.
const eventBuffer = 16

type subscriber struct {
	jobID string // "" subscribes to all jobs
	ch    chan Event
}

type registry struct {
	mu     sync.Mutex
	subs   map[string]*subscriber
	closed bool
}

func newRegistry() *registry {
	return &registry{subs: make(map[string]*subscriber)}
}

// Subscribe returns a channel receiving events for the given job id and a
// function releasing the subscription. The channel is closed on release.
func (c *Controller) Subscribe(jobID string) (<-chan Event, func()) {
	return c.subs.add(jobID)
}

// SubscribeAll returns a channel receiving events for every tracked job.
func (c *Controller) SubscribeAll() (<-chan Event, func()) {
	return c.subs.add("")
}

func (r *registry) add(jobID string) (<-chan Event, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub := &subscriber{jobID: jobID, ch: make(chan Event, eventBuffer)}
	if r.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}

	id := uuid.NewString()
	r.subs[id] = sub

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if _, ok := r.subs[id]; ok {
				delete(r.subs, id)
				close(sub.ch)
			}
		})
	}
}

func (r *registry) publish(jobID string, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sub := range r.subs {
		if sub.jobID != "" && sub.jobID != jobID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// Subscriber fell behind; it can resync from the store.
		}
	}
}

func (r *registry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	for id, sub := range r.subs {
		delete(r.subs, id)
		close(sub.ch)
	}
}
