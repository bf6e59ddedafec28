// Package reconcile periodically re-fetches the server's job list so jobs
// missed while the stream was down converge to their real state.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/lehrwerk/ai-authoring-sync/internal/domain"
	"github.com/lehrwerk/ai-authoring-sync/internal/lifecycle"
)

// fetchTimeout bounds one reconciliation round trip.
const fetchTimeout = 30 * time.Second

// JobLister fetches the server-side job list.
type JobLister interface {
	ListJobs(ctx context.Context) ([]domain.Job, error)
}

// Reconciler runs a cron-scheduled resync of all tracked jobs.
type Reconciler struct {
	client     JobLister
	controller *lifecycle.Controller
	log        zerolog.Logger

	cron *cron.Cron
}

// New creates a Reconciler feeding server records through controller.
func New(client JobLister, controller *lifecycle.Controller, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		client:     client,
		controller: controller,
		log:        log,
		cron:       cron.New(),
	}
}

// Start schedules reconciliation with a cron expression such as "@every 5m".
func (r *Reconciler) Start(schedule string) error {
	if _, err := r.cron.AddFunc(schedule, r.RunOnce); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	r.cron.Start()
	r.log.Info().Str("schedule", schedule).Msg("reconciler started")
	return nil
}

// Stop halts the schedule, waiting for a running round to finish.
func (r *Reconciler) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// RunOnce performs a single reconciliation. Fetch failures are logged and
// skipped; the next scheduled run tries again.
func (r *Reconciler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	jobs, err := r.client.ListJobs(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("reconcile fetch failed")
		return
	}

	for _, job := range jobs {
		r.controller.Resync(job)
	}
	r.log.Debug().Int("jobs", len(jobs)).Msg("reconcile round complete")
}
