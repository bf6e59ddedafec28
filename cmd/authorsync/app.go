package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/lehrwerk/ai-authoring-sync/internal/apiclient"
	"github.com/lehrwerk/ai-authoring-sync/internal/approval"
	"github.com/lehrwerk/ai-authoring-sync/internal/config"
	"github.com/lehrwerk/ai-authoring-sync/internal/credwatch"
	"github.com/lehrwerk/ai-authoring-sync/internal/domain"
	"github.com/lehrwerk/ai-authoring-sync/internal/jobstore"
	"github.com/lehrwerk/ai-authoring-sync/internal/lifecycle"
	"github.com/lehrwerk/ai-authoring-sync/internal/logging"
	"github.com/lehrwerk/ai-authoring-sync/internal/stream"
	"github.com/lehrwerk/ai-authoring-sync/tui"
)

// requestTimeout bounds one-shot CLI requests.
const requestTimeout = 30 * time.Second

// app wires the shared components behind every command.
type app struct {
	cfg        *config.Config
	log        zerolog.Logger
	store      *jobstore.Store
	client     *apiclient.Client
	controller *lifecycle.Controller
	dispatcher *stream.Dispatcher
	supervisor *stream.Supervisor
	gate       *approval.Gate
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	store, err := jobstore.Open(cfg.Sync.DatabasePath, log)
	if err != nil {
		return nil, err
	}

	credential, err := credwatch.Read(cfg.Server.CredentialFile)
	if err != nil {
		store.Close()
		return nil, err
	}

	client := apiclient.New(cfg.Server.APIURL, credential, log)
	controller := lifecycle.New(store, client, log)
	dispatcher := stream.NewDispatcher(controller, log)
	supervisor := stream.NewSupervisor(stream.Config{
		Endpoint:          cfg.Server.StreamURL,
		RetryDelay:        cfg.Stream.RetryDelay(),
		MaxAttempts:       cfg.Stream.MaxAttempts,
		HeartbeatInterval: cfg.Stream.HeartbeatInterval(),
	}, dispatcher, log)
	supervisor.SetCredential(credential)

	return &app{
		cfg:        cfg,
		log:        log,
		store:      store,
		client:     client,
		controller: controller,
		dispatcher: dispatcher,
		supervisor: supervisor,
		gate:       approval.NewGate(client, store, log),
	}, nil
}

func (a *app) Close() {
	a.supervisor.Disconnect()
	a.controller.Stop()
	a.store.Close()
}

// startStream declares interest and subscribes every non-terminal job.
func (a *app) startStream() {
	a.supervisor.SetInterested(true)
	for _, job := range a.store.ListActive() {
		if err := a.supervisor.Subscribe(job.ID); err != nil {
			a.log.Warn().Err(err).Str("job_id", job.ID).Msg("subscribe failed")
		}
	}
}

// watchCredential reloads a rotated token into the API client and the
// stream supervisor.
func (a *app) watchCredential(ctx context.Context) (*credwatch.Watcher, error) {
	watcher, err := credwatch.New(a.cfg.Server.CredentialFile, func(credential string) {
		a.client.SetCredential(credential)
		a.supervisor.SetCredential(credential)
	}, a.log)
	if err != nil {
		return nil, err
	}
	watcher.Start(ctx)
	return watcher, nil
}

// actions adapts the app to the TUI.
type actions struct {
	a *app
}

func (x *actions) Jobs() []tui.JobRow {
	jobs := x.a.store.List()
	rows := make([]tui.JobRow, len(jobs))
	for i, job := range jobs {
		rows[i] = tui.JobRow{Job: job}
		if sample, ok := x.a.store.Progress(job.ID); ok {
			rows[i].Progress = &sample
		}
	}
	return rows
}

func (x *actions) Suggestions() []domain.Suggestion {
	return x.a.store.AllSuggestions()
}

func (x *actions) StreamStatus() stream.Status {
	return x.a.supervisor.Status()
}

func (x *actions) CancelJob(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := x.a.client.CancelJob(ctx, id); err != nil {
		return err
	}
	x.a.controller.ConfirmCancelled(id)
	return nil
}

func (x *actions) Approve(s domain.Suggestion) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	result, err := x.a.gate.Approve(ctx, s)
	if err != nil {
		return "", err
	}
	if result.BlockSlug != "" {
		return result.BlockSlug, nil
	}
	return result.CreatedBlockID, nil
}

func (x *actions) Reject(s domain.Suggestion, feedback string) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	return x.a.gate.Reject(ctx, s, feedback)
}
