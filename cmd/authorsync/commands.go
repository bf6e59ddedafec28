package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/lehrwerk/ai-authoring-sync/internal/apiclient"
	"github.com/lehrwerk/ai-authoring-sync/internal/domain"
	"github.com/lehrwerk/ai-authoring-sync/internal/lifecycle"
	"github.com/lehrwerk/ai-authoring-sync/internal/notify"
	"github.com/lehrwerk/ai-authoring-sync/internal/protocol"
	"github.com/lehrwerk/ai-authoring-sync/internal/reconcile"
	"github.com/lehrwerk/ai-authoring-sync/tui"
	"github.com/lehrwerk/ai-authoring-sync/web/api"
)

var (
	createConfigID string
	createType     string
	createPrompt   string
	rejectFeedback string
	servePort      int
)

func init() {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Start a generation job",
		RunE:  runCreate,
	}
	createCmd.Flags().StringVar(&createConfigID, "config-id", "", "agent configuration id")
	createCmd.Flags().StringVar(&createType, "type", string(domain.KindContentCreator), "job type")
	createCmd.Flags().StringVar(&createPrompt, "prompt", "", "input prompt")
	createCmd.MarkFlagRequired("config-id")
	createCmd.MarkFlagRequired("prompt")
	rootCmd.AddCommand(createCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked jobs",
		RunE:  runList,
	}
	rootCmd.AddCommand(listCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show tracked job counts",
		RunE:  runStatus,
	}
	rootCmd.AddCommand(statusCmd)

	cancelCmd := &cobra.Command{
		Use:   "cancel JOB",
		Short: "Cancel a job",
		Args:  cobra.ExactArgs(1),
		RunE:  runCancel,
	}
	rootCmd.AddCommand(cancelCmd)

	suggestionsCmd := &cobra.Command{
		Use:   "suggestions JOB",
		Short: "List a job's suggestions",
		Args:  cobra.ExactArgs(1),
		RunE:  runSuggestions,
	}
	rootCmd.AddCommand(suggestionsCmd)

	approveCmd := &cobra.Command{
		Use:   "approve SUGGESTION",
		Short: "Approve a suggestion, creating its content block",
		Args:  cobra.ExactArgs(1),
		RunE:  runApprove,
	}
	rootCmd.AddCommand(approveCmd)

	rejectCmd := &cobra.Command{
		Use:   "reject SUGGESTION",
		Short: "Reject a suggestion",
		Args:  cobra.ExactArgs(1),
		RunE:  runReject,
	}
	rejectCmd.Flags().StringVar(&rejectFeedback, "feedback", "", "feedback for the rejection")
	rootCmd.AddCommand(rejectCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow job events headlessly with notifications",
		RunE:  runWatch,
	}
	rootCmd.AddCommand(watchCmd)

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive dashboard",
		RunE:  runTUI,
	}
	rootCmd.AddCommand(tuiCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local web view",
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	job, err := a.client.CreateJob(ctx, apiclient.CreateJobRequest{
		ConfigurationID: createConfigID,
		JobType:         domain.JobKind(createType),
		InputPrompt:     createPrompt,
	})
	if err != nil {
		return err
	}

	a.controller.Track(*job)
	fmt.Printf("Created job %s (%s)\n", job.ID, job.Status)
	fmt.Println("Run 'authorsync watch' or 'authorsync tui' to follow it.")
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tSUGGESTIONS\tERROR")
	for _, job := range a.store.List() {
		errMsg := job.ErrorMessage
		if errMsg == "" {
			errMsg = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			job.ID, job.Kind, job.Status, job.SuggestionCount, errMsg)
	}
	w.Flush()
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var pending, running, completed, failed, cancelled int
	jobs := a.store.List()
	for _, job := range jobs {
		switch job.Status {
		case domain.StatusPending:
			pending++
		case domain.StatusRunning:
			running++
		case domain.StatusCompleted:
			completed++
		case domain.StatusFailed:
			failed++
		case domain.StatusCancelled:
			cancelled++
		}
	}

	fmt.Printf("Jobs: %d total | %d pending | %d running | %d completed | %d failed | %d cancelled\n",
		len(jobs), pending, running, completed, failed, cancelled)
	return nil
}

func runCancel(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	x := &actions{a: a}
	if err := x.CancelJob(args[0]); err != nil {
		return err
	}
	fmt.Printf("Cancelled job %s\n", args[0])
	return nil
}

func runSuggestions(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	jobID := args[0]
	suggestions := a.store.Suggestions(jobID)
	if len(suggestions) == 0 {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		suggestions, err = a.client.ListSuggestions(ctx, jobID)
		if err != nil {
			return err
		}
		a.store.SaveSuggestions(suggestions)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tCONFIDENCE\tTYPE\tTITLE")
	for _, s := range suggestions {
		fmt.Fprintf(w, "%s\t%s\t%.0f%%\t%s\t%s\n",
			s.ID, s.Status, s.ConfidenceScore*100, s.BlockType, s.Title)
	}
	w.Flush()
	return nil
}

// findSuggestion looks the id up locally, falling back to a bare pending
// record so the server stays the authority on unseen suggestions.
func findSuggestion(a *app, id string) domain.Suggestion {
	for _, s := range a.store.AllSuggestions() {
		if s.ID == id {
			return s
		}
	}
	return domain.Suggestion{ID: id, Status: domain.SuggestionPending}
}

func runApprove(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	x := &actions{a: a}
	ref, err := x.Approve(findSuggestion(a, args[0]))
	if err != nil {
		return err
	}
	if ref != "" {
		fmt.Printf("Approved. Created content block: %s\n", ref)
	} else {
		fmt.Println("Approved.")
	}
	return nil
}

func runReject(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	x := &actions{a: a}
	if err := x.Reject(findSuggestion(a, args[0]), rejectFeedback); err != nil {
		return err
	}
	fmt.Println("Rejected.")
	return nil
}

func buildNotifier(a *app) notify.Notifier {
	return notify.NewMultiNotifier(
		notify.NewDesktopNotifier(a.cfg.Notifications.Desktop),
		notify.NewSlackNotifier(a.cfg.Notifications.SlackWebhook),
	)
}

// forwardNotifications surfaces job outcomes and server notices while a
// long-running command is active.
func forwardNotifications(a *app, notifier notify.Notifier) func() {
	events, cancel := a.controller.SubscribeAll()

	a.dispatcher.OnNotification = func(ev protocol.NotificationEvent) {
		notifier.Send(notify.Notification{Title: ev.Title, Message: ev.Message})
	}

	go func() {
		for ev := range events {
			switch {
			case ev.Kind == lifecycle.EventSuggestions && ev.Error == "":
				// Completion is announced once the suggestion count is known.
				if n, ok := notify.ForJob(ev.Job); ok {
					notifier.Send(n)
				}
			case ev.Kind == lifecycle.EventStatus && ev.Job.Status == domain.StatusFailed,
				ev.Kind == lifecycle.EventStatus && ev.Job.Status == domain.StatusCancelled:
				if n, ok := notify.ForJob(ev.Job); ok {
					notifier.Send(n)
				}
			}
		}
	}()
	return cancel
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	watcher, err := a.watchCredential(ctx)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	cancelForward := forwardNotifications(a, buildNotifier(a))
	defer cancelForward()

	reconciler := reconcile.New(a.client, a.controller, a.log)
	if err := reconciler.Start(a.cfg.Sync.ReconcileSchedule); err != nil {
		return err
	}
	defer reconciler.Stop()

	a.startStream()
	reconciler.RunOnce()

	fmt.Println("Watching jobs. Press Ctrl+C to stop.")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	watcher, err := a.watchCredential(ctx)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	a.startStream()

	model := tui.NewModel(&actions{a: a})
	p := tea.NewProgram(model, tea.WithAltScreen())

	_, err = p.Run()
	return err
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	watcher, err := a.watchCredential(ctx)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	reconciler := reconcile.New(a.client, a.controller, a.log)
	if err := reconciler.Start(a.cfg.Sync.ReconcileSchedule); err != nil {
		return err
	}
	defer reconciler.Stop()

	a.startStream()
	reconciler.RunOnce()

	port := servePort
	if port == 0 {
		port = a.cfg.Web.Port
	}
	addr := fmt.Sprintf("%s:%d", a.cfg.Web.Host, port)

	server := api.NewServer(a.store, a.controller, a.supervisor, addr, a.log)
	fmt.Printf("Serving job view at http://%s\n", addr)
	return server.Start()
}
