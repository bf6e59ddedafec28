// Package notify surfaces job outcomes to the author through desktop and
// Slack notifications.
package notify

import (
	"fmt"

	"github.com/lehrwerk/ai-authoring-sync/internal/domain"
)

// NotificationType represents the type of notification
type NotificationType int

const (
	NotifyInfo NotificationType = iota
	NotifySuccess
	NotifyWarning
	NotifyError
)

// Notification represents a notification to be sent
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
	JobID   string // Optional job reference
}

// Notifier is the interface for sending notifications
type Notifier interface {
	Send(n Notification) error
}

// MultiNotifier sends to multiple notifiers
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a notifier that sends to all provided notifiers
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Send sends the notification to all notifiers
func (m *MultiNotifier) Send(n Notification) error {
	var lastErr error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(n); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// NoopNotifier does nothing (for testing or disabled notifications)
type NoopNotifier struct{}

func (NoopNotifier) Send(n Notification) error { return nil }

// ForJob builds the notification for a job that reached a terminal status.
// Non-terminal jobs yield nothing.
func ForJob(job domain.Job) (Notification, bool) {
	switch job.Status {
	case domain.StatusCompleted:
		msg := "Generation finished"
		if job.SuggestionCount > 0 {
			msg = fmt.Sprintf("%d suggestions ready for review", job.SuggestionCount)
		}
		return Notification{
			Title:   "Job completed",
			Message: msg,
			Type:    NotifySuccess,
			JobID:   job.ID,
		}, true
	case domain.StatusFailed:
		msg := job.ErrorMessage
		if msg == "" {
			msg = "generation failed"
		}
		return Notification{
			Title:   "Job failed",
			Message: msg,
			Type:    NotifyError,
			JobID:   job.ID,
		}, true
	case domain.StatusCancelled:
		return Notification{
			Title:   "Job cancelled",
			Message: "Generation was cancelled",
			Type:    NotifyWarning,
			JobID:   job.ID,
		}, true
	}
	return Notification{}, false
}
