package notify

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lehrwerk/ai-authoring-sync/internal/domain"
)

func TestSlackMessage_Build(t *testing.T) {
	msg := SlackMessage{
		Text: "Job completed",
		Attachments: []SlackAttachment{
			{
				Color: "good",
				Title: "job-42",
				Text:  "3 suggestions ready for review",
			},
		},
	}

	payload, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}

	if len(payload) == 0 {
		t.Error("Payload should not be empty")
	}
}

func TestSlackNotifier_Send(t *testing.T) {
	// Mock Slack server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewSlackNotifier(server.URL)
	err := notifier.Send(Notification{
		Title:   "Test",
		Message: "Test message",
		Type:    NotifyInfo,
	})

	if err != nil {
		t.Errorf("Send failed: %v", err)
	}
}

func TestNotificationTypeColors(t *testing.T) {
	tests := []struct {
		typ  NotificationType
		want string
	}{
		{NotifySuccess, "good"},
		{NotifyWarning, "warning"},
		{NotifyError, "danger"},
		{NotifyInfo, "#439FE0"},
	}

	for _, tt := range tests {
		got := SlackColor(tt.typ)
		if got != tt.want {
			t.Errorf("SlackColor(%v) = %s, want %s", tt.typ, got, tt.want)
		}
	}
}

func TestMultiNotifier(t *testing.T) {
	var called []string

	mock1 := &mockNotifier{name: "mock1", calls: &called}
	mock2 := &mockNotifier{name: "mock2", calls: &called}

	multi := NewMultiNotifier(mock1, mock2)
	multi.Send(Notification{Title: "Test"})

	if len(called) != 2 {
		t.Errorf("Expected 2 calls, got %d", len(called))
	}
}

type mockNotifier struct {
	name  string
	calls *[]string
}

func (m *mockNotifier) Send(n Notification) error {
	*m.calls = append(*m.calls, m.name)
	return nil
}

func TestForJob(t *testing.T) {
	tests := []struct {
		name     string
		job      domain.Job
		wantSend bool
		wantType NotificationType
	}{
		{
			name:     "completed with suggestions",
			job:      domain.Job{ID: "j1", Status: domain.StatusCompleted, SuggestionCount: 3},
			wantSend: true,
			wantType: NotifySuccess,
		},
		{
			name:     "failed",
			job:      domain.Job{ID: "j1", Status: domain.StatusFailed, ErrorMessage: "model overloaded"},
			wantSend: true,
			wantType: NotifyError,
		},
		{
			name:     "cancelled",
			job:      domain.Job{ID: "j1", Status: domain.StatusCancelled},
			wantSend: true,
			wantType: NotifyWarning,
		},
		{
			name:     "running is silent",
			job:      domain.Job{ID: "j1", Status: domain.StatusRunning},
			wantSend: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := ForJob(tt.job)
			if ok != tt.wantSend {
				t.Fatalf("ForJob send = %v, want %v", ok, tt.wantSend)
			}
			if ok && n.Type != tt.wantType {
				t.Errorf("type = %v, want %v", n.Type, tt.wantType)
			}
			if ok && n.JobID != "j1" {
				t.Errorf("JobID = %q, want j1", n.JobID)
			}
		})
	}
}
