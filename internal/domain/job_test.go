package domain

import "testing"

func TestJobStatus_Terminal(t *testing.T) {
	tests := []struct {
		status JobStatus
		want   bool
	}{
		{StatusPending, false},
		{StatusRunning, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusCancelled, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestJobStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from JobStatus
		to   JobStatus
		want bool
	}{
		{"pending to running", StatusPending, StatusRunning, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"pending to completed", StatusPending, StatusCompleted, true},
		{"running to completed", StatusRunning, StatusCompleted, true},
		{"running to failed", StatusRunning, StatusFailed, true},
		{"running to cancelled", StatusRunning, StatusCancelled, true},
		{"running to pending", StatusRunning, StatusPending, false},
		{"completed to running", StatusCompleted, StatusRunning, false},
		{"failed to completed", StatusFailed, StatusCompleted, false},
		{"cancelled to cancelled", StatusCancelled, StatusCancelled, false},
		{"same status is not a transition", StatusRunning, StatusRunning, false},
		{"unknown target", StatusPending, JobStatus("paused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestSuggestionStatus_Decided(t *testing.T) {
	if SuggestionPending.Decided() {
		t.Error("pending should not be decided")
	}
	if !SuggestionApproved.Decided() {
		t.Error("approved should be decided")
	}
	if !SuggestionRejected.Decided() {
		t.Error("rejected should be decided")
	}
}
