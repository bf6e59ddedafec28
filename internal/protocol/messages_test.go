// internal/protocol/messages_test.go
package protocol

import (
	"encoding/json"
	"testing"
)

func TestJobUpdateEvent_Decode(t *testing.T) {
	raw := `{"type":"job_update","job_id":"job-1","status":"failed","data":{"error":"rate limited"}}`

	var hdr Header
	if err := json.Unmarshal([]byte(raw), &hdr); err != nil {
		t.Fatal(err)
	}
	if hdr.Type != TypeJobUpdate {
		t.Errorf("got type %q, want %q", hdr.Type, TypeJobUpdate)
	}

	var ev JobUpdateEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.JobID != "job-1" {
		t.Errorf("got job_id %q, want %q", ev.JobID, "job-1")
	}
	if ev.Data.Error != "rate limited" {
		t.Errorf("got error %q, want %q", ev.Data.Error, "rate limited")
	}
}

func TestJobProgressEvent_Decode(t *testing.T) {
	raw := `{"type":"job_progress","job_id":"job-2","progress":55,"message":"researching sources"}`

	var ev JobProgressEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Progress != 55 {
		t.Errorf("got progress %v, want 55", ev.Progress)
	}
}

func TestMarshalControlMessages(t *testing.T) {
	tests := []struct {
		name     string
		marshal  func() ([]byte, error)
		wantType string
	}{
		{"subscribe", func() ([]byte, error) { return MarshalSubscribe("job-1") }, TypeSubscribe},
		{"unsubscribe", func() ([]byte, error) { return MarshalUnsubscribe("job-1") }, TypeUnsubscribe},
		{"ping", func() ([]byte, error) { return MarshalPing(1712345678000) }, TypePing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.marshal()
			if err != nil {
				t.Fatal(err)
			}
			var hdr Header
			if err := json.Unmarshal(data, &hdr); err != nil {
				t.Fatal(err)
			}
			if hdr.Type != tt.wantType {
				t.Errorf("got type %q, want %q", hdr.Type, tt.wantType)
			}
		})
	}
}
