package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lehrwerk/ai-authoring-sync/internal/domain"
	"github.com/lehrwerk/ai-authoring-sync/internal/jobstore"
	"github.com/lehrwerk/ai-authoring-sync/internal/lifecycle"
	"github.com/lehrwerk/ai-authoring-sync/internal/stream"
)

type fixedStream struct{ status stream.Status }

func (f fixedStream) Status() stream.Status { return f.status }

func seededStore(t *testing.T) *jobstore.Store {
	t.Helper()
	s := jobstore.New(zerolog.Nop())
	s.Put(domain.Job{ID: "j1", Kind: domain.KindContentCreator, Status: domain.StatusCompleted, SuggestionCount: 2, CreatedAt: time.Now()})
	s.Put(domain.Job{ID: "j2", Kind: domain.KindContentEditor, Status: domain.StatusRunning, CreatedAt: time.Now().Add(time.Second)})
	s.Put(domain.Job{ID: "j3", Kind: domain.KindCourseDesigner, Status: domain.StatusPending, CreatedAt: time.Now().Add(2 * time.Second)})
	return s
}

func TestListJobsHandler(t *testing.T) {
	store := seededStore(t)
	store.SetProgress(domain.ProgressSample{JobID: "j2", Percent: 55, Message: "editing", ObservedAt: time.Now()})

	server := NewServer(store, nil, nil, ":0", zerolog.Nop())
	handler := server.listJobsHandler()

	req := httptest.NewRequest("GET", "/api/jobs", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200", w.Code)
	}

	var jobs []JobResponse
	json.NewDecoder(w.Body).Decode(&jobs)

	if len(jobs) != 3 {
		t.Fatalf("Job count = %d, want 3", len(jobs))
	}
	// Newest first.
	if jobs[0].ID != "j3" {
		t.Errorf("first job = %s, want j3", jobs[0].ID)
	}

	var running *JobResponse
	for i := range jobs {
		if jobs[i].ID == "j2" {
			running = &jobs[i]
		}
	}
	if running == nil || running.Progress == nil || *running.Progress != 55 {
		t.Errorf("running job progress = %+v, want 55", running)
	}
}

func TestGetJobHandler(t *testing.T) {
	server := NewServer(seededStore(t), nil, nil, ":0", zerolog.Nop())
	handler := server.getJobHandler()

	req := httptest.NewRequest("GET", "/api/jobs/j1", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}
	var job JobResponse
	json.NewDecoder(w.Body).Decode(&job)
	if job.ID != "j1" || job.SuggestionCount != 2 {
		t.Errorf("job = %+v", job)
	}

	req = httptest.NewRequest("GET", "/api/jobs/missing", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing job status = %d, want 404", w.Code)
	}
}

func TestStatusHandler(t *testing.T) {
	server := NewServer(seededStore(t), nil, fixedStream{stream.StatusConnected}, ":0", zerolog.Nop())
	handler := server.statusHandler()

	req := httptest.NewRequest("GET", "/api/status", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var status StatusResponse
	json.NewDecoder(w.Body).Decode(&status)

	if status.Total != 3 {
		t.Errorf("Total = %d, want 3", status.Total)
	}
	if status.Completed != 1 || status.Running != 1 || status.Pending != 1 {
		t.Errorf("counts = %+v", status)
	}
	if status.Stream != "connected" {
		t.Errorf("Stream = %q, want connected", status.Stream)
	}
}

func TestSSEHub_BroadcastAndDropSlowClient(t *testing.T) {
	hub := newSSEHub()

	fast := hub.subscribe()
	slow := hub.subscribe()

	// Fill the slow client's buffer so the next broadcast drops it.
	for i := 0; i < cap(slow); i++ {
		hub.broadcast(sseEvent{Type: "job_update"})
		<-fast
	}
	hub.broadcast(sseEvent{Type: "job_update"})

	if ev := <-fast; ev.Type != "job_update" {
		t.Errorf("fast client got %q, want job_update", ev.Type)
	}
	drained := 0
	for range slow {
		drained++
	}
	if drained != cap(slow) {
		t.Errorf("slow client drained %d events before drop, want %d", drained, cap(slow))
	}

	// Unsubscribing twice must not panic on the closed channel.
	hub.unsubscribe(fast)
	hub.unsubscribe(fast)
}

func TestToSSE(t *testing.T) {
	job := domain.Job{ID: "j1", Status: domain.StatusRunning, CreatedAt: time.Now()}

	ev := toSSE(lifecycle.Event{Kind: lifecycle.EventStatus, Job: job})
	if ev.Type != "job_update" {
		t.Errorf("status event type = %q, want job_update", ev.Type)
	}
	if payload, ok := ev.Payload.(JobResponse); !ok || payload.ID != "j1" {
		t.Errorf("status payload = %#v, want JobResponse for j1", ev.Payload)
	}

	sample := domain.ProgressSample{JobID: "j1", Percent: 40, Message: "drafting"}
	ev = toSSE(lifecycle.Event{Kind: lifecycle.EventProgress, Job: job, Progress: &sample})
	if ev.Type != "job_progress" {
		t.Errorf("progress event type = %q, want job_progress", ev.Type)
	}
	if payload, ok := ev.Payload.(ProgressResponse); !ok || payload.Percent != 40 {
		t.Errorf("progress payload = %#v, want ProgressResponse at 40", ev.Payload)
	}

	ev = toSSE(lifecycle.Event{Kind: lifecycle.EventSuggestions, Job: job,
		Suggestions: []domain.Suggestion{{ID: "s1"}, {ID: "s2"}}})
	if ev.Type != "suggestions" {
		t.Errorf("suggestions event type = %q, want suggestions", ev.Type)
	}
	if payload, ok := ev.Payload.(SuggestionsResponse); !ok || payload.Count != 2 {
		t.Errorf("suggestions payload = %#v, want count 2", ev.Payload)
	}
}

func TestHandlers_MethodNotAllowed(t *testing.T) {
	server := NewServer(seededStore(t), nil, nil, ":0", zerolog.Nop())

	req := httptest.NewRequest("POST", "/api/jobs", nil)
	w := httptest.NewRecorder()
	server.listJobsHandler().ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status = %d, want 405", w.Code)
	}
}
