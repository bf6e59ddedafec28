package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lehrwerk/ai-authoring-sync/internal/domain"
)

func TestClient_CreateJob(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/ai/jobs" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"id":"job-1","configuration_id":"cfg-1","job_type":"content_creator","status":"pending","input_prompt":"p","created_at":"2026-08-01T10:00:00Z"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-token", zerolog.Nop())
	job, err := c.CreateJob(context.Background(), CreateJobRequest{
		ConfigurationID: "cfg-1",
		JobType:         domain.KindContentCreator,
		InputPrompt:     "p",
	})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if job.ID != "job-1" || job.Status != domain.StatusPending {
		t.Errorf("got job %+v", job)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want bearer credential", gotAuth)
	}
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"AI job not found"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "t", zerolog.Nop())
	_, err := c.GetJob(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error")
	}
	if KindOf(err) != KindServer {
		t.Errorf("kind = %s, want server", KindOf(err))
	}
}

func TestClient_ApproveConflict(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"409 conflict", http.StatusConflict, `{"detail":"already approved"}`},
		{"400 already processed", http.StatusBadRequest, `{"detail":"Suggestion already processed"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New(srv.URL, "t", zerolog.Nop())
			_, err := c.ApproveSuggestion(context.Background(), "s1")
			if !IsConflict(err) {
				t.Errorf("IsConflict(%v) = false, want true", err)
			}
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(srv.URL, "t", zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.ListJobs(ctx)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !IsTimeout(err) {
		t.Errorf("IsTimeout(%v) = false, want true", err)
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	// Port 1 is almost certainly closed.
	c := New("http://127.0.0.1:1", "t", zerolog.Nop())
	_, err := c.ListJobs(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if KindOf(err) != KindNetwork {
		t.Errorf("kind = %s, want network", KindOf(err))
	}
}

func TestClient_CredentialRotationDuringRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth != "Bearer old" && auth != "Bearer new" {
			t.Errorf("Authorization = %q, want one of the rotated credentials", auth)
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "old", zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, err := c.ListJobs(context.Background()); err != nil {
					t.Errorf("ListJobs: %v", err)
					return
				}
			}
		}()
	}
	// Rotate while the request goroutines are in flight.
	for i := 0; i < 20; i++ {
		c.SetCredential("new")
		c.SetCredential("old")
	}
	c.SetCredential("new")
	wg.Wait()
}

func TestClient_ListSuggestions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/ai/jobs/job-1/suggestions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`[{"id":"s1","ai_job_id":"job-1","title":"T","slug":"t","content":"c","block_type":"text","confidence_score":0.8,"status":"pending","created_at":"2026-08-01T10:00:00Z"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "t", zerolog.Nop())
	got, err := c.ListSuggestions(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("ListSuggestions: %v", err)
	}
	if len(got) != 1 || got[0].Status != domain.SuggestionPending {
		t.Errorf("got %+v", got)
	}
}
