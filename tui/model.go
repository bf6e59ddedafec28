package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lehrwerk/ai-authoring-sync/internal/domain"
	"github.com/lehrwerk/ai-authoring-sync/internal/stream"
)

// JobRow is a job with its latest progress sample, ready for display
type JobRow struct {
	Job      domain.Job
	Progress *domain.ProgressSample
}

// Actions is the TUI's handle on the rest of the application. Reads are
// served from the local store; writes go to the server and may fail.
type Actions interface {
	Jobs() []JobRow
	Suggestions() []domain.Suggestion
	StreamStatus() stream.Status
	CancelJob(id string) error
	Approve(s domain.Suggestion) (string, error)
	Reject(s domain.Suggestion, feedback string) error
}

// Model is the TUI application model
type Model struct {
	actions Actions

	// Data
	jobs        []JobRow
	suggestions []domain.Suggestion
	stream      stream.Status

	// UI state
	width       int
	height      int
	activeTab   int
	selectedRow int
	scroll      int
	statusMsg   string
	flash       string
	flashExp    time.Time
}

// NewModel creates a new TUI model
func NewModel(actions Actions) Model {
	m := Model{actions: actions}
	m.refresh()
	return m
}

func (m *Model) refresh() {
	m.jobs = m.actions.Jobs()
	m.suggestions = m.actions.Suggestions()
	m.stream = m.actions.StreamStatus()
	if max := m.rowCount(); m.selectedRow >= max && max > 0 {
		m.selectedRow = max - 1
	}
}

func (m Model) rowCount() int {
	if m.activeTab == 1 {
		return len(m.suggestions)
	}
	return len(m.jobs)
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// TickMsg triggers a refresh
type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// ActionResultMsg reports the outcome of a cancel/approve/reject request
type ActionResultMsg struct {
	Verb   string
	Detail string
	Err    error
}
