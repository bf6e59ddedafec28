package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lehrwerk/ai-authoring-sync/internal/domain"
)

// visibleRows is how many rows fit a list before scrolling kicks in
const visibleRows = 12

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.refresh()
			return m, nil
		case "j", "down":
			if m.selectedRow < m.rowCount()-1 {
				m.selectedRow++
			}
			if m.selectedRow >= m.scroll+visibleRows {
				m.scroll = m.selectedRow - visibleRows + 1
			}
		case "k", "up":
			if m.selectedRow > 0 {
				m.selectedRow--
			}
			if m.selectedRow < m.scroll {
				m.scroll = m.selectedRow
			}
		case "tab":
			m.activeTab = (m.activeTab + 1) % 2
			m.selectedRow = 0
			m.scroll = 0
		case "c":
			// Cancel the selected job (jobs tab only)
			if m.activeTab == 0 {
				if job, ok := m.selectedJob(); ok && !job.Status.Terminal() {
					m.statusMsg = "cancelling " + job.ID
					return m, cancelCmd(m.actions, job.ID)
				}
			}
		case "a":
			// Approve the selected suggestion
			if m.activeTab == 1 {
				if s, ok := m.selectedSuggestion(); ok {
					m.statusMsg = "approving " + s.Title
					return m, approveCmd(m.actions, s)
				}
			}
		case "x":
			// Reject the selected suggestion
			if m.activeTab == 1 {
				if s, ok := m.selectedSuggestion(); ok {
					m.statusMsg = "rejecting " + s.Title
					return m, rejectCmd(m.actions, s)
				}
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		m.refresh()
		return m, tickCmd()

	case ActionResultMsg:
		m.statusMsg = ""
		if msg.Err != nil {
			m.flash = fmt.Sprintf("%s failed: %v", msg.Verb, msg.Err)
		} else if msg.Detail != "" {
			m.flash = fmt.Sprintf("%s: %s", msg.Verb, msg.Detail)
		} else {
			m.flash = msg.Verb + " ok"
		}
		m.flashExp = time.Now().Add(5 * time.Second)
		m.refresh()
		return m, nil
	}

	return m, nil
}

func (m Model) selectedJob() (domain.Job, bool) {
	if m.selectedRow < 0 || m.selectedRow >= len(m.jobs) {
		return domain.Job{}, false
	}
	return m.jobs[m.selectedRow].Job, true
}

func (m Model) selectedSuggestion() (domain.Suggestion, bool) {
	if m.selectedRow < 0 || m.selectedRow >= len(m.suggestions) {
		return domain.Suggestion{}, false
	}
	return m.suggestions[m.selectedRow], true
}

func cancelCmd(actions Actions, jobID string) tea.Cmd {
	return func() tea.Msg {
		err := actions.CancelJob(jobID)
		return ActionResultMsg{Verb: "cancel", Detail: jobID, Err: err}
	}
}

func approveCmd(actions Actions, s domain.Suggestion) tea.Cmd {
	return func() tea.Msg {
		ref, err := actions.Approve(s)
		return ActionResultMsg{Verb: "approve", Detail: ref, Err: err}
	}
}

func rejectCmd(actions Actions, s domain.Suggestion) tea.Cmd {
	return func() tea.Msg {
		err := actions.Reject(s, "")
		return ActionResultMsg{Verb: "reject", Detail: s.Title, Err: err}
	}
}
