package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/lehrwerk/ai-authoring-sync/internal/domain"
	"github.com/lehrwerk/ai-authoring-sync/internal/stream"
)

var (
	headerStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Underline(true)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244"))

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	completedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	dimmedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("237"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("255"))
)

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	header := fmt.Sprintf(" AuthorSync │ Stream: %s │ Jobs: %d │ Suggestions: %d ",
		streamLabel(m.stream), len(m.jobs), len(m.suggestions))
	b.WriteString(headerStyle.Width(m.width).Render(header))
	b.WriteString("\n")

	b.WriteString(m.renderTabs())
	b.WriteString("\n")

	switch m.activeTab {
	case 0:
		b.WriteString(sectionStyle.Width(m.width - 2).Render(m.renderJobs()))
	case 1:
		b.WriteString(sectionStyle.Width(m.width - 2).Render(m.renderSuggestions()))
	}
	b.WriteString("\n")

	if m.statusMsg != "" {
		b.WriteString(pendingStyle.Width(m.width).Render(" " + m.statusMsg + " "))
		b.WriteString("\n")
	}
	if m.flash != "" && time.Now().Before(m.flashExp) {
		style := completedStyle
		if strings.Contains(m.flash, "failed") {
			style = warningStyle
		}
		b.WriteString(style.Width(m.width).Render(" " + m.flash + " "))
		b.WriteString("\n")
	}

	hints := " [tab] switch  [j/k] move  [c] cancel  [a] approve  [x] reject  [r] refresh  [q] quit "
	b.WriteString(statusBarStyle.Width(m.width).Render(hints))

	return b.String()
}

func (m Model) renderTabs() string {
	names := []string{"Jobs", "Suggestions"}
	parts := make([]string, len(names))
	for i, name := range names {
		if i == m.activeTab {
			parts[i] = tabActiveStyle.Render(name)
		} else {
			parts[i] = tabInactiveStyle.Render(name)
		}
	}
	return " " + strings.Join(parts, "  ")
}

func (m Model) renderJobs() string {
	if len(m.jobs) == 0 {
		return dimmedStyle.Render("No jobs tracked. Create one with 'authorsync create'.")
	}

	var b strings.Builder
	end := m.scroll + visibleRows
	if end > len(m.jobs) {
		end = len(m.jobs)
	}

	for i := m.scroll; i < end; i++ {
		row := m.jobs[i]
		line := fmt.Sprintf("%-10s %-18s %-10s %s",
			shortID(row.Job.ID),
			row.Job.Kind,
			row.Job.Status,
			jobDetail(row),
		)
		line = statusStyle(row.Job.Status).Render(line)
		if i == m.selectedRow {
			line = selectedStyle.Render("▸ " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func jobDetail(row JobRow) string {
	switch row.Job.Status {
	case domain.StatusRunning:
		if row.Progress != nil {
			return fmt.Sprintf("%s %3.0f%% %s", progressBar(row.Progress.Percent, 20), row.Progress.Percent, row.Progress.Message)
		}
		return "running..."
	case domain.StatusCompleted:
		return fmt.Sprintf("%d suggestions · %s", row.Job.SuggestionCount, finishedAgo(row.Job))
	case domain.StatusFailed:
		return row.Job.ErrorMessage
	case domain.StatusCancelled:
		return finishedAgo(row.Job)
	}
	return "created " + humanize.Time(row.Job.CreatedAt)
}

func finishedAgo(job domain.Job) string {
	if job.CompletedAt == nil {
		return ""
	}
	return humanize.Time(*job.CompletedAt)
}

func (m Model) renderSuggestions() string {
	if len(m.suggestions) == 0 {
		return dimmedStyle.Render("No suggestions loaded yet.")
	}

	var b strings.Builder
	end := m.scroll + visibleRows
	if end > len(m.suggestions) {
		end = len(m.suggestions)
	}

	for i := m.scroll; i < end; i++ {
		s := m.suggestions[i]
		line := fmt.Sprintf("%-10s %-8s %4.0f%%  %-30s %s",
			shortID(s.ID), s.Status, s.ConfidenceScore*100, truncate(s.Title, 30), s.BlockType)
		switch s.Status {
		case domain.SuggestionApproved:
			line = completedStyle.Render(line)
		case domain.SuggestionRejected:
			line = dimmedStyle.Render(line)
		}
		if i == m.selectedRow {
			line = selectedStyle.Render("▸ " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func statusStyle(status domain.JobStatus) lipgloss.Style {
	switch status {
	case domain.StatusRunning:
		return runningStyle
	case domain.StatusCompleted:
		return completedStyle
	case domain.StatusFailed:
		return failedStyle
	case domain.StatusCancelled:
		return dimmedStyle
	}
	return pendingStyle
}

func streamLabel(s stream.Status) string {
	switch s {
	case stream.StatusConnected:
		return "● connected"
	case stream.StatusConnecting:
		return "◌ connecting"
	case stream.StatusOffline:
		return "✕ offline"
	}
	return "○ disconnected"
}

// progressBar renders a fixed-width bar for a 0-100 percent value
func progressBar(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * float64(width))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
