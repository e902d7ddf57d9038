// Package tui is an interactive reviewer for generated ideas: approve or
// reject each idea from a run and persist the decisions.
package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ideaforge/internal/core"
)

// ReviewStore persists review decisions.
type ReviewStore interface {
	SaveReview(review core.IdeaReview) error
}

type model struct {
	runID       string
	ideas       []core.ValidationResult
	decisions   map[int]string // index -> "approved" / "rejected"
	selectedIdx int
	width       int
	height      int
	quitting    bool
	saveErr     error
	store       ReviewStore
}

func initialModel(runID string, ideas []core.ValidationResult, store ReviewStore) model {
	return model{
		runID:     runID,
		ideas:     ideas,
		decisions: make(map[int]string),
		store:     store,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.selectedIdx > 0 {
				m.selectedIdx--
			}
		case "down", "j":
			if m.selectedIdx < len(m.ideas)-1 {
				m.selectedIdx++
			}
		case "a":
			m.decide("approved")
		case "r":
			m.decide("rejected")
		}
	}

	return m, nil
}

func (m *model) decide(decision string) {
	if len(m.ideas) == 0 {
		return
	}
	m.decisions[m.selectedIdx] = decision
	if m.store != nil {
		err := m.store.SaveReview(core.IdeaReview{
			RunID:      m.runID,
			IdeaIndex:  m.selectedIdx,
			Decision:   decision,
			ReviewedAt: time.Now().UTC(),
		})
		if err != nil {
			m.saveErr = err
		}
	}
	if m.selectedIdx < len(m.ideas)-1 {
		m.selectedIdx++
	}
}

var (
	docStyle      = lipgloss.NewStyle().Margin(1, 2)
	titleStyle    = lipgloss.NewStyle().Bold(true)
	approvedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	rejectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func (m model) View() string {
	if m.quitting {
		return fmt.Sprintf("Reviewed %d of %d ideas.\n", len(m.decisions), len(m.ideas))
	}

	paneWidth := m.width/2 - 5
	if paneWidth < 30 {
		paneWidth = 30
	}
	listStyle := lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true).Padding(1).Width(paneWidth)
	detailStyle := lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true).Padding(1).Width(paneWidth)

	listContent := titleStyle.Render("Ideas") + "\n\n"
	if len(m.ideas) == 0 {
		listContent += "No ideas to review."
	} else {
		for i, r := range m.ideas {
			cursor := " "
			if i == m.selectedIdx {
				cursor = ">"
			}
			mark := "  "
			switch m.decisions[i] {
			case "approved":
				mark = approvedStyle.Render("✓ ")
			case "rejected":
				mark = rejectedStyle.Render("✗ ")
			}
			listContent += fmt.Sprintf("%s %s%s\n", cursor, mark, r.Idea.Title)
		}
	}

	detailContent := titleStyle.Render("Detail") + "\n\n"
	if m.selectedIdx < len(m.ideas) {
		r := m.ideas[m.selectedIdx]
		detailContent += fmt.Sprintf("%s\n\n", r.Idea.Title)
		if r.Idea.WhyThisCompany != "" {
			detailContent += fmt.Sprintf("Why this company: %s\n\n", r.Idea.WhyThisCompany)
		}
		if r.Idea.WhyNow != "" {
			detailContent += fmt.Sprintf("Why now: %s\n\n", r.Idea.WhyNow)
		}
		if r.Idea.AIConcept != "" {
			detailContent += fmt.Sprintf("Trend concept: %s\n", r.Idea.AIConcept)
		}
		detailContent += fmt.Sprintf("Composite score: %.1f\n", r.Scores.OverallScore)
		if !r.IsValid {
			detailContent += dimStyle.Render(fmt.Sprintf("\nBelow threshold: %s\n", r.RejectionReason))
		}
	}

	leftPane := listStyle.Render(listContent)
	rightPane := detailStyle.Render(detailContent)
	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	help := "\n\n[a] Approve | [r] Reject | [↑/k] Up | [↓/j] Down | [q] Quit"
	if m.saveErr != nil {
		help += "\n" + rejectedStyle.Render("Save error: "+m.saveErr.Error())
	}

	return docStyle.Render(mainContent + help)
}

// StartReview runs the review TUI for a run's ideas, persisting decisions
// through the store as they are made.
func StartReview(runID string, ideas []core.ValidationResult, store ReviewStore) error {
	p := tea.NewProgram(initialModel(runID, ideas, store), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run review TUI: %w", err)
	}
	return nil
}
