package component

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/docentai/docent/pubsub"
)

// StatusModel shows a spinner and a line of state text while a question is
// being answered.
type StatusModel struct {
	spinner spinner.Model
	running bool
	text    string
	width   int
}

// NewStatusModel creates the status component.
func NewStatusModel() StatusModel {
	s := spinner.New()
	s.Spinner = spinner.Jump
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return StatusModel{
		spinner: s,
		running: false,
		text:    "Ready",
	}
}

// Init implements tea.Model. The spinner starts on the first question.
func (m StatusModel) Init() tea.Cmd {
	return nil
}

// Update reacts to answer lifecycle events and spinner ticks.
func (m StatusModel) Update(msg tea.Msg) (StatusModel, tea.Cmd) {
	switch msg := msg.(type) {
	case pubsub.Event[AnswerUpdate]:
		switch msg.Type {
		case pubsub.QuestionEvent:
			if !m.running {
				m.running = true
				m.text = "Thinking..."
				return m, m.spinner.Tick
			}
		case pubsub.CompletedEvent, pubsub.FailedEvent:
			if m.running {
				m.running = false
				m.text = "Ready"
				return m, nil
			}
		}
	}

	if m.running {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the status line.
func (m StatusModel) View() string {
	style := lipgloss.NewStyle().Padding(1, 0)
	content := m.text
	if m.running {
		content = fmt.Sprintf("%s %s", m.spinner.View(), m.text)
	}
	return style.Render(content)
}

// SetWidth sets the component width.
func (m *StatusModel) SetWidth(width int) {
	m.width = width
}
