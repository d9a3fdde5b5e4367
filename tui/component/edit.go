package component

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// EditorSubmitMsg is emitted when the user submits their input.
type EditorSubmitMsg struct {
	Value string
}

// EditModel wraps the question input line.
type EditModel struct {
	textarea textarea.Model
	width    int
}

// NewEditModel creates the input component.
func NewEditModel() EditModel {
	ta := textarea.New()
	ta.Placeholder = "Ask a question..."
	ta.Focus()

	ta.Prompt = "> "
	ta.CharLimit = 500

	ta.SetWidth(30)
	ta.SetHeight(1)

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.ShowLineNumbers = false

	// Enter submits, it never inserts a newline.
	ta.KeyMap.InsertNewline.SetEnabled(false)

	return EditModel{
		textarea: ta,
		width:    30,
	}
}

// Init starts the cursor blink.
func (m EditModel) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles input events.
func (m EditModel) Update(msg tea.Msg) (EditModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter {
			value := strings.TrimSpace(m.textarea.Value())
			if value == "" {
				return m, nil
			}
			m.textarea.Reset()
			return m, func() tea.Msg {
				return EditorSubmitMsg{Value: value}
			}
		}
	}

	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// View renders the input line.
func (m *EditModel) View() string {
	return m.textarea.View()
}

// SetWidth sets the component width.
func (m *EditModel) SetWidth(width int) {
	m.width = width
	m.textarea.SetWidth(width)
}

// Height returns the component height in lines.
func (m *EditModel) Height() int {
	return m.textarea.Height()
}
