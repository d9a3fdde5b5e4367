package component

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/docentai/docent/pubsub"
	"github.com/docentai/docent/tui/component/renderer"
)

// ListModel holds the transcript and the viewport it scrolls in. Rendering
// is delegated to the TranscriptRenderer.
type ListModel struct {
	viewport viewport.Model
	entries  []renderer.Entry
	width    int
	height   int
	ready    bool

	renderer *renderer.TranscriptRenderer
}

// NewListModel creates the transcript component.
func NewListModel() ListModel {
	vp := viewport.New(30, 30)
	r := renderer.NewTranscriptRenderer()
	vp.SetContent(r.RenderTranscript(nil))

	return ListModel{
		viewport: vp,
		renderer: r,
		width:    30,
		height:   5,
		ready:    true,
	}
}

// Init implements tea.Model.
func (m ListModel) Init() tea.Cmd {
	return nil
}

// Update folds answer events into the transcript.
func (m ListModel) Update(msg tea.Msg) (ListModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.viewport.ScrollUp(3)
		case tea.MouseButtonWheelDown:
			m.viewport.ScrollDown(3)
		}
	case pubsub.Event[AnswerUpdate]:
		m.applyEvent(msg)
		m.updateViewportContent()
		m.viewport.GotoBottom()
		return m, nil
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *ListModel) applyEvent(ev pubsub.Event[AnswerUpdate]) {
	switch ev.Type {
	case pubsub.QuestionEvent:
		m.entries = append(m.entries,
			renderer.Entry{Role: renderer.RoleUser, Text: ev.Payload.Question},
			renderer.Entry{Role: renderer.RoleAnswer},
		)
	case pubsub.SourcesEvent:
		if i := m.lastAnswer(); i >= 0 {
			m.entries[i].Sources = ev.Payload.Sources
		}
	case pubsub.DeltaEvent, pubsub.CompletedEvent:
		if i := m.lastAnswer(); i >= 0 && ev.Payload.Text != "" {
			m.entries[i].Text = ev.Payload.Text
		}
	case pubsub.FailedEvent:
		errText := "unknown failure"
		if ev.Payload.Err != nil {
			errText = ev.Payload.Err.Error()
		}
		// Drop the answer placeholder when nothing arrived for it.
		if i := len(m.entries) - 1; i >= 0 && m.entries[i].Role == renderer.RoleAnswer &&
			m.entries[i].Text == "" && len(m.entries[i].Sources) == 0 {
			m.entries = m.entries[:i]
		}
		m.entries = append(m.entries, renderer.Entry{Role: renderer.RoleError, Text: errText})
	case pubsub.NoticeEvent:
		m.entries = append(m.entries, renderer.Entry{Role: renderer.RoleNotice, Text: ev.Payload.Notice})
	}
}

func (m *ListModel) lastAnswer() int {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].Role == renderer.RoleAnswer {
			return i
		}
	}
	return -1
}

// View renders the transcript viewport.
func (m ListModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return m.viewport.View()
}

// SetSize resizes the viewport.
func (m *ListModel) SetSize(width, height int) {
	m.width = width
	m.height = height

	if height < 1 {
		height = 1
	}

	m.viewport.Width = width
	m.viewport.Height = height
	m.ready = true

	m.renderer.SetViewportWidth(width)

	if len(m.entries) > 0 {
		m.updateViewportContent()
	}
	m.viewport.GotoBottom()
}

func (m *ListModel) updateViewportContent() {
	m.viewport.SetContent(m.renderer.RenderTranscript(m.entries))
}
