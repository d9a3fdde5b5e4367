// Package chat is the interactive question answering TUI.
package chat

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/docentai/docent/pubsub"
	"github.com/docentai/docent/tui/component"
)

const helpText = `Commands:
  /stats        show index statistics
  /help, /h     show this help
  /quit, /q     exit`

// Model composes the transcript, status line and input line.
type Model struct {
	list   component.ListModel
	edit   component.EditModel
	status component.StatusModel

	session *Session
	sub     <-chan pubsub.Event[component.AnswerUpdate]
	ctx     context.Context

	width  int
	height int
}

// InitialModel creates the chat UI around a session.
func InitialModel(session *Session) Model {
	ctx := context.Background()

	return Model{
		list:    component.NewListModel(),
		edit:    component.NewEditModel(),
		status:  component.NewStatusModel(),
		session: session,
		sub:     session.Broker().Subscribe(ctx),
		ctx:     ctx,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.list.Init(),
		m.edit.Init(),
		m.status.Init(),
		m.waitForEvent(),
		m.checkIndex(),
	)
}

// waitForEvent forwards the next session event into the update loop.
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.sub
		if !ok {
			return nil
		}
		return event
	}
}

// checkIndex warns once at startup when nothing is indexed yet.
func (m Model) checkIndex() tea.Cmd {
	return func() tea.Msg {
		m.session.WarnIfEmpty(m.ctx)
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		statusHeight := lipgloss.Height(m.status.View())
		editHeight := m.edit.Height()
		listHeight := m.height - statusHeight - editHeight

		m.list.SetSize(m.width, listHeight)
		m.edit.SetWidth(m.width)
		m.status.SetWidth(m.width)

	case component.EditorSubmitMsg:
		if cmd := m.handleInput(msg.Value); cmd != nil {
			return m, cmd
		}

	case pubsub.Event[component.AnswerUpdate]:
		// Keep listening; list and status consume the event below.
		cmds = append(cmds, m.waitForEvent())

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd

	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)

	m.edit, cmd = m.edit.Update(msg)
	cmds = append(cmds, cmd)

	m.status, cmd = m.status.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleInput routes slash commands; everything else is a question.
func (m Model) handleInput(value string) tea.Cmd {
	switch strings.ToLower(value) {
	case "/quit", "/exit", "/q":
		return tea.Quit
	case "/help", "/h":
		return m.notice(helpText)
	case "/stats":
		return func() tea.Msg {
			m.session.AnnounceStats(m.ctx)
			return nil
		}
	}
	if strings.HasPrefix(value, "/") {
		return m.notice("Unknown command. Type /help for the command list.")
	}
	return func() tea.Msg {
		m.session.Ask(m.ctx, value)
		return nil
	}
}

// notice publishes an informational message through the session stream.
func (m Model) notice(text string) tea.Cmd {
	return func() tea.Msg {
		m.session.Notify(text)
		return nil
	}
}

func (m Model) View() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.list.View(),
		m.status.View(),
		m.edit.View(),
	)
}
