// Package renderer draws the chat transcript for the terminal.
package renderer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/docentai/docent/rag"
)

// Role tells the renderer which voice a transcript entry belongs to.
type Role string

const (
	RoleUser   Role = "user"
	RoleAnswer Role = "answer"
	RoleNotice Role = "notice"
	RoleError  Role = "error"
)

const welcomeText = "Ask a question about your documents.\nCommands: /stats, /help, /quit."

// Entry is one transcript item. An answer entry carries the chunks it was
// grounded in once retrieval finishes.
type Entry struct {
	Role    Role
	Text    string
	Sources []rag.SearchResult
}

// TranscriptRenderer renders transcript entries, markdown answers included.
// Finished entries are cached; only the final entry is re-rendered while it
// streams.
type TranscriptRenderer struct {
	markdown *glamour.TermRenderer
	styles   *MessageStyles
	cache    []string
	width    int
}

// NewTranscriptRenderer creates a renderer with the default styles.
func NewTranscriptRenderer() *TranscriptRenderer {
	md, _ := glamour.NewTermRenderer(
		glamour.WithStylePath("dracula"),
		glamour.WithWordWrap(0),
	)
	return &TranscriptRenderer{
		markdown: md,
		styles:   DefaultMessageStyles(),
	}
}

// SetViewportWidth sets the wrap width for rendered output.
func (r *TranscriptRenderer) SetViewportWidth(width int) {
	r.width = width
}

// RenderTranscript renders the whole conversation.
func (r *TranscriptRenderer) RenderTranscript(entries []Entry) string {
	if len(entries) == 0 {
		return r.styles.Notice.Render(welcomeText)
	}

	// Only entries before the last are cacheable; a transcript that shrank
	// to or below the cache length is a new conversation.
	if len(entries) <= len(r.cache) {
		r.cache = r.cache[:0]
	}
	for i := len(r.cache); i < len(entries)-1; i++ {
		r.cache = append(r.cache, r.renderEntry(entries[i]))
	}

	var sb strings.Builder
	for _, cached := range r.cache {
		if cached != "" {
			sb.WriteString(cached)
			sb.WriteString("\n\n")
		}
	}
	// The last entry may still be streaming, render it fresh every time.
	if last := r.renderEntry(entries[len(entries)-1]); last != "" {
		sb.WriteString(last)
	}

	content := sb.String()
	if r.width > 0 {
		return lipgloss.NewStyle().Width(r.width).Render(content)
	}
	return content
}

func (r *TranscriptRenderer) renderEntry(e Entry) string {
	switch e.Role {
	case RoleUser:
		if e.Text == "" {
			return ""
		}
		return r.styles.User.Render("You:") + " " + e.Text
	case RoleAnswer:
		header := r.styles.Assistant.Render("Docent:")
		parts := []string{header}
		if e.Text != "" {
			parts = append(parts, r.renderMarkdown(e.Text))
		}
		if len(e.Sources) > 0 {
			parts = append(parts, r.renderSources(e.Sources))
		}
		return strings.Join(parts, "\n")
	case RoleNotice:
		if e.Text == "" {
			return ""
		}
		return r.styles.Notice.Render(e.Text)
	case RoleError:
		if e.Text == "" {
			return ""
		}
		return r.styles.Error.Render("Error: " + e.Text)
	}
	return ""
}

func (r *TranscriptRenderer) renderMarkdown(content string) string {
	if r.markdown == nil {
		return content
	}
	rendered, err := r.markdown.Render(content)
	if err != nil {
		return content
	}
	// glamour pads output with blank lines.
	return strings.TrimSpace(rendered)
}

func (r *TranscriptRenderer) renderSources(sources []rag.SearchResult) string {
	lines := make([]string, 0, len(sources)+1)
	lines = append(lines, "Sources:")
	for i, s := range sources {
		name := s.Document.Source
		if name == "" {
			name = s.Document.Title
		}
		lines = append(lines, fmt.Sprintf("  %d. %s (%.2f)", i+1, truncate(name, 60), s.Score))
	}
	return r.styles.Source.Render(strings.Join(lines, "\n"))
}

// truncate shortens s to maxLen runes, appending an ellipsis.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
