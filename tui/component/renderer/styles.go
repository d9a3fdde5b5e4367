package renderer

import (
	"github.com/charmbracelet/lipgloss"
)

// MessageStyles configures how each kind of transcript entry is drawn.
type MessageStyles struct {
	User      lipgloss.Style
	Assistant lipgloss.Style
	Notice    lipgloss.Style
	Source    lipgloss.Style
	Error     lipgloss.Style
}

// DefaultMessageStyles returns the default palette.
func DefaultMessageStyles() *MessageStyles {
	return &MessageStyles{
		User:      lipgloss.NewStyle().Foreground(lipgloss.Color("#7dcfff")).Bold(true),
		Assistant: lipgloss.NewStyle().Foreground(lipgloss.Color("#bb9af7")).Bold(true),
		Notice:    lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89")).Italic(true),
		Source:    lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89")).Faint(true),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e")),
	}
}
