package main

import (
	"fmt"
	"strings"

	"github.com/docentai/docent/rag"
	"github.com/docentai/docent/rag/pipeline"
)

const previewRunes = 300

// formatAnswer renders an answer and its sources as markdown.
func formatAnswer(answer *pipeline.Answer) string {
	var sb strings.Builder
	sb.WriteString("## Answer\n\n")
	sb.WriteString(strings.TrimSpace(answer.Text))
	sb.WriteString("\n\n## Sources\n\n")
	if len(answer.Sources) == 0 {
		sb.WriteString("No sources retrieved.\n")
		return sb.String()
	}
	for i, s := range answer.Sources {
		sb.WriteString(fmt.Sprintf("%d. %s (similarity %.2f)\n", i+1, sourceLabel(s.Document), s.Score))
	}
	return sb.String()
}

// formatSearchResults renders ranked chunks as markdown.
func formatSearchResults(query string, results []rag.SearchResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Search Results for %q (%d results)\n\n", query, len(results)))

	if len(results) == 0 {
		sb.WriteString("No results found.\n")
		return sb.String()
	}

	for i, r := range results {
		sb.WriteString(fmt.Sprintf("### %d. %s\n", i+1, sourceLabel(r.Document)))
		sb.WriteString(fmt.Sprintf("**Similarity:** %.2f\n\n", r.Score))
		sb.WriteString(preview(r.Document.Content, previewRunes))
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}

// formatStats renders index statistics as markdown.
func formatStats(stats *pipeline.Stats) string {
	var sb strings.Builder
	sb.WriteString("## Index Statistics\n\n")
	sb.WriteString(fmt.Sprintf("- **Collection:** %s\n", stats.Collection))
	sb.WriteString(fmt.Sprintf("- **Indexed chunks:** %d\n", stats.Documents))
	sb.WriteString(fmt.Sprintf("- **Chat model:** %s\n", stats.ChatModel))
	sb.WriteString(fmt.Sprintf("- **Embedding model:** %s\n", stats.EmbeddingModel))
	return sb.String()
}

func sourceLabel(doc rag.Document) string {
	label := doc.Source
	if label == "" {
		label = doc.Title
	}
	if label == "" {
		label = doc.ID
	}
	if doc.Title != "" && doc.Title != label {
		return fmt.Sprintf("%s (%s)", label, doc.Title)
	}
	return label
}

// preview returns at most n runes of s.
func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
