package component

import "github.com/docentai/docent/rag"

// AnswerUpdate is the event payload the chat session publishes while it
// answers a question. Delta events carry the full accumulated text so a
// dropped event never corrupts the transcript.
type AnswerUpdate struct {
	Question string
	Text     string
	Sources  []rag.SearchResult
	Notice   string
	Err      error
}
