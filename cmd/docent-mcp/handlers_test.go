package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docentai/docent/rag"
	"github.com/docentai/docent/rag/pipeline"
)

type fakeAssistant struct {
	answer  *pipeline.Answer
	results []rag.SearchResult
	stats   *pipeline.Stats
	err     error

	lastK int
}

func (f *fakeAssistant) Query(_ context.Context, question string, k int) (*pipeline.Answer, error) {
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

func (f *fakeAssistant) Search(_ context.Context, _ string, k int) ([]rag.SearchResult, error) {
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeAssistant) Stats(_ context.Context) (*pipeline.Stats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

func toolRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("got %d content blocks, want 1", len(res.Content))
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return text.Text
}

func TestAskDocuments(t *testing.T) {
	fake := &fakeAssistant{answer: &pipeline.Answer{
		Question: "what is overlap?",
		Text:     "Overlap preserves context.",
		Sources: []rag.SearchResult{
			{Document: rag.Document{Source: "chunking.md", Title: "Chunking"}, Score: 0.88},
		},
	}}

	res, err := handleAskDocuments(fake)(context.Background(), toolRequest(map[string]any{
		"question": "what is overlap?",
		"top_k":    3,
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	out := resultText(t, res)
	for _, want := range []string{"Overlap preserves context.", "chunking.md", "0.88"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if fake.lastK != 3 {
		t.Errorf("top_k = %d, want 3", fake.lastK)
	}
}

func TestAskDocumentsRequiresQuestion(t *testing.T) {
	fake := &fakeAssistant{}

	res, err := handleAskDocuments(fake)(context.Background(), toolRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if out := resultText(t, res); !strings.Contains(out, "question parameter is required") {
		t.Errorf("output = %q", out)
	}
}

func TestAskDocumentsSurfacesErrors(t *testing.T) {
	fake := &fakeAssistant{err: errors.New("collection \"documents\" has no documents")}

	res, err := handleAskDocuments(fake)(context.Background(), toolRequest(map[string]any{
		"question": "anything",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if out := resultText(t, res); !strings.Contains(out, "no documents") {
		t.Errorf("output = %q", out)
	}
}

func TestSearchDocuments(t *testing.T) {
	fake := &fakeAssistant{results: []rag.SearchResult{
		{Document: rag.Document{Source: "a.txt", Content: "first chunk"}, Score: 0.9},
		{Document: rag.Document{Source: "b.txt", Content: "second chunk"}, Score: 0.7},
	}}

	res, err := handleSearchDocuments(fake)(context.Background(), toolRequest(map[string]any{
		"query": "chunk",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	out := resultText(t, res)
	for _, want := range []string{"a.txt", "first chunk", "b.txt", "second chunk", "2 results"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if fake.lastK != 0 {
		t.Errorf("default top_k should pass 0 through, got %d", fake.lastK)
	}
}

func TestSearchDocumentsEmpty(t *testing.T) {
	fake := &fakeAssistant{results: nil}

	res, err := handleSearchDocuments(fake)(context.Background(), toolRequest(map[string]any{
		"query": "nothing",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if out := resultText(t, res); !strings.Contains(out, "No results found.") {
		t.Errorf("output = %q", out)
	}
}

func TestGetStats(t *testing.T) {
	fake := &fakeAssistant{stats: &pipeline.Stats{
		Documents:      42,
		Collection:     "documents",
		ChatModel:      "llama2",
		EmbeddingModel: "nomic-embed-text",
	}}

	res, err := handleGetStats(fake)(context.Background(), toolRequest(nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	out := resultText(t, res)
	for _, want := range []string{"42", "documents", "llama2", "nomic-embed-text"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPreviewTruncatesRunes(t *testing.T) {
	long := strings.Repeat("号", previewRunes+10)
	got := preview(long, previewRunes)
	if len([]rune(got)) != previewRunes+3 {
		t.Errorf("preview length = %d runes", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("preview should end with ellipsis: %q", got[len(got)-12:])
	}
}
