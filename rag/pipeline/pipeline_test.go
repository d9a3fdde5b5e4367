package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	einoEmbedding "github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/docentai/docent/rag"
	"github.com/docentai/docent/rag/config"
	"github.com/docentai/docent/rag/embedding"
	"github.com/docentai/docent/rag/generator"
	"github.com/docentai/docent/rag/vector"
)

// keywordEmbedder maps texts onto a 3-dim space spanned by two keywords, so
// retrieval ranking in tests is predictable.
type keywordEmbedder struct{}

func (keywordEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...einoEmbedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		lower := strings.ToLower(t)
		out[i] = []float64{
			float64(strings.Count(lower, "python")),
			float64(strings.Count(lower, "kernel")),
			1,
		}
	}
	return out, nil
}

type fakeChatModel struct {
	response string
	chunks   []string
	prompts  []string
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.prompts = append(f.prompts, input[len(input)-1].Content)
	return schema.AssistantMessage(f.response, nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.prompts = append(f.prompts, input[len(input)-1].Content)
	msgs := make([]*schema.Message, 0, len(f.chunks))
	for _, c := range f.chunks {
		msgs = append(msgs, schema.AssistantMessage(c, nil))
	}
	return schema.StreamReaderFromArray(msgs), nil
}

func newTestPipeline(t *testing.T) (*Pipeline, *fakeChatModel) {
	t.Helper()

	cfg := config.Default()
	cfg.IndexPath = t.TempDir()
	cfg.Collection = "test"

	store, err := vector.NewLocalStore(vector.LocalConfig{Path: cfg.IndexPath, Collection: cfg.Collection})
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	chat := &fakeChatModel{response: "Python is a programming language."}
	p := New(cfg, embedding.NewService(keywordEmbedder{}, 0), store, generator.New(chat, ""))
	return p, chat
}

func TestAddDocumentsAndQuery(t *testing.T) {
	p, chat := newTestPipeline(t)
	ctx := context.Background()

	ids, err := p.AddDocuments(ctx, []string{
		"Python is a dynamically typed language.",
		"The kernel schedules processes.",
	}, nil)
	if err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d chunk ids, want 2", len(ids))
	}
	if ids[0] == ids[1] {
		t.Errorf("chunk ids should differ, both %q", ids[0])
	}

	answer, err := p.Query(ctx, "Tell me about Python.", 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if answer.Text != "Python is a programming language." {
		t.Errorf("answer = %q", answer.Text)
	}
	if answer.Question != "Tell me about Python." {
		t.Errorf("question = %q", answer.Question)
	}
	if len(answer.Sources) != 1 {
		t.Fatalf("got %d sources, want 1", len(answer.Sources))
	}
	if got := answer.Sources[0].Document.Content; !strings.Contains(got, "Python") {
		t.Errorf("retrieved wrong chunk: %q", got)
	}

	if len(chat.prompts) != 1 || !strings.Contains(chat.prompts[0], "dynamically typed") {
		t.Errorf("prompt should embed the retrieved context, got %v", chat.prompts)
	}
}

func TestQueryEmptyIndex(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	if _, err := p.Query(ctx, "anything?", 0); !errors.Is(err, rag.ErrIndexEmpty) {
		t.Errorf("Query on empty index: %v, want ErrIndexEmpty", err)
	}
	if _, _, err := p.QueryStream(ctx, "anything?", 0); !errors.Is(err, rag.ErrIndexEmpty) {
		t.Errorf("QueryStream on empty index: %v, want ErrIndexEmpty", err)
	}
}

func TestQueryBlankQuestion(t *testing.T) {
	p, _ := newTestPipeline(t)

	_, err := p.Query(context.Background(), "   ", 0)
	if !errors.Is(err, rag.ErrMalformedInput) {
		t.Errorf("blank question: %v, want ErrMalformedInput", err)
	}
}

func TestQueryDefaultsToConfiguredTopK(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	docs := []string{
		"Python one.", "Python two.", "Python three.",
		"Python four.", "Python five.", "Python six.",
	}
	if _, err := p.AddDocuments(ctx, docs, nil); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	answer, err := p.Query(ctx, "Python?", 0)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(answer.Sources) != p.cfg.TopK {
		t.Errorf("got %d sources, want configured top-k %d", len(answer.Sources), p.cfg.TopK)
	}
}

func TestQueryStream(t *testing.T) {
	p, chat := newTestPipeline(t)
	chat.chunks = []string{"Py", "thon ", "wins."}
	ctx := context.Background()

	if _, err := p.AddDocuments(ctx, []string{"Python facts."}, nil); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	stream, sources, err := p.QueryStream(ctx, "Python?", 1)
	if err != nil {
		t.Fatalf("QueryStream: %v", err)
	}
	defer stream.Close()

	if len(sources) != 1 {
		t.Fatalf("got %d sources before streaming, want 1", len(sources))
	}

	var full strings.Builder
	for {
		msg, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		full.WriteString(msg.Content)
	}
	if full.String() != "Python wins." {
		t.Errorf("streamed = %q", full.String())
	}
}

func TestAddFile(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("Python notes.\n\nUse virtualenvs."), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := p.AddFile(ctx, path)
	if err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if n != 1 {
		t.Errorf("chunks stored = %d, want 1", n)
	}

	answer, err := p.Query(ctx, "Python?", 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	doc := answer.Sources[0].Document
	if doc.Source != path {
		t.Errorf("source = %q, want %q", doc.Source, path)
	}
	if doc.FileType != "txt" {
		t.Errorf("file type = %q", doc.FileType)
	}
	if doc.Title == "" {
		t.Error("title should be set from the file content")
	}
}

func TestAddFileUnsupported(t *testing.T) {
	p, _ := newTestPipeline(t)

	_, err := p.AddFile(context.Background(), "diagram.xyz")
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("AddFile .xyz: %v, want unsupported file type error", err)
	}
}

func TestAddDocumentsMetadataMismatch(t *testing.T) {
	p, _ := newTestPipeline(t)

	_, err := p.AddDocuments(context.Background(), []string{"a", "b"}, []map[string]string{{"source": "x"}})
	if err == nil {
		t.Error("mismatched metadata length should be rejected")
	}
}

func TestReingestSameFileDoesNotDuplicate(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(path, []byte("Python content."), 0o644); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if _, err := p.AddFile(ctx, path); err != nil {
			t.Fatalf("AddFile pass %d: %v", i+1, err)
		}
	}

	stats, err := p.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Documents != 1 {
		t.Errorf("re-ingesting the same file should upsert, count = %d", stats.Documents)
	}
}

func TestResetThenStatsReportsZero(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	if _, err := p.AddDocuments(ctx, []string{"Python.", "Kernels."}, nil); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	if err := p.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	stats, err := p.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Documents != 0 {
		t.Errorf("documents after reset = %d, want 0", stats.Documents)
	}
	if stats.Collection != "test" {
		t.Errorf("collection = %q", stats.Collection)
	}
	if stats.ChatModel == "" || stats.EmbeddingModel == "" {
		t.Error("stats should echo the configured models")
	}
}

func TestSearchReturnsRankedChunksWithoutGeneration(t *testing.T) {
	p, chat := newTestPipeline(t)
	ctx := context.Background()

	if _, err := p.AddDocuments(ctx, []string{"Python ecosystems.", "Kernel modules."}, nil); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	results, err := p.Search(ctx, "python", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if !strings.Contains(results[0].Document.Content, "Python") {
		t.Errorf("top result = %q, want the Python chunk", results[0].Document.Content)
	}
	if results[0].Score < results[1].Score {
		t.Errorf("results not ranked: %v then %v", results[0].Score, results[1].Score)
	}
	if len(chat.prompts) != 0 {
		t.Error("Search must not invoke the chat model")
	}
}
