// Package pipeline sequences parsing, chunking, embedding, retrieval and
// generation into the operations the CLIs expose.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/docentai/docent/rag"
	"github.com/docentai/docent/rag/chunker"
	"github.com/docentai/docent/rag/config"
	"github.com/docentai/docent/rag/embedding"
	"github.com/docentai/docent/rag/generator"
	"github.com/docentai/docent/rag/parser"
	"github.com/docentai/docent/rag/providers"
	"github.com/docentai/docent/rag/vector"
)

// Answer is a generated response together with the chunks it was grounded in.
type Answer struct {
	Question string
	Text     string
	Sources  []rag.SearchResult
}

// Stats describes the current state of the assistant.
type Stats struct {
	Documents      int64
	Collection     string
	ChatModel      string
	EmbeddingModel string
}

// Pipeline owns the components of one assistant instance. Operations are
// issued one at a time; the pipeline keeps no request state of its own.
type Pipeline struct {
	cfg      *config.Settings
	embed    *embedding.Service
	store    vector.Store
	gen      *generator.Generator
	registry *parser.Registry
}

// New assembles a pipeline from prebuilt components.
func New(cfg *config.Settings, embed *embedding.Service, store vector.Store, gen *generator.Generator) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		embed:    embed,
		store:    store,
		gen:      gen,
		registry: newRegistry(cfg),
	}
}

// Open builds a pipeline from configuration: provider models, embedding
// service and vector store. No network call happens until the first
// operation needs one.
func Open(ctx context.Context, cfg *config.Settings) (*Pipeline, error) {
	chatModel, err := providers.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	embedModel, err := providers.NewEmbeddingModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding model: %w", err)
	}

	store, err := vector.Open(ctx, cfg, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	return New(cfg, embedding.NewService(embedModel, 0), store, generator.New(chatModel, "")), nil
}

// Close releases the vector store.
func (p *Pipeline) Close() error {
	return p.store.Close()
}

// Supports reports whether path has a parser registered for its extension.
func (p *Pipeline) Supports(path string) bool {
	return p.registry.Supports(path)
}

// AddDocuments chunks, embeds and indexes raw texts. metas may be nil or one
// map per document; documents without a source are assigned a generated one.
// Returns the IDs of the stored chunks.
func (p *Pipeline) AddDocuments(ctx context.Context, docs []string, metas []map[string]string) ([]string, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents to add")
	}
	if metas != nil && len(metas) != len(docs) {
		return nil, fmt.Errorf("got %d documents but %d metadata entries", len(docs), len(metas))
	}

	cfg := chunker.Config{ChunkSize: p.cfg.ChunkSize, ChunkOverlap: p.cfg.ChunkOverlap}
	records := make([]rag.Document, 0, len(docs))
	for i, text := range docs {
		var meta map[string]string
		if metas != nil {
			meta = metas[i]
		}
		records = append(records, buildRecords(text, meta, cfg)...)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("documents contain no content")
	}

	contents := make([]string, len(records))
	for i, r := range records {
		contents[i] = r.Content
	}
	vectors, err := p.embed.EmbedBatch(ctx, contents)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}

	ids := make([]string, len(records))
	for i := range records {
		records[i].Vector = vectors[i]
		ids[i] = records[i].ID
	}
	if err := p.store.Upsert(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to index chunks: %w", err)
	}
	return ids, nil
}

// AddFile parses one file and indexes its content. Returns the number of
// chunks stored.
func (p *Pipeline) AddFile(ctx context.Context, path string) (int, error) {
	pr, ok := p.registry.GetParserForPath(path)
	if !ok {
		return 0, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	doc, err := pr.ParseFile(ctx, path)
	if err != nil {
		return 0, err
	}

	meta := map[string]string{
		"source":    path,
		"file_type": pr.FileType().String(),
		"title":     doc.Title,
	}
	for k, v := range doc.Metadata {
		meta[k] = v
	}

	ids, err := p.AddDocuments(ctx, []string{doc.Content}, []map[string]string{meta})
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Query answers a question from the indexed documents.
func (p *Pipeline) Query(ctx context.Context, question string, k int) (*Answer, error) {
	results, err := p.retrieve(ctx, question, k)
	if err != nil {
		return nil, err
	}
	text, err := p.gen.Generate(ctx, question, results)
	if err != nil {
		return nil, err
	}
	return &Answer{Question: question, Text: text, Sources: results}, nil
}

// QueryStream answers a question with the generator output delivered
// incrementally. The sources are complete before the first token arrives;
// the caller must Close the stream.
func (p *Pipeline) QueryStream(ctx context.Context, question string, k int) (*schema.StreamReader[*schema.Message], []rag.SearchResult, error) {
	results, err := p.retrieve(ctx, question, k)
	if err != nil {
		return nil, nil, err
	}
	stream, err := p.gen.GenerateStream(ctx, question, results)
	if err != nil {
		return nil, nil, err
	}
	return stream, results, nil
}

// Search embeds the question and returns the top-k chunks without invoking
// the generator.
func (p *Pipeline) Search(ctx context.Context, question string, k int) ([]rag.SearchResult, error) {
	return p.retrieve(ctx, question, k)
}

func (p *Pipeline) retrieve(ctx context.Context, question string, k int) ([]rag.SearchResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: empty question", rag.ErrMalformedInput)
	}
	count, err := p.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: collection %q has no documents", rag.ErrIndexEmpty, p.cfg.Collection)
	}

	if k <= 0 {
		k = p.cfg.TopK
	}
	vec, err := p.embed.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	results, err := p.store.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return results, nil
}

// Stats reports the indexed document count and the configured models.
func (p *Pipeline) Stats(ctx context.Context) (*Stats, error) {
	count, err := p.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	return &Stats{
		Documents:      count,
		Collection:     p.cfg.Collection,
		ChatModel:      p.cfg.ChatModel,
		EmbeddingModel: p.cfg.EmbedModel,
	}, nil
}

// Reset drops every document in the collection.
func (p *Pipeline) Reset(ctx context.Context) error {
	if err := p.store.DeleteCollection(ctx); err != nil {
		return fmt.Errorf("failed to reset collection: %w", err)
	}
	return nil
}

// buildRecords chunks one text and attaches its metadata. Known keys move
// into the record fields, the rest stay in Metadata.
func buildRecords(text string, meta map[string]string, cfg chunker.Config) []rag.Document {
	source := meta["source"]
	if source == "" {
		source = uuid.NewString()
	}

	extra := make(map[string]string, len(meta))
	for k, v := range meta {
		switch k {
		case "source", "file_type", "title":
		default:
			extra[k] = v
		}
	}
	if len(extra) == 0 {
		extra = nil
	}

	chunks := chunker.ChunkText(text, cfg)
	records := make([]rag.Document, 0, len(chunks))
	for _, c := range chunks {
		records = append(records, rag.Document{
			ID:         chunker.ChunkID(source, c.Index),
			Content:    c.Content,
			Source:     source,
			FileType:   meta["file_type"],
			Title:      meta["title"],
			ChunkIndex: c.Index,
			Metadata:   extra,
		})
	}
	return records
}

// newRegistry builds the parser registry with the configured PDF behavior.
func newRegistry(cfg *config.Settings) *parser.Registry {
	reg := parser.DefaultRegistry()
	pdf := parser.NewPDFParser()
	pdf.PreserveLayout = cfg.PreserveLayout
	if cfg.HeadingScale > 0 {
		pdf.Layout.HeadingScale = cfg.HeadingScale
	}
	reg.Register(pdf)
	return reg
}
