// Package generator turns retrieved context and a question into an answer
// through an eino chat model.
package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/docentai/docent/rag"
)

// DefaultPromptTemplate instructs the model to answer strictly from the
// retrieved context.
const DefaultPromptTemplate = `Use the following pieces of context to answer the question at the end.
If you don't know the answer, just say that you don't know, don't try to make up an answer.

Context:
{context}

Question: {question}

Answer:`

// Generator produces answers grounded in retrieved document chunks.
// Temperature and token limits are properties of the chat model it wraps.
type Generator struct {
	model    model.BaseChatModel
	template prompt.ChatTemplate
}

// New creates a generator. promptTemplate may be empty to use the default;
// it must reference {context} and {question}.
func New(chatModel model.BaseChatModel, promptTemplate string) *Generator {
	if promptTemplate == "" {
		promptTemplate = DefaultPromptTemplate
	}
	return &Generator{
		model:    chatModel,
		template: prompt.FromMessages(schema.FString, schema.UserMessage(promptTemplate)),
	}
}

// Generate returns the complete answer for a question over the given
// context documents.
func (g *Generator) Generate(ctx context.Context, question string, results []rag.SearchResult) (string, error) {
	msgs, err := g.messages(ctx, question, results)
	if err != nil {
		return "", err
	}

	out, err := g.model.Generate(ctx, msgs)
	if err != nil {
		return "", rag.WrapServiceError("chat model", err)
	}
	return out.Content, nil
}

// GenerateStream returns the answer as a token stream. The caller owns the
// reader and must Close it.
func (g *Generator) GenerateStream(ctx context.Context, question string, results []rag.SearchResult) (*schema.StreamReader[*schema.Message], error) {
	msgs, err := g.messages(ctx, question, results)
	if err != nil {
		return nil, err
	}

	stream, err := g.model.Stream(ctx, msgs)
	if err != nil {
		return nil, rag.WrapServiceError("chat model", err)
	}
	return stream, nil
}

func (g *Generator) messages(ctx context.Context, question string, results []rag.SearchResult) ([]*schema.Message, error) {
	msgs, err := g.template.Format(ctx, map[string]any{
		"context":  BuildContext(results),
		"question": question,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to format prompt: %w", err)
	}
	return msgs, nil
}

// BuildContext joins the retrieved chunks into the context block the prompt
// embeds, one blank line between chunks.
func BuildContext(results []rag.SearchResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Document.Content)
	}
	return strings.Join(parts, "\n\n")
}
