package chat

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/docentai/docent/pubsub"
	"github.com/docentai/docent/rag"
	"github.com/docentai/docent/rag/pipeline"
	"github.com/docentai/docent/tui/component"
)

// Assistant is the slice of the pipeline the chat session drives.
type Assistant interface {
	QueryStream(ctx context.Context, question string, k int) (*schema.StreamReader[*schema.Message], []rag.SearchResult, error)
	Stats(ctx context.Context) (*pipeline.Stats, error)
}

// Session runs questions against the assistant and publishes progress as
// events for the UI to consume.
type Session struct {
	assistant Assistant
	broker    *pubsub.Broker[component.AnswerUpdate]
}

// NewSession creates a session around an assistant.
func NewSession(assistant Assistant) *Session {
	return &Session{
		assistant: assistant,
		broker:    pubsub.NewBrokerWithBuffer[component.AnswerUpdate](256),
	}
}

// Broker exposes the event stream for subscription.
func (s *Session) Broker() *pubsub.Broker[component.AnswerUpdate] {
	return s.broker
}

// Shutdown closes the event stream.
func (s *Session) Shutdown() {
	s.broker.Shutdown()
}

// Ask answers one question, publishing the question, the retrieved sources,
// accumulated answer text and a completion or failure. It blocks until the
// stream ends; run it from a tea.Cmd or goroutine.
func (s *Session) Ask(ctx context.Context, question string) {
	s.broker.Publish(pubsub.QuestionEvent, component.AnswerUpdate{Question: question})

	stream, sources, err := s.assistant.QueryStream(ctx, question, 0)
	if err != nil {
		s.broker.Publish(pubsub.FailedEvent, component.AnswerUpdate{Err: err})
		return
	}
	defer stream.Close()

	s.broker.Publish(pubsub.SourcesEvent, component.AnswerUpdate{Sources: sources})

	var full strings.Builder
	for {
		msg, rerr := stream.Recv()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			s.broker.Publish(pubsub.FailedEvent, component.AnswerUpdate{Err: rerr})
			return
		}
		full.WriteString(msg.Content)
		s.broker.Publish(pubsub.DeltaEvent, component.AnswerUpdate{Text: full.String()})
	}
	s.broker.Publish(pubsub.CompletedEvent, component.AnswerUpdate{Text: full.String()})
}

// AnnounceStats publishes the index statistics as a notice.
func (s *Session) AnnounceStats(ctx context.Context) {
	stats, err := s.assistant.Stats(ctx)
	if err != nil {
		s.broker.Publish(pubsub.FailedEvent, component.AnswerUpdate{Err: err})
		return
	}
	notice := fmt.Sprintf(
		"Collection %q holds %d chunks.\nChat model: %s\nEmbedding model: %s",
		stats.Collection, stats.Documents, stats.ChatModel, stats.EmbeddingModel,
	)
	s.broker.Publish(pubsub.NoticeEvent, component.AnswerUpdate{Notice: notice})
}

// Notify publishes an informational notice.
func (s *Session) Notify(text string) {
	s.broker.Publish(pubsub.NoticeEvent, component.AnswerUpdate{Notice: text})
}

// WarnIfEmpty publishes a notice when no documents are indexed yet.
func (s *Session) WarnIfEmpty(ctx context.Context) {
	stats, err := s.assistant.Stats(ctx)
	if err != nil || stats.Documents > 0 {
		return
	}
	s.broker.Publish(pubsub.NoticeEvent, component.AnswerUpdate{
		Notice: "The index is empty. Run docent-ingest <directory> to add documents first.",
	})
}
