package pubsub

import "context"

// Event types published over the lifetime of one answered question.
const (
	// QuestionEvent announces the question being worked on.
	QuestionEvent EventType = "question"
	// SourcesEvent carries the retrieved chunks, before the first token.
	SourcesEvent EventType = "sources"
	// DeltaEvent carries the answer text accumulated so far.
	DeltaEvent EventType = "delta"
	// CompletedEvent marks the end of a streamed answer.
	CompletedEvent EventType = "completed"
	// FailedEvent reports that answering stopped with an error.
	FailedEvent EventType = "failed"
	// NoticeEvent carries session messages outside the question flow.
	NoticeEvent EventType = "notice"
)

// Subscriber hands out event channels that close when the context ends.
type Subscriber[T any] interface {
	Subscribe(context.Context) <-chan Event[T]
}

type (
	// EventType identifies what an event describes.
	EventType string

	// Event is one update delivered to every subscriber.
	Event[T any] struct {
		Type    EventType
		Payload T
	}

	// Publisher delivers events to all subscribers.
	Publisher[T any] interface {
		Publish(EventType, T)
	}
)
