package queue

import (
	"context"
	"time"
)

// Message is a queued payload. ID identifies the message for deletion
// after a successful receive.
type Message struct {
	ID         string
	Body       []byte
	EnqueuedAt time.Time
}

// Metadata is free-form per-queue metadata kept by the client.
type Metadata map[string]string

// Client is the underlying queue transport. Implementations report plain
// errors; the Adapter owns translation into tagged error kinds.
type Client interface {
	CreateQueue(ctx context.Context, name string) (string, error)
	DeleteQueue(ctx context.Context, id string) error
	ListQueues(ctx context.Context) ([]string, error)

	SendMessage(ctx context.Context, id string, body []byte) (string, error)
	ReceiveMessages(ctx context.Context, id string, max int) ([]Message, error)
	PeekMessages(ctx context.Context, id string, max int) ([]Message, error)
	DeleteMessage(ctx context.Context, id string, msg Message) error

	FetchQueueMetadata(ctx context.Context, id string) (Metadata, error)
	StoreQueueMetadata(ctx context.Context, id string, meta Metadata) error
}
