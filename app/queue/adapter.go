package queue

import (
	"context"
	"fmt"
	"sync"
)

// Adapter forwards queue operations to a Client, checking each call
// against its locally tracked set of created queues and rewrapping client
// failures into tagged errors. The handle map is guarded because the
// worker pool mutates it from several goroutines.
type Adapter struct {
	client Client

	mu     sync.RWMutex
	queues map[string]string // queue name -> client queue handle
}

func NewAdapter(client Client) *Adapter {
	return &Adapter{
		client: client,
		queues: make(map[string]string),
	}
}

// CreateQueue creates the named queue on the client and starts tracking
// it. Creating an already tracked queue returns the existing handle.
func (a *Adapter) CreateQueue(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", &Error{Kind: KindInvalidArgument, Op: "CreateQueue", Err: fmt.Errorf("queue name is empty")}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if id, ok := a.queues[name]; ok {
		return id, nil
	}

	id, err := a.client.CreateQueue(ctx, name)
	if err != nil {
		return "", &Error{Kind: KindRuntime, Op: "CreateQueue", Queue: name, Err: err}
	}

	a.queues[name] = id
	return id, nil
}

// DeleteQueue deletes a tracked queue and stops tracking it. The bool
// reports whether the client removed the queue.
func (a *Adapter) DeleteQueue(ctx context.Context, name string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id, ok := a.queues[name]
	if !ok {
		return false, a.untrackedError("DeleteQueue", name)
	}

	if err := a.client.DeleteQueue(ctx, id); err != nil {
		return false, &Error{Kind: KindRuntime, Op: "DeleteQueue", Queue: name, Err: err}
	}

	delete(a.queues, name)
	return true, nil
}

// ListQueues returns the names of all queues known to the client.
func (a *Adapter) ListQueues(ctx context.Context) ([]string, error) {
	names, err := a.client.ListQueues(ctx)
	if err != nil {
		return nil, &Error{Kind: KindRuntime, Op: "ListQueues", Err: err}
	}
	return names, nil
}

func (a *Adapter) SendMessage(ctx context.Context, name string, body []byte) (string, error) {
	id, err := a.handle("SendMessage", name)
	if err != nil {
		return "", err
	}

	msgID, err := a.client.SendMessage(ctx, id, body)
	if err != nil {
		return "", &Error{Kind: KindRuntime, Op: "SendMessage", Queue: name, Err: err}
	}
	return msgID, nil
}

func (a *Adapter) ReceiveMessages(ctx context.Context, name string, max int) ([]Message, error) {
	id, err := a.handle("ReceiveMessages", name)
	if err != nil {
		return nil, err
	}
	if max <= 0 {
		return nil, &Error{Kind: KindInvalidArgument, Op: "ReceiveMessages", Queue: name,
			Err: fmt.Errorf("max must be positive, got %d", max)}
	}

	msgs, err := a.client.ReceiveMessages(ctx, id, max)
	if err != nil {
		return nil, &Error{Kind: KindRuntime, Op: "ReceiveMessages", Queue: name, Err: err}
	}
	return msgs, nil
}

// PeekMessages is not supported by this adapter variant.
func (a *Adapter) PeekMessages(ctx context.Context, name string, max int) ([]Message, error) {
	return nil, &Error{Kind: KindNotAvailable, Op: "PeekMessages", Queue: name,
		Err: fmt.Errorf("peeking messages is not supported")}
}

func (a *Adapter) DeleteMessage(ctx context.Context, name string, msg Message) error {
	id, err := a.handle("DeleteMessage", name)
	if err != nil {
		return err
	}

	if err := a.client.DeleteMessage(ctx, id, msg); err != nil {
		return &Error{Kind: KindRuntime, Op: "DeleteMessage", Queue: name, Err: err}
	}
	return nil
}

func (a *Adapter) FetchQueueMetadata(ctx context.Context, name string) (Metadata, error) {
	id, err := a.handle("FetchQueueMetadata", name)
	if err != nil {
		return nil, err
	}

	meta, err := a.client.FetchQueueMetadata(ctx, id)
	if err != nil {
		return nil, &Error{Kind: KindRuntime, Op: "FetchQueueMetadata", Queue: name, Err: err}
	}
	return meta, nil
}

func (a *Adapter) StoreQueueMetadata(ctx context.Context, name string, meta Metadata) error {
	id, err := a.handle("StoreQueueMetadata", name)
	if err != nil {
		return err
	}

	if err := a.client.StoreQueueMetadata(ctx, id, meta); err != nil {
		return &Error{Kind: KindRuntime, Op: "StoreQueueMetadata", Queue: name, Err: err}
	}
	return nil
}

func (a *Adapter) handle(op, name string) (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	id, ok := a.queues[name]
	if !ok {
		return "", a.untrackedError(op, name)
	}
	return id, nil
}

func (a *Adapter) untrackedError(op, name string) error {
	return &Error{Kind: KindConfiguration, Op: op, Queue: name,
		Err: fmt.Errorf("queue was not created through this adapter")}
}
