package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultVisibilityTimeout is how long a received message stays hidden
// before it returns to the queue when not deleted.
const DefaultVisibilityTimeout = 30 * time.Second

// MemoryClient is an in-process Client. Received messages move to an
// in-flight set; deleting removes them for good, otherwise they return to
// the queue once their visibility timeout expires.
type MemoryClient struct {
	mu                sync.RWMutex
	queues            map[string]*memoryQueue
	visibilityTimeout time.Duration
}

type memoryQueue struct {
	name     string
	pending  []Message
	inflight map[string]inflightMessage
	meta     Metadata
}

type inflightMessage struct {
	msg      Message
	deadline time.Time
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		queues:            make(map[string]*memoryQueue),
		visibilityTimeout: DefaultVisibilityTimeout,
	}
}

// requeueExpired returns timed-out in-flight messages to the queue.
// Callers must hold the write lock.
func (c *MemoryClient) requeueExpired(q *memoryQueue) {
	now := time.Now()
	for id, inflight := range q.inflight {
		if now.After(inflight.deadline) {
			q.pending = append(q.pending, inflight.msg)
			delete(q.inflight, id)
		}
	}
}

func (c *MemoryClient) CreateQueue(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, q := range c.queues {
		if q.name == name {
			return id, nil
		}
	}

	id := uuid.NewString()
	c.queues[id] = &memoryQueue{
		name:     name,
		inflight: make(map[string]inflightMessage),
		meta:     make(Metadata),
	}
	return id, nil
}

func (c *MemoryClient) DeleteQueue(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.queues[id]; !ok {
		return fmt.Errorf("queue %s does not exist", id)
	}
	delete(c.queues, id)
	return nil
}

func (c *MemoryClient) ListQueues(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.queues))
	for _, q := range c.queues {
		names = append(names, q.name)
	}
	return names, nil
}

func (c *MemoryClient) SendMessage(ctx context.Context, id string, body []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, ok := c.queues[id]
	if !ok {
		return "", fmt.Errorf("queue %s does not exist", id)
	}

	msg := Message{
		ID:         uuid.NewString(),
		Body:       append([]byte(nil), body...),
		EnqueuedAt: time.Now(),
	}
	q.pending = append(q.pending, msg)
	return msg.ID, nil
}

func (c *MemoryClient) ReceiveMessages(ctx context.Context, id string, max int) ([]Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, ok := c.queues[id]
	if !ok {
		return nil, fmt.Errorf("queue %s does not exist", id)
	}

	c.requeueExpired(q)

	n := max
	if n > len(q.pending) {
		n = len(q.pending)
	}
	if n < 0 {
		n = 0
	}

	received := make([]Message, n)
	copy(received, q.pending[:n])
	q.pending = q.pending[n:]

	deadline := time.Now().Add(c.visibilityTimeout)
	for _, msg := range received {
		q.inflight[msg.ID] = inflightMessage{msg: msg, deadline: deadline}
	}
	return received, nil
}

func (c *MemoryClient) PeekMessages(ctx context.Context, id string, max int) ([]Message, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	q, ok := c.queues[id]
	if !ok {
		return nil, fmt.Errorf("queue %s does not exist", id)
	}

	n := max
	if n > len(q.pending) {
		n = len(q.pending)
	}
	if n < 0 {
		n = 0
	}

	peeked := make([]Message, n)
	copy(peeked, q.pending[:n])
	return peeked, nil
}

func (c *MemoryClient) DeleteMessage(ctx context.Context, id string, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, ok := c.queues[id]
	if !ok {
		return fmt.Errorf("queue %s does not exist", id)
	}

	if _, ok := q.inflight[msg.ID]; !ok {
		return fmt.Errorf("message %s is not in flight", msg.ID)
	}
	delete(q.inflight, msg.ID)
	return nil
}

func (c *MemoryClient) FetchQueueMetadata(ctx context.Context, id string) (Metadata, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	q, ok := c.queues[id]
	if !ok {
		return nil, fmt.Errorf("queue %s does not exist", id)
	}

	meta := make(Metadata, len(q.meta))
	for k, v := range q.meta {
		meta[k] = v
	}
	return meta, nil
}

func (c *MemoryClient) StoreQueueMetadata(ctx context.Context, id string, meta Metadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, ok := c.queues[id]
	if !ok {
		return fmt.Errorf("queue %s does not exist", id)
	}

	for k, v := range meta {
		q.meta[k] = v
	}
	return nil
}

var _ Client = (*MemoryClient)(nil)
