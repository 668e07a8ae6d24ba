package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/soltixdb/homedash/internal/logging"
)

// memoryBacklog is how many messages a subject holds before publishes fail
const memoryBacklog = 1024

// MemoryQueue implements Queue in process. Messages published before anyone
// subscribes are kept and delivered to the first subscriber.
type MemoryQueue struct {
	logger *logging.Logger
	topics map[string]*memoryTopic
	closed bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

type memoryTopic struct {
	ch     chan []byte
	cancel context.CancelFunc
}

func newMemoryQueue(logger *logging.Logger) *MemoryQueue {
	if logger == nil {
		logger = logging.Global()
	}
	return &MemoryQueue{
		logger: logger,
		topics: make(map[string]*memoryTopic),
	}
}

// topic returns the subject's topic, creating it. Caller holds mu.
func (q *MemoryQueue) topic(subject string) *memoryTopic {
	t, ok := q.topics[subject]
	if !ok {
		t = &memoryTopic{ch: make(chan []byte, memoryBacklog)}
		q.topics[subject] = t
	}
	return t
}

// Publish enqueues a copy of data on the subject
func (q *MemoryQueue) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	select {
	case q.topic(subject).ch <- buf:
		return nil
	default:
		return fmt.Errorf("backlog full for subject %s", subject)
	}
}

// Subscribe starts one consumer goroutine for the subject
func (q *MemoryQueue) Subscribe(ctx context.Context, subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}

	t := q.topic(subject)
	if t.cancel != nil {
		return fmt.Errorf("%w: %s", ErrAlreadySubscribed, subject)
	}

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case data, ok := <-t.ch:
				if !ok {
					return
				}
				msg := Message{Subject: subject, Data: data, ReceivedAt: time.Now()}
				if err := handler(ctx, msg); err != nil {
					q.logger.Warn("Message handler failed", "subject", subject, "error", err)
				}
			}
		}
	}()
	return nil
}

// Unsubscribe stops the subject's consumer. Undelivered messages stay queued.
func (q *MemoryQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.topics[subject]
	if !ok || t.cancel == nil {
		return fmt.Errorf("%w: %s", ErrNotSubscribed, subject)
	}
	t.cancel()
	t.cancel = nil
	return nil
}

// Close stops every consumer and waits for them to return
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	for _, t := range q.topics {
		if t.cancel != nil {
			t.cancel()
		}
	}
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}

// Pending returns the number of undelivered messages on a subject
func (q *MemoryQueue) Pending(subject string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t, ok := q.topics[subject]; ok {
		return len(t.ch)
	}
	return 0
}
