package queue

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/soltixdb/homedash/internal/logging"
)

// KafkaConfig represents Apache Kafka configuration
type KafkaConfig struct {
	Brokers       []string      // Kafka broker addresses
	GroupID       string        // Consumer group ID (default: homedash-group)
	BatchTimeout  time.Duration // Producer batch timeout (default: 10ms)
	MaxAttempts   int           // Producer attempts per message (default: 3)
	CommitRetries int           // Consumer commit retries (default: 3)
	RetryBackoff  time.Duration // Backoff between commit retries (default: 100ms)
}

// KafkaQueue implements Queue using Apache Kafka. Subjects map to topics.
type KafkaQueue struct {
	config        KafkaConfig
	logger        *logging.Logger
	writer        *kafka.Writer
	readers       map[string]*kafka.Reader
	subscriptions map[string]context.CancelFunc
	wg            sync.WaitGroup
	mu            sync.Mutex
}

// kafkaBrokers returns the configured brokers, falling back to a comma
// separated URL
func kafkaBrokers(brokers []string, url string) []string {
	if len(brokers) > 0 {
		return brokers
	}
	var out []string
	for _, b := range strings.Split(url, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func newKafkaQueue(cfg KafkaConfig, logger *logging.Logger) (*KafkaQueue, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	if logger == nil {
		logger = logging.Global()
	}
	if cfg.GroupID == "" {
		cfg.GroupID = "homedash-group"
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.CommitRetries == 0 {
		cfg.CommitRetries = 3
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}

	// One writer serves every topic; the topic is set per message.
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		MaxAttempts:            cfg.MaxAttempts,
		AllowAutoTopicCreation: true,
	}

	return &KafkaQueue{
		config:        cfg,
		logger:        logger,
		writer:        writer,
		readers:       make(map[string]*kafka.Reader),
		subscriptions: make(map[string]context.CancelFunc),
	}, nil
}

// Publish writes a message to the subject's topic
func (q *KafkaQueue) Publish(ctx context.Context, subject string, data []byte) error {
	err := q.writer.WriteMessages(ctx, kafka.Message{
		Topic: subject,
		Value: data,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish to kafka topic %s: %w", subject, err)
	}
	return nil
}

// Subscribe consumes the subject's topic in the configured group. Offsets are
// committed only after the handler succeeds.
func (q *KafkaQueue) Subscribe(ctx context.Context, subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadySubscribed, subject)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  q.config.Brokers,
		GroupID:  q.config.GroupID,
		Topic:    subject,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	ctx, cancel := context.WithCancel(ctx)
	q.readers[subject] = reader
	q.subscriptions[subject] = cancel

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.consume(ctx, subject, reader, handler)
	}()
	return nil
}

func (q *KafkaQueue) consume(ctx context.Context, subject string, reader *kafka.Reader, handler MessageHandler) {
	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			q.logger.Warn("Kafka fetch failed", "topic", subject, "error", err)
			continue
		}

		msg := Message{Subject: m.Topic, Data: m.Value, ReceivedAt: time.Now()}
		if err := handler(ctx, msg); err != nil {
			q.logger.Warn("Message handler failed", "topic", subject, "offset", m.Offset, "error", err)
			continue
		}

		for i := 0; i < q.config.CommitRetries; i++ {
			if err := reader.CommitMessages(ctx, m); err == nil {
				break
			}
			if ctx.Err() != nil {
				return
			}
			time.Sleep(q.config.RetryBackoff)
		}
	}
}

// Unsubscribe stops consuming a topic and closes its reader
func (q *KafkaQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	cancel, exists := q.subscriptions[subject]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotSubscribed, subject)
	}
	cancel()
	delete(q.subscriptions, subject)

	if reader, ok := q.readers[subject]; ok {
		delete(q.readers, subject)
		return reader.Close()
	}
	return nil
}

// Close closes every reader and the writer
func (q *KafkaQueue) Close() error {
	q.mu.Lock()
	var lastErr error
	for subject, cancel := range q.subscriptions {
		cancel()
		delete(q.subscriptions, subject)
	}
	for subject, reader := range q.readers {
		if err := reader.Close(); err != nil {
			lastErr = err
		}
		delete(q.readers, subject)
	}
	q.mu.Unlock()

	q.wg.Wait()
	if err := q.writer.Close(); err != nil {
		lastErr = err
	}
	return lastErr
}

// Stats returns producer statistics
func (q *KafkaQueue) Stats() kafka.WriterStats {
	return q.writer.Stats()
}
