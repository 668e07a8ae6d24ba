package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/soltixdb/homedash/internal/logging"
)

// redisMaxLen caps each stream; older entries are trimmed approximately
const redisMaxLen = 10000

// RedisConfig represents Redis Streams configuration
type RedisConfig struct {
	URL      string // Redis URL (redis://localhost:6379) or plain host:port
	Password string // Optional password
	DB       int    // Database number (default: 0)
	Stream   string // Stream prefix (default: "homedash")
	Group    string // Consumer group name (default: "homedash-group")
	Consumer string // Consumer name (default: hostname)
}

// RedisQueue implements Queue using Redis Streams and consumer groups
type RedisQueue struct {
	client        *redis.Client
	config        RedisConfig
	logger        *logging.Logger
	subscriptions map[string]context.CancelFunc
	wg            sync.WaitGroup
	mu            sync.Mutex
}

func newRedisQueue(cfg RedisConfig, logger *logging.Logger) (*RedisQueue, error) {
	if logger == nil {
		logger = logging.Global()
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		opts = &redis.Options{Addr: cfg.URL}
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if cfg.Stream == "" {
		cfg.Stream = "homedash"
	}
	if cfg.Group == "" {
		cfg.Group = "homedash-group"
	}
	if cfg.Consumer == "" {
		cfg.Consumer, _ = os.Hostname()
		if cfg.Consumer == "" {
			cfg.Consumer = "consumer-1"
		}
	}

	return &RedisQueue{
		client:        client,
		config:        cfg,
		logger:        logger,
		subscriptions: make(map[string]context.CancelFunc),
	}, nil
}

// streamName maps a subject to its stream key, e.g. homedash:homedash.reports.daily
func (q *RedisQueue) streamName(subject string) string {
	return q.config.Stream + ":" + subject
}

// Publish appends a message to the subject's stream
func (q *RedisQueue) Publish(ctx context.Context, subject string, data []byte) error {
	stream := q.streamName(subject)
	err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: redisMaxLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{"data": data},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to Redis stream %s: %w", stream, err)
	}
	return nil
}

// Subscribe joins the consumer group of the subject's stream. Messages are
// acknowledged only when the handler succeeds.
func (q *RedisQueue) Subscribe(ctx context.Context, subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadySubscribed, subject)
	}

	stream := q.streamName(subject)
	err := q.client.XGroupCreateMkStream(ctx, stream, q.config.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	q.subscriptions[subject] = cancel

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.readStream(ctx, subject, stream, handler)
	}()
	return nil
}

func (q *RedisQueue) readStream(ctx context.Context, subject, stream string, handler MessageHandler) {
	for ctx.Err() == nil {
		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.config.Group,
			Consumer: q.config.Consumer,
			Streams:  []string{stream, ">"},
			Count:    100,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			q.logger.Warn("Redis stream read failed", "stream", stream, "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, s := range streams {
			for _, m := range s.Messages {
				data, ok := m.Values["data"].(string)
				if !ok {
					q.logger.Warn("Dropping malformed stream entry", "stream", stream, "id", m.ID)
					q.client.XAck(ctx, stream, q.config.Group, m.ID)
					continue
				}

				msg := Message{Subject: subject, Data: []byte(data), ReceivedAt: time.Now()}
				if err := handler(ctx, msg); err != nil {
					q.logger.Warn("Message handler failed", "subject", subject, "id", m.ID, "error", err)
					continue
				}
				q.client.XAck(ctx, stream, q.config.Group, m.ID)
			}
		}
	}
}

// Unsubscribe stops reading the subject's stream
func (q *RedisQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	cancel, exists := q.subscriptions[subject]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotSubscribed, subject)
	}
	cancel()
	delete(q.subscriptions, subject)
	return nil
}

// Close stops every reader and closes the client
func (q *RedisQueue) Close() error {
	q.mu.Lock()
	for subject, cancel := range q.subscriptions {
		cancel()
		delete(q.subscriptions, subject)
	}
	q.mu.Unlock()

	q.wg.Wait()
	return q.client.Close()
}
