package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/soltixdb/homedash/internal/logging"
	"github.com/soltixdb/homedash/internal/utils"
)

// reportRetention bounds how long published messages stay in a stream
const reportRetention = 30 * 24 * time.Hour

// NATSConfig represents NATS connection settings
type NATSConfig struct {
	URL      string
	Username string
	Password string
	Name     string // client name shown by the server (default: homedash)
}

// NATSQueue implements Queue using NATS JetStream. Each subject gets its own
// file-backed stream so reports survive subscriber restarts.
type NATSQueue struct {
	conn          *nats.Conn
	js            nats.JetStreamContext
	logger        *logging.Logger
	streams       map[string]bool
	subscriptions map[string]*natsSubscription
	mu            sync.Mutex
}

type natsSubscription struct {
	sub    *nats.Subscription
	cancel context.CancelFunc
}

func newNATSQueue(cfg NATSConfig, logger *logging.Logger) (*NATSQueue, error) {
	if cfg.Name == "" {
		cfg.Name = "homedash"
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	q, err := newNATSQueueWithConn(conn, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return q, nil
}

func newNATSQueueWithConn(conn *nats.Conn, logger *logging.Logger) (*NATSQueue, error) {
	if logger == nil {
		logger = logging.Global()
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	return &NATSQueue{
		conn:          conn,
		js:            js,
		logger:        logger,
		streams:       make(map[string]bool),
		subscriptions: make(map[string]*natsSubscription),
	}, nil
}

// ensureStream creates the subject's stream on first use. Caller holds mu.
func (q *NATSQueue) ensureStream(subject string) error {
	if q.streams[subject] {
		return nil
	}

	name := "homedash-" + sanitizeName(subject)
	if _, err := q.js.StreamInfo(name); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			return fmt.Errorf("failed to look up stream %s: %w", name, err)
		}
		_, err = q.js.AddStream(&nats.StreamConfig{
			Name:     name,
			Subjects: []string{subject},
			Storage:  nats.FileStorage,
			MaxAge:   reportRetention,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream for subject %s: %w", subject, err)
		}
	}
	q.streams[subject] = true
	return nil
}

// Publish publishes a message and waits for the stream to acknowledge it
func (q *NATSQueue) Publish(ctx context.Context, subject string, data []byte) error {
	q.mu.Lock()
	err := q.ensureStream(subject)
	q.mu.Unlock()
	if err != nil {
		return err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, utils.PublishTimeout)
		defer cancel()
	}

	if _, err := q.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	return nil
}

// Subscribe attaches a durable consumer to the subject. Failed messages are
// NAKed and redelivered up to three times.
func (q *NATSQueue) Subscribe(ctx context.Context, subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadySubscribed, subject)
	}
	if err := q.ensureStream(subject); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	sub, err := q.js.Subscribe(subject, func(m *nats.Msg) {
		msg := Message{Subject: m.Subject, Data: m.Data, ReceivedAt: time.Now()}
		if err := handler(ctx, msg); err != nil {
			q.logger.Warn("Message handler failed", "subject", m.Subject, "error", err)
			_ = m.Nak()
			return
		}
		_ = m.Ack()
	},
		nats.Durable("consumer-"+sanitizeName(subject)),
		nats.ManualAck(),
		nats.AckWait(30*time.Second),
		nats.MaxDeliver(3),
		nats.DeliverAll(),
	)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}
	q.subscriptions[subject] = &natsSubscription{sub: sub, cancel: cancel}

	// Drop the subscription when the caller's context ends.
	go func() {
		<-ctx.Done()
		_ = q.Unsubscribe(subject)
	}()
	return nil
}

// Unsubscribe unsubscribes from a subject
func (q *NATSQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	s, exists := q.subscriptions[subject]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotSubscribed, subject)
	}
	delete(q.subscriptions, subject)
	s.cancel()

	if err := s.sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("failed to unsubscribe from subject %s: %w", subject, err)
	}
	return nil
}

// Close drains subscriptions and closes the connection
func (q *NATSQueue) Close() error {
	q.mu.Lock()
	for subject, s := range q.subscriptions {
		s.cancel()
		if err := s.sub.Unsubscribe(); err != nil {
			q.logger.Debug("Unsubscribe on close failed", "subject", subject, "error", err)
		}
		delete(q.subscriptions, subject)
	}
	q.mu.Unlock()

	q.conn.Close()
	return nil
}

// sanitizeName maps a subject to a valid stream or consumer name, which may
// only contain A-Z, a-z, 0-9, dash and underscore
func sanitizeName(subject string) string {
	out := []byte(subject)
	for i, c := range out {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
