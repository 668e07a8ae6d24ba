package queue

import (
	"context"
	"errors"
	"time"
)

var (
	ErrClosed            = errors.New("queue closed")
	ErrAlreadySubscribed = errors.New("already subscribed")
	ErrNotSubscribed     = errors.New("not subscribed")
	ErrUnavailable       = errors.New("queue unavailable")
)

// Message is one delivery received from a subject
type Message struct {
	Subject    string
	Data       []byte
	ReceivedAt time.Time
}

// Publisher publishes messages to a queue
type Publisher interface {
	// Publish publishes a message to a subject/topic
	Publish(ctx context.Context, subject string, data []byte) error

	// Close closes the connection
	Close() error
}

// Subscriber subscribes to messages from a queue
type Subscriber interface {
	// Subscribe delivers every message of subject to handler until ctx is
	// cancelled or Unsubscribe is called
	Subscribe(ctx context.Context, subject string, handler MessageHandler) error

	// Unsubscribe unsubscribes from a subject/topic
	Unsubscribe(subject string) error

	// Close closes the connection
	Close() error
}

// MessageHandler handles incoming messages. A returned error asks the backend
// to redeliver where it supports that.
type MessageHandler func(ctx context.Context, msg Message) error

// Queue combines Publisher and Subscriber interfaces
type Queue interface {
	Publisher
	Subscriber
}
