package queue

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/soltixdb/homedash/internal/logging"
)

// kafkaBroker returns a reachable broker for integration tests or skips
func kafkaBroker(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("HOMEDASH_TEST_KAFKA_BROKER")
	if addr == "" {
		addr = "localhost:9092"
	}
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Skipf("Kafka not available: %v", err)
	}
	_ = conn.Close()
	return addr
}

func TestNewKafkaQueue_Defaults(t *testing.T) {
	q, err := newKafkaQueue(KafkaConfig{Brokers: []string{"localhost:9092"}}, logging.Nop())
	if err != nil {
		t.Fatalf("newKafkaQueue failed: %v", err)
	}
	defer q.Close()

	if q.config.GroupID != "homedash-group" {
		t.Errorf("Expected default group, got %s", q.config.GroupID)
	}
	if q.config.MaxAttempts != 3 || q.config.CommitRetries != 3 {
		t.Errorf("Unexpected retry defaults: %+v", q.config)
	}
	if !q.writer.AllowAutoTopicCreation {
		t.Error("Expected auto topic creation")
	}
}

func TestKafkaQueue_UnsubscribeUnknown(t *testing.T) {
	q, err := newKafkaQueue(KafkaConfig{Brokers: []string{"localhost:9092"}}, logging.Nop())
	if err != nil {
		t.Fatalf("newKafkaQueue failed: %v", err)
	}
	defer q.Close()

	if err := q.Unsubscribe("nope"); err == nil {
		t.Error("Expected error unsubscribing from an unknown topic")
	}
}

func TestKafkaQueue_PublishSubscribe(t *testing.T) {
	broker := kafkaBroker(t)

	topic := "homedash-test-" + time.Now().Format("150405")
	q, err := newKafkaQueue(KafkaConfig{Brokers: []string{broker}, GroupID: topic}, logging.Nop())
	if err != nil {
		t.Fatalf("newKafkaQueue failed: %v", err)
	}
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := q.Publish(ctx, topic, []byte("hello")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	handler, wait := collect(t, 1)
	if err := q.Subscribe(ctx, topic, handler); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if got := wait(); string(got[0].Data) != "hello" {
		t.Errorf("Expected hello, got %q", got[0].Data)
	}
}
