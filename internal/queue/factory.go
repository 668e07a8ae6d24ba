package queue

import (
	"fmt"
	"strings"

	"github.com/soltixdb/homedash/internal/config"
	"github.com/soltixdb/homedash/internal/logging"
	"github.com/soltixdb/homedash/internal/utils"
)

// NewQueue creates a Queue for the configured backend. An empty type is the
// in-memory queue.
func NewQueue(cfg config.QueueConfig, logger *logging.Logger) (Queue, error) {
	queueType := utils.QueueType(strings.ToLower(cfg.Type))
	if queueType == "" {
		queueType = utils.QueueTypeMemory
	}

	switch queueType {
	case utils.QueueTypeNATS:
		return newNATSQueue(NATSConfig{
			URL:      cfg.URL,
			Username: cfg.Username,
			Password: cfg.Password,
		}, logger)

	case utils.QueueTypeRedis:
		return newRedisQueue(RedisConfig{
			URL:      cfg.URL,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisStream,
			Group:    cfg.RedisGroup,
			Consumer: cfg.RedisConsumer,
		}, logger)

	case utils.QueueTypeKafka:
		return newKafkaQueue(KafkaConfig{
			Brokers: kafkaBrokers(cfg.KafkaBrokers, cfg.URL),
			GroupID: cfg.KafkaGroupID,
		}, logger)

	case utils.QueueTypeMemory:
		return newMemoryQueue(logger), nil

	default:
		return nil, fmt.Errorf("unsupported queue type: %s (supported: nats, redis, kafka, memory)", queueType)
	}
}

// NewPublisher creates the configured queue and, when enabled, wraps it in a
// circuit breaker
func NewPublisher(cfg config.QueueConfig, breaker config.BreakerConfig, logger *logging.Logger) (Publisher, error) {
	q, err := NewQueue(cfg, logger)
	if err != nil {
		return nil, err
	}
	if !breaker.Enabled {
		return q, nil
	}
	return NewBreakerPublisher(q, breaker, logger), nil
}
