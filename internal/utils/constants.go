package utils

import "time"

// =============================================================================
// Timeout Constants
// =============================================================================

// HTTP Handler Timeouts
const (
	// DefaultRequestTimeout is the default timeout for HTTP requests
	DefaultRequestTimeout = 30 * time.Second

	// ShutdownTimeout bounds graceful shutdown of the HTTP server
	ShutdownTimeout = 10 * time.Second

	// PublishTimeout bounds a single queue publish
	PublishTimeout = 5 * time.Second
)

// =============================================================================
// Dashboard Constants
// =============================================================================

const (
	// DefaultRecentRows is the size of the recent readings table
	DefaultRecentRows = 10

	// MaxRecentRows caps the recent readings table
	MaxRecentRows = 1000

	// DefaultSeriesThreshold is the point budget for auto downsampling of raw series
	DefaultSeriesThreshold = 1000

	// DisplayPrecision is the number of decimals used in text reports
	DisplayPrecision = 2

	// DefaultReportRoom is the room summarized by the daily report
	DefaultReportRoom = "LivingRoom"

	// DefaultTimestampColumn is the timestamp header of the sensor export
	DefaultTimestampColumn = "AC_Timestamp"
)

// =============================================================================
// Queue Constants
// =============================================================================

// DailyReportSubject is the queue subject daily reports are published on
const DailyReportSubject = "homedash.reports.daily"

// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeNATS represents NATS JetStream queue
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams queue
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka queue
	QueueTypeKafka QueueType = "kafka"

	// QueueTypeMemory represents in-memory queue (default)
	QueueTypeMemory QueueType = "memory"
)
