package utils

import "time"

// =============================================================================
// Timeout Constants
// =============================================================================

const (
	// ShutdownTimeout bounds graceful shutdown of the API and the worker
	ShutdownTimeout = 30 * time.Second

	// PublishTimeout bounds a single queue publish from a request handler
	PublishTimeout = 5 * time.Second
)

// =============================================================================
// Retry and Backoff Constants
// =============================================================================

const (
	// DefaultMaxRetries is the default number of retry attempts
	DefaultMaxRetries = 3

	// DefaultRetryBackoff is the default backoff duration between retries
	DefaultRetryBackoff = 100 * time.Millisecond

	// MaxRetryBackoff is the maximum backoff duration
	MaxRetryBackoff = 5 * time.Second
)

// =============================================================================
// Request Limits
// =============================================================================

const (
	// MaxSamplesPerRequest caps the number of multivariate samples in one analysis
	MaxSamplesPerRequest = 1000

	// MaxEventSequencesPerSample caps the event groups analysed per sample
	MaxEventSequencesPerSample = 256
)

// =============================================================================
// Queue Type Constants
// =============================================================================

// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeNATS represents NATS JetStream queue (default)
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams queue
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka queue
	QueueTypeKafka QueueType = "kafka"

	// QueueTypeMemory represents in-memory queue (for testing)
	QueueTypeMemory QueueType = "memory"
)

// Backoff returns the delay before retry attempt n (0-based), doubling from
// DefaultRetryBackoff and capped at MaxRetryBackoff
func Backoff(attempt int) time.Duration {
	d := DefaultRetryBackoff
	for i := 0; i < attempt && d < MaxRetryBackoff; i++ {
		d *= 2
	}
	if d > MaxRetryBackoff {
		return MaxRetryBackoff
	}
	return d
}
