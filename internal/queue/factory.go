package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/soltixdb/cets/internal/config"
	"github.com/soltixdb/cets/internal/utils"
)

// NewQueue creates a new Queue instance based on configuration.
// ackWait is how long a consumer may hold a message before it is redelivered;
// workers pass their job timeout. Default type is NATS.
func NewQueue(cfg config.QueueConfig, ackWait time.Duration) (Queue, error) {
	queueType := utils.QueueType(strings.ToLower(cfg.Type))

	if queueType == "" {
		queueType = utils.QueueTypeNATS
	}

	switch queueType {
	case utils.QueueTypeNATS:
		return newNATSQueue(NATSConfig{
			URL:      cfg.URL,
			Username: cfg.Username,
			Password: cfg.Password,
			AckWait:  ackWait,
		})

	case utils.QueueTypeRedis:
		return newRedisQueue(RedisConfig{
			URL:      cfg.URL,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisStream,
			Group:    cfg.RedisGroup,
			Consumer: cfg.RedisConsumer,
		})

	case utils.QueueTypeKafka:
		return newKafkaQueue(KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.KafkaGroupID,
		})

	case utils.QueueTypeMemory:
		return newMemoryQueue(), nil

	default:
		return nil, fmt.Errorf("unsupported queue type: %s (supported: nats, redis, kafka, memory)", queueType)
	}
}
