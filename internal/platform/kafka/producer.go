package kafka

import (
	"fmt"
	"sync"
	"time"

	"github.com/pc7stha/ShopVerse/internal/config"

	"github.com/IBM/sarama"
)

const maxProducerBackoff = 30 * time.Second

// NewProducerConfig returns an idempotent producer configuration: every send
// waits for all in-sync replicas and retried sends are deduplicated by the
// broker within the producer session.
func NewProducerConfig(cfg config.Kafka, clientID string) *sarama.Config {
	c := sarama.NewConfig()
	c.ClientID = clientID
	c.Version = sarama.V3_0_0_0

	c.Producer.Idempotent = true
	c.Producer.RequiredAcks = sarama.WaitForAll
	c.Net.MaxOpenRequests = 1
	c.Producer.Return.Successes = true
	c.Producer.Return.Errors = true
	c.Producer.Partitioner = sarama.NewHashPartitioner
	c.Producer.Timeout = cfg.ProducerTimeout

	c.Producer.Retry.Max = cfg.ProducerMaxRetries
	c.Producer.Retry.BackoffFunc = ExponentialBackoff(cfg.ProducerBackoff)
	c.Metadata.Retry.Max = cfg.ProducerMaxRetries
	c.Metadata.Retry.Backoff = cfg.ProducerBackoff

	return c
}

// ExponentialBackoff doubles base on every retry, capped at thirty seconds.
func ExponentialBackoff(base time.Duration) func(retries, maxRetries int) time.Duration {
	return func(retries, _ int) time.Duration {
		d := base
		for i := 0; i < retries && d < maxProducerBackoff; i++ {
			d *= 2
		}
		return min(d, maxProducerBackoff)
	}
}

// NewSyncProducer connects an idempotent producer to the configured brokers.
func NewSyncProducer(cfg config.Kafka, clientID string) (sarama.SyncProducer, error) {
	p, err := sarama.NewSyncProducer(cfg.Brokers, NewProducerConfig(cfg, clientID))
	if err != nil {
		return nil, fmt.Errorf("error creating producer: %w", err)
	}
	return p, nil
}

// SyncSender is the part of sarama.SyncProducer a publisher needs.
type SyncSender interface {
	SendMessage(msg *sarama.ProducerMessage) (partition int32, offset int64, err error)
	Close() error
}

// LazySyncProducer connects on the first send instead of at construction, so
// a process can start before its brokers are reachable. A failed connect is
// returned to that sender and retried by the next one.
type LazySyncProducer struct {
	mu       sync.Mutex
	connect  func() (sarama.SyncProducer, error)
	producer sarama.SyncProducer
	closed   bool
}

func NewLazySyncProducer(cfg config.Kafka, clientID string) *LazySyncProducer {
	return &LazySyncProducer{
		connect: func() (sarama.SyncProducer, error) { return NewSyncProducer(cfg, clientID) },
	}
}

func (p *LazySyncProducer) SendMessage(msg *sarama.ProducerMessage) (int32, int64, error) {
	producer, err := p.get()
	if err != nil {
		return -1, -1, err
	}
	return producer.SendMessage(msg)
}

func (p *LazySyncProducer) get() (sarama.SyncProducer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, sarama.ErrClosedClient
	}
	if p.producer == nil {
		producer, err := p.connect()
		if err != nil {
			return nil, err
		}
		p.producer = producer
	}
	return p.producer, nil
}

// Close releases the producer if it was ever connected.
func (p *LazySyncProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
