package kafka

import (
	"context"
	"time"

	"github.com/pc7stha/ShopVerse/internal/config"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// NewReaderConfig builds the group reader configuration for topic. With
// auto-commit enabled commits are queued and flushed every CommitInterval.
// Otherwise CommitMessages blocks until the broker stored the offset.
func NewReaderConfig(cfg config.Kafka, topic string, logger *zap.Logger) kafka.ReaderConfig {
	startOffset := kafka.FirstOffset
	if cfg.AutoOffsetReset == config.OffsetLatest {
		startOffset = kafka.LastOffset
	}

	var commitInterval time.Duration
	if cfg.EnableAutoCommit {
		commitInterval = cfg.CommitInterval
	}

	return kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          topic,
		StartOffset:    startOffset,
		CommitInterval: commitInterval,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        500 * time.Millisecond,
		ErrorLogger:    kafka.LoggerFunc(logger.Sugar().Errorf),
	}
}

// NewFetcher opens a group reader on topic. Offsets are committed only for
// messages the caller acked; with auto-commit enabled the reader batches
// those commits and flushes them every CommitInterval, otherwise each Ack
// commits synchronously. Messages fetched but never acked are redelivered to
// the group after a restart.
func NewFetcher(cfg config.Kafka, topic string, logger *zap.Logger) (Fetcher, error) {
	return NewCommitAfterProcessFetcher(kafka.NewReader(NewReaderConfig(cfg, topic, logger))), nil
}

type commitAfterProcessFetcher struct {
	reader Reader
}

// NewCommitAfterProcessFetcher commits each message only after Ack, which
// gives at-least-once delivery to the handler.
func NewCommitAfterProcessFetcher(reader Reader) Fetcher {
	return &commitAfterProcessFetcher{reader: reader}
}

func (f *commitAfterProcessFetcher) Fetch(ctx context.Context) (kafka.Message, error) {
	return f.reader.FetchMessage(ctx)
}

func (f *commitAfterProcessFetcher) Ack(ctx context.Context, msg kafka.Message) error {
	return f.reader.CommitMessages(ctx, msg)
}

func (f *commitAfterProcessFetcher) Close() error { return f.reader.Close() }
