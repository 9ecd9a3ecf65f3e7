package messaging

import (
	"context"
	"strconv"

	platformkafka "github.com/pc7stha/ShopVerse/internal/platform/kafka"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// DeadLetterSink keeps messages that could not be processed so they can be
// inspected or replayed.
type DeadLetterSink interface {
	Send(ctx context.Context, msg kafka.Message, reason error) error
}

// KafkaDeadLetterSink copies failed messages to a dead-letter topic, keeping
// the original key, value and headers and recording where the message came
// from and why it failed.
type KafkaDeadLetterSink struct {
	producer platformkafka.Producer
}

// NewKafkaDeadLetterSink expects a producer bound to the dead-letter topic.
func NewKafkaDeadLetterSink(producer platformkafka.Producer) *KafkaDeadLetterSink {
	return &KafkaDeadLetterSink{producer: producer}
}

func (s *KafkaDeadLetterSink) Send(ctx context.Context, msg kafka.Message, reason error) error {
	headers := make([]kafka.Header, 0, len(msg.Headers)+4)
	headers = append(headers, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: platformkafka.HeaderOriginalTopic, Value: []byte(msg.Topic)},
		kafka.Header{Key: platformkafka.HeaderOriginalPartition, Value: []byte(strconv.Itoa(msg.Partition))},
		kafka.Header{Key: platformkafka.HeaderOriginalOffset, Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		kafka.Header{Key: platformkafka.HeaderErrorMessage, Value: []byte(reason.Error())},
	)

	return s.producer.WriteMessage(ctx, kafka.Message{
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	})
}

func (s *KafkaDeadLetterSink) Close() error { return s.producer.Close() }

// LogDeadLetterSink records failed messages as structured error logs when no
// dead-letter topic is configured.
type LogDeadLetterSink struct {
	logger *zap.Logger
}

func NewLogDeadLetterSink(logger *zap.Logger) *LogDeadLetterSink {
	return &LogDeadLetterSink{logger: logger}
}

func (s *LogDeadLetterSink) Send(_ context.Context, msg kafka.Message, reason error) error {
	s.logger.Error("🚨 Dead letter message",
		zap.String("original_topic", msg.Topic),
		zap.Int("original_partition", msg.Partition),
		zap.Int64("original_offset", msg.Offset),
		zap.String("event_type", platformkafka.HeaderValue(msg.Headers, platformkafka.HeaderEventType)),
		zap.String("correlation_id", platformkafka.HeaderValue(msg.Headers, platformkafka.HeaderCorrelationID)),
		zap.ByteString("key", msg.Key),
		zap.ByteString("value", msg.Value),
		zap.NamedError("reason", reason),
	)
	return nil
}
