package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pc7stha/ShopVerse/internal/events"
	platformkafka "github.com/pc7stha/ShopVerse/internal/platform/kafka"
	"github.com/pc7stha/ShopVerse/internal/platform/observability"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DeliveryReceipt identifies where the broker stored a published event.
type DeliveryReceipt struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       string
}

// Publisher sends one integration event to one topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, event events.IntegrationEvent) (DeliveryReceipt, error)
}

// KafkaPublisher publishes through an idempotent sarama producer. It is safe
// for concurrent use and is meant to be shared by the whole process.
type KafkaPublisher struct {
	producer platformkafka.SyncSender
	logger   *zap.Logger
	metrics  *observability.Metrics
	tracer   observability.Tracer
}

func NewKafkaPublisher(producer platformkafka.SyncSender, logger *zap.Logger, metrics *observability.Metrics) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer("shopverse/messaging"),
	}
}

// Publish serializes event as camelCase JSON keyed by its event id and blocks
// until every in-sync replica acknowledged it, the producer gave up, or ctx
// is done. A canceled wait does not recall a send already in flight.
func (p *KafkaPublisher) Publish(ctx context.Context, topic string, event events.IntegrationEvent) (DeliveryReceipt, error) {
	events.Stamp(event)
	meta := event.Meta()
	eventType := event.EventType()
	key := meta.EventID.String()

	ctx, span := p.tracer.Start(ctx, topic+" publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingDestinationNameKey.String(topic),
			attribute.String("messaging.event_type", eventType),
			attribute.String("messaging.message.id", key),
		),
	)
	defer span.End()

	payload, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "serialization failed")
		return DeliveryReceipt{}, fmt.Errorf("failed to serialize %s: %w", eventType, err)
	}

	headers := platformkafka.RecordHeaderCarrier{
		{Key: []byte(platformkafka.HeaderEventType), Value: []byte(eventType)},
		{Key: []byte(platformkafka.HeaderCorrelationID), Value: []byte(meta.CorrelationID)},
	}
	otel.GetTextMapPropagator().Inject(ctx, &headers)

	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(payload),
		Headers: headers,
	}

	start := time.Now()
	partition, offset, err := p.send(ctx, msg)
	p.metrics.PublishDuration.WithLabelValues(topic).Observe(time.Since(start).Seconds())

	logger := observability.LoggerFromContext(ctx, p.logger).With(
		zap.String("topic", topic),
		zap.String("event_type", eventType),
		zap.String("event_id", key),
		zap.String("correlation_id", meta.CorrelationID),
	)

	if err != nil {
		perr := newPublishError(topic, eventType, err)
		p.metrics.EventsPublished.WithLabelValues(topic, eventType, observability.OutcomeFailure).Inc()
		span.RecordError(perr)
		span.SetStatus(codes.Error, perr.Kind.String())
		logger.Error("❌ Failed to publish event", zap.Stringer("kind", perr.Kind), zap.Error(err))
		return DeliveryReceipt{}, perr
	}

	p.metrics.EventsPublished.WithLabelValues(topic, eventType, observability.OutcomeSuccess).Inc()
	logger.Info("📤 Published event", zap.Int32("partition", partition), zap.Int64("offset", offset))

	return DeliveryReceipt{Topic: topic, Partition: partition, Offset: offset, Key: key}, nil
}

func (p *KafkaPublisher) send(ctx context.Context, msg *sarama.ProducerMessage) (int32, int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	type result struct {
		partition int32
		offset    int64
		err       error
	}
	done := make(chan result, 1)
	go func() {
		partition, offset, err := p.producer.SendMessage(msg)
		done <- result{partition: partition, offset: offset, err: err}
	}()

	select {
	case <-ctx.Done():
		return 0, 0, ctx.Err()
	case r := <-done:
		return r.partition, r.offset, r.err
	}
}

// Close flushes buffered records and releases the producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
