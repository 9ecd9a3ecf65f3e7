package messaging

import (
	"context"
	"sync"
	"time"

	platformkafka "github.com/pc7stha/ShopVerse/internal/platform/kafka"
	"github.com/pc7stha/ShopVerse/internal/platform/observability"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// HandlerFunc processes one decoded event. A returned error sends the
// original message to the dead-letter sink.
type HandlerFunc[T any] func(ctx context.Context, event *T) error

// ConsumerConfig describes one subscription.
type ConsumerConfig struct {
	Topic string
	Group string
	// EventType, when set, skips messages whose event-type header names a
	// different event. Messages without the header are still decoded.
	EventType   string
	WarmUpDelay time.Duration
	// Buffer bounds how many fetched messages may wait for the handler.
	Buffer int
}

// Consumer reads one topic, decodes each message into T and hands it to a
// handler, one message at a time and in partition order.
type Consumer[T any] struct {
	cfg         ConsumerConfig
	fetcher     platformkafka.Fetcher
	handler     HandlerFunc[T]
	deadLetters DeadLetterSink
	logger      *zap.Logger
	metrics     *observability.Metrics
	tracer      observability.Tracer
	newBackOff  func() backoff.BackOff
}

func NewConsumer[T any](
	cfg ConsumerConfig,
	fetcher platformkafka.Fetcher,
	handler HandlerFunc[T],
	deadLetters DeadLetterSink,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *Consumer[T] {
	if cfg.Buffer < 1 {
		cfg.Buffer = 1
	}
	return &Consumer[T]{
		cfg:         cfg,
		fetcher:     fetcher,
		handler:     handler,
		deadLetters: deadLetters,
		logger:      logger.With(zap.String("topic", cfg.Topic), zap.String("group", cfg.Group)),
		metrics:     metrics,
		tracer:      otel.Tracer("shopverse/messaging"),
		newBackOff:  fetchBackOff,
	}
}

func fetchBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Run blocks until ctx is done. A message already handed to the handler is
// finished and acked before Run returns; messages still buffered are never
// acked, so their offsets are not committed. The fetcher is closed on the
// way out.
func (c *Consumer[T]) Run(ctx context.Context) error {
	defer func() {
		if err := c.fetcher.Close(); err != nil {
			c.logger.Error("Failed to close Kafka reader", zap.Error(err))
		}
		c.logger.Info("🛑 Consumer stopped")
	}()

	c.logger.Info("🎧 Consumer starting", zap.Duration("warm_up", c.cfg.WarmUpDelay))
	if !c.warmUp(ctx) {
		return nil
	}

	messages := make(chan kafka.Message, c.cfg.Buffer)
	pumpCtx, stopPump := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(messages)
		c.pump(pumpCtx, messages)
	}()
	defer func() {
		stopPump()
		wg.Wait()
	}()

	c.logger.Info("✅ Consumer subscribed")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Context done, exiting Kafka read loop.")
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			// Buffered messages left unacked here are redelivered after a restart.
			if ctx.Err() != nil {
				c.logger.Info("Context done, exiting Kafka read loop.", zap.Int("unprocessed", len(messages)+1))
				return nil
			}
			c.process(ctx, msg)
		}
	}
}

func (c *Consumer[T]) warmUp(ctx context.Context) bool {
	if c.cfg.WarmUpDelay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(c.cfg.WarmUpDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *Consumer[T]) pump(ctx context.Context, out chan<- kafka.Message) {
	retry := c.newBackOff()
	for {
		msg, err := c.fetcher.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			wait := retry.NextBackOff()
			if wait == backoff.Stop {
				retry.Reset()
				wait = retry.NextBackOff()
			}
			c.logger.Error("❌ Error reading from Kafka", zap.Error(err), zap.Duration("retry_in", wait))
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}
		retry.Reset()

		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Consumer[T]) process(ctx context.Context, msg kafka.Message) {
	// Detached so that shutdown lets the current message finish.
	ctx = context.WithoutCancel(ctx)
	carrier := platformkafka.HeaderCarrier(msg.Headers)
	ctx = otel.GetTextMapPropagator().Extract(ctx, &carrier)

	eventType := platformkafka.HeaderValue(msg.Headers, platformkafka.HeaderEventType)
	ctx, span := c.tracer.Start(ctx, c.cfg.Topic+" process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingDestinationNameKey.String(c.cfg.Topic),
			attribute.String("messaging.consumer.group.name", c.cfg.Group),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
			attribute.String("messaging.event_type", eventType),
		),
	)
	defer span.End()

	logger := observability.LoggerFromContext(ctx, c.logger).With(
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
		zap.String("event_type", eventType),
		zap.String("correlation_id", platformkafka.HeaderValue(msg.Headers, platformkafka.HeaderCorrelationID)),
	)
	logger.Info("📨 Received message")

	if c.cfg.EventType != "" && eventType != "" && eventType != c.cfg.EventType {
		logger.Debug("Skipping message of another event type", zap.String("expected", c.cfg.EventType))
		c.count(observability.OutcomeSkipped)
		c.ack(ctx, msg, logger)
		return
	}

	result := Decode[T](msg.Value)
	if !result.OK() {
		logger.Error("❌ Malformed message", zap.Error(result.Err), zap.ByteString("raw_value", msg.Value))
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, "malformed message")
		c.count(observability.OutcomeMalformed)
		c.deadLetter(ctx, msg, result.Err, logger)
		c.ack(ctx, msg, logger)
		return
	}

	if err := c.handler(ctx, result.Event); err != nil {
		logger.Error("❌ Failed to handle message", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "handler failed")
		c.count(observability.OutcomeHandlerError)
		c.deadLetter(ctx, msg, err, logger)
		c.ack(ctx, msg, logger)
		return
	}

	c.count(observability.OutcomeSuccess)
	c.ack(ctx, msg, logger)
}

func (c *Consumer[T]) deadLetter(ctx context.Context, msg kafka.Message, reason error, logger *zap.Logger) {
	if c.deadLetters == nil {
		return
	}
	if err := c.deadLetters.Send(ctx, msg, reason); err != nil {
		logger.Error("❌ Failed to dead-letter message", zap.Error(err))
		return
	}
	c.metrics.DeadLetters.WithLabelValues(c.cfg.Topic).Inc()
}

func (c *Consumer[T]) ack(ctx context.Context, msg kafka.Message, logger *zap.Logger) {
	if err := c.fetcher.Ack(ctx, msg); err != nil {
		logger.Error("❌ Failed to commit offset", zap.Error(err))
	}
}

func (c *Consumer[T]) count(outcome string) {
	c.metrics.EventsConsumed.WithLabelValues(c.cfg.Topic, c.cfg.Group, outcome).Inc()
}
