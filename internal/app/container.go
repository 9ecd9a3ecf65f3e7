package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pc7stha/ShopVerse/internal/config"
	"github.com/pc7stha/ShopVerse/internal/messaging"
	platformkafka "github.com/pc7stha/ShopVerse/internal/platform/kafka"
	"github.com/pc7stha/ShopVerse/internal/platform/observability"

	"go.uber.org/zap"
)

// Container holds expensive-to-create singleton resources and dependencies
type Container struct {
	config       *config.Config
	logger       *zap.Logger
	metrics      *observability.Metrics
	kafka        *messaging.KafkaPublisher
	publisher    messaging.Publisher
	closers      []io.Closer
	otelShutdown observability.ShutdownFunc
}

// NewContainer loads configuration for serviceName and sets up logging,
// tracing and metrics. Broker clients are created on demand.
func NewContainer(ctx context.Context, serviceName string) (*Container, error) {
	cfg, err := config.LoadConfig(serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	c := &Container{
		config:  cfg,
		metrics: observability.NewMetrics(),
	}

	if err := c.setupObservability(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

// setupObservability installs the OTel SDKs first so the logger can tee into
// the global logger provider.
func (c *Container) setupObservability(ctx context.Context) error {
	otelLogShutdown, logErr := observability.SetupLoggingSDK(ctx, c.config)
	otelTraceShutdown, traceErr := observability.SetupTracingSDK(ctx, c.config)
	c.otelShutdown = observability.JoinShutdown(otelTraceShutdown, otelLogShutdown)

	logger, err := observability.NewLogger(c.config)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	c.logger = logger

	// Telemetry export is best effort; the service runs without it.
	if logErr != nil {
		c.logger.Error("Failed to setup OpenTelemetry logging", zap.Error(logErr))
	}
	if traceErr != nil {
		c.logger.Error("Failed to setup OpenTelemetry tracing", zap.Error(traceErr))
	}

	c.logger.Info("Logger initialized",
		zap.String("env", c.config.Env),
		zap.Bool("otel_export", c.config.Otel.Enabled()),
	)
	return nil
}

// Publisher returns the process-wide publisher. The idempotent producer
// connects on the first publish, so the service starts while brokers are
// still coming up and the breaker sheds load until they answer.
func (c *Container) Publisher() messaging.Publisher {
	if c.publisher != nil {
		return c.publisher
	}

	producer := platformkafka.NewLazySyncProducer(c.config.Kafka, c.config.ServiceName)
	c.kafka = messaging.NewKafkaPublisher(producer, c.logger, c.metrics)
	c.publisher = messaging.NewBreakerPublisher(c.kafka,
		messaging.BreakerSettings(c.config.ServiceName+"-publisher", c.logger))

	c.logger.Info("✅ Kafka producer configured", zap.Strings("brokers", c.config.Kafka.Brokers))
	return c.publisher
}

// DeadLetterSink returns where unprocessable messages from topic go: the
// topic's dead-letter topic, or the error log when that is disabled.
func (c *Container) DeadLetterSink(topic string) (messaging.DeadLetterSink, error) {
	if !c.config.Kafka.DeadLetterEnabled {
		return messaging.NewLogDeadLetterSink(c.logger), nil
	}

	writer, err := platformkafka.NewWriter(c.config.Kafka, config.DeadLetterTopic(topic), c.config.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("failed to create dead-letter writer: %w", err)
	}
	sink := messaging.NewKafkaDeadLetterSink(writer)
	c.closers = append(c.closers, sink)
	return sink, nil
}

// Shutdown gracefully shuts down all infrastructure components
func (c *Container) Shutdown(ctx context.Context) {
	c.logger.Info("Shutting down infrastructure...")

	var errs error
	if c.kafka != nil {
		if err := c.kafka.Close(); err != nil {
			errs = errors.Join(errs, fmt.Errorf("producer: %w", err))
		}
	}
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = errors.Join(errs, fmt.Errorf("dead-letter writer: %w", err))
		}
	}
	if err := c.otelShutdown(ctx); err != nil {
		errs = errors.Join(errs, fmt.Errorf("otel: %w", err))
	}
	if errs != nil {
		c.logger.Error("Infrastructure shutdown finished with errors", zap.Error(errs))
	}

	c.logger.Info("Infrastructure shutdown complete")
	_ = c.logger.Sync()
}

func (c *Container) Config() *config.Config          { return c.config }
func (c *Container) Logger() *zap.Logger             { return c.logger }
func (c *Container) Metrics() *observability.Metrics { return c.metrics }
