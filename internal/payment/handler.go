package payment

import (
	"context"

	"github.com/pc7stha/ShopVerse/internal/events"
	"github.com/pc7stha/ShopVerse/internal/platform/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Handler starts payment for newly created orders. Charging the customer
// and announcing PaymentProcessed happen elsewhere.
type Handler struct {
	logger  *zap.Logger
	metrics *observability.Metrics
	tracer  observability.Tracer
}

func NewHandler(logger *zap.Logger, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer("shopverse/payment"),
	}
}

func (h *Handler) HandleOrderCreated(ctx context.Context, order *events.OrderCreated) error {
	ctx, span := h.tracer.Start(ctx, "payment.initiate")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", order.OrderID.String()),
		attribute.Float64("payment.amount", order.TotalAmount),
		attribute.String("payment.currency", order.Currency),
	)

	logger := observability.LoggerFromContext(ctx, h.logger).With(
		zap.String("order_id", order.OrderID.String()),
		zap.String("correlation_id", order.CorrelationID),
	)
	logger.Info("💳 Processing payment",
		zap.String("user_id", order.UserID),
		zap.Float64("amount", order.TotalAmount),
		zap.String("currency", order.Currency),
	)

	h.metrics.PaymentsInitiated.Inc()
	logger.Info("✅ Payment initiated")
	return nil
}
