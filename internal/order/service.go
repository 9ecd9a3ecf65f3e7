package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pc7stha/ShopVerse/internal/config"
	"github.com/pc7stha/ShopVerse/internal/events"
	"github.com/pc7stha/ShopVerse/internal/messaging"
	"github.com/pc7stha/ShopVerse/internal/platform/observability"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const StatusCreated = "Created"

// ErrInvalidOrder is returned when the order would not make a valid
// OrderCreated event.
var ErrInvalidOrder = errors.New("invalid order")

type PlaceOrderInput struct {
	UserID        string
	CorrelationID string
	Items         []events.OrderItem
}

type PlaceOrderResult struct {
	OrderID     uuid.UUID `json:"orderId"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"totalAmount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Service accepts orders and announces them with OrderCreated. Orders are
// not stored.
type Service struct {
	publisher messaging.Publisher
	logger    *zap.Logger
	metrics   *observability.Metrics
}

func NewService(publisher messaging.Publisher, logger *zap.Logger, metrics *observability.Metrics) *Service {
	return &Service{publisher: publisher, logger: logger, metrics: metrics}
}

func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (PlaceOrderResult, error) {
	created := events.NewOrderCreated(uuid.New(), in.UserID, in.CorrelationID, in.Items)
	if err := events.Validate(created); err != nil {
		return PlaceOrderResult{}, fmt.Errorf("%w: %w", ErrInvalidOrder, err)
	}

	logger := observability.LoggerFromContext(ctx, s.logger).With(
		zap.String("order_id", created.OrderID.String()),
		zap.String("user_id", created.UserID),
		zap.String("correlation_id", created.CorrelationID),
	)

	if _, err := s.publisher.Publish(ctx, config.OrdersTopic, created); err != nil {
		logger.Error("❌ Failed to announce order", zap.Error(err))
		return PlaceOrderResult{}, fmt.Errorf("failed to publish order %s: %w", created.OrderID, err)
	}

	s.metrics.OrdersPlaced.Inc()
	logger.Info("🛒 Order placed",
		zap.Float64("total_amount", created.TotalAmount),
		zap.Int("items", len(created.Items)),
	)

	return PlaceOrderResult{
		OrderID:     created.OrderID,
		Status:      StatusCreated,
		TotalAmount: created.TotalAmount,
		CreatedAt:   created.OccurredOn,
	}, nil
}
