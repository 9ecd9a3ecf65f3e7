package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/pc7stha/ShopVerse/internal/events"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerPublisher fails fast while the broker is known to be down instead
// of making every caller wait out the producer's retries.
type BreakerPublisher struct {
	next Publisher
	cb   *gobreaker.CircuitBreaker
}

// BreakerSettings returns the breaker policy used in front of a publisher:
// five consecutive broker-unavailable failures open it for thirty seconds.
func BreakerSettings(name string, logger *zap.Logger) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !IsBrokerUnavailable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("⚡ Publisher circuit breaker changed state",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	}
}

func NewBreakerPublisher(next Publisher, settings gobreaker.Settings) *BreakerPublisher {
	return &BreakerPublisher{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *BreakerPublisher) Publish(ctx context.Context, topic string, event events.IntegrationEvent) (DeliveryReceipt, error) {
	receipt, err := executeWithBreaker(b.cb, func() (DeliveryReceipt, error) {
		return b.next.Publish(ctx, topic, event)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return DeliveryReceipt{}, newPublishError(topic, event.EventType(), err)
	}
	return receipt, err
}

// State exposes the breaker state for health reporting.
func (b *BreakerPublisher) State() gobreaker.State { return b.cb.State() }

func executeWithBreaker[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return *new(T), err
	}
	return res.(T), nil
}
