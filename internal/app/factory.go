package app

import (
	"context"
	"fmt"

	"github.com/pc7stha/ShopVerse/internal/config"
	"github.com/pc7stha/ShopVerse/internal/events"
	"github.com/pc7stha/ShopVerse/internal/inventory"
	"github.com/pc7stha/ShopVerse/internal/messaging"
	"github.com/pc7stha/ShopVerse/internal/order"
	"github.com/pc7stha/ShopVerse/internal/payment"
	"github.com/pc7stha/ShopVerse/internal/platform/httpserver"
	platformkafka "github.com/pc7stha/ShopVerse/internal/platform/kafka"

	"github.com/gin-gonic/gin"
)

// Runner is a long-running component stopped by cancelling its context.
type Runner interface {
	Run(ctx context.Context) error
}

// buildComponents wires the runners of the named service.
func buildComponents(c *Container) ([]Runner, error) {
	engine := httpserver.NewEngine(c.Logger(), c.Metrics(), c.Config().Env == "production")

	var runners []Runner
	switch name := c.Config().ServiceName; name {
	case config.OrderService:
		order.NewHandler(order.NewService(c.Publisher(), c.Logger(), c.Metrics())).RegisterRoutes(engine)

	case config.InventoryService:
		store := inventory.NewStore(inventorySeed(c.Config()))
		reserver := inventory.NewReserver(store, c.Publisher(), c.Logger(), c.Metrics())
		inventory.RegisterRoutes(engine, store)

		consumer, err := newOrdersConsumer(c, reserver.HandleOrderCreated)
		if err != nil {
			return nil, err
		}
		runners = append(runners, consumer)

	case config.PaymentService:
		handler := payment.NewHandler(c.Logger(), c.Metrics())
		consumer, err := newOrdersConsumer(c, handler.HandleOrderCreated)
		if err != nil {
			return nil, err
		}
		runners = append(runners, consumer)

	default:
		return nil, fmt.Errorf("unknown service %q", name)
	}

	runners = append(runners, newHTTPServer(c, engine))
	return runners, nil
}

func inventorySeed(cfg *config.Config) map[string]int {
	if len(cfg.Inventory.Seed) == 0 {
		return inventory.DefaultSeed()
	}
	return cfg.Inventory.Seed
}

func newOrdersConsumer(c *Container, handler messaging.HandlerFunc[events.OrderCreated]) (*messaging.Consumer[events.OrderCreated], error) {
	return newConsumer(c, config.OrdersTopic, events.TypeOrderCreated, handler)
}

func newConsumer[T any](c *Container, topic, eventType string, handler messaging.HandlerFunc[T]) (*messaging.Consumer[T], error) {
	cfg := c.Config().Kafka

	deadLetters, err := c.DeadLetterSink(topic)
	if err != nil {
		return nil, err
	}

	fetcher, err := platformkafka.NewFetcher(cfg, topic, c.Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to create reader for %s: %w", topic, err)
	}

	return messaging.NewConsumer(messaging.ConsumerConfig{
		Topic:       topic,
		Group:       cfg.GroupID,
		EventType:   eventType,
		WarmUpDelay: cfg.WarmUpDelay,
		Buffer:      cfg.ConsumerBuffer,
	}, fetcher, handler, deadLetters, c.Logger(), c.Metrics()), nil
}

func newHTTPServer(c *Container, engine *gin.Engine) *httpserver.Server {
	cfg := c.Config()
	return httpserver.NewServer(cfg.HTTP.Addr, cfg.ServiceName, engine, cfg.HTTP.ShutdownTimeout, c.Logger())
}
