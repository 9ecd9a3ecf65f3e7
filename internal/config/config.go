package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const ServiceVersion = "0.1.0"

// Service names double as default consumer group ids.
const (
	OrderService     = "order-service"
	InventoryService = "inventory-service"
	PaymentService   = "payment-service"
)

const (
	OrdersTopic    = "orders"
	PaymentsTopic  = "payments"
	InventoryTopic = "inventory"

	DeadLetterSuffix = ".dlq"
)

const (
	LogsPath      = "/otlp/v1/logs"
	TracesPath    = "/otlp/v1/traces"
	ExportTimeout = 30 * time.Second
	MaxQueueSize  = 2048
)

const (
	OffsetEarliest = "earliest"
	OffsetLatest   = "latest"
)

var defaultHTTPAddrs = map[string]string{
	OrderService:     ":8080",
	InventoryService: ":8081",
	PaymentService:   ":8082",
}

type Config struct {
	ServiceName string    `yaml:"-"`
	Env         string    `yaml:"env" env:"APP_ENV" env-default:"development"`
	LogLevel    string    `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	HTTP        HTTP      `yaml:"http"`
	Kafka       Kafka     `yaml:"kafka"`
	Otel        Otel      `yaml:"otel"`
	Inventory   Inventory `yaml:"inventory"`
}

type HTTP struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type Kafka struct {
	Brokers            []string      `yaml:"brokers" env:"KAFKA_BOOTSTRAP_SERVERS" env-default:"localhost:19092"`
	GroupID            string        `yaml:"group_id" env:"KAFKA_GROUP_ID"`
	AutoOffsetReset    string        `yaml:"auto_offset_reset" env:"KAFKA_AUTO_OFFSET_RESET" env-default:"earliest"`
	EnableAutoCommit   bool          `yaml:"enable_auto_commit" env:"KAFKA_ENABLE_AUTO_COMMIT" env-default:"true"`
	CommitInterval     time.Duration `yaml:"commit_interval" env:"KAFKA_COMMIT_INTERVAL" env-default:"5s"`
	WarmUpDelay        time.Duration `yaml:"warmup_delay" env:"KAFKA_WARMUP_DELAY" env-default:"5s"`
	ConsumerBuffer     int           `yaml:"consumer_buffer" env:"KAFKA_CONSUMER_BUFFER" env-default:"8"`
	DeadLetterEnabled  bool          `yaml:"dead_letter_enabled" env:"KAFKA_DEAD_LETTER_ENABLED" env-default:"true"`
	ProducerMaxRetries int           `yaml:"producer_max_retries" env:"KAFKA_PRODUCER_MAX_RETRIES" env-default:"3"`
	ProducerBackoff    time.Duration `yaml:"producer_retry_backoff" env:"KAFKA_PRODUCER_RETRY_BACKOFF" env-default:"1s"`
	ProducerTimeout    time.Duration `yaml:"producer_timeout" env:"KAFKA_PRODUCER_TIMEOUT" env-default:"10s"`
}

type Otel struct {
	Endpoint   string `yaml:"endpoint" env:"OTEL_ENDPOINT"`
	AuthHeader string `yaml:"auth_header" env:"OTEL_AUTH_HEADER"`
}

// Enabled reports whether telemetry should be exported at all.
func (o Otel) Enabled() bool { return o.Endpoint != "" }

type Inventory struct {
	Seed map[string]int `yaml:"seed" env:"INVENTORY_SEED" env-default:"laptop-001:100,mouse-001:500,keyboard-001:200,monitor-001:50,headphones-001:150"`
}

// DeadLetterTopic names the topic that receives unprocessable messages from topic.
func DeadLetterTopic(topic string) string { return topic + DeadLetterSuffix }

// LoadConfig reads configuration for the named service from CONFIG_PATH (if
// set) and the environment. A .env file in the working directory is loaded
// first when present.
func LoadConfig(serviceName string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.ServiceName = serviceName
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = serviceName
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = defaultHTTPAddrs[serviceName]
	}
	cfg.Kafka.AutoOffsetReset = strings.ToLower(cfg.Kafka.AutoOffsetReset)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BOOTSTRAP_SERVERS is required")
	}
	switch c.Kafka.AutoOffsetReset {
	case OffsetEarliest, OffsetLatest:
	default:
		return fmt.Errorf("KAFKA_AUTO_OFFSET_RESET must be %q or %q, got %q", OffsetEarliest, OffsetLatest, c.Kafka.AutoOffsetReset)
	}
	if c.Kafka.ConsumerBuffer < 1 {
		return fmt.Errorf("KAFKA_CONSUMER_BUFFER must be positive, got %d", c.Kafka.ConsumerBuffer)
	}
	if c.Kafka.ProducerMaxRetries < 1 {
		return fmt.Errorf("KAFKA_PRODUCER_MAX_RETRIES must be at least 1 for an idempotent producer")
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	return nil
}
