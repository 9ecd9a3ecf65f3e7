package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// Producer writes single messages to the topic the writer was built for.
type Producer interface {
	WriteMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}

// Reader exposes explicit offset commits.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Fetcher yields the messages of one topic for one consumer group. Ack is
// called once the message has been fully handled.
type Fetcher interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Ack(ctx context.Context, msg kafka.Message) error
	Close() error
}
