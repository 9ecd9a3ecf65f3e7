package messaging

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/IBM/sarama"
	"github.com/sony/gobreaker"
)

// ErrMalformedMessage marks payloads that cannot be turned into a usable event.
var ErrMalformedMessage = errors.New("malformed message")

// ErrorKind classifies why a publish failed.
type ErrorKind int

const (
	// BrokerUnavailable means no broker could be reached, or the circuit
	// breaker refused the send.
	BrokerUnavailable ErrorKind = iota + 1
	// SendRejected means the broker answered but refused the record after
	// the producer's bounded retries.
	SendRejected
	// Canceled means the caller stopped waiting for the acknowledgement.
	Canceled
)

func (k ErrorKind) String() string {
	switch k {
	case BrokerUnavailable:
		return "broker unavailable"
	case SendRejected:
		return "send rejected"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// PublishError is returned by Publisher implementations when an event could
// not be handed to the broker.
type PublishError struct {
	Topic     string
	EventType string
	Kind      ErrorKind
	Err       error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("failed to publish %s to %s (%s): %v", e.EventType, e.Topic, e.Kind, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

func newPublishError(topic, eventType string, err error) *PublishError {
	return &PublishError{Topic: topic, EventType: eventType, Kind: classify(err), Err: err}
}

func classify(err error) ErrorKind {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Canceled
	case errors.Is(err, sarama.ErrOutOfBrokers),
		errors.Is(err, sarama.ErrNotConnected),
		errors.Is(err, sarama.ErrClosedClient),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests),
		errors.As(err, &netErr):
		return BrokerUnavailable
	default:
		return SendRejected
	}
}

// IsBrokerUnavailable reports whether err is a publish failure caused by an
// unreachable broker.
func IsBrokerUnavailable(err error) bool {
	var perr *PublishError
	return errors.As(err, &perr) && perr.Kind == BrokerUnavailable
}
