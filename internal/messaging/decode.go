package messaging

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pc7stha/ShopVerse/internal/events"
)

// DecodeResult is the outcome of turning a message payload into an event.
// Exactly one of Event and Err is set.
type DecodeResult[T any] struct {
	Event *T
	Err   error
}

func (r DecodeResult[T]) OK() bool { return r.Err == nil }

// Decode parses payload as JSON into T and validates the result. Empty,
// null, unparsable and invalid payloads yield an error wrapping
// ErrMalformedMessage.
func Decode[T any](payload []byte) DecodeResult[T] {
	if len(bytes.TrimSpace(payload)) == 0 {
		return DecodeResult[T]{Err: fmt.Errorf("%w: empty payload", ErrMalformedMessage)}
	}

	var event *T
	if err := json.Unmarshal(payload, &event); err != nil {
		return DecodeResult[T]{Err: fmt.Errorf("%w: %w", ErrMalformedMessage, err)}
	}
	if event == nil {
		return DecodeResult[T]{Err: fmt.Errorf("%w: null payload", ErrMalformedMessage)}
	}
	if err := events.Validate(event); err != nil {
		return DecodeResult[T]{Err: fmt.Errorf("%w: %w", ErrMalformedMessage, err)}
	}

	return DecodeResult[T]{Event: event}
}
