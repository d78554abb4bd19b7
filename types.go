package sqsbatch

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/hatsunemiku3939/sqsbatch/pkg/jsonschema"
	failure "github.com/hatsunemiku3939/sqsbatch/policy/failure"
)

// InboundMessage is one delivery of a queued message.
type InboundMessage struct {
	// ID is unique within a batch and opaque to the processor.
	ID string
	// DeliveryAttempt is 1 on first delivery and grows with each redelivery.
	DeliveryAttempt int
	// Body is the raw JSON message body.
	Body []byte
}

// Payload is the decoded message body.
type Payload struct {
	// Simulate selects the outcome path of the simulated downstream: success, transient, permanent or unknown.
	Simulate string
	// Reason is used verbatim in failure diagnostics.
	Reason string

	// Fields holds every top-level field of the body, including simulate and reason.
	// It is nil when the body is not a JSON object.
	Fields map[string]any

	// Raw is the undecoded body.
	Raw json.RawMessage
}

// BatchReport is the result of processing one batch.
type BatchReport struct {
	// RetryIDs lists, in batch order, the messages the source must redeliver.
	// Every message not listed is resolved.
	RetryIDs []string
}

// ShouldRetry reports whether id is in the retry list.
func (r BatchReport) ShouldRetry(id string) bool {
	for _, rid := range r.RetryIDs {
		if rid == id {
			return true
		}
	}
	return false
}

// ProcessFunc runs application logic for one decoded message.
// Returning an error built with Permanent or Transient selects that failure kind;
// any other error, or a panic, is an unknown failure.
type ProcessFunc func(ctx context.Context, payload Payload) error

// Processor classifies per-message outcomes of a batch and decides which messages to redeliver.
// A Processor holds no per-batch state and is safe for concurrent use.
type Processor struct {
	policy        failure.Policy
	process       ProcessFunc
	logger        *slog.Logger
	payloadSchema string
	validator     *jsonschema.Validator
}

// ParseReceiveCount converts a queue receive-count attribute into a delivery attempt.
// Missing, unparseable or non-positive values count as the first delivery.
func ParseReceiveCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// IsObject reports whether the body was a JSON object.
func (p Payload) IsObject() bool { return p.Fields != nil }
