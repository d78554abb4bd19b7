package failure

import "context"

// Kind enumerates the outcome classes of processing a single message.
type Kind int

const (
	// KindSuccess indicates the process function returned without error.
	KindSuccess Kind = iota
	// KindMalformedInput indicates the message body could not be decoded or failed schema validation.
	// Retrying cannot change the result.
	KindMalformedInput
	// KindPermanent indicates a deterministic failure that will never succeed on redelivery.
	KindPermanent
	// KindTransient indicates a failure that may succeed if the message is delivered again.
	KindTransient
	// KindUnknown indicates a failure that was neither permanent nor transient,
	// including a panic inside the process function.
	KindUnknown
)

// String returns the lower-case log name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindMalformedInput:
		return "malformed_input"
	case KindPermanent:
		return "permanent"
	case KindTransient:
		return "transient"
	case KindUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// Retryable reports whether the kind is eligible for redelivery at all.
// Unknown failures are treated like transient ones.
func (k Kind) Retryable() bool {
	return k == KindTransient || k == KindUnknown
}

// Log categories attached to every per-message log line.
const (
	CategoryProcessed         = "processed"
	CategoryRetrying          = "retrying"
	CategoryInvalidInput      = "terminal_drop:invalid_input"
	CategoryPermanent         = "terminal_drop:permanent"
	CategoryThresholdExceeded = "terminal_drop:threshold_exceeded"
)

// Decision is the verdict for one message: whether its id goes into the retry list,
// and the log category describing why.
type Decision struct {
	Retry    bool
	Category string
}

// Policy decides whether a classified message should be redelivered.
type Policy interface {
	Decide(ctx context.Context, kind Kind, attempt int) Decision
}

// terminal returns the decision for kinds that are never retried regardless of policy.
func terminal(kind Kind) (Decision, bool) {
	switch kind {
	case KindSuccess:
		return Decision{Category: CategoryProcessed}, true
	case KindMalformedInput:
		return Decision{Category: CategoryInvalidInput}, true
	case KindPermanent:
		return Decision{Category: CategoryPermanent}, true
	case KindTransient, KindUnknown:
		return Decision{}, false
	default:
		// An out-of-range kind is handled like an unknown failure.
		return Decision{}, false
	}
}
