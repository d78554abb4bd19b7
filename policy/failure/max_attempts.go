package failure

import "context"

// DefaultMaxRetryAttempts is used when no valid threshold is configured.
const DefaultMaxRetryAttempts = 2

// MaxAttemptsPolicy retries transient and unknown failures while the delivery attempt
// is within MaxRetryAttempts. Malformed input and permanent failures are always dropped.
type MaxAttemptsPolicy struct {
	MaxRetryAttempts int
}

// Decide implements the Policy interface.
// An attempt equal to MaxRetryAttempts is still within budget.
func (p MaxAttemptsPolicy) Decide(_ context.Context, kind Kind, attempt int) Decision {
	if d, ok := terminal(kind); ok {
		return d
	}
	if attempt <= p.MaxRetryAttempts {
		return Decision{Retry: true, Category: CategoryRetrying}
	}
	return Decision{Category: CategoryThresholdExceeded}
}

// Threshold returns MaxRetryAttempts for logging.
func (p MaxAttemptsPolicy) Threshold() int { return p.MaxRetryAttempts }
