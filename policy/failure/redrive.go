package failure

import "context"

// RedrivePolicy retries every transient or unknown failure and leaves the attempt cap
// to the queue's redrive policy (maxReceiveCount plus a dead-letter queue).
type RedrivePolicy struct{}

// Decide implements the Policy interface for queue redrive delegation.
func (RedrivePolicy) Decide(_ context.Context, kind Kind, _ int) Decision {
	if d, ok := terminal(kind); ok {
		return d
	}
	return Decision{Retry: true, Category: CategoryRetrying}
}
