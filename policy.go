package sqsbatch

import failure "github.com/hatsunemiku3939/sqsbatch/policy/failure"

// DefaultMaxRetryAttempts is the threshold used when none is configured.
const DefaultMaxRetryAttempts = failure.DefaultMaxRetryAttempts

// RetryPolicy caps redelivery of transient and unknown failures at MaxRetryAttempts.
type RetryPolicy = failure.MaxAttemptsPolicy

// NewRetryPolicy returns a RetryPolicy with the given threshold.
func NewRetryPolicy(maxRetryAttempts int) RetryPolicy {
	return RetryPolicy{MaxRetryAttempts: maxRetryAttempts}
}
