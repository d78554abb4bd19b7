package sqsbatch

import (
	"errors"
	"fmt"
	"runtime/debug"

	failure "github.com/hatsunemiku3939/sqsbatch/policy/failure"
)

// PermanentError marks a failure that will never succeed on redelivery.
type PermanentError struct {
	Reason string
	Err    error
}

func (e *PermanentError) Error() string { return describe(e.Reason, e.Err) }
func (e *PermanentError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrPermanent) true for any wrapped PermanentError.
func (e *PermanentError) Is(target error) bool { return target == ErrPermanent }

// TransientError marks a failure that may succeed if the message is delivered again.
type TransientError struct {
	Reason string
	Err    error
}

func (e *TransientError) Error() string { return describe(e.Reason, e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTransient) true for any wrapped TransientError.
func (e *TransientError) Is(target error) bool { return target == ErrTransient }

// Permanent returns a permanent failure with the given reason.
func Permanent(reason string) error { return &PermanentError{Reason: reason} }

// Transient returns a transient failure with the given reason.
func Transient(reason string) error { return &TransientError{Reason: reason} }

// AsPermanent marks err as permanent. It returns nil if err is nil.
func AsPermanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// AsTransient marks err as transient. It returns nil if err is nil.
func AsTransient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

func describe(reason string, err error) string {
	switch {
	case err == nil:
		return reason
	case reason == "":
		return err.Error()
	default:
		return reason + ": " + err.Error()
	}
}

// Outcome is the classified result of processing one message.
type Outcome struct {
	Kind   failure.Kind
	Reason string
	// Err is the error returned by the process function, nil on success.
	Err error
	// Stack is the goroutine stack captured for unknown failures.
	Stack []byte
}

// Classify maps an error returned by a ProcessFunc to an Outcome.
// A permanent marker anywhere in the chain takes precedence over a transient one.
func Classify(err error) Outcome {
	if err == nil {
		return Outcome{Kind: failure.KindSuccess}
	}

	var perm *PermanentError
	if errors.As(err, &perm) {
		return Outcome{Kind: failure.KindPermanent, Reason: perm.Error(), Err: err}
	}
	var trans *TransientError
	if errors.As(err, &trans) {
		return Outcome{Kind: failure.KindTransient, Reason: trans.Error(), Err: err}
	}

	return unknown(err)
}

// unknown wraps err with ErrUnknown. Reason keeps the original message.
func unknown(err error) Outcome {
	return Outcome{
		Kind:   failure.KindUnknown,
		Reason: err.Error(),
		Err:    fmt.Errorf("%w: %w", ErrUnknown, err),
		Stack:  debug.Stack(),
	}
}

// recovered builds the unknown-failure outcome for a panic value.
func recovered(r any) Outcome {
	err, ok := r.(error)
	if ok {
		err = fmt.Errorf("%w: %w", ErrPanic, err)
	} else {
		err = fmt.Errorf("%w: %v", ErrPanic, r)
	}
	return unknown(err)
}
