package sqsbatch

import "errors"

var (
	ErrMalformedInput       = errors.New("malformed input")
	ErrPermanent            = errors.New("permanent failure")
	ErrTransient            = errors.New("transient failure")
	ErrUnknown              = errors.New("unknown failure")
	ErrPanic                = errors.New("process function panicked")
	ErrInvalidPayloadSchema = errors.New("invalid payload schema")
	ErrNilProcessFunc       = errors.New("nil process function")
	ErrNotObject            = errors.New("payload is not a JSON object")
)
