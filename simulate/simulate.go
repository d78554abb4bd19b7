// Package simulate provides a stand-in downstream whose behavior is selected by the
// message's "simulate" field, so every retry path can be exercised end to end.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hatsunemiku3939/sqsbatch"
	"github.com/hatsunemiku3939/sqsbatch/store"
)

// Values of the simulate field.
const (
	Success   = "success"
	Transient = "transient"
	Permanent = "permanent"
	Unknown   = "unknown"
)

const (
	defaultTransientReason = "simulated transient failure"
	defaultPermanentReason = "simulated permanent failure"
	defaultUnknownReason   = "simulated unexpected error"
)

// Recorder persists the payload of a successfully processed message.
type Recorder interface {
	Put(ctx context.Context, rec store.Record) (store.Record, error)
}

// Processor simulates downstream work.
type Processor struct {
	// Delay simulates processing latency. It is cut short if ctx is done.
	Delay time.Duration
	// Recorder, when set, receives a record for every successful message.
	Recorder Recorder
}

// Process implements sqsbatch.ProcessFunc.
func (p *Processor) Process(ctx context.Context, payload sqsbatch.Payload) error {
	if p.Delay > 0 {
		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return sqsbatch.AsTransient(ctx.Err())
		}
	}

	if !payload.IsObject() {
		return sqsbatch.ErrNotObject
	}

	switch payload.Simulate {
	case Transient:
		return sqsbatch.Transient(reasonOr(payload.Reason, defaultTransientReason))
	case Permanent:
		return sqsbatch.Permanent(reasonOr(payload.Reason, defaultPermanentReason))
	case Unknown:
		return errors.New(reasonOr(payload.Reason, defaultUnknownReason))
	case "", Success:
		return p.record(ctx, payload)
	default:
		// Unrecognized values are processed like success.
		return p.record(ctx, payload)
	}
}

func (p *Processor) record(ctx context.Context, payload sqsbatch.Payload) error {
	if p.Recorder == nil {
		return nil
	}

	rec := store.Record{Data: payload.Fields}
	if id, ok := payload.Fields["request_id"].(string); ok {
		rec.ID = id
	}
	if _, err := p.Recorder.Put(ctx, rec); err != nil {
		return sqsbatch.AsTransient(fmt.Errorf("record request: %w", err))
	}
	return nil
}

func reasonOr(reason, def string) string {
	if reason == "" {
		return def
	}
	return reason
}
