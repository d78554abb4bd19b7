package sqsbatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hatsunemiku3939/sqsbatch/pkg/jsonschema"
	failure "github.com/hatsunemiku3939/sqsbatch/policy/failure"
)

// thresholder is implemented by policies with a fixed attempt cap, which is then logged as "max".
type thresholder interface {
	Threshold() int
}

// NewProcessor creates a Processor. A nil policy means NewRetryPolicy(DefaultMaxRetryAttempts).
func NewProcessor(policy failure.Policy, fn ProcessFunc, opts ...ProcessorOption) (*Processor, error) {
	if fn == nil {
		return nil, ErrNilProcessFunc
	}
	if policy == nil {
		policy = NewRetryPolicy(DefaultMaxRetryAttempts)
	}

	p := &Processor{policy: policy, process: fn}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}

	if p.payloadSchema != "" {
		v, err := jsonschema.Compile(p.payloadSchema)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayloadSchema, err)
		}
		p.validator = v
	}

	return p, nil
}

// ProcessBatch runs one batch through a default-configured processor.
// A nil policy means NewRetryPolicy(DefaultMaxRetryAttempts).
func ProcessBatch(ctx context.Context, messages []InboundMessage, policy failure.Policy, fn ProcessFunc) BatchReport {
	if policy == nil {
		policy = NewRetryPolicy(DefaultMaxRetryAttempts)
	}
	p := &Processor{policy: policy, process: fn, logger: slog.Default()}
	return p.ProcessBatch(ctx, messages)
}

// ProcessBatch evaluates every message in order and returns the ids to redeliver.
// No failure of an individual message escapes; partial success is the normal result.
func (p *Processor) ProcessBatch(ctx context.Context, messages []InboundMessage) BatchReport {
	report := BatchReport{RetryIDs: make([]string, 0, len(messages))}
	queued := make(map[string]struct{}, len(messages))

	for _, msg := range messages {
		out := p.evaluate(ctx, msg)
		d := p.policy.Decide(ctx, out.Kind, msg.DeliveryAttempt)
		if !out.Kind.Retryable() {
			d.Retry = false
		}
		p.logOutcome(ctx, msg, out, d)

		if !d.Retry {
			continue
		}
		if _, dup := queued[msg.ID]; dup {
			continue
		}
		queued[msg.ID] = struct{}{}
		report.RetryIDs = append(report.RetryIDs, msg.ID)
	}

	return report
}

// evaluate decodes and processes one message.
func (p *Processor) evaluate(ctx context.Context, msg InboundMessage) Outcome {
	payload, err := DecodePayload(msg.Body)
	if err != nil {
		return Outcome{Kind: failure.KindMalformedInput, Reason: err.Error(), Err: err}
	}

	if p.validator != nil {
		if err := p.validator.Validate(msg.Body); err != nil {
			err = fmt.Errorf("%w: %w", ErrMalformedInput, err)
			return Outcome{Kind: failure.KindMalformedInput, Reason: err.Error(), Err: err}
		}
	}

	return p.invoke(ctx, payload)
}

// invoke calls the process function, turning a panic into an unknown failure.
func (p *Processor) invoke(ctx context.Context, payload Payload) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = recovered(r)
		}
	}()
	return Classify(p.process(ctx, payload))
}

// DecodePayload parses a message body. Only a body that is not valid JSON is an error.
// A body that is valid JSON but not an object decodes with nil Fields and is left for
// the process function to reject. Non-string simulate and reason values are stringified.
func DecodePayload(body []byte) (Payload, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	payload := Payload{Raw: append(json.RawMessage(nil), body...)}
	fields, ok := doc.(map[string]any)
	if !ok {
		return payload, nil
	}
	payload.Fields = fields
	payload.Simulate = fieldString(fields, "simulate")
	payload.Reason = fieldString(fields, "reason")

	return payload, nil
}

func fieldString(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// logOutcome writes exactly one log line for a message.
func (p *Processor) logOutcome(ctx context.Context, msg InboundMessage, out Outcome, d failure.Decision) {
	attrs := []any{
		"category", d.Category,
		"messageId", msg.ID,
		"attempt", msg.DeliveryAttempt,
	}

	if out.Kind == failure.KindSuccess {
		p.logger.InfoContext(ctx, "processed", attrs...)
		return
	}

	if t, ok := p.policy.(thresholder); ok {
		attrs = append(attrs, "max", t.Threshold())
	}
	attrs = append(attrs, "kind", out.Kind.String(), "reason", out.Reason)

	switch out.Kind {
	case failure.KindMalformedInput:
		p.logger.WarnContext(ctx, "terminal drop, invalid input", attrs...)
	case failure.KindPermanent:
		p.logger.WarnContext(ctx, "terminal drop, permanent", attrs...)
	case failure.KindTransient:
		if d.Retry {
			p.logger.InfoContext(ctx, "retrying", attrs...)
		} else {
			p.logger.WarnContext(ctx, "terminal drop, threshold exceeded", attrs...)
		}
	default:
		attrs = append(attrs, "detail", fmt.Sprintf("%+v", out.Err), "stack", string(out.Stack))
		if d.Retry {
			p.logger.ErrorContext(ctx, "retrying", attrs...)
		} else {
			p.logger.ErrorContext(ctx, "terminal drop, threshold exceeded", attrs...)
		}
	}
}
