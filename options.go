package sqsbatch

import "log/slog"

// ProcessorOption configures a Processor at construction time.
type ProcessorOption func(*Processor)

// WithLogger sets the structured logger that receives one line per message.
func WithLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = l }
}

// WithPayloadSchema validates every decoded body against a JSON schema before the
// process function runs. Bodies that fail validation are dropped as malformed input.
func WithPayloadSchema(schema string) ProcessorOption {
	return func(p *Processor) { p.payloadSchema = schema }
}
