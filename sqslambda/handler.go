// Package sqslambda adapts a sqsbatch.Processor to the AWS Lambda SQS event source
// with partial batch responses (ReportBatchItemFailures) enabled.
package sqslambda

import (
	"context"

	"github.com/aws/aws-lambda-go/events"

	"github.com/hatsunemiku3939/sqsbatch"
)

const receiveCountAttribute = "ApproximateReceiveCount"

// Handler is the Lambda entry point signature for SQS batches.
type Handler func(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error)

// NewHandler returns a Handler that runs every record through p and reports the
// messages to redeliver as batch item failures. It never returns an error, so the
// event source only redelivers the listed items.
func NewHandler(p *sqsbatch.Processor) Handler {
	return func(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
		report := p.ProcessBatch(ctx, Messages(event))

		failures := make([]events.SQSBatchItemFailure, 0, len(report.RetryIDs))
		for _, id := range report.RetryIDs {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: id})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, nil
	}
}

// Messages converts the records of an SQS event into inbound messages, preserving order.
func Messages(event events.SQSEvent) []sqsbatch.InboundMessage {
	msgs := make([]sqsbatch.InboundMessage, 0, len(event.Records))
	for _, r := range event.Records {
		msgs = append(msgs, sqsbatch.InboundMessage{
			ID:              r.MessageId,
			DeliveryAttempt: sqsbatch.ParseReceiveCount(r.Attributes[receiveCountAttribute]),
			Body:            []byte(r.Body),
		})
	}
	return msgs
}
