package consumer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/hatsunemiku3939/sqsbatch"
)

// --- SQS Consumer Configuration ---
const (
	// maxMessages defines the maximum number of messages to retrieve in one SQS API call.
	maxMessages = 10
	// waitTimeSeconds enables SQS Long Polling, reducing cost and empty responses.
	waitTimeSeconds = 10
	// deleteTimeout sets a client-side timeout for the DeleteMessage API call.
	deleteTimeout = 5 * time.Second
	// processingTimeout sets a deadline for processing one batch.
	// This should be less than the queue's visibility timeout.
	processingTimeout = 30 * time.Second
	// receiveRetryDelay is the pause after a failed ReceiveMessage call.
	receiveRetryDelay = 2 * time.Second
)

// SQSClient defines the interface for SQS operations needed by the Consumer.
// This allows for easier testing by mocking the SQS client.
type SQSClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Consumer long-polls a queue and runs each received batch through a Processor.
// Messages the processor resolves are deleted; retried ones reappear after the visibility timeout.
type Consumer struct {
	client    SQSClient
	queueURL  string
	processor *sqsbatch.Processor
	log       *slog.Logger
}

// NewConsumer creates a new SQS batch consumer. A nil logger means slog.Default().
func NewConsumer(client SQSClient, queueURL string, processor *sqsbatch.Processor, log *slog.Logger) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{
		client:    client,
		queueURL:  queueURL,
		processor: processor,
		log:       log.With("component", "consumer"),
	}
}

// Start begins the consumer's polling loop. It blocks until the context is canceled
// and every in-flight batch has been handled.
func (c *Consumer) Start(ctx context.Context) {
	c.log.Info("SQS consumer started", "queueUrl", c.queueURL)
	var wg sync.WaitGroup

	for {
		if ctx.Err() != nil {
			c.log.Info("Shutdown initiated, no longer polling for new messages")
			break
		}

		output, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: maxMessages,
			WaitTimeSeconds:     waitTimeSeconds,
			MessageSystemAttributeNames: []types.MessageSystemAttributeName{
				types.MessageSystemAttributeNameApproximateReceiveCount,
			},
		})

		if err != nil {
			if errors.Is(err, context.Canceled) {
				c.log.Info("Context canceled by shutdown signal, stopping poller")
				break
			}
			c.log.Error("Failed to receive messages, retrying", "error", err)
			select {
			case <-time.After(receiveRetryDelay):
			case <-ctx.Done():
			}
			continue
		}

		if len(output.Messages) == 0 {
			continue
		}

		c.log.Debug("Received messages", "count", len(output.Messages))

		wg.Add(1)
		go func(batch []types.Message) {
			defer wg.Done()
			// Derived from Background so in-flight batches finish after shutdown starts.
			batchCtx, cancel := context.WithTimeout(context.Background(), processingTimeout)
			defer cancel()
			c.processBatch(batchCtx, batch)
		}(output.Messages)
	}

	c.log.Info("Waiting for in-flight batches to be processed")
	wg.Wait()
	c.log.Info("Graceful shutdown complete")
}

// processBatch runs one received batch and deletes every message not marked for retry.
func (c *Consumer) processBatch(ctx context.Context, batch []types.Message) {
	msgs := make([]sqsbatch.InboundMessage, 0, len(batch))
	receipts := make(map[string]*string, len(batch))
	for _, m := range batch {
		id := aws.ToString(m.MessageId)
		receipts[id] = m.ReceiptHandle
		msgs = append(msgs, sqsbatch.InboundMessage{
			ID:              id,
			DeliveryAttempt: sqsbatch.ParseReceiveCount(m.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)]),
			Body:            []byte(aws.ToString(m.Body)),
		})
	}

	report := c.processor.ProcessBatch(ctx, msgs)

	for _, m := range msgs {
		if report.ShouldRetry(m.ID) {
			c.log.Debug("Leaving message for redelivery after visibility timeout", "messageId", m.ID)
			continue
		}
		c.deleteMessage(m.ID, receipts[m.ID])
	}
}

func (c *Consumer) deleteMessage(id string, receiptHandle *string) {
	// Background context: deletion is a cleanup step that must outlive batch cancellation.
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()

	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		c.log.Error("Failed to delete message", "messageId", id, "error", err)
		return
	}
	c.log.Debug("Deleted message", "messageId", id)
}
