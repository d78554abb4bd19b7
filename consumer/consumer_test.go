package consumer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hatsunemiku3939/sqsbatch"
	"github.com/hatsunemiku3939/sqsbatch/simulate"
)

// --- Mock SQSClient ---

type MockSQSClient struct{ mock.Mock }

func (m *MockSQSClient) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.ReceiveMessageOutput), args.Error(1)
}

func (m *MockSQSClient) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.DeleteMessageOutput), args.Error(1)
}

func createSQSMessage(id, body, receiptHandle, receiveCount string) types.Message {
	return types.Message{
		MessageId:     &id,
		Body:          &body,
		ReceiptHandle: &receiptHandle,
		Attributes: map[string]string{
			string(types.MessageSystemAttributeNameApproximateReceiveCount): receiveCount,
		},
	}
}

func receipt(handle string) interface{} {
	return mock.MatchedBy(func(in *sqs.DeleteMessageInput) bool {
		return in.ReceiptHandle != nil && *in.ReceiptHandle == handle
	})
}

func newTestProcessor(t *testing.T) *sqsbatch.Processor {
	t.Helper()
	sim := &simulate.Processor{}
	p, err := sqsbatch.NewProcessor(sqsbatch.NewRetryPolicy(2), sim.Process,
		sqsbatch.WithLogger(slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))))
	require.NoError(t, err)
	return p
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

func TestNewConsumer(t *testing.T) {
	mockClient := new(MockSQSClient)
	p := newTestProcessor(t)
	c := NewConsumer(mockClient, "test-queue-url", p, nil)

	assert.NotNil(t, c)
	assert.Equal(t, "test-queue-url", c.queueURL)
	assert.Equal(t, mockClient, c.client)
	assert.Equal(t, p, c.processor)
	assert.NotNil(t, c.log)
}

func TestConsumer_processBatch(t *testing.T) {
	t.Run("deletes resolved messages and keeps retried ones", func(t *testing.T) {
		mockClient := new(MockSQSClient)
		c := NewConsumer(mockClient, "test-queue", newTestProcessor(t), quietLogger())

		batch := []types.Message{
			createSQSMessage("ok", `{"simulate":"success"}`, "r-ok", "1"),
			createSQSMessage("retry", `{"simulate":"transient"}`, "r-retry", "1"),
			createSQSMessage("exhausted", `{"simulate":"transient"}`, "r-exhausted", "3"),
			createSQSMessage("permanent", `{"simulate":"permanent"}`, "r-permanent", "1"),
			createSQSMessage("malformed", `{`, "r-malformed", "1"),
		}

		for _, h := range []string{"r-ok", "r-exhausted", "r-permanent", "r-malformed"} {
			mockClient.On("DeleteMessage", mock.Anything, receipt(h)).Return(&sqs.DeleteMessageOutput{}, nil).Once()
		}

		c.processBatch(context.Background(), batch)

		mockClient.AssertExpectations(t)
		mockClient.AssertNotCalled(t, "DeleteMessage", mock.Anything, receipt("r-retry"))
	})

	t.Run("delete failure does not stop the batch", func(t *testing.T) {
		mockClient := new(MockSQSClient)
		c := NewConsumer(mockClient, "test-queue", newTestProcessor(t), quietLogger())

		mockClient.On("DeleteMessage", mock.Anything, receipt("r-1")).Return(nil, errors.New("failed to delete")).Once()
		mockClient.On("DeleteMessage", mock.Anything, receipt("r-2")).Return(&sqs.DeleteMessageOutput{}, nil).Once()

		c.processBatch(context.Background(), []types.Message{
			createSQSMessage("m-1", `{}`, "r-1", "1"),
			createSQSMessage("m-2", `{}`, "r-2", "1"),
		})

		mockClient.AssertExpectations(t)
	})

	t.Run("nil body is dropped as malformed", func(t *testing.T) {
		mockClient := new(MockSQSClient)
		c := NewConsumer(mockClient, "test-queue", newTestProcessor(t), quietLogger())

		id, handle := "m-nil", "r-nil"
		mockClient.On("DeleteMessage", mock.Anything, receipt(handle)).Return(&sqs.DeleteMessageOutput{}, nil).Once()

		c.processBatch(context.Background(), []types.Message{{MessageId: &id, ReceiptHandle: &handle}})

		mockClient.AssertExpectations(t)
	})
}

func TestConsumer_Start(t *testing.T) {
	t.Run("receives and deletes message successfully", func(t *testing.T) {
		mockClient := new(MockSQSClient)
		c := NewConsumer(mockClient, "test-queue", newTestProcessor(t), quietLogger())
		ctx, cancel := context.WithCancel(context.Background())

		receiveOutput := &sqs.ReceiveMessageOutput{Messages: []types.Message{
			createSQSMessage("m-1", `{"simulate":"success"}`, "receipt-1", "1"),
		}}

		mockClient.On("ReceiveMessage", mock.Anything, mock.MatchedBy(func(in *sqs.ReceiveMessageInput) bool {
			return len(in.MessageSystemAttributeNames) == 1 &&
				in.MessageSystemAttributeNames[0] == types.MessageSystemAttributeNameApproximateReceiveCount
		})).Run(func(args mock.Arguments) {
			cancel() // Stop the consumer after the first poll
		}).Return(receiveOutput, nil).Once()

		mockClient.On("DeleteMessage", mock.Anything, receipt("receipt-1")).Return(&sqs.DeleteMessageOutput{}, nil).Once()

		c.Start(ctx)

		mockClient.AssertExpectations(t)
	})

	t.Run("handles receive message error gracefully", func(t *testing.T) {
		mockClient := new(MockSQSClient)
		c := NewConsumer(mockClient, "test-queue", newTestProcessor(t), quietLogger())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		mockClient.On("ReceiveMessage", mock.Anything, mock.Anything).Return(nil, errors.New("SQS error")).Run(func(args mock.Arguments) {
			go func() {
				time.Sleep(50 * time.Millisecond)
				cancel()
			}()
		}).Once()

		done := make(chan struct{})
		go func() {
			c.Start(ctx)
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("consumer did not stop after cancellation during retry delay")
		}
		mockClient.AssertExpectations(t)
	})

	t.Run("stops on context canceled from receive", func(t *testing.T) {
		mockClient := new(MockSQSClient)
		c := NewConsumer(mockClient, "test-queue", newTestProcessor(t), quietLogger())

		mockClient.On("ReceiveMessage", mock.Anything, mock.Anything).Return(nil, context.Canceled).Once()

		c.Start(context.Background())

		mockClient.AssertExpectations(t)
	})
}
