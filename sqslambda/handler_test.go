package sqslambda

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatsunemiku3939/sqsbatch"
	"github.com/hatsunemiku3939/sqsbatch/simulate"
)

func record(id, receiveCount, body string) events.SQSMessage {
	m := events.SQSMessage{MessageId: id, Body: body}
	if receiveCount != "" {
		m.Attributes = map[string]string{receiveCountAttribute: receiveCount}
	}
	return m
}

func newTestHandler(t *testing.T, maxAttempts int) Handler {
	t.Helper()
	sim := &simulate.Processor{}
	p, err := sqsbatch.NewProcessor(
		sqsbatch.NewRetryPolicy(maxAttempts),
		sim.Process,
		sqsbatch.WithLogger(slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))),
	)
	require.NoError(t, err)
	return NewHandler(p)
}

func TestMessages(t *testing.T) {
	event := events.SQSEvent{Records: []events.SQSMessage{
		record("m-1", "3", `{"simulate":"success"}`),
		record("m-2", "", `{}`),
		record("m-3", "garbage", `{}`),
	}}

	msgs := Messages(event)

	require.Len(t, msgs, 3)
	assert.Equal(t, sqsbatch.InboundMessage{ID: "m-1", DeliveryAttempt: 3, Body: []byte(`{"simulate":"success"}`)}, msgs[0])
	assert.Equal(t, 1, msgs[1].DeliveryAttempt, "missing receive count is a first delivery")
	assert.Equal(t, 1, msgs[2].DeliveryAttempt, "unparseable receive count is a first delivery")
}

func TestHandler(t *testing.T) {
	h := newTestHandler(t, 2)

	resp, err := h(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
		record("ok", "1", `{"simulate":"success"}`),
		record("transient", "2", `{"simulate":"transient"}`),
		record("exhausted", "3", `{"simulate":"transient"}`),
		record("permanent", "1", `{"simulate":"permanent","reason":"x"}`),
		record("unknown", "1", `{"simulate":"unknown"}`),
		record("malformed", "1", `not json`),
	}})

	require.NoError(t, err)
	assert.Equal(t, []events.SQSBatchItemFailure{
		{ItemIdentifier: "transient"},
		{ItemIdentifier: "unknown"},
	}, resp.BatchItemFailures)
}

func TestHandler_EmptyEvent(t *testing.T) {
	h := newTestHandler(t, 2)

	resp, err := h(context.Background(), events.SQSEvent{})

	require.NoError(t, err)
	assert.NotNil(t, resp.BatchItemFailures)
	assert.Empty(t, resp.BatchItemFailures)
}
