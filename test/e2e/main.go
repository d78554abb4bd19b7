package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/hatsunemiku3939/sqsbatch"
	"github.com/hatsunemiku3939/sqsbatch/consumer"
	failure "github.com/hatsunemiku3939/sqsbatch/policy/failure"
)

// E2EProcess selects its outcome from the simulate field and logs a marker line the
// test script greps for. The "test_id" field ties log lines back to the sent message.
func E2EProcess(ctx context.Context, payload sqsbatch.Payload) error {
	testID, _ := payload.Fields["test_id"].(string)
	slog.InfoContext(ctx, "E2E_PROCESS", "testId", testID, "simulate", payload.Simulate)

	switch payload.Simulate {
	case "transient":
		return sqsbatch.Transient("e2e transient " + testID)
	case "permanent":
		return sqsbatch.Permanent("e2e permanent " + testID)
	case "unknown":
		return errors.New("e2e unknown " + testID)
	case "panic":
		panic("e2e panic " + testID)
	default:
		return nil
	}
}

func main() {
	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	awsEndpointURL := os.Getenv("AWS_ENDPOINT_URL")
	if awsEndpointURL == "" {
		logger.Error("AWS_ENDPOINT_URL environment variable is not set")
		os.Exit(1)
	}

	queueURL := os.Getenv("SQS_QUEUE_URL")
	if queueURL == "" {
		logger.Error("SQS_QUEUE_URL environment variable is not set")
		os.Exit(1)
	}

	cfg, err := config.LoadDefaultConfig(appCtx)
	if err != nil {
		logger.Error("Failed to load AWS config", "error", err)
		os.Exit(1)
	}

	sqsClient := sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		o.BaseEndpoint = aws.String(awsEndpointURL)
	})

	// E2E_POLICY_REDRIVE=1 hands the attempt cap to the queue's redrive policy.
	var policy failure.Policy = sqsbatch.NewRetryPolicy(sqsbatch.DefaultMaxRetryAttempts)
	if os.Getenv("E2E_POLICY_REDRIVE") == "1" {
		policy = failure.RedrivePolicy{}
	} else if raw := os.Getenv("E2E_MAX_RETRY_ATTEMPTS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			policy = sqsbatch.NewRetryPolicy(n)
		}
	}

	p, err := sqsbatch.NewProcessor(policy, E2EProcess, sqsbatch.WithLogger(logger))
	if err != nil {
		logger.Error("Could not initialize processor", "error", err)
		os.Exit(1)
	}

	consumer.NewConsumer(sqsClient, queueURL, p, logger).Start(appCtx)

	logger.Info("Application has shut down")
}
