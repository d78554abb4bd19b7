package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/hatsunemiku3939/sqsbatch"
	"github.com/hatsunemiku3939/sqsbatch/consumer"
)

var userProfileSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "userId": { "type": "string" },
    "username": { "type": "string" },
    "email": { "type": "string", "format": "email" }
  },
  "required": ["userId", "username", "email"]
}`

// UserProfileMessage defines the body of a profile update message.
type UserProfileMessage struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

var errProfileLocked = errors.New("profile is locked")

// UpdateUserProfile is the application logic for one message.
// Bodies reaching it already satisfy userProfileSchema.
func UpdateUserProfile(ctx context.Context, payload sqsbatch.Payload) error {
	var msg UserProfileMessage
	if err := json.Unmarshal(payload.Raw, &msg); err != nil {
		return sqsbatch.AsPermanent(fmt.Errorf("unmarshal user profile: %w", err))
	}

	slog.InfoContext(ctx, "Processing user update", "userId", msg.UserID, "username", msg.Username)

	if msg.Username == "locked" {
		// Retrying cannot unlock the profile.
		return sqsbatch.AsPermanent(errProfileLocked)
	}

	// Simulate a downstream call that can time out.
	select {
	case <-time.After(2 * time.Second):
		return nil
	case <-ctx.Done():
		return sqsbatch.AsTransient(ctx.Err())
	}
}

func main() {
	appCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadDefaultConfig(appCtx)
	if err != nil {
		logger.Error("Failed to load AWS config", "error", err)
		os.Exit(1)
	}

	queueURL := os.Getenv("SQS_QUEUE_URL")
	if queueURL == "" {
		logger.Error("SQS_QUEUE_URL environment variable is not set")
		os.Exit(1)
	}

	p, err := sqsbatch.NewProcessor(
		sqsbatch.NewRetryPolicy(3),
		UpdateUserProfile,
		sqsbatch.WithLogger(logger),
		sqsbatch.WithPayloadSchema(userProfileSchema),
	)
	if err != nil {
		logger.Error("Could not initialize processor", "error", err)
		os.Exit(1)
	}

	consumer.NewConsumer(sqs.NewFromConfig(cfg), queueURL, p, logger).Start(appCtx)

	logger.Info("Application has shut down")
}
