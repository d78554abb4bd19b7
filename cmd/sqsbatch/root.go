package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"

	"github.com/hatsunemiku3939/sqsbatch"
	"github.com/hatsunemiku3939/sqsbatch/pkg/config"
	"github.com/hatsunemiku3939/sqsbatch/pkg/logger"
	failure "github.com/hatsunemiku3939/sqsbatch/policy/failure"
	"github.com/hatsunemiku3939/sqsbatch/simulate"
	"github.com/hatsunemiku3939/sqsbatch/store"
)

const (
	policyMaxAttempts = "max-attempts"
	policyRedrive     = "redrive"
)

var (
	policyName        string
	payloadSchemaPath string
)

var rootCmd = &cobra.Command{
	Use:          "sqsbatch",
	Short:        "Process SQS batches with partial-failure retry classification",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&policyName, "policy", policyMaxAttempts, "retry policy: max-attempts or redrive")
	rootCmd.PersistentFlags().StringVar(&payloadSchemaPath, "payload-schema", "", "path to a JSON schema every message body must satisfy")
}

// setup loads configuration and installs the process-wide logger.
func setup() (config.Config, *slog.Logger, error) {
	cfg := config.Load()
	appLogger, err := logger.New(cfg.Logging)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("initialize logger: %w", err)
	}
	slog.SetDefault(appLogger)
	return cfg, appLogger, nil
}

// buildProcessor wires the simulated downstream, with a DynamoDB recorder when a table is configured.
func buildProcessor(ctx context.Context, cfg config.Config, log *slog.Logger) (*sqsbatch.Processor, error) {
	var recorder simulate.Recorder
	if cfg.TableName != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		recorder = store.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.TableName)
	}
	return newProcessor(cfg, recorder, log)
}

func newProcessor(cfg config.Config, recorder simulate.Recorder, log *slog.Logger) (*sqsbatch.Processor, error) {
	policy, err := retryPolicy(policyName, cfg.MaxRetryAttempts)
	if err != nil {
		return nil, err
	}

	opts := []sqsbatch.ProcessorOption{sqsbatch.WithLogger(log.With("component", "processor"))}
	if payloadSchemaPath != "" {
		schema, err := os.ReadFile(payloadSchemaPath)
		if err != nil {
			return nil, fmt.Errorf("read payload schema: %w", err)
		}
		opts = append(opts, sqsbatch.WithPayloadSchema(string(schema)))
	}

	sim := &simulate.Processor{Delay: cfg.SimulateDelay, Recorder: recorder}
	return sqsbatch.NewProcessor(policy, sim.Process, opts...)
}

func retryPolicy(name string, maxRetryAttempts int) (failure.Policy, error) {
	switch name {
	case policyMaxAttempts, "":
		return sqsbatch.NewRetryPolicy(maxRetryAttempts), nil
	case policyRedrive:
		return failure.RedrivePolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown retry policy %q", name)
	}
}
