package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/spf13/cobra"

	"github.com/hatsunemiku3939/sqsbatch/consumer"
)

var errQueueURLMissing = errors.New("SQS_QUEUE_URL environment variable is not set")

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Long-poll an SQS queue and process batches until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		if cfg.QueueURL == "" {
			return errQueueURLMissing
		}

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		awsCfg, err := awsconfig.LoadDefaultConfig(runCtx)
		if err != nil {
			log.Error("Failed to load AWS config", "error", err)
			return err
		}

		p, err := buildProcessor(runCtx, cfg, log)
		if err != nil {
			log.Error("Failed to initialize processor", "error", err)
			return err
		}

		consumer.NewConsumer(sqs.NewFromConfig(awsCfg), cfg.QueueURL, p, log).Start(runCtx)
		log.Info("Application has shut down")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(consumeCmd)
}
