package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"

	"github.com/hatsunemiku3939/sqsbatch/sqslambda"
)

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Run as an AWS Lambda SQS event-source handler",
	Long:  "Starts the Lambda runtime loop. The event source mapping must enable ReportBatchItemFailures.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}

		p, err := buildProcessor(context.Background(), cfg, log)
		if err != nil {
			log.Error("Failed to initialize processor", "error", err)
			return err
		}

		log.Info("Lambda handler starting", "maxRetryAttempts", cfg.MaxRetryAttempts, "policy", policyName)
		lambda.Start(sqslambda.NewHandler(p))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lambdaCmd)
}
