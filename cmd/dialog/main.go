package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/kelseyhightower/envconfig"

	"dining-concierge/handler"
	"dining-concierge/internal/dialog"
	"dining-concierge/internal/integrations/queue"
	"dining-concierge/internal/logging"
)

type envConfig struct {
	// Optional at startup; fulfillment closes as failed while it is unset.
	QueueURL string `envconfig:"SQS_QUEUE_URL"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func main() {
	ctx := context.Background()

	var env envConfig
	if err := envconfig.Process("", &env); err != nil {
		slog.Error("invalid environment", "err", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, env.LogLevel)
	slog.SetDefault(logger)

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	queueClient, err := queue.New(awssqs.NewFromConfig(cfg), env.QueueURL)
	if err != nil {
		slog.Error("failed to create queue client", "err", err)
		os.Exit(1)
	}
	if env.QueueURL == "" {
		slog.Warn("SQS_QUEUE_URL is not set")
	}

	machine, err := dialog.NewMachine(
		dialog.NewRules(dialog.DefaultCatalog(), nil),
		queueClient,
		dialog.WithLogger(logger),
	)
	if err != nil {
		slog.Error("failed to create dialog machine", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewDialogHandler(machine, logger)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
