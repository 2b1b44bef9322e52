package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awslex "github.com/aws/aws-sdk-go-v2/service/lexruntimev2"
	"github.com/kelseyhightower/envconfig"

	"dining-concierge/handler"
	"dining-concierge/internal/integrations/lex"
	"dining-concierge/internal/logging"
	"dining-concierge/internal/usecase"
)

// Bot settings may be blank; requests then get a misconfiguration reply.
type envConfig struct {
	LexBotID      string `envconfig:"LEX_BOT_ID"`
	LexBotAliasID string `envconfig:"LEX_BOT_ALIAS_ID"`
	LexLocaleID   string `envconfig:"LEX_LOCALE_ID" default:"en_US"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
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

	lexClient, err := lex.New(awslex.NewFromConfig(cfg), lex.Bot{
		ID:      env.LexBotID,
		AliasID: env.LexBotAliasID,
		Locale:  env.LexLocaleID,
	})
	if err != nil {
		slog.Error("failed to create Lex client", "err", err)
		os.Exit(1)
	}
	if !lexClient.Configured() {
		slog.Warn("Lex bot is not fully configured")
	}

	chatService, err := usecase.NewChatService(lexClient, logger)
	if err != nil {
		slog.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(chatService)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
