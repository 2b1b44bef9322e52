package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awssesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/kelseyhightower/envconfig"

	"dining-concierge/handler"
	"dining-concierge/internal/dialog"
	"dining-concierge/internal/integrations/mailer"
	"dining-concierge/internal/integrations/paramstore"
	"dining-concierge/internal/integrations/queue"
	"dining-concierge/internal/integrations/search"
	"dining-concierge/internal/logging"
	"dining-concierge/internal/repository"
	"dining-concierge/internal/usecase"
)

type envConfig struct {
	QueueURL         string `envconfig:"SQS_QUEUE_URL" required:"true"`
	SearchEndpoint   string `envconfig:"SEARCH_ENDPOINT" required:"true"`
	SearchIndex      string `envconfig:"SEARCH_INDEX" default:"restaurants"`
	ParamPrefix      string `envconfig:"PARAM_PREFIX"`
	CredentialsParam string `envconfig:"SEARCH_CREDENTIALS_PARAM"`
	RestaurantsTable string `envconfig:"RESTAURANTS_TABLE" default:"yelp-restaurants"`
	SenderEmail      string `envconfig:"SENDER_EMAIL" required:"true"`
	SearchSize       int    `envconfig:"SEARCH_SIZE" default:"50"`
	Suggestions      int    `envconfig:"SUGGESTION_COUNT" default:"3"`
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
}

// credentialsParam resolves the SSM name holding search credentials. An empty
// result means the domain is queried without basic auth.
func (e envConfig) credentialsParam() string {
	if e.CredentialsParam != "" {
		return e.CredentialsParam
	}
	if e.ParamPrefix != "" {
		return paramstore.Join(e.ParamPrefix, "opensearch-credentials")
	}
	return ""
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

	// ---- Clients ----
	queueClient, err := queue.New(awssqs.NewFromConfig(cfg), env.QueueURL)
	if err != nil {
		slog.Error("failed to create queue client", "err", err)
		os.Exit(1)
	}

	searchOpts := []search.Option{search.WithIndex(env.SearchIndex)}
	if name := env.credentialsParam(); name != "" {
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
		if err != nil {
			slog.Error("failed to create SSM client", "err", err)
			os.Exit(1)
		}
		searchOpts = append(searchOpts, search.WithCredentials(func(ctx context.Context) (search.Credentials, error) {
			var creds search.Credentials
			err := paramstore.GetJSON(ctx, ssmClient, name, &creds)
			return creds, err
		}))
	}
	searchClient, err := search.NewClient(env.SearchEndpoint, searchOpts...)
	if err != nil {
		slog.Error("failed to create search client", "err", err)
		os.Exit(1)
	}

	restaurants, err := repository.New(awsdynamodb.NewFromConfig(cfg), env.RestaurantsTable)
	if err != nil {
		slog.Error("failed to create restaurant repository", "err", err)
		os.Exit(1)
	}

	mailClient, err := mailer.New(awssesv2.NewFromConfig(cfg), env.SenderEmail)
	if err != nil {
		slog.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	suggestService, err := usecase.NewSuggestService(queueClient, searchClient, restaurants, mailClient,
		dialog.DefaultCatalog(),
		usecase.WithSuggestLogger(logger),
		usecase.WithLimits(env.SearchSize, env.Suggestions),
	)
	if err != nil {
		slog.Error("failed to create suggest service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewSuggestHandler(suggestService)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
