package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/pfrederiksen/citycast-digest/internal/config"
	"github.com/pfrederiksen/citycast-digest/internal/digest"
	"github.com/pfrederiksen/citycast-digest/internal/logger"
	"github.com/pfrederiksen/citycast-digest/internal/metrics"
	"github.com/pfrederiksen/citycast-digest/internal/notifier"
	"github.com/pfrederiksen/citycast-digest/internal/pipeline"
	"github.com/pfrederiksen/citycast-digest/internal/scraper"
	"github.com/pfrederiksen/citycast-digest/internal/storage"

	_ "time/tzdata"
)

// Lambda only allows writes under /tmp
const lambdaDataDir = "/tmp/citycast-digest"

// LambdaEvent is the scheduled EventBridge payload, which carries nothing we use
type LambdaEvent struct{}

// LambdaResponse summarises the run for the invocation log
type LambdaResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	RunID      string `json:"runId,omitempty"`
	Events     int    `json:"events"`
	Messages   int    `json:"messages"`
}

func handler(ctx context.Context, _ LambdaEvent) (LambdaResponse, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		logger.Error("Configuration failed", nil, err)
		return LambdaResponse{StatusCode: 500, Message: "configuration error"}, err
	}

	log := logger.New(cfg.Level(), os.Stdout)
	logger.SetDefault(log)

	loc, err := cfg.Location()
	if err != nil {
		return LambdaResponse{StatusCode: 500, Message: "configuration error"}, err
	}

	store, err := storage.New(cfg.Storage.DataDir)
	if err != nil {
		return LambdaResponse{StatusCode: 500, Message: "storage error"}, err
	}

	m := metrics.New()
	sms, err := notifier.NewSMSNotifier(cfg, notifier.WithSMSLogger(log), notifier.WithSMSMetrics(m))
	if err != nil {
		return LambdaResponse{StatusCode: 500, Message: "notifier error"}, err
	}

	result, err := pipeline.Run(ctx, pipeline.Deps{
		Fetcher: scraper.New(
			scraper.WithURL(cfg.Source.URL),
			scraper.WithHTTPClient(&http.Client{Timeout: cfg.Source.Timeout}),
		),
		Store:    store,
		Notifier: sms,
		Metrics:  m,
		Logger:   log,
	}, pipeline.Options{
		Digest: digest.Options{
			ChunkSize:     cfg.Digest.ChunkSize,
			SubjectPrefix: cfg.SMS.SubjectPrefix,
			Location:      loc,
		},
		MetricsFile: cfg.MetricsFile,
	})
	if err != nil {
		return LambdaResponse{StatusCode: 500, Message: "run failed"}, err
	}

	message := "digest sent"
	if len(result.Messages) == 0 {
		message = "nothing to send"
	}

	return LambdaResponse{
		StatusCode: 200,
		Message:    message,
		RunID:      result.RunID,
		Events:     result.Events,
		Messages:   len(result.Messages),
	}, nil
}

// loadConfig reads the environment and, inside Lambda, the secrets in Parameter Store
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	if os.Getenv("DATA_DIR") == "" {
		cfg.Storage.DataDir = lambdaDataDir
	}

	if config.IsLambda() {
		client, err := config.NewSSMClient(ctx)
		if err != nil {
			return nil, err
		}
		if err := cfg.LoadFromParameterStore(ctx, client); err != nil {
			return nil, fmt.Errorf("loading secrets: %w", err)
		}
	}

	if err := cfg.Validate(true); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	lambda.Start(handler)
}
