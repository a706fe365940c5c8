package app

import (
	"context"
	"fmt"

	"github.com/antoniostano/discourse/internal/completion"
	"github.com/antoniostano/discourse/internal/config"
	"github.com/antoniostano/discourse/internal/conversation"
	"github.com/antoniostano/discourse/internal/engine"
	"github.com/antoniostano/discourse/internal/httpapi"
	"github.com/antoniostano/discourse/internal/observability"
)

type BuildResult struct {
	Config  config.Config
	API     *httpapi.Server
	Engine  *engine.Engine
	Store   conversation.Store
	Metrics *observability.Metrics

	// Cleanup should be called on shutdown to release external resources.
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	store, err := conversation.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("conversation store init failed: %w", err)
	}

	client, err := completion.New(completion.Config{
		Mode:           cfg.CompletionMode,
		URL:            cfg.CompletionURL,
		APIKey:         cfg.CompletionAPIKey,
		RequestTimeout: cfg.CompletionTimeout,
		MaxRetries:     cfg.MaxRetries,
		MaxTokens:      cfg.MaxTokens,
		Temperature:    cfg.Temperature,
		JitterMax:      cfg.JitterMax,
		OnAttempt: func(outcome string) {
			metrics.CompletionAttempts.WithLabelValues(outcome).Inc()
		},
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("completion client init failed: %w", err)
	}

	eng := engine.New(store, client, metrics, cfg.ResponseCharLimit)
	api := httpapi.New(cfg, eng, metrics)

	return &BuildResult{
		Config:  cfg,
		API:     api,
		Engine:  eng,
		Store:   store,
		Metrics: metrics,
		Cleanup: store.Close,
	}, nil
}
