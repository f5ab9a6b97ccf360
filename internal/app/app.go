// Package app wires the newslens services from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/newslens/internal/config"
	"github.com/dgallion1/newslens/internal/feed"
	"github.com/dgallion1/newslens/internal/ingest"
	"github.com/dgallion1/newslens/internal/langdetect"
	"github.com/dgallion1/newslens/internal/llm"
	"github.com/dgallion1/newslens/internal/metrics"
	"github.com/dgallion1/newslens/internal/pipeline"
	"github.com/dgallion1/newslens/internal/sentiment"
	"github.com/dgallion1/newslens/internal/store"
	"github.com/dgallion1/newslens/internal/summarize"
	"github.com/dgallion1/newslens/internal/translate"
)

// App holds the constructed services shared by the server and the CLI.
type App struct {
	Config       config.Config
	Metrics      *metrics.Metrics
	LLM          *llm.Client
	Catalog      *llm.Catalog
	Extractor    *ingest.Extractor
	Feed         *feed.Service
	Store        *store.Store
	Orchestrator *pipeline.Orchestrator
}

// Build constructs every service. An empty DBPath disables history.
func Build(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	m := metrics.New()

	client := llm.NewClient(llm.ClientConfig{
		APIKey:       cfg.LLMAPIKey,
		BaseURL:      cfg.LLMBaseURL,
		DefaultModel: cfg.DefaultModel,
		Timeout:      cfg.LLMTimeout,
		MaxRetries:   cfg.LLMMaxRetries,
	}, log, m)

	detector := langdetect.New(langdetect.NewLingua(), log)

	classifier, err := sentiment.New(client, sentiment.Config{
		MaxTokens: cfg.SentimentMaxTokens,
		UseSchema: cfg.SentimentJSONSchema,
	}, log)
	if err != nil {
		return nil, err
	}

	extractor := ingest.New(ingest.Config{
		FetchTimeout:         cfg.FetchTimeout,
		MaxBytes:             cfg.MaxUploadBytes,
		PDFFallbackPdftotext: cfg.PDFFallbackPdftotext,
	}, log)

	a := &App{
		Config:    cfg,
		Metrics:   m,
		LLM:       client,
		Catalog:   llm.NewCatalog(client, cfg.FallbackModels, cfg.ModelCacheTTL, log),
		Extractor: extractor,
		Feed: feed.New(feed.Config{
			Feeds:        cfg.HeadlineFeeds,
			CacheTTL:     cfg.HeadlineCacheTTL,
			FetchTimeout: cfg.FetchTimeout,
			UserAgent:    ingest.DefaultUserAgent,
		}, log),
	}

	deps := pipeline.Deps{
		Detector: detector,
		Summarizer: summarize.New(client, summarize.Config{
			MaxTokens:   cfg.SummaryMaxTokens,
			MaxDepth:    cfg.SummaryMaxDepth,
			Concurrency: cfg.SummaryConcurrency,
		}, log),
		Classifier: classifier,
		Translator: translate.New(client, detector, translate.Config{
			MaxTokens: cfg.TranslationMaxTokens,
		}, log),
		Extractor: extractor,
		Metrics:   m,
	}

	if cfg.DBPath != "" {
		st, err := store.Open(ctx, cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		a.Store = st
		deps.History = st
	}

	a.Orchestrator = pipeline.NewOrchestrator(cfg, deps, log)
	return a, nil
}

// Close releases the history database.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
