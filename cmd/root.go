package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/xhad/ideascout/internal/types"
	"github.com/xhad/ideascout/pkg/analysis"
	"github.com/xhad/ideascout/pkg/config"
	"github.com/xhad/ideascout/pkg/fetch"
	"github.com/xhad/ideascout/pkg/llm"
	"github.com/xhad/ideascout/pkg/pipeline"
	"github.com/xhad/ideascout/pkg/sources"
	"github.com/xhad/ideascout/pkg/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "ideascout",
	Short:        "Research assistant for startup ideas",
	Long:         "ideascout refines a startup idea with an LLM, then hunts for similar products across Devpost, Product Hunt, YC and GitHub.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(randomIdeaCmd)
}

// app bundles the wired components shared by the serve and analyze
// commands.
type app struct {
	cfg         *config.Config
	logger      *slog.Logger
	ideas       types.IdeaStore
	products    types.ProductStore
	refiner     *analysis.Refiner
	coordinator *pipeline.Coordinator

	closers []func()
}

func (a *app) Close() {
	for _, fn := range a.closers {
		fn()
	}
}

func buildApp() (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Println("config:", e.Error())
		}
		return nil, fmt.Errorf("invalid configuration")
	}

	logger, closeLog := config.SetupLogger(cfg.Logging)
	slog.SetDefault(logger)

	oracle, err := llm.NewOracle(llm.OracleConfig{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		OllamaURL:   cfg.LLM.OllamaURL,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("failed to initialize oracle: %w", err)
	}

	fetcher := fetch.NewWithConfig(fetch.Config{
		Timeout:    time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
		UserAgent:  cfg.Fetch.UserAgent,
		RateLimit:  cfg.Fetch.RateLimit,
		MaxRetries: cfg.Fetch.MaxRetries,
		RetryDelay: time.Duration(cfg.Fetch.RetryDelayMs) * time.Millisecond,
	})

	a := &app{cfg: cfg, logger: logger}
	a.closers = append(a.closers, func() { closeLog() })

	// Postgres when a database URL is configured, otherwise an
	// in-process store for local runs.
	if cfg.Database.URL != "" {
		embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
			Model:   cfg.LLM.EmbeddingModel,
			BaseURL: cfg.LLM.OllamaURL,
		})
		if err != nil {
			logger.Warn("embedder unavailable, products stored without embeddings", "error", err)
			embedder = nil
		}

		var emb types.Embedder
		if embedder != nil {
			emb = embedder
		}
		st, err := store.NewWithConfig(store.Config{
			ConnString: cfg.Database.URL,
			VectorDim:  cfg.Database.VectorDim,
		}, emb)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize store: %w", err)
		}
		a.closers = append(a.closers, st.Close)
		a.ideas, a.products = st, st
	} else {
		logger.Info("no database configured, using in-memory store")
		mem := store.NewMemory()
		a.ideas, a.products = mem, mem
	}

	srcs := []types.Source{
		sources.NewDevpost(sources.DevpostConfig{
			BaseURL: cfg.Sources.DevpostURL,
			Pages:   cfg.Sources.DevpostPages,
		}, fetcher, logger),
		sources.NewProductHunt(sources.ProductHuntConfig{
			BaseURL: cfg.Sources.ProductHuntURL,
		}, fetcher, logger),
		sources.NewYC(sources.YCConfig{
			SearchURL: cfg.Sources.YCSearchURL,
		}, fetcher, logger),
		sources.NewGitHub(sources.GitHubConfig{
			APIURL: cfg.Sources.GitHubAPIURL,
		}, fetcher, oracle, logger),
	}

	a.refiner = analysis.NewRefiner(oracle, logger)
	a.coordinator = pipeline.New(pipeline.Deps{
		Ideas:    a.ideas,
		Products: a.products,
		Sources:  srcs,
		Filter:   analysis.NewRelevanceFilter(oracle),
		Enricher: analysis.NewEnricher(fetcher, oracle, logger),
		Scorer:   analysis.NewSimilarityScorer(oracle),
		Logger:   logger,
	})

	return a, nil
}
