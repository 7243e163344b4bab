package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/xhad/ideascout/internal/models"
	"github.com/xhad/ideascout/internal/types"
)

type YCConfig struct {
	SearchURL string
}

// YC queries an accelerator directory mirror that performs its own
// semantic search over the idea description, so results are considered
// inherently relevant.
type YC struct {
	config  YCConfig
	fetcher types.Fetcher
	logger  *slog.Logger
}

func NewYC(config YCConfig, fetcher types.Fetcher, logger *slog.Logger) *YC {
	if config.SearchURL == "" {
		config.SearchURL = "https://yc-search.zeabur.app/search"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &YC{config: config, fetcher: fetcher, logger: logger}
}

func (y *YC) Name() models.Source { return models.SourceYC }

func (y *YC) RequiresRelevanceCheck() bool { return false }

func (y *YC) Search(ctx context.Context, query string) ([]models.Product, error) {
	body, err := y.fetcher.PostJSON(ctx, y.config.SearchURL, map[string]string{
		"description": query,
	})
	if err != nil {
		return nil, fmt.Errorf("yc search failed: %w", err)
	}

	var results []struct {
		CompanyName string `json:"companyName"`
		Tagline     string `json:"tagline"`
		Website     string `json:"website"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("unexpected yc response: %w", err)
	}

	products := make([]models.Product, 0, len(results))
	for _, item := range results {
		products = append(products, newProduct(
			item.CompanyName, item.Tagline, item.Website, item.Description, true, models.SourceYC))
	}
	return products, nil
}
