package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/xhad/ideascout/internal/models"
	"github.com/xhad/ideascout/internal/types"
	"github.com/xhad/ideascout/pkg/textproc"
)

type DevpostConfig struct {
	BaseURL string
	Pages   int
}

// Devpost searches the hackathon project directory. The search endpoint
// returns JSON; project descriptions come from each project's detail page.
type Devpost struct {
	config  DevpostConfig
	fetcher types.Fetcher
	logger  *slog.Logger
}

func NewDevpost(config DevpostConfig, fetcher types.Fetcher, logger *slog.Logger) *Devpost {
	if config.BaseURL == "" {
		config.BaseURL = "https://devpost.com"
	}
	if config.Pages == 0 {
		config.Pages = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Devpost{config: config, fetcher: fetcher, logger: logger}
}

func (d *Devpost) Name() models.Source { return models.SourceDevpost }

func (d *Devpost) RequiresRelevanceCheck() bool { return true }

type devpostResponse struct {
	Software []struct {
		Name    string `json:"name"`
		Tagline string `json:"tagline"`
		URL     string `json:"url"`
	} `json:"software"`
	TotalCount int `json:"total_count"`
}

// Search fans out over the first result pages concurrently. A failed
// page is skipped; only a fully empty search is not an error.
func (d *Devpost) Search(ctx context.Context, query string) ([]models.Product, error) {
	var (
		mu       sync.Mutex
		products []models.Product
		wg       sync.WaitGroup
	)

	for page := 1; page <= d.config.Pages; page++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()

			pageProducts, err := d.searchPage(ctx, query, page)
			if err != nil {
				d.logger.Warn("devpost page failed", "page", page, "error", err)
				return
			}

			mu.Lock()
			products = append(products, pageProducts...)
			mu.Unlock()
		}(page)
	}
	wg.Wait()

	return products, nil
}

func (d *Devpost) searchPage(ctx context.Context, query string, page int) ([]models.Product, error) {
	searchURL := fmt.Sprintf("%s/software/search?page=%d&query=%s",
		d.config.BaseURL, page, url.QueryEscape(query))

	body, err := d.fetcher.Get(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	var parsed devpostResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unexpected devpost response: %w", err)
	}

	products := make([]models.Product, 0, len(parsed.Software))
	for _, item := range parsed.Software {
		description := d.projectDetails(ctx, item.URL)
		products = append(products, newProduct(
			item.Name, item.Tagline, item.URL, description, true, models.SourceDevpost))
	}
	return products, nil
}

// projectDetails scrapes the project page for its long description.
// Best-effort: an empty string seeds the candidate on any failure.
func (d *Devpost) projectDetails(ctx context.Context, projectURL string) string {
	body, err := d.fetcher.Get(ctx, projectURL)
	if err != nil {
		d.logger.Warn("devpost detail fetch failed", "url", projectURL, "error", err)
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	return textproc.Clean(doc.Find("div.app-details").First().Text())
}
