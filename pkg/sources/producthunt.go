package sources

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/xhad/ideascout/internal/models"
	"github.com/xhad/ideascout/internal/types"
	"github.com/xhad/ideascout/pkg/textproc"
)

type ProductHuntConfig struct {
	BaseURL string
}

// ProductHunt scrapes the product directory's search results. The
// markup is not stable, so when the scrape yields nothing the adapter
// falls back to the site's RSS feed filtered by the query. Results
// start out not relevant; the relevance filter decides.
type ProductHunt struct {
	config  ProductHuntConfig
	fetcher types.Fetcher
	feed    *gofeed.Parser
	logger  *slog.Logger
}

func NewProductHunt(config ProductHuntConfig, fetcher types.Fetcher, logger *slog.Logger) *ProductHunt {
	if config.BaseURL == "" {
		config.BaseURL = "https://www.producthunt.com"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductHunt{
		config:  config,
		fetcher: fetcher,
		feed:    gofeed.NewParser(),
		logger:  logger,
	}
}

func (p *ProductHunt) Name() models.Source { return models.SourceProductHunt }

func (p *ProductHunt) RequiresRelevanceCheck() bool { return true }

func (p *ProductHunt) Search(ctx context.Context, query string) ([]models.Product, error) {
	searchURL := fmt.Sprintf("%s/search?q=%s", p.config.BaseURL, url.QueryEscape(query))

	body, err := p.fetcher.Get(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	products, err := p.parseSearchPage(body)
	if err != nil {
		return nil, err
	}
	if len(products) > 0 {
		return products, nil
	}

	p.logger.Info("producthunt scrape empty, trying feed fallback", "query", query)
	return p.searchFeed(ctx, query)
}

func (p *ProductHunt) parseSearchPage(body []byte) ([]models.Product, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var products []models.Product
	doc.Find("div[class*='styles_item']").Each(func(_ int, item *goquery.Selection) {
		name := strings.TrimSpace(item.Find("h3").First().Text())
		tagline := strings.TrimSpace(item.Find("div[class*='styles_tagline']").First().Text())
		if name == "" || tagline == "" {
			return
		}

		website := ""
		if href, ok := item.Find("a[href]").First().Attr("href"); ok {
			website = p.config.BaseURL + href
		}

		products = append(products, newProduct(
			name, tagline, website, "", false, models.SourceProductHunt))
	})

	return products, nil
}

// searchFeed parses the site feed and keeps entries mentioning any
// query token.
func (p *ProductHunt) searchFeed(ctx context.Context, query string) ([]models.Product, error) {
	body, err := p.fetcher.Get(ctx, p.config.BaseURL+"/feed")
	if err != nil {
		return nil, err
	}

	feed, err := p.feed.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("unexpected producthunt feed: %w", err)
	}

	tokens := strings.Fields(strings.ToLower(query))
	var products []models.Product
	for _, item := range feed.Items {
		if item.Title == "" || !matchesAnyToken(item.Title+" "+item.Description, tokens) {
			continue
		}

		tagline := textproc.Truncate(textproc.Clean(stripTags(item.Description)), 120)
		products = append(products, newProduct(
			item.Title, tagline, item.Link, "", false, models.SourceProductHunt))
	}
	return products, nil
}

func matchesAnyToken(text string, tokens []string) bool {
	text = strings.ToLower(text)
	for _, token := range tokens {
		if strings.Contains(text, token) {
			return true
		}
	}
	return false
}

func stripTags(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return doc.Text()
}
