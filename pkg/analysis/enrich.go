package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xhad/ideascout/internal/models"
	"github.com/xhad/ideascout/internal/types"
	"github.com/xhad/ideascout/pkg/textproc"
)

// Enricher densifies a relevant product's description with a summary of
// its website before similarity scoring. Strictly best-effort: any
// failure leaves the product unchanged.
type Enricher struct {
	fetcher    types.Fetcher
	oracle     types.Completer
	maxContent int
	logger     *slog.Logger
}

func NewEnricher(fetcher types.Fetcher, oracle types.Completer, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		fetcher:    fetcher,
		oracle:     oracle,
		maxContent: 8000,
		logger:     logger,
	}
}

// Enrich appends a 3-5 sentence website summary to the product's
// description. The original description is always preserved as a
// prefix; it is never replaced.
func (e *Enricher) Enrich(ctx context.Context, p models.Product) models.Product {
	if p.Website == "" {
		return p
	}

	content, err := e.fetcher.ReadableText(ctx, p.Website)
	if err != nil {
		e.logger.Warn("failed to fetch website for enrichment",
			"company", p.CompanyName, "website", p.Website, "error", err)
		return p
	}
	content = textproc.Truncate(content, e.maxContent)
	if content == "" {
		return p
	}

	summary, err := e.oracle.Complete(ctx, "",
		fmt.Sprintf("summarize the following webpage in 3-5 sentences: %s", content), false)
	if err != nil || strings.TrimSpace(summary) == "" {
		e.logger.Warn("failed to summarize website",
			"company", p.CompanyName, "website", p.Website, "error", err)
		return p
	}

	p.Description = fmt.Sprintf("%s\n\nDetailed Summary:\n%s", p.Description, summary)
	return p
}
