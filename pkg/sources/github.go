package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/xhad/ideascout/internal/models"
	"github.com/xhad/ideascout/internal/types"
)

const githubSearchTermsPrompt = `You are a GitHub search term generator. Your task is to analyze product/idea descriptions and generate 5 search terms that will help find closely matching repositories on GitHub.

When generating search terms, you MUST:
- Stay strictly focused on the described product functionality
- Use terms that directly describe the core features
- Ensure each term would help find similar projects
- Avoid generic technical terms not specific to the product
- Consider how developers would describe and name such projects
- Contain short (2 words) and long search terms for broader results

Format your response as a JSON object with a single "search_terms" array containing exactly 5 strings.

Warning: Each search term MUST help find repositories matching the specific product description. Avoid generic technical terms or related but different projects.

Remember: Always output valid JSON with exactly 5 search terms that would help find repositories implementing the described functionality.`

type GitHubConfig struct {
	APIURL       string
	PerTermLimit int
}

// GitHub searches the code host for repositories implementing the idea.
// The oracle first distills the description into focused search terms;
// each term hits the repository search API and results are merged.
type GitHub struct {
	config  GitHubConfig
	fetcher types.Fetcher
	oracle  types.Completer
	logger  *slog.Logger
}

func NewGitHub(config GitHubConfig, fetcher types.Fetcher, oracle types.Completer, logger *slog.Logger) *GitHub {
	if config.APIURL == "" {
		config.APIURL = "https://api.github.com"
	}
	if config.PerTermLimit == 0 {
		config.PerTermLimit = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GitHub{config: config, fetcher: fetcher, oracle: oracle, logger: logger}
}

func (g *GitHub) Name() models.Source { return models.SourceGitHub }

func (g *GitHub) RequiresRelevanceCheck() bool { return false }

func (g *GitHub) Search(ctx context.Context, query string) ([]models.Product, error) {
	terms := g.searchTerms(ctx, query)

	seen := make(map[string]bool)
	var products []models.Product

	for _, term := range terms {
		repos, err := g.searchRepositories(ctx, term)
		if err != nil {
			g.logger.Warn("github term search failed", "term", term, "error", err)
			continue
		}

		for _, repo := range repos {
			if seen[repo.FullName] {
				continue
			}
			seen[repo.FullName] = true
			products = append(products, newProduct(
				repo.FullName, repo.Description, repo.HTMLURL, repo.Description, true, models.SourceGitHub))
		}
	}

	return products, nil
}

// searchTerms asks the oracle for focused search terms, falling back to
// the raw query when the oracle fails or answers garbage.
func (g *GitHub) searchTerms(ctx context.Context, query string) []string {
	text, err := g.oracle.Complete(ctx, githubSearchTermsPrompt, query, true)
	if err != nil {
		g.logger.Warn("github search term generation failed", "error", err)
		return []string{query}
	}

	var parsed struct {
		SearchTerms []string `json:"search_terms"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil || len(parsed.SearchTerms) == 0 {
		g.logger.Warn("github search terms unparseable, using raw query", "error", err)
		return []string{query}
	}
	if len(parsed.SearchTerms) > 5 {
		parsed.SearchTerms = parsed.SearchTerms[:5]
	}
	return parsed.SearchTerms
}

type githubRepo struct {
	FullName    string `json:"full_name"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description"`
}

func (g *GitHub) searchRepositories(ctx context.Context, term string) ([]githubRepo, error) {
	searchURL := fmt.Sprintf("%s/search/repositories?q=%s&per_page=%d&sort=stars",
		g.config.APIURL, url.QueryEscape(term), g.config.PerTermLimit)

	body, err := g.fetcher.Get(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Items []githubRepo `json:"items"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unexpected github response: %w", err)
	}
	return parsed.Items, nil
}
