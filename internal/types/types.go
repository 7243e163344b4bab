package types

import (
	"context"

	"github.com/xhad/ideascout/internal/models"
)

// Core interfaces. Components receive these as explicit collaborators;
// nothing in the pipeline reaches for a package-level client.

// Completer is the scoring oracle: a text completion given a system and
// user prompt. When jsonOutput is set the oracle is asked for a JSON
// object, but callers must still validate the returned text before use.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, jsonOutput bool) (string, error)
}

// Embedder produces vector embeddings for texts.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Fetcher retrieves external content with bounded timeouts.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
	PostJSON(ctx context.Context, url string, body any) ([]byte, error)
	// ReadableText fetches a page and returns its visible text with
	// script and style content stripped.
	ReadableText(ctx context.Context, url string) (string, error)
}

// Source is a per-directory search adapter producing raw product candidates.
type Source interface {
	Name() models.Source
	Search(ctx context.Context, query string) ([]models.Product, error)
	// RequiresRelevanceCheck reports whether this source's results must
	// pass the relevance filter. Sources whose results are inherently
	// on-topic (the query already drove a semantic search) skip it.
	RequiresRelevanceCheck() bool
}

// IdeaStore persists idea records.
type IdeaStore interface {
	GetIdea(ctx context.Context, id string) (*models.Idea, error)
	PutIdea(ctx context.Context, idea *models.Idea) error
	// MergeIdea applies a partial update, leaving unnamed fields intact.
	MergeIdea(ctx context.Context, id string, fields map[string]any) error
}

// ProductStore persists discovered products.
type ProductStore interface {
	PutProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	// ProductsByIDs resolves ids to stored records, silently dropping
	// ids with no record. A non-empty rankQuery orders results by
	// semantic closeness to it where embeddings are available;
	// otherwise the given id order is kept.
	ProductsByIDs(ctx context.Context, ids []string, rankQuery string) ([]models.Product, error)
}
