package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xhad/ideascout/internal/models"
	"github.com/xhad/ideascout/internal/types"
)

// NoSimilarityPlaceholder is substituted when the oracle produced no
// usable similarity statements for a product.
const NoSimilarityPlaceholder = "No similarity analysis available"

// SimilarityScorer produces short "why these are similar" statements
// for relevant products.
type SimilarityScorer struct {
	oracle types.Completer
}

func NewSimilarityScorer(oracle types.Completer) *SimilarityScorer {
	return &SimilarityScorer{oracle: oracle}
}

// Score makes a single batched oracle call for the relevant products
// and returns normalized similarity statements keyed by company name.
// Every relevant product gets an entry: lists are kept with blank
// entries dropped, a scalar is wrapped into a one-element list, and a
// missing product gets the placeholder. The call fails only when the
// response is not JSON or lacks the similarities key entirely.
func (s *SimilarityScorer) Score(ctx context.Context, query string, products []models.Product) (map[string][]string, error) {
	var relevant []models.Product
	for _, p := range products {
		if p.IsRelevant {
			relevant = append(relevant, p)
		}
	}
	if len(relevant) == 0 {
		return map[string][]string{}, nil
	}

	systemPrompt := similarityAnalysisPrompt +
		"\nYou must respond with valid JSON in the following format: { \"similarities\": { \"companyName\": [\"similarity1\", \"similarity2\"] } }"
	userPrompt := fmt.Sprintf("Compare %q with each of the following products:\n\n%s", query, describeProducts(relevant))

	text, err := s.oracle.Complete(ctx, systemPrompt, userPrompt, true)
	if err != nil {
		return nil, fmt.Errorf("similarity analysis: %w", err)
	}

	var parsed struct {
		Similarities map[string]json.RawMessage `json:"similarities"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("similarity analysis: %w: %v", ErrMalformed, err)
	}
	if parsed.Similarities == nil {
		return nil, fmt.Errorf("similarity analysis: %w: missing similarities object", ErrMalformed)
	}

	normalized := make(map[string][]string, len(relevant))
	for _, p := range relevant {
		normalized[p.CompanyName] = normalizeSimilarities(parsed.Similarities[p.CompanyName])
	}
	return normalized, nil
}

func normalizeSimilarities(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{NoSimilarityPlaceholder}
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		var kept []string
		for _, item := range list {
			if strings.TrimSpace(item) != "" {
				kept = append(kept, item)
			}
		}
		if len(kept) == 0 {
			return []string{NoSimilarityPlaceholder}
		}
		return kept
	}

	var scalar string
	if err := json.Unmarshal(raw, &scalar); err == nil && strings.TrimSpace(scalar) != "" {
		return []string{scalar}
	}

	return []string{NoSimilarityPlaceholder}
}
