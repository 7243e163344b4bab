package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xhad/ideascout/internal/models"
	"github.com/xhad/ideascout/internal/types"
)

// ErrMalformed indicates the oracle returned output that is not valid
// JSON or lacks a required key.
var ErrMalformed = errors.New("malformed oracle response")

// RelevanceFilter decides, per candidate batch, which products are
// actually relevant to the search query.
type RelevanceFilter struct {
	oracle types.Completer
}

func NewRelevanceFilter(oracle types.Completer) *RelevanceFilter {
	return &RelevanceFilter{oracle: oracle}
}

// Filter makes a single batched oracle call and returns a relevance
// verdict keyed by company name. Products absent from the oracle's
// answer must be treated as not relevant by the caller. An unparseable
// response fails the whole call; the caller is expected to fail closed.
func (f *RelevanceFilter) Filter(ctx context.Context, query string, products []models.Product) (map[string]bool, error) {
	if len(products) == 0 {
		return map[string]bool{}, nil
	}

	userPrompt := fmt.Sprintf("Analyze these products for relevance to the search query %q:\n\n%s\nRespond with a JSON object where keys are company names and values are boolean indicating relevance",
		query, describeProducts(products))

	text, err := f.oracle.Complete(ctx, productRelevancePrompt, userPrompt, true)
	if err != nil {
		return nil, fmt.Errorf("relevance analysis: %w", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("relevance analysis: %w: %v", ErrMalformed, err)
	}

	verdicts := make(map[string]bool, len(parsed))
	for name, value := range parsed {
		// Anything that is not a JSON true counts as not relevant.
		relevant, ok := value.(bool)
		verdicts[name] = ok && relevant
	}
	return verdicts, nil
}

// describeProducts renders the numbered product list shared by the
// relevance and similarity prompts.
func describeProducts(products []models.Product) string {
	var b strings.Builder
	for i, p := range products {
		tagline := p.Tagline
		if tagline == "" {
			tagline = "No tagline available"
		}
		fmt.Fprintf(&b, "[%d] Product: %s\nTagline: %s\nDescription: %s\n\n", i+1, p.CompanyName, tagline, p.Description)
	}
	return b.String()
}
