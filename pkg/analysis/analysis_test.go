package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/ideascout/internal/models"
)

type fakeOracle struct {
	response   string
	err        error
	lastSystem string
	lastUser   string
}

func (f *fakeOracle) Complete(_ context.Context, systemPrompt, userPrompt string, _ bool) (string, error) {
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	return f.response, f.err
}

type fakeFetcher struct {
	text string
	err  error
}

func (f *fakeFetcher) Get(context.Context, string) ([]byte, error)          { return nil, f.err }
func (f *fakeFetcher) PostJSON(context.Context, string, any) ([]byte, error) { return nil, f.err }
func (f *fakeFetcher) ReadableText(context.Context, string) (string, error) { return f.text, f.err }

func TestNameAndQuestion(t *testing.T) {
	oracle := &fakeOracle{response: `{"name": "Dog Walker Match", "question": "Who pays, the owner or the walker?"}`}
	refiner := NewRefiner(oracle, nil)

	name, question, err := refiner.NameAndQuestion(context.Background(), "uber for dog walking")
	require.NoError(t, err)
	assert.Equal(t, "Dog Walker Match", name)
	assert.Equal(t, "Who pays, the owner or the walker?", question)
	assert.Contains(t, oracle.lastUser, "uber for dog walking")
}

func TestNameAndQuestionMalformed(t *testing.T) {
	oracle := &fakeOracle{response: "Sure! Here is a name for your idea."}
	refiner := NewRefiner(oracle, nil)

	_, _, err := refiner.NameAndQuestion(context.Background(), "uber for dog walking")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestFollowupDegradesOnBadJSON(t *testing.T) {
	oracle := &fakeOracle{response: "not json at all"}
	refiner := NewRefiner(oracle, nil)

	description, question, err := refiner.Followup(context.Background(), "idea", "q?", "answer")
	require.NoError(t, err)
	assert.Empty(t, description)
	assert.Empty(t, question)
}

func TestFollowup(t *testing.T) {
	oracle := &fakeOracle{response: `{"updatedDescription": "refined idea", "nextQuestion": "what about pricing?"}`}
	refiner := NewRefiner(oracle, nil)

	description, question, err := refiner.Followup(context.Background(), "idea", "q?", "answer")
	require.NoError(t, err)
	assert.Equal(t, "refined idea", description)
	assert.Equal(t, "what about pricing?", question)
}

func TestRelevanceFilter(t *testing.T) {
	oracle := &fakeOracle{response: `{"Acme": true, "Globex": false, "Initech": "maybe"}`}
	filter := NewRelevanceFilter(oracle)

	products := []models.Product{
		{CompanyName: "Acme"},
		{CompanyName: "Globex"},
		{CompanyName: "Initech"},
	}

	verdicts, err := filter.Filter(context.Background(), "query", products)
	require.NoError(t, err)
	assert.True(t, verdicts["Acme"])
	assert.False(t, verdicts["Globex"])
	// Non-boolean verdicts count as not relevant.
	assert.False(t, verdicts["Initech"])
	// Products the oracle never mentioned are simply absent.
	assert.False(t, verdicts["Unknown"])
}

func TestRelevanceFilterMalformed(t *testing.T) {
	oracle := &fakeOracle{response: "I think they are all relevant"}
	filter := NewRelevanceFilter(oracle)

	_, err := filter.Filter(context.Background(), "query", []models.Product{{CompanyName: "Acme"}})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestRelevanceFilterEmptyBatch(t *testing.T) {
	oracle := &fakeOracle{}
	filter := NewRelevanceFilter(oracle)

	verdicts, err := filter.Filter(context.Background(), "query", nil)
	require.NoError(t, err)
	assert.Empty(t, verdicts)
	// No oracle call should have happened.
	assert.Empty(t, oracle.lastUser)
}

func TestSimilarityScore(t *testing.T) {
	oracle := &fakeOracle{response: `{"similarities": {
		"Acme": ["both target dog owners", "", "both are mobile-first"],
		"Globex": "single statement as a string"
	}}`}
	scorer := NewSimilarityScorer(oracle)

	products := []models.Product{
		{CompanyName: "Acme", IsRelevant: true},
		{CompanyName: "Globex", IsRelevant: true},
		{CompanyName: "Hooli", IsRelevant: true},
		{CompanyName: "Skipped", IsRelevant: false},
	}

	sims, err := scorer.Score(context.Background(), "query", products)
	require.NoError(t, err)

	// Blank entries are dropped from lists.
	assert.Equal(t, []string{"both target dog owners", "both are mobile-first"}, sims["Acme"])
	// A scalar is wrapped into a one-element list.
	assert.Equal(t, []string{"single statement as a string"}, sims["Globex"])
	// Missing products get the placeholder.
	assert.Equal(t, []string{NoSimilarityPlaceholder}, sims["Hooli"])
	// Irrelevant products are not scored at all.
	_, ok := sims["Skipped"]
	assert.False(t, ok)
}

func TestSimilarityScoreMissingKey(t *testing.T) {
	oracle := &fakeOracle{response: `{"analysis": "wrong shape"}`}
	scorer := NewSimilarityScorer(oracle)

	_, err := scorer.Score(context.Background(), "query", []models.Product{{CompanyName: "Acme", IsRelevant: true}})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestSimilarityScoreOracleFailure(t *testing.T) {
	oracle := &fakeOracle{err: errors.New("rate limited")}
	scorer := NewSimilarityScorer(oracle)

	_, err := scorer.Score(context.Background(), "query", []models.Product{{CompanyName: "Acme", IsRelevant: true}})
	assert.Error(t, err)
}

func TestNormalizeSimilarities(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{"list", `["a", "b"]`, []string{"a", "b"}},
		{"list with blanks", `["a", "  ", ""]`, []string{"a"}},
		{"all blank list", `["", " "]`, []string{NoSimilarityPlaceholder}},
		{"scalar", `"just one"`, []string{"just one"}},
		{"blank scalar", `"  "`, []string{NoSimilarityPlaceholder}},
		{"number", `42`, []string{NoSimilarityPlaceholder}},
		{"missing", ``, []string{NoSimilarityPlaceholder}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeSimilarities([]byte(tt.raw)))
		})
	}
}

func TestEnrichAppendsSummary(t *testing.T) {
	oracle := &fakeOracle{response: "A tool that matches dog owners with walkers nearby."}
	fetcher := &fakeFetcher{text: "landing page text"}
	enricher := NewEnricher(fetcher, oracle, nil)

	p := models.Product{CompanyName: "Acme", Website: "https://acme.test", Description: "original"}
	got := enricher.Enrich(context.Background(), p)

	assert.Equal(t, "original\n\nDetailed Summary:\nA tool that matches dog owners with walkers nearby.", got.Description)
}

func TestEnrichLeavesProductUnchangedOnFailure(t *testing.T) {
	p := models.Product{CompanyName: "Acme", Website: "https://acme.test", Description: "original"}

	t.Run("no website", func(t *testing.T) {
		enricher := NewEnricher(&fakeFetcher{}, &fakeOracle{}, nil)
		bare := models.Product{CompanyName: "Acme", Description: "original"}
		assert.Equal(t, bare, enricher.Enrich(context.Background(), bare))
	})

	t.Run("fetch fails", func(t *testing.T) {
		enricher := NewEnricher(&fakeFetcher{err: errors.New("timeout")}, &fakeOracle{}, nil)
		assert.Equal(t, p, enricher.Enrich(context.Background(), p))
	})

	t.Run("summary fails", func(t *testing.T) {
		enricher := NewEnricher(&fakeFetcher{text: "content"}, &fakeOracle{err: errors.New("down")}, nil)
		assert.Equal(t, p, enricher.Enrich(context.Background(), p))
	})

	t.Run("empty summary", func(t *testing.T) {
		enricher := NewEnricher(&fakeFetcher{text: "content"}, &fakeOracle{response: "  "}, nil)
		assert.Equal(t, p, enricher.Enrich(context.Background(), p))
	})
}
