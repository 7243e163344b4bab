package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/ideascout/internal/models"
	"github.com/xhad/ideascout/internal/types"
	"github.com/xhad/ideascout/pkg/analysis"
	"github.com/xhad/ideascout/pkg/store"
)

type fakeSource struct {
	name     models.Source
	products []models.Product
	err      error
	check    bool
}

func (f *fakeSource) Name() models.Source          { return f.name }
func (f *fakeSource) RequiresRelevanceCheck() bool { return f.check }
func (f *fakeSource) Search(context.Context, string) ([]models.Product, error) {
	return f.products, f.err
}

// scriptedOracle routes completions on the user prompt: the relevance
// filter asks to "Analyze", the similarity scorer asks to "Compare".
type scriptedOracle struct {
	relevance  string
	similarity string
}

func (o *scriptedOracle) Complete(_ context.Context, _, userPrompt string, _ bool) (string, error) {
	if strings.HasPrefix(userPrompt, "Compare") {
		return o.similarity, nil
	}
	return o.relevance, nil
}

type nopFetcher struct{}

func (nopFetcher) Get(context.Context, string) ([]byte, error)          { return nil, errors.New("no") }
func (nopFetcher) PostJSON(context.Context, string, any) ([]byte, error) { return nil, errors.New("no") }
func (nopFetcher) ReadableText(context.Context, string) (string, error) { return "", errors.New("no") }

func newTestCoordinator(mem *store.Memory, oracle types.Completer, srcs ...types.Source) *Coordinator {
	return New(Deps{
		Ideas:         mem,
		Products:      mem,
		Sources:       srcs,
		Filter:        analysis.NewRelevanceFilter(oracle),
		Enricher:      analysis.NewEnricher(nopFetcher{}, oracle, nil),
		Scorer:        analysis.NewSimilarityScorer(oracle),
		BranchTimeout: 5 * time.Second,
	})
}

func seedIdea(t *testing.T, mem *store.Memory, ids ...string) *models.Idea {
	t.Helper()
	idea := &models.Idea{
		ID:                "idea-1",
		Name:              "Dog Walker Match",
		Description:       "a marketplace for dog walking",
		SimilarProductIDs: ids,
	}
	require.NoError(t, mem.PutIdea(context.Background(), idea))
	return idea
}

// waitFinished consumes round events until the round completes.
func waitFinished(t *testing.T, events <-chan Event) Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Stage == StageRoundFinished {
				return ev
			}
		case <-timeout:
			t.Fatal("round never finished")
			return Event{}
		}
	}
}

func TestRoundCollectsAcrossSources(t *testing.T) {
	mem := store.NewMemory()
	seedIdea(t, mem)

	oracle := &scriptedOracle{
		relevance:  `{"Acme": true, "Globex": true}`,
		similarity: `{"similarities": {"Acme": ["both match walkers"], "Globex": ["both on demand"], "Wag": ["same market"]}}`,
	}

	c := newTestCoordinator(mem, oracle,
		&fakeSource{name: models.SourceDevpost, check: true, products: []models.Product{
			{ID: "a", CompanyName: "Acme", IsRelevant: true},
			{ID: "b", CompanyName: "Globex", IsRelevant: true},
		}},
		&fakeSource{name: models.SourceYC, products: []models.Product{
			{ID: "c", CompanyName: "Wag", IsRelevant: true},
		}},
		&fakeSource{name: models.SourceGitHub, err: errors.New("api down")},
		&fakeSource{name: models.SourceProductHunt, check: true},
	)

	events, cancel := c.Rounds().Subscribe("idea-1")
	defer cancel()

	ctx := context.Background()
	idea, err := c.StartRound(ctx, "idea-1")
	require.NoError(t, err)
	assert.Equal(t, "idea-1", idea.ID)

	finished := waitFinished(t, events)
	assert.Equal(t, 3, finished.Count)

	got, err := mem.GetIdea(ctx, "idea-1")
	require.NoError(t, err)
	assert.True(t, got.IsAllFinished)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, got.SimilarProductIDs)

	// Persisted products carry the query and similarity statements.
	p, err := mem.GetProduct(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Dog Walker Match", p.SearchQuery)
	assert.Equal(t, []string{"both match walkers"}, p.SimilarityAnalysis)

	// The failing branch was recorded without sinking the round.
	round := c.Rounds().Get("idea-1")
	require.NotNil(t, round)
	assert.True(t, round.Finished)
	assert.Contains(t, round.SourceErrors, models.SourceGitHub)
}

func TestRoundFailsClosedOnMalformedRelevance(t *testing.T) {
	mem := store.NewMemory()
	seedIdea(t, mem)

	oracle := &scriptedOracle{relevance: "all of them look great to me"}

	c := newTestCoordinator(mem, oracle,
		&fakeSource{name: models.SourceDevpost, check: true, products: []models.Product{
			{ID: "a", CompanyName: "Acme", IsRelevant: true},
		}},
	)

	events, cancel := c.Rounds().Subscribe("idea-1")
	defer cancel()

	ctx := context.Background()
	_, err := c.StartRound(ctx, "idea-1")
	require.NoError(t, err)
	waitFinished(t, events)

	got, err := mem.GetIdea(ctx, "idea-1")
	require.NoError(t, err)
	assert.True(t, got.IsAllFinished)
	assert.Empty(t, got.SimilarProductIDs)

	_, err = mem.GetProduct(ctx, "a")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRoundPersistsWithoutAnalysisOnScorerFailure(t *testing.T) {
	mem := store.NewMemory()
	seedIdea(t, mem)

	// Similarity output is not JSON, so the whole scoring call fails.
	oracle := &scriptedOracle{similarity: "they are very similar indeed"}

	c := newTestCoordinator(mem, oracle,
		&fakeSource{name: models.SourceYC, products: []models.Product{
			{ID: "c", CompanyName: "Wag", IsRelevant: true},
		}},
	)

	events, cancel := c.Rounds().Subscribe("idea-1")
	defer cancel()

	ctx := context.Background()
	_, err := c.StartRound(ctx, "idea-1")
	require.NoError(t, err)
	waitFinished(t, events)

	got, err := mem.GetIdea(ctx, "idea-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, got.SimilarProductIDs)

	p, err := mem.GetProduct(ctx, "c")
	require.NoError(t, err)
	assert.Empty(t, p.SimilarityAnalysis)
}

func TestStartRoundUnknownIdea(t *testing.T) {
	mem := store.NewMemory()
	c := newTestCoordinator(mem, &scriptedOracle{})

	_, err := c.StartRound(context.Background(), "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRoundMergesWithExistingIDs(t *testing.T) {
	mem := store.NewMemory()
	seedIdea(t, mem, "old", "c")

	oracle := &scriptedOracle{similarity: `{"similarities": {}}`}

	c := newTestCoordinator(mem, oracle,
		&fakeSource{name: models.SourceYC, products: []models.Product{
			{ID: "c", CompanyName: "Wag", IsRelevant: true},
			{ID: "d", CompanyName: "Rover", IsRelevant: true},
		}},
	)

	events, cancel := c.Rounds().Subscribe("idea-1")
	defer cancel()

	ctx := context.Background()
	_, err := c.StartRound(ctx, "idea-1")
	require.NoError(t, err)
	waitFinished(t, events)

	got, err := mem.GetIdea(ctx, "idea-1")
	require.NoError(t, err)
	// Existing ids keep their order, duplicates collapse, new ids append.
	assert.Equal(t, []string{"old", "c", "d"}, got.SimilarProductIDs)
}

func TestUnionIDs(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, unionIDs([]string{"a", "b"}, []string{"c", "b", "a"}))
	assert.Equal(t, []string{"x", "y"}, unionIDs(nil, []string{"y", "x"}))
	assert.Empty(t, unionIDs(nil, nil))
}
