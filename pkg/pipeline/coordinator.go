// Package pipeline drives the fan-out search rounds: every source
// adapter runs concurrently, each branch chains relevance filtering,
// enrichment, similarity scoring and persistence, and the results are
// merged into the parent idea once all branches have settled.
package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/xhad/ideascout/internal/models"
	"github.com/xhad/ideascout/internal/types"
	"github.com/xhad/ideascout/pkg/analysis"
)

type Deps struct {
	Ideas    types.IdeaStore
	Products types.ProductStore
	Sources  []types.Source
	Filter   *analysis.RelevanceFilter
	Enricher *analysis.Enricher
	Scorer   *analysis.SimilarityScorer
	Logger   *slog.Logger

	// BranchTimeout bounds one source branch end to end. Individual
	// outbound calls carry their own shorter timeouts.
	BranchTimeout time.Duration
}

// Coordinator owns one search round per idea and its partial-failure
// policy: a failing branch never aborts its siblings or the round.
type Coordinator struct {
	deps   Deps
	rounds *Rounds
	logger *slog.Logger
}

func New(deps Deps) *Coordinator {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.BranchTimeout == 0 {
		deps.BranchTimeout = 5 * time.Minute
	}
	return &Coordinator{
		deps:   deps,
		rounds: NewRounds(),
		logger: deps.Logger,
	}
}

func (c *Coordinator) Rounds() *Rounds {
	return c.rounds
}

// StartRound validates the idea exists, clears its completion flag and
// launches the round in the background. The returned idea lets the
// caller acknowledge immediately; completion is observable via the
// status query and the round event stream.
func (c *Coordinator) StartRound(ctx context.Context, ideaID string) (*models.Idea, error) {
	idea, err := c.deps.Ideas.GetIdea(ctx, ideaID)
	if err != nil {
		return nil, err
	}

	if err := c.deps.Ideas.MergeIdea(ctx, ideaID, map[string]any{
		"is_all_finished": false,
	}); err != nil {
		return nil, err
	}

	c.rounds.Begin(ideaID)

	// Detached from the request context: once launched, branches run
	// to individual completion or timeout.
	go c.runRound(context.Background(), *idea)

	return idea, nil
}

func (c *Coordinator) runRound(ctx context.Context, idea models.Idea) {
	c.logger.Info("round started", "idea_id", idea.ID, "sources", len(c.deps.Sources))

	type settled struct {
		source models.Source
		ids    []string
	}
	results := make([]settled, len(c.deps.Sources))

	done := make(chan int, len(c.deps.Sources))
	for i, src := range c.deps.Sources {
		go func(i int, src types.Source) {
			defer func() { done <- i }()

			branchCtx, cancel := context.WithTimeout(ctx, c.deps.BranchTimeout)
			defer cancel()

			ids, err := c.runBranch(branchCtx, src, idea)
			if err != nil {
				c.logger.Warn("source branch failed", "idea_id", idea.ID, "source", src.Name(), "error", err)
				c.rounds.SourceFailed(idea.ID, src.Name(), err)
			}
			results[i] = settled{source: src.Name(), ids: ids}
		}(i, src)
	}
	// allSettled join: every branch reports, success or failure.
	for range c.deps.Sources {
		<-done
	}

	var collected []string
	for _, res := range results {
		collected = append(collected, res.ids...)
	}

	total := c.finalize(ctx, idea, collected)
	c.rounds.Finish(idea.ID, total)
	c.logger.Info("round finished", "idea_id", idea.ID, "new_products", len(collected), "total_products", total)
}

// finalize merges the collected ids into the idea's existing set and
// flips the completion flag. Runs exactly once per round.
func (c *Coordinator) finalize(ctx context.Context, idea models.Idea, collected []string) int {
	existing := idea.SimilarProductIDs
	if fresh, err := c.deps.Ideas.GetIdea(ctx, idea.ID); err == nil {
		existing = fresh.SimilarProductIDs
	} else {
		c.logger.Warn("failed to re-read idea before merge", "idea_id", idea.ID, "error", err)
	}

	union := unionIDs(existing, collected)

	if err := c.deps.Ideas.MergeIdea(ctx, idea.ID, map[string]any{
		"similar_product_ids": union,
		"is_all_finished":     true,
	}); err != nil {
		c.logger.Error("failed to persist round results", "idea_id", idea.ID, "error", err)
	}
	return len(union)
}

// runBranch runs the full per-source chain:
// search -> filter -> enrich -> score -> persist.
func (c *Coordinator) runBranch(ctx context.Context, src types.Source, idea models.Idea) ([]string, error) {
	query := c.queryFor(src, idea)
	c.rounds.Publish(Event{IdeaID: idea.ID, Stage: StageSourceStarted, Source: src.Name()})

	products, err := src.Search(ctx, query)
	if err != nil {
		// An adapter failure yields an empty result for this source.
		c.rounds.Publish(Event{IdeaID: idea.ID, Stage: StageSourceFinished, Source: src.Name(), Error: err.Error()})
		return nil, err
	}

	if src.RequiresRelevanceCheck() {
		c.applyRelevance(ctx, query, src.Name(), products, idea.ID)
	}

	var relevant []models.Product
	for _, p := range products {
		if p.IsRelevant {
			relevant = append(relevant, p)
		}
	}
	if len(relevant) == 0 {
		c.rounds.Publish(Event{IdeaID: idea.ID, Stage: StageSourceFinished, Source: src.Name()})
		return nil, nil
	}

	for i := range relevant {
		relevant[i] = c.deps.Enricher.Enrich(ctx, relevant[i])
	}

	// Similarity scoring degrades soft: products are still persisted
	// without statements when the whole call fails.
	if sims, err := c.deps.Scorer.Score(ctx, query, relevant); err != nil {
		c.logger.Warn("similarity scoring failed, persisting without analysis",
			"idea_id", idea.ID, "source", src.Name(), "error", err)
	} else {
		for i := range relevant {
			relevant[i].SimilarityAnalysis = sims[relevant[i].CompanyName]
		}
	}

	var ids []string
	for i := range relevant {
		relevant[i].SearchQuery = query
		if err := c.deps.Products.PutProduct(ctx, &relevant[i]); err != nil {
			c.logger.Warn("failed to persist product",
				"idea_id", idea.ID, "source", src.Name(), "company", relevant[i].CompanyName, "error", err)
			continue
		}
		ids = append(ids, relevant[i].ID)
	}

	c.rounds.Publish(Event{IdeaID: idea.ID, Stage: StageSourceFinished, Source: src.Name(), Count: len(ids)})
	return ids, nil
}

// applyRelevance mutates the batch in place from a single filter call.
// A failed or unparseable filter call fails closed: every product in
// the batch becomes not relevant.
func (c *Coordinator) applyRelevance(ctx context.Context, query string, source models.Source, products []models.Product, ideaID string) {
	verdicts, err := c.deps.Filter.Filter(ctx, query, products)
	if err != nil {
		c.logger.Warn("relevance filter failed, treating batch as not relevant",
			"idea_id", ideaID, "source", source, "error", err)
		for i := range products {
			products[i].IsRelevant = false
		}
		return
	}

	for i := range products {
		products[i].IsRelevant = verdicts[products[i].CompanyName]
	}
}

// queryFor picks the search text per source: directory keyword searches
// get the short idea name, semantic searches get the full description.
func (c *Coordinator) queryFor(src types.Source, idea models.Idea) string {
	switch src.Name() {
	case models.SourceDevpost, models.SourceProductHunt:
		if idea.Name != "" {
			return idea.Name
		}
	}
	return idea.Description
}

func unionIDs(existing, collected []string) []string {
	seen := make(map[string]bool, len(existing)+len(collected))
	union := make([]string, 0, len(existing)+len(collected))
	for _, id := range existing {
		if !seen[id] {
			seen[id] = true
			union = append(union, id)
		}
	}
	sort.Strings(collected)
	for _, id := range collected {
		if !seen[id] {
			seen[id] = true
			union = append(union, id)
		}
	}
	return union
}
