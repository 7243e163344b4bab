package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/xhad/ideascout/internal/models"
)

// Memory is an in-memory document store. Used by the CLI when no
// database URL is configured, and by tests.
type Memory struct {
	mu       sync.RWMutex
	ideas    map[string]*models.Idea
	products map[string]*models.Product
}

func NewMemory() *Memory {
	return &Memory{
		ideas:    make(map[string]*models.Idea),
		products: make(map[string]*models.Product),
	}
}

func (m *Memory) GetIdea(_ context.Context, id string) (*models.Idea, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idea, ok := m.ideas[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *idea
	copied.SimilarProductIDs = append([]string(nil), idea.SimilarProductIDs...)
	return &copied, nil
}

func (m *Memory) PutIdea(_ context.Context, idea *models.Idea) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *idea
	m.ideas[idea.ID] = &copied
	return nil
}

// MergeIdea applies a partial update via a JSON round-trip so the merge
// semantics match the JSONB `||` operator of the Postgres store.
func (m *Memory) MergeIdea(_ context.Context, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	base := map[string]any{}
	if existing, ok := m.ideas[id]; ok {
		raw, err := json.Marshal(existing)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &base); err != nil {
			return err
		}
	}
	for k, v := range fields {
		base[k] = v
	}

	raw, err := json.Marshal(base)
	if err != nil {
		return err
	}
	var merged models.Idea
	if err := json.Unmarshal(raw, &merged); err != nil {
		return err
	}
	merged.ID = id
	m.ideas[id] = &merged
	return nil
}

func (m *Memory) PutProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *p
	copied.SimilarityAnalysis = append([]string(nil), p.SimilarityAnalysis...)
	m.products[p.ID] = &copied
	return nil
}

func (m *Memory) GetProduct(_ context.Context, id string) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *Memory) ProductsByIDs(_ context.Context, ids []string, _ string) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var products []models.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			products = append(products, *p)
		}
	}
	return products, nil
}
