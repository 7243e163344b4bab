package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/xhad/ideascout/internal/models"
	"github.com/xhad/ideascout/internal/types"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

const (
	collectionIdeas    = "ideas"
	collectionProducts = "products"
)

type Config struct {
	ConnString string
	VectorDim  int
}

// Store is a Postgres-backed document store. Records live in JSONB
// columns keyed by id; products additionally carry a best-effort
// description embedding used to rank results.
type Store struct {
	config   Config
	pool     *pgxpool.Pool
	embedder types.Embedder // may be nil; embeddings are then skipped
}

func NewWithConfig(config Config, embedder types.Embedder) (*Store, error) {
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	s := &Store{
		config:   config,
		pool:     pool,
		embedder: embedder,
	}

	if err := s.initialize(); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initialize() error {
	ctx := context.Background()

	_, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}

	_, err = s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS ideas (
			id TEXT PRIMARY KEY,
			doc JSONB NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create ideas table: %v", err)
	}

	_, err = s.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			doc JSONB NOT NULL,
			embedding vector(%d)
		)`, s.config.VectorDim))
	if err != nil {
		return fmt.Errorf("failed to create products table: %v", err)
	}

	_, err = s.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS products_embedding_idx
		ON products
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`)
	if err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}

	return nil
}

func (s *Store) getDoc(ctx context.Context, collection, id string, out any) error {
	var doc []byte
	query := fmt.Sprintf("SELECT doc FROM %s WHERE id = $1", collection)
	if err := s.pool.QueryRow(ctx, query, id).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get %s/%s: %v", collection, id, err)
	}
	return json.Unmarshal(doc, out)
}

func (s *Store) setDoc(ctx context.Context, collection, id string, record any) error {
	doc, err := json.Marshal(record)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, doc) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`, collection)
	if _, err := s.pool.Exec(ctx, query, id, doc); err != nil {
		return fmt.Errorf("failed to set %s/%s: %v", collection, id, err)
	}
	return nil
}

// mergeDoc applies a partial update: named fields overwrite, everything
// else is left intact. Creates the record when absent.
func (s *Store) mergeDoc(ctx context.Context, collection, id string, fields map[string]any) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, doc) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET doc = %s.doc || EXCLUDED.doc`, collection, collection)
	if _, err := s.pool.Exec(ctx, query, id, patch); err != nil {
		return fmt.Errorf("failed to merge %s/%s: %v", collection, id, err)
	}
	return nil
}

func (s *Store) GetIdea(ctx context.Context, id string) (*models.Idea, error) {
	var idea models.Idea
	if err := s.getDoc(ctx, collectionIdeas, id, &idea); err != nil {
		return nil, err
	}
	return &idea, nil
}

func (s *Store) PutIdea(ctx context.Context, idea *models.Idea) error {
	return s.setDoc(ctx, collectionIdeas, idea.ID, idea)
}

func (s *Store) MergeIdea(ctx context.Context, id string, fields map[string]any) error {
	return s.mergeDoc(ctx, collectionIdeas, id, fields)
}

func (s *Store) PutProduct(ctx context.Context, p *models.Product) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return err
	}

	embedding := s.embed(ctx, p.Description)

	_, err = s.pool.Exec(ctx, `
		INSERT INTO products (id, doc, embedding) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, embedding = EXCLUDED.embedding`,
		p.ID, doc, embedding)
	if err != nil {
		return fmt.Errorf("failed to store product %s: %v", p.ID, err)
	}
	return nil
}

// embed returns a vector for the text, or nil (stored as NULL) when no
// embedder is configured or the call fails. Embeddings are best-effort.
func (s *Store) embed(ctx context.Context, text string) *pgvector.Vector {
	if s.embedder == nil || text == "" {
		return nil
	}
	embeddings, err := s.embedder.CreateEmbedding(ctx, []string{text})
	if err != nil || len(embeddings) == 0 {
		return nil
	}
	v := pgvector.NewVector(embeddings[0])
	return &v
}

func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := s.getDoc(ctx, collectionProducts, id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ProductsByIDs(ctx context.Context, ids []string, rankQuery string) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows pgx.Rows
	var err error

	if queryVec := s.embed(ctx, rankQuery); queryVec != nil {
		rows, err = s.pool.Query(ctx, `
			SELECT doc FROM products
			WHERE id = ANY($1)
			ORDER BY embedding <=> $2 NULLS LAST`,
			ids, *queryVec)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT p.doc FROM products p
			JOIN unnest($1::text[]) WITH ORDINALITY AS t(id, ord) ON p.id = t.id
			ORDER BY t.ord`,
			ids)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %v", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		var p models.Product
		if err := json.Unmarshal(doc, &p); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
