package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/ollama"
)

// EmbedderConfig represents the configuration for the embedder.
type EmbedderConfig struct {
	Model   string
	BaseURL string // Ollama server URL
}

// Embedder produces description embeddings used to rank stored products
// by semantic closeness to an idea.
type Embedder struct {
	config EmbedderConfig
	llm    *ollama.LLM
}

func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	if config.Model == "" {
		config.Model = "nomic-embed-text:latest"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}

	emb, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return &Embedder{
		config: config,
		llm:    emb,
	}, nil
}

func (e *Embedder) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	return e.llm.CreateEmbedding(ctx, texts)
}
