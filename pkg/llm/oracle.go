package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// OracleConfig represents the configuration for the completion oracle.
type OracleConfig struct {
	Provider    string // "openai" or "ollama"
	Model       string
	APIKey      string
	BaseURL     string // optional OpenAI-compatible endpoint
	OllamaURL   string
	Temperature float64
	MaxTokens   int
}

// Oracle generates judgments (relevance, similarity, refinement) as text
// or JSON completions. Callers must validate returned JSON before use.
type Oracle struct {
	config OracleConfig
	llm    llms.Model
}

// NewOracle creates an Oracle with the given configuration.
func NewOracle(config OracleConfig) (*Oracle, error) {
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.Temperature <= 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}

	var model llms.Model
	var err error

	switch config.Provider {
	case "", "openai":
		opts := []openai.Option{
			openai.WithToken(config.APIKey),
			openai.WithModel(config.Model),
		}
		if config.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(config.BaseURL))
		}
		model, err = openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize openai model: %w", err)
		}

	case "ollama":
		if config.OllamaURL == "" {
			config.OllamaURL = "http://localhost:11434"
		}
		model, err = ollama.New(
			ollama.WithModel(config.Model),
			ollama.WithServerURL(config.OllamaURL),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ollama model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", config.Provider)
	}

	return &Oracle{
		config: config,
		llm:    model,
	}, nil
}

// Complete generates a completion for the given prompts. With jsonOutput
// set the model is put in JSON mode; the returned text is still not
// guaranteed to be valid JSON.
func (o *Oracle) Complete(ctx context.Context, systemPrompt, userPrompt string, jsonOutput bool) (string, error) {
	var content []llms.MessageContent
	if systemPrompt != "" {
		content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	content = append(content, llms.TextParts(llms.ChatMessageTypeHuman, userPrompt))

	opts := []llms.CallOption{
		llms.WithTemperature(o.config.Temperature),
		llms.WithMaxTokens(o.config.MaxTokens),
	}
	if jsonOutput {
		opts = append(opts, llms.WithJSONMode())
	}

	response, err := o.llm.GenerateContent(ctx, content, opts...)
	if err != nil {
		return "", fmt.Errorf("completion error: %w", err)
	}
	if response == nil || len(response.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}

	return response.Choices[0].Content, nil
}
