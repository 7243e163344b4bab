package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate LLM config
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.APIKey == "" {
			errors = append(errors, ValidationError{
				Field:   "llm.api_key",
				Message: "API key is required for the openai provider",
			})
		}
	case "ollama":
		if _, err := url.Parse(c.LLM.OllamaURL); err != nil || c.LLM.OllamaURL == "" {
			errors = append(errors, ValidationError{
				Field:   "llm.ollama_url",
				Message: "invalid Ollama base URL",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("unsupported provider: %s", c.LLM.Provider),
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	// Validate Database config
	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Database.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	// Validate Fetch config
	if c.Fetch.TimeoutSeconds < 1 {
		errors = append(errors, ValidationError{
			Field:   "fetch.timeout_seconds",
			Message: "timeout_seconds must be positive",
		})
	}

	if c.Fetch.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "fetch.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	if c.Fetch.MaxRetries < 1 {
		errors = append(errors, ValidationError{
			Field:   "fetch.max_retries",
			Message: "max_retries must be positive",
		})
	}

	// Validate Sources config
	for field, raw := range map[string]string{
		"sources.devpost_url":     c.Sources.DevpostURL,
		"sources.producthunt_url": c.Sources.ProductHuntURL,
		"sources.yc_search_url":   c.Sources.YCSearchURL,
		"sources.github_api_url":  c.Sources.GitHubAPIURL,
	} {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("invalid URL: %s", raw),
			})
		}
	}

	if c.Sources.DevpostPages < 1 {
		errors = append(errors, ValidationError{
			Field:   "sources.devpost_pages",
			Message: "devpost_pages must be positive",
		})
	}

	return errors
}
