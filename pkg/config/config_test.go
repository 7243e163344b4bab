package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
server:
  port: "9090"

llm:
  provider: "ollama"
  model: "llama3"
  max_tokens: 1000
  temperature: 0.5
  ollama_url: "http://localhost:11434"

database:
  url: "postgres://localhost:5432/test"
  vector_dim: 768

fetch:
  timeout_seconds: 10
  rate_limit: 1.5
  max_retries: 2

sources:
  devpost_pages: 2

logging:
  level: "debug"
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	// Verify loaded values
	assert.Equal(t, "9090", config.Server.Port)
	assert.Equal(t, "ollama", config.LLM.Provider)
	assert.Equal(t, "llama3", config.LLM.Model)
	assert.Equal(t, 1000, config.LLM.MaxTokens)
	assert.Equal(t, 0.5, config.LLM.Temperature)
	assert.Equal(t, "postgres://localhost:5432/test", config.Database.URL)
	assert.Equal(t, 10, config.Fetch.TimeoutSeconds)
	assert.Equal(t, 1.5, config.Fetch.RateLimit)
	assert.Equal(t, 2, config.Sources.DevpostPages)
	assert.Equal(t, "debug", config.Logging.Level)

	// Unset values fall back to defaults
	assert.Equal(t, "https://devpost.com", config.Sources.DevpostURL)
	assert.Equal(t, "https://api.github.com", config.Sources.GitHubAPIURL)
	assert.Equal(t, "nomic-embed-text:latest", config.LLM.EmbeddingModel)
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := getDefaultConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", config.Server.Port)
	assert.Equal(t, "openai", config.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", config.LLM.Model)
	assert.Equal(t, 2000, config.LLM.MaxTokens)
	assert.Equal(t, 768, config.Database.VectorDim)
	assert.Equal(t, 3, config.Fetch.MaxRetries)
	assert.Equal(t, 3, config.Sources.DevpostPages)
}

func TestConfigValidation(t *testing.T) {
	valid := func() Config {
		cfg := Config{}
		cfg.LLM.Provider = "openai"
		cfg.LLM.APIKey = "sk-test"
		cfg.LLM.MaxTokens = 1000
		cfg.LLM.Temperature = 0.7
		applyDefaults(&cfg)
		return cfg
	}

	tests := []struct {
		name          string
		mutate        func(*Config)
		errorMessages []string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name: "openai without api key",
			mutate: func(c *Config) {
				c.LLM.APIKey = ""
			},
			errorMessages: []string{"llm.api_key: API key is required"},
		},
		{
			name: "unsupported provider",
			mutate: func(c *Config) {
				c.LLM.Provider = "cohere"
			},
			errorMessages: []string{"llm.provider: unsupported provider: cohere"},
		},
		{
			name: "out of range llm settings",
			mutate: func(c *Config) {
				c.LLM.MaxTokens = 5000
				c.LLM.Temperature = 3.0
			},
			errorMessages: []string{
				"llm.max_tokens: max_tokens must be between 1 and 4096",
				"llm.temperature: temperature must be between 0 and 2",
			},
		},
		{
			name: "bad source url and page count",
			mutate: func(c *Config) {
				c.Sources.DevpostURL = "not-a-url"
				c.Sources.DevpostPages = 0
			},
			errorMessages: []string{
				"sources.devpost_url: invalid URL: not-a-url",
				"sources.devpost_pages: devpost_pages must be positive",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			errors := cfg.Validate()
			assert.Len(t, errors, len(tt.errorMessages))
			for i, msg := range tt.errorMessages {
				assert.Contains(t, errors[i].Error(), msg)
			}
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	// Set environment variables
	os.Setenv("PORT", "3000")
	os.Setenv("OPENAI_API_KEY", "sk-env")
	os.Setenv("DATABASE_URL", "postgres://env-db:5432/test")
	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("OPENAI_API_KEY")
		os.Unsetenv("DATABASE_URL")
	}()

	config := &Config{}
	mergeWithEnv(config)

	assert.Equal(t, "3000", config.Server.Port)
	assert.Equal(t, "sk-env", config.LLM.APIKey)
	assert.Equal(t, "postgres://env-db:5432/test", config.Database.URL)
}
