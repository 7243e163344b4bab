package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port string `yaml:"port"`
}

type LLMConfig struct {
	Provider       string  `yaml:"provider"` // "openai" or "ollama"
	Model          string  `yaml:"model"`
	BaseURL        string  `yaml:"base_url"`
	APIKey         string  `yaml:"api_key"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
	EmbeddingModel string  `yaml:"embedding_model"`
	OllamaURL      string  `yaml:"ollama_url"`
}

type DatabaseConfig struct {
	URL       string `yaml:"url"`
	VectorDim int    `yaml:"vector_dim"`
}

type FetchConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	RateLimit      float64 `yaml:"rate_limit"` // requests per second
	UserAgent      string  `yaml:"user_agent"`
	MaxRetries     int     `yaml:"max_retries"`
	RetryDelayMs   int     `yaml:"retry_delay_ms"`
}

type SourcesConfig struct {
	DevpostURL     string `yaml:"devpost_url"`
	DevpostPages   int    `yaml:"devpost_pages"`
	ProductHuntURL string `yaml:"producthunt_url"`
	YCSearchURL    string `yaml:"yc_search_url"`
	GitHubAPIURL   string `yaml:"github_api_url"`
}

type LoggingConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	Database DatabaseConfig `yaml:"database"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Sources  SourcesConfig  `yaml:"sources"`
	Logging  LoggingConfig  `yaml:"logging"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/ideascout/config.yaml"),
			"/etc/ideascout/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}

	if config.LLM.Provider == "" {
		config.LLM.Provider = "openai"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = "gpt-4o-mini"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.7
	}
	if config.LLM.EmbeddingModel == "" {
		config.LLM.EmbeddingModel = "nomic-embed-text:latest"
	}
	if config.LLM.OllamaURL == "" {
		config.LLM.OllamaURL = "http://localhost:11434"
	}

	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768
	}

	if config.Fetch.TimeoutSeconds == 0 {
		config.Fetch.TimeoutSeconds = 10
	}
	if config.Fetch.RateLimit == 0 {
		config.Fetch.RateLimit = 2.0
	}
	if config.Fetch.UserAgent == "" {
		config.Fetch.UserAgent = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
	}
	if config.Fetch.MaxRetries == 0 {
		config.Fetch.MaxRetries = 3
	}
	if config.Fetch.RetryDelayMs == 0 {
		config.Fetch.RetryDelayMs = 1000
	}

	if config.Sources.DevpostURL == "" {
		config.Sources.DevpostURL = "https://devpost.com"
	}
	if config.Sources.DevpostPages == 0 {
		config.Sources.DevpostPages = 3
	}
	if config.Sources.ProductHuntURL == "" {
		config.Sources.ProductHuntURL = "https://www.producthunt.com"
	}
	if config.Sources.YCSearchURL == "" {
		config.Sources.YCSearchURL = "https://yc-search.zeabur.app/search"
	}
	if config.Sources.GitHubAPIURL == "" {
		config.Sources.GitHubAPIURL = "https://api.github.com"
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
}

func mergeWithEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.OllamaURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
}
