package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Database struct {
		ConnectionString string `yaml:"connection_string"`
	} `yaml:"database"`
	Ollama struct {
		BaseURL        string `yaml:"base_url"`
		ChatModel      string `yaml:"chat_model"`
		EmbeddingModel string `yaml:"embedding_model"`
	} `yaml:"ollama"`
	Chunking struct {
		ChunkSize int `yaml:"chunk_size"`
		Overlap   int `yaml:"overlap"`
	} `yaml:"chunking"`
	Retrieval struct {
		TopK int `yaml:"top_k"`
	} `yaml:"retrieval"`
	Chat struct {
		UserID       string `yaml:"user_id"`
		HistoryLimit int    `yaml:"history_limit"`
	} `yaml:"chat"`
	Paths struct {
		SourcesDir string `yaml:"sources_dir"`
	} `yaml:"paths"`
}

// Load loads configuration from file or returns defaults
func Load() (*Config, error) {
	cfg := Default()

	configPath := filepath.Join(os.Getenv("HOME"), ".persona-ai", "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to file
func (c *Config) Save() error {
	configDir := filepath.Join(os.Getenv("HOME"), ".persona-ai")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}

	cfg.Database.ConnectionString = "postgres://postgres@localhost/postgres?sslmode=disable"
	cfg.Ollama.BaseURL = "http://localhost:11434"
	cfg.Ollama.ChatModel = ""
	cfg.Ollama.EmbeddingModel = "nomic-embed-text"
	cfg.Chunking.ChunkSize = 500
	cfg.Chunking.Overlap = 50
	cfg.Retrieval.TopK = 3
	cfg.Chat.UserID = defaultUserID()
	cfg.Chat.HistoryLimit = 50

	homeDir := os.Getenv("HOME")
	cfg.Paths.SourcesDir = filepath.Join(homeDir, ".persona-ai", "sources")

	return cfg
}

func defaultUserID() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "local"
}
