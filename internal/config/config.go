// Package config provides configuration loading and structs for the IntelliQuery server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Sessions SessionsConfig `yaml:"sessions"`
	Storage  StorageConfig  `yaml:"storage"`
	Watch    WatchConfig    `yaml:"watch"`
}

// ServerConfig holds HTTP server settings. APIKey gates the bulk endpoint only.
type ServerConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

// LLMConfig holds the external model settings for embedding and generation.
type LLMConfig struct {
	// APIKey is usually left empty in the file and supplied via GOOGLE_API_KEY.
	APIKey            string  `yaml:"api_key"`
	Model             string  `yaml:"model"`
	EmbeddingModel    string  `yaml:"embedding_model"`
	Temperature       float64 `yaml:"temperature"`
	MaxRepairAttempts int     `yaml:"max_repair_attempts"`
}

// IngestConfig holds upload, chunking, and retrieval settings.
type IngestConfig struct {
	UploadsDir             string `yaml:"uploads_dir"`
	ChunkSize              int    `yaml:"chunk_size"`
	ChunkOverlap           int    `yaml:"chunk_overlap"`
	TopK                   int    `yaml:"top_k"`
	DownloadTimeoutSeconds int    `yaml:"download_timeout_seconds"`
}

// SessionsConfig bounds the session registry.
type SessionsConfig struct {
	MaxSessions int `yaml:"max_sessions"`
}

// StorageConfig enables optional on-disk session persistence when DatabasePath is set.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// WatchConfig holds drop-directory ingestion settings. Files appearing in the
// watched directories are ingested into Session.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Session     string   `yaml:"session"`
}

// Load reads and parses the config file at path, applies defaults, expands
// paths, and merges environment overrides. Returns an error if the file cannot
// be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	MergeEnv(&cfg)

	configDir := filepath.Dir(path)
	cfg.Ingest.UploadsDir = expandPath(cfg.Ingest.UploadsDir, configDir)
	if cfg.Storage.DatabasePath != "" {
		cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	}
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Default returns a config with defaults and environment overrides applied,
// for running without a config file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	MergeEnv(cfg)
	return cfg
}

// MergeEnv overrides config values from environment variables.
// GOOGLE_API_KEY supplies the model API key; INTELLIQUERY_API_KEY the bulk
// endpoint bearer token.
func MergeEnv(cfg *Config) {
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("INTELLIQUERY_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are relative
// to configDir; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
