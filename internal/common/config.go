// Package common provides shared configuration, logging, and version
// utilities for findata-mcp.
package common

import (
	"fmt"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all findata-mcp configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Upstream UpstreamConfig `toml:"upstream"`
	Sampling SamplingConfig `toml:"sampling"`
	Logging  LoggingConfig  `toml:"logging"`
}

// ServerConfig holds MCP server settings.
type ServerConfig struct {
	Name string `toml:"name"`
	Port string `toml:"port"`
}

// UpstreamConfig holds Financial Datasets API configuration.
type UpstreamConfig struct {
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key"`
	Timeout  string `toml:"timeout"`
	CacheTTL string `toml:"cache_ttl"`
}

// GetTimeout parses and returns the upstream request timeout.
func (c *UpstreamConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetCacheTTL parses and returns the response cache TTL.
func (c *UpstreamConfig) GetCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// SamplingConfig holds sampling round-trip settings.
type SamplingConfig struct {
	Timeout   string `toml:"timeout"`
	MaxTokens int    `toml:"max_tokens"`
}

// GetTimeout parses and returns the bounded wait for a sampling reply.
func (c *SamplingConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "FinData-MCP",
			Port: "4343",
		},
		Upstream: UpstreamConfig{
			BaseURL:  "https://api.financialdatasets.ai",
			Timeout:  "30s",
			CacheTTL: "60s",
		},
		Sampling: SamplingConfig{
			Timeout:   "120s",
			MaxTokens: 4000,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Outputs:    []string{"console", "file"},
			FilePath:   "logs/findata-mcp.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from a TOML file with defaults and
// environment overrides. A missing file is not an error; a malformed one is.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
			// File not found — use defaults
		} else {
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// Validate checks configuration required at startup. A missing API key is
// fatal: every tool call needs it.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Upstream.APIKey) == "" {
		return fmt.Errorf("upstream API key is required: set FINDATA_API_KEY or [upstream] api_key")
	}
	if strings.TrimSpace(c.Upstream.BaseURL) == "" {
		return fmt.Errorf("upstream base URL is required")
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if key := os.Getenv("FINDATA_API_KEY"); key != "" {
		cfg.Upstream.APIKey = key
	}
	if url := os.Getenv("FINDATA_BASE_URL"); url != "" {
		cfg.Upstream.BaseURL = url
	}
	if port := os.Getenv("FINDATA_MCP_PORT"); port != "" {
		cfg.Server.Port = port
	}
	if level := os.Getenv("FINDATA_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
