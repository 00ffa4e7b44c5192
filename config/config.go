// Package config loads the playground configuration from an optional YAML
// file with environment-variable fallbacks, so a bare deployment works with
// nothing but API keys in the environment.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/themsquared/agent-playground/internal/util"
)

// ProviderConfig holds credentials and model selection for a hosted backend.
type ProviderConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// OllamaConfig holds connection settings for a local Ollama server.
type OllamaConfig struct {
	Host  string `yaml:"host"`
	Model string `yaml:"model"`
}

// ServerConfig holds the HTTP server settings. RequestTimeoutSeconds bounds
// each generation call; zero leaves calls without a deadline.
type ServerConfig struct {
	Address               string   `yaml:"address"`
	AllowedOrigins        []string `yaml:"allowed_origins"`
	RequestTimeoutSeconds int      `yaml:"request_timeout_seconds"`
}

// DatabaseConfig names the SQLite file backing evaluation persistence.
// An empty path disables the evaluation store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the full playground configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Database DatabaseConfig `yaml:"database"`

	OpenAI    ProviderConfig `yaml:"openai"`
	Anthropic ProviderConfig `yaml:"anthropic"`
	Grok      ProviderConfig `yaml:"grok"`
	Ollama    OllamaConfig   `yaml:"ollama"`

	// OpenWeatherAPIKey feeds the weather action.
	OpenWeatherAPIKey string `yaml:"openweather_api_key"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:        ":8000",
			AllowedOrigins: []string{"*"},
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Ollama:  OllamaConfig{Host: "http://localhost:11434"},
	}
}

// Load reads the configuration from path, falling back to defaults when path
// is empty or the file does not exist, then fills unset fields from the
// environment. A file that exists but cannot be parsed is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv fills empty fields from the conventional environment variables.
// File values win over the environment.
func (c *Config) applyEnv() {
	c.OpenAI.APIKey = util.FirstNonEmpty(c.OpenAI.APIKey, os.Getenv("OPENAI_API_KEY"))
	c.Anthropic.APIKey = util.FirstNonEmpty(c.Anthropic.APIKey, os.Getenv("ANTHROPIC_API_KEY"))
	c.Grok.APIKey = util.FirstNonEmpty(c.Grok.APIKey, os.Getenv("GROK_API_KEY"))
	c.Ollama.Host = util.FirstNonEmpty(c.Ollama.Host, os.Getenv("OLLAMA_HOST"), "http://localhost:11434")
	c.OpenWeatherAPIKey = util.FirstNonEmpty(c.OpenWeatherAPIKey, os.Getenv("OPENWEATHER_API_KEY"))
	c.Server.Address = util.FirstNonEmpty(c.Server.Address, os.Getenv("PLAYGROUND_ADDR"), ":8000")
	c.Database.Path = util.FirstNonEmpty(c.Database.Path, os.Getenv("DATABASE_PATH"))
}
