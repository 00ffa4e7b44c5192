package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")

	assert.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.Address)
	assert.Equal(t, "http://localhost:11434", cfg.Ollama.Host)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadNonexistentPathUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	assert.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.Address)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(`
server:
  address: ":9900"
openai:
  api_key: file-key
  model: gpt-4
ollama:
  host: http://ollama.internal:11434
`), 0o600))

	cfg, err := Load(path)

	assert.NoError(t, err)
	assert.Equal(t, ":9900", cfg.Server.Address)
	assert.Equal(t, "file-key", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4", cfg.OpenAI.Model)
	assert.Equal(t, "http://ollama.internal:11434", cfg.Ollama.Host)
}

func TestEnvFillsEmptyFields(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-anthropic")
	t.Setenv("OPENWEATHER_API_KEY", "env-weather")

	cfg, err := Load("")

	assert.NoError(t, err)
	assert.Equal(t, "env-anthropic", cfg.Anthropic.APIKey)
	assert.Equal(t, "env-weather", cfg.OpenWeatherAPIKey)
}

func TestFileValuesWinOverEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("openai:\n  api_key: file-key\n"), 0o600))

	cfg, err := Load(path)

	assert.NoError(t, err)
	assert.Equal(t, "file-key", cfg.OpenAI.APIKey)
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
