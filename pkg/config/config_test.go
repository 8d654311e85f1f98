package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DISCORD_TOKEN", "OLLAMA_API_URL", "OLLAMA_MODEL", "OLLAMA_API_KEY",
		"OLLAMA_TIMEOUT", "INFERENCE_PROVIDER", "BOT_PREFIX",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token-123")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "token-123", cfg.Discord.Token)
	assert.Equal(t, "http://localhost:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, "mistral", cfg.Ollama.Model)
	assert.Equal(t, 60*time.Second, cfg.Ollama.Timeout)
	assert.Equal(t, ProviderOllama, cfg.Inference.Provider)
	assert.Equal(t, "!", cfg.Bot.Prefix)
}

func TestLoadConfig_MissingToken(t *testing.T) {
	clearEnv(t)

	_, err := LoadConfig("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "abc")
	t.Setenv("OLLAMA_API_URL", "http://gpu-box:11434/")
	t.Setenv("OLLAMA_MODEL", "llama3")
	t.Setenv("OLLAMA_TIMEOUT", "5s")
	t.Setenv("INFERENCE_PROVIDER", "OpenAI")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "http://gpu-box:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, "llama3", cfg.Ollama.Model)
	assert.Equal(t, 5*time.Second, cfg.Ollama.Timeout)
	assert.Equal(t, ProviderOpenAI, cfg.Inference.Provider)
}

func TestLoadConfig_TimeoutFormats(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{raw: "60", want: 60 * time.Second},
		{raw: " 90 ", want: 90 * time.Second},
		{raw: "2m", want: 2 * time.Minute},
		{raw: "1.5s", want: 1500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DISCORD_TOKEN", "abc")
			t.Setenv("OLLAMA_TIMEOUT", tt.raw)

			cfg, err := LoadConfig("")
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Ollama.Timeout)
		})
	}
}

func TestLoadConfig_TimeoutFromFileInSeconds(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("discord:\n  token: from-file\nollama:\n  timeout: 45\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Ollama.Timeout)
}

func TestLoadConfig_File(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("discord:\n  token: from-file\nollama:\n  model: phi3\nbot:\n  prefix: \"?\"\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Discord.Token)
	assert.Equal(t, "phi3", cfg.Ollama.Model)
	assert.Equal(t, "?", cfg.Bot.Prefix)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("bad url", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DISCORD_TOKEN", "abc")
		t.Setenv("OLLAMA_API_URL", "localhost")

		_, err := LoadConfig("")
		assert.Error(t, err)
	})

	for _, raw := range []string{"500ms", "0", "-5", "soon"} {
		t.Run("timeout "+raw, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DISCORD_TOKEN", "abc")
			t.Setenv("OLLAMA_TIMEOUT", raw)

			_, err := LoadConfig("")
			assert.Error(t, err)
		})
	}

	t.Run("unknown provider", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DISCORD_TOKEN", "abc")
		t.Setenv("INFERENCE_PROVIDER", "gemini")

		_, err := LoadConfig("")
		assert.Error(t, err)
	})
}
