package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingToken is returned when no Discord bot token is configured.
var ErrMissingToken = errors.New("DISCORD_TOKEN is not set")

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

type Config struct {
	Discord   DiscordConfig   `mapstructure:"discord"`
	Ollama    OllamaConfig    `mapstructure:"ollama"`
	Inference InferenceConfig `mapstructure:"inference"`
	Bot       BotConfig       `mapstructure:"bot"`
}

type DiscordConfig struct {
	Token string `mapstructure:"token"`
}

// OllamaConfig is read once at startup and never changed afterwards.
type OllamaConfig struct {
	BaseURL string        `mapstructure:"api_url"`
	Model   string        `mapstructure:"model"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type InferenceConfig struct {
	Provider string `mapstructure:"provider"`
}

type BotConfig struct {
	Prefix string `mapstructure:"prefix"`
}

func normalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("expected scheme and host, got %q", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// parseTimeout accepts a Go duration ("90s", "2m") or a bare number of seconds.
func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)

	var timeout time.Duration
	if seconds, err := strconv.Atoi(raw); err == nil {
		timeout = time.Duration(seconds) * time.Second
	} else {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return 0, err
		}
		timeout = parsed
	}

	if timeout < time.Second {
		return 0, fmt.Errorf("timeout must be at least 1s, got %s", timeout)
	}
	return timeout, nil
}

// LoadConfig reads defaults, the optional config file at path and the
// environment, in increasing order of precedence.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("ollama.api_url", "http://localhost:11434")
	v.SetDefault("ollama.model", "mistral")
	v.SetDefault("ollama.timeout", "60s")
	v.SetDefault("inference.provider", ProviderOllama)
	v.SetDefault("bot.prefix", "!")

	// Enable environment variable support
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if token := v.GetString("DISCORD_TOKEN"); token != "" {
		config.Discord.Token = token
	}
	if apiURL := v.GetString("OLLAMA_API_URL"); apiURL != "" {
		config.Ollama.BaseURL = apiURL
	}
	if model := v.GetString("OLLAMA_MODEL"); model != "" {
		config.Ollama.Model = model
	}
	if apiKey := v.GetString("OLLAMA_API_KEY"); apiKey != "" {
		config.Ollama.APIKey = apiKey
	}
	rawTimeout := v.GetString("ollama.timeout")
	if timeout := v.GetString("OLLAMA_TIMEOUT"); timeout != "" {
		rawTimeout = timeout
	}
	timeout, err := parseTimeout(rawTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_TIMEOUT: %w", err)
	}
	config.Ollama.Timeout = timeout
	if provider := v.GetString("INFERENCE_PROVIDER"); provider != "" {
		config.Inference.Provider = provider
	}
	if prefix := v.GetString("BOT_PREFIX"); prefix != "" {
		config.Bot.Prefix = prefix
	}

	if strings.TrimSpace(config.Discord.Token) == "" {
		return nil, ErrMissingToken
	}

	baseURL, err := normalizeBaseURL(config.Ollama.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_API_URL: %w", err)
	}
	config.Ollama.BaseURL = baseURL

	config.Inference.Provider = strings.ToLower(strings.TrimSpace(config.Inference.Provider))
	switch config.Inference.Provider {
	case ProviderOllama, ProviderOpenAI:
	default:
		return nil, fmt.Errorf("unknown inference provider %q", config.Inference.Provider)
	}

	return &config, nil
}
