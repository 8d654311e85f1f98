package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xaenox/channel-bot/pkg/config"
	"go.uber.org/zap"
)

const defaultTimeout = 60 * time.Second

// OllamaClient talks to the native Ollama generate endpoint.
type OllamaClient struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

func NewOllamaClient(cfg config.OllamaConfig, logger *zap.Logger) *OllamaClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &OllamaClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, bool) {
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		c.logger.Error("Failed to encode Ollama request", zap.Error(err))
		return "", false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		c.logger.Error("Failed to create Ollama request", zap.Error(err))
		return "", false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.logger.Error("Ollama API timeout", zap.Duration("timeout", c.client.Timeout))
		} else {
			c.logger.Error("Ollama API request failed", zap.Error(err))
		}
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("Ollama API error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(snippet)))
		return "", false
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if isTimeout(err) {
			c.logger.Error("Ollama API timeout", zap.Duration("timeout", c.client.Timeout))
		} else {
			c.logger.Error("Failed to decode Ollama response", zap.Error(err))
		}
		return "", false
	}

	return strings.TrimSpace(result.Response), true
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeoutErr interface{ Timeout() bool }
	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}
