package inference

import (
	"context"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/xaenox/channel-bot/pkg/config"
	"go.uber.org/zap"
)

// OpenAIClient uses the OpenAI-compatible endpoint that Ollama serves under /v1.
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewOpenAIClient(cfg config.OllamaConfig, logger *zap.Logger) *OpenAIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/v1"
	clientConfig.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		logger: logger,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, bool) {
	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		c.logger.Error("Failed to get completion", zap.Error(err), zap.String("model", c.model))
		return "", false
	}

	if len(resp.Choices) == 0 {
		c.logger.Error("Completion has no choices", zap.String("model", c.model))
		return "", false
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), true
}
