package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/xaenox/channel-bot/internal/inference"
	"github.com/xaenox/channel-bot/internal/models"
	"go.uber.org/zap"
)

// Advisor turns guild state into prompts and model output into suggestions.
type Advisor struct {
	generator inference.Generator
	logger    *zap.Logger
}

func New(generator inference.Generator, logger *zap.Logger) *Advisor {
	return &Advisor{
		generator: generator,
		logger:    logger,
	}
}

// SuggestChannels asks the model for new channels worth creating. The result
// is empty when the model fails or returns nothing usable.
func (a *Advisor) SuggestChannels(ctx context.Context, guildName string, existing []string, conversation string) []models.ChannelSuggestion {
	prompt := fmt.Sprintf(`You are a Discord server management assistant. Based on the conversation context and existing channels,
suggest new channels that should be created for this Discord server.

Guild: %s
Existing channels: %s

Conversation context: %s

Please suggest 2-5 new channels that would be useful. For each channel, provide:
1. Channel name (lowercase, use hyphens for spaces)
2. Short description
3. Reason why it's needed

Format your response as JSON array with objects like:
[
  {"name": "channel-name", "description": "...", "reason": "..."},
  ...
]

Only return valid JSON, no other text.`, guildName, strings.Join(existing, ", "), conversation)

	response, ok := a.generator.Generate(ctx, prompt)
	if !ok || response == "" {
		return nil
	}

	return ExtractArray[models.ChannelSuggestion](a.logger, response)
}

// AnalyzeCleanup asks the model which channels could be archived, deleted
// or reorganized. channelsInfo is the serialized activity snapshot list.
func (a *Advisor) AnalyzeCleanup(ctx context.Context, channelsInfo string) []models.CleanupSuggestion {
	prompt := fmt.Sprintf(`You are a Discord server management assistant. Analyze the following channels and suggest which ones
could be archived or deleted due to inactivity or redundancy.

Channels information:
%s

For each channel that should be cleaned up, provide:
1. Channel name
2. Reason for cleanup
3. Recommended action (archive, delete, or reorganize)

Format your response as JSON array:
[
  {"name": "channel-name", "reason": "...", "action": "archive|delete|reorganize"},
  ...
]

Only return valid JSON, no other text.`, channelsInfo)

	response, ok := a.generator.Generate(ctx, prompt)
	if !ok || response == "" {
		return nil
	}

	return ExtractArray[models.CleanupSuggestion](a.logger, response)
}
