package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/xaenox/channel-bot/internal/models"
	"go.uber.org/zap"
)

const (
	maxContextLength     = 500
	maxChannelNameLength = 32
	// Discord rejects channel names longer than this.
	platformNameLimit = 100
	maxEmbedFields    = 25
	maxFieldName      = 256
	maxFieldValue     = 1024
	maxEmbedTitle     = 256
	maxEmbedDesc      = 4096
	maxEmbedTotal     = 6000

	colorBlue   = 0x3498DB
	colorOrange = 0xE67E22
	colorGreen  = 0x2ECC71
)

var defaultCategories = []string{"general", "community", "projects", "media"}

func (b *Bot) handleSuggestChannels(ctx context.Context, m *discordgo.Message, args string) {
	if args == "" {
		b.sendErrorMessage(ctx, m.ChannelID, "Please describe what the channels are for.\nExample: `"+b.prefix+"suggest_channels We need channels for project management`")
		return
	}

	conversation := truncate(args, maxContextLength)
	b.typing(ctx, m.ChannelID)

	guild, err := b.platform.Guild(ctx, m.GuildID)
	if err != nil {
		b.logger.Error("Failed to get guild", zap.Error(err), zap.String("guild_id", m.GuildID))
		b.sendErrorMessage(ctx, m.ChannelID, "Could not read the server information.")
		return
	}

	channels, err := b.platform.GuildChannels(ctx, m.GuildID)
	if err != nil {
		b.logger.Error("Failed to list channels", zap.Error(err), zap.String("guild_id", m.GuildID))
		b.sendErrorMessage(ctx, m.ChannelID, "Could not read the server channels.")
		return
	}

	suggestions := b.advisor.SuggestChannels(ctx, guild.Name, textChannelNames(channels), conversation)
	if len(suggestions) == 0 {
		b.sendMessage(ctx, m.ChannelID, "⚠️ Could not generate channel suggestions.")
		return
	}
	if len(suggestions) > maxEmbedFields {
		suggestions = suggestions[:maxEmbedFields]
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🚀 Channel suggestions",
		Description: "Based on: " + conversation,
		Color:       colorBlue,
	}
	for i, s := range suggestions {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  truncate(fmt.Sprintf("%d. #%s", i+1, orDefault(s.Name, "unknown")), maxFieldName),
			Value: truncate(fmt.Sprintf("**Description:** %s\n**Reason:** %s", orDefault(s.Description, "N/A"), orDefault(s.Reason, "N/A")), maxFieldValue),
		})
	}

	fitEmbed(embed)
	// Only offer to create what fits on screen.
	suggestions = suggestions[:len(embed.Fields)]

	conf := b.confirmations.Add(m.Author.ID, m.GuildID, suggestions)
	if err := b.sendEmbed(ctx, m.ChannelID, embed, conf.Components()); err != nil {
		b.confirmations.Remove(conf.ID)
	}
}

func (b *Bot) handleCleanupAnalysis(ctx context.Context, m *discordgo.Message, _ string) {
	b.typing(ctx, m.ChannelID)

	channels, err := b.platform.GuildChannels(ctx, m.GuildID)
	if err != nil {
		b.logger.Error("Failed to list channels", zap.Error(err), zap.String("guild_id", m.GuildID))
		b.sendErrorMessage(ctx, m.ChannelID, "Could not read the server channels.")
		return
	}

	snapshots := b.collectActivity(ctx, m.GuildID, channels)

	channelsJSON, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		b.logger.Error("Failed to encode channel activity", zap.Error(err))
		b.sendErrorMessage(ctx, m.ChannelID, "Could not analyze the server channels.")
		return
	}

	suggestions := b.advisor.AnalyzeCleanup(ctx, string(channelsJSON))
	if len(suggestions) == 0 {
		b.sendMessage(ctx, m.ChannelID, "✅ No channels need cleaning up.")
		return
	}
	if len(suggestions) > maxEmbedFields {
		suggestions = suggestions[:maxEmbedFields]
	}

	embed := &discordgo.MessageEmbed{
		Title: "🧹 Channel cleanup suggestions",
		Color: colorOrange,
	}
	for _, s := range suggestions {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  truncate(fmt.Sprintf("%s #%s", s.Action.Marker(), s.Name), maxFieldName),
			Value: truncate(fmt.Sprintf("**Reason:** %s\n**Action:** %s", s.Reason, s.Action), maxFieldValue),
		})
	}

	fitEmbed(embed)
	b.sendEmbed(ctx, m.ChannelID, embed, nil)
}

// collectActivity builds a snapshot per text channel. Channels the bot may
// not read are left out.
func (b *Bot) collectActivity(ctx context.Context, guildID string, channels []*discordgo.Channel) []models.ChannelActivitySnapshot {
	now := b.now()
	snapshots := make([]models.ChannelActivitySnapshot, 0, len(channels))

	for _, ch := range channels {
		if !isTextChannel(ch) {
			continue
		}

		createdAt, err := discordgo.SnowflakeTimestamp(ch.ID)
		if err != nil {
			b.logger.Warn("Invalid channel id", zap.Error(err), zap.String("channel_id", ch.ID))
			continue
		}

		lastActivity := createdAt
		msg, err := b.platform.LatestMessage(ctx, ch.ID)
		switch {
		case err != nil && isForbidden(err):
			continue
		case err != nil:
			b.logger.Warn("Failed to read channel history",
				zap.Error(err),
				zap.String("channel_id", ch.ID))
		case msg != nil:
			lastActivity = msg.Timestamp
		}

		snapshots = append(snapshots, models.ChannelActivitySnapshot{
			Name:         ch.Name,
			Members:      b.platform.ChannelMemberCount(guildID, ch.ID),
			InactiveDays: inactiveDays(now, lastActivity),
			CreatedAt:    createdAt.UTC(),
		})
	}

	return snapshots
}

func inactiveDays(now, last time.Time) int {
	days := int(now.Sub(last) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}

func (b *Bot) handleCreateChannel(ctx context.Context, m *discordgo.Message, args string) {
	name, description := splitCommand(args)
	if !models.ValidateChannelName(name, maxChannelNameLength) {
		b.sendErrorMessage(ctx, m.ChannelID, fmt.Sprintf("Channel name must be 1-%d characters.\nExample: `%screate_channel projects Project management channel`", maxChannelNameLength, b.prefix))
		return
	}

	channel, err := b.platform.CreateChannel(ctx, m.GuildID, discordgo.GuildChannelCreateData{
		Name:  name,
		Type:  discordgo.ChannelTypeGuildText,
		Topic: description,
	})
	if err != nil {
		b.logger.Error("Failed to create channel",
			zap.Error(err),
			zap.String("guild_id", m.GuildID),
			zap.String("name", name))
		if isForbidden(err) {
			b.sendErrorMessage(ctx, m.ChannelID, "I don't have permission to create channels.")
		} else {
			b.sendErrorMessage(ctx, m.ChannelID, fmt.Sprintf("An error occurred: %v", err))
		}
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       "✅ Channel created",
		Description: fmt.Sprintf("Created channel %s.", channel.Mention()),
		Color:       colorGreen,
	}
	if description != "" {
		embed.Fields = []*discordgo.MessageEmbedField{
			{Name: "Description", Value: truncate(description, maxFieldValue)},
		}
	}

	b.sendEmbed(ctx, m.ChannelID, embed, nil)
}

func (b *Bot) handleAutoOrganize(ctx context.Context, m *discordgo.Message, _ string) {
	b.typing(ctx, m.ChannelID)

	channels, err := b.platform.GuildChannels(ctx, m.GuildID)
	if err != nil {
		b.logger.Error("Failed to list channels", zap.Error(err), zap.String("guild_id", m.GuildID))
		b.sendErrorMessage(ctx, m.ChannelID, "Could not read the server channels.")
		return
	}

	existing := make(map[string]struct{})
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildCategory {
			existing[ch.Name] = struct{}{}
		}
	}

	var created []string
	for _, name := range defaultCategories {
		if _, ok := existing[name]; ok {
			continue
		}

		_, err := b.platform.CreateChannel(ctx, m.GuildID, discordgo.GuildChannelCreateData{
			Name: name,
			Type: discordgo.ChannelTypeGuildCategory,
		})
		if err != nil {
			if !isForbidden(err) {
				b.logger.Error("Failed to create category",
					zap.Error(err),
					zap.String("guild_id", m.GuildID),
					zap.String("name", name))
			}
			continue
		}
		existing[name] = struct{}{}
		created = append(created, name)
	}

	if len(created) == 0 {
		b.sendMessage(ctx, m.ChannelID, "✅ Server organization is up to date.")
		return
	}
	b.sendMessage(ctx, m.ChannelID, "✅ Server organized. Created categories: "+strings.Join(created, ", "))
}

// createSuggestedChannels creates one text channel per suggestion and
// returns mentions of the ones that succeeded. A failure only skips that
// suggestion.
func (b *Bot) createSuggestedChannels(ctx context.Context, guildID string, suggestions []models.ChannelSuggestion) []string {
	var created []string
	for _, s := range suggestions {
		if !models.ValidateChannelName(s.Name, platformNameLimit) {
			b.logger.Warn("Skipping suggestion with invalid name", zap.String("name", s.Name))
			continue
		}

		channel, err := b.platform.CreateChannel(ctx, guildID, discordgo.GuildChannelCreateData{
			Name:  s.Name,
			Type:  discordgo.ChannelTypeGuildText,
			Topic: s.Description,
		})
		if err != nil {
			if !isForbidden(err) {
				b.logger.Error("Failed to create suggested channel",
					zap.Error(err),
					zap.String("guild_id", guildID),
					zap.String("name", s.Name))
			}
			continue
		}
		created = append(created, channel.Mention())
	}
	return created
}

func (b *Bot) typing(ctx context.Context, channelID string) {
	if err := b.platform.Typing(ctx, channelID); err != nil {
		b.logger.Debug("Failed to send typing indicator", zap.Error(err))
	}
}

func textChannelNames(channels []*discordgo.Channel) []string {
	names := make([]string, 0, len(channels))
	for _, ch := range channels {
		if isTextChannel(ch) {
			names = append(names, ch.Name)
		}
	}
	return names
}

// isTextChannel matches what users see as text channels, announcements included.
func isTextChannel(ch *discordgo.Channel) bool {
	return ch.Type == discordgo.ChannelTypeGuildText || ch.Type == discordgo.ChannelTypeGuildNews
}

// fitEmbed trims embed to Discord's size limits, dropping trailing fields
// once the total character count would be exceeded.
func fitEmbed(embed *discordgo.MessageEmbed) {
	embed.Title = truncate(embed.Title, maxEmbedTitle)
	embed.Description = truncate(embed.Description, maxEmbedDesc)

	total := utf8.RuneCountInString(embed.Title) + utf8.RuneCountInString(embed.Description)
	for i, field := range embed.Fields {
		field.Name = truncate(field.Name, maxFieldName)
		field.Value = truncate(field.Value, maxFieldValue)

		size := utf8.RuneCountInString(field.Name) + utf8.RuneCountInString(field.Value)
		if total+size > maxEmbedTotal {
			embed.Fields = embed.Fields[:i]
			return
		}
		total += size
	}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
