package bot

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/bwmarrin/discordgo"
	"github.com/xaenox/channel-bot/internal/advisor"
	"go.uber.org/zap"
)

type Bot struct {
	session       *discordgo.Session
	platform      Platform
	advisor       *advisor.Advisor
	prefix        string
	confirmations *confirmationStore
	logger        *zap.Logger
	now           func() time.Time
}

func New(token, prefix string, advisor *advisor.Advisor, logger *zap.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildMembers

	b := newBot(&discordPlatform{session: session}, prefix, advisor, logger)
	b.session = session
	return b, nil
}

func newBot(platform Platform, prefix string, advisor *advisor.Advisor, logger *zap.Logger) *Bot {
	b := &Bot{
		platform: platform,
		advisor:  advisor,
		prefix:   prefix,
		logger:   logger,
		now:      time.Now,
	}
	b.confirmations = newConfirmationStore(confirmationTTL, b.onExpire)
	return b
}

// Start opens the gateway connection and serves events until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("Logged in",
			zap.String("user", r.User.Username),
			zap.Int("guilds", len(r.Guilds)))
	})
	b.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		b.handleMessage(ctx, m.Message)
	})
	b.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.handleInteraction(ctx, i.Interaction)
	})

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}

	<-ctx.Done()

	b.confirmations.Close()
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("failed to close discord session: %w", err)
	}
	return nil
}

type command struct {
	permission     int64
	permissionName string
	run            func(b *Bot, ctx context.Context, m *discordgo.Message, args string)
}

var commands = map[string]command{
	"suggest_channels": {discordgo.PermissionAdministrator, "Administrator", (*Bot).handleSuggestChannels},
	"cleanup_analysis": {discordgo.PermissionAdministrator, "Administrator", (*Bot).handleCleanupAnalysis},
	"create_channel":   {discordgo.PermissionManageChannels, "Manage Channels", (*Bot).handleCreateChannel},
	"auto_organize":    {discordgo.PermissionManageChannels, "Manage Channels", (*Bot).handleAutoOrganize},
}

func (b *Bot) handleMessage(ctx context.Context, m *discordgo.Message) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	if !strings.HasPrefix(m.Content, b.prefix) {
		return
	}

	name, args := splitCommand(strings.TrimPrefix(m.Content, b.prefix))
	cmd, ok := commands[name]
	if !ok {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Command panicked",
				zap.String("command", name),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()

	if !b.hasPermission(ctx, m, cmd.permission) {
		b.sendErrorMessage(ctx, m.ChannelID, fmt.Sprintf("You need the %s permission to use this command.", cmd.permissionName))
		return
	}

	b.logger.Info("Running command",
		zap.String("command", name),
		zap.String("guild_id", m.GuildID),
		zap.String("user_id", m.Author.ID))

	cmd.run(b, ctx, m, args)
}

func (b *Bot) hasPermission(ctx context.Context, m *discordgo.Message, required int64) bool {
	perms, err := b.platform.MemberPermissions(ctx, m.Author.ID, m.ChannelID)
	if err != nil {
		b.logger.Error("Failed to resolve permissions",
			zap.Error(err),
			zap.String("user_id", m.Author.ID),
			zap.String("channel_id", m.ChannelID))
		return false
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return perms&required == required
}

// splitCommand separates the command name from the rest of the text.
func splitCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	idx := strings.IndexFunc(text, unicode.IsSpace)
	if idx == -1 {
		return text, ""
	}
	return text[:idx], strings.TrimSpace(text[idx:])
}

func (b *Bot) handleInteraction(ctx context.Context, i *discordgo.Interaction) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Interaction panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	action, id, authorID, ok := parseCustomID(i.MessageComponentData().CustomID)
	if !ok {
		return
	}

	if interactionUserID(i) != authorID {
		b.respondEphemeral(ctx, i, "❌ Only the person who ran the command can use these buttons.")
		return
	}

	conf, exists := b.confirmations.Get(id)
	if !exists {
		// Expired or already resolved; acknowledge without doing anything.
		b.acknowledge(ctx, i)
		return
	}

	if interactionUserID(i) != conf.AuthorID {
		b.respondEphemeral(ctx, i, "❌ Only the person who ran the command can use these buttons.")
		return
	}

	switch action {
	case actionCreate:
		b.onConfirm(ctx, conf, i)
	case actionCancel:
		b.onCancel(ctx, conf, i)
	}
}

func interactionUserID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func (b *Bot) onConfirm(ctx context.Context, conf *Confirmation, i *discordgo.Interaction) {
	if !conf.Confirm() {
		b.acknowledge(ctx, i)
		return
	}
	b.confirmations.Remove(conf.ID)
	b.acknowledge(ctx, i)

	created := b.createSuggestedChannels(ctx, conf.GuildID, conf.Suggestions)

	content := fmt.Sprintf("✅ Created %d channel(s):\n%s", len(created), strings.Join(created, ", "))
	if err := b.platform.FollowUp(ctx, i, content); err != nil {
		b.logger.Error("Failed to send creation report",
			zap.Error(err),
			zap.String("confirmation_id", conf.ID))
	}
}

func (b *Bot) onCancel(ctx context.Context, conf *Confirmation, i *discordgo.Interaction) {
	if conf.Cancel() {
		b.confirmations.Remove(conf.ID)
	}
	b.acknowledge(ctx, i)
}

func (b *Bot) onExpire(conf *Confirmation) {
	b.logger.Debug("Confirmation expired",
		zap.String("confirmation_id", conf.ID),
		zap.String("user_id", conf.AuthorID))
}

func (b *Bot) acknowledge(ctx context.Context, i *discordgo.Interaction) {
	err := b.platform.Respond(ctx, i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		b.logger.Error("Failed to acknowledge interaction", zap.Error(err))
	}
}

func (b *Bot) respondEphemeral(ctx context.Context, i *discordgo.Interaction, content string) {
	err := b.platform.Respond(ctx, i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.logger.Error("Failed to send ephemeral response", zap.Error(err))
	}
}

func (b *Bot) sendMessage(ctx context.Context, channelID, text string) {
	if err := b.platform.SendMessage(ctx, channelID, text); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.String("channel_id", channelID))
	}
}

func (b *Bot) sendErrorMessage(ctx context.Context, channelID, text string) {
	b.sendMessage(ctx, channelID, "❌ "+text)
}

func (b *Bot) sendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	err := b.platform.SendComplex(ctx, channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	})
	if err != nil {
		b.logger.Error("Failed to send embed",
			zap.Error(err),
			zap.String("channel_id", channelID))
		b.sendErrorMessage(ctx, channelID, fmt.Sprintf("Could not send the result: %v", err))
	}
	return err
}
