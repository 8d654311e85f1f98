package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// Platform is the subset of the Discord API the bot uses.
type Platform interface {
	Guild(ctx context.Context, guildID string) (*discordgo.Guild, error)
	GuildChannels(ctx context.Context, guildID string) ([]*discordgo.Channel, error)
	CreateChannel(ctx context.Context, guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error)
	// LatestMessage returns nil and no error when the channel has no messages.
	LatestMessage(ctx context.Context, channelID string) (*discordgo.Message, error)
	ChannelMemberCount(guildID, channelID string) int
	MemberPermissions(ctx context.Context, userID, channelID string) (int64, error)
	Typing(ctx context.Context, channelID string) error
	SendMessage(ctx context.Context, channelID, content string) error
	SendComplex(ctx context.Context, channelID string, data *discordgo.MessageSend) error
	Respond(ctx context.Context, interaction *discordgo.Interaction, resp *discordgo.InteractionResponse) error
	FollowUp(ctx context.Context, interaction *discordgo.Interaction, content string) error
}

type discordPlatform struct {
	session *discordgo.Session
}

func (p *discordPlatform) Guild(ctx context.Context, guildID string) (*discordgo.Guild, error) {
	if guild, err := p.session.State.Guild(guildID); err == nil {
		return guild, nil
	}
	return p.session.Guild(guildID, discordgo.WithContext(ctx))
}

func (p *discordPlatform) GuildChannels(ctx context.Context, guildID string) ([]*discordgo.Channel, error) {
	return p.session.GuildChannels(guildID, discordgo.WithContext(ctx))
}

func (p *discordPlatform) CreateChannel(ctx context.Context, guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	return p.session.GuildChannelCreateComplex(guildID, data, discordgo.WithContext(ctx))
}

func (p *discordPlatform) LatestMessage(ctx context.Context, channelID string) (*discordgo.Message, error) {
	messages, err := p.session.ChannelMessages(channelID, 1, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, nil
	}
	return messages[0], nil
}

// ChannelMemberCount counts cached guild members that can view the channel.
func (p *discordPlatform) ChannelMemberCount(guildID, channelID string) int {
	guild, err := p.session.State.Guild(guildID)
	if err != nil {
		return 0
	}

	p.session.State.RLock()
	members := append([]*discordgo.Member(nil), guild.Members...)
	p.session.State.RUnlock()

	count := 0
	for _, member := range members {
		if member.User == nil {
			continue
		}
		perms, err := p.session.State.UserChannelPermissions(member.User.ID, channelID)
		if err == nil && perms&discordgo.PermissionViewChannel != 0 {
			count++
		}
	}
	return count
}

func (p *discordPlatform) MemberPermissions(ctx context.Context, userID, channelID string) (int64, error) {
	return p.session.UserChannelPermissions(userID, channelID, discordgo.WithContext(ctx))
}

func (p *discordPlatform) Typing(ctx context.Context, channelID string) error {
	return p.session.ChannelTyping(channelID, discordgo.WithContext(ctx))
}

func (p *discordPlatform) SendMessage(ctx context.Context, channelID, content string) error {
	_, err := p.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return err
}

func (p *discordPlatform) SendComplex(ctx context.Context, channelID string, data *discordgo.MessageSend) error {
	_, err := p.session.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(ctx))
	return err
}

func (p *discordPlatform) Respond(ctx context.Context, interaction *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	return p.session.InteractionRespond(interaction, resp, discordgo.WithContext(ctx))
}

func (p *discordPlatform) FollowUp(ctx context.Context, interaction *discordgo.Interaction, content string) error {
	_, err := p.session.FollowupMessageCreate(interaction, true, &discordgo.WebhookParams{
		Content: content,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send follow-up: %w", err)
	}
	return nil
}

// isForbidden reports whether err is a Discord 403 response.
func isForbidden(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode == http.StatusForbidden
	}
	return false
}
