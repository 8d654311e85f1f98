package bot

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/xaenox/channel-bot/internal/advisor"
	"go.uber.org/zap/zaptest"
)

const (
	testGuildID   = "900000000000000001"
	testChannelID = "900000000000000002"
	adminID       = "100"
	memberID      = "200"
)

// snowflakeAt returns a Discord id whose embedded timestamp is t.
func snowflakeAt(t time.Time) string {
	ms := t.UnixMilli() - 1420070400000
	return strconv.FormatInt(ms<<22, 10)
}

func forbiddenError() error {
	return &discordgo.RESTError{
		Response:     &http.Response{StatusCode: http.StatusForbidden, Status: "403 Forbidden"},
		ResponseBody: []byte(`{"message": "Missing Permissions", "code": 50013}`),
		Message:      &discordgo.APIErrorMessage{Code: 50013, Message: "Missing Permissions"},
	}
}

func serverError() error {
	return &discordgo.RESTError{
		Response:     &http.Response{StatusCode: http.StatusInternalServerError, Status: "500 Internal Server Error"},
		ResponseBody: []byte(`{"message": "boom"}`),
	}
}

type fakePlatform struct {
	mu sync.Mutex

	guild       *discordgo.Guild
	channels    []*discordgo.Channel
	latest      map[string]*discordgo.Message
	historyErrs map[string]error
	createErrs  map[string]error
	perms       map[string]int64
	members     int
	sendErr     error

	created   []discordgo.GuildChannelCreateData
	texts     []string
	sent      []*discordgo.MessageSend
	responses []*discordgo.InteractionResponse
	followUps []string
	nextID    int64
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		guild:       &discordgo.Guild{ID: testGuildID, Name: "Acme"},
		latest:      make(map[string]*discordgo.Message),
		historyErrs: make(map[string]error),
		createErrs:  make(map[string]error),
		perms: map[string]int64{
			adminID:  discordgo.PermissionAdministrator,
			memberID: discordgo.PermissionSendMessages,
		},
		nextID: 1000,
	}
}

func (f *fakePlatform) addChannel(name string, typ discordgo.ChannelType, createdAt time.Time) *discordgo.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := &discordgo.Channel{ID: snowflakeAt(createdAt), GuildID: testGuildID, Name: name, Type: typ}
	f.channels = append(f.channels, ch)
	return ch
}

func (f *fakePlatform) Guild(_ context.Context, _ string) (*discordgo.Guild, error) {
	return f.guild, nil
}

func (f *fakePlatform) GuildChannels(_ context.Context, _ string) ([]*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*discordgo.Channel(nil), f.channels...), nil
}

func (f *fakePlatform) CreateChannel(_ context.Context, guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.created = append(f.created, data)
	if err, ok := f.createErrs[data.Name]; ok {
		return nil, err
	}

	f.nextID++
	ch := &discordgo.Channel{
		ID:      strconv.FormatInt(f.nextID, 10),
		GuildID: guildID,
		Name:    data.Name,
		Type:    data.Type,
		Topic:   data.Topic,
	}
	f.channels = append(f.channels, ch)
	return ch, nil
}

func (f *fakePlatform) LatestMessage(_ context.Context, channelID string) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.historyErrs[channelID]; ok {
		return nil, err
	}
	return f.latest[channelID], nil
}

func (f *fakePlatform) ChannelMemberCount(_, _ string) int {
	return f.members
}

func (f *fakePlatform) MemberPermissions(_ context.Context, userID, _ string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.perms[userID], nil
}

func (f *fakePlatform) Typing(_ context.Context, _ string) error {
	return nil
}

func (f *fakePlatform) SendMessage(_ context.Context, _ string, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, content)
	return nil
}

func (f *fakePlatform) SendComplex(_ context.Context, _ string, data *discordgo.MessageSend) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, data)
	return nil
}

func (f *fakePlatform) Respond(_ context.Context, _ *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakePlatform) FollowUp(_ context.Context, _ *discordgo.Interaction, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followUps = append(f.followUps, content)
	return nil
}

type stubGenerator struct {
	mu       sync.Mutex
	response string
	ok       bool
	prompts  []string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	return g.response, g.ok
}

func newTestBot(t *testing.T, platform *fakePlatform, gen *stubGenerator) *Bot {
	t.Helper()
	logger := zaptest.NewLogger(t)
	b := newBot(platform, "!", advisor.New(gen, logger), logger)
	t.Cleanup(b.confirmations.Close)
	return b
}

func commandMessage(authorID, content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "1",
		ChannelID: testChannelID,
		GuildID:   testGuildID,
		Content:   content,
		Author:    &discordgo.User{ID: authorID, Username: "user-" + authorID},
	}
}

func buttonPress(userID, customID string) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:        "interaction-1",
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   testGuildID,
		ChannelID: testChannelID,
		Member:    &discordgo.Member{User: &discordgo.User{ID: userID}},
		Data: discordgo.MessageComponentInteractionData{
			CustomID:      customID,
			ComponentType: discordgo.ButtonComponent,
		},
	}
}
