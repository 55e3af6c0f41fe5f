package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockDiscordSession is a mock implementation of DiscordSessionInterface for testing
type MockDiscordSession struct {
	shouldFailOnOpen      bool
	shouldFailOnSend      bool
	shouldFailOnDMChannel bool
	openCalled            bool
	closed                bool
	handlers              []interface{}
	sentMessages          []SentMessage
	dmChannelRequests     []string
	responses             []*discordgo.InteractionResponse
	overwritten           []*discordgo.ApplicationCommand
	overwriteAppID        string
	overwriteGuildID      string
}

type SentMessage struct {
	Channel string
	Data    *discordgo.MessageSend
}

func (m *MockDiscordSession) AddHandler(handler interface{}) func() {
	m.handlers = append(m.handlers, handler)
	return func() {}
}

func (m *MockDiscordSession) Open() error {
	m.openCalled = true
	if m.shouldFailOnOpen {
		return errors.New("failed to open discord connection")
	}
	return nil
}

func (m *MockDiscordSession) Close() error {
	m.closed = true
	return nil
}

func (m *MockDiscordSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.shouldFailOnSend {
		return nil, errors.New("403 Forbidden")
	}
	m.sentMessages = append(m.sentMessages, SentMessage{Channel: channelID, Data: data})
	return &discordgo.Message{ID: "msg-id", ChannelID: channelID}, nil
}

func (m *MockDiscordSession) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	m.dmChannelRequests = append(m.dmChannelRequests, recipientID)
	if m.shouldFailOnDMChannel {
		return nil, errors.New("cannot open dm")
	}
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (m *MockDiscordSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	if m.shouldFailOnSend {
		return errors.New("unknown interaction")
	}
	m.responses = append(m.responses, resp)
	return nil
}

func (m *MockDiscordSession) ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	m.overwriteAppID = appID
	m.overwriteGuildID = guildID
	m.overwritten = commands
	return commands, nil
}

func newTestBot(t *testing.T, session *MockDiscordSession) *DiscordBot {
	t.Helper()
	d, err := NewDiscordBot(Options{Token: "test-token-123456", UserCacheSize: 4})
	require.NoError(t, err)
	d.session = session
	return d
}

func commandInteraction(typ discordgo.InteractionType, name string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			ID:        "interaction-1",
			Type:      typ,
			GuildID:   "guild-1",
			ChannelID: "channel-1",
			Member: &discordgo.Member{
				Nick: "Crayon",
				User: &discordgo.User{ID: "user-1", Username: "crayon"},
			},
			Data: discordgo.ApplicationCommandInteractionData{
				Name:    name,
				Options: options,
			},
		},
	}
}

func TestNewDiscordBot(t *testing.T) {
	t.Run("with cache", func(t *testing.T) {
		d, err := NewDiscordBot(Options{Token: "token", UserCacheSize: 8})
		require.NoError(t, err)
		assert.NotNil(t, d.dmChannels)
		assert.Nil(t, d.session)
	})

	t.Run("cache disabled", func(t *testing.T) {
		d, err := NewDiscordBot(Options{Token: "token"})
		require.NoError(t, err)
		assert.Nil(t, d.dmChannels)
	})
}

func TestDiscordBot_Start_RegistersHandlersAndOpens(t *testing.T) {
	mock := &MockDiscordSession{}
	d := newTestBot(t, mock)

	require.NoError(t, d.Start())
	assert.True(t, mock.openCalled)
	assert.Len(t, mock.handlers, 3)

	require.NoError(t, d.Stop())
	assert.True(t, mock.closed)
}

func TestDiscordBot_Start_WithSessionOpenError_ReturnsError(t *testing.T) {
	mock := &MockDiscordSession{shouldFailOnOpen: true}
	d := newTestBot(t, mock)

	err := d.Start()
	assert.Error(t, err)
	assert.True(t, mock.openCalled)
}

func TestDiscordBot_Stop_WithNilSession_NoError(t *testing.T) {
	d, err := NewDiscordBot(Options{})
	require.NoError(t, err)
	assert.NoError(t, d.Stop())
}

func TestDiscordBot_OnMessageCreate_DispatchesToEveryHandler(t *testing.T) {
	d := newTestBot(t, &MockDiscordSession{})

	var first, second []Message
	d.HandleMessage("first", func(ctx context.Context, s Sender, m Message) { first = append(first, m) })
	d.HandleMessage("second", func(ctx context.Context, s Sender, m Message) { second = append(second, m) })

	d.onMessageCreate(nil, &discordgo.MessageCreate{
		Message: &discordgo.Message{
			ID:           "m1",
			Content:      "going live!",
			ChannelID:    "live-channel",
			GuildID:      "guild-1",
			MentionRoles: []string{"role-1"},
			Author:       &discordgo.User{ID: "streamer", Username: "gucci"},
			Member:       &discordgo.Member{Nick: "Gucci"},
		},
	})

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	msg := first[0]
	assert.Equal(t, "streamer", msg.AuthorID)
	assert.Equal(t, "Gucci", msg.AuthorName)
	assert.Equal(t, "live-channel", msg.ChannelID)
	assert.Equal(t, "guild-1", msg.GuildID)
	assert.Equal(t, "going live!", msg.Content)
	assert.False(t, msg.IsDirect())
	assert.True(t, msg.MentionsRole("role-1"))
	assert.False(t, msg.MentionsRole("role-2"))
}

func TestDiscordBot_OnMessageCreate_PanicIsContained(t *testing.T) {
	d := newTestBot(t, &MockDiscordSession{})

	called := false
	d.HandleMessage("broken", func(ctx context.Context, s Sender, m Message) { panic("boom") })
	d.HandleMessage("healthy", func(ctx context.Context, s Sender, m Message) { called = true })

	assert.NotPanics(t, func() {
		d.onMessageCreate(nil, &discordgo.MessageCreate{
			Message: &discordgo.Message{Author: &discordgo.User{ID: "u"}, ChannelID: "c"},
		})
	})
	assert.True(t, called, "handlers after a panicking one still run")
}

func TestDiscordBot_OnMessageCreate_IgnoresMessagesWithoutAuthor(t *testing.T) {
	d := newTestBot(t, &MockDiscordSession{})
	called := false
	d.HandleMessage("h", func(ctx context.Context, s Sender, m Message) { called = true })

	d.onMessageCreate(nil, &discordgo.MessageCreate{Message: &discordgo.Message{ChannelID: "c"}})
	assert.False(t, called)
}

func TestDiscordBot_OnReady_SetsSelfIDAndSyncs(t *testing.T) {
	mock := &MockDiscordSession{}
	d, err := NewDiscordBot(Options{SyncCommands: true, CommandGuildID: "guild-9"})
	require.NoError(t, err)
	d.session = mock

	require.NoError(t, d.HandleCommand(Command{
		Definition: &discordgo.ApplicationCommand{Name: "goodbot", Description: "d"},
		Handler:    func(ctx context.Context, s Sender, inv Invocation) {},
	}))

	d.onReady(nil, &discordgo.Ready{User: &discordgo.User{ID: "self-1", Username: "craybot"}})

	assert.Equal(t, "self-1", d.SelfID())
	assert.Equal(t, "self-1", mock.overwriteAppID)
	assert.Equal(t, "guild-9", mock.overwriteGuildID)
	require.Len(t, mock.overwritten, 1)
	assert.Equal(t, "goodbot", mock.overwritten[0].Name)
}

func TestDiscordBot_SyncCommands_BeforeReady(t *testing.T) {
	d := newTestBot(t, &MockDiscordSession{})
	assert.Error(t, d.SyncCommands())
}

func TestDiscordBot_HandleCommand_Validation(t *testing.T) {
	d := newTestBot(t, &MockDiscordSession{})
	noop := func(ctx context.Context, s Sender, inv Invocation) {}

	assert.Error(t, d.HandleCommand(Command{Handler: noop}))
	assert.Error(t, d.HandleCommand(Command{Definition: &discordgo.ApplicationCommand{Name: "x"}}))

	def := &discordgo.ApplicationCommand{Name: "timestamp"}
	require.NoError(t, d.HandleCommand(Command{Definition: def, Handler: noop}))
	assert.Error(t, d.HandleCommand(Command{Definition: def, Handler: noop}), "duplicate name")

	assert.Len(t, d.Commands(), 1)
}

func TestDiscordBot_OnInteractionCreate_RoutesCommandAndAutocomplete(t *testing.T) {
	d := newTestBot(t, &MockDiscordSession{})

	var invoked, completed []Invocation
	require.NoError(t, d.HandleCommand(Command{
		Definition:   &discordgo.ApplicationCommand{Name: "timestamp"},
		Handler:      func(ctx context.Context, s Sender, inv Invocation) { invoked = append(invoked, inv) },
		Autocomplete: func(ctx context.Context, s Sender, inv Invocation) { completed = append(completed, inv) },
	}))

	d.onInteractionCreate(nil, commandInteraction(discordgo.InteractionApplicationCommand, "timestamp",
		&discordgo.ApplicationCommandInteractionDataOption{Name: "date", Type: discordgo.ApplicationCommandOptionString, Value: "2025-07-15"},
		&discordgo.ApplicationCommandInteractionDataOption{Name: "time", Type: discordgo.ApplicationCommandOptionString, Value: "10:20"},
	))
	d.onInteractionCreate(nil, commandInteraction(discordgo.InteractionApplicationCommandAutocomplete, "timestamp",
		&discordgo.ApplicationCommandInteractionDataOption{Name: "timezone", Type: discordgo.ApplicationCommandOptionString, Value: "new_y", Focused: true},
	))
	d.onInteractionCreate(nil, commandInteraction(discordgo.InteractionApplicationCommand, "unknown"))

	require.Len(t, invoked, 1)
	assert.Equal(t, "2025-07-15", invoked[0].Option("date"))
	assert.Equal(t, "10:20", invoked[0].Option("time"))
	assert.Equal(t, "", invoked[0].Option("timezone"))
	assert.Equal(t, "user-1", invoked[0].UserID)
	assert.Equal(t, "Crayon", invoked[0].UserName)
	assert.Equal(t, "<@user-1>", invoked[0].UserMention())

	require.Len(t, completed, 1)
	assert.Equal(t, "timezone", completed[0].Focused)
	assert.Equal(t, "new_y", completed[0].Option("timezone"))
}

func TestDiscordBot_Send_AppliesMentionPolicy(t *testing.T) {
	mock := &MockDiscordSession{}
	d := newTestBot(t, mock)

	require.NoError(t, d.Send(context.Background(), "c1", "<@&42>", MentionAll))
	require.NoError(t, d.Send(context.Background(), "c2", "hello", MentionNone))

	require.Len(t, mock.sentMessages, 2)
	assert.ElementsMatch(t, []discordgo.AllowedMentionType{
		discordgo.AllowedMentionTypeEveryone,
		discordgo.AllowedMentionTypeRoles,
		discordgo.AllowedMentionTypeUsers,
	}, mock.sentMessages[0].Data.AllowedMentions.Parse)
	assert.NotNil(t, mock.sentMessages[1].Data.AllowedMentions.Parse)
	assert.Empty(t, mock.sentMessages[1].Data.AllowedMentions.Parse)
}

func TestDiscordBot_Send_TruncatesLongMessages(t *testing.T) {
	mock := &MockDiscordSession{}
	d := newTestBot(t, mock)

	require.NoError(t, d.Send(context.Background(), "c", strings.Repeat("a", 2500), MentionNone))
	content := mock.sentMessages[0].Data.Content
	assert.Len(t, content, 2000)
	assert.True(t, strings.HasSuffix(content, "..."))
}

func TestDiscordBot_Send_Errors(t *testing.T) {
	d, err := NewDiscordBot(Options{})
	require.NoError(t, err)
	assert.Error(t, d.Send(context.Background(), "c", "x", MentionNone), "no session")

	d = newTestBot(t, &MockDiscordSession{shouldFailOnSend: true})
	err = d.Send(context.Background(), "c", "x", MentionNone)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestDiscordBot_SendDirect_CachesChannel(t *testing.T) {
	mock := &MockDiscordSession{}
	d := newTestBot(t, mock)

	require.NoError(t, d.SendDirect(context.Background(), "maintainer", "first"))
	require.NoError(t, d.SendDirect(context.Background(), "maintainer", "second"))

	assert.Equal(t, []string{"maintainer"}, mock.dmChannelRequests)
	require.Len(t, mock.sentMessages, 2)
	assert.Equal(t, "dm-maintainer", mock.sentMessages[1].Channel)
}

func TestDiscordBot_SendDirect_ChannelError(t *testing.T) {
	d := newTestBot(t, &MockDiscordSession{shouldFailOnDMChannel: true})
	assert.Error(t, d.SendDirect(context.Background(), "maintainer", "x"))
}

func TestDiscordBot_RespondAndSuggest(t *testing.T) {
	mock := &MockDiscordSession{}
	d := newTestBot(t, mock)
	inv := Invocation{Command: "timestamp", Interaction: &discordgo.Interaction{ID: "i"}}

	require.NoError(t, d.Respond(context.Background(), inv, Response{Content: "secret", Ephemeral: true}))
	require.NoError(t, d.Respond(context.Background(), inv, Response{Content: "public", Mentions: MentionUsers}))

	choices := make([]Choice, 30)
	for i := range choices {
		choices[i] = Choice{Name: "n", Value: "v"}
	}
	require.NoError(t, d.Suggest(context.Background(), inv, choices))

	require.Len(t, mock.responses, 3)
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, mock.responses[0].Type)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, mock.responses[0].Data.Flags)
	assert.Equal(t, discordgo.MessageFlags(0), mock.responses[1].Data.Flags)
	assert.Equal(t, []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers}, mock.responses[1].Data.AllowedMentions.Parse)
	assert.Equal(t, discordgo.InteractionApplicationCommandAutocompleteResult, mock.responses[2].Type)
	assert.Len(t, mock.responses[2].Data.Choices, 25)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "***", maskSecret("short"))
	assert.Equal(t, "abcd***wxyz", maskSecret("abcdefghijklmnopqrstuvwxyz"))
}
