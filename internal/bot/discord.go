package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/craybot/craybot/internal/logger"
	"github.com/craybot/craybot/pkg/constants"
	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"
)

// DiscordSessionInterface defines the subset of *discordgo.Session the bot uses.
// Tests substitute a mock.
type DiscordSessionInterface interface {
	AddHandler(handler interface{}) func()
	Open() error
	Close() error
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// Intents requested when opening the gateway connection
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// Options configures a DiscordBot
type Options struct {
	Token          string
	CommandGuildID string // sync slash commands to this guild only; empty syncs globally
	SyncCommands   bool
	UserCacheSize  int // DM channel cache entries, 0 disables caching
}

type namedMessageHandler struct {
	name    string
	handler MessageHandler
}

// DiscordBot is the Discord transport. It implements Router and Sender.
type DiscordBot struct {
	mu              sync.RWMutex
	opts            Options
	session         DiscordSessionInterface
	selfID          string
	messageHandlers []namedMessageHandler
	commands        map[string]Command
	commandOrder    []string
	dmChannels      *lru.ARCCache
	ctx             context.Context
	cancel          context.CancelFunc
}

var (
	_ Router = (*DiscordBot)(nil)
	_ Sender = (*DiscordBot)(nil)
)

// NewDiscordBot creates a Discord transport. The gateway connection is opened by Start.
func NewDiscordBot(opts Options) (*DiscordBot, error) {
	d := &DiscordBot{
		opts:     opts,
		commands: make(map[string]Command),
		ctx:      context.Background(),
	}

	if opts.UserCacheSize > 0 {
		cache, err := lru.NewARC(opts.UserCacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create dm channel cache: %w", err)
		}
		d.dmChannels = cache
	}

	return d, nil
}

// HandleMessage implements Router
func (d *DiscordBot) HandleMessage(name string, h MessageHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messageHandlers = append(d.messageHandlers, namedMessageHandler{name: name, handler: h})
}

// HandleCommand implements Router
func (d *DiscordBot) HandleCommand(cmd Command) error {
	if cmd.Definition == nil || cmd.Definition.Name == "" {
		return errors.New("command definition must have a name")
	}
	if cmd.Handler == nil {
		return fmt.Errorf("command %s has no handler", cmd.Definition.Name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	name := cmd.Definition.Name
	if _, exists := d.commands[name]; exists {
		return fmt.Errorf("command %s is already registered", name)
	}
	d.commands[name] = cmd
	d.commandOrder = append(d.commandOrder, name)
	return nil
}

// Commands returns the registered slash-command definitions in registration order
func (d *DiscordBot) Commands() []*discordgo.ApplicationCommand {
	d.mu.RLock()
	defer d.mu.RUnlock()

	defs := make([]*discordgo.ApplicationCommand, 0, len(d.commandOrder))
	for _, name := range d.commandOrder {
		defs = append(defs, d.commands[name].Definition)
	}
	return defs
}

// Start opens the gateway connection and begins dispatching events
func (d *DiscordBot) Start() error {
	logger.WithFields(logrus.Fields{
		"token":         maskSecret(d.opts.Token),
		"command_guild": d.opts.CommandGuildID,
		"sync_commands": d.opts.SyncCommands,
	}).Info("starting-discord-bot")

	d.mu.Lock()
	if d.session == nil {
		session, err := discordgo.New("Bot " + d.opts.Token)
		if err != nil {
			d.mu.Unlock()
			return fmt.Errorf("failed to create discord session: %w", err)
		}
		session.Identify.Intents = Intents
		// One event at a time, handled to completion
		session.SyncEvents = true
		d.session = session
	}
	session := d.session
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.mu.Unlock()

	session.AddHandler(d.onReady)
	session.AddHandler(d.onMessageCreate)
	session.AddHandler(d.onInteractionCreate)

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open discord connection: %w", err)
	}

	return nil
}

// Stop closes the gateway connection
func (d *DiscordBot) Stop() error {
	d.mu.Lock()
	session := d.session
	d.session = nil
	if d.cancel != nil {
		d.cancel()
	}
	d.mu.Unlock()

	if session == nil {
		return nil
	}

	if err := session.Close(); err != nil {
		return fmt.Errorf("failed to close discord session: %w", err)
	}

	logger.GetLogger().Info("discord-bot-stopped")
	return nil
}

// SelfID implements Sender
func (d *DiscordBot) SelfID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.selfID
}

func (d *DiscordBot) setSelfID(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selfID = id
}

func (d *DiscordBot) getSession() (DiscordSessionInterface, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.session == nil {
		return nil, errors.New("discord session not initialized")
	}
	return d.session, nil
}

func (d *DiscordBot) eventContext() context.Context {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ctx
}

// Send implements Sender
func (d *DiscordBot) Send(ctx context.Context, channelID, text string, mentions MentionPolicy) error {
	session, err := d.getSession()
	if err != nil {
		return err
	}

	text = truncate(text)
	_, err = session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:         text,
		AllowedMentions: mentions.allowedMentions(),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send message to channel %s: %w", channelID, err)
	}

	logger.WithField("channel", channelID).Debug("message-sent-to-discord")
	return nil
}

// SendDirect implements Sender
func (d *DiscordBot) SendDirect(ctx context.Context, userID, text string) error {
	channelID, err := d.directChannel(ctx, userID)
	if err != nil {
		return err
	}
	return d.Send(ctx, channelID, text, MentionNone)
}

// directChannel resolves the DM channel for userID, consulting the cache first
func (d *DiscordBot) directChannel(ctx context.Context, userID string) (string, error) {
	if d.dmChannels != nil {
		if cached, ok := d.dmChannels.Get(userID); ok {
			if channelID, ok := cached.(string); ok {
				return channelID, nil
			}
		}
	}

	session, err := d.getSession()
	if err != nil {
		return "", err
	}

	channel, err := session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to open dm channel with user %s: %w", userID, err)
	}

	if d.dmChannels != nil {
		d.dmChannels.Add(userID, channel.ID)
	}
	return channel.ID, nil
}

// Respond implements Sender
func (d *DiscordBot) Respond(ctx context.Context, inv Invocation, resp Response) error {
	session, err := d.getSession()
	if err != nil {
		return err
	}

	data := &discordgo.InteractionResponseData{
		Content:         truncate(resp.Content),
		AllowedMentions: resp.Mentions.allowedMentions(),
	}
	if resp.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}

	err = session.InteractionRespond(inv.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to respond to /%s: %w", inv.Command, err)
	}
	return nil
}

// Suggest implements Sender
func (d *DiscordBot) Suggest(ctx context.Context, inv Invocation, choices []Choice) error {
	session, err := d.getSession()
	if err != nil {
		return err
	}

	if len(choices) > constants.MaxAutocompleteChoices {
		choices = choices[:constants.MaxAutocompleteChoices]
	}
	options := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(choices))
	for _, c := range choices {
		options = append(options, &discordgo.ApplicationCommandOptionChoice{Name: c.Name, Value: c.Value})
	}

	err = session.InteractionRespond(inv.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: options},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send autocomplete for /%s: %w", inv.Command, err)
	}
	return nil
}

// SyncCommands overwrites the application's slash commands with the registered set
func (d *DiscordBot) SyncCommands() error {
	session, err := d.getSession()
	if err != nil {
		return err
	}

	appID := d.SelfID()
	if appID == "" {
		return errors.New("cannot sync commands before the gateway is ready")
	}

	defs := d.Commands()
	synced, err := session.ApplicationCommandBulkOverwrite(appID, d.opts.CommandGuildID, defs)
	if err != nil {
		return fmt.Errorf("failed to sync slash commands: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"count": len(synced),
		"guild": d.opts.CommandGuildID,
	}).Info("slash-commands-synced")
	return nil
}

func (d *DiscordBot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	if r.User == nil {
		return
	}
	d.setSelfID(r.User.ID)

	logger.WithFields(logrus.Fields{
		"user_id":  r.User.ID,
		"username": r.User.Username,
		"guilds":   len(r.Guilds),
	}).Info("discord-bot-ready")

	if !d.opts.SyncCommands {
		return
	}
	if err := d.SyncCommands(); err != nil {
		logger.WithField("error", err).Error("slash-command-sync-failed")
	}
}

func (d *DiscordBot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.Author == nil {
		return
	}
	msg := messageFromEvent(m.Message)

	logger.WithFields(logrus.Fields{
		"author":  msg.AuthorID,
		"channel": msg.ChannelID,
		"guild":   msg.GuildID,
	}).Debug("received-discord-message")

	d.mu.RLock()
	handlers := make([]namedMessageHandler, len(d.messageHandlers))
	copy(handlers, d.messageHandlers)
	d.mu.RUnlock()

	ctx := d.eventContext()
	for _, h := range handlers {
		d.dispatch(h.name, func() { h.handler(ctx, d, msg) })
	}
}

func (d *DiscordBot) onInteractionCreate(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	if i == nil || i.Interaction == nil {
		return
	}
	if i.Type != discordgo.InteractionApplicationCommand && i.Type != discordgo.InteractionApplicationCommandAutocomplete {
		return
	}

	inv := invocationFromInteraction(i.Interaction)

	d.mu.RLock()
	cmd, ok := d.commands[inv.Command]
	d.mu.RUnlock()
	if !ok {
		logger.WithField("command", inv.Command).Warn("unknown-slash-command")
		return
	}

	handler := cmd.Handler
	if i.Type == discordgo.InteractionApplicationCommandAutocomplete {
		handler = cmd.Autocomplete
		if handler == nil {
			return
		}
	}

	logger.WithFields(logrus.Fields{
		"command": inv.Command,
		"user_id": inv.UserID,
		"focused": inv.Focused,
	}).Debug("received-slash-command")

	ctx := d.eventContext()
	d.dispatch(inv.Command, func() { handler(ctx, d, inv) })
}

// dispatch runs fn, containing any panic to the current event
func (d *DiscordBot) dispatch(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"handler": name,
				"panic":   r,
			}).Error("handler-panicked")
		}
	}()
	fn()
}

func messageFromEvent(m *discordgo.Message) Message {
	msg := Message{
		ID:             m.ID,
		AuthorID:       m.Author.ID,
		AuthorName:     m.Author.Username,
		AuthorIsBot:    m.Author.Bot,
		ChannelID:      m.ChannelID,
		GuildID:        m.GuildID,
		Content:        m.Content,
		MentionedRoles: append([]string(nil), m.MentionRoles...),
	}
	if m.Member != nil && m.Member.Nick != "" {
		msg.AuthorName = m.Member.Nick
	}
	return msg
}

func invocationFromInteraction(i *discordgo.Interaction) Invocation {
	data := i.ApplicationCommandData()
	inv := Invocation{
		Command:     data.Name,
		Options:     make(map[string]string, len(data.Options)),
		GuildID:     i.GuildID,
		ChannelID:   i.ChannelID,
		Interaction: i,
	}

	for _, opt := range data.Options {
		if opt == nil {
			continue
		}
		if v, ok := opt.Value.(string); ok {
			inv.Options[opt.Name] = v
		}
		if opt.Focused {
			inv.Focused = opt.Name
		}
	}

	switch {
	case i.Member != nil && i.Member.User != nil:
		inv.UserID = i.Member.User.ID
		inv.UserName = i.Member.User.Username
		if i.Member.Nick != "" {
			inv.UserName = i.Member.Nick
		}
	case i.User != nil:
		inv.UserID = i.User.ID
		inv.UserName = i.User.Username
	}

	return inv
}
