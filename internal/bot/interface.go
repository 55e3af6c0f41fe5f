// Package bot is craybot's transport layer on top of discordgo.
//
// It converts raw gateway events into immutable records, routes them to the
// handlers registered by modules, and exposes the outbound operations those
// handlers need.
//
// # Routing
//
// Modules register against a Router before the gateway connection is opened:
//
//	r.HandleMessage("pings", listener.Handle)
//	r.HandleCommand(bot.Command{Definition: def, Handler: h})
//
// Every message handler sees every MessageCreate event. Command handlers are
// looked up by slash-command name. Events are processed one at a time
// (discordgo SyncEvents), and a panic inside a handler is recovered and logged
// without affecting other handlers or later events.
//
// # Sending
//
// Handlers reply through a Sender. Every send names the mention classes it
// permits with a MentionPolicy; nothing is allowed to ping by default.
package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// Message is an immutable snapshot of a MessageCreate event
type Message struct {
	ID             string
	AuthorID       string
	AuthorName     string // server nickname when set, otherwise the username
	AuthorIsBot    bool
	ChannelID      string
	GuildID        string // empty for direct messages
	Content        string
	MentionedRoles []string
}

// IsDirect reports whether the message was sent outside of a guild
func (m Message) IsDirect() bool {
	return m.GuildID == ""
}

// MentionsRole reports whether roleID is among the roles mentioned in the message
func (m Message) MentionsRole(roleID string) bool {
	for _, id := range m.MentionedRoles {
		if id == roleID {
			return true
		}
	}
	return false
}

// Invocation is a slash-command or autocomplete request
type Invocation struct {
	Command   string
	Options   map[string]string // string options by name
	Focused   string            // option being autocompleted, empty for regular invocations
	UserID    string
	UserName  string
	GuildID   string
	ChannelID string

	Interaction *discordgo.Interaction
}

// Option returns the string option name, or "" when it was not supplied
func (i Invocation) Option(name string) string {
	return i.Options[name]
}

// UserMention returns the mention markup for the invoking user
func (i Invocation) UserMention() string {
	return "<@" + i.UserID + ">"
}

// MentionPolicy declares which mention classes a single send may notify
type MentionPolicy struct {
	Everyone bool
	Roles    bool
	Users    bool
}

var (
	// MentionNone suppresses every notification
	MentionNone = MentionPolicy{}
	// MentionUsers allows user mentions only
	MentionUsers = MentionPolicy{Users: true}
	// MentionAll allows @everyone, role and user mentions
	MentionAll = MentionPolicy{Everyone: true, Roles: true, Users: true}
)

func (p MentionPolicy) allowedMentions() *discordgo.MessageAllowedMentions {
	parse := []discordgo.AllowedMentionType{}
	if p.Everyone {
		parse = append(parse, discordgo.AllowedMentionTypeEveryone)
	}
	if p.Roles {
		parse = append(parse, discordgo.AllowedMentionTypeRoles)
	}
	if p.Users {
		parse = append(parse, discordgo.AllowedMentionTypeUsers)
	}
	return &discordgo.MessageAllowedMentions{Parse: parse}
}

// Response is a reply to an Invocation
type Response struct {
	Content   string
	Ephemeral bool // visible only to the invoking user
	Mentions  MentionPolicy
}

// Choice is one autocomplete suggestion
type Choice struct {
	Name  string
	Value string
}

// Sender is the outbound half of the transport
type Sender interface {
	// SelfID returns the bot's own user ID, empty until the gateway is ready
	SelfID() string

	// Send posts text to a channel
	Send(ctx context.Context, channelID, text string, mentions MentionPolicy) error

	// SendDirect posts text to a user's direct-message channel
	SendDirect(ctx context.Context, userID, text string) error

	// Respond answers a slash-command invocation
	Respond(ctx context.Context, inv Invocation, resp Response) error

	// Suggest answers an autocomplete request
	Suggest(ctx context.Context, inv Invocation, choices []Choice) error
}

// MessageHandler is called for every inbound message
type MessageHandler func(ctx context.Context, s Sender, m Message)

// CommandHandler is called for an invocation of the command it is registered under
type CommandHandler func(ctx context.Context, s Sender, inv Invocation)

// Command binds a slash-command definition to its handlers
type Command struct {
	Definition   *discordgo.ApplicationCommand
	Handler      CommandHandler
	Autocomplete CommandHandler // optional
}

// Router is the registration surface handed to modules at load time
type Router interface {
	// HandleMessage adds a handler that receives every inbound message
	HandleMessage(name string, h MessageHandler)

	// HandleCommand registers a slash command. Registering a name twice is an error.
	HandleCommand(cmd Command) error
}
