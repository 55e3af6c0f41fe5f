// Package feedback holds the fixed-text acknowledgement commands: /goodbot
// and /badbot thank the user, /praisedev and /shamedev ping the maintainer.
package feedback

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/craybot/craybot/internal/bot"
	"github.com/craybot/craybot/internal/core"
	"github.com/craybot/craybot/internal/logger"
	"github.com/sirupsen/logrus"
)

// Module names
const (
	BotFeedbackName = "bot-feedback"
	DevFeedbackName = "dev-feedback"
)

// Reply renders the acknowledgement for one invocation
type Reply func(inv bot.Invocation) string

// Entry is one feedback command
type Entry struct {
	Name        string
	Description string
	Reply       Reply
}

// Module registers a fixed set of feedback commands
type Module struct {
	name    string
	entries []Entry
}

var _ core.Module = (*Module)(nil)

// BotFeedbackFactory builds /goodbot and /badbot
var BotFeedbackFactory = core.Factory{
	Name: BotFeedbackName,
	New: func(cfg *core.Config) (core.Module, error) {
		return NewBotFeedback(), nil
	},
}

// DevFeedbackFactory builds /praisedev and /shamedev
var DevFeedbackFactory = core.Factory{
	Name: DevFeedbackName,
	New: func(cfg *core.Config) (core.Module, error) {
		return NewDevFeedback(cfg.Identifiers)
	},
}

// NewBotFeedback creates the module that thanks users for rating the bot
func NewBotFeedback() *Module {
	return &Module{
		name: BotFeedbackName,
		entries: []Entry{
			{
				Name:        "goodbot",
				Description: "Tell the bot it's doing a good job",
				Reply: func(inv bot.Invocation) string {
					return fmt.Sprintf("Thanks for telling me I'm doing a good job, %s! :D ", inv.UserMention())
				},
			},
			{
				Name:        "badbot",
				Description: "Tell the bot it's doing a bad job",
				Reply: func(inv bot.Invocation) string {
					return fmt.Sprintf("Oh no! I'll try to do better, %s :(", inv.UserMention())
				},
			},
		},
	}
}

// NewDevFeedback creates the module that relays praise or shame to the maintainer
func NewDevFeedback(ids core.IdentifierConfig) (*Module, error) {
	if err := ids.Require("maintainer_user_id"); err != nil {
		return nil, err
	}
	maintainer := "<@" + ids.MaintainerUserID + ">"

	return &Module{
		name: DevFeedbackName,
		entries: []Entry{
			{
				Name:        "praisedev",
				Description: "Let the developer know you like their work",
				Reply: func(inv bot.Invocation) string {
					return fmt.Sprintf("Hey %s, %s likes your work!", maintainer, inv.UserName)
				},
			},
			{
				Name:        "shamedev",
				Description: "Call shame upon the developer",
				Reply: func(inv bot.Invocation) string {
					return fmt.Sprintf("Hey %s, %s is calling shame upon you. You must've messed something up!", maintainer, inv.UserName)
				},
			},
		},
	}, nil
}

// Name implements core.Module
func (m *Module) Name() string {
	return m.name
}

// Entries returns the commands in registration order
func (m *Module) Entries() []Entry {
	return m.entries
}

// Register implements core.Module. Commands are registered in order and a
// Router cannot unregister, so when one fails the commands before it stay
// registered. The loader reports the module as failed and startup aborts.
func (m *Module) Register(r bot.Router) error {
	seen := make(map[string]bool, len(m.entries))
	for _, e := range m.entries {
		if seen[e.Name] {
			return fmt.Errorf("command /%s is listed twice", e.Name)
		}
		seen[e.Name] = true
	}

	for _, e := range m.entries {
		err := r.HandleCommand(bot.Command{
			Definition: &discordgo.ApplicationCommand{
				Name:        e.Name,
				Description: e.Description,
			},
			Handler: m.handler(e),
		})
		if err != nil {
			return fmt.Errorf("register /%s: %w", e.Name, err)
		}
	}
	return nil
}

func (m *Module) handler(e Entry) bot.CommandHandler {
	return func(ctx context.Context, s bot.Sender, inv bot.Invocation) {
		resp := bot.Response{Content: e.Reply(inv), Mentions: bot.MentionUsers}
		if err := s.Respond(ctx, inv, resp); err != nil {
			logger.ForModule(m.name).WithFields(logrus.Fields{
				"command": e.Name,
				"user_id": inv.UserID,
				"error":   err,
			}).Error("failed-to-respond-to-feedback")
		}
	}
}
