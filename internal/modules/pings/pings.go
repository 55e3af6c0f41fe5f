// Package pings watches the target guild for birthday and go-live
// announcements and answers them with a role ping. Direct messages get an
// apology and are forwarded to the maintainer.
package pings

import (
	"context"
	"fmt"
	"strings"

	"github.com/craybot/craybot/internal/bot"
	"github.com/craybot/craybot/internal/core"
	"github.com/craybot/craybot/internal/logger"
	"github.com/sirupsen/logrus"
)

// Name is the module name
const Name = "pings"

// DirectMessageApology is sent back to anyone who DMs the bot
const DirectMessageApology = "I'm sorry, I don't respond to DMs, please use my commands in the server.\n" +
	"I will forward this message to my dev, in case it does require a response."

// Rule is a trigger condition bound to the reply it fires
type Rule struct {
	Name  string
	Match func(m bot.Message) bool
	Reply string
}

// Reply is an outbound message the listener attempted to send
type Reply struct {
	ChannelID string
	Content   string
}

// Listener is the pings module
type Listener struct {
	maintainerID string
	guildID      string
	rules        []Rule
}

var _ core.Module = (*Listener)(nil)

// Factory builds the listener from the identifiers section of the config
var Factory = core.Factory{
	Name: Name,
	New: func(cfg *core.Config) (core.Module, error) {
		return New(cfg.Identifiers)
	},
}

// New creates the listener. Every identifier it uses must be set.
func New(ids core.IdentifierConfig) (*Listener, error) {
	err := ids.Require(
		"maintainer_user_id",
		"target_guild_id",
		"birthday_role_id",
		"birthday_channel_id",
		"birthday_bot_id",
		"go_live_channel_id",
		"streamer_user_id",
		"stream_ping_role_id",
	)
	if err != nil {
		return nil, err
	}

	return &Listener{
		maintainerID: ids.MaintainerUserID,
		guildID:      ids.TargetGuildID,
		rules:        Rules(ids),
	}, nil
}

// Rules returns the trigger rules in priority order
func Rules(ids core.IdentifierConfig) []Rule {
	return []Rule{
		{
			Name: "birthday",
			Match: func(m bot.Message) bool {
				return m.ChannelID == ids.BirthdayChannelID && m.AuthorID == ids.BirthdayBotID
			},
			Reply: roleMention(ids.BirthdayRoleID),
		},
		{
			Name: "go-live",
			Match: func(m bot.Message) bool {
				// The upstream notification may already ping the role
				return m.ChannelID == ids.GoLiveChannelID &&
					m.AuthorID == ids.StreamerUserID &&
					!m.MentionsRole(ids.StreamPingRoleID)
			},
			Reply: roleMention(ids.StreamPingRoleID),
		},
	}
}

// Name implements core.Module
func (l *Listener) Name() string {
	return Name
}

// Register implements core.Module
func (l *Listener) Register(r bot.Router) error {
	r.HandleMessage(Name, func(ctx context.Context, s bot.Sender, m bot.Message) {
		l.Handle(ctx, s, m)
	})
	return nil
}

// Match returns the first rule that matches m, or nil
func (l *Listener) Match(m bot.Message) *Rule {
	for i := range l.rules {
		if l.rules[i].Match(m) {
			return &l.rules[i]
		}
	}
	return nil
}

// Handle evaluates m and sends at most one reply into its channel. It returns
// the reply it attempted, or nil when m needs no reply. Send failures are
// logged and do not change the result.
func (l *Listener) Handle(ctx context.Context, s bot.Sender, m bot.Message) *Reply {
	log := logger.ForModule(Name).WithFields(logrus.Fields{
		"author":  m.AuthorID,
		"channel": m.ChannelID,
		"guild":   m.GuildID,
	})

	if m.AuthorID == s.SelfID() {
		log.Debug("ignored-own-message")
		return nil
	}

	if m.IsDirect() {
		return l.handleDirect(ctx, s, m, log)
	}

	if m.GuildID != l.guildID {
		log.Debug("ignored-other-guild")
		return nil
	}

	rule := l.Match(m)
	if rule == nil {
		log.Debug("ignored-no-rule-matched")
		return nil
	}

	log = log.WithField("rule", rule.Name)
	log.Info("rule-matched-sending-ping")
	if err := s.Send(ctx, m.ChannelID, rule.Reply, bot.MentionAll); err != nil {
		log.WithField("error", err).Error("failed-to-send-ping")
	}
	return &Reply{ChannelID: m.ChannelID, Content: rule.Reply}
}

// handleDirect apologises to the sender and forwards the message to the
// maintainer. Neither send depends on the other succeeding.
func (l *Listener) handleDirect(ctx context.Context, s bot.Sender, m bot.Message, log *logrus.Entry) *Reply {
	log.Info("received-direct-message-forwarding")

	if err := s.Send(ctx, m.ChannelID, DirectMessageApology, bot.MentionNone); err != nil {
		log.WithField("error", err).Warn("failed-to-reply-to-direct-message")
	}

	if err := s.SendDirect(ctx, l.maintainerID, ForwardedMessage(m)); err != nil {
		log.WithFields(logrus.Fields{
			"maintainer": l.maintainerID,
			"error":      err,
		}).Error("failed-to-forward-direct-message")
	}

	return &Reply{ChannelID: m.ChannelID, Content: DirectMessageApology}
}

// ForwardedMessage renders m for the maintainer inside a text code block
func ForwardedMessage(m bot.Message) string {
	return fmt.Sprintf("%s sent me a DM. It says:\n```text\n%s```", m.AuthorName, EscapeCodeFence(m.Content))
}

// EscapeCodeFence escapes triple backticks so content cannot close the surrounding block
func EscapeCodeFence(content string) string {
	return strings.ReplaceAll(content, "```", "\\`\\`\\`")
}

func roleMention(roleID string) string {
	return "<@&" + roleID + ">"
}
