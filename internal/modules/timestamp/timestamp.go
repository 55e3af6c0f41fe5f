// Package timestamp implements /timestamp, which turns a date, time and
// timezone into a Discord dynamic timestamp.
package timestamp

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/craybot/craybot/internal/bot"
	"github.com/craybot/craybot/internal/core"
	"github.com/craybot/craybot/internal/logger"
	"github.com/craybot/craybot/pkg/constants"
	"github.com/sirupsen/logrus"
)

// Name is the module name
const Name = "timestamp"

// Option names of the /timestamp command
const (
	OptionDate     = "date"
	OptionTime     = "time"
	OptionTimezone = "timezone"
	OptionFormat   = "stamp_format"
)

// Module is the timestamp module
type Module struct {
	zones func() []string
}

var _ core.Module = (*Module)(nil)

// Factory builds the timestamp module. It needs no configuration.
var Factory = core.Factory{
	Name: Name,
	New: func(cfg *core.Config) (core.Module, error) {
		return New(), nil
	},
}

// New creates the module using the host's zone names for autocomplete
func New() *Module {
	return &Module{zones: ZoneNames}
}

// Name implements core.Module
func (m *Module) Name() string {
	return Name
}

// Register implements core.Module
func (m *Module) Register(r bot.Router) error {
	return r.HandleCommand(bot.Command{
		Definition:   Definition(),
		Handler:      m.Handle,
		Autocomplete: m.Autocomplete,
	})
}

// Definition returns the /timestamp slash command
func Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "timestamp",
		Description: "Generate a dynamic timestamp",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        OptionDate,
				Description: "Date in YYYY-MM-DD format",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        OptionTime,
				Description: "Time in HH:MM format (24-hour)",
				Required:    true,
			},
			{
				Type:         discordgo.ApplicationCommandOptionString,
				Name:         OptionTimezone,
				Description:  "Your timezone (e.g. America/New_York)",
				Required:     true,
				Autocomplete: true,
			},
			{
				Type:         discordgo.ApplicationCommandOptionString,
				Name:         OptionFormat,
				Description:  "The timestamp format you want",
				Required:     true,
				Autocomplete: true,
			},
		},
	}
}

// Handle answers /timestamp, only to the invoking user
func (m *Module) Handle(ctx context.Context, s bot.Sender, inv bot.Invocation) {
	result, err := Validate(
		inv.Option(OptionDate),
		inv.Option(OptionTime),
		inv.Option(OptionTimezone),
		inv.Option(OptionFormat),
	)

	log := logger.ForModule(Name).WithField("user_id", inv.UserID)

	var content string
	if err != nil {
		log.WithField("error", err).Info("timestamp-rejected")
		content = RejectionMessage(err)
	} else {
		content = fmt.Sprintf("Your timestamp is `%s`\nIt will show up as %s", result.Markup(), result.Markup())
	}

	if err := s.Respond(ctx, inv, bot.Response{Content: content, Ephemeral: true}); err != nil {
		log.WithField("error", err).Error("failed-to-respond-to-timestamp")
	}
}

// Autocomplete suggests zone names and display formats
func (m *Module) Autocomplete(ctx context.Context, s bot.Sender, inv bot.Invocation) {
	var choices []bot.Choice

	switch inv.Focused {
	case OptionTimezone:
		for _, name := range MatchZones(m.zones(), inv.Option(OptionTimezone), constants.MaxAutocompleteChoices) {
			choices = append(choices, bot.Choice{Name: name, Value: name})
		}
	case OptionFormat:
		for _, f := range Formats {
			choices = append(choices, bot.Choice{Name: f.Label, Value: f.Code})
		}
	default:
		return
	}

	if err := s.Suggest(ctx, inv, choices); err != nil {
		logger.ForModule(Name).WithFields(logrus.Fields{
			"option": inv.Focused,
			"error":  err,
		}).Warn("failed-to-send-autocomplete")
	}
}

// RejectionMessage renders a validation error for the invoking user
func RejectionMessage(err error) string {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return "Something went wrong generating your timestamp."
	}

	switch {
	case errors.Is(err, ErrInvalidDate):
		return "Invalid date format.\nPlease use `YYYY-MM-DD`, e.g. `2025-07-15`."
	case errors.Is(err, ErrInvalidTime):
		return "Invalid time format.\nPlease use `HH:MM`, e.g. `13:45`."
	case errors.Is(err, ErrInvalidTimezone):
		return fmt.Sprintf("Invalid timezone: %s. \nGo to https://zones.arilyn.cc/ to find your timezone.", verr.Value)
	default:
		return "Invalid timestamp.\nPlease choose from the list provided."
	}
}
