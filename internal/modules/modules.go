// Package modules lists the modules craybot loads at startup.
package modules

import (
	"github.com/craybot/craybot/internal/core"
	"github.com/craybot/craybot/internal/modules/feedback"
	"github.com/craybot/craybot/internal/modules/pings"
	"github.com/craybot/craybot/internal/modules/timestamp"
)

// Factories returns the module factories in load order
func Factories() []core.Factory {
	return []core.Factory{
		pings.Factory,
		feedback.BotFeedbackFactory,
		feedback.DevFeedbackFactory,
		timestamp.Factory,
	}
}
