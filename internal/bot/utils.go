package bot

import (
	"github.com/craybot/craybot/internal/logger"
	"github.com/craybot/craybot/pkg/constants"
	"github.com/sirupsen/logrus"
)

// maskSecret masks sensitive information for logging
func maskSecret(s string) string {
	if len(s) <= constants.MinSecretLengthForMasking {
		return "***"
	}
	return s[:constants.SecretMaskPrefixLength] + "***" + s[len(s)-constants.SecretMaskSuffixLength:]
}

// truncate cuts text to Discord's message limit, keeping the beginning
func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= constants.MaxDiscordMessageLength {
		return text
	}

	logger.WithFields(logrus.Fields{
		"original_length": len(runes),
		"max_length":      constants.MaxDiscordMessageLength,
	}).Info("truncating-message-for-discord-limit")
	return string(runes[:constants.MaxDiscordMessageLength-3]) + "..."
}
