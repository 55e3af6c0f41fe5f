// Package core holds craybot's configuration, its module contract and the
// engine that loads modules and runs the transport.
//
// # Configuration
//
// Configuration is YAML with ${VAR} references expanded from the environment.
// A .env file in the working directory is loaded first when present. Without
// a config file the built-in template below is used, so a plain .env is enough
// to run the bot:
//
//	discord:
//	  token: "${BOT_TOKEN}"
//	identifiers:
//	  maintainer_user_id: "${MAINTAINER_USER_ID}"
//	  target_guild_id: "${TARGET_GUILD_ID}"
//	  ...
//	logging:
//	  level: info
//
// # Modules
//
// A Module registers its handlers against a bot.Router. Modules are built
// from an ordered list of Factory values and loaded by a Loader; startup is
// aborted when any of them fails.
package core

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/craybot/craybot/pkg/constants"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigTemplate is used when no config file is given
const DefaultConfigTemplate = `
discord:
  token: "${BOT_TOKEN}"
identifiers:
  maintainer_user_id: "${MAINTAINER_USER_ID}"
  target_guild_id: "${TARGET_GUILD_ID}"
  birthday_role_id: "${BIRTHDAY_ROLE_ID}"
  birthday_channel_id: "${BIRTHDAY_CHANNEL_ID}"
  birthday_bot_id: "${BIRTHDAY_BOT_ID}"
  go_live_channel_id: "${GO_LIVE_CHANNEL_ID}"
  streamer_user_id: "${STREAMER_USER_ID}"
  stream_ping_role_id: "${STREAM_PING_ROLE_ID}"
logging:
  level: info
`

// LoadConfig loads configuration from configPath, or from DefaultConfigTemplate
// when configPath is empty, and expands environment variables
func LoadConfig(configPath string) (*Config, error) {
	if err := loadDotEnv(constants.DotEnvFile); err != nil {
		return nil, err
	}

	data := DefaultConfigTemplate
	if configPath != "" {
		raw, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		data = string(raw)
	}

	return ParseConfig(data)
}

// ParseConfig expands environment variables in data, parses it and validates the result
func ParseConfig(data string) (*Config, error) {
	expandedData, err := expandEnv(data)
	if err != nil {
		return nil, fmt.Errorf("failed to expand environment variables: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// loadDotEnv loads path into the environment if it exists. Variables already set win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// expandEnv replaces ${VAR_NAME} patterns with environment variable values
func expandEnv(input string) (string, error) {
	var missingVars []string

	result := os.Expand(input, func(key string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		missingVars = append(missingVars, key)
		return ""
	})

	if len(missingVars) > 0 {
		return "", &ConfigError{
			Field:  "environment",
			Reason: "is missing required variables: " + strings.Join(missingVars, ", "),
		}
	}

	return result, nil
}

// validateConfig fills defaults and checks the values that do not depend on a module
func validateConfig(config *Config) error {
	if config.Discord.Token == "" {
		return &ConfigError{Field: "discord.token", Reason: "is required"}
	}
	if config.Discord.UserCacheSize == 0 {
		config.Discord.UserCacheSize = constants.DefaultUserCacheSize
	}
	if config.Discord.UserCacheSize < 0 {
		return &ConfigError{Field: "discord.user_cache_size", Reason: "must not be negative"}
	}
	if id := config.Discord.CommandGuildID; id != "" && !isSnowflake(id) {
		return &ConfigError{Field: "discord.command_guild_id", Reason: fmt.Sprintf("is not a valid ID: %q", id)}
	}

	if config.Logging.Level == "" {
		config.Logging.Level = constants.DefaultLogLevel
	}
	if config.Logging.MaxSize == 0 {
		config.Logging.MaxSize = constants.DefaultLogMaxSize
	}
	if config.Logging.MaxBackups == 0 {
		config.Logging.MaxBackups = constants.DefaultLogMaxBackups
	}
	if config.Logging.MaxAge == 0 {
		config.Logging.MaxAge = constants.DefaultLogMaxAge
	}

	// Identifiers are only required by the modules that use them, but
	// whatever is set must be well formed
	values := config.Identifiers.byField()
	fields := make([]string, 0, len(values))
	for field := range values {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var errs []error
	for _, field := range fields {
		value := values[field]
		if value != "" && !isSnowflake(value) {
			errs = append(errs, &ConfigError{
				Field:  "identifiers." + field,
				Reason: fmt.Sprintf("is not a valid ID: %q", value),
			})
		}
	}
	return errors.Join(errs...)
}

// Require returns a ConfigError for every named identifier that is empty
func (c IdentifierConfig) Require(fields ...string) error {
	values := c.byField()

	var errs []error
	for _, field := range fields {
		value, known := values[field]
		switch {
		case !known:
			errs = append(errs, &ConfigError{Field: "identifiers." + field, Reason: "is not a known identifier"})
		case value == "":
			errs = append(errs, &ConfigError{Field: "identifiers." + field, Reason: "is required"})
		}
	}
	return errors.Join(errs...)
}

func (c IdentifierConfig) byField() map[string]string {
	return map[string]string{
		"maintainer_user_id":  c.MaintainerUserID,
		"target_guild_id":     c.TargetGuildID,
		"birthday_role_id":    c.BirthdayRoleID,
		"birthday_channel_id": c.BirthdayChannelID,
		"birthday_bot_id":     c.BirthdayBotID,
		"go_live_channel_id":  c.GoLiveChannelID,
		"streamer_user_id":    c.StreamerUserID,
		"stream_ping_role_id": c.StreamPingRoleID,
	}
}

// isSnowflake reports whether id is a Discord ID (an unsigned 64-bit decimal)
func isSnowflake(id string) bool {
	_, err := strconv.ParseUint(id, 10, 64)
	return err == nil
}
