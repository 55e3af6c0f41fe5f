package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var identifierEnv = map[string]string{
	"BOT_TOKEN":           "test-token-12345",
	"MAINTAINER_USER_ID":  "100000000000000001",
	"TARGET_GUILD_ID":     "100000000000000002",
	"BIRTHDAY_ROLE_ID":    "100000000000000003",
	"BIRTHDAY_CHANNEL_ID": "100000000000000004",
	"BIRTHDAY_BOT_ID":     "100000000000000005",
	"GO_LIVE_CHANNEL_ID":  "100000000000000006",
	"STREAMER_USER_ID":    "100000000000000007",
	"STREAM_PING_ROLE_ID": "100000000000000008",
}

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig_DefaultTemplate_ReadsEnvironment(t *testing.T) {
	setEnv(t, identifierEnv)

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "test-token-12345", config.Discord.Token)
	assert.Equal(t, "100000000000000001", config.Identifiers.MaintainerUserID)
	assert.Equal(t, "100000000000000002", config.Identifiers.TargetGuildID)
	assert.Equal(t, "100000000000000008", config.Identifiers.StreamPingRoleID)
	assert.Equal(t, "info", config.Logging.Level)
	assert.True(t, config.Discord.ShouldSyncCommands())
	assert.True(t, config.Logging.StdoutEnabled())
}

func TestLoadConfig_DefaultTemplate_MissingVariables(t *testing.T) {
	env := map[string]string{}
	for k, v := range identifierEnv {
		env[k] = v
	}
	env["BIRTHDAY_BOT_ID"] = ""
	env["STREAMER_USER_ID"] = ""
	setEnv(t, env)

	_, err := LoadConfig("")
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "BIRTHDAY_BOT_ID")
	assert.Contains(t, err.Error(), "STREAMER_USER_ID")
}

func TestLoadConfig_File_ExpandsVariablesAndFillsDefaults(t *testing.T) {
	t.Setenv("CRAYBOT_TEST_TOKEN", "file-token-123456")
	path := writeConfig(t, `
discord:
  token: "${CRAYBOT_TEST_TOKEN}"
  command_guild_id: "123456789012345678"
  sync_commands: false
identifiers:
  maintainer_user_id: "42"
logging:
  level: debug
  enable_stdout: false
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "file-token-123456", config.Discord.Token)
	assert.Equal(t, "123456789012345678", config.Discord.CommandGuildID)
	assert.False(t, config.Discord.ShouldSyncCommands())
	assert.Equal(t, 64, config.Discord.UserCacheSize)
	assert.Equal(t, "42", config.Identifiers.MaintainerUserID)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, 100, config.Logging.MaxSize)
	assert.Equal(t, 5, config.Logging.MaxBackups)
	assert.Equal(t, 30, config.Logging.MaxAge)
	assert.False(t, config.Logging.StdoutEnabled())
}

func TestLoadConfig_InvalidFile_ReturnsError(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	require.NoError(t, os.WriteFile(".env", []byte("CRAYBOT_DOTENV_TOKEN=from-dotenv-file\n"), 0600))
	path := writeConfig(t, `
discord:
  token: "${CRAYBOT_DOTENV_TOKEN}"
`)
	defer os.Unsetenv("CRAYBOT_DOTENV_TOKEN")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv-file", config.Discord.Token)
}

func TestParseConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{
			name:    "missing token",
			content: "identifiers: {}\n",
			field:   "discord.token",
		},
		{
			name:    "malformed identifier",
			content: "discord:\n  token: t\nidentifiers:\n  birthday_role_id: \"not-a-number\"\n",
			field:   "identifiers.birthday_role_id",
		},
		{
			name:    "malformed command guild",
			content: "discord:\n  token: t\n  command_guild_id: \"abc\"\n",
			field:   "discord.command_guild_id",
		},
		{
			name:    "negative cache size",
			content: "discord:\n  token: t\n  user_cache_size: -1\n",
			field:   "discord.user_cache_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(tt.content)
			require.Error(t, err)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestParseConfig_InvalidYAML(t *testing.T) {
	_, err := ParseConfig("discord: [unclosed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestIdentifierConfig_Require(t *testing.T) {
	ids := IdentifierConfig{MaintainerUserID: "1", TargetGuildID: "2"}

	assert.NoError(t, ids.Require("maintainer_user_id", "target_guild_id"))

	err := ids.Require("maintainer_user_id", "birthday_role_id", "stream_ping_role_id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identifiers.birthday_role_id is required")
	assert.Contains(t, err.Error(), "identifiers.stream_ping_role_id is required")

	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))

	assert.Error(t, ids.Require("no_such_field"))
}
