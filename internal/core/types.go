package core

// Config represents the complete craybot configuration structure
type Config struct {
	Discord     DiscordConfig    `yaml:"discord"`
	Identifiers IdentifierConfig `yaml:"identifiers"`
	Logging     LoggingConfig    `yaml:"logging"`
}

// DiscordConfig represents the gateway connection settings
type DiscordConfig struct {
	Token          string `yaml:"token"`
	CommandGuildID string `yaml:"command_guild_id"` // Sync slash commands to this guild only (default: global)
	SyncCommands   *bool  `yaml:"sync_commands"`    // Overwrite slash commands on ready (default: true)
	UserCacheSize  int    `yaml:"user_cache_size"`  // DM channels to cache (default: 64)
}

// ShouldSyncCommands reports whether slash commands are synced when the gateway is ready
func (d DiscordConfig) ShouldSyncCommands() bool {
	return d.SyncCommands == nil || *d.SyncCommands
}

// IdentifierConfig holds the Discord snowflakes the handler modules act on
type IdentifierConfig struct {
	MaintainerUserID  string `yaml:"maintainer_user_id"`  // Receives forwarded DMs, target of /praisedev and /shamedev
	TargetGuildID     string `yaml:"target_guild_id"`     // The only guild the ping listener reacts in
	BirthdayRoleID    string `yaml:"birthday_role_id"`    // Pinged on birthday announcements
	BirthdayChannelID string `yaml:"birthday_channel_id"` // Where the birthday bot announces
	BirthdayBotID     string `yaml:"birthday_bot_id"`     // The birthday bot's user ID
	GoLiveChannelID   string `yaml:"go_live_channel_id"`  // Where stream notifications are posted
	StreamerUserID    string `yaml:"streamer_user_id"`    // Author of stream notifications
	StreamPingRoleID  string `yaml:"stream_ping_role_id"` // Pinged when the streamer goes live
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	File         string `yaml:"file"`          // Log file path, empty disables file output
	MaxSize      int    `yaml:"max_size"`      // Single file max size in MB (default: 100)
	MaxBackups   int    `yaml:"max_backups"`   // Number of backups to keep (default: 5)
	MaxAge       int    `yaml:"max_age"`       // Maximum days to retain (default: 30)
	Compress     bool   `yaml:"compress"`      // Whether to compress old logs
	EnableStdout *bool  `yaml:"enable_stdout"` // Also output to stdout (default: true)
}

// StdoutEnabled reports whether log lines are written to stdout
func (l LoggingConfig) StdoutEnabled() bool {
	return l.EnableStdout == nil || *l.EnableStdout
}
