// Package config manages application configuration from the config file,
// environment variables, and default values.
package config

import "time"

// Config defines the application configuration. Values can be set via
// environment variables prefixed with BOT_ (e.g., BOT_DISCORD_TOKEN) or
// through config.yaml.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Discord   DiscordConfig   `mapstructure:"discord"`
	Responder ResponderConfig `mapstructure:"responder"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LoggerConfig controls log output.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// DiscordConfig holds gateway credentials.
type DiscordConfig struct {
	Token string `mapstructure:"token" validate:"required"`
}

// ResponderConfig is the auto-reply surface. The three reply messages are
// optional; blank ones are dropped at dispatch time and their order is
// significant. GuildID may be empty, in which case the membership gate
// suppresses everything outside test mode.
type ResponderConfig struct {
	GuildID       string        `mapstructure:"guild_id"`
	ReplyMessage1 string        `mapstructure:"reply_message_1"`
	ReplyMessage2 string        `mapstructure:"reply_message_2"`
	ReplyMessage3 string        `mapstructure:"reply_message_3"`
	TestMode      bool          `mapstructure:"test_mode"`
	HistoryWait   time.Duration `mapstructure:"history_wait" validate:"min=1ms,max=30s"`
	FlushDelay    time.Duration `mapstructure:"flush_delay"  validate:"min=0,max=30s"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig configures a single scheduled task.
type TaskConfig struct {
	Schedule string `mapstructure:"schedule"`
	Enabled  bool   `mapstructure:"enabled"`
}
