package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// LoadConfig loads and validates configuration from, in order of precedence:
// 1. BOT_* environment variables
// 2. the config file at path
// 3. built-in defaults
//
// A missing config file is not an error; defaults plus environment apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
		slog.Info("Config file not found, using defaults and environment", "path", path)
	}

	cfg := &Config{}
	// Environment values arrive as strings; weak typing lets them land in
	// bool and duration fields.
	weak := func(dc *mapstructure.DecoderConfig) { dc.WeaklyTypedInput = true }
	if err := v.Unmarshal(cfg, weak); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	v.SetDefault("database.path", DefaultDBPath)

	// Empty defaults register the keys so BOT_* environment overrides are
	// picked up by Unmarshal even without a config file.
	v.SetDefault("discord.token", "")
	v.SetDefault("responder.guild_id", "")
	v.SetDefault("responder.reply_message_1", "")
	v.SetDefault("responder.reply_message_2", "")
	v.SetDefault("responder.reply_message_3", "")
	v.SetDefault("responder.test_mode", false)

	v.SetDefault("responder.history_wait", DefaultHistoryWait)
	v.SetDefault("responder.flush_delay", DefaultFlushDelay)

	v.SetDefault("scheduler.tasks", DefaultSchedulerTasks)
}
