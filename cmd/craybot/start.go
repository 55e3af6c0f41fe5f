package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/craybot/craybot/internal/bot"
	"github.com/craybot/craybot/internal/core"
	"github.com/craybot/craybot/internal/logger"
	"github.com/craybot/craybot/internal/modules"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configFile string

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start craybot",
		Long: `Connect to Discord and serve events until interrupted.

Without --config the built-in template is used, which reads BOT_TOKEN and the
identifier variables from the environment or a .env file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := core.LoadConfig(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if err := logger.InitLogger(loggerConfig(config.Logging)); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			logger.WithFields(logrus.Fields{
				"config_file": configFile,
				"log_level":   config.Logging.Level,
				"log_file":    config.Logging.File,
			}).Info("logger-initialized")

			discordBot, err := bot.NewDiscordBot(bot.Options{
				Token:          config.Discord.Token,
				CommandGuildID: config.Discord.CommandGuildID,
				SyncCommands:   config.Discord.ShouldSyncCommands(),
				UserCacheSize:  config.Discord.UserCacheSize,
			})
			if err != nil {
				return fmt.Errorf("failed to create discord bot: %w", err)
			}

			engine := core.NewEngine(config, discordBot)
			if _, err := engine.Load(modules.Factories()); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintln(cmd.OutOrStdout(), "craybot is running. Press Ctrl+C to stop")
			return engine.Run(ctx)
		},
	}
)

func loggerConfig(c core.LoggingConfig) logger.Config {
	return logger.Config{
		Level:        c.Level,
		File:         c.File,
		MaxSize:      c.MaxSize,
		MaxBackups:   c.MaxBackups,
		MaxAge:       c.MaxAge,
		Compress:     c.Compress,
		EnableStdout: c.StdoutEnabled(),
	}
}

func init() {
	startCmd.Flags().StringVarP(&configFile, "config", "c", "", "Configuration file path (default: built-in template)")
}
