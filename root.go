package main

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rickbassham/fitsderotate/common"
	"github.com/rickbassham/fitsderotate/config"
	"github.com/rickbassham/fitsderotate/logging"
)

type commandContext struct {
	configFlag    string
	logLevelFlag  string
	logFormatFlag string
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "fitsderotate",
		Short:         "Reproject rotated spectral cubes onto a north-up grid",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&ctx.logFormatFlag, "log-format", "", "Log format: console or json")

	rootCmd.AddCommand(newDerotateCommand(ctx))
	rootCmd.AddCommand(newInspectCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}

// loadConfig reads the configuration and applies the logging flags.
func (c *commandContext) loadConfig() (*config.Config, error) {
	cfg, _, _, err := config.Load(strings.TrimSpace(c.configFlag))
	if err != nil {
		return nil, common.ConfigurationError("load config", err)
	}

	if c.logLevelFlag != "" {
		cfg.Logging.Level = c.logLevelFlag
	}
	if c.logFormatFlag != "" {
		cfg.Logging.Format = c.logFormatFlag
	}
	if err := cfg.Normalize(); err != nil {
		return nil, common.ConfigurationError("config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, common.ConfigurationError("config", err)
	}

	return cfg, nil
}

func (c *commandContext) logger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, common.ConfigurationError("logging", err)
	}
	return logger.With("run_id", uuid.NewString()), nil
}
