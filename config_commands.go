package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rickbassham/fitsderotate/common"
	"github.com/rickbassham/fitsderotate/config"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create a sample configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var target string
			if len(args) == 1 {
				target = strings.TrimSpace(args[0])
			}
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return common.ConfigurationError("determine default config path", err)
				}
				target = defaultPath
			}
			target = filepath.Clean(target)

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return common.IOError("config init", target, fmt.Errorf("file already exists (use --overwrite to replace it)"))
				} else if !os.IsNotExist(err) {
					return common.IOError("config init", target, err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return common.IOError("config init", target, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}
