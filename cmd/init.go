package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ethanolivertroy/threat-modeler/internal/config"
)

var flagInitUser bool

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file",
	Long: `Write the default configuration as TOML.

Without a path the file is written to ./` + config.LocalFile + `, or to the user
config directory with --user. Existing files are never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.LocalFile
		switch {
		case len(args) > 0:
			path = args[0]
		case flagInitUser:
			p, err := config.UserConfigPath()
			if err != nil {
				return fmt.Errorf("failed to locate user config directory: %w", err)
			}
			path = p
		}

		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&flagInitUser, "user", false, "Write to the user config directory")
}
